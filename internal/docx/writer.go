// Package docx renders a docmodel.Document to a WordprocessingML archive
// and structurally health-checks produced archives before they leave the
// pipeline.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"

	"github.com/safeplate/haccp/internal/docmodel"
)

// Fixed archive timestamp. Artifact bytes must be identical for identical
// input so the content-addressed cache never stores two versions of the
// same document.
var archiveEpoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// Render produces the DOCX bytes for a document model.
func Render(doc docmodel.Document) ([]byte, error) {
	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", contentTypesXML(doc)},
		{"_rels/.rels", []byte(packageRelsXML)},
		{"word/document.xml", documentXML(doc)},
		{"word/_rels/document.xml.rels", documentRelsXML(doc)},
		{"word/styles.xml", []byte(stylesXML)},
	}
	if len(doc.LogoPNG) > 0 {
		parts = append(parts, struct {
			name string
			data []byte
		}{"word/media/logo.png", doc.LogoPNG})
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	for _, part := range parts {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     part.name,
			Method:   zip.Deflate,
			Modified: archiveEpoch,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", part.name, err)
		}
		if _, err := w.Write(part.data); err != nil {
			return nil, fmt.Errorf("write %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func contentTypesXML(doc docmodel.Document) []byte {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	if len(doc.LogoPNG) > 0 {
		b.WriteString(`<Default Extension="png" ContentType="image/png"/>`)
	}
	b.WriteString(`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>`)
	b.WriteString(`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>`)
	b.WriteString(`</Types>`)
	return []byte(b.String())
}

const packageRelsXML = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

func documentRelsXML(doc docmodel.Document) []byte {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	b.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>`)
	if len(doc.LogoPNG) > 0 {
		b.WriteString(`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/logo.png"/>`)
	}
	b.WriteString(`</Relationships>`)
	return []byte(b.String())
}

const stylesXML = xml.Header + `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	`<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:rPr><w:b/><w:sz w:val="32"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/><w:rPr><w:b/><w:sz w:val="48"/></w:rPr></w:style>` +
	`</w:styles>`

func documentXML(doc docmodel.Document) []byte {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<w:document` +
		` xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"` +
		` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"` +
		` xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"` +
		` xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"` +
		` xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">`)
	b.WriteString(`<w:body>`)

	if len(doc.LogoPNG) > 0 {
		b.WriteString(logoDrawingXML)
	}
	writeStyledParagraph(&b, doc.Title, "Title")
	if doc.Subtitle != "" {
		writeStyledParagraph(&b, doc.Subtitle, "Heading1")
	}

	for _, section := range doc.Sections {
		writeStyledParagraph(&b, section.Heading, "Heading1")
		for _, block := range section.Blocks {
			switch {
			case block.Paragraph != nil:
				writeParagraph(&b, *block.Paragraph)
			case block.Table != nil:
				writeTable(&b, *block.Table)
			}
		}
	}

	b.WriteString(`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/></w:sectPr>`)
	b.WriteString(`</w:body></w:document>`)
	return []byte(b.String())
}

// Inline picture anchored at the top of the body, referencing the logo
// relationship. Extent is fixed at roughly 50x25mm in EMUs.
const logoDrawingXML = `<w:p><w:r><w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0">` +
	`<wp:extent cx="1800000" cy="900000"/><wp:docPr id="1" name="Logo"/>` +
	`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">` +
	`<pic:pic><pic:nvPicPr><pic:cNvPr id="1" name="logo.png"/><pic:cNvPicPr/></pic:nvPicPr>` +
	`<pic:blipFill><a:blip r:embed="rId2"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>` +
	`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="1800000" cy="900000"/></a:xfrm>` +
	`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr></pic:pic>` +
	`</a:graphicData></a:graphic></wp:inline></w:drawing></w:r></w:p>`

func writeStyledParagraph(b *strings.Builder, text, style string) {
	b.WriteString(`<w:p><w:pPr><w:pStyle w:val="` + style + `"/></w:pPr><w:r><w:t xml:space="preserve">`)
	b.WriteString(escape(text))
	b.WriteString(`</w:t></w:r></w:p>`)
}

func writeParagraph(b *strings.Builder, p docmodel.Paragraph) {
	b.WriteString(`<w:p><w:r>`)
	if p.Bold {
		b.WriteString(`<w:rPr><w:b/></w:rPr>`)
	}
	b.WriteString(`<w:t xml:space="preserve">`)
	b.WriteString(escape(p.Text))
	b.WriteString(`</w:t></w:r></w:p>`)
}

func writeTable(b *strings.Builder, table docmodel.Table) {
	b.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="0" w:type="auto"/>` +
		`<w:tblBorders><w:top w:val="single" w:sz="4"/><w:bottom w:val="single" w:sz="4"/>` +
		`<w:left w:val="single" w:sz="4"/><w:right w:val="single" w:sz="4"/>` +
		`<w:insideH w:val="single" w:sz="4"/><w:insideV w:val="single" w:sz="4"/></w:tblBorders></w:tblPr>`)
	if len(table.Header) > 0 {
		writeTableRow(b, table.Header, true)
	}
	for _, row := range table.Rows {
		writeTableRow(b, row, false)
	}
	b.WriteString(`</w:tbl>`)
}

func writeTableRow(b *strings.Builder, cells []string, bold bool) {
	b.WriteString(`<w:tr>`)
	for _, cell := range cells {
		b.WriteString(`<w:tc><w:tcPr/><w:p><w:r>`)
		if bold {
			b.WriteString(`<w:rPr><w:b/></w:rPr>`)
		}
		b.WriteString(`<w:t xml:space="preserve">`)
		b.WriteString(escape(cell))
		b.WriteString(`</w:t></w:r></w:p></w:tc>`)
	}
	b.WriteString(`</w:tr>`)
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
