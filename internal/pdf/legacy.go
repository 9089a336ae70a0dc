package pdf

import (
	"bytes"

	"github.com/go-pdf/fpdf"

	"github.com/safeplate/haccp/internal/docmodel"
)

// RenderLegacy renders a PDF directly from the document model, bypassing
// DOCX entirely. This is the rollback path for the primary pipeline; callers
// log a deprecation warning on every use. Layout fidelity is deliberately
// modest: the document must be complete and readable, not pretty.
func RenderLegacy(doc docmodel.Document) ([]byte, error) {
	f := fpdf.New("P", "mm", "A4", "")
	f.SetAutoPageBreak(true, 15)
	tr := f.UnicodeTranslatorFromDescriptor("")
	f.AddPage()

	if len(doc.LogoPNG) > 0 {
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		f.RegisterImageOptionsReader("logo", opts, bytes.NewReader(doc.LogoPNG))
		f.ImageOptions("logo", 10, 10, 40, 0, false, opts, 0, "")
		f.Ln(25)
	}

	f.SetFont("Helvetica", "B", 20)
	f.MultiCell(0, 10, tr(doc.Title), "", "L", false)
	if doc.Subtitle != "" {
		f.SetFont("Helvetica", "", 14)
		f.MultiCell(0, 8, tr(doc.Subtitle), "", "L", false)
	}
	f.Ln(4)

	for _, section := range doc.Sections {
		f.SetFont("Helvetica", "B", 14)
		f.MultiCell(0, 8, tr(section.Heading), "", "L", false)
		f.Ln(1)

		for _, block := range section.Blocks {
			switch {
			case block.Paragraph != nil:
				style := ""
				if block.Paragraph.Bold {
					style = "B"
				}
				f.SetFont("Helvetica", style, 10)
				f.MultiCell(0, 5, tr(block.Paragraph.Text), "", "L", false)
				f.Ln(1)
			case block.Table != nil:
				renderLegacyTable(f, tr, *block.Table)
				f.Ln(2)
			}
		}
		f.Ln(3)
	}

	var buf bytes.Buffer
	if err := f.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderLegacyTable(f *fpdf.Fpdf, tr func(string) string, table docmodel.Table) {
	columns := len(table.Header)
	for _, row := range table.Rows {
		if len(row) > columns {
			columns = len(row)
		}
	}
	if columns == 0 {
		return
	}
	pageWidth, _ := f.GetPageSize()
	left, _, right, _ := f.GetMargins()
	cellWidth := (pageWidth - left - right) / float64(columns)

	if len(table.Header) > 0 {
		f.SetFont("Helvetica", "B", 9)
		for _, cell := range table.Header {
			f.CellFormat(cellWidth, 6, tr(cell), "1", 0, "L", false, 0, "")
		}
		f.Ln(-1)
	}
	f.SetFont("Helvetica", "", 9)
	for _, row := range table.Rows {
		for i := 0; i < columns; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			f.CellFormat(cellWidth, 6, tr(cell), "1", 0, "L", false, 0, "")
		}
		f.Ln(-1)
	}
}
