// Package docmodel builds a template-agnostic document model (sections,
// paragraphs, tables) from plan data. Renderers in internal/docx and
// internal/pdf consume the model without knowing anything about plans.
package docmodel

// Document is the renderer-neutral representation of a generated plan.
type Document struct {
	Title    string
	Subtitle string
	LogoPNG  []byte // optional, already fetched and validated
	Sections []Section
}

type Section struct {
	Heading string
	Blocks  []Block
}

// Block is a tagged union: exactly one field is non-nil.
type Block struct {
	Paragraph *Paragraph
	Table     *Table
}

type Paragraph struct {
	Text string
	Bold bool
}

type Table struct {
	Header []string
	Rows   [][]string
}

func paragraph(text string) Block {
	return Block{Paragraph: &Paragraph{Text: text}}
}

func boldParagraph(text string) Block {
	return Block{Paragraph: &Paragraph{Text: text, Bold: true}}
}
