// Package pdf produces the PDF side of the export pipeline: DOCX-to-PDF
// conversion through an external converter service, the deprecated direct
// renderer kept as a rollback path, preview watermarking, and the
// SSRF-defensive logo fetcher.
package pdf

import "context"

// Converter derives a PDF from a validated DOCX. Implementations must honor
// context cancellation on the network path.
type Converter interface {
	Convert(ctx context.Context, docx []byte) ([]byte, error)
}

// ConverterFunc adapts a function to the Converter interface.
type ConverterFunc func(ctx context.Context, docx []byte) ([]byte, error)

func (f ConverterFunc) Convert(ctx context.Context, docx []byte) ([]byte, error) {
	return f(ctx, docx)
}
