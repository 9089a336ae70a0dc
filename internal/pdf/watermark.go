package pdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ApplyWatermark stamps the preview overlay text diagonally across every
// page. The watermark text is part of the cache key (watermark version), so
// changing it invalidates cached previews without touching paid artifacts.
func ApplyWatermark(pdfBytes []byte, text string) ([]byte, error) {
	if text == "" {
		return pdfBytes, nil
	}

	wm, err := api.TextWatermark(text,
		"fontname:Helvetica, points:42, scalefactor:0.9 rel, op:0.3, rot:45",
		true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("build watermark: %w", err)
	}

	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(pdfBytes), &out, nil, wm, nil); err != nil {
		return nil, fmt.Errorf("apply watermark: %w", err)
	}
	return out.Bytes(), nil
}
