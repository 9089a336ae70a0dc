package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const defaultConvertTimeout = 60 * time.Second

// HTTPConverter posts the DOCX to a document-conversion service (a
// Gotenberg-style endpoint) and returns the PDF it responds with.
type HTTPConverter struct {
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
}

func (c *HTTPConverter) Convert(ctx context.Context, docx []byte) ([]byte, error) {
	if c.BaseURL == "" {
		return nil, fmt.Errorf("converter base url not configured")
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultConvertTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("files", "plan.docx")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(docx); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	url := strings.TrimSuffix(c.BaseURL, "/") + "/forms/libreoffice/convert"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("convert request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("converter returned status %d", resp.StatusCode)
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read converted pdf: %w", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		return nil, fmt.Errorf("converter response is not a pdf")
	}
	return pdf, nil
}
