package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultLogoTimeout  = 5 * time.Second
	defaultLogoMaxBytes = 2 << 20
)

// ErrLogoRejected covers every validation failure in the logo fetcher.
// Callers treat it as "no logo", never as an export failure.
var ErrLogoRejected = errors.New("logo rejected")

// LogoFetcher downloads a business logo with SSRF defenses: HTTPS only, an
// explicit host allow-list, no redirects, a bounded timeout, an image/*
// content-type requirement, and a size cap on the decoded bytes.
type LogoFetcher struct {
	AllowedHosts []string
	Timeout      time.Duration
	MaxBytes     int64
	Client       *http.Client
}

func (f *LogoFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if rawURL == "" {
		return nil, nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: unparseable url", ErrLogoRejected)
	}
	if parsed.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q is not https", ErrLogoRejected, parsed.Scheme)
	}
	if !f.hostAllowed(parsed.Hostname()) {
		return nil, fmt.Errorf("%w: host %q is not allow-listed", ErrLogoRejected, parsed.Hostname())
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = defaultLogoTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLogoRejected, err)
	}

	client := f.Client
	if client == nil {
		client = &http.Client{}
	}
	// Never follow redirects: an allow-listed host must not be able to
	// bounce the fetch somewhere else.
	client = &http.Client{
		Transport: client.Transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return fmt.Errorf("%w: redirect refused", ErrLogoRejected)
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLogoRejected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrLogoRejected, resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: content type %q is not an image", ErrLogoRejected, contentType)
	}

	maxBytes := f.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultLogoMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLogoRejected, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: exceeds %d byte cap", ErrLogoRejected, maxBytes)
	}
	return data, nil
}

func (f *LogoFetcher) hostAllowed(host string) bool {
	for _, allowed := range f.AllowedHosts {
		if strings.EqualFold(host, allowed) {
			return true
		}
	}
	return false
}
