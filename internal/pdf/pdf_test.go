package pdf

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/safeplate/haccp/internal/docmodel"
)

func legacyDocument() docmodel.Document {
	return docmodel.Document{
		Title:    "HACCP Plan",
		Subtitle: "Acme Deli",
		Sections: []docmodel.Section{
			{
				Heading: "Hazard Analysis",
				Blocks: []docmodel.Block{
					{Table: &docmodel.Table{
						Header: []string{"Step", "Hazard"},
						Rows:   [][]string{{"Cooking", "Survival of pathogens, cook to 75°C"}},
					}},
					{Paragraph: &docmodel.Paragraph{Text: "Advisory notes."}},
				},
			},
		},
	}
}

func TestRenderLegacyProducesPDF(t *testing.T) {
	data, err := RenderLegacy(legacyDocument())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("expected a pdf header, got %q", data[:8])
	}
}

func TestApplyWatermark(t *testing.T) {
	clean, err := RenderLegacy(legacyDocument())
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	marked, err := ApplyWatermark(clean, "PREVIEW - NOT FOR AUDIT USE")
	if err != nil {
		t.Fatalf("watermark: %v", err)
	}
	if !bytes.HasPrefix(marked, []byte("%PDF")) {
		t.Fatalf("watermarked output must still be a pdf")
	}
	if bytes.Equal(marked, clean) {
		t.Fatalf("watermark must change the document")
	}

	passthrough, err := ApplyWatermark(clean, "")
	if err != nil {
		t.Fatalf("watermark: %v", err)
	}
	if !bytes.Equal(passthrough, clean) {
		t.Fatalf("empty watermark text must be a no-op")
	}
}

func TestHTTPConverter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/forms/libreoffice/convert") {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if err := r.ParseMultipartForm(16 << 20); err != nil {
			http.Error(w, "bad multipart", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7 converted"))
	}))
	defer server.Close()

	conv := &HTTPConverter{BaseURL: server.URL, Client: server.Client()}
	pdf, err := conv.Convert(context.Background(), []byte("docx bytes"))
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("unexpected response: %q", pdf)
	}
}

func TestHTTPConverterRejectsNonPDF(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>error</html>"))
	}))
	defer server.Close()

	conv := &HTTPConverter{BaseURL: server.URL, Client: server.Client()}
	if _, err := conv.Convert(context.Background(), []byte("docx")); err == nil {
		t.Fatalf("expected error for a non-pdf response")
	}
}

func TestHTTPConverterErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "converter down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	conv := &HTTPConverter{BaseURL: server.URL, Client: server.Client()}
	if _, err := conv.Convert(context.Background(), []byte("docx")); err == nil {
		t.Fatalf("expected error for a 503")
	}
}

func TestLogoFetcherValidation(t *testing.T) {
	fetcher := &LogoFetcher{AllowedHosts: []string{"cdn.example.com"}}

	cases := []string{
		"http://cdn.example.com/logo.png",  // not https
		"https://evil.example.com/x.png",   // host not allow-listed
		"://bad url",                       // unparseable
	}
	for _, rawURL := range cases {
		_, err := fetcher.Fetch(context.Background(), rawURL)
		if !errors.Is(err, ErrLogoRejected) {
			t.Fatalf("url %q: expected ErrLogoRejected, got %v", rawURL, err)
		}
	}

	data, err := fetcher.Fetch(context.Background(), "")
	if err != nil || data != nil {
		t.Fatalf("empty url means no logo, got %v %v", data, err)
	}
}

func TestLogoFetcherHappyPathAndContentType(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/logo.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(png)
		case "/page.html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
		case "/redirect":
			http.Redirect(w, r, "/logo.png", http.StatusFound)
		}
	}))
	defer server.Close()

	serverURL, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	fetcher := &LogoFetcher{
		AllowedHosts: []string{serverURL.Hostname()},
		Client:       server.Client(),
	}

	data, err := fetcher.Fetch(context.Background(), server.URL+"/logo.png")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !bytes.Equal(data, png) {
		t.Fatalf("unexpected logo bytes: %v", data)
	}

	if _, err := fetcher.Fetch(context.Background(), server.URL+"/page.html"); !errors.Is(err, ErrLogoRejected) {
		t.Fatalf("non-image content type must be rejected, got %v", err)
	}

	if _, err := fetcher.Fetch(context.Background(), server.URL+"/redirect"); !errors.Is(err, ErrLogoRejected) {
		t.Fatalf("redirects must be refused, got %v", err)
	}
}

func TestLogoFetcherSizeCap(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(bytes.Repeat([]byte{0xff}, 64))
	}))
	defer server.Close()

	serverURL, _ := url.Parse(server.URL)
	fetcher := &LogoFetcher{
		AllowedHosts: []string{serverURL.Hostname()},
		MaxBytes:     32,
		Client:       server.Client(),
	}

	if _, err := fetcher.Fetch(context.Background(), server.URL+"/big.png"); !errors.Is(err, ErrLogoRejected) {
		t.Fatalf("oversized logo must be rejected, got %v", err)
	}
}
