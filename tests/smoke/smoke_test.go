package smoke

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/safeplate/haccp/internal/api"
	"github.com/safeplate/haccp/internal/auth"
	"github.com/safeplate/haccp/internal/blob"
	"github.com/safeplate/haccp/internal/docmodel"
	"github.com/safeplate/haccp/internal/export"
	"github.com/safeplate/haccp/internal/pdf"
	"github.com/safeplate/haccp/internal/plan"
	"github.com/safeplate/haccp/internal/rules"
)

func TestSmoke(t *testing.T) {
	converted, err := pdf.RenderLegacy(docmodel.Document{Title: "Converted"})
	if err != nil {
		t.Fatalf("RenderLegacy: %v", err)
	}

	plans := plan.NewMemoryStore()
	handler := &api.Handler{
		Auth:  &auth.TokenAuthenticator{DevToken: "test-token"},
		Plans: plans,
		Exports: &export.Service{
			Plans: plans,
			Blobs: blob.NewMemStore(),
			Converter: pdf.ConverterFunc(func(context.Context, []byte) ([]byte, error) {
				return converted, nil
			}),
			Config: export.Config{
				TemplateVersion:       "v1",
				PipelineMode:          export.PipelineDOCX,
				ConversionFailureMode: export.FailureStrict,
				WatermarkText:         "PREVIEW",
				WatermarkVersion:      "wm-1",
			},
			Logf: t.Logf,
		},
		Standards: rules.DefaultLimitStandards(),
	}

	srv := httptest.NewServer(handler.Routes())
	defer srv.Close()

	// auth gate sanity check
	res, err := http.Get(srv.URL + "/v1/plans/anything")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.StatusCode)
	}
	_ = res.Body.Close()

	planID := createPlan(t, srv.URL)
	evaluate(t, srv.URL, planID)
	exportPreview(t, srv.URL, planID)
}

func createPlan(t *testing.T, baseURL string) string {
	t.Helper()

	body := bytes.NewBufferString(`{
		"business": {"business_name": "Smoke Cafe"},
		"hazard_analysis": [
			{
				"step_name": "Chilled storage",
				"hazards": {
					"biological": {
						"description": "Listeria growth",
						"severity": "High",
						"likelihood": "Medium",
						"decision_tree": {"q1": true, "q2": true, "q3": false, "q4": false}
					}
				}
			}
		]
	}`)
	req, err := http.NewRequest(http.MethodPost, baseURL+"/v1/plans", body)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create plan: status %d", res.StatusCode)
	}

	var p plan.Plan
	if err := json.NewDecoder(res.Body).Decode(&p); err != nil {
		t.Fatalf("decode plan: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("no plan id assigned")
	}
	return p.ID
}

func evaluate(t *testing.T, baseURL, planID string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, baseURL+"/v1/plans/"+planID+"/evaluate", nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Authorization", "Bearer test-token")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("evaluate: status %d", res.StatusCode)
	}

	var out struct {
		Plan plan.Plan `json:"plan"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode evaluate: %v", err)
	}
	if len(out.Plan.FullPlan.CCPManagement) != 1 {
		t.Fatalf("expected one CCP entry, got %d", len(out.Plan.FullPlan.CCPManagement))
	}
}

func exportPreview(t *testing.T, baseURL, planID string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, baseURL+"/v1/plans/"+planID+"/export.pdf", nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Authorization", "Bearer test-token")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("export: status %d", res.StatusCode)
	}
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("export is not a PDF")
	}
}
