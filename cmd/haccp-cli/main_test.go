package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const planFixture = `{
  "id": "plan-1",
  "business": {
    "business_name": "Riverside Bakery",
    "vulnerable_consumers": true
  },
  "hazard_analysis": [
    {
      "step_name": "Cooking",
      "hazards": {
        "biological": {
          "description": "Salmonella survival",
          "severity": "Low",
          "likelihood": "Medium",
          "decision_tree": {"q1": true, "q2": true, "q3": false, "q4": false}
        }
      }
    }
  ],
  "full_plan": {
    "ccp_management": [
      {
        "ccp_id": "CCP-1",
        "step_name": "Cooking",
        "hazard": "Salmonella survival",
        "critical_limits": {"critical_limit_value": "70°C"}
      }
    ]
  }
}`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.json")
	if err := os.WriteFile(path, []byte(planFixture), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestValidateCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCommand(&out)
	root.SetArgs([]string{"validate", writeFixture(t)})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	var result struct {
		Report struct {
			SignificantHazards int `json:"significant_hazards"`
			ControlPoints      int `json:"control_points"`
			LimitIssues        []struct {
				CCPID string `json:"ccp_id"`
			} `json:"limit_issues"`
		} `json:"report"`
	}
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal output: %v\n%s", err, out.String())
	}
	// Vulnerable consumers escalate Salmonella to High, which the matrix
	// marks significant; the decision tree classifies it as a CCP and the
	// carried-over 70°C limit falls short of the cooking minimum.
	if result.Report.SignificantHazards != 1 || result.Report.ControlPoints != 1 {
		t.Fatalf("report = %+v", result.Report)
	}
	if len(result.Report.LimitIssues) == 0 {
		t.Fatalf("expected a missing critical limit issue")
	}
}

func TestValidateFailOnIssues(t *testing.T) {
	var out bytes.Buffer
	root := newRootCommand(&out)
	root.SetArgs([]string{"validate", "--fail-on-issues", writeFixture(t)})
	err := root.Execute()
	var ee *exitErr
	if !errors.As(err, &ee) || ee.code != 2 {
		t.Fatalf("err = %v, want exit code 2", err)
	}
}

func TestValidateMissingFile(t *testing.T) {
	root := newRootCommand(&bytes.Buffer{})
	root.SetArgs([]string{"validate", "does-not-exist.json"})
	err := root.Execute()
	var ee *exitErr
	if !errors.As(err, &ee) || ee.code != 3 {
		t.Fatalf("err = %v, want exit code 3", err)
	}
}

func TestExportCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/plans/plan-1/export.pdf" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("locale") != "de" {
			t.Errorf("locale = %s", r.URL.Query().Get("locale"))
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("auth = %s", r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer srv.Close()

	outFile := filepath.Join(t.TempDir(), "plan.pdf")
	var out bytes.Buffer
	root := newRootCommand(&out)
	root.SetArgs([]string{"export", "--addr", srv.URL, "--token", "tok", "--locale", "de", "--out", outFile, "plan-1"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("artifact = %q", data)
	}
	if !strings.Contains(out.String(), "wrote") {
		t.Fatalf("stdout = %q", out.String())
	}
}

func TestExportGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"Export blocked by reviewer"}`))
	}))
	defer srv.Close()

	root := newRootCommand(&bytes.Buffer{})
	root.SetArgs([]string{"export", "--addr", srv.URL, "plan-1"})
	err := root.Execute()
	var ee *exitErr
	if !errors.As(err, &ee) || ee.code != 1 {
		t.Fatalf("err = %v, want exit code 1", err)
	}
	if !strings.Contains(ee.msg, "422") {
		t.Fatalf("msg = %q", ee.msg)
	}
}

func TestRenderCommandDOCX(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "plan.docx")
	var out bytes.Buffer
	root := newRootCommand(&out)
	root.SetArgs([]string{"render", "--out", outFile, writeFixture(t)})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Fatalf("document is not a zip archive")
	}
}

func TestRenderCommandPDFToStdout(t *testing.T) {
	var out bytes.Buffer
	root := newRootCommand(&out)
	root.SetArgs([]string{"render", "--format", "pdf", writeFixture(t)})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !bytes.HasPrefix(out.Bytes(), []byte("%PDF")) {
		t.Fatalf("stdout is not a PDF")
	}
}

func TestPruneCommand(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a", "b", "c"} {
		path := filepath.Join(dir, "plans", "plan-1", "exports", "v1", name, "clean.pdf")
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("%PDF"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	var out bytes.Buffer
	root := newRootCommand(&out)
	root.SetArgs([]string{"prune", "--blob-dir", dir, "--retain", "1", "plan-1"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "deleted 2") {
		t.Fatalf("stdout = %q", out.String())
	}
}

func TestExportUnknownFormat(t *testing.T) {
	root := newRootCommand(&bytes.Buffer{})
	root.SetArgs([]string{"export", "--format", "odt", "plan-1"})
	err := root.Execute()
	var ee *exitErr
	if !errors.As(err, &ee) || ee.code != 3 {
		t.Fatalf("err = %v, want exit code 3", err)
	}
}
