package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAndValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "haccp.yaml")

	os.Setenv("CONVERTER_URL", "http://converter.internal:3000")
	defer os.Unsetenv("CONVERTER_URL")

	data := `
listen_addr: ":8080"
template_version: "v3"
pipeline:
  mode: "docx"
  conversion_failure_mode: "strict"
  converter_url: "${CONVERTER_URL}"
watermark:
  text: "PREVIEW"
  version: "wm-1"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Pipeline.ConverterURL != "http://converter.internal:3000" {
		t.Fatalf("expected expanded converter url, got %q", cfg.Pipeline.ConverterURL)
	}
}

func TestValidateMissingFields(t *testing.T) {
	if err := (Config{}).Validate(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateDocxPipelineRequiresConverterURL(t *testing.T) {
	cfg := Config{ListenAddr: ":8080", TemplateVersion: "v3", Pipeline: PipelineConfig{Mode: "docx"}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateLegacyPipelineSkipsConverterURL(t *testing.T) {
	cfg := Config{ListenAddr: ":8080", TemplateVersion: "v3", Pipeline: PipelineConfig{Mode: "legacy"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateRejectsUnknownFailureMode(t *testing.T) {
	cfg := Config{
		ListenAddr:      ":8080",
		TemplateVersion: "v3",
		Pipeline:        PipelineConfig{Mode: "legacy", ConversionFailureMode: "retry"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateDBRequiresDSN(t *testing.T) {
	cfg := Config{
		ListenAddr:      ":8080",
		TemplateVersion: "v3",
		Pipeline:        PipelineConfig{Mode: "legacy"},
		DB:              DBConfig{Driver: "sqlite"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("does-not-exist.yaml"); err == nil {
		t.Fatalf("expected error")
	}
}
