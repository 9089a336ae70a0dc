package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/safeplate/haccp/internal/export"
)

type Config struct {
	ListenAddr      string          `yaml:"listen_addr"`
	BlobDir         string          `yaml:"blob_dir"`
	DB              DBConfig        `yaml:"db"`
	TemplateVersion string          `yaml:"template_version"`
	Pipeline        PipelineConfig  `yaml:"pipeline"`
	Watermark       WatermarkConfig `yaml:"watermark"`
	Logo            LogoConfig      `yaml:"logo"`
	Limits          LimitsConfig    `yaml:"limits"`
	RetainArtifacts int             `yaml:"retain_artifacts"`
	Auth            AuthConfig      `yaml:"auth"`
}

type DBConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type PipelineConfig struct {
	Mode                    string `yaml:"mode"`
	ConversionFailureMode   string `yaml:"conversion_failure_mode"`
	ConverterURL            string `yaml:"converter_url"`
	ConverterTimeoutSeconds int    `yaml:"converter_timeout_seconds"`
}

type WatermarkConfig struct {
	Text    string `yaml:"text"`
	Version string `yaml:"version"`
}

type LogoConfig struct {
	AllowedHosts   []string `yaml:"allowed_hosts"`
	MaxBytes       int64    `yaml:"max_bytes"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

type LimitsConfig struct {
	MaxCoolingHours float64 `yaml:"max_cooling_hours"`
}

type AuthConfig struct {
	DevToken   string `yaml:"dev_token"`
	AdminToken string `yaml:"admin_token"`
}

func Load(path string) (Config, error) {
	// #nosec G304 -- path is operator-provided config path.
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	expanded := os.ExpandEnv(string(raw))
	expanded = strings.ReplaceAll(expanded, "\r\n", "\n")

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if c.TemplateVersion == "" {
		return fmt.Errorf("template_version is required")
	}

	switch c.Pipeline.Mode {
	case "", export.PipelineDOCX, export.PipelineLegacy:
	default:
		return fmt.Errorf("pipeline.mode must be %q or %q", export.PipelineDOCX, export.PipelineLegacy)
	}
	switch c.Pipeline.ConversionFailureMode {
	case "", export.FailureFallback, export.FailureStrict:
	default:
		return fmt.Errorf("pipeline.conversion_failure_mode must be %q or %q", export.FailureFallback, export.FailureStrict)
	}
	if c.Pipeline.Mode != export.PipelineLegacy && c.Pipeline.ConverterURL == "" {
		return fmt.Errorf("pipeline.converter_url is required when pipeline.mode is %q", export.PipelineDOCX)
	}

	if c.DB.Driver != "" && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required when db.driver is set")
	}
	if c.RetainArtifacts < 0 {
		return fmt.Errorf("retain_artifacts must not be negative")
	}

	return nil
}
