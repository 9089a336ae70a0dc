package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/safeplate/haccp/internal/api"
	"github.com/safeplate/haccp/internal/auth"
	"github.com/safeplate/haccp/internal/blob"
	"github.com/safeplate/haccp/internal/config"
	"github.com/safeplate/haccp/internal/export"
	"github.com/safeplate/haccp/internal/pdf"
	"github.com/safeplate/haccp/internal/plan"
	"github.com/safeplate/haccp/internal/plan/sqlstore"
	"github.com/safeplate/haccp/internal/rules"
)

func main() {
	if err := runFn(os.Args[1:], os.Getenv, listenAndServe, newServer); err != nil {
		fatalf("server error: %v", err)
	}
}

var runFn = run
var fatalf = log.Fatalf

func newServer(cfg config.Config) (*http.Server, error) {
	var plans plan.Store
	switch cfg.DB.Driver {
	case "":
		plans = plan.NewMemoryStore()
	case "sqlite":
		store, err := sqlstore.OpenSQLite(cfg.DB.DSN)
		if err != nil {
			return nil, fmt.Errorf("open plan store: %w", err)
		}
		plans = store
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DB.Driver)
	}

	blobs, err := blob.NewFSStore(cfg.BlobDir)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	converterTimeout := time.Duration(cfg.Pipeline.ConverterTimeoutSeconds) * time.Second
	logoTimeout := time.Duration(cfg.Logo.TimeoutSeconds) * time.Second

	standards := rules.DefaultLimitStandards()
	if cfg.Limits.MaxCoolingHours > 0 {
		standards.MaxCoolingHours = cfg.Limits.MaxCoolingHours
	}

	exports := &export.Service{
		Plans: plans,
		Blobs: blobs,
		Converter: &pdf.HTTPConverter{
			BaseURL: cfg.Pipeline.ConverterURL,
			Timeout: converterTimeout,
		},
		Logos: &pdf.LogoFetcher{
			AllowedHosts: cfg.Logo.AllowedHosts,
			MaxBytes:     cfg.Logo.MaxBytes,
			Timeout:      logoTimeout,
		},
		Config: export.Config{
			TemplateVersion:       cfg.TemplateVersion,
			PipelineMode:          cfg.Pipeline.Mode,
			ConversionFailureMode: cfg.Pipeline.ConversionFailureMode,
			WatermarkText:         cfg.Watermark.Text,
			WatermarkVersion:      cfg.Watermark.Version,
		},
	}

	if cfg.RetainArtifacts > 0 {
		go pruneLoop(exports, cfg.RetainArtifacts)
	}

	h := &api.Handler{
		Auth: &auth.TokenAuthenticator{
			DevToken:   cfg.Auth.DevToken,
			AdminToken: cfg.Auth.AdminToken,
		},
		Plans:     plans,
		Exports:   exports,
		Standards: standards,
	}
	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}, nil
}

func pruneLoop(exports *export.Service, retain int) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		deleted, err := exports.PruneAll(context.Background(), retain)
		if err != nil {
			log.Printf("artifact prune error: %v", err)
			continue
		}
		if deleted > 0 {
			log.Printf("artifact prune removed %d objects", deleted)
		}
	}
}

type envFn func(string) string
type listenFn func(*http.Server) error
type serverFactory func(cfg config.Config) (*http.Server, error)

func run(args []string, getenv envFn, listen listenFn, factory serverFactory) error {
	fs := flag.NewFlagSet("haccp-gateway", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to haccp config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfgFile := *configPath
	if cfgFile == "" {
		cfgFile = getenv("HACCP_CONFIG_PATH")
	}

	var cfg config.Config
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	cfg.ListenAddr = firstNonEmpty(getenv("HACCP_LISTEN_ADDR"), cfg.ListenAddr, ":8080")
	cfg.BlobDir = firstNonEmpty(getenv("HACCP_BLOB_DIR"), cfg.BlobDir, "data/exports")
	cfg.TemplateVersion = firstNonEmpty(getenv("HACCP_TEMPLATE_VERSION"), cfg.TemplateVersion, "v1")
	cfg.Pipeline.Mode = firstNonEmpty(cfg.Pipeline.Mode, export.PipelineDOCX)
	cfg.Pipeline.ConversionFailureMode = firstNonEmpty(cfg.Pipeline.ConversionFailureMode, export.FailureStrict)
	cfg.Pipeline.ConverterURL = firstNonEmpty(getenv("HACCP_CONVERTER_URL"), cfg.Pipeline.ConverterURL)
	cfg.Auth.DevToken = firstNonEmpty(getenv("HACCP_DEV_TOKEN"), cfg.Auth.DevToken)
	cfg.Auth.AdminToken = firstNonEmpty(getenv("HACCP_ADMIN_TOKEN"), cfg.Auth.AdminToken)

	server, err := factory(cfg)
	if err != nil {
		return err
	}

	log.Printf("haccp-gateway listening on %s", cfg.ListenAddr)
	if err := listen(server); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func listenAndServe(server *http.Server) error {
	return server.ListenAndServe()
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
