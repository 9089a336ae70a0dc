// Package export orchestrates artifact production: permission check, cache
// lookup, document generation with the structural health check, PDF
// derivation, watermarking, and storage.
package export

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/safeplate/haccp/internal/blob"
	"github.com/safeplate/haccp/internal/docmodel"
	"github.com/safeplate/haccp/internal/docx"
	"github.com/safeplate/haccp/internal/exportcache"
	"github.com/safeplate/haccp/internal/gate"
	"github.com/safeplate/haccp/internal/pdf"
	"github.com/safeplate/haccp/internal/plan"
)

// PDF pipeline modes.
const (
	PipelineDOCX   = "docx"
	PipelineLegacy = "legacy"
)

// Behavior when the DOCX-to-PDF conversion fails.
const (
	FailureFallback = "fallback" // degrade to the legacy renderer with a warning
	FailureStrict   = "strict"   // propagate; the documented production setting
)

const (
	contentTypePDF  = "application/pdf"
	contentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ErrPlanNotFound is returned when the requested plan does not exist.
var ErrPlanNotFound = errors.New("plan not found")

// BlockedError carries the gate's denial reason; callers surface it as a
// terminal, non-retryable response.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string { return e.Reason }

// Config holds the pipeline settings shared by every export request.
type Config struct {
	TemplateVersion       string
	PipelineMode          string
	ConversionFailureMode string
	WatermarkText         string
	WatermarkVersion      string
}

// Service produces export artifacts for plans.
type Service struct {
	Plans     plan.Store
	Blobs     blob.Store
	Converter pdf.Converter
	Logos     *pdf.LogoFetcher
	Config    Config
	Logf      func(format string, args ...any)
}

// Artifact is one produced document.
type Artifact struct {
	Bytes        []byte
	ContentType  string
	Filename     string
	ArtifactType string
	FromCache    bool
}

// ExportPDF produces the PDF artifact for a plan. The artifact type follows
// the plan's entitlement: unpaid plans always yield preview.pdf, regardless
// of what is cached. forcePreview requests the watermarked artifact even for
// a paid plan (the sample route).
func (s *Service) ExportPDF(ctx context.Context, planID, locale string, forcePreview bool) (Artifact, error) {
	p, err := s.loadAllowed(planID)
	if err != nil {
		return Artifact{}, err
	}

	artifactType := exportcache.ResolvePDFArtifactType(p.Entitled())
	if forcePreview {
		artifactType = exportcache.ArtifactPreviewPDF
	}
	return s.produce(ctx, p, locale, artifactType)
}

// ExportDOCX produces the DOCX artifact. Entitlement is enforced by the
// caller: DOCX has no watermarked preview form.
func (s *Service) ExportDOCX(ctx context.Context, planID, locale string) (Artifact, error) {
	p, err := s.loadAllowed(planID)
	if err != nil {
		return Artifact{}, err
	}
	return s.produce(ctx, p, locale, exportcache.ArtifactPlanDOCX)
}

func (s *Service) loadAllowed(planID string) (plan.Plan, error) {
	p, ok := s.Plans.GetPlan(planID)
	if !ok {
		return plan.Plan{}, ErrPlanNotFound
	}
	if decision := gate.IsExportAllowed(&p); !decision.Allowed {
		return plan.Plan{}, &BlockedError{Reason: decision.Reason}
	}
	return p, nil
}

func (s *Service) produce(ctx context.Context, p plan.Plan, locale, artifactType string) (Artifact, error) {
	matchedLocale := docmodel.MatchLocale(locale).String()
	payload := map[string]any{
		"business":        p.Business,
		"hazard_analysis": p.HazardAnalysis,
		"full_plan":       p.FullPlan,
		"locale":          matchedLocale,
	}

	var watermarkVersion *string
	watermarked := artifactType == exportcache.ArtifactPreviewPDF
	if watermarked {
		watermarkVersion = &s.Config.WatermarkVersion
	}

	contentHash, err := exportcache.ComputeContentHash(payload, s.Config.TemplateVersion, watermarkVersion)
	if err != nil {
		return Artifact{}, fmt.Errorf("content hash: %w", err)
	}
	storagePath := exportcache.BuildStoragePath(p.ID, s.Config.TemplateVersion, contentHash, artifactType)

	contentType := contentTypePDF
	if artifactType == exportcache.ArtifactPlanDOCX {
		contentType = contentTypeDOCX
	}

	// Generation finishes and stores its result even when the caller goes
	// away; a future request then hits the cache instead of regenerating.
	genCtx := context.WithoutCancel(ctx)

	result, err := exportcache.GetOrGenerate(ctx, exportcache.GetOrGenerateInput{
		GetCached: func(ctx context.Context) ([]byte, bool, error) {
			data, err := s.Blobs.Download(ctx, storagePath)
			if errors.Is(err, blob.ErrNotFound) {
				return nil, false, nil
			}
			if err != nil {
				return nil, false, err
			}
			return data, true, nil
		},
		Generate: func(context.Context) ([]byte, error) {
			return s.generate(genCtx, p, matchedLocale, artifactType, watermarked)
		},
		Store: func(_ context.Context, buffer []byte) error {
			return s.Blobs.Upload(genCtx, storagePath, buffer, contentType)
		},
	})
	if err != nil {
		return Artifact{}, err
	}

	return Artifact{
		Bytes:        result.Buffer,
		ContentType:  contentType,
		Filename:     fmt.Sprintf("haccp-plan-%s-v%d-%s", p.ID, p.VersionNumber, artifactType),
		ArtifactType: artifactType,
		FromCache:    result.FromCache,
	}, nil
}

func (s *Service) generate(ctx context.Context, p plan.Plan, locale, artifactType string, watermarked bool) ([]byte, error) {
	doc := docmodel.Build(p, locale, s.fetchLogo(ctx, p))

	docxBytes, err := s.renderHealthyDOCX(doc)
	if err != nil {
		return nil, err
	}
	if artifactType == exportcache.ArtifactPlanDOCX {
		return docxBytes, nil
	}

	pdfBytes, err := s.renderPDF(ctx, doc, docxBytes)
	if err != nil {
		return nil, err
	}
	if watermarked {
		pdfBytes, err = pdf.ApplyWatermark(pdfBytes, s.Config.WatermarkText)
		if err != nil {
			return nil, fmt.Errorf("watermark: %w", err)
		}
	}
	return pdfBytes, nil
}

// renderHealthyDOCX renders the archive and structurally validates it,
// regenerating exactly once on a health failure. A second failure is
// terminal: a corrupt document is never served.
func (s *Service) renderHealthyDOCX(doc docmodel.Document) ([]byte, error) {
	docxBytes, err := docx.Render(doc)
	if err != nil {
		return nil, fmt.Errorf("render docx: %w", err)
	}
	if healthErr := docx.CheckHealth(docxBytes); healthErr != nil {
		s.logf("docx health check failed, regenerating once: %v", healthErr)
		docxBytes, err = docx.Render(doc)
		if err != nil {
			return nil, fmt.Errorf("render docx (retry): %w", err)
		}
		if healthErr := docx.CheckHealth(docxBytes); healthErr != nil {
			return nil, fmt.Errorf("docx failed structural health check after retry: %w", healthErr)
		}
	}
	return docxBytes, nil
}

func (s *Service) renderPDF(ctx context.Context, doc docmodel.Document, docxBytes []byte) ([]byte, error) {
	if s.Config.PipelineMode == PipelineLegacy {
		return s.renderLegacyPDF(doc)
	}

	pdfBytes, err := s.Converter.Convert(ctx, docxBytes)
	if err == nil {
		return pdfBytes, nil
	}
	if s.Config.ConversionFailureMode == FailureFallback {
		s.logf("WARN docx-to-pdf conversion failed, falling back to legacy renderer: %v", err)
		return s.renderLegacyPDF(doc)
	}
	return nil, fmt.Errorf("docx-to-pdf conversion: %w", err)
}

func (s *Service) renderLegacyPDF(doc docmodel.Document) ([]byte, error) {
	s.logf("WARN deprecated_pipeline=legacy_pdf direct PDF rendering executed; migrate to the docx pipeline")
	return pdf.RenderLegacy(doc)
}

// fetchLogo is best-effort: any rejection or fetch failure degrades to "no
// logo" with a log line, never to a failed export.
func (s *Service) fetchLogo(ctx context.Context, p plan.Plan) []byte {
	if s.Logos == nil || p.Business.LogoURL == "" {
		return nil
	}
	logo, err := s.Logos.Fetch(ctx, p.Business.LogoURL)
	if err != nil {
		s.logf("logo fetch degraded to none for plan %s: %v", p.ID, err)
		return nil
	}
	return logo
}

// PruneArtifacts removes all but the retain most recent artifacts per plan.
// It runs out-of-band, never on the export hot path.
func (s *Service) PruneArtifacts(ctx context.Context, planID string, retain int) (int, error) {
	return exportcache.PruneArtifacts(ctx, s.Blobs, planID, retain)
}

// PruneAll prunes every known plan and returns the total deleted.
func (s *Service) PruneAll(ctx context.Context, retain int) (int, error) {
	ids, err := s.Plans.ListPlanIDs()
	if err != nil {
		return 0, err
	}
	total := 0
	for _, id := range ids {
		deleted, err := exportcache.PruneArtifacts(ctx, s.Blobs, id, retain)
		total += deleted
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *Service) logf(format string, args ...any) {
	if s.Logf != nil {
		s.Logf(format, args...)
		return
	}
	log.Printf(format, args...)
}
