package exportcache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Artifact types produced by the export pipeline.
const (
	ArtifactCleanPDF   = "clean.pdf"
	ArtifactPreviewPDF = "preview.pdf"
	ArtifactPlanDOCX   = "plan.docx"
)

// ResolvePDFArtifactType maps entitlement to the artifact type a caller may
// receive. A non-entitled caller gets preview.pdf no matter what is cached.
func ResolvePDFArtifactType(paid bool) string {
	if paid {
		return ArtifactCleanPDF
	}
	return ArtifactPreviewPDF
}

// ComputeContentHash digests the canonical form of
// {template_version, watermark_version ?? null, payload}. Two payloads that
// are deep-equal after key-order normalization hash identically; any change
// to business content, template version, or watermark version changes the
// hash. Passing nil watermarkVersion keys clean and DOCX artifacts, so
// watermark-text changes invalidate only previews.
func ComputeContentHash(payload any, templateVersion string, watermarkVersion *string) (string, error) {
	normalized, err := normalizePayload(payload)
	if err != nil {
		return "", err
	}

	composite := map[string]any{
		"template_version":  templateVersion,
		"watermark_version": watermarkVersion,
		"payload":           normalized,
	}

	canonical, err := Canonicalize(composite)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// normalizePayload round-trips the payload through JSON so struct payloads
// and map payloads with identical content canonicalize identically. Numbers
// are decoded as json.Number to keep their literal form.
func normalizePayload(payload any) (any, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var normalized any
	if err := decoder.Decode(&normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}
