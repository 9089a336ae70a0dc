// Package plan defines the canonical HACCP plan record, its derived
// evaluation facts, and the plan store collaborator interface.
package plan

// Payment states carried on a plan. Only PaymentPaid entitles the owner to
// clean (non-watermarked) artifacts.
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

// Audit-readiness levels written by the reviewing collaborator. The casing
// here is canonical; the export gate matches case-insensitively so verdicts
// from older reviewers ("Major Gaps") still deny.
const (
	ReadinessReady     = "Ready"
	ReadinessMinorGaps = "Minor gaps"
	ReadinessMajorGaps = "Major gaps"
)

// Plan is the canonical record assembled from wizard answers.
type Plan struct {
	ID             string        `json:"id"`
	OwnerSubject   string        `json:"owner_subject,omitempty"`
	Business       BusinessInfo  `json:"business"`
	HazardAnalysis []ProcessStep `json:"hazard_analysis,omitempty"`
	FullPlan       FullPlan      `json:"full_plan"`
	PaymentStatus  string        `json:"payment_status,omitempty"`
	VersionNumber  int           `json:"version_number"`
	CreatedAt      string        `json:"created_at,omitempty"`
	UpdatedAt      string        `json:"updated_at,omitempty"`
}

// Entitled reports whether exports for this plan may omit the preview
// watermark.
func (p Plan) Entitled() bool {
	return p.PaymentStatus == PaymentPaid
}

type BusinessInfo struct {
	BusinessName        string `json:"business_name"`
	ProductName         string `json:"product_name,omitempty"`
	ProcessDescription  string `json:"process_description,omitempty"`
	LogoURL             string `json:"logo_url,omitempty"`
	VulnerableConsumers bool   `json:"vulnerable_consumers,omitempty"`
}

// ProcessStep is one step of the hazard analysis. Hazards maps hazard
// category (biological, chemical, physical, allergen) to a free-form
// evaluation object; the rule engine reads and rewrites entries in place
// and passes anything that is not an object through untouched.
type ProcessStep struct {
	StepName string         `json:"step_name"`
	Hazards  map[string]any `json:"hazards,omitempty"`
}

// FullPlan holds the assembled plan document content.
type FullPlan struct {
	OriginalInputs       map[string]any     `json:"_original_inputs,omitempty"`
	PrerequisitePrograms map[string]any     `json:"prerequisite_programs,omitempty"`
	CCPManagement        []CCPEntry         `json:"ccp_management,omitempty"`
	Validation           *ValidationVerdict `json:"validation,omitempty"`
}

// CCPEntry is one CCP-management row, created when a hazard is classified
// CCP or OPRP. Entries are never deleted, only superseded by a new plan
// version.
type CCPEntry struct {
	CCPID            string         `json:"ccp_id"`
	StepName         string         `json:"step_name"`
	Hazard           string         `json:"hazard"`
	ControlClass     string         `json:"control_class,omitempty"`
	CriticalLimits   CriticalLimits `json:"critical_limits"`
	Monitoring       string         `json:"monitoring,omitempty"`
	CorrectiveAction string         `json:"corrective_action,omitempty"`
}

type CriticalLimits struct {
	Value         string `json:"critical_limit_value"`
	Justification string `json:"critical_limit_justification,omitempty"`
	Reference     string `json:"critical_limit_reference,omitempty"`
}

// ValidationVerdict is written by the external reviewing collaborator and
// consumed read-only by the export permission gate.
type ValidationVerdict struct {
	BlockExport bool              `json:"block_export"`
	Section1    OverallAssessment `json:"section_1_overall_assessment"`
	Notes       string            `json:"notes,omitempty"`
	ReviewedAt  string            `json:"reviewed_at,omitempty"`
}

type OverallAssessment struct {
	AuditReadiness string `json:"audit_readiness"`
}
