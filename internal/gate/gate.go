// Package gate holds the export permission gate. It is the single authority
// on whether a plan's documents may leave the system: every export entry
// point consults it before producing output and treats a denial as terminal.
package gate

import (
	"strings"

	"github.com/safeplate/haccp/internal/plan"
)

// Fixed denial reasons surfaced to callers.
const (
	ReasonPlanNotFound = "Plan not found"
	ReasonBlocked      = "Export blocked: the compliance review flagged this plan for correction"
	ReasonMajorGaps    = "Export blocked: the audit-readiness assessment found major gaps"
)

// Decision is the gate's verdict for one export request.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// IsExportAllowed inspects the plan's stored validation verdict. A plan with
// no verdict at all is exportable: absence of review is not a block. The
// audit-readiness comparison is case-insensitive so verdicts written with
// legacy casing ("Major Gaps") still deny.
func IsExportAllowed(p *plan.Plan) Decision {
	if p == nil {
		return Decision{Reason: ReasonPlanNotFound}
	}

	verdict := p.FullPlan.Validation
	if verdict == nil {
		return Decision{Allowed: true}
	}
	if verdict.BlockExport {
		return Decision{Reason: ReasonBlocked}
	}
	readiness := strings.TrimSpace(verdict.Section1.AuditReadiness)
	if strings.EqualFold(readiness, plan.ReadinessMajorGaps) {
		return Decision{Reason: ReasonMajorGaps}
	}
	return Decision{Allowed: true}
}
