package plan

// Store is the plan persistence collaborator. PutPlan assigns the next
// version_number; version numbers for a given plan only ever increase.
type Store interface {
	PutPlan(p Plan) (Plan, error)
	GetPlan(planID string) (Plan, bool)
	PutValidation(planID string, v *ValidationVerdict) error
	SetPaymentStatus(planID string, status string) error
	ListPlanIDs() ([]string, error)
}
