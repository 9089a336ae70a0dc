package rules

// ControlClass is the outcome of the Codex decision tree for one
// (process step, hazard) pair.
type ControlClass string

const (
	ClassCCP  ControlClass = "CCP"
	ClassOPRP ControlClass = "OPRP"
	ClassPRP  ControlClass = "PRP"
)

// ClassifyControl walks the four-question Codex decision tree in strict
// order:
//
//	Q1: does a control measure exist at this step?
//	Q2: is the step specifically designed to eliminate or reduce the hazard
//	    to an acceptable level?
//	Q3: could contamination occur at or above acceptable levels here?
//	Q4: will a subsequent step eliminate or reduce the hazard?
//
// Q1=false short-circuits to PRP before anything else is considered. Every
// combination of the four booleans resolves through this ordered list.
func ClassifyControl(q1, q2, q3, q4 bool) ControlClass {
	switch {
	case !q1:
		return ClassPRP
	case q2:
		return ClassCCP
	case q3 && q4:
		return ClassOPRP
	case q3:
		return ClassCCP
	default:
		return ClassOPRP
	}
}
