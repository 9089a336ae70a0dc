package plan

import (
	"fmt"
	"sort"

	"github.com/safeplate/haccp/internal/rules"
)

// EvaluationReport summarizes the derived facts after a rule-engine pass.
type EvaluationReport struct {
	SignificantHazards int                `json:"significant_hazards"`
	ControlPoints      int                `json:"control_points"`
	LimitIssues        []rules.LimitIssue `json:"limit_issues"`
}

// Evaluate runs the rule engine over the plan in place: vulnerable-consumer
// escalation first (so escalated severity feeds the matrix), then the
// significance matrix, then the decision tree for significant hazards, and
// finally the critical-limit validator. CCP-management rows are rebuilt from
// the classification result; critical limits already documented for the same
// (step, hazard) pair carry over so re-evaluating never loses operator input.
//
// The limit validator is advisory: its findings are returned on the report
// and do not touch the plan's validation verdict.
func Evaluate(p *Plan, std rules.LimitStandards) EvaluationReport {
	var report EvaluationReport

	previous := make(map[string]CriticalLimits, len(p.FullPlan.CCPManagement))
	for _, entry := range p.FullPlan.CCPManagement {
		previous[entry.StepName+"\x00"+entry.Hazard] = entry.CriticalLimits
	}

	var rebuilt []CCPEntry
	counts := map[rules.ControlClass]int{}

	for _, step := range p.HazardAnalysis {
		rules.EscalateForVulnerableConsumers(step.Hazards, p.Business.VulnerableConsumers)
		rules.ApplySignificance(step.Hazards)

		// Sorted categories keep CCP numbering, and therefore the content
		// hash of the exported document, stable across evaluations.
		for _, category := range sortedKeys(step.Hazards) {
			entry, ok := step.Hazards[category].(map[string]any)
			if !ok {
				continue
			}
			significant, _ := entry["is_significant"].(bool)
			if !significant {
				delete(entry, "control_class")
				continue
			}
			report.SignificantHazards++

			q1, q2, q3, q4, ok := decisionAnswers(entry)
			if !ok {
				continue
			}
			class := rules.ClassifyControl(q1, q2, q3, q4)
			entry["control_class"] = string(class)
			if class == rules.ClassPRP {
				continue
			}

			counts[class]++
			hazard := hazardLabel(entry, category)
			ccp := CCPEntry{
				CCPID:          fmt.Sprintf("%s-%d", class, counts[class]),
				StepName:       step.StepName,
				Hazard:         hazard,
				ControlClass:   string(class),
				CriticalLimits: previous[step.StepName+"\x00"+hazard],
			}
			rebuilt = append(rebuilt, ccp)
		}
	}

	p.FullPlan.CCPManagement = rebuilt
	report.ControlPoints = len(rebuilt)

	limitEntries := make([]rules.LimitEntry, 0, len(rebuilt))
	for _, entry := range rebuilt {
		limitEntries = append(limitEntries, rules.LimitEntry{
			CCPID:         entry.CCPID,
			StepName:      entry.StepName,
			Hazard:        entry.Hazard,
			Value:         entry.CriticalLimits.Value,
			Justification: entry.CriticalLimits.Justification,
			Reference:     entry.CriticalLimits.Reference,
		})
	}
	report.LimitIssues = rules.ValidateCriticalLimits(limitEntries, std)

	return report
}

// LimitIssues runs only the critical-limit validator over the stored
// CCP-management rows, without reclassifying anything.
func LimitIssues(p Plan, std rules.LimitStandards) []rules.LimitIssue {
	entries := make([]rules.LimitEntry, 0, len(p.FullPlan.CCPManagement))
	for _, entry := range p.FullPlan.CCPManagement {
		entries = append(entries, rules.LimitEntry{
			CCPID:         entry.CCPID,
			StepName:      entry.StepName,
			Hazard:        entry.Hazard,
			Value:         entry.CriticalLimits.Value,
			Justification: entry.CriticalLimits.Justification,
			Reference:     entry.CriticalLimits.Reference,
		})
	}
	return rules.ValidateCriticalLimits(entries, std)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func decisionAnswers(entry map[string]any) (q1, q2, q3, q4, ok bool) {
	tree, isMap := entry["decision_tree"].(map[string]any)
	if !isMap {
		return false, false, false, false, false
	}
	read := func(key string) bool {
		b, _ := tree[key].(bool)
		return b
	}
	return read("q1"), read("q2"), read("q3"), read("q4"), true
}

func hazardLabel(entry map[string]any, category string) string {
	if description, _ := entry["description"].(string); description != "" {
		return description
	}
	return category
}
