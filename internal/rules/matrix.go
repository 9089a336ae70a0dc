// Package rules implements the hazard-analysis rule engine: the severity x
// likelihood significance matrix, vulnerable-consumer escalation, the Codex
// control-point decision tree, and critical-limit parsing and validation.
//
// Every function in this package is pure and total: malformed input degrades
// to a safe default instead of returning an error, because callers invoke
// these rules speculatively while a plan is still being drafted.
package rules

import "strings"

// Severity / likelihood levels recognized by the significance matrix.
const (
	LevelLow    = "Low"
	LevelMedium = "Medium"
	LevelHigh   = "High"
)

var significanceMatrix = map[string]map[string]bool{
	"high":   {"high": true, "medium": true, "low": true},
	"medium": {"high": true, "medium": true, "low": false},
	"low":    {"high": true, "medium": false, "low": false},
}

// IsSignificant reports whether a hazard with the given severity and
// likelihood requires a documented control measure. Inputs are matched
// case-insensitively; anything outside {low, medium, high} is never
// significant.
func IsSignificant(severity, likelihood string) bool {
	row, ok := significanceMatrix[normalizeLevel(severity)]
	if !ok {
		return false
	}
	return row[normalizeLevel(likelihood)]
}

// ApplySignificance recomputes is_significant for every hazard entry in a
// raw evaluation map (hazard category -> entry object). Caller-supplied
// values for is_significant are discarded, never merged. Entries that are
// not objects pass through untouched.
func ApplySignificance(hazards map[string]any) {
	for _, v := range hazards {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		severity, _ := entry["severity"].(string)
		likelihood, _ := entry["likelihood"].(string)
		entry["is_significant"] = IsSignificant(severity, likelihood)
	}
}

func normalizeLevel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
