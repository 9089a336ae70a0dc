package rules

import "regexp"

// Pathogens that are disproportionately dangerous to vulnerable consumer
// groups (young children, elderly, pregnant, immunocompromised). Matched as
// substrings of the free-text hazard description, not against hazard codes.
var vulnerablePathogens = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"Listeria monocytogenes", regexp.MustCompile(`(?i)listeria`)},
	{"Salmonella", regexp.MustCompile(`(?i)salmonella`)},
	{"E. coli", regexp.MustCompile(`(?i)\be\.?\s?coli`)},
	{"Campylobacter", regexp.MustCompile(`(?i)campylobacter`)},
}

// EscalateForVulnerableConsumers forces severity to High and stamps an
// escalation_reason on every hazard entry whose description names a pathogen
// from the vulnerable-consumer list, provided the business serves a
// vulnerable population. The function only ever adds escalation: entries
// that do not match, and all entries when vulnerable is false, pass through
// unmodified including any prior escalation_reason.
func EscalateForVulnerableConsumers(hazards map[string]any, vulnerable bool) {
	if !vulnerable {
		return
	}
	for _, v := range hazards {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		description, _ := entry["description"].(string)
		pathogen := matchVulnerablePathogen(description)
		if pathogen == "" {
			continue
		}
		entry["severity"] = LevelHigh
		entry["escalation_reason"] = "Severity escalated to High: " + pathogen +
			" presents an elevated risk to vulnerable consumer groups"
	}
}

func matchVulnerablePathogen(description string) string {
	for _, p := range vulnerablePathogens {
		if p.pattern.MatchString(description) {
			return p.name
		}
	}
	return ""
}
