package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Regulatory minima for the three control types the validator understands.
const (
	MinCookingTempC        = 75.0
	MaxChilledTempC        = 4.0
	MaxCoolingTempC        = 5.0
	DefaultMaxCoolingHours = 6.0
)

// ParsedLimit holds the structured values extracted from a free-text
// critical limit. Temperature and time extraction are independent; both may
// be present (e.g. "cool to 5°C within 6 hours").
type ParsedLimit struct {
	TemperatureC   *float64
	TempComparator string // "<", "<=", ">", ">=" or ""
	TimeHours      *float64
	TimeComparator string
}

var (
	tempPattern = regexp.MustCompile(`(?i)([<>]=?)?\s*(-?\d+(?:\.\d+)?)\s*(?:°\s*|º\s*|deg(?:ree)?s?\s*)?c\b`)
	timePattern = regexp.MustCompile(`(?i)([<>]=?)?\s*(\d+(?:\.\d+)?)\s*(hours?|hrs?|minutes?|mins?)\b`)
)

// ParseCriticalLimit extracts temperature and time values from a free-text
// critical limit. Parsing is lossy by design: text that matches neither
// pattern yields an empty result, never an error.
func ParseCriticalLimit(text string) ParsedLimit {
	var limit ParsedLimit

	if m := tempPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[2], 64); err == nil {
			limit.TemperatureC = &v
			limit.TempComparator = m[1]
		}
	}

	if m := timePattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[2], 64); err == nil {
			if strings.HasPrefix(strings.ToLower(m[3]), "m") {
				v /= 60
			}
			limit.TimeHours = &v
			limit.TimeComparator = m[1]
		}
	}

	return limit
}

// Control types detected from step and hazard text.
const (
	ControlCooking = "cooking"
	ControlCooling = "cooling"
	ControlChilled = "chilled"
)

var (
	cookingKeywords = []string{"cook", "bake", "roast", "grill", "fry", "pasteuri", "heat"}
	coolingKeywords = []string{"cooling", "cool down", "chill down", "blast chill"}
	chilledKeywords = []string{"chill", "refrigerat", "fridge", "cold storage", "cold room"}
)

// DetectControlType classifies the governing control type from step-name and
// hazard text. Cooking wins over cooling, cooling over chilled, so "blast
// chill" is a cooling step rather than chilled storage. Returns "" when no
// keyword matches; such entries are outside this validator's remit.
func DetectControlType(stepName, hazard string) string {
	text := strings.ToLower(stepName + " " + hazard)
	for _, kw := range cookingKeywords {
		if strings.Contains(text, kw) {
			return ControlCooking
		}
	}
	for _, kw := range coolingKeywords {
		if strings.Contains(text, kw) {
			return ControlCooling
		}
	}
	for _, kw := range chilledKeywords {
		if strings.Contains(text, kw) {
			return ControlChilled
		}
	}
	return ""
}

// LimitEntry is one CCP-management row as seen by the validator.
type LimitEntry struct {
	CCPID         string
	StepName      string
	Hazard        string
	Value         string
	Justification string
	Reference     string
}

// LimitIssue flags a critical limit that falls short of the regulatory
// minimum for its control type without a documented deviation.
type LimitIssue struct {
	CCPID       string `json:"ccp_id"`
	StepName    string `json:"step_name"`
	Hazard      string `json:"hazard"`
	ControlType string `json:"control_type"`
	Limit       string `json:"limit"`
	Message     string `json:"message"`
}

// LimitStandards carries the configurable parts of the regulatory minima.
type LimitStandards struct {
	MaxCoolingHours float64
}

// DefaultLimitStandards returns the standards used when no override is
// configured.
func DefaultLimitStandards() LimitStandards {
	return LimitStandards{MaxCoolingHours: DefaultMaxCoolingHours}
}

// ValidateCriticalLimits checks every entry with a non-empty critical limit
// against the regulatory minimum for its detected control type. Entries with
// no detectable control type are skipped: the validator is advisory, not
// exhaustive. A shortfall is excused only when both a justification and a
// reference are documented on the same entry.
func ValidateCriticalLimits(entries []LimitEntry, std LimitStandards) []LimitIssue {
	if std.MaxCoolingHours <= 0 {
		std.MaxCoolingHours = DefaultMaxCoolingHours
	}

	var issues []LimitIssue
	for _, entry := range entries {
		if strings.TrimSpace(entry.Value) == "" {
			continue
		}
		controlType := DetectControlType(entry.StepName, entry.Hazard)
		if controlType == "" {
			continue
		}
		message := checkStandard(controlType, ParseCriticalLimit(entry.Value), std)
		if message == "" {
			continue
		}
		if strings.TrimSpace(entry.Justification) != "" && strings.TrimSpace(entry.Reference) != "" {
			continue
		}
		issues = append(issues, LimitIssue{
			CCPID:       entry.CCPID,
			StepName:    entry.StepName,
			Hazard:      entry.Hazard,
			ControlType: controlType,
			Limit:       entry.Value,
			Message:     message,
		})
	}
	return issues
}

func checkStandard(controlType string, parsed ParsedLimit, std LimitStandards) string {
	switch controlType {
	case ControlCooking:
		if parsed.TemperatureC == nil {
			return "no temperature found; cooking steps need a validated core temperature of at least 75°C"
		}
		if parsed.TempComparator == "<" || parsed.TempComparator == "<=" {
			return "cooking limit is bounded below the target; the core temperature must reach at least 75°C"
		}
		if *parsed.TemperatureC < MinCookingTempC {
			return fmt.Sprintf("cooking temperature %.4g°C is below the 75°C minimum", *parsed.TemperatureC)
		}
	case ControlChilled:
		if parsed.TemperatureC == nil {
			return "no temperature found; chilled storage needs a limit of 4°C or below"
		}
		if parsed.TempComparator == ">" || parsed.TempComparator == ">=" {
			return "chilled-storage limit is bounded above the target; it must be 4°C or below"
		}
		if *parsed.TemperatureC > MaxChilledTempC {
			return fmt.Sprintf("chilled-storage temperature %.4g°C is above the 4°C maximum", *parsed.TemperatureC)
		}
	case ControlCooling:
		if parsed.TimeHours == nil {
			return fmt.Sprintf("no time found; cooling must complete within %.4g hours", std.MaxCoolingHours)
		}
		if parsed.TimeComparator == ">" || parsed.TimeComparator == ">=" {
			return fmt.Sprintf("cooling time is bounded above the target; it must complete within %.4g hours", std.MaxCoolingHours)
		}
		if *parsed.TimeHours > std.MaxCoolingHours {
			return fmt.Sprintf("cooling time %.4g hours exceeds the %.4g hour maximum", *parsed.TimeHours, std.MaxCoolingHours)
		}
		if parsed.TemperatureC != nil && *parsed.TemperatureC > MaxCoolingTempC {
			return fmt.Sprintf("cooling end temperature %.4g°C is above the 5°C maximum", *parsed.TemperatureC)
		}
	}
	return ""
}
