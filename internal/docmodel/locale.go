package docmodel

import "golang.org/x/text/language"

// Strings holds every label the document builder needs in one locale.
type Strings struct {
	DocumentTitle       string
	BusinessSection     string
	BusinessName        string
	ProductName         string
	ProcessDescription  string
	VulnerableConsumers string
	HazardSection       string
	StepHeader          string
	CategoryHeader      string
	DescriptionHeader   string
	SeverityHeader      string
	LikelihoodHeader    string
	SignificantHeader   string
	ControlClassHeader  string
	CCPSection          string
	CCPIDHeader         string
	HazardHeader        string
	CriticalLimitHeader string
	JustificationHeader string
	MonitoringHeader    string
	PRPSection          string
	ValidationSection   string
	AuditReadiness      string
	NoVerdict           string
	Yes                 string
	No                  string
	EscalationNote      string
}

var supportedLocales = []language.Tag{
	language.English, // first entry is the fallback
	language.German,
}

var matcher = language.NewMatcher(supportedLocales)

var localized = map[language.Tag]Strings{
	language.English: {
		DocumentTitle:       "HACCP Plan",
		BusinessSection:     "Business Details",
		BusinessName:        "Business name",
		ProductName:         "Product",
		ProcessDescription:  "Process description",
		VulnerableConsumers: "Serves vulnerable consumers",
		HazardSection:       "Hazard Analysis",
		StepHeader:          "Process step",
		CategoryHeader:      "Category",
		DescriptionHeader:   "Hazard",
		SeverityHeader:      "Severity",
		LikelihoodHeader:    "Likelihood",
		SignificantHeader:   "Significant",
		ControlClassHeader:  "Control",
		CCPSection:          "Critical Control Point Management",
		CCPIDHeader:         "ID",
		HazardHeader:        "Hazard",
		CriticalLimitHeader: "Critical limit",
		JustificationHeader: "Justification / reference",
		MonitoringHeader:    "Monitoring",
		PRPSection:          "Prerequisite Programs",
		ValidationSection:   "Validation Summary",
		AuditReadiness:      "Audit readiness",
		NoVerdict:           "Not yet reviewed",
		Yes:                 "Yes",
		No:                  "No",
		EscalationNote:      "Escalated",
	},
	language.German: {
		DocumentTitle:       "HACCP-Konzept",
		BusinessSection:     "Betriebsangaben",
		BusinessName:        "Betriebsname",
		ProductName:         "Produkt",
		ProcessDescription:  "Prozessbeschreibung",
		VulnerableConsumers: "Versorgung empfindlicher Verbrauchergruppen",
		HazardSection:       "Gefahrenanalyse",
		StepHeader:          "Prozessschritt",
		CategoryHeader:      "Kategorie",
		DescriptionHeader:   "Gefahr",
		SeverityHeader:      "Schwere",
		LikelihoodHeader:    "Wahrscheinlichkeit",
		SignificantHeader:   "Signifikant",
		ControlClassHeader:  "Lenkung",
		CCPSection:          "CCP-Management",
		CCPIDHeader:         "Nr.",
		HazardHeader:        "Gefahr",
		CriticalLimitHeader: "Kritischer Grenzwert",
		JustificationHeader: "Begründung / Referenz",
		MonitoringHeader:    "Überwachung",
		PRPSection:          "Basisprogramme",
		ValidationSection:   "Validierungsübersicht",
		AuditReadiness:      "Auditreife",
		NoVerdict:           "Noch nicht geprüft",
		Yes:                 "Ja",
		No:                  "Nein",
		EscalationNote:      "Hochgestuft",
	},
}

// MatchLocale resolves a requested BCP 47 locale (possibly empty or invalid)
// to a supported document locale, falling back to English.
func MatchLocale(requested string) language.Tag {
	if requested == "" {
		return language.English
	}
	tag, err := language.Parse(requested)
	if err != nil {
		return language.English
	}
	_, index, _ := matcher.Match(tag)
	return supportedLocales[index]
}

// StringsFor returns the label set for a supported locale tag.
func StringsFor(tag language.Tag) Strings {
	if s, ok := localized[tag]; ok {
		return s
	}
	return localized[language.English]
}
