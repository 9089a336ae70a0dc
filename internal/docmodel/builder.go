package docmodel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/safeplate/haccp/internal/plan"
)

// Build assembles the document model for a plan in the given locale. The
// output is deterministic for a fixed plan: map-backed content is emitted in
// sorted key order so the rendered bytes, and therefore the content hash of
// downstream artifacts, are stable.
func Build(p plan.Plan, locale string, logoPNG []byte) Document {
	labels := StringsFor(MatchLocale(locale))

	doc := Document{
		Title:    labels.DocumentTitle,
		Subtitle: p.Business.BusinessName,
		LogoPNG:  logoPNG,
	}

	doc.Sections = append(doc.Sections, businessSection(p, labels))
	doc.Sections = append(doc.Sections, hazardSection(p, labels))
	doc.Sections = append(doc.Sections, ccpSection(p, labels))
	if len(p.FullPlan.PrerequisitePrograms) > 0 {
		doc.Sections = append(doc.Sections, prpSection(p, labels))
	}
	doc.Sections = append(doc.Sections, validationSection(p, labels))

	return doc
}

func businessSection(p plan.Plan, labels Strings) Section {
	rows := [][]string{
		{labels.BusinessName, p.Business.BusinessName},
	}
	if p.Business.ProductName != "" {
		rows = append(rows, []string{labels.ProductName, p.Business.ProductName})
	}
	if p.Business.ProcessDescription != "" {
		rows = append(rows, []string{labels.ProcessDescription, p.Business.ProcessDescription})
	}
	rows = append(rows, []string{labels.VulnerableConsumers, yesNo(p.Business.VulnerableConsumers, labels)})

	return Section{
		Heading: labels.BusinessSection,
		Blocks:  []Block{{Table: &Table{Rows: rows}}},
	}
}

func hazardSection(p plan.Plan, labels Strings) Section {
	table := Table{
		Header: []string{
			labels.StepHeader, labels.CategoryHeader, labels.DescriptionHeader,
			labels.SeverityHeader, labels.LikelihoodHeader, labels.SignificantHeader,
			labels.ControlClassHeader,
		},
	}

	for _, step := range p.HazardAnalysis {
		for _, category := range sortedKeys(step.Hazards) {
			entry, ok := step.Hazards[category].(map[string]any)
			if !ok {
				continue
			}
			description, _ := entry["description"].(string)
			severity, _ := entry["severity"].(string)
			if reason, _ := entry["escalation_reason"].(string); reason != "" {
				severity = fmt.Sprintf("%s (%s)", severity, labels.EscalationNote)
			}
			likelihood, _ := entry["likelihood"].(string)
			significant, _ := entry["is_significant"].(bool)
			controlClass, _ := entry["control_class"].(string)

			table.Rows = append(table.Rows, []string{
				step.StepName, category, description,
				severity, likelihood, yesNo(significant, labels),
				controlClass,
			})
		}
	}

	return Section{Heading: labels.HazardSection, Blocks: []Block{{Table: &table}}}
}

func ccpSection(p plan.Plan, labels Strings) Section {
	table := Table{
		Header: []string{
			labels.CCPIDHeader, labels.StepHeader, labels.HazardHeader,
			labels.CriticalLimitHeader, labels.JustificationHeader, labels.MonitoringHeader,
		},
	}
	for _, entry := range p.FullPlan.CCPManagement {
		justification := entry.CriticalLimits.Justification
		if entry.CriticalLimits.Reference != "" {
			justification = strings.TrimSpace(justification + " (" + entry.CriticalLimits.Reference + ")")
		}
		table.Rows = append(table.Rows, []string{
			entry.CCPID, entry.StepName, entry.Hazard,
			entry.CriticalLimits.Value, justification, entry.Monitoring,
		})
	}

	return Section{Heading: labels.CCPSection, Blocks: []Block{{Table: &table}}}
}

func prpSection(p plan.Plan, labels Strings) Section {
	section := Section{Heading: labels.PRPSection}
	for _, name := range sortedKeys(p.FullPlan.PrerequisitePrograms) {
		section.Blocks = append(section.Blocks, boldParagraph(name))
		if text, ok := p.FullPlan.PrerequisitePrograms[name].(string); ok {
			section.Blocks = append(section.Blocks, paragraph(text))
		}
	}
	return section
}

func validationSection(p plan.Plan, labels Strings) Section {
	section := Section{Heading: labels.ValidationSection}
	verdict := p.FullPlan.Validation
	if verdict == nil {
		section.Blocks = append(section.Blocks, paragraph(labels.NoVerdict))
		return section
	}
	section.Blocks = append(section.Blocks,
		paragraph(fmt.Sprintf("%s: %s", labels.AuditReadiness, verdict.Section1.AuditReadiness)))
	if verdict.Notes != "" {
		section.Blocks = append(section.Blocks, paragraph(verdict.Notes))
	}
	return section
}

func yesNo(v bool, labels Strings) string {
	if v {
		return labels.Yes
	}
	return labels.No
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
