// Package report renders validation reports as Markdown.
package report

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-validator/pkg/models"
)

const notAvailable = "N/A"

// RenderMarkdown renders a single report.
func RenderMarkdown(r *models.Report) string {
	if r == nil {
		return "# Validation Report\n\nNo report was produced.\n"
	}

	var b strings.Builder
	title := r.FileName
	if title == "" {
		title = "Validation Report"
	}
	fmt.Fprintf(&b, "# Validation Report: `%s`\n\n", title)
	if r.SheetName != nil {
		fmt.Fprintf(&b, "**Sheet:** `%s`\n\n", *r.SheetName)
	}
	fmt.Fprintf(&b, "**Validated At:** %s\n", orNA(r.ValidatedAt))

	writeGlance(&b, r)
	writeBody(&b, r)
	return b.String()
}

// RenderBatchMarkdown renders the reports of several sheets of one file.
func RenderBatchMarkdown(fileName string, reports []*models.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Multi-Sheet Validation Report: `%s`\n\n", orNA(fileName))
	fmt.Fprintf(&b, "**Sheets Processed:** %d\n", len(reports))

	if len(reports) == 0 {
		b.WriteString("\n## No Sheets Processed\n\nThe file was read, but no sheet reports were produced.\n")
		return b.String()
	}

	for _, r := range reports {
		if r == nil {
			continue
		}
		sheet := models.CSVSheetPlaceholder
		if r.SheetName != nil {
			sheet = *r.SheetName
		}
		fmt.Fprintf(&b, "\n---\n\n## Sheet: `%s`\n", sheet)
		writeGlance(&b, r)
		writeBody(&b, r)
	}
	return b.String()
}

func writeGlance(b *strings.Builder, r *models.Report) {
	score, grade := notAvailable, notAvailable
	if r.DataQualityScore != nil {
		score = fmt.Sprintf("%d", r.DataQualityScore.Score)
		grade = orNA(string(r.DataQualityScore.Grade))
	}
	rows := notAvailable
	if r.TotalRowsChecked != nil {
		rows = fmt.Sprintf("%d", *r.TotalRowsChecked)
	}
	s := r.ValidationSummary

	b.WriteString("\n### At a Glance\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("| :--- | :--- |\n")
	fmt.Fprintf(b, "| Validation Status | **%s** |\n", cell(orNA(string(s.Status))))
	fmt.Fprintf(b, "| Data Quality Score | **%s (Grade: %s)** |\n", score, cell(grade))
	fmt.Fprintf(b, "| Target Table | `%s` |\n", cell(orNA(r.TargetTable)))
	fmt.Fprintf(b, "| High Severity Issues | %d |\n", s.HighSeverityIssues)
	fmt.Fprintf(b, "| Medium Severity Issues | %d |\n", s.MediumSeverityIssues)
	fmt.Fprintf(b, "| Low Severity Issues | %d |\n", s.LowSeverityIssues)
	fmt.Fprintf(b, "| Total Rows Checked | %s |\n", rows)
	if r.RunID != "" {
		fmt.Fprintf(b, "| Run ID | `%s` |\n", r.RunID)
	}
}

func writeBody(b *strings.Builder, r *models.Report) {
	if r.IsError() {
		b.WriteString("\n### Validation Error\n\n")
		msg := r.Error
		if msg == "" {
			msg = string(r.ValidationSummary.Details)
		}
		fmt.Fprintf(b, "> %s\n", orNA(msg))
		if r.FailedAt != "" {
			fmt.Fprintf(b, "\nThe run stopped while **%s**. Sections computed before that point follow.\n", r.FailedAt)
		}
	} else {
		writeNarrativeHeader(b, r)
	}

	writeSchemaMismatch(b, r.SchemaMismatch)
	writeQualityIssues(b, r.DataQualityIssues)
	writeTypeMismatches(b, r.DataTypeMismatch)

	if r.IsError() && r.DataQualityScore == nil {
		writeRules(b, r.DynamicValidationRules)
		writeWarnings(b, r.Warnings)
		return
	}

	section(b, "4. Root Cause Analysis")
	if r.RootCauseAnalysis == nil || r.RootCauseAnalysis.Hypothesis == "" {
		b.WriteString("No root cause analysis provided.\n")
	} else {
		fmt.Fprintf(b, "**Hypothesis:** %s\n", r.RootCauseAnalysis.Hypothesis)
	}

	section(b, "5. Suggested Load Strategy")
	if r.AppendUpsertSuggestion == nil || r.AppendUpsertSuggestion.Strategy == "" {
		b.WriteString("No load strategy analysis found.\n")
	} else {
		s := r.AppendUpsertSuggestion
		fmt.Fprintf(b, "- **Strategy:** `%s`\n", strings.ToUpper(string(s.Strategy)))
		fmt.Fprintf(b, "- **Key Column:** `%s`\n", orNA(string(s.KeyColumn)))
		fmt.Fprintf(b, "- **Reasoning:** %s\n", orNA(string(s.Reasoning)))
	}

	section(b, "6. Schema Drift")
	if r.SchemaDrift == nil {
		b.WriteString("No schema drift analysis found.\n")
	} else {
		fmt.Fprintf(b, "**Drift Detected:** `%t`\n\n", bool(r.SchemaDrift.Detected))
		fmt.Fprintf(b, "**Analysis:** %s\n", orNA(string(r.SchemaDrift.Analysis)))
	}

	writeRules(b, r.DynamicValidationRules)
	writeWarnings(b, r.Warnings)
}

func writeNarrativeHeader(b *strings.Builder, r *models.Report) {
	b.WriteString("\n### Overall Analysis\n\n")
	summary := "No analysis summary provided."
	if r.OverallAnalysis != nil && r.OverallAnalysis.NarrativeSummary != "" {
		summary = string(r.OverallAnalysis.NarrativeSummary)
	}
	fmt.Fprintf(b, "> **%s**\n", summary)

	if r.DataQualityScore != nil {
		fmt.Fprintf(b, "\n### Data Quality Score: %d / 100 (Grade: %s)\n\n", r.DataQualityScore.Score, orNA(string(r.DataQualityScore.Grade)))
		fmt.Fprintf(b, "**Reasoning:** %s\n", orNA(string(r.DataQualityScore.Reasoning)))
	}

	b.WriteString("\n### Triage Plan\n\n")
	if len(r.TriagePlan) == 0 {
		b.WriteString("No triage plan provided.\n")
		return
	}
	b.WriteString("| Priority | Action | Reasoning |\n")
	b.WriteString("| :--- | :--- | :--- |\n")
	for _, item := range r.TriagePlan {
		fmt.Fprintf(b, "| **%d** | %s | %s |\n", item.Priority, cell(string(item.Action)), cell(string(item.Reasoning)))
	}
}

func writeSchemaMismatch(b *strings.Builder, s *models.ReconciliationResult) {
	section(b, "1. Schema Mismatch Analysis")
	if s == nil {
		b.WriteString("No schema mismatch data found.\n")
		return
	}

	fmt.Fprintf(b, "**Analysis:** %s\n", orNA(string(s.Analysis.Context)))

	b.WriteString("\n#### Columns Missing from File (Required by Table)\n\n")
	writeCodeList(b, s.ColumnsMissingFromFile, "None")

	b.WriteString("\n#### Extra Columns Found in File (Not in Table)\n\n")
	writeCodeList(b, s.ColumnsExtraInFile, "None")

	b.WriteString("\n#### Suggested Naming Mappings\n\n")
	if len(s.NamingMismatches) == 0 {
		b.WriteString("- None\n")
	} else {
		for _, from := range sortedKeys(s.NamingMismatches) {
			fmt.Fprintf(b, "- Map `%s` (file) to `%s` (table)\n", from, s.NamingMismatches[from])
		}
	}

	b.WriteString("\n#### Recommendations\n\n")
	writePlainList(b, s.Analysis.Recommendation, "No recommendations.")
}

func writeQualityIssues(b *strings.Builder, issues []models.DataQualityViolation) {
	section(b, "2. Data Quality Violations")
	if len(issues) == 0 {
		b.WriteString("No data quality violations found.\n")
		return
	}
	for _, v := range issues {
		fmt.Fprintf(b, "\n- **Column: `%s`**\n", v.Column)
		fmt.Fprintf(b, "  - **Check:** `%s`\n", v.Check)
		fmt.Fprintf(b, "  - **Severity:** %s\n", titleCase(string(v.Severity)))
		fmt.Fprintf(b, "  - **Count:** %d\n", v.AffectedCount())
		if v.ConstraintName != "" {
			fmt.Fprintf(b, "  - **Constraint:** `%s` (`%s`)\n", v.ConstraintName, v.SQLText)
		}
		fmt.Fprintf(b, "  - **Details:** %s\n", orNA(v.Details))
	}
}

func writeTypeMismatches(b *strings.Builder, mismatches []models.TypeViolation) {
	section(b, "3. Data Type Violations")
	if len(mismatches) == 0 {
		b.WriteString("No data type mismatches found.\n")
		return
	}
	for _, v := range mismatches {
		fmt.Fprintf(b, "\n- **Column: `%s`**\n", v.Column)
		fmt.Fprintf(b, "  - **Expected Type (DB):** `%s`\n", v.ExpectedDBType)
		fmt.Fprintf(b, "  - **Found Type (File):** `%s`\n", v.FoundFileType)
		fmt.Fprintf(b, "  - **Invalid Samples:** %s\n", codeJoin(v.SampleInvalidValues))
	}
}

func writeRules(b *strings.Builder, rules []models.DynamicRule) {
	section(b, "7. Inferred Validation Rules")

	var usable []models.DynamicRule
	var failure string
	for _, r := range rules {
		if r.Error != "" {
			failure = r.Error
			continue
		}
		usable = append(usable, r)
	}

	if len(usable) == 0 {
		if failure != "" {
			fmt.Fprintf(b, "%s.\n", failure)
		} else {
			b.WriteString("No dynamic validation rules were inferred.\n")
		}
		return
	}

	b.WriteString("| Column | Rule Type | Details | Inferred From |\n")
	b.WriteString("| :--- | :--- | :--- | :--- |\n")
	for _, r := range usable {
		fmt.Fprintf(b, "| `%s` | `%s` | %s | %s |\n",
			cell(r.Column), r.RuleType, cell(orNA(string(r.RuleDetails))), cell(codeJoin(r.InferredFromSamples)))
	}
}

func writeWarnings(b *strings.Builder, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	section(b, "Warnings")
	for _, w := range warnings {
		fmt.Fprintf(b, "- %s\n", w)
	}
}
