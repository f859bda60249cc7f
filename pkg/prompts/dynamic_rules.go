package prompts

import (
	"strings"

	"github.com/ekaya-inc/ekaya-validator/pkg/models"
)

// BuildDynamicRulesPrompt asks for format, enum and range rules inferred
// from the sample values of each file column.
func BuildDynamicRulesPrompt(columns models.ColumnProfiles) string {
	var b strings.Builder

	b.WriteString("# Validation Rule Inference\n\n")
	b.WriteString("Infer candidate validation rules by analyzing the sample_values of each column. ")
	b.WriteString("Only propose a rule when the samples clearly support it, and say how many samples support it.\n\n")
	b.WriteString("Rule types:\n")
	b.WriteString("- format_check: values follow a pattern; give the regular expression\n")
	b.WriteString("- enum_check: values come from a small fixed set; list the set\n")
	b.WriteString("- range_check: numeric or temporal values stay within bounds; give the bounds\n\n")

	b.WriteString("## Input\n\n")
	section(&b, "File Schema (columns with inferred types and samples)", toJSON(columns))

	b.WriteString("## Response Format\n\n")
	b.WriteString("Return ONLY one JSON array:\n\n")
	b.WriteString(`[
  {
    "column": "ColumnName",
    "rule_type": "format_check | enum_check | range_check",
    "inferred_from_samples": ["sample1", "sample2"],
    "rule_details": "e.g. 'All 5 samples match ^[A-Z]{3}\\d{4}$'"
  }
]
`)
	return b.String()
}
