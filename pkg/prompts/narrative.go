package prompts

import (
	"strings"

	"github.com/ekaya-inc/ekaya-validator/pkg/models"
)

// NarrativeInput carries the deterministic findings the narrator scores.
// Every count and fact in the narrative must come from these values.
type NarrativeInput struct {
	SchemaAnalysis *models.ReconciliationResult
	Violations     models.ViolationSummary
	History        []models.HistorySnapshot
}

// BuildNarrativePrompt asks for the summary, score, triage plan, load
// strategy, drift and root-cause sections of the report.
func BuildNarrativePrompt(in NarrativeInput) string {
	var b strings.Builder

	b.WriteString("# Data Quality Narrative\n\n")
	b.WriteString("You are the principal data steward. Based ONLY on the findings below, write the high-level analysis, scoring and planning sections. ")
	b.WriteString("Do not invent counts: severity counts must equal the number of entries of that severity in the violation summary, and type mismatches count as high severity.\n\n")

	b.WriteString("## Input\n\n")
	section(&b, "1. Schema Analysis", toJSON(in.SchemaAnalysis))
	section(&b, "2. Violation Summary", toJSON(in.Violations))

	history := in.History
	if history == nil {
		history = []models.HistorySnapshot{}
	}
	section(&b, "3. Previous File Schemas for this table, newest first (for drift analysis)", toJSON(history))

	b.WriteString("## Response Format\n\n")
	b.WriteString("Return ONLY one JSON object:\n\n")
	b.WriteString(`{
  "validation_summary": {
    "status": "Passed | Passed with Warnings | Failed",
    "high_severity_issues": 0,
    "medium_severity_issues": 0,
    "low_severity_issues": 0
  },
  "data_quality_score": {
    "score": 0,
    "grade": "A | B | C | D | F",
    "reasoning": "Link the specific high-severity violations to their business impact and the score"
  },
  "triage_plan": [
    {"priority": 1, "action": "Most critical action", "reasoning": "Why this is first"}
  ],
  "append_upsert_suggestion": {
    "strategy": "Append | Upsert | Do Not Load",
    "key_column": "ColumnName or null",
    "reasoning": "If Upsert, name the key. If Do Not Load, explain why it is unsafe"
  },
  "schema_drift": {
    "detected": false,
    "analysis": "Describe the specific change versus the previous schemas, or state that none was found"
  },
  "root_cause_analysis": {
    "hypothesis": "A specific hypothesis connecting the error patterns to a likely real-world source"
  },
  "overall_analysis": {
    "narrative_summary": "Two sentences for a non-technical manager: fitness for use and the single biggest business risk"
  }
}
`)
	b.WriteString("\nIf there are no previous schemas, schema_drift.detected is false.\n")

	return b.String()
}
