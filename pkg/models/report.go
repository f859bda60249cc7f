package models

import "encoding/json"

// Report is the document a validation run produces. It is always produced,
// even when the run fails; failures set Error and ValidationSummary.Status.
type Report struct {
	RunID            string  `json:"run_id"`
	FileName         string  `json:"file_name"`
	SheetName        *string `json:"sheet_name"`
	TargetTable      string  `json:"target_table"`
	TotalRowsChecked *int    `json:"total_rows_checked,omitempty"`
	ValidatedAt      string  `json:"validated_at"`

	// Terminal state and the state the run failed in, if any.
	State    PipelineState `json:"pipeline_state"`
	FailedAt PipelineState `json:"failed_at,omitempty"`

	SchemaMismatch         *ReconciliationResult  `json:"schema_mismatch,omitempty"`
	DataTypeMismatch       []TypeViolation        `json:"data_type_mismatch"`
	DataQualityIssues      []DataQualityViolation `json:"data_quality_issues"`
	DynamicValidationRules []DynamicRule          `json:"dynamic_validation_rules"`

	ValidationSummary      ValidationSummary       `json:"validation_summary"`
	DataQualityScore       *DataQualityScore       `json:"data_quality_score,omitempty"`
	TriagePlan             []TriageItem            `json:"triage_plan"`
	AppendUpsertSuggestion *AppendUpsertSuggestion `json:"append_upsert_suggestion,omitempty"`
	SchemaDrift            *SchemaDrift            `json:"schema_drift,omitempty"`
	RootCauseAnalysis      *RootCauseAnalysis      `json:"root_cause_analysis,omitempty"`
	OverallAnalysis        *OverallAnalysis        `json:"overall_analysis,omitempty"`

	Warnings []string `json:"warnings,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// IsError reports whether this is an error-variant report.
func (r *Report) IsError() bool {
	return string(r.ValidationSummary.Status) == StatusError
}

// ApplyNarrative copies narrative fields into the report.
func (r *Report) ApplyNarrative(n *NarrativeResult) {
	if n == nil {
		return
	}
	r.ValidationSummary = n.ValidationSummary
	score := n.DataQualityScore
	r.DataQualityScore = &score
	r.TriagePlan = n.TriagePlan
	if r.TriagePlan == nil {
		r.TriagePlan = []TriageItem{}
	}
	suggestion := n.AppendUpsertSuggestion
	r.AppendUpsertSuggestion = &suggestion
	drift := n.SchemaDrift
	r.SchemaDrift = &drift
	rootCause := n.RootCauseAnalysis
	r.RootCauseAnalysis = &rootCause
	overall := n.OverallAnalysis
	r.OverallAnalysis = &overall
}

// MarshalJSON omits list sections that were never computed (nil) while still
// emitting computed-but-empty sections as [].
func (r Report) MarshalJSON() ([]byte, error) {
	type alias Report
	return json.Marshal(struct {
		alias
		DataTypeMismatch       any `json:"data_type_mismatch,omitempty"`
		DataQualityIssues      any `json:"data_quality_issues,omitempty"`
		DynamicValidationRules any `json:"dynamic_validation_rules,omitempty"`
		TriagePlan             any `json:"triage_plan,omitempty"`
	}{
		alias:                  alias(r),
		DataTypeMismatch:       sectionOrNil(r.DataTypeMismatch),
		DataQualityIssues:      sectionOrNil(r.DataQualityIssues),
		DynamicValidationRules: sectionOrNil(r.DynamicValidationRules),
		TriagePlan:             sectionOrNil(r.TriagePlan),
	})
}

func sectionOrNil[T any](s []T) any {
	if s == nil {
		return nil
	}
	return s
}
