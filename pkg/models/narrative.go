package models

import "github.com/ekaya-inc/ekaya-validator/pkg/jsonutil"

// Report status values written to validation_summary.status.
const (
	StatusPassed             = "Passed"
	StatusPassedWithWarnings = "Passed with Warnings"
	StatusFailed             = "Failed"
	StatusError              = "Error"
)

type ValidationSummary struct {
	Status               jsonutil.FlexibleString `json:"status"`
	HighSeverityIssues   jsonutil.FlexibleInt    `json:"high_severity_issues"`
	MediumSeverityIssues jsonutil.FlexibleInt    `json:"medium_severity_issues"`
	LowSeverityIssues    jsonutil.FlexibleInt    `json:"low_severity_issues"`
	Details              jsonutil.FlexibleString `json:"details,omitempty"`
}

type DataQualityScore struct {
	Score     jsonutil.FlexibleInt    `json:"score"` // 0-100
	Grade     jsonutil.FlexibleString `json:"grade"`
	Reasoning jsonutil.FlexibleString `json:"reasoning"`
}

type TriageItem struct {
	Priority  jsonutil.FlexibleInt    `json:"priority"`
	Action    jsonutil.FlexibleString `json:"action"`
	Reasoning jsonutil.FlexibleString `json:"reasoning"`
}

type AppendUpsertSuggestion struct {
	Strategy  jsonutil.FlexibleString `json:"strategy"` // APPEND or UPSERT
	KeyColumn jsonutil.FlexibleString `json:"key_column"`
	Reasoning jsonutil.FlexibleString `json:"reasoning"`
}

type SchemaDrift struct {
	Detected jsonutil.FlexibleBool   `json:"detected"`
	Analysis jsonutil.FlexibleString `json:"analysis"`
}

type RootCauseAnalysis struct {
	Hypothesis jsonutil.FlexibleString `json:"hypothesis"`
}

type OverallAnalysis struct {
	NarrativeSummary jsonutil.FlexibleString `json:"narrative_summary"`
}

// NarrativeResult is the output of the narrative service. It interprets the
// engine's facts and never adds new ones.
type NarrativeResult struct {
	ValidationSummary      ValidationSummary      `json:"validation_summary"`
	DataQualityScore       DataQualityScore       `json:"data_quality_score"`
	TriagePlan             []TriageItem           `json:"triage_plan"`
	AppendUpsertSuggestion AppendUpsertSuggestion `json:"append_upsert_suggestion"`
	SchemaDrift            SchemaDrift            `json:"schema_drift"`
	RootCauseAnalysis      RootCauseAnalysis      `json:"root_cause_analysis"`
	OverallAnalysis        OverallAnalysis        `json:"overall_analysis"`
}
