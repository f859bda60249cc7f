package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_MarshalOmitsUncomputedSections(t *testing.T) {
	r := Report{
		RunID:             "run-1",
		FileName:          "orders.csv",
		TargetTable:       "orders",
		ValidatedAt:       "2024-01-01T00:00:00Z",
		State:             PipelineStateError,
		FailedAt:          PipelineStateExtracting,
		ValidationSummary: ValidationSummary{Status: StatusError},
		Error:             "extraction failed",
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.NotContains(t, doc, "data_type_mismatch")
	assert.NotContains(t, doc, "data_quality_issues")
	assert.NotContains(t, doc, "triage_plan")
	assert.NotContains(t, doc, "data_quality_score")
	assert.Equal(t, "extraction failed", doc["error"])
	assert.Equal(t, "Error", doc["validation_summary"].(map[string]any)["status"])
	assert.Nil(t, doc["sheet_name"])
	assert.True(t, r.IsError())
}

func TestReport_MarshalKeepsEmptyComputedSections(t *testing.T) {
	r := Report{
		DataTypeMismatch:  []TypeViolation{},
		DataQualityIssues: []DataQualityViolation{},
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "[]", string(doc["data_type_mismatch"]))
	assert.Equal(t, "[]", string(doc["data_quality_issues"]))
	assert.NotContains(t, doc, "dynamic_validation_rules")
}

func TestReport_ApplyNarrative(t *testing.T) {
	r := Report{ValidationSummary: ValidationSummary{Status: StatusError}}
	r.ApplyNarrative(&NarrativeResult{
		ValidationSummary: ValidationSummary{Status: StatusPassedWithWarnings, MediumSeverityIssues: 1},
		DataQualityScore:  DataQualityScore{Score: 88, Grade: "B"},
		SchemaDrift:       SchemaDrift{Detected: true},
	})

	assert.False(t, r.IsError())
	require.NotNil(t, r.DataQualityScore)
	assert.Equal(t, 88, int(r.DataQualityScore.Score))
	assert.NotNil(t, r.TriagePlan)
	assert.True(t, bool(r.SchemaDrift.Detected))
}

func TestReport_RoundTripNarrativeFromLLMShapes(t *testing.T) {
	var n NarrativeResult
	err := json.Unmarshal([]byte(`{
		"validation_summary": {"status": "Failed", "high_severity_issues": "2"},
		"data_quality_score": {"score": "64/100", "grade": "D", "reasoning": "nulls"},
		"triage_plan": [{"priority": 1, "action": "fix ids", "reasoning": "pk"}],
		"schema_drift": {"detected": "yes", "analysis": "new column"}
	}`), &n)
	require.NoError(t, err)
	assert.Equal(t, 2, int(n.ValidationSummary.HighSeverityIssues))
	assert.Equal(t, 64, int(n.DataQualityScore.Score))
	assert.True(t, bool(n.SchemaDrift.Detected))
}
