package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ekaya-inc/ekaya-validator/pkg/models"
)

func sampleColumns() models.ColumnProfiles {
	cols := models.NewOrderedMap[models.ColumnProfile](2)
	cols.Set("cust", models.ColumnProfile{InferredType: models.TypeInteger, SampleValues: []any{int64(1), int64(2)}})
	cols.Set("qty", models.ColumnProfile{InferredType: models.TypeTextual, SampleValues: []any{"3", "x"}, NullCount: 1})
	return *cols
}

func TestBuildReconciliationPrompt(t *testing.T) {
	table := &models.TableSchema{TableName: "orders"}
	table.Columns.Set("CustomerID", models.ColumnDefinition{Type: "INTEGER", PrimaryKey: true})

	prompt := BuildReconciliationPrompt(ReconciliationInput{
		TargetTable: "orders",
		SourceFile:  "orders_q1.xlsx",
		DBSchema:    table,
		FileColumns: sampleColumns(),
		Comparison:  models.ComparisonResult{MissingInFile: []string{"CustomerID"}, ExtraInFile: []string{"cust", "qty"}},
	})

	assert.Contains(t, prompt, "**Target Table:** orders")
	assert.Contains(t, prompt, "**Source File:** orders_q1.xlsx")
	assert.Contains(t, prompt, `"CustomerID": {`)
	assert.Contains(t, prompt, `"primary_key": true`)
	assert.Contains(t, prompt, `"missing_in_file": [`)
	assert.Contains(t, prompt, `"target_table": "orders"`)
	assert.Contains(t, prompt, "the key MUST be the file column")

	// file columns keep their order
	assert.Less(t, strings.Index(prompt, `"cust": {`), strings.Index(prompt, `"qty": {`))
}

func TestBuildNarrativePrompt(t *testing.T) {
	prompt := BuildNarrativePrompt(NarrativeInput{
		SchemaAnalysis: &models.ReconciliationResult{TargetTable: "orders"},
		Violations: models.ViolationSummary{
			DataQualityIssueSummary: []models.DataQualityIssueEntry{
				{Column: "id", Check: models.CheckPrimaryKey, Count: 5, Severity: models.SeverityHigh},
			},
		},
	})

	assert.Contains(t, prompt, `"check": "primary_key_violation"`)
	assert.Contains(t, prompt, "Previous File Schemas")
	assert.Contains(t, prompt, "[]", "missing history renders as an empty list")
	assert.Contains(t, prompt, `"append_upsert_suggestion"`)
	assert.Contains(t, prompt, "Do not invent counts")
}

func TestBuildDynamicRulesPrompt(t *testing.T) {
	prompt := BuildDynamicRulesPrompt(sampleColumns())

	assert.Contains(t, prompt, `"sample_values": [`)
	assert.Contains(t, prompt, "format_check")
	assert.Contains(t, prompt, "enum_check")
	assert.Contains(t, prompt, "range_check")
}

func TestBuildTableMatchingPrompt(t *testing.T) {
	prompt := BuildTableMatchingPrompt(
		[]string{"OrderID", "qty"},
		map[string][]string{"orders": {"OrderID", "Quantity"}, "customers": {"CustomerID"}},
		3,
	)

	assert.Contains(t, prompt, `"OrderID"`)
	assert.Contains(t, prompt, `"customers": [`)
	assert.Contains(t, prompt, "at most 3 recommendations")

	empty := BuildTableMatchingPrompt(nil, nil, 3)
	assert.Contains(t, empty, "**File Column List:**\n[]")
	assert.Contains(t, empty, "**Database Table Columns:**\n{}")
}
