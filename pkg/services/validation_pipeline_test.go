package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-validator/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-validator/pkg/dataset"
	"github.com/ekaya-inc/ekaya-validator/pkg/metrics"
	"github.com/ekaya-inc/ekaya-validator/pkg/models"
	"github.com/ekaya-inc/ekaya-validator/pkg/repositories"
)

const ordersCSV = `order_id,qty,price
1,3,10.5
1,,-1
2,5,20
`

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ordersTable() *models.TableSchema {
	return newTableSchema("orders", []testColumn{
		{"order_id", models.ColumnDefinition{Type: "INTEGER", PrimaryKey: true}},
		{"quantity", models.ColumnDefinition{Type: "INTEGER"}},
		{"price", models.ColumnDefinition{Type: "NUMERIC(10,2)", Nullable: true}},
	}, models.CheckConstraint{Name: "orders_price_positive", SQLText: "price > 0"})
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

type pipelineFixture struct {
	provider   *datasource.MockSchemaProvider
	reconciler *MockReconciler
	narrator   *MockNarrator
	rules      *MockRuleInferrer
	history    repositories.SchemaHistoryRepository
	metrics    *metrics.Memory
	pipeline   ValidationPipelineService
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		provider: datasource.NewMockSchemaProvider(ordersTable()),
		reconciler: &MockReconciler{
			ReconcileFunc: func(_ context.Context, req ReconciliationRequest) (*models.ReconciliationResult, error) {
				return &models.ReconciliationResult{
					TargetTable:      req.TableName,
					SourceFile:       req.SourceFile,
					NamingMismatches: models.NamingMap{"qty": "quantity"},
				}, nil
			},
		},
		narrator: &MockNarrator{},
		rules:    &MockRuleInferrer{},
		history:  repositories.NewSchemaHistoryRepository(t.TempDir(), zap.NewNop()),
		metrics:  metrics.NewMemory(),
	}
	f.build()
	return f
}

func (f *pipelineFixture) build() {
	f.pipeline = NewValidationPipelineService(PipelineDeps{
		Provider:     f.provider,
		Reconciler:   f.reconciler,
		Narrator:     f.narrator,
		RuleInferrer: f.rules,
		History:      f.history,
		Clock:        func() time.Time { return fixedNow },
		NewRunID:     func() string { return "run-1" },
		Metrics:      f.metrics,
		Logger:       zap.NewNop(),
	})
}

func TestPipeline_HappyPath(t *testing.T) {
	f := newPipelineFixture(t)
	path := writeFile(t, "orders_q1.csv", ordersCSV)

	report := f.pipeline.Run(context.Background(), ValidationRequest{FilePath: path, TableName: "orders"})

	require.False(t, report.IsError(), report.Error)
	assert.Equal(t, models.PipelineStateDone, report.State)
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, "orders_q1.csv", report.FileName)
	assert.Nil(t, report.SheetName)
	assert.Equal(t, "2026-03-01T12:00:00Z", report.ValidatedAt)
	require.NotNil(t, report.TotalRowsChecked)
	assert.Equal(t, 3, *report.TotalRowsChecked)

	require.NotNil(t, report.SchemaMismatch)
	assert.Equal(t, models.NamingMap{"qty": "quantity"}, report.SchemaMismatch.NamingMismatches)

	assert.Empty(t, report.DataTypeMismatch)
	require.Len(t, report.DataQualityIssues, 3)
	pk := report.DataQualityIssues[0]
	assert.Equal(t, models.CheckPrimaryKey, pk.Check)
	assert.Equal(t, 1, pk.DistinctKeysDuplicated)
	assert.Equal(t, 2, pk.TotalDuplicateRecords)
	notNull := report.DataQualityIssues[1]
	assert.Equal(t, "quantity", notNull.Column, "checks run on the renamed column")
	assert.Equal(t, models.CheckNotNull, notNull.Check)
	assert.Equal(t, 1, notNull.Count)
	check := report.DataQualityIssues[2]
	assert.Equal(t, models.CheckCheckConstraint, check.Check)
	assert.Equal(t, []string{"-1"}, check.SampleViolatingValues)

	assert.Equal(t, []models.DynamicRule{}, report.DynamicValidationRules)

	// the mock narrator leaves status empty so the engine derives it
	assert.Equal(t, models.StatusFailed, string(report.ValidationSummary.Status))
	assert.Equal(t, 2, int(report.ValidationSummary.HighSeverityIssues))
	assert.Equal(t, 1, int(report.ValidationSummary.MediumSeverityIssues))
	require.NotNil(t, report.DataQualityScore)

	require.Len(t, f.narrator.Calls, 1)
	assert.Empty(t, f.narrator.Calls[0].History, "first run has no prior snapshots")
	assert.Len(t, f.narrator.Calls[0].Violations.DataQualityIssueSummary, 3)

	snapshots, err := f.history.Load(context.Background(), "orders", 0)
	require.NoError(t, err)
	assert.Len(t, snapshots, 1)

	assert.Equal(t, 1.0, f.metrics.Counter(metrics.RunsTotal, metrics.Labels{"status": models.StatusFailed}))
	for _, stage := range []models.PipelineState{
		models.PipelineStateExtracting, models.PipelineStateComparing, models.PipelineStateReconciling,
		models.PipelineStateDeepValidating, models.PipelineStateSummarizing, models.PipelineStateSnapshotting,
		models.PipelineStateAwaitingNarrative,
	} {
		assert.Equal(t, 1.0, f.metrics.Counter(metrics.StageTotal, metrics.Labels{"stage": string(stage), "status": "success"}), stage)
	}
	assert.Equal(t, 1.0, f.metrics.Counter(metrics.ViolationsTotal, metrics.Labels{"kind": string(models.CheckPrimaryKey)}))
}

func TestPipeline_NarrativeSeesOnlyPriorSnapshots(t *testing.T) {
	f := newPipelineFixture(t)
	path := writeFile(t, "orders.csv", ordersCSV)
	req := ValidationRequest{FilePath: path, TableName: "orders"}

	f.pipeline.Run(context.Background(), req)
	f.pipeline.Run(context.Background(), req)

	require.Len(t, f.narrator.Calls, 2)
	assert.Empty(t, f.narrator.Calls[0].History)
	require.Len(t, f.narrator.Calls[1].History, 1)
	assert.True(t, f.narrator.Calls[1].History[0].Columns.Has("qty"), "snapshots keep the file's own column names")
}

func TestPipeline_EmptyRowKeepsFileRowIndices(t *testing.T) {
	f := newPipelineFixture(t)
	path := writeFile(t, "orders.csv", "order_id,qty,price\n1,3,10\n,,\n2,,-1\n")

	report := f.pipeline.Run(context.Background(), ValidationRequest{FilePath: path, TableName: "orders"})

	require.False(t, report.IsError(), report.Error)
	require.NotNil(t, report.TotalRowsChecked)
	assert.Equal(t, 2, *report.TotalRowsChecked)

	require.Len(t, report.DataQualityIssues, 2)
	notNull := report.DataQualityIssues[0]
	assert.Equal(t, models.CheckNotNull, notNull.Check)
	assert.Equal(t, []int{2}, notNull.AffectedRowsSampleIndices)
	check := report.DataQualityIssues[1]
	assert.Equal(t, models.CheckCheckConstraint, check.Check)
	assert.Equal(t, []int{2}, check.AffectedRowsSampleIndices)
}

func TestPipeline_ExtendedCompatibilityChecksCatalogTypes(t *testing.T) {
	table := newTableSchema("events", []testColumn{
		{"event_id", models.ColumnDefinition{Type: "BIGINT", Nullable: true}},
	})
	path := writeFile(t, "events.csv", "event_id\n1\nx\n3\n")

	run := func(compat CompatibilityTable) *models.Report {
		pipeline := NewValidationPipelineService(PipelineDeps{
			Provider:      datasource.NewMockSchemaProvider(table),
			Reconciler:    &MockReconciler{},
			Narrator:      &MockNarrator{},
			Compatibility: compat,
			Clock:         func() time.Time { return fixedNow },
			NewRunID:      func() string { return "run-1" },
			Metrics:       metrics.NewMemory(),
			Logger:        zap.NewNop(),
		})
		return pipeline.Run(context.Background(), ValidationRequest{FilePath: path, TableName: "events"})
	}

	report := run(nil)
	require.False(t, report.IsError(), report.Error)
	assert.Empty(t, report.DataTypeMismatch, "BIGINT is unknown to the default table")

	report = run(ExtendedCompatibilityTable())
	require.False(t, report.IsError(), report.Error)
	require.Len(t, report.DataTypeMismatch, 1)
	assert.Equal(t, "event_id", report.DataTypeMismatch[0].Column)
	assert.Equal(t, models.TypeTextual, report.DataTypeMismatch[0].FoundFileType)
	assert.Contains(t, report.DataTypeMismatch[0].SampleInvalidValues, "x")
}

func TestPipeline_ReportKeepsReconcilerNamingMap(t *testing.T) {
	f := newPipelineFixture(t)
	f.reconciler.ReconcileFunc = func(_ context.Context, req ReconciliationRequest) (*models.ReconciliationResult, error) {
		return &models.ReconciliationResult{
			TargetTable:      req.TableName,
			SourceFile:       req.SourceFile,
			NamingMismatches: models.NamingMap{"qty": "quantity", "ghost": "order_id", "price": "unit_price"},
		}, nil
	}
	path := writeFile(t, "orders.csv", ordersCSV)

	report := f.pipeline.Run(context.Background(), ValidationRequest{FilePath: path, TableName: "orders"})

	require.False(t, report.IsError(), report.Error)
	assert.Equal(t, models.NamingMap{"qty": "quantity", "ghost": "order_id", "price": "unit_price"}, report.SchemaMismatch.NamingMismatches)
	require.Len(t, report.DataQualityIssues, 3, "only the applicable pair renames columns")
	assert.Equal(t, "quantity", report.DataQualityIssues[1].Column)
	assert.Equal(t, "price", report.DataQualityIssues[2].Column)
}

func TestPipeline_ExtractionFailure(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "gone.csv") }},
		{"unsupported type", func(t *testing.T) string { return writeFile(t, "orders.json", "{}") }},
		{"header only", func(t *testing.T) string { return writeFile(t, "empty.csv", "a,b\n") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPipelineFixture(t)

			report := f.pipeline.Run(context.Background(), ValidationRequest{FilePath: tt.path(t), TableName: "orders"})

			assert.True(t, report.IsError())
			assert.Equal(t, models.PipelineStateError, report.State)
			assert.Equal(t, models.PipelineStateExtracting, report.FailedAt)
			assert.Contains(t, report.Error, "schema extraction failed")
			assert.Equal(t, "2026-03-01T12:00:00Z", report.ValidatedAt)
			assert.Nil(t, report.SchemaMismatch)
			assert.Empty(t, f.reconciler.Calls)
			assert.Equal(t, 0, f.provider.GetSchemaCalls)
			assert.Equal(t, 1.0, f.metrics.Counter(metrics.RunsTotal, metrics.Labels{"status": models.StatusError}))
		})
	}
}

func TestPipeline_TableNotFound(t *testing.T) {
	f := newPipelineFixture(t)
	path := writeFile(t, "orders.csv", ordersCSV)

	report := f.pipeline.Run(context.Background(), ValidationRequest{FilePath: path, TableName: "invoices"})

	assert.True(t, report.IsError())
	assert.Equal(t, models.PipelineStateComparing, report.FailedAt)
	assert.Contains(t, report.Error, "database table 'invoices' does not exist")
	require.NotNil(t, report.TotalRowsChecked)
	assert.Empty(t, f.reconciler.Calls)
	assert.Equal(t, 1.0, f.metrics.Counter(metrics.StageTotal, metrics.Labels{"stage": "comparing", "status": "failure"}))
}

func TestPipeline_ReconciliationFailureKeepsComparison(t *testing.T) {
	f := newPipelineFixture(t)
	f.reconciler.ReconcileFunc = func(context.Context, ReconciliationRequest) (*models.ReconciliationResult, error) {
		return nil, errors.New("upstream timeout")
	}
	path := writeFile(t, "orders.csv", ordersCSV)

	report := f.pipeline.Run(context.Background(), ValidationRequest{FilePath: path, TableName: "orders"})

	assert.True(t, report.IsError())
	assert.Equal(t, models.PipelineStateReconciling, report.FailedAt)
	assert.Contains(t, report.Error, "upstream timeout")
	require.NotNil(t, report.SchemaMismatch)
	assert.Equal(t, []string{"quantity"}, []string(report.SchemaMismatch.ColumnsMissingFromFile))
	assert.Equal(t, []string{"qty"}, []string(report.SchemaMismatch.ColumnsExtraInFile))
	assert.Nil(t, report.DataTypeMismatch, "deep validation never ran")
	assert.Empty(t, f.narrator.Calls)
}

func TestPipeline_NarrativeFailureKeepsDeterministicSections(t *testing.T) {
	f := newPipelineFixture(t)
	f.narrator.NarrateFunc = func(context.Context, NarrativeRequest) (*models.NarrativeResult, error) {
		return nil, errors.New("unparseable")
	}
	path := writeFile(t, "orders.csv", ordersCSV)

	report := f.pipeline.Run(context.Background(), ValidationRequest{FilePath: path, TableName: "orders"})

	assert.True(t, report.IsError())
	assert.Equal(t, models.PipelineStateAwaitingNarrative, report.FailedAt)
	assert.Contains(t, report.Error, apperrors.ErrNarrative.Error())
	assert.Len(t, report.DataQualityIssues, 3)
	assert.NotNil(t, report.DataTypeMismatch)
	assert.Equal(t, 2, int(report.ValidationSummary.HighSeverityIssues))
	assert.Nil(t, report.DataQualityScore)

	snapshots, err := f.history.Load(context.Background(), "orders", 0)
	require.NoError(t, err)
	assert.Len(t, snapshots, 1, "the snapshot is written before the narrative call")
}

func TestPipeline_RuleInferenceFailureDoesNotFailRun(t *testing.T) {
	f := newPipelineFixture(t)
	f.rules.InferRulesFunc = func(context.Context, *models.Schema) ([]models.DynamicRule, error) {
		return nil, errors.New("model overloaded")
	}
	path := writeFile(t, "orders.csv", ordersCSV)

	report := f.pipeline.Run(context.Background(), ValidationRequest{FilePath: path, TableName: "orders"})

	assert.False(t, report.IsError())
	assert.Equal(t, models.DynamicRulesFailed(), report.DynamicValidationRules)
}

func TestPipeline_DuplicateMappingExcludesColumn(t *testing.T) {
	f := newPipelineFixture(t)
	f.reconciler.ReconcileFunc = func(_ context.Context, req ReconciliationRequest) (*models.ReconciliationResult, error) {
		return &models.ReconciliationResult{NamingMismatches: models.NamingMap{"a": "quantity", "b": "quantity"}}, nil
	}
	ds := dataset.New([]string{"order_id", "a", "b"}, [][]any{
		{int64(1), nil, "x"},
		{int64(2), nil, "y"},
	})

	report := f.pipeline.Run(context.Background(), ValidationRequest{FilePath: "upload.csv", Dataset: ds, TableName: "orders"})

	require.False(t, report.IsError(), report.Error)
	assert.Equal(t, "upload.csv", report.FileName)
	assert.Empty(t, report.DataTypeMismatch)
	assert.Empty(t, report.DataQualityIssues)
	assert.NotEmpty(t, report.Warnings)
}

func TestPipeline_RecoversFromPanics(t *testing.T) {
	f := newPipelineFixture(t)
	f.reconciler.ReconcileFunc = func(context.Context, ReconciliationRequest) (*models.ReconciliationResult, error) {
		panic("boom")
	}
	path := writeFile(t, "orders.csv", ordersCSV)

	report := f.pipeline.Run(context.Background(), ValidationRequest{FilePath: path, SheetName: models.CSVSheetPlaceholder, TableName: "orders"})

	assert.True(t, report.IsError())
	assert.Equal(t, models.PipelineStateReconciling, report.FailedAt)
	assert.Contains(t, report.Error, "boom")
	assert.Nil(t, report.SheetName, "the CSV placeholder means no sheet")
}
