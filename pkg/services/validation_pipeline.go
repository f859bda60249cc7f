package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-validator/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-validator/pkg/dataset"
	"github.com/ekaya-inc/ekaya-validator/pkg/jsonutil"
	"github.com/ekaya-inc/ekaya-validator/pkg/metrics"
	"github.com/ekaya-inc/ekaya-validator/pkg/models"
	"github.com/ekaya-inc/ekaya-validator/pkg/repositories"
)

// ValidationRequest identifies one (file, sheet, table) validation unit.
type ValidationRequest struct {
	// FilePath is loaded unless Dataset is set, in which case it only names
	// the source in the report.
	FilePath string
	Dataset  *dataset.Dataset

	// SheetName selects a workbook sheet. Empty or "csv_data" means none.
	SheetName string
	TableName string
}

// PipelineDeps are the collaborators of a validation run. Provider,
// Reconciler and Narrator are required.
type PipelineDeps struct {
	Provider     datasource.SchemaProvider
	Reconciler   Reconciler
	Narrator     Narrator
	RuleInferrer RuleInferrer                         // nil skips rule inference
	History      repositories.SchemaHistoryRepository // nil disables snapshots
	HistoryDepth int                                  // <= 0 uses repositories.DefaultHistoryDepth

	Compatibility CompatibilityTable // nil uses DefaultCompatibilityTable
	Clock         func() time.Time
	NewRunID      func() string
	Metrics       metrics.Backend
	Logger        *zap.Logger
}

// ValidationPipelineService runs validation units end to end.
type ValidationPipelineService interface {
	// Run never returns nil and never fails; failures produce the error
	// variant of the report.
	Run(ctx context.Context, req ValidationRequest) *models.Report
}

type validationPipelineService struct {
	deps         PipelineDeps
	extractor    SchemaExtractionService
	comparator   SchemaComparisonService
	mapper       ColumnMappingService
	typeChecker  TypeCompatibilityService
	qualityCheck ConstraintValidationService
	summarizer   ViolationSummaryService
	logger       *zap.Logger
}

// NewValidationPipelineService wires the deterministic engine around deps.
func NewValidationPipelineService(deps PipelineDeps) ValidationPipelineService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.NewRunID == nil {
		deps.NewRunID = uuid.NewString
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop()
	}
	if deps.HistoryDepth <= 0 {
		deps.HistoryDepth = repositories.DefaultHistoryDepth
	}

	logger := deps.Logger
	return &validationPipelineService{
		deps:         deps,
		extractor:    NewSchemaExtractionService(logger),
		comparator:   NewSchemaComparisonService(),
		mapper:       NewColumnMappingService(logger),
		typeChecker:  NewTypeCompatibilityService(deps.Compatibility, logger),
		qualityCheck: NewConstraintValidationService(logger),
		summarizer:   NewViolationSummaryService(),
		logger:       logger.Named("validation-pipeline"),
	}
}

var _ ValidationPipelineService = (*validationPipelineService)(nil)

// pipelineRun carries the state of one unit through the state machine.
type pipelineRun struct {
	svc        *validationPipelineService
	report     *models.Report
	state      models.PipelineState
	stageStart time.Time
	logger     *zap.Logger
}

// advance records the finished stage and moves to next.
func (r *pipelineRun) advance(next models.PipelineState) {
	if !r.state.CanTransitionTo(next) {
		r.logger.DPanic("Invalid pipeline transition",
			zap.String("from", string(r.state)),
			zap.String("to", string(next)))
	}
	metrics.RecordStage(r.svc.deps.Metrics, string(r.state), nil, r.svc.deps.Clock().Sub(r.stageStart))
	r.state = next
	r.report.State = next
	r.stageStart = r.svc.deps.Clock()
}

// fail ends the run in the error state. Sections already on the report stay.
func (r *pipelineRun) fail(err error) *models.Report {
	metrics.RecordStage(r.svc.deps.Metrics, string(r.state), err, r.svc.deps.Clock().Sub(r.stageStart))

	r.logger.Error("Validation failed",
		zap.String("stage", string(r.state)),
		zap.Error(err))

	r.report.FailedAt = r.state
	r.report.State = models.PipelineStateError
	r.report.Error = err.Error()
	r.report.ValidationSummary.Status = models.StatusError
	r.report.ValidationSummary.Details = jsonutil.FlexibleString(err.Error())
	r.state = models.PipelineStateError

	metrics.RecordRun(r.svc.deps.Metrics, models.StatusError)
	return r.report
}

func (s *validationPipelineService) Run(ctx context.Context, req ValidationRequest) (report *models.Report) {
	sheet := sheetPointer(dataset.NormalizeSheet(req.SheetName))
	fileName := filepath.Base(req.FilePath)
	if req.FilePath == "" {
		fileName = ""
	}

	run := &pipelineRun{
		svc: s,
		report: &models.Report{
			RunID:       s.deps.NewRunID(),
			FileName:    fileName,
			SheetName:   sheet,
			TargetTable: req.TableName,
			ValidatedAt: s.deps.Clock().UTC().Format(time.RFC3339),
			State:       models.PipelineStateExtracting,
		},
		state:      models.PipelineStateExtracting,
		stageStart: s.deps.Clock(),
	}
	run.logger = s.logger.With(
		zap.String("run_id", run.report.RunID),
		zap.String("file", fileName),
		zap.String("table", req.TableName))
	if sheet != nil {
		run.logger = run.logger.With(zap.String("sheet", *sheet))
	}

	defer func() {
		if r := recover(); r != nil {
			run.logger.Error("Validation panicked", zap.Any("panic", r))
			report = run.fail(fmt.Errorf("internal error: %v", r))
		}
	}()

	run.logger.Info("Starting validation")
	return s.execute(ctx, run, req)
}

func (s *validationPipelineService) execute(ctx context.Context, run *pipelineRun, req ValidationRequest) *models.Report {
	report := run.report
	sheetLabel := "CSV data"
	if report.SheetName != nil {
		sheetLabel = *report.SheetName
	}

	// Extracting
	ds := req.Dataset
	if ds == nil {
		loaded, err := dataset.Open(req.FilePath, req.SheetName)
		if err != nil {
			return run.fail(fmt.Errorf("%w: schema extraction failed for sheet '%s': %v", apperrors.ErrExtraction, sheetLabel, err))
		}
		ds = loaded
	}
	ds = ds.DropEmptyRows()
	fileSchema := s.extractor.Extract(ds, report.FileName, report.SheetName)
	if !fileSchema.Usable() {
		detail := fileSchema.Error
		if detail == "" {
			detail = "no columns"
		}
		return run.fail(fmt.Errorf("%w: schema extraction failed for sheet '%s': %s", apperrors.ErrExtraction, sheetLabel, detail))
	}
	rows := fileSchema.TotalRows
	report.TotalRowsChecked = &rows
	run.advance(models.PipelineStateComparing)

	// Comparing
	tableSchema, err := datasource.LoadTableSchema(ctx, s.deps.Provider, req.TableName)
	if err != nil {
		if errors.Is(err, apperrors.ErrSchemaNotFound) {
			return run.fail(fmt.Errorf("database table '%s' does not exist: %w", req.TableName, err))
		}
		return run.fail(fmt.Errorf("load schema for table '%s': %w", req.TableName, err))
	}
	comparison := s.comparator.Compare(fileSchema, tableSchema)
	report.SchemaMismatch = comparisonOnly(req.TableName, report.FileName, comparison)
	run.advance(models.PipelineStateReconciling)

	// Reconciling
	reconciled, err := s.deps.Reconciler.Reconcile(ctx, ReconciliationRequest{
		TableSchema: tableSchema,
		FileSchema:  fileSchema,
		Comparison:  comparison,
		TableName:   req.TableName,
		SourceFile:  report.FileName,
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrReconciliation) {
			err = fmt.Errorf("%w: %w", apperrors.ErrReconciliation, err)
		}
		return run.fail(err)
	}
	report.SchemaMismatch = reconciled
	run.advance(models.PipelineStateDeepValidating)

	// DeepValidating
	naming, dropped := ApplicableNaming(reconciled.NamingMismatches, fileSchema, tableSchema)
	if len(dropped) > 0 {
		run.logger.Warn("Ignoring naming pairs that do not match the schemas", zap.Strings("file_columns", dropped))
	}
	renamed := s.mapper.ApplyNamingMap(ds, fileSchema, naming)
	report.Warnings = append(report.Warnings, renamed.Warnings...)

	types := s.typeChecker.Check(renamed.Dataset, renamed.Schema, tableSchema)
	quality := s.qualityCheck.Validate(renamed.Dataset, tableSchema)
	report.DataTypeMismatch = types.Violations
	report.DataQualityIssues = quality.Violations
	report.Warnings = appendUnique(report.Warnings, types.Warnings...)
	report.Warnings = appendUnique(report.Warnings, quality.Warnings...)
	report.DynamicValidationRules = s.inferRules(ctx, run, fileSchema)
	run.advance(models.PipelineStateSummarizing)

	// Summarizing
	summary := s.summarizer.Summarize(types.Violations, quality.Violations)
	high, medium, low := summary.SeverityCounts()
	report.ValidationSummary.HighSeverityIssues = jsonutil.FlexibleInt(high)
	report.ValidationSummary.MediumSeverityIssues = jsonutil.FlexibleInt(medium)
	report.ValidationSummary.LowSeverityIssues = jsonutil.FlexibleInt(low)
	metrics.RecordViolations(s.deps.Metrics, "type_mismatch", len(types.Violations))
	for _, v := range quality.Violations {
		metrics.RecordViolations(s.deps.Metrics, string(v.Check), 1)
	}
	run.advance(models.PipelineStateSnapshotting)

	// Snapshotting: history is read before this run's snapshot is written so
	// the narrative only compares against earlier files.
	history := s.snapshot(ctx, run, req.TableName, fileSchema)
	run.advance(models.PipelineStateAwaitingNarrative)

	// AwaitingNarrative
	narrative, err := s.deps.Narrator.Narrate(ctx, NarrativeRequest{
		SchemaAnalysis: reconciled,
		Violations:     summary,
		History:        history,
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrNarrative) {
			err = fmt.Errorf("%w: %w", apperrors.ErrNarrative, err)
		}
		return run.fail(err)
	}
	report.ApplyNarrative(narrative)
	EnforceSeverityCounts(&report.ValidationSummary, *summary)
	run.advance(models.PipelineStateDone)

	metrics.RecordRun(s.deps.Metrics, string(report.ValidationSummary.Status))

	run.logger.Info("Validation complete",
		zap.String("status", string(report.ValidationSummary.Status)),
		zap.Int("type_mismatches", len(report.DataTypeMismatch)),
		zap.Int("data_quality_issues", len(report.DataQualityIssues)),
		zap.Int("warnings", len(report.Warnings)))
	return report
}

// inferRules never fails the run; inference errors become the placeholder.
func (s *validationPipelineService) inferRules(ctx context.Context, run *pipelineRun, schema *models.Schema) []models.DynamicRule {
	if s.deps.RuleInferrer == nil {
		return []models.DynamicRule{}
	}
	rules, err := s.deps.RuleInferrer.InferRules(ctx, schema)
	if err != nil {
		run.logger.Warn("Could not generate dynamic rules", zap.Error(err))
		return models.DynamicRulesFailed()
	}
	if rules == nil {
		rules = []models.DynamicRule{}
	}
	return rules
}

// snapshot loads prior snapshots and then saves the current one. Both steps
// are best effort.
func (s *validationPipelineService) snapshot(ctx context.Context, run *pipelineRun, table string, schema *models.Schema) []models.HistorySnapshot {
	if s.deps.History == nil {
		return []models.HistorySnapshot{}
	}

	history, err := s.deps.History.Load(ctx, table, s.deps.HistoryDepth)
	if err != nil {
		run.logger.Warn("Failed to load schema history", zap.Error(err))
		history = []models.HistorySnapshot{}
	}

	if _, err := s.deps.History.Save(ctx, table, schema); err != nil {
		run.logger.Warn("Failed to save schema snapshot", zap.Error(err))
		run.report.Warnings = append(run.report.Warnings, fmt.Sprintf("Schema snapshot was not saved: %v", err))
	}
	return history
}

// comparisonOnly is the schema section reported when reconciliation fails.
func comparisonOnly(table, file string, c *models.ComparisonResult) *models.ReconciliationResult {
	return &models.ReconciliationResult{
		TargetTable:            table,
		SourceFile:             file,
		NamingMismatches:       models.NamingMap{},
		ColumnsMissingFromFile: c.MissingInFile,
		ColumnsExtraInFile:     c.ExtraInFile,
	}
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		dup := false
		for _, existing := range dst {
			if existing == v {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}
