package services

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/dataset"
	"github.com/ekaya-inc/ekaya-validator/pkg/jsonutil"
	"github.com/ekaya-inc/ekaya-validator/pkg/llm"
	"github.com/ekaya-inc/ekaya-validator/pkg/models"
)

// BatchValidationService validates several units concurrently.
type BatchValidationService interface {
	// ValidateAll returns one report per request, in request order. A failing
	// unit never affects the others.
	ValidateAll(ctx context.Context, reqs []ValidationRequest, onProgress func(completed, total int)) []*models.Report
}

type batchValidationService struct {
	pipeline ValidationPipelineService
	pool     *llm.WorkerPool
	logger   *zap.Logger
}

// NewBatchValidationService runs pipeline units on pool.
func NewBatchValidationService(pipeline ValidationPipelineService, pool *llm.WorkerPool, logger *zap.Logger) BatchValidationService {
	return &batchValidationService{
		pipeline: pipeline,
		pool:     pool,
		logger:   logger.Named("batch-validation"),
	}
}

var _ BatchValidationService = (*batchValidationService)(nil)

func (s *batchValidationService) ValidateAll(ctx context.Context, reqs []ValidationRequest, onProgress func(completed, total int)) []*models.Report {
	items := make([]llm.WorkItem[*models.Report], len(reqs))
	for i, req := range reqs {
		items[i] = llm.WorkItem[*models.Report]{
			ID: fmt.Sprintf("%d:%s/%s->%s", i, req.FilePath, req.SheetName, req.TableName),
			Execute: func(ctx context.Context) (*models.Report, error) {
				return s.pipeline.Run(ctx, req), nil
			},
		}
	}

	s.logger.Info("Starting batch validation",
		zap.Int("units", len(reqs)),
		zap.Int("max_concurrent", s.pool.MaxConcurrent()))

	results := llm.Process(ctx, s.pool, items, onProgress)

	reports := make([]*models.Report, len(reqs))
	var failed int
	for i, res := range results {
		if res.Err != nil {
			// Only reachable when ctx ended before the unit got a slot.
			reports[i] = cancelledReport(reqs[i], res.Err)
		} else {
			reports[i] = res.Result
		}
		if reports[i].IsError() {
			failed++
		}
	}

	s.logger.Info("Batch validation complete",
		zap.Int("units", len(reqs)),
		zap.Int("errors", failed))
	return reports
}

func cancelledReport(req ValidationRequest, err error) *models.Report {
	var fileName string
	if req.FilePath != "" {
		fileName = filepath.Base(req.FilePath)
	}
	r := &models.Report{
		RunID:       uuid.NewString(),
		FileName:    fileName,
		SheetName:   sheetPointer(dataset.NormalizeSheet(req.SheetName)),
		TargetTable: req.TableName,
		ValidatedAt: time.Now().UTC().Format(time.RFC3339),
		State:       models.PipelineStateError,
		FailedAt:    models.PipelineStateExtracting,
		Error:       err.Error(),
	}
	r.ValidationSummary.Status = models.StatusError
	r.ValidationSummary.Details = jsonutil.FlexibleString(err.Error())
	return r
}
