package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/llm"
	"github.com/ekaya-inc/ekaya-validator/pkg/models"
)

func TestBatchValidation_ResultsInRequestOrder(t *testing.T) {
	pipeline := &MockValidationPipeline{
		RunFunc: func(_ context.Context, req ValidationRequest) *models.Report {
			// later units finish first
			if req.TableName == "t0" {
				time.Sleep(20 * time.Millisecond)
			}
			r := &models.Report{TargetTable: req.TableName, State: models.PipelineStateDone}
			if req.TableName == "t1" {
				r.ValidationSummary.Status = models.StatusError
			}
			return r
		},
	}
	pool := llm.NewWorkerPool(llm.WorkerPoolConfig{MaxConcurrent: 2}, zap.NewNop())
	svc := NewBatchValidationService(pipeline, pool, zap.NewNop())

	var progress atomic.Int32
	reqs := []ValidationRequest{{TableName: "t0"}, {TableName: "t1"}, {TableName: "t2"}}
	reports := svc.ValidateAll(context.Background(), reqs, func(completed, total int) {
		progress.Add(1)
		assert.Equal(t, 3, total)
	})

	require.Len(t, reports, 3)
	for i, r := range reports {
		assert.Equal(t, reqs[i].TableName, r.TargetTable)
	}
	assert.True(t, reports[1].IsError(), "one failing unit does not affect the others")
	assert.False(t, reports[2].IsError())
	assert.Equal(t, int32(3), progress.Load())
}

func TestBatchValidation_CancelledBeforeStart(t *testing.T) {
	pipeline := &MockValidationPipeline{}
	pool := llm.NewWorkerPool(llm.WorkerPoolConfig{MaxConcurrent: 1}, zap.NewNop())
	svc := NewBatchValidationService(pipeline, pool, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reports := svc.ValidateAll(ctx, []ValidationRequest{
		{FilePath: "/data/a.xlsx", SheetName: "Jan", TableName: "orders"},
		{FilePath: "/data/a.xlsx", SheetName: "Feb", TableName: "orders"},
	}, nil)

	require.Len(t, reports, 2)
	for _, r := range reports {
		require.NotNil(t, r)
		assert.Equal(t, "orders", r.TargetTable)
		// units that lost the race for a slot get a cancellation report
		if r.IsError() {
			assert.Equal(t, "a.xlsx", r.FileName)
			assert.Equal(t, context.Canceled.Error(), r.Error)
			assert.NotEmpty(t, r.RunID)
		}
	}
}
