package llm

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProcess_ResultsInSubmissionOrder(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 3}, zap.NewNop())

	var items []WorkItem[int]
	for i := 0; i < 6; i++ {
		i := i
		items = append(items, WorkItem[int]{
			ID: fmt.Sprintf("unit-%d", i),
			Execute: func(ctx context.Context) (int, error) {
				// later items finish first
				time.Sleep(time.Duration(6-i) * time.Millisecond)
				return i * 10, nil
			},
		})
	}

	results := Process(context.Background(), pool, items, nil)
	require.Len(t, results, 6)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("unit-%d", i), r.ID)
		assert.Equal(t, i*10, r.Result)
		assert.NoError(t, r.Err)
	}
}

func TestProcess_ErrorsDoNotStopOthers(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 2}, zap.NewNop())
	boom := errors.New("boom")

	items := []WorkItem[string]{
		{ID: "a", Execute: func(context.Context) (string, error) { return "a", nil }},
		{ID: "b", Execute: func(context.Context) (string, error) { return "", boom }},
		{ID: "c", Execute: func(context.Context) (string, error) { return "c", nil }},
	}

	var progress []int
	results := Process(context.Background(), pool, items, func(completed, total int) {
		assert.Equal(t, 3, total)
		progress = append(progress, completed)
	})

	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].Result)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.Equal(t, "c", results[2].Result)
	assert.Equal(t, []int{1, 2, 3}, progress)
}

func TestProcess_BoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 2}, zap.NewNop())

	var current, peak int32
	var items []WorkItem[struct{}]
	for i := 0; i < 8; i++ {
		items = append(items, WorkItem[struct{}]{
			ID: fmt.Sprint(i),
			Execute: func(context.Context) (struct{}, error) {
				n := atomic.AddInt32(&current, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				atomic.AddInt32(&current, -1)
				return struct{}{}, nil
			},
		})
	}

	Process(context.Background(), pool, items, nil)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestProcess_Empty(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{}, zap.NewNop())
	assert.Equal(t, DefaultWorkerPoolConfig().MaxConcurrent, pool.MaxConcurrent())
	assert.Nil(t, Process[int](context.Background(), pool, nil, nil))
}
