package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-validator/pkg/metrics"
)

func TestNewBackend(t *testing.T) {
	_, err := NewBackend("job", "")
	assert.Error(t, err)

	b, err := NewBackend("", "http://pushgateway:9091")
	require.NoError(t, err)
	assert.Equal(t, DefaultJobName, b.jobName)
}

func TestIncCounter_RoutesByName(t *testing.T) {
	b, err := NewBackend("job", "http://pushgateway:9091")
	require.NoError(t, err)

	b.IncCounter(metrics.StageTotal, 2, metrics.Labels{"stage": "comparing", "status": "success"})
	b.IncCounter(metrics.RunsTotal, 1, metrics.Labels{"status": "Passed"})
	b.IncCounter(metrics.ViolationsTotal, 4, metrics.Labels{"kind": "type_mismatch"})
	b.IncCounter(metrics.ToolCallsTotal, 1, metrics.Labels{"tool": "validate_sheet", "status": "success"})
	b.IncCounter("unknown_metric", 9, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(b.stageCounter.WithLabelValues("comparing", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.runCounter.WithLabelValues("Passed")))
	assert.Equal(t, 4.0, testutil.ToFloat64(b.violationCounter.WithLabelValues("type_mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.toolCounter.WithLabelValues("validate_sheet", "success")))
}

func TestObserveHistogram(t *testing.T) {
	b, err := NewBackend("job", "http://pushgateway:9091")
	require.NoError(t, err)

	b.ObserveHistogram(metrics.StageDurationSeconds, 0.2, metrics.Labels{"stage": "extracting", "status": "success"})
	b.ObserveHistogram(metrics.ToolCallDurationSeconds, 0.05, metrics.Labels{"tool": "health", "status": "success"})
	b.ObserveHistogram("other", 1, nil)

	assert.Equal(t, 1, testutil.CollectAndCount(b.stageDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(b.toolDuration))
}

func TestFlush_PushesToGateway(t *testing.T) {
	var (
		mu   sync.Mutex
		path string
		body string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		path = r.URL.Path
		body = string(data)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend("validator-test", srv.URL)
	require.NoError(t, err)
	metrics.RecordRun(b, "Passed")

	require.NoError(t, b.Flush())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/metrics/job/validator-test", path)
	assert.True(t, strings.Contains(body, metrics.RunsTotal), "pushed body names the run counter")
}

func TestFlush_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	b, err := NewBackend("job", srv.URL)
	require.NoError(t, err)

	err = b.Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompush: push")
}
