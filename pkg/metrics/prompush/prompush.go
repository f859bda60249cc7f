// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package. Validation runs are short-lived, so metrics are pushed
// on Flush instead of being scraped.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/ekaya-inc/ekaya-validator/pkg/metrics"
)

// DefaultJobName is the Pushgateway grouping job when none is configured.
const DefaultJobName = "ekaya-validator"

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	stageCounter     *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	runCounter       *prometheus.CounterVec
	violationCounter *prometheus.CounterVec
	toolCounter      *prometheus.CounterVec
	toolDuration     *prometheus.HistogramVec
}

var _ metrics.Backend = (*Backend)(nil)

// NewBackend constructs a Pushgateway backend.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = DefaultJobName
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        prometheus.NewRegistry(),
		stageCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StageTotal,
			Help: "Pipeline stage executions by stage and status.",
		}, []string{"stage", "status"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metrics.StageDurationSeconds,
			Help:    "Pipeline stage duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"stage", "status"}),
		runCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RunsTotal,
			Help: "Finished validation runs by report status.",
		}, []string{"status"}),
		violationCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.ViolationsTotal,
			Help: "Findings reported by validation runs, by kind.",
		}, []string{"kind"}),
		toolCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.ToolCallsTotal,
			Help: "MCP tool calls by tool and status.",
		}, []string{"tool", "status"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metrics.ToolCallDurationSeconds,
			Help:    "MCP tool call duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool", "status"}),
	}

	for _, c := range []prometheus.Collector{b.stageCounter, b.stageDuration, b.runCounter, b.violationCounter, b.toolCounter, b.toolDuration} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}
	return b, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StageTotal:
		b.stageCounter.WithLabelValues(labels["stage"], labels["status"]).Add(delta)
	case metrics.RunsTotal:
		b.runCounter.WithLabelValues(labels["status"]).Add(delta)
	case metrics.ViolationsTotal:
		b.violationCounter.WithLabelValues(labels["kind"]).Add(delta)
	case metrics.ToolCallsTotal:
		b.toolCounter.WithLabelValues(labels["tool"], labels["status"]).Add(delta)
	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	switch name {
	case metrics.StageDurationSeconds:
		b.stageDuration.WithLabelValues(labels["stage"], labels["status"]).Observe(value)
	case metrics.ToolCallDurationSeconds:
		b.toolDuration.WithLabelValues(labels["tool"], labels["status"]).Observe(value)
	}
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	if err := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push(); err != nil {
		return fmt.Errorf("prompush: push: %w", err)
	}
	return nil
}
