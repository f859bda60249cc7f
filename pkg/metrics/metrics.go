// Package metrics records validation-run metrics through a pluggable
// Backend. Backends are injected into the pipeline; there is no global one.
package metrics

import (
	"sync"
	"time"
)

// Metric names emitted by the validator.
const (
	StageTotal           = "validator_stage_total"
	StageDurationSeconds = "validator_stage_duration_seconds"
	RunsTotal            = "validator_runs_total"
	ViolationsTotal      = "validator_violations_total"

	ToolCallsTotal          = "validator_mcp_tool_calls_total"
	ToolCallDurationSeconds = "validator_mcp_tool_call_duration_seconds"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a duration-style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes buffered metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

// Nop returns a Backend that discards everything.
func Nop() Backend {
	return nopBackend{}
}

// RecordStage counts one pipeline stage and observes its duration.
func RecordStage(b Backend, stage string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"stage": stage, "status": status}
	b.IncCounter(StageTotal, 1, lbls)
	b.ObserveHistogram(StageDurationSeconds, d.Seconds(), lbls)
}

// RecordRun counts a finished run by its report status.
func RecordRun(b Backend, status string) {
	b.IncCounter(RunsTotal, 1, Labels{"status": status})
}

// RecordViolations adds n findings of a kind (type_mismatch, not_null_violation, ...).
func RecordViolations(b Backend, kind string, n int) {
	if n <= 0 {
		return
	}
	b.IncCounter(ViolationsTotal, float64(n), Labels{"kind": kind})
}

// Memory is a Backend that keeps totals in memory, keyed by metric name and
// sorted label pairs. It is safe for concurrent use.
type Memory struct {
	mu         sync.Mutex
	counters   map[string]float64
	histograms map[string][]float64
	flushes    int
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		counters:   make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

func (m *Memory) IncCounter(name string, delta float64, labels Labels) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[Key(name, labels)] += delta
}

func (m *Memory) ObserveHistogram(name string, value float64, labels Labels) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := Key(name, labels)
	m.histograms[k] = append(m.histograms[k], value)
}

func (m *Memory) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushes++
	return nil
}

// Counter returns the current value of a counter.
func (m *Memory) Counter(name string, labels Labels) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[Key(name, labels)]
}

// Observations returns the values recorded for a histogram.
func (m *Memory) Observations(name string, labels Labels) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.histograms[Key(name, labels)]...)
}

// Flushes returns how many times Flush was called.
func (m *Memory) Flushes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushes
}
