package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordStage(t *testing.T) {
	m := NewMemory()

	RecordStage(m, "comparing", nil, 250*time.Millisecond)
	RecordStage(m, "comparing", nil, 750*time.Millisecond)
	RecordStage(m, "reconciling", errors.New("boom"), time.Second)

	assert.Equal(t, 2.0, m.Counter(StageTotal, Labels{"stage": "comparing", "status": "success"}))
	assert.Equal(t, 1.0, m.Counter(StageTotal, Labels{"stage": "reconciling", "status": "failure"}))
	assert.Equal(t, []float64{0.25, 0.75}, m.Observations(StageDurationSeconds, Labels{"stage": "comparing", "status": "success"}))
}

func TestRecordViolations_SkipsZero(t *testing.T) {
	m := NewMemory()

	RecordViolations(m, "not_null_violation", 0)
	RecordViolations(m, "not_null_violation", 3)

	assert.Equal(t, 3.0, m.Counter(ViolationsTotal, Labels{"kind": "not_null_violation"}))
}

func TestKey_SortsLabels(t *testing.T) {
	assert.Equal(t, "m", Key("m", nil))
	assert.Equal(t, "m{a=1,b=2}", Key("m", Labels{"b": "2", "a": "1"}))
}

func TestNop(t *testing.T) {
	b := Nop()
	b.IncCounter(RunsTotal, 1, nil)
	b.ObserveHistogram(StageDurationSeconds, 1, nil)
	assert.NoError(t, b.Flush())
}
