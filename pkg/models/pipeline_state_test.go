package models

import "testing"

func TestPipelineState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from PipelineState
		to   PipelineState
		want bool
	}{
		{PipelineStateExtracting, PipelineStateComparing, true},
		{PipelineStateComparing, PipelineStateReconciling, true},
		{PipelineStateReconciling, PipelineStateDeepValidating, true},
		{PipelineStateDeepValidating, PipelineStateSummarizing, true},
		{PipelineStateSummarizing, PipelineStateSnapshotting, true},
		{PipelineStateSnapshotting, PipelineStateAwaitingNarrative, true},
		{PipelineStateAwaitingNarrative, PipelineStateDone, true},
		{PipelineStateExtracting, PipelineStateError, true},
		{PipelineStateAwaitingNarrative, PipelineStateError, true},
		{PipelineStateExtracting, PipelineStateDeepValidating, false},
		{PipelineStateDone, PipelineStateError, false},
		{PipelineStateError, PipelineStateExtracting, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsValidPipelineState(t *testing.T) {
	for _, s := range ValidPipelineStates {
		if !IsValidPipelineState(s) {
			t.Errorf("IsValidPipelineState(%q) = false", s)
		}
	}
	if IsValidPipelineState("bogus") {
		t.Error("IsValidPipelineState(bogus) = true")
	}
}

func TestNamingMap_UnmarshalTolerant(t *testing.T) {
	var m NamingMap
	if err := m.UnmarshalJSON([]byte(`{"Cust ID":"customer_id","qty":7,"":"x","empty":""}`)); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	if len(m) != 2 || m["Cust ID"] != "customer_id" || m["qty"] != "7" {
		t.Errorf("unexpected map %v", m)
	}
}
