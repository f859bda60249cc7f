package models

// PipelineState is the stage a validation run has reached.
// State machine:
//
//	extracting → comparing → reconciling → deep_validating → summarizing
//	    → snapshotting → awaiting_narrative → done
//
//	Any non-terminal state can transition to: error
type PipelineState string

const (
	PipelineStateExtracting        PipelineState = "extracting"
	PipelineStateComparing         PipelineState = "comparing"
	PipelineStateReconciling       PipelineState = "reconciling"
	PipelineStateDeepValidating    PipelineState = "deep_validating"
	PipelineStateSummarizing       PipelineState = "summarizing"
	PipelineStateSnapshotting      PipelineState = "snapshotting"
	PipelineStateAwaitingNarrative PipelineState = "awaiting_narrative"
	PipelineStateDone              PipelineState = "done"
	PipelineStateError             PipelineState = "error"
)

// ValidPipelineStates contains all pipeline states in run order.
var ValidPipelineStates = []PipelineState{
	PipelineStateExtracting,
	PipelineStateComparing,
	PipelineStateReconciling,
	PipelineStateDeepValidating,
	PipelineStateSummarizing,
	PipelineStateSnapshotting,
	PipelineStateAwaitingNarrative,
	PipelineStateDone,
	PipelineStateError,
}

// IsValidPipelineState checks if the given state is valid.
func IsValidPipelineState(s PipelineState) bool {
	for _, v := range ValidPipelineStates {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal returns true for done and error.
func (s PipelineState) IsTerminal() bool {
	return s == PipelineStateDone || s == PipelineStateError
}

// CanTransitionTo returns true if moving from s to target is allowed.
func (s PipelineState) CanTransitionTo(target PipelineState) bool {
	if s.IsTerminal() {
		return false
	}
	if target == PipelineStateError {
		return true
	}

	switch s {
	case PipelineStateExtracting:
		return target == PipelineStateComparing
	case PipelineStateComparing:
		return target == PipelineStateReconciling
	case PipelineStateReconciling:
		return target == PipelineStateDeepValidating
	case PipelineStateDeepValidating:
		return target == PipelineStateSummarizing
	case PipelineStateSummarizing:
		return target == PipelineStateSnapshotting
	case PipelineStateSnapshotting:
		return target == PipelineStateAwaitingNarrative
	case PipelineStateAwaitingNarrative:
		return target == PipelineStateDone
	default:
		return false
	}
}
