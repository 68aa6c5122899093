package orchestrate

import (
	"time"

	"github.com/BaSui01/genflow/types"
)

// Phase is the orchestrator's lifecycle phase.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseDispatching Phase = "dispatching"
	PhasePolling     Phase = "polling"
	PhaseCompleted   Phase = "completed"
	PhaseFailed      Phase = "failed"
)

// Busy reports whether a run is in flight.
func (p Phase) Busy() bool {
	return p == PhaseDispatching || p == PhasePolling
}

// Terminal reports whether the phase ends a run.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// State is the externally observable orchestration state. Callers read
// snapshots; only the orchestrator's transition methods mutate it.
type State struct {
	Phase             Phase                    `json:"phase"`
	CurrentModelIndex int                      `json:"current_model_index"`
	CurrentModelID    string                   `json:"current_model_id,omitempty"`
	AggregateProgress float64                  `json:"aggregate_progress"` // 0–100
	StatusMessage     string                   `json:"status_message,omitempty"`
	ElapsedSeconds    float64                  `json:"elapsed_seconds"`
	Results           []types.GenerationResult `json:"results"`
	Errors            []types.ModelError       `json:"errors"`
	LastError         string                   `json:"last_error,omitempty"`
}

// snapshot deep-copies the state so callers never alias the owned slices.
func (s *State) snapshot(startedAt, endedAt time.Time) State {
	out := *s
	out.Results = append([]types.GenerationResult(nil), s.Results...)
	out.Errors = append([]types.ModelError(nil), s.Errors...)
	switch {
	case startedAt.IsZero():
		out.ElapsedSeconds = 0
	case endedAt.IsZero():
		out.ElapsedSeconds = time.Since(startedAt).Seconds()
	default:
		out.ElapsedSeconds = endedAt.Sub(startedAt).Seconds()
	}
	return out
}
