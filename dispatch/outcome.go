package dispatch

import "github.com/BaSui01/genflow/types"

// OutcomeKind tags the three normalized dispatch results.
type OutcomeKind string

const (
	OutcomeImmediate OutcomeKind = "immediate_asset"
	OutcomeJob       OutcomeKind = "job_handle"
	OutcomeSkipped   OutcomeKind = "skipped"
)

// Outcome is the normalized result of one dispatcher submit. Exactly one
// of Result, Job, or SkipReason is meaningful, selected by Kind; callers
// switch on the tag instead of probing fields.
type Outcome struct {
	Kind       OutcomeKind
	Result     *types.GenerationResult // Kind == OutcomeImmediate
	Job        *types.JobHandle        // Kind == OutcomeJob
	SkipReason string                  // Kind == OutcomeSkipped
}

func immediate(res *types.GenerationResult) *Outcome {
	return &Outcome{Kind: OutcomeImmediate, Result: res}
}

func job(h *types.JobHandle) *Outcome {
	return &Outcome{Kind: OutcomeJob, Job: h}
}

func skipped(reason string) *Outcome {
	return &Outcome{Kind: OutcomeSkipped, SkipReason: reason}
}
