package orchestrate

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/genflow/catalog"
	"github.com/BaSui01/genflow/dispatch"
	"github.com/BaSui01/genflow/internal/metrics"
	"github.com/BaSui01/genflow/mediastore"
	"github.com/BaSui01/genflow/poll"
	"github.com/BaSui01/genflow/pricing"
	"github.com/BaSui01/genflow/providers"
	"github.com/BaSui01/genflow/reconcile"
	"github.com/BaSui01/genflow/types"
)

// defaultEventBuffer bounds the progress event channel. Events beyond the
// buffer are dropped rather than blocking the run loop.
const defaultEventBuffer = 64

// CompletionFunc receives the final results of one batch. fatal is nil
// unless the batch aborted on a non-recoverable error.
type CompletionFunc func(results []types.GenerationResult, errs []types.ModelError, fatal error)

// Config wires an Orchestrator. Catalog, Dispatcher, Poller and
// Reconciler are required; the rest may be nil or zero.
type Config struct {
	Catalog    *catalog.Catalog
	Dispatcher *dispatch.Dispatcher
	Poller     *poll.Poller
	Reconciler *reconcile.Reconciler
	Metrics    *metrics.Collector
	Logger     *zap.Logger
	OnComplete CompletionFunc
	// EventBuffer sizes the progress event channel; <= 0 uses the default.
	EventBuffer int
}

// Orchestrator drives one generation batch at a time through dispatch,
// polling and reconciliation. All externally visible state lives behind
// the mutex; the run goroutine mutates it only through generation-checked
// helpers, so a Reset during a run can never be overwritten by the stale
// goroutine it cancelled.
type Orchestrator struct {
	catalog    *catalog.Catalog
	dispatcher *dispatch.Dispatcher
	poller     *poll.Poller
	reconciler *reconcile.Reconciler
	metrics    *metrics.Collector
	logger     *zap.Logger
	onComplete CompletionFunc
	tracer     trace.Tracer

	events chan ProgressEvent

	mu         sync.Mutex
	state      State
	generation uint64
	cancel     context.CancelFunc
	startedAt  time.Time
	endedAt    time.Time
}

// New creates an orchestrator in the idle phase.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	buffer := cfg.EventBuffer
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}
	return &Orchestrator{
		catalog:    cfg.Catalog,
		dispatcher: cfg.Dispatcher,
		poller:     cfg.Poller,
		reconciler: cfg.Reconciler,
		metrics:    cfg.Metrics,
		logger:     logger.With(zap.String("component", "orchestrator")),
		onComplete: cfg.OnComplete,
		tracer:     otel.Tracer("genflow/orchestrate"),
		events:     make(chan ProgressEvent, buffer),
		state:      State{Phase: PhaseIdle},
	}
}

// Events exposes the progress stream. Events are dropped, never blocked
// on, when the consumer falls behind.
func (o *Orchestrator) Events() <-chan ProgressEvent {
	return o.events
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.snapshot(o.startedAt, o.endedAt)
}

// Start begins a new batch. It rejects the request when a batch is
// already in flight or the request fails validation; otherwise the run
// proceeds on its own goroutine and Start returns immediately. The run
// outlives ctx's cancellation: Reset is the only way to stop it.
func (o *Orchestrator) Start(ctx context.Context, req *types.GenerationRequest) *types.Error {
	if err := req.Validate(); err != nil {
		return err
	}

	o.mu.Lock()
	if o.state.Phase.Busy() {
		o.mu.Unlock()
		return types.NewError(types.ErrOrchestratorBusy, "a generation batch is already running")
	}

	o.generation++
	gen := o.generation
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	o.cancel = cancel
	o.state = State{
		Phase:             PhaseDispatching,
		AggregateProgress: progressFloor,
		StatusMessage:     "starting generation",
	}
	o.startedAt = time.Now()
	o.endedAt = time.Time{}
	o.mu.Unlock()

	o.logger.Info("batch started",
		zap.String("project_id", req.ProjectID),
		zap.String("category", string(req.Category)),
		zap.Int("models", len(req.ModelIDs)),
	)

	go o.run(runCtx, gen, req)
	return nil
}

// Reset cancels any in-flight run and returns the orchestrator to idle.
// Idempotent: resetting an idle orchestrator is a no-op.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.generation++
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.state = State{Phase: PhaseIdle}
	o.startedAt = time.Time{}
	o.endedAt = time.Time{}
	// Cancel the poll loop before releasing the mutex: a Start admitted
	// after the unlock may register a new tracking loop, which a late
	// cancel here must never hit.
	if o.poller != nil {
		o.poller.Cancel()
	}
	o.mu.Unlock()

	o.logger.Info("orchestrator reset")
}

// run walks the batch's models strictly in order. Per-model failures are
// recorded and the loop moves on; only a fatal dispatch error aborts the
// batch.
func (o *Orchestrator) run(ctx context.Context, gen uint64, req *types.GenerationRequest) {
	ctx, span := o.tracer.Start(ctx, "orchestrate.run",
		trace.WithAttributes(
			attribute.String("genflow.project_id", req.ProjectID),
			attribute.String("genflow.category", string(req.Category)),
			attribute.Int("genflow.model_count", len(req.ModelIDs)),
		))
	defer span.End()

	batchStart := time.Now()

	for i, id := range req.ModelIDs {
		if ctx.Err() != nil {
			return
		}
		if !o.setCurrent(gen, i, id) {
			return
		}
		o.emit(gen, i, id, progressFloor, "dispatching", PhaseDispatching)

		spec, lerr := o.catalog.Lookup(id)
		if lerr != nil {
			o.recordModelError(gen, types.ModelError{ModelID: id, Code: lerr.Code, Reason: lerr.Message})
			continue
		}

		if o.metrics != nil {
			if cost := pricing.Estimate(spec, estimateParams(spec, req)); cost > 0 {
				o.metrics.RecordEstimatedCost(spec.Provider, spec.ID, cost)
			}
		}

		outcome, err := o.dispatcher.Submit(ctx, spec, req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if types.IsFatal(err) {
				span.SetStatus(codes.Error, "fatal dispatch error")
				span.RecordError(err)
				o.finishBatch(gen, PhaseFailed, batchStart, err)
				return
			}
			o.recordModelError(gen, modelError(id, err))
			continue
		}

		switch outcome.Kind {
		case dispatch.OutcomeSkipped:
			o.recordModelError(gen, types.ModelError{
				ModelID: id,
				Code:    types.ErrValidationSkip,
				Reason:  outcome.SkipReason,
			})
		case dispatch.OutcomeImmediate:
			o.ingest(ctx, gen, req.ProjectID, i, outcome.Result)
		case dispatch.OutcomeJob:
			o.trackJob(ctx, gen, req, i, spec, outcome.Job)
		}
	}

	if ctx.Err() != nil {
		return
	}
	// an all-skipped batch still completes; the per-model errors tell
	// the user why nothing ran
	o.finishBatch(gen, PhaseCompleted, batchStart, nil)
}

// trackJob drives one async job to its terminal state and ingests the
// asset on success.
func (o *Orchestrator) trackJob(ctx context.Context, gen uint64, req *types.GenerationRequest, idx int, spec *catalog.ModelSpec, job *types.JobHandle) {
	if !o.setPhase(gen, PhasePolling) {
		return
	}

	client := o.dispatcher.ClientFor(spec)
	res, err := o.poller.Track(ctx, client, job, func(percent float64, message string) {
		o.emit(gen, idx, spec.ID, bandProgress(percent), message, PhasePolling)
	})
	o.setPhase(gen, PhaseDispatching)

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		o.recordModelError(gen, modelError(spec.ID, err))
		return
	}
	if res.Status == providers.StatusFailed {
		o.recordModelError(gen, types.ModelError{
			ModelID: spec.ID,
			Code:    types.ErrProviderError,
			Reason:  res.Reason,
		})
		return
	}

	o.ingest(ctx, gen, req.ProjectID, idx, &types.GenerationResult{
		ModelID:       spec.ID,
		AssetURL:      res.AssetURL,
		SourcePrompt:  req.Prompt,
		ProviderJobID: job.ProviderJobID,
	})
}

// ingest registers the finished asset with the media library. The result
// is kept even when ingestion fails; the failure is recorded as a
// retryable warning.
func (o *Orchestrator) ingest(ctx context.Context, gen uint64, projectID string, idx int, result *types.GenerationResult) {
	o.emit(gen, idx, result.ModelID, progressDownloading, "downloading asset", PhaseDispatching)
	if !o.appendResult(gen, *result) {
		return
	}

	if _, err := o.reconciler.Ingest(ctx, projectID, result, mediastore.KindVideo); err != nil {
		if ctx.Err() != nil {
			return
		}
		o.recordModelError(gen, modelError(result.ModelID, err))
		o.emit(gen, idx, result.ModelID, progressDownloading, "asset ready, library registration failed", PhaseDispatching)
		return
	}
	o.emit(gen, idx, result.ModelID, progressDone, "completed", PhaseDispatching)
}

// --- generation-checked state mutation ---

// setCurrent records the model the run is working on. Returns false when
// the run has been superseded by a Reset.
func (o *Orchestrator) setCurrent(gen uint64, idx int, modelID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generation != gen {
		return false
	}
	o.state.Phase = PhaseDispatching
	o.state.CurrentModelIndex = idx
	o.state.CurrentModelID = modelID
	o.state.AggregateProgress = progressFloor
	o.state.StatusMessage = "dispatching " + modelID
	return true
}

func (o *Orchestrator) setPhase(gen uint64, phase Phase) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generation != gen {
		return false
	}
	o.state.Phase = phase
	return true
}

func (o *Orchestrator) recordModelError(gen uint64, merr types.ModelError) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generation != gen {
		return
	}
	o.state.Errors = append(o.state.Errors, merr)
	o.state.LastError = merr.Reason
	o.logger.Warn("model failed",
		zap.String("model", merr.ModelID),
		zap.String("code", string(merr.Code)),
		zap.String("reason", merr.Reason),
	)
}

func (o *Orchestrator) appendResult(gen uint64, result types.GenerationResult) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generation != gen {
		return false
	}
	o.state.Results = append(o.state.Results, result)
	return true
}

// finishBatch moves the run to its terminal phase and fires the
// completion callback outside the lock.
func (o *Orchestrator) finishBatch(gen uint64, phase Phase, batchStart time.Time, fatal error) {
	o.mu.Lock()
	if o.generation != gen {
		o.mu.Unlock()
		return
	}
	o.state.Phase = phase
	o.state.CurrentModelID = ""
	if phase == PhaseCompleted {
		o.state.AggregateProgress = progressDone
		o.state.StatusMessage = "generation complete"
	} else {
		o.state.StatusMessage = "generation failed"
		if fatal != nil {
			o.state.LastError = fatal.Error()
		}
	}
	o.endedAt = time.Now()
	results := append([]types.GenerationResult(nil), o.state.Results...)
	errs := append([]types.ModelError(nil), o.state.Errors...)
	o.mu.Unlock()

	if o.metrics != nil {
		o.metrics.RecordBatch(string(phase), time.Since(batchStart))
	}
	o.logger.Info("batch finished",
		zap.String("phase", string(phase)),
		zap.Int("results", len(results)),
		zap.Int("errors", len(errs)),
	)
	if o.onComplete != nil {
		o.onComplete(results, errs, fatal)
	}
}

// emit publishes a progress event and mirrors it into the aggregate
// progress, which never moves backwards within one model.
func (o *Orchestrator) emit(gen uint64, idx int, modelID string, percent float64, message string, phase Phase) {
	o.mu.Lock()
	if o.generation != gen {
		o.mu.Unlock()
		return
	}
	if percent > o.state.AggregateProgress || percent == progressDone {
		o.state.AggregateProgress = percent
	}
	o.state.StatusMessage = message
	o.mu.Unlock()

	select {
	case o.events <- ProgressEvent{
		ModelIndex: idx,
		ModelID:    modelID,
		Percent:    percent,
		Message:    message,
		Phase:      phase,
	}:
	default:
	}
}

// modelError converts any submit or poll error into a ModelError entry.
func modelError(modelID string, err error) types.ModelError {
	code := types.GetErrorCode(err)
	if code == "" {
		code = types.ErrProviderError
	}
	return types.ModelError{ModelID: modelID, Code: code, Reason: err.Error()}
}

// estimateParams merges the model's defaults with the request's per-model
// overrides into pricing parameters.
func estimateParams(spec *catalog.ModelSpec, req *types.GenerationRequest) pricing.Params {
	merged := make(map[string]any, len(spec.Defaults))
	for k, v := range spec.Defaults {
		merged[k] = v
	}
	for k, v := range req.Overrides[spec.ID] {
		merged[k] = v
	}

	var p pricing.Params
	p.DurationSeconds = floatOpt(merged, "duration")
	p.Width = intOpt(merged, "width")
	p.Height = intOpt(merged, "height")
	p.FPS = intOpt(merged, "fps")
	if s, ok := merged["resolution"].(string); ok {
		p.Resolution = s
	}
	p.UpscaleFactor = floatOpt(merged, "upscale_factor")
	p.FrameCount = intOpt(merged, "frame_count")
	return p
}

func floatOpt(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func intOpt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
