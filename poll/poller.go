package poll

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/genflow/internal/metrics"
	"github.com/BaSui01/genflow/providers"
	"github.com/BaSui01/genflow/types"
)

const (
	// DefaultInterval is the spacing between status queries.
	DefaultInterval = 2 * time.Second

	// transientNudge is added to the reported progress on each transient
	// query error.
	transientNudge = 2.0

	// progressCap bounds reported progress before a true terminal event.
	progressCap = 90.0
)

// Result is the terminal outcome of one tracked job.
type Result struct {
	Status   providers.JobStatus // StatusCompleted or StatusFailed
	AssetURL string              // set when Status == StatusCompleted
	Reason   string              // set when Status == StatusFailed
}

// ProgressFunc receives progress updates while a job is tracked. percent
// never exceeds progressCap before the terminal event.
type ProgressFunc func(percent float64, message string)

// Config configures a Poller.
type Config struct {
	Interval time.Duration `yaml:"interval" json:"interval"`
}

// Poller drives job handles to terminal results. At most one tracking
// loop is active at any instant.
type Poller struct {
	interval time.Duration
	metrics  *metrics.Collector
	logger   *zap.Logger

	mu     sync.Mutex
	active *tracker // active loop, nil when idle
}

// tracker identifies one tracking loop so a finished loop never clears a
// newer registration.
type tracker struct {
	cancel context.CancelFunc
}

// New creates a poller. collector may be nil.
func New(cfg Config, collector *metrics.Collector, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		interval: interval,
		metrics:  collector,
		logger:   logger.With(zap.String("component", "poller")),
	}
}

// Active reports whether a tracking loop is currently running.
func (p *Poller) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active != nil
}

// Cancel stops the active tracking loop, if any. Idempotent.
func (p *Poller) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active != nil {
		p.active.cancel()
		p.active = nil
	}
}

// Track blocks until the job reaches a terminal state or the loop is
// cancelled. Starting a new track cancels any previous one, keeping the
// one-timer invariant. onProgress may be nil.
func (p *Poller) Track(ctx context.Context, client providers.Client, job *types.JobHandle, onProgress ProgressFunc) (*Result, error) {
	loopCtx, cancel := context.WithCancel(ctx)
	tr := &tracker{cancel: cancel}

	p.mu.Lock()
	if p.active != nil {
		p.active.cancel()
	}
	p.active = tr
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		// only clear our own registration; a newer track may have replaced it
		if p.active == tr {
			p.active = nil
		}
		p.mu.Unlock()
		cancel()
	}()

	if onProgress == nil {
		onProgress = func(float64, string) {}
	}

	p.logger.Info("tracking job",
		zap.String("model", job.ModelID),
		zap.String("job_id", job.ProviderJobID),
	)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var progress float64

	// first query fires immediately, before the first tick
	for {
		result, done := p.query(loopCtx, client, job, &progress, onProgress)
		if done {
			return result.unpack()
		}

		select {
		case <-loopCtx.Done():
			return nil, loopCtx.Err()
		case <-ticker.C:
		}
	}
}

// queryResult pairs a terminal Result with an implementation error.
type queryResult struct {
	res *Result
	err error
}

func (q queryResult) unpack() (*Result, error) { return q.res, q.err }

// query performs one status query. done is false while the job is still
// in flight.
func (p *Poller) query(ctx context.Context, client providers.Client, job *types.JobHandle, progress *float64, onProgress ProgressFunc) (queryResult, bool) {
	if ctx.Err() != nil {
		return queryResult{err: ctx.Err()}, true
	}

	st, err := client.QueryStatus(ctx, job.ProviderJobID)
	if err != nil {
		if ctx.Err() != nil {
			return queryResult{err: ctx.Err()}, true
		}
		// transient: nudge progress, keep the interval running
		if p.metrics != nil {
			p.metrics.RecordPollTransient(client.Name())
		}
		*progress = minf(*progress+transientNudge, progressCap)
		onProgress(*progress, "still generating")
		p.logger.Debug("transient status-query error",
			zap.String("job_id", job.ProviderJobID),
			zap.Error(err),
		)
		return queryResult{}, false
	}

	if p.metrics != nil {
		p.metrics.RecordPoll(client.Name(), string(st.Status))
	}

	switch st.Status {
	case providers.StatusCompleted:
		if st.AssetURL == "" {
			return queryResult{err: types.NewError(types.ErrInternalError,
				"completed status carried no asset url").WithModel(job.ModelID)}, true
		}
		return queryResult{res: &Result{Status: providers.StatusCompleted, AssetURL: st.AssetURL}}, true
	case providers.StatusFailed:
		reason := st.Error
		if reason == "" {
			return queryResult{err: types.NewError(types.ErrInternalError,
				"failed status carried no reason").WithModel(job.ModelID)}, true
		}
		return queryResult{res: &Result{Status: providers.StatusFailed, Reason: reason}}, true
	default:
		if st.Progress > *progress {
			*progress = minf(st.Progress, progressCap)
		}
		onProgress(*progress, "generating")
		return queryResult{}, false
	}
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
