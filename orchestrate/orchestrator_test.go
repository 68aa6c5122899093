package orchestrate

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/genflow/catalog"
	"github.com/BaSui01/genflow/dispatch"
	"github.com/BaSui01/genflow/mediastore"
	"github.com/BaSui01/genflow/poll"
	"github.com/BaSui01/genflow/providers"
	"github.com/BaSui01/genflow/reconcile"
	"github.com/BaSui01/genflow/testutil"
	"github.com/BaSui01/genflow/testutil/mocks"
	"github.com/BaSui01/genflow/types"
)

// completion captures one OnComplete invocation.
type completion struct {
	results []types.GenerationResult
	errs    []types.ModelError
	fatal   error
}

type harness struct {
	orc      *Orchestrator
	provider *mocks.MockProvider
	store    *mocks.MockStore
	assets   *httptest.Server
	done     chan completion
}

func newHarness(t *testing.T, specs []catalog.ModelSpec) *harness {
	t.Helper()

	assets := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("binary asset payload"))
	}))
	t.Cleanup(assets.Close)

	cat, err := catalog.New(specs)
	require.NoError(t, err)

	provider := mocks.NewMockProvider().WithName("mock")
	store := mocks.NewMockStore()
	done := make(chan completion, 1)

	h := &harness{
		provider: provider,
		store:    store,
		assets:   assets,
		done:     done,
	}
	h.orc = New(Config{
		Catalog:    cat,
		Dispatcher: dispatch.New(map[string]providers.Client{"mock": provider}, mocks.NewMockUploader(), nil, nil),
		Poller:     poll.New(poll.Config{Interval: 10 * time.Millisecond}, nil, nil),
		Reconciler: reconcile.New(store, nil, nil),
		OnComplete: func(results []types.GenerationResult, errs []types.ModelError, fatal error) {
			done <- completion{results: results, errs: errs, fatal: fatal}
		},
	})
	return h
}

func (h *harness) wait(t *testing.T) completion {
	t.Helper()
	select {
	case c := <-h.done:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("batch did not finish in time")
		return completion{}
	}
}

func textSpec(id string) catalog.ModelSpec {
	return catalog.ModelSpec{
		ID:             id,
		Name:           id,
		Provider:       "mock",
		Category:       types.CategoryText,
		Endpoints:      map[catalog.Capability]string{catalog.CapTextToVideo: "v1/" + id},
		RequiredInputs: []catalog.InputKind{catalog.InputPrompt},
	}
}

func imageSpec(id string) catalog.ModelSpec {
	return catalog.ModelSpec{
		ID:             id,
		Name:           id,
		Provider:       "mock",
		Category:       types.CategoryImage,
		Endpoints:      map[catalog.Capability]string{catalog.CapImageToVideo: "v1/" + id},
		RequiredInputs: []catalog.InputKind{catalog.InputSourceImage, catalog.InputPrompt},
	}
}

func textRequest(models ...string) *types.GenerationRequest {
	return &types.GenerationRequest{
		ProjectID: "proj-1",
		Category:  types.CategoryText,
		Prompt:    "a lighthouse in a storm",
		ModelIDs:  models,
	}
}

func TestStartRejectsInvalidRequest(t *testing.T) {
	h := newHarness(t, []catalog.ModelSpec{textSpec("m1")})

	err := h.orc.Start(testutil.TestContext(t), &types.GenerationRequest{
		ProjectID: "proj-1",
		Category:  types.CategoryText,
		Prompt:    "p",
	})
	require.NotNil(t, err)
	assert.Equal(t, types.ErrInvalidRequest, err.Code)
	assert.Equal(t, PhaseIdle, h.orc.Snapshot().Phase)
}

func TestImmediateAssetBatch(t *testing.T) {
	h := newHarness(t, []catalog.ModelSpec{textSpec("m1")})
	h.provider.WithImmediateAsset(h.assets.URL + "/clip.mp4")

	require.Nil(t, h.orc.Start(testutil.TestContext(t), textRequest("m1")))
	c := h.wait(t)

	require.NoError(t, c.fatal)
	require.Len(t, c.results, 1)
	assert.Equal(t, "m1", c.results[0].ModelID)
	assert.Empty(t, c.errs)
	assert.Equal(t, 1, h.store.Count())

	st := h.orc.Snapshot()
	assert.Equal(t, PhaseCompleted, st.Phase)
	assert.Equal(t, progressDone, st.AggregateProgress)
	assert.Greater(t, st.ElapsedSeconds, 0.0)
}

func TestAsyncJobBatch(t *testing.T) {
	h := newHarness(t, []catalog.ModelSpec{textSpec("m1")})
	h.provider.WithJob("job-42").
		WithStatus(&providers.StatusResponse{Status: providers.StatusPending}, nil).
		WithStatus(&providers.StatusResponse{Status: providers.StatusProcessing, Progress: 55}, nil).
		WithStatus(&providers.StatusResponse{Status: providers.StatusCompleted, AssetURL: h.assets.URL + "/clip.mp4"}, nil)

	require.Nil(t, h.orc.Start(testutil.TestContext(t), textRequest("m1")))
	c := h.wait(t)

	require.NoError(t, c.fatal)
	require.Len(t, c.results, 1)
	assert.Equal(t, "job-42", c.results[0].ProviderJobID)
	assert.Equal(t, 1, h.store.Count())
	assert.GreaterOrEqual(t, len(h.provider.StatusCalls()), 3)
	assert.Equal(t, PhaseCompleted, h.orc.Snapshot().Phase)
}

func TestSequentialDispatchOrder(t *testing.T) {
	h := newHarness(t, []catalog.ModelSpec{textSpec("m1"), textSpec("m2"), textSpec("m3")})
	h.provider.
		WithImmediateAsset(h.assets.URL + "/a.mp4").
		WithImmediateAsset(h.assets.URL + "/b.mp4").
		WithImmediateAsset(h.assets.URL + "/c.mp4")

	require.Nil(t, h.orc.Start(testutil.TestContext(t), textRequest("m1", "m2", "m3")))
	c := h.wait(t)

	require.Len(t, c.results, 3)
	calls := h.provider.SubmitCalls()
	require.Len(t, calls, 3)
	assert.Equal(t, "v1/m1", calls[0].Endpoint)
	assert.Equal(t, "v1/m2", calls[1].Endpoint)
	assert.Equal(t, "v1/m3", calls[2].Endpoint)
}

func TestPartialFailureTolerance(t *testing.T) {
	// m1 succeeds, ghost is not in the catalog, m3 is skipped for a
	// missing source image; the batch still completes with one result.
	h := newHarness(t, []catalog.ModelSpec{textSpec("m1"), imageSpec("m3")})
	h.provider.WithImmediateAsset(h.assets.URL + "/a.mp4")

	require.Nil(t, h.orc.Start(testutil.TestContext(t), textRequest("m1", "ghost", "m3")))
	c := h.wait(t)

	require.NoError(t, c.fatal)
	require.Len(t, c.results, 1)
	require.Len(t, c.errs, 2)
	assert.Equal(t, "ghost", c.errs[0].ModelID)
	assert.Equal(t, types.ErrModelNotFound, c.errs[0].Code)
	assert.Equal(t, "m3", c.errs[1].ModelID)
	assert.True(t, c.errs[1].Skipped())
	assert.Equal(t, PhaseCompleted, h.orc.Snapshot().Phase)
}

func TestAllSkippedStillCompletes(t *testing.T) {
	h := newHarness(t, []catalog.ModelSpec{imageSpec("m1"), imageSpec("m2")})

	req := textRequest("m1", "m2")
	req.Category = types.CategoryImage // no source image attached
	require.Nil(t, h.orc.Start(testutil.TestContext(t), req))
	c := h.wait(t)

	require.NoError(t, c.fatal)
	assert.Empty(t, c.results)
	require.Len(t, c.errs, 2)
	for _, e := range c.errs {
		assert.True(t, e.Skipped())
	}
	st := h.orc.Snapshot()
	assert.Equal(t, PhaseCompleted, st.Phase)
	assert.Equal(t, progressDone, st.AggregateProgress)
}

func TestFatalDispatchAbortsBatch(t *testing.T) {
	h := newHarness(t, []catalog.ModelSpec{textSpec("m1"), textSpec("m2")})
	h.provider.WithSubmit(nil, types.NewError(types.ErrFatalDispatch, "account quota exhausted"))

	require.Nil(t, h.orc.Start(testutil.TestContext(t), textRequest("m1", "m2")))
	c := h.wait(t)

	require.Error(t, c.fatal)
	assert.Equal(t, types.ErrFatalDispatch, types.GetErrorCode(c.fatal))
	assert.Empty(t, c.results)
	// m2 never submitted: the fatal error stops the remaining models
	assert.Len(t, h.provider.SubmitCalls(), 1)

	st := h.orc.Snapshot()
	assert.Equal(t, PhaseFailed, st.Phase)
	assert.Contains(t, st.LastError, "quota exhausted")
}

func TestProviderFailureIsPerModel(t *testing.T) {
	h := newHarness(t, []catalog.ModelSpec{textSpec("m1"), textSpec("m2")})
	h.provider.
		WithJob("job-1").
		WithImmediateAsset(h.assets.URL + "/b.mp4").
		WithStatus(&providers.StatusResponse{Status: providers.StatusFailed, Error: "content policy violation"}, nil)

	require.Nil(t, h.orc.Start(testutil.TestContext(t), textRequest("m1", "m2")))
	c := h.wait(t)

	require.NoError(t, c.fatal)
	require.Len(t, c.results, 1)
	assert.Equal(t, "m2", c.results[0].ModelID)
	require.Len(t, c.errs, 1)
	assert.Equal(t, "m1", c.errs[0].ModelID)
	assert.Equal(t, types.ErrProviderError, c.errs[0].Code)
	assert.Contains(t, c.errs[0].Reason, "content policy violation")
}

func TestIngestionFailureKeepsResult(t *testing.T) {
	h := newHarness(t, []catalog.ModelSpec{textSpec("m1")})
	h.provider.WithImmediateAsset(h.assets.URL + "/a.mp4")
	h.store.WithError(mediastore.Unavailable(assert.AnError))

	require.Nil(t, h.orc.Start(testutil.TestContext(t), textRequest("m1")))
	c := h.wait(t)

	require.NoError(t, c.fatal)
	require.Len(t, c.results, 1, "the asset url survives a failed registration")
	require.Len(t, c.errs, 1)
	assert.Equal(t, types.ErrIngestion, c.errs[0].Code)
	assert.Equal(t, PhaseCompleted, h.orc.Snapshot().Phase)
}

func TestStartWhileBusyIsRejected(t *testing.T) {
	h := newHarness(t, []catalog.ModelSpec{textSpec("m1")})
	h.provider.WithJob("job-1") // statuses default to pending, so the run never ends

	require.Nil(t, h.orc.Start(testutil.TestContext(t), textRequest("m1")))
	testutil.AssertEventuallyTrue(t, func() bool {
		return h.orc.Snapshot().Phase.Busy()
	}, 2*time.Second)

	err := h.orc.Start(testutil.TestContext(t), textRequest("m1"))
	require.NotNil(t, err)
	assert.Equal(t, types.ErrOrchestratorBusy, err.Code)

	h.orc.Reset()
}

func TestResetReturnsToIdle(t *testing.T) {
	h := newHarness(t, []catalog.ModelSpec{textSpec("m1")})
	h.provider.WithJob("job-1")

	require.Nil(t, h.orc.Start(testutil.TestContext(t), textRequest("m1")))
	testutil.AssertEventuallyTrue(t, func() bool {
		return len(h.provider.StatusCalls()) > 0
	}, 2*time.Second)

	h.orc.Reset()
	st := h.orc.Snapshot()
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Empty(t, st.Results)
	assert.Empty(t, st.Errors)
	assert.Zero(t, st.ElapsedSeconds)

	// the cancelled run must not resurrect any state
	queries := len(h.provider.StatusCalls())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, queries, len(h.provider.StatusCalls()))
	assert.Equal(t, PhaseIdle, h.orc.Snapshot().Phase)

	// idempotent
	h.orc.Reset()
	assert.Equal(t, PhaseIdle, h.orc.Snapshot().Phase)
}

func TestResetThenStartRunsFresh(t *testing.T) {
	h := newHarness(t, []catalog.ModelSpec{textSpec("m1")})
	h.provider.
		WithJob("job-1").
		WithImmediateAsset(h.assets.URL + "/fresh.mp4")

	require.Nil(t, h.orc.Start(testutil.TestContext(t), textRequest("m1")))
	testutil.AssertEventuallyTrue(t, func() bool {
		return len(h.provider.StatusCalls()) > 0
	}, 2*time.Second)
	h.orc.Reset()

	require.Nil(t, h.orc.Start(testutil.TestContext(t), textRequest("m1")))
	c := h.wait(t)

	require.NoError(t, c.fatal)
	require.Len(t, c.results, 1)
	assert.Equal(t, PhaseCompleted, h.orc.Snapshot().Phase)
}

func TestProgressEventsWithinBand(t *testing.T) {
	h := newHarness(t, []catalog.ModelSpec{textSpec("m1")})
	h.provider.WithJob("job-1").
		WithStatus(&providers.StatusResponse{Status: providers.StatusProcessing, Progress: 30}, nil).
		WithStatus(&providers.StatusResponse{Status: providers.StatusProcessing, Progress: 70}, nil).
		WithStatus(&providers.StatusResponse{Status: providers.StatusCompleted, AssetURL: h.assets.URL + "/a.mp4"}, nil)

	require.Nil(t, h.orc.Start(testutil.TestContext(t), textRequest("m1")))
	h.wait(t)

	var sawDone bool
	for {
		select {
		case ev := <-h.orc.Events():
			assert.GreaterOrEqual(t, ev.Percent, progressFloor)
			assert.LessOrEqual(t, ev.Percent, progressDone)
			if ev.Percent == progressDone {
				sawDone = true
			}
		default:
			assert.True(t, sawDone, "expected a 100 percent event")
			return
		}
	}
}

func TestTransientPollErrorsNudgeProgress(t *testing.T) {
	h := newHarness(t, []catalog.ModelSpec{textSpec("m1")})
	transient := types.NewError(types.ErrTransientPoll, "connection reset").WithRetryable(true)
	h.provider.WithJob("job-1").
		WithStatus(nil, transient).
		WithStatus(nil, transient).
		WithStatus(&providers.StatusResponse{Status: providers.StatusCompleted, AssetURL: h.assets.URL + "/a.mp4"}, nil)

	require.Nil(t, h.orc.Start(testutil.TestContext(t), textRequest("m1")))
	c := h.wait(t)

	require.NoError(t, c.fatal)
	require.Len(t, c.results, 1)
	assert.Empty(t, c.errs, "transient poll errors never surface as model errors")
}

func TestResetRacingStartLeavesNewPollLoopAlive(t *testing.T) {
	h := newHarness(t, []catalog.ModelSpec{textSpec("m1")})
	h.provider.
		WithJob("job-1").
		WithJob("job-2").
		WithStatus(&providers.StatusResponse{Status: providers.StatusProcessing, Progress: 40}, nil)

	require.Nil(t, h.orc.Start(testutil.TestContext(t), textRequest("m1")))
	testutil.AssertEventuallyTrue(t, func() bool {
		return len(h.provider.StatusCalls()) > 0
	}, 2*time.Second)

	// Reset concurrently with the re-Start so the second run's tracking
	// loop registers as close to the reset as the scheduler allows.
	resetDone := make(chan struct{})
	go func() {
		h.orc.Reset()
		close(resetDone)
	}()
	testutil.AssertEventuallyTrue(t, func() bool {
		return h.orc.Start(testutil.TestContext(t), textRequest("m1")) == nil
	}, 2*time.Second)
	<-resetDone

	// Only now let the job finish; if the reset had cancelled the second
	// run's loop it would already have recorded a canceled model error.
	h.provider.WithStatus(&providers.StatusResponse{Status: providers.StatusCompleted, AssetURL: h.assets.URL + "/b.mp4"}, nil)

	c := h.wait(t)
	require.NoError(t, c.fatal)
	require.Len(t, c.results, 1)
	assert.Empty(t, c.errs, "reset must only ever cancel its own run's poll loop")
	assert.Equal(t, PhaseCompleted, h.orc.Snapshot().Phase)
}

func TestPolledAndImmediateModelsShareOneBatch(t *testing.T) {
	h := newHarness(t, []catalog.ModelSpec{textSpec("m1"), textSpec("m2")})
	transient := types.NewError(types.ErrTransientPoll, "gateway timeout").WithRetryable(true)
	h.provider.
		WithJob("job-1").
		WithImmediateAsset(h.assets.URL+"/m2.mp4").
		WithStatus(nil, transient).
		WithStatus(nil, transient).
		WithStatus(nil, transient).
		WithStatus(&providers.StatusResponse{Status: providers.StatusCompleted, AssetURL: h.assets.URL + "/m1.mp4"}, nil)

	require.Nil(t, h.orc.Start(testutil.TestContext(t), textRequest("m1", "m2")))
	c := h.wait(t)

	require.NoError(t, c.fatal)
	require.Len(t, c.results, 2)
	assert.Equal(t, "m1", c.results[0].ModelID)
	assert.Equal(t, "m2", c.results[1].ModelID)
	assert.Empty(t, c.errs, "transient poll errors never surface as model errors")

	var events []ProgressEvent
	for {
		select {
		case ev := <-h.orc.Events():
			events = append(events, ev)
			continue
		default:
		}
		break
	}

	firstDone := -1
	for i, ev := range events {
		if ev.ModelID == "m1" && ev.Percent == progressDone {
			firstDone = i
			break
		}
	}
	require.GreaterOrEqual(t, firstDone, 0, "first model must emit a terminal event")
	for _, ev := range events[:firstDone] {
		assert.LessOrEqual(t, ev.Percent, progressDownloading)
	}
	for _, ev := range events[firstDone+1:] {
		assert.Equal(t, "m2", ev.ModelID)
	}
}
