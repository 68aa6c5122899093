package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/genflow/catalog"
	"github.com/BaSui01/genflow/testutil"
)

const catalogYAML = `
models:
  - id: test-model
    name: Test Model
    provider: fal
    category: text
    endpoints:
      text_to_video: "v1/test-model"
    required_inputs: [prompt]
    pricing:
      rule: per_second
      rate_per_second:
        "": 0.10
`

const catalogYAMLTwoModels = catalogYAML + `
  - id: second-model
    name: Second Model
    provider: fal
    category: text
    endpoints:
      text_to_video: "v1/second-model"
    pricing:
      rule: per_second
      rate_per_second:
        "": 0.20
`

// reloadRecorder collects catalogs delivered by the watcher.
type reloadRecorder struct {
	mu   sync.Mutex
	cats []*catalog.Catalog
}

func (r *reloadRecorder) record(cat *catalog.Catalog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cats = append(r.cats, cat)
}

func (r *reloadRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cats)
}

func (r *reloadRecorder) last() *catalog.Catalog {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.cats) == 0 {
		return nil
	}
	return r.cats[len(r.cats)-1]
}

func writeCatalog(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func newTestWatcher(t *testing.T, path string) (*Watcher, *reloadRecorder) {
	t.Helper()
	w, err := NewWatcher(path,
		WithPollInterval(10*time.Millisecond),
		WithDebounceDelay(10*time.Millisecond),
	)
	require.NoError(t, err)

	rec := &reloadRecorder{}
	w.OnReload(rec.record)
	t.Cleanup(w.Stop)
	return w, rec
}

func TestNewWatcherRequiresPath(t *testing.T) {
	_, err := NewWatcher("")
	require.Error(t, err)
}

func TestWatcherReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	writeCatalog(t, path, catalogYAML)

	w, rec := newTestWatcher(t, path)
	require.NoError(t, w.Start(context.Background()))
	assert.True(t, w.IsRunning())

	// mtime granularity on some filesystems is one second; bump it by hand
	writeCatalog(t, path, catalogYAMLTwoModels)
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	testutil.AssertEventuallyTrue(t, func() bool {
		return rec.count() >= 1
	}, 3*time.Second, "expected a reload")

	require.NotNil(t, rec.last())
	assert.Equal(t, 2, rec.last().Len())
	assert.NotNil(t, rec.last().Get("second-model"))
}

func TestWatcherKeepsPreviousCatalogOnParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	writeCatalog(t, path, catalogYAML)

	w, rec := newTestWatcher(t, path)
	require.NoError(t, w.Start(context.Background()))

	writeCatalog(t, path, "models: [unclosed")
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	// no callback fires for a broken file
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, rec.count())
}

func TestWatcherFiresWhenFileAppears(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")

	w, rec := newTestWatcher(t, path)
	require.NoError(t, w.Start(context.Background()))

	writeCatalog(t, path, catalogYAML)

	testutil.AssertEventuallyTrue(t, func() bool {
		return rec.count() >= 1
	}, 3*time.Second, "expected a reload after creation")
	assert.Equal(t, 1, rec.last().Len())
}

func TestWatcherStartTwiceFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	writeCatalog(t, path, catalogYAML)

	w, _ := newTestWatcher(t, path)
	require.NoError(t, w.Start(context.Background()))
	require.Error(t, w.Start(context.Background()))
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	writeCatalog(t, path, catalogYAML)

	w, _ := newTestWatcher(t, path)
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
	assert.False(t, w.IsRunning())
}
