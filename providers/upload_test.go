package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/genflow/types"
)

type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeCache() *fakeCache { return &fakeCache{data: make(map[string]string)} }

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", fmt.Errorf("cache miss")
}

func (f *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func newTestUploader(t *testing.T, cache URLCache, hits *atomic.Int32) *HTTPUploader {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		// slow enough for concurrent callers to pile onto one flight
		time.Sleep(20 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]string{"url": fmt.Sprintf("https://cdn.example/%d", n)})
	}))
	t.Cleanup(srv.Close)
	return NewHTTPUploader(DefaultUploadConfig(srv.URL), cache, zap.NewNop())
}

func TestHTTPUploader_Upload(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	u := newTestUploader(t, nil, &hits)

	url, err := u.Upload(context.Background(), "frame.png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/1", url)
}

func TestHTTPUploader_EmptyBytesRejected(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	u := newTestUploader(t, nil, &hits)

	_, err := u.Upload(context.Background(), "frame.png", nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrUploadFailed, types.GetErrorCode(err))
	assert.Zero(t, hits.Load())
}

func TestHTTPUploader_SingleflightDedup(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	u := newTestUploader(t, nil, &hits)

	const n = 8
	var wg sync.WaitGroup
	urls := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			urls[i], errs[i] = u.Upload(context.Background(), "same.png", []byte("identical"))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load(), "identical bytes must share one upload")
	for _, url := range urls {
		assert.Equal(t, urls[0], url)
	}
}

func TestHTTPUploader_CacheHitSkipsUpload(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	cache := newFakeCache()
	u := newTestUploader(t, cache, &hits)

	first, err := u.Upload(context.Background(), "a.png", []byte("cached-bytes"))
	require.NoError(t, err)
	require.Equal(t, int32(1), hits.Load())

	second, err := u.Upload(context.Background(), "a.png", []byte("cached-bytes"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load(), "second upload must be served from cache")
}

func TestHTTPUploader_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "storage full", http.StatusInsufficientStorage)
	}))
	t.Cleanup(srv.Close)
	u := NewHTTPUploader(DefaultUploadConfig(srv.URL), nil, zap.NewNop())

	_, err := u.Upload(context.Background(), "a.png", []byte("x"))
	require.Error(t, err)
	assert.Equal(t, types.ErrUploadFailed, types.GetErrorCode(err))
}
