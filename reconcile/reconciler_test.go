package reconcile

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/genflow/mediastore"
	"github.com/BaSui01/genflow/testutil"
	"github.com/BaSui01/genflow/testutil/mocks"
	"github.com/BaSui01/genflow/types"
)

func assetServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIngest_RegistersDownloadedAsset(t *testing.T) {
	t.Parallel()

	srv := assetServer(t, "video-bytes")
	store := mocks.NewMockStore()
	r := New(store, nil, nil)

	result := &types.GenerationResult{
		ModelID:      "kling-2.1",
		AssetURL:     srv.URL + "/out/clip.mp4",
		SourcePrompt: "a fox",
		Duration:     7,
	}
	assetID, err := r.Ingest(testutil.TestContext(t), "proj-1", result, mediastore.KindVideo)
	require.NoError(t, err)
	require.NotEmpty(t, assetID)

	assets := store.Assets()
	require.Len(t, assets, 1)
	assert.Equal(t, []byte("video-bytes"), assets[0].Bytes)
	assert.Equal(t, mediastore.KindVideo, assets[0].Kind)
	assert.InDelta(t, 7, assets[0].Duration, 1e-9)
	assert.True(t, strings.HasPrefix(assets[0].Name, "ai-kling-2.1-"))
	assert.True(t, strings.HasSuffix(assets[0].Name, ".mp4"))
}

func TestIngest_DefaultsAppliedWhenMetadataMissing(t *testing.T) {
	t.Parallel()

	srv := assetServer(t, "bytes")
	store := mocks.NewMockStore()
	r := New(store, nil, nil)

	result := &types.GenerationResult{ModelID: "veo-3", AssetURL: srv.URL + "/clip"}
	_, err := r.Ingest(testutil.TestContext(t), "proj-1", result, mediastore.KindVideo)
	require.NoError(t, err)

	assets := store.Assets()
	require.Len(t, assets, 1)
	assert.InDelta(t, defaultDuration, assets[0].Duration, 1e-9)
	assert.Equal(t, defaultWidth, assets[0].Width)
	assert.Equal(t, defaultHeight, assets[0].Height)
	assert.True(t, strings.HasSuffix(assets[0].Name, ".mp4"), "extension defaults by kind")
}

func TestIngest_DownloadFailureIsIngestionWarning(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	store := mocks.NewMockStore()
	r := New(store, nil, nil)

	result := &types.GenerationResult{ModelID: "veo-3", AssetURL: srv.URL + "/gone.mp4"}
	_, err := r.Ingest(testutil.TestContext(t), "proj-1", result, mediastore.KindVideo)
	require.Error(t, err)
	assert.Equal(t, types.ErrIngestion, types.GetErrorCode(err))
	assert.Zero(t, store.Count())
}

func TestIngest_StoreFailureIsIngestionWarning(t *testing.T) {
	t.Parallel()

	srv := assetServer(t, "bytes")
	store := mocks.NewMockStore().WithError(mediastore.Unavailable(errors.New("down")))
	r := New(store, nil, nil)

	result := &types.GenerationResult{ModelID: "veo-3", AssetURL: srv.URL + "/a.mp4"}
	_, err := r.Ingest(testutil.TestContext(t), "proj-1", result, mediastore.KindVideo)
	require.Error(t, err)
	assert.Equal(t, types.ErrIngestion, types.GetErrorCode(err))
	assert.True(t, types.IsRetryable(err))
}

func TestSynthesizeName_ImageExtension(t *testing.T) {
	t.Parallel()

	res := &types.GenerationResult{ModelID: "flux", AssetURL: "https://cdn.test/x?sig=abc"}
	name := synthesizeName(res, mediastore.KindImage)
	assert.True(t, strings.HasPrefix(name, "ai-flux-"))
	assert.True(t, strings.HasSuffix(name, ".png"))

	res = &types.GenerationResult{ModelID: "flux", AssetURL: "https://cdn.test/x.jpg?sig=abc"}
	name = synthesizeName(res, mediastore.KindImage)
	assert.True(t, strings.HasSuffix(name, ".jpg"))
}
