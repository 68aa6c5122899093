package providers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/BaSui01/genflow/types"
)

// URLCache memoizes hosted upload URLs by content hash. Implemented by
// internal/cache; nil disables memoization.
type URLCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// HTTPUploader implements the upload-for-reference step: it POSTs file
// bytes to the hosting endpoint and returns the dereferenceable URL.
// Identical bytes are collapsed into one in-flight upload (singleflight)
// and, when a cache is attached, memoized across batches.
type HTTPUploader struct {
	cfg    UploadConfig
	client *http.Client
	group  singleflight.Group
	cache  URLCache
	logger *zap.Logger
}

// NewHTTPUploader creates an uploader. cache may be nil.
func NewHTTPUploader(cfg UploadConfig, cache URLCache, logger *zap.Logger) *HTTPUploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &HTTPUploader{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		cache:  cache,
		logger: logger.With(zap.String("component", "uploader")),
	}
}

// Upload hosts data and returns its URL. Concurrent uploads of identical
// bytes share one provider call.
func (u *HTTPUploader) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", types.NewError(types.ErrUploadFailed, "no bytes to upload")
	}

	sum := sha256.Sum256(data)
	key := "upload:" + hex.EncodeToString(sum[:])

	if u.cache != nil {
		if url, err := u.cache.Get(ctx, key); err == nil && url != "" {
			u.logger.Debug("upload cache hit", zap.String("name", name))
			return url, nil
		}
	}

	v, err, _ := u.group.Do(key, func() (any, error) {
		return u.doUpload(ctx, name, data)
	})
	if err != nil {
		return "", err
	}
	url := v.(string)

	if u.cache != nil {
		if cerr := u.cache.Set(ctx, key, url, u.cfg.CacheTTL); cerr != nil {
			u.logger.Warn("upload cache set failed", zap.Error(cerr))
		}
	}
	return url, nil
}

func (u *HTTPUploader) doUpload(ctx context.Context, name string, data []byte) (string, error) {
	endpoint := strings.TrimRight(u.cfg.BaseURL, "/") + "/v1/files"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", types.NewError(types.ErrInternalError, "create upload request").WithCause(err)
	}
	httpReq.Header.Set("Content-Type", "application/octet-stream")
	httpReq.Header.Set("X-File-Name", name)
	if u.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+u.cfg.APIKey)
	}

	u.logger.Debug("uploading file for reference",
		zap.String("name", name),
		zap.Int("bytes", len(data)),
	)

	resp, err := u.client.Do(httpReq)
	if err != nil {
		return "", types.NewError(types.ErrUploadFailed, "upload request failed").
			WithRetryable(true).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", types.NewError(types.ErrUploadFailed,
			"upload rejected: "+strings.TrimSpace(string(errBody))).
			WithHTTPStatus(resp.StatusCode)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", types.NewError(types.ErrUploadFailed, "decode upload response").WithCause(err)
	}
	if out.URL == "" {
		return "", types.NewError(types.ErrUploadFailed, "upload response carried no url")
	}
	return out.URL, nil
}
