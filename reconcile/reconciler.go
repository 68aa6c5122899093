// Copyright (c) GenFlow Authors.
// Licensed under the MIT License.

// Package reconcile turns a ready asset reference into a registered entry
// in the project's media library. Registration failure is a warning, not
// a batch failure: the GenerationResult survives and the user can retry
// ingestion manually.
package reconcile

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/genflow/internal/metrics"
	"github.com/BaSui01/genflow/mediastore"
	"github.com/BaSui01/genflow/types"
)

// default dimensions used when the provider reported none
const (
	defaultWidth    = 1280
	defaultHeight   = 720
	defaultDuration = 5.0
)

// Reconciler downloads finished assets and registers them with the media
// store.
type Reconciler struct {
	store   mediastore.Store
	client  *http.Client
	metrics *metrics.Collector
	logger  *zap.Logger
}

// New creates a reconciler. collector may be nil.
func New(store mediastore.Store, collector *metrics.Collector, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		store:   store,
		client:  &http.Client{Timeout: 5 * time.Minute},
		metrics: collector,
		logger:  logger.With(zap.String("component", "reconciler")),
	}
}

// Ingest downloads the asset behind result and registers it under
// projectID. The returned error is always an INGESTION_ERROR warning;
// the caller keeps the GenerationResult either way.
func (r *Reconciler) Ingest(ctx context.Context, projectID string, result *types.GenerationResult, kind mediastore.AssetKind) (string, error) {
	data, err := r.download(ctx, result.AssetURL)
	if err != nil {
		r.recordFailure(result.ModelID)
		return "", types.NewError(types.ErrIngestion, "asset download failed").
			WithModel(result.ModelID).WithRetryable(true).WithCause(err)
	}

	asset := mediastore.Asset{
		Name:     synthesizeName(result, kind),
		Kind:     kind,
		Bytes:    data,
		URL:      result.AssetURL,
		Duration: result.Duration,
		Width:    defaultWidth,
		Height:   defaultHeight,
	}
	if asset.Duration == 0 && kind == mediastore.KindVideo {
		asset.Duration = defaultDuration
	}

	assetID, err := r.store.AddAsset(ctx, projectID, asset)
	if err != nil {
		r.recordFailure(result.ModelID)
		r.logger.Warn("media store registration failed",
			zap.String("model", result.ModelID),
			zap.String("project_id", projectID),
			zap.Error(err),
		)
		return "", types.NewError(types.ErrIngestion, "media store registration failed").
			WithModel(result.ModelID).WithRetryable(true).WithCause(err)
	}

	if r.metrics != nil {
		r.metrics.RecordIngest(result.ModelID, string(kind), len(data))
	}
	r.logger.Info("asset registered",
		zap.String("model", result.ModelID),
		zap.String("asset_id", assetID),
		zap.Int("bytes", len(data)),
	)
	return assetID, nil
}

func (r *Reconciler) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("download asset: status=%d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read asset body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("asset body is empty")
	}
	return data, nil
}

func (r *Reconciler) recordFailure(modelID string) {
	if r.metrics != nil {
		r.metrics.RecordIngestFailure(modelID)
	}
}

// synthesizeName builds a stable, unique filename for the asset.
func synthesizeName(result *types.GenerationResult, kind mediastore.AssetKind) string {
	ext := path.Ext(strings.SplitN(path.Base(result.AssetURL), "?", 2)[0])
	if ext == "" {
		if kind == mediastore.KindImage {
			ext = ".png"
		} else {
			ext = ".mp4"
		}
	}
	return fmt.Sprintf("ai-%s-%s%s", result.ModelID, uuid.NewString()[:8], ext)
}
