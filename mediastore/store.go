// Copyright (c) GenFlow Authors.
// Licensed under the MIT License.

// Package mediastore defines the project media-library boundary the
// reconciler registers finished assets with. The store itself lives
// outside the engine; Memory is the reference implementation used by
// tests and the demo server.
package mediastore

import (
	"context"

	"github.com/BaSui01/genflow/types"
)

// AssetKind classifies a stored asset.
type AssetKind string

const (
	KindVideo AssetKind = "video"
	KindImage AssetKind = "image"
)

// Asset is one entry registered into a project's media library.
type Asset struct {
	Name     string    `json:"name"`
	Kind     AssetKind `json:"kind"`
	Bytes    []byte    `json:"-"`
	URL      string    `json:"url,omitempty"`
	Duration float64   `json:"duration,omitempty"`
	Width    int       `json:"width,omitempty"`
	Height   int       `json:"height,omitempty"`
}

// Store is the media-library contract. AddAsset may fail with a
// STORE_UNAVAILABLE error, which callers surface as a warning rather
// than a batch failure.
type Store interface {
	AddAsset(ctx context.Context, projectID string, asset Asset) (string, error)
}

// Unavailable builds the standard store-unavailable error.
func Unavailable(cause error) *types.Error {
	return types.NewError(types.ErrStoreUnavailable, "media store unavailable").
		WithRetryable(true).WithCause(cause)
}
