package mediastore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Memory is an in-memory Store keyed by project id. Safe for concurrent
// use.
type Memory struct {
	mu     sync.RWMutex
	assets map[string]map[string]Asset // projectID → assetID → asset
	logger *zap.Logger
}

// NewMemory creates an empty in-memory store.
func NewMemory(logger *zap.Logger) *Memory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Memory{
		assets: make(map[string]map[string]Asset),
		logger: logger.With(zap.String("component", "mediastore")),
	}
}

// AddAsset registers an asset under projectID and returns its id.
func (m *Memory) AddAsset(_ context.Context, projectID string, asset Asset) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	if m.assets[projectID] == nil {
		m.assets[projectID] = make(map[string]Asset)
	}
	m.assets[projectID][id] = asset

	m.logger.Debug("asset registered",
		zap.String("project_id", projectID),
		zap.String("asset_id", id),
		zap.String("name", asset.Name),
		zap.Int("bytes", len(asset.Bytes)),
	)
	return id, nil
}

// Get returns a registered asset.
func (m *Memory) Get(projectID, assetID string) (Asset, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assets[projectID][assetID]
	return a, ok
}

// Count returns the number of assets registered under projectID.
func (m *Memory) Count(projectID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.assets[projectID])
}
