package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/BaSui01/genflow/mediastore"
)

// MockStore is a mediastore.Store with optional error injection.
type MockStore struct {
	mu     sync.Mutex
	err    error
	assets []mediastore.Asset
	seq    int
}

// NewMockStore creates a mock media store.
func NewMockStore() *MockStore { return &MockStore{} }

// WithError makes every AddAsset fail with err.
func (m *MockStore) WithError(err error) *MockStore {
	m.err = err
	return m
}

// AddAsset implements mediastore.Store.
func (m *MockStore) AddAsset(_ context.Context, _ string, asset mediastore.Asset) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return "", m.err
	}
	m.seq++
	m.assets = append(m.assets, asset)
	return fmt.Sprintf("asset-%d", m.seq), nil
}

// Assets returns the registered assets in order.
func (m *MockStore) Assets() []mediastore.Asset {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mediastore.Asset, len(m.assets))
	copy(out, m.assets)
	return out
}

// Count returns the number of registrations.
func (m *MockStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.assets)
}
