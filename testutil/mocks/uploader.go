package mocks

import (
	"context"
	"fmt"
	"sync"
)

// MockUploader is a providers.Uploader that mints deterministic hosted
// URLs and records every upload.
type MockUploader struct {
	mu      sync.Mutex
	err     error
	uploads []string // file names in upload order
}

// NewMockUploader creates a mock uploader.
func NewMockUploader() *MockUploader { return &MockUploader{} }

// WithError makes every Upload fail with err.
func (m *MockUploader) WithError(err error) *MockUploader {
	m.err = err
	return m
}

// Upload implements providers.Uploader.
func (m *MockUploader) Upload(_ context.Context, name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return "", m.err
	}
	m.uploads = append(m.uploads, name)
	return fmt.Sprintf("https://uploads.test/%d/%s", len(m.uploads), name), nil
}

// Uploads returns the uploaded file names in order.
func (m *MockUploader) Uploads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.uploads))
	copy(out, m.uploads)
	return out
}
