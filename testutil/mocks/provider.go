// Package mocks provides mock collaborators for GenFlow tests, with
// builder-style configuration and error injection.
package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/genflow/providers"
)

// SubmitCall records one Submit invocation.
type SubmitCall struct {
	Endpoint string
	Payload  map[string]any
}

// scripted is one pre-programmed Submit answer.
type scripted struct {
	resp *providers.SubmitResponse
	err  error
}

// statusStep is one pre-programmed QueryStatus answer.
type statusStep struct {
	resp *providers.StatusResponse
	err  error
}

// MockProvider is a providers.Client whose answers are scripted per call,
// in order. When the script runs out, the last entry repeats.
type MockProvider struct {
	mu sync.Mutex

	name        string
	submits     []scripted
	statuses    []statusStep
	submitCalls []SubmitCall
	statusCalls []string
}

// NewMockProvider creates a mock provider client named "mock".
func NewMockProvider() *MockProvider {
	return &MockProvider{name: "mock"}
}

// WithName overrides the provider name.
func (m *MockProvider) WithName(name string) *MockProvider {
	m.name = name
	return m
}

// WithSubmit appends a scripted Submit answer.
func (m *MockProvider) WithSubmit(resp *providers.SubmitResponse, err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submits = append(m.submits, scripted{resp: resp, err: err})
	return m
}

// WithImmediateAsset appends a Submit answer carrying a ready asset.
func (m *MockProvider) WithImmediateAsset(url string) *MockProvider {
	return m.WithSubmit(&providers.SubmitResponse{AssetURL: url}, nil)
}

// WithJob appends a Submit answer carrying only a job id.
func (m *MockProvider) WithJob(jobID string) *MockProvider {
	return m.WithSubmit(&providers.SubmitResponse{JobID: jobID}, nil)
}

// WithStatus appends a scripted QueryStatus answer. Safe to call while
// a poll loop is already drawing from the script.
func (m *MockProvider) WithStatus(resp *providers.StatusResponse, err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, statusStep{resp: resp, err: err})
	return m
}

// Name implements providers.Client.
func (m *MockProvider) Name() string { return m.name }

// Submit implements providers.Client.
func (m *MockProvider) Submit(_ context.Context, endpoint string, payload map[string]any) (*providers.SubmitResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.submitCalls = append(m.submitCalls, SubmitCall{Endpoint: endpoint, Payload: payload})
	if len(m.submits) == 0 {
		return &providers.SubmitResponse{}, nil
	}
	idx := len(m.submitCalls) - 1
	if idx >= len(m.submits) {
		idx = len(m.submits) - 1
	}
	s := m.submits[idx]
	return s.resp, s.err
}

// QueryStatus implements providers.Client.
func (m *MockProvider) QueryStatus(_ context.Context, jobID string) (*providers.StatusResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.statusCalls = append(m.statusCalls, jobID)
	if len(m.statuses) == 0 {
		return &providers.StatusResponse{Status: providers.StatusPending}, nil
	}
	idx := len(m.statusCalls) - 1
	if idx >= len(m.statuses) {
		idx = len(m.statuses) - 1
	}
	s := m.statuses[idx]
	return s.resp, s.err
}

// SubmitCalls returns a copy of the recorded Submit invocations.
func (m *MockProvider) SubmitCalls() []SubmitCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SubmitCall, len(m.submitCalls))
	copy(out, m.submitCalls)
	return out
}

// StatusCalls returns the job ids queried so far.
func (m *MockProvider) StatusCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.statusCalls))
	copy(out, m.statusCalls)
	return out
}
