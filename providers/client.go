package providers

import "context"

// JobStatus is the normalized lifecycle state of an asynchronous job.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status ends the job's lifecycle.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// SubmitResponse is the normalized result of one generation submit.
// A provider may answer with a job id, a ready asset URL, or both.
type SubmitResponse struct {
	JobID    string  `json:"job_id,omitempty"`
	AssetURL string  `json:"asset_url,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// Immediate reports whether the response already carries a ready asset.
func (r *SubmitResponse) Immediate() bool {
	return r != nil && r.AssetURL != ""
}

// Async reports whether the response carries only a job to be polled.
func (r *SubmitResponse) Async() bool {
	return r != nil && r.AssetURL == "" && r.JobID != ""
}

// StatusResponse is the normalized result of one status query.
type StatusResponse struct {
	Status   JobStatus `json:"status"`
	Progress float64   `json:"progress,omitempty"` // 0–100, provider-reported
	AssetURL string    `json:"asset_url,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Client is the outbound contract every provider implementation satisfies.
type Client interface {
	// Submit sends one generation request to the given endpoint.
	Submit(ctx context.Context, endpoint string, payload map[string]any) (*SubmitResponse, error)

	// QueryStatus fetches the current state of an asynchronous job.
	QueryStatus(ctx context.Context, jobID string) (*StatusResponse, error)

	// Name returns the provider name for logging and error attribution.
	Name() string
}

// Uploader turns inline file bytes into a dereferenceable hosted URL.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}
