package types

import (
	"strings"
	"time"
)

// Category classifies a generation model by the kind of input it consumes.
type Category string

const (
	CategoryText    Category = "text"
	CategoryImage   Category = "image"
	CategoryAvatar  Category = "avatar"
	CategoryUpscale Category = "upscale"
)

// Valid reports whether the category is one of the known values.
func (c Category) Valid() bool {
	switch c {
	case CategoryText, CategoryImage, CategoryAvatar, CategoryUpscale:
		return true
	}
	return false
}

// FileRef is an already-validated input file attached to a request.
// Validation of size/type constraints happens upstream in the upload UI;
// the engine only checks presence.
type FileRef struct {
	Name string `json:"name"`
	Data []byte `json:"-"`
	URL  string `json:"url,omitempty"` // set when the file is already hosted
}

// Empty reports whether the ref carries neither bytes nor a hosted URL.
func (f *FileRef) Empty() bool {
	return f == nil || (len(f.Data) == 0 && f.URL == "")
}

// InputPayload is the per-category input attached to a GenerationRequest.
// Which fields are required depends on the model being dispatched, not on
// the request as a whole: a dual-frame model needs both frames while a
// single-image model in the same batch needs only SourceImage.
type InputPayload struct {
	SourceImage    *FileRef `json:"source_image,omitempty"`
	FirstFrame     *FileRef `json:"first_frame,omitempty"`
	LastFrame      *FileRef `json:"last_frame,omitempty"`
	CharacterImage *FileRef `json:"character_image,omitempty"`
	Audio          *FileRef `json:"audio,omitempty"`
	SourceVideo    *FileRef `json:"source_video,omitempty"`
	SourceVideoURL string   `json:"source_video_url,omitempty"`
}

// GenerationRequest is one user-submitted batch across the selected models.
// It must not be mutated once dispatch begins.
type GenerationRequest struct {
	ProjectID string                    `json:"project_id"`
	Category  Category                  `json:"category"`
	Prompt    string                    `json:"prompt"`
	ModelIDs  []string                  `json:"model_ids"`
	Input     InputPayload              `json:"input"`
	Overrides map[string]map[string]any `json:"overrides,omitempty"` // modelID → option overrides
}

// Validate performs the static checks a request must pass before any model
// is dispatched. Per-model input requirements are checked later, per model.
func (r *GenerationRequest) Validate() *Error {
	if !r.Category.Valid() {
		return NewError(ErrInvalidRequest, "unknown category: "+string(r.Category))
	}
	if len(r.ModelIDs) == 0 {
		return NewError(ErrInvalidRequest, "no models selected")
	}
	if r.Category == CategoryText && strings.TrimSpace(r.Prompt) == "" {
		return NewError(ErrInvalidRequest, "prompt required for text generation")
	}
	return nil
}

// JobHandle identifies an asynchronous provider job awaiting polling.
// Created by the dispatcher on a non-immediate response and destroyed when
// the poller resolves it.
type JobHandle struct {
	ModelID       string    `json:"model_id"`
	ProviderJobID string    `json:"provider_job_id"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// GenerationResult is one finished asset. Immutable after creation.
type GenerationResult struct {
	ModelID       string  `json:"model_id"`
	AssetURL      string  `json:"asset_url"`
	SourcePrompt  string  `json:"source_prompt"`
	ProviderJobID string  `json:"provider_job_id,omitempty"`
	Duration      float64 `json:"duration,omitempty"`
	FileSize      int64   `json:"file_size,omitempty"`
}

// ModelError records a per-model failure or skip inside a batch.
type ModelError struct {
	ModelID string    `json:"model_id"`
	Code    ErrorCode `json:"code"`
	Reason  string    `json:"reason"`
}

// Skipped reports whether the entry records a validation skip rather than a
// provider failure.
func (m ModelError) Skipped() bool {
	return m.Code == ErrValidationSkip
}
