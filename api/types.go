package api

import (
	"github.com/BaSui01/genflow/catalog"
	"github.com/BaSui01/genflow/orchestrate"
	"github.com/BaSui01/genflow/types"
)

// GenerateRequest starts a generation batch. It mirrors
// types.GenerationRequest; inline file payloads arrive base64-encoded in
// the standard JSON []byte form.
type GenerateRequest = types.GenerationRequest

// GenerateStartResponse acknowledges an accepted batch.
type GenerateStartResponse struct {
	Accepted bool   `json:"accepted"`
	Models   int    `json:"models"`
	Project  string `json:"project_id"`
}

// StateResponse is the orchestrator state snapshot.
type StateResponse = orchestrate.State

// EstimateRequest asks for cost estimates before generating.
type EstimateRequest struct {
	// ModelIDs selects the models to estimate; empty means every model
	// in the catalog.
	ModelIDs []string       `json:"model_ids,omitempty"`
	Params   EstimateParams `json:"params"`
}

// EstimateParams carries the user's generation parameters.
type EstimateParams struct {
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	Width           int     `json:"width,omitempty"`
	Height          int     `json:"height,omitempty"`
	FPS             int     `json:"fps,omitempty"`
	Resolution      string  `json:"resolution,omitempty"`
	UpscaleFactor   float64 `json:"upscale_factor,omitempty"`
	FrameCount      int     `json:"frame_count,omitempty"`
}

// EstimateResponse lists per-model cost estimates.
type EstimateResponse struct {
	Estimates []ModelEstimate `json:"estimates"`
}

// ModelEstimate is one model's dollar estimate.
type ModelEstimate struct {
	ModelID       string  `json:"model_id"`
	Provider      string  `json:"provider"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// ModelListResponse lists the selectable models.
type ModelListResponse struct {
	Models []catalog.ModelSpec `json:"models"`
	Count  int                 `json:"count"`
}
