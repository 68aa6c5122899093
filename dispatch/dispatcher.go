package dispatch

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/genflow/catalog"
	"github.com/BaSui01/genflow/internal/metrics"
	"github.com/BaSui01/genflow/providers"
	"github.com/BaSui01/genflow/types"
)

// Dispatcher builds and sends one generation request per model.
type Dispatcher struct {
	clients  map[string]providers.Client // keyed by provider name
	uploader providers.Uploader
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// New creates a dispatcher. uploader may be nil when no configured model
// requires hosted input; collector may be nil.
func New(clients map[string]providers.Client, uploader providers.Uploader, collector *metrics.Collector, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		clients:  clients,
		uploader: uploader,
		metrics:  collector,
		logger:   logger.With(zap.String("component", "dispatcher")),
	}
}

// ClientFor returns the provider client serving spec, or nil.
func (d *Dispatcher) ClientFor(spec *catalog.ModelSpec) providers.Client {
	return d.clients[spec.Provider]
}

// Submit performs one dispatch for spec under req and normalizes the
// provider answer. A nil error with Kind == OutcomeSkipped means this
// model could not run with the supplied inputs; a non-nil error is a
// per-model failure the caller records before moving on.
func (d *Dispatcher) Submit(ctx context.Context, spec *catalog.ModelSpec, req *types.GenerationRequest) (*Outcome, error) {
	capability, ok := capabilityFor(spec)
	if !ok {
		d.recordSkip(spec, "no endpoint for category")
		return skipped("model declares no endpoint for its category"), nil
	}

	if reason, ok := missingInput(spec, req); ok {
		d.recordSkip(spec, reason)
		d.logger.Info("model skipped",
			zap.String("model", spec.ID),
			zap.String("reason", reason),
		)
		return skipped(reason), nil
	}

	client := d.clients[spec.Provider]
	if client == nil {
		return nil, types.NewError(types.ErrProviderError, "no client configured for provider "+spec.Provider).
			WithModel(spec.ID).WithProvider(spec.Provider)
	}

	payload, err := d.buildPayload(ctx, spec, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := client.Submit(ctx, spec.EndpointFor(capability), payload)
	if err != nil {
		if d.metrics != nil {
			d.metrics.RecordSubmit(spec.Provider, spec.ID, "error", time.Since(start))
		}
		if terr, ok := err.(*types.Error); ok {
			return nil, terr.WithModel(spec.ID)
		}
		return nil, types.NewError(types.ErrProviderError, "submit failed").
			WithModel(spec.ID).WithProvider(spec.Provider).WithCause(err)
	}

	switch {
	case resp.Immediate():
		if d.metrics != nil {
			d.metrics.RecordSubmit(spec.Provider, spec.ID, "immediate", time.Since(start))
		}
		return immediate(&types.GenerationResult{
			ModelID:       spec.ID,
			AssetURL:      resp.AssetURL,
			SourcePrompt:  req.Prompt,
			ProviderJobID: resp.JobID,
			Duration:      resp.Duration,
		}), nil
	case resp.Async():
		if d.metrics != nil {
			d.metrics.RecordSubmit(spec.Provider, spec.ID, "async", time.Since(start))
		}
		return job(&types.JobHandle{
			ModelID:       spec.ID,
			ProviderJobID: resp.JobID,
			SubmittedAt:   time.Now(),
		}), nil
	default:
		// neither asset nor job id: malformed or empty provider response
		d.recordSkip(spec, "empty provider response")
		d.logger.Warn("provider response carried neither asset nor job id",
			zap.String("model", spec.ID),
			zap.String("provider", spec.Provider),
		)
		return skipped("provider response carried neither asset nor job id"), nil
	}
}

// capabilityFor selects the endpoint sub-capability the request exercises
// on this model.
func capabilityFor(spec *catalog.ModelSpec) (catalog.Capability, bool) {
	var c catalog.Capability
	switch spec.Category {
	case types.CategoryText:
		c = catalog.CapTextToVideo
	case types.CategoryImage:
		if spec.DualFrame() {
			c = catalog.CapFramePairToVideo
		} else {
			c = catalog.CapImageToVideo
		}
	case types.CategoryAvatar:
		c = catalog.CapAvatar
	case types.CategoryUpscale:
		c = catalog.CapUpscale
	default:
		return "", false
	}
	if spec.EndpointFor(c) == "" {
		return "", false
	}
	return c, true
}

// missingInput checks the model's declared input requirements against the
// request. It returns the human-readable skip reason for the first missing
// input.
func missingInput(spec *catalog.ModelSpec, req *types.GenerationRequest) (string, bool) {
	in := &req.Input
	for _, kind := range spec.RequiredInputs {
		switch kind {
		case catalog.InputPrompt:
			if strings.TrimSpace(req.Prompt) == "" {
				return "prompt is empty", true
			}
		case catalog.InputSourceImage:
			if in.SourceImage.Empty() {
				return "source image not attached", true
			}
		case catalog.InputFramePair:
			if in.FirstFrame.Empty() || in.LastFrame.Empty() {
				return "model needs both first and last frame", true
			}
		case catalog.InputCharacterImage:
			if in.CharacterImage.Empty() {
				return "character image not attached", true
			}
		case catalog.InputAudio:
			if in.Audio.Empty() {
				return "audio file not attached", true
			}
		case catalog.InputSourceVideo:
			if in.SourceVideo.Empty() && in.SourceVideoURL == "" {
				return "source video not attached", true
			}
		}
	}
	return "", false
}

// buildPayload merges model defaults, per-model overrides, the prompt, and
// the input references into the outbound payload. Inline files are hosted
// first when the provider requires URLs.
func (d *Dispatcher) buildPayload(ctx context.Context, spec *catalog.ModelSpec, req *types.GenerationRequest) (map[string]any, error) {
	payload := make(map[string]any, len(spec.Defaults)+8)
	for k, v := range spec.Defaults {
		payload[k] = v
	}
	for k, v := range req.Overrides[spec.ID] {
		payload[k] = v
	}
	if p := strings.TrimSpace(req.Prompt); p != "" {
		payload["prompt"] = p
	}

	refs := []struct {
		key  string
		file *types.FileRef
	}{
		{"image_url", req.Input.SourceImage},
		{"first_frame_url", req.Input.FirstFrame},
		{"last_frame_url", req.Input.LastFrame},
		{"character_image_url", req.Input.CharacterImage},
		{"audio_url", req.Input.Audio},
		{"video_url", req.Input.SourceVideo},
	}
	for _, ref := range refs {
		if ref.file.Empty() {
			continue
		}
		url, err := d.resolveURL(ctx, spec, ref.file)
		if err != nil {
			return nil, err
		}
		payload[ref.key] = url
	}
	if req.Input.SourceVideo.Empty() && req.Input.SourceVideoURL != "" {
		payload["video_url"] = req.Input.SourceVideoURL
	}
	return payload, nil
}

// resolveURL returns a dereferenceable URL for file, uploading inline
// bytes when the provider requires hosted input.
func (d *Dispatcher) resolveURL(ctx context.Context, spec *catalog.ModelSpec, file *types.FileRef) (string, error) {
	if file.URL != "" {
		return file.URL, nil
	}
	if !spec.RequiresHostedInput {
		// inline bytes travel as a data reference the provider accepts
		return dataURL(file.Data), nil
	}
	if d.uploader == nil {
		return "", types.NewError(types.ErrUploadFailed, "model requires hosted input but no uploader is configured").
			WithModel(spec.ID)
	}
	url, err := d.uploader.Upload(ctx, file.Name, file.Data)
	if err != nil {
		if terr, ok := err.(*types.Error); ok {
			return "", terr.WithModel(spec.ID)
		}
		return "", types.NewError(types.ErrUploadFailed, "upload for reference failed").
			WithModel(spec.ID).WithCause(err)
	}
	return url, nil
}

// dataURL inlines file bytes as a base64 data URI for providers that
// accept them directly.
func dataURL(data []byte) string {
	return "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(data)
}

func (d *Dispatcher) recordSkip(spec *catalog.ModelSpec, reason string) {
	if d.metrics != nil {
		d.metrics.RecordSkip(spec.ID, reason)
	}
}
