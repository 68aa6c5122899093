package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/genflow/api"
	"github.com/BaSui01/genflow/catalog"
	"github.com/BaSui01/genflow/pricing"
	"github.com/BaSui01/genflow/types"
)

// CatalogSource returns the current model catalog. A function rather
// than a fixed pointer, so handlers pick up hot-reloaded catalogs.
type CatalogSource func() *catalog.Catalog

// EstimateHandler serves pre-generation cost estimates.
type EstimateHandler struct {
	catalog CatalogSource
	logger  *zap.Logger
}

// NewEstimateHandler creates the estimate handler.
func NewEstimateHandler(source CatalogSource, logger *zap.Logger) *EstimateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EstimateHandler{
		catalog: source,
		logger:  logger.With(zap.String("handler", "estimate")),
	}
}

// HandleEstimate accepts POST /v1/estimates. An empty model list
// estimates every cataloged model; an unknown explicit id answers 404.
func (h *EstimateHandler) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.EstimateRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	cat := h.catalog()
	ids := req.ModelIDs
	if len(ids) == 0 {
		ids = cat.IDs()
	}

	params := pricing.Params{
		DurationSeconds: req.Params.DurationSeconds,
		Width:           req.Params.Width,
		Height:          req.Params.Height,
		FPS:             req.Params.FPS,
		Resolution:      req.Params.Resolution,
		UpscaleFactor:   req.Params.UpscaleFactor,
		FrameCount:      req.Params.FrameCount,
	}

	estimates := make([]api.ModelEstimate, 0, len(ids))
	for _, id := range ids {
		spec, err := cat.Lookup(id)
		if err != nil {
			WriteError(w, err, h.logger)
			return
		}
		estimates = append(estimates, api.ModelEstimate{
			ModelID:       spec.ID,
			Provider:      spec.Provider,
			EstimatedCost: pricing.Estimate(spec, params),
		})
	}

	WriteSuccess(w, api.EstimateResponse{Estimates: estimates})
}
