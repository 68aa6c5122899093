package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/genflow/api"
	"github.com/BaSui01/genflow/orchestrate"
	"github.com/BaSui01/genflow/types"
)

// GenerateHandler exposes the orchestrator over HTTP.
type GenerateHandler struct {
	orc    *orchestrate.Orchestrator
	logger *zap.Logger
}

// NewGenerateHandler creates the generation handler.
func NewGenerateHandler(orc *orchestrate.Orchestrator, logger *zap.Logger) *GenerateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerateHandler{
		orc:    orc,
		logger: logger.With(zap.String("handler", "generate")),
	}
}

// HandleStart accepts POST /v1/generations. A busy orchestrator answers
// 409; validation failures answer 400. The batch itself runs after the
// response is written.
func (h *GenerateHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.GenerateRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	if err := h.orc.Start(r.Context(), &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	h.logger.Info("generation accepted",
		zap.String("project_id", req.ProjectID),
		zap.Int("models", len(req.ModelIDs)),
	)
	WriteSuccess(w, api.GenerateStartResponse{
		Accepted: true,
		Models:   len(req.ModelIDs),
		Project:  req.ProjectID,
	})
}

// HandleState answers GET /v1/generations/state with a state snapshot.
func (h *GenerateHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}
	WriteSuccess(w, h.orc.Snapshot())
}

// HandleReset answers POST /v1/generations/reset. Reset is idempotent, so
// the answer is 200 whether or not a run was active.
func (h *GenerateHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}
	h.orc.Reset()
	WriteSuccess(w, map[string]any{"reset": true})
}
