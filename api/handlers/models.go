package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/genflow/api"
	"github.com/BaSui01/genflow/catalog"
	"github.com/BaSui01/genflow/types"
)

// ModelsHandler serves the model catalog.
type ModelsHandler struct {
	catalog CatalogSource
	logger  *zap.Logger
}

// NewModelsHandler creates the catalog handler.
func NewModelsHandler(source CatalogSource, logger *zap.Logger) *ModelsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelsHandler{
		catalog: source,
		logger:  logger.With(zap.String("handler", "models")),
	}
}

// HandleList answers GET /v1/models, optionally filtered by ?category=.
func (h *ModelsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}

	cat := h.catalog()

	var specs []*catalog.ModelSpec
	if raw := r.URL.Query().Get("category"); raw != "" {
		category := types.Category(raw)
		if !category.Valid() {
			WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
				"unknown category: "+raw, h.logger)
			return
		}
		specs = cat.ByCategory(category)
	} else {
		for _, id := range cat.IDs() {
			specs = append(specs, cat.Get(id))
		}
	}

	models := make([]catalog.ModelSpec, 0, len(specs))
	for _, s := range specs {
		models = append(models, *s)
	}

	WriteSuccess(w, api.ModelListResponse{Models: models, Count: len(models)})
}
