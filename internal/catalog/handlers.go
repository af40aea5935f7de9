package catalog

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-quote/internal/common"
)

// Handler exposes catalog endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

// Items handles GET /api/v1/catalog/items.
func (h *Handler) Items(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	cat, rev := h.service.Current()
	items := cat.Items()
	if items == nil {
		items = []Item{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items, "revision": rev})
}

// Item handles GET /api/v1/catalog/items/{id}.
func (h *Handler) Item(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	item, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "catalog item not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

// Diagnostics handles GET /api/v1/catalog/diagnostics.
func (h *Handler) Diagnostics(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	issues := h.service.Diagnostics()
	common.JSON(w, http.StatusOK, map[string]any{"data": issues})
}

// Reload handles POST /api/v1/catalog/reload.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	cat, err := h.service.Reload(r.Context(), true)
	if err != nil {
		common.JSONError(w, http.StatusBadGateway, "CATALOG_UNAVAILABLE", "unable to reload catalog", map[string]any{"error": err.Error()})
		return
	}
	_, rev := h.service.Current()
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"items": cat.Len(), "revision": rev}})
}
