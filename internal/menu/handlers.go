package menu

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-pos/internal/common"
)

// Handler exposes the public menu endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the menu endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/menu", h.Sections)
	r.Get("/menu/items/{id}", h.Item)
}

// Sections handles GET /api/v1/menu.
func (h *Handler) Sections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.service.Sections(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": sections})
}

// Item handles GET /api/v1/menu/items/{id}.
func (h *Handler) Item(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, common.BadRequest("invalid item id", err))
		return
	}
	item, err := h.service.Item(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}
