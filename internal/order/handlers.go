package order

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-pos/internal/common"
)

type addLineRequest struct {
	ItemID uuid.UUID `json:"itemId" validate:"required"`
}

// Handler exposes order ticket endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the order endpoints. Mutating routes are wrapped with idem when set.
func (h *Handler) Routes(r chi.Router, idem func(http.Handler) http.Handler) {
	r.Get("/orders/{id}", h.Get)
	r.Group(func(r chi.Router) {
		if idem != nil {
			r.Use(idem)
		}
		r.Post("/orders", h.Create)
		r.Delete("/orders/{id}", h.Delete)
		r.Post("/orders/{id}/lines", h.AddLine)
		r.Delete("/orders/{id}/lines/{lineId}", h.RemoveLine)
		r.Post("/orders/{id}/lines/{lineId}/toggle-tax", h.ToggleTaxExempt)
	})
}

// Create handles POST /api/v1/orders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Create(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": o})
}

// Get handles GET /api/v1/orders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	o, err := h.service.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

// Delete handles DELETE /api/v1/orders/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddLine handles POST /api/v1/orders/{id}/lines.
func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req addLineRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	o, err := h.service.AddItem(r.Context(), id, req.ItemID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": o})
}

// RemoveLine handles DELETE /api/v1/orders/{id}/lines/{lineId}.
func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	lineID, ok := pathID(w, r, "lineId")
	if !ok {
		return
	}
	o, err := h.service.RemoveLine(r.Context(), id, lineID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

// ToggleTaxExempt handles POST /api/v1/orders/{id}/lines/{lineId}/toggle-tax.
func (h *Handler) ToggleTaxExempt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	lineID, ok := pathID(w, r, "lineId")
	if !ok {
		return
	}
	o, err := h.service.ToggleTaxExempt(r.Context(), id, lineID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		common.WriteError(w, common.BadRequest("invalid "+param, err))
		return uuid.Nil, false
	}
	return id, true
}
