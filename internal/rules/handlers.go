package rules

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/bill"
	"github.com/noah-isme/backend-pos/internal/common"
)

// TaxView is the JSON shape of a tax rule.
type TaxView struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Rate       decimal.Decimal `json:"rate"`
	Enabled    bool            `json:"enabled"`
	Categories []bill.Category `json:"categories"`
}

// DiscountView is the JSON shape of a discount rule. Position is set for applied discounts.
type DiscountView struct {
	ID       uuid.UUID         `json:"id"`
	Name     string            `json:"name"`
	Type     bill.DiscountType `json:"type"`
	Value    decimal.Decimal   `json:"value"`
	Enabled  bool              `json:"enabled"`
	Position *int              `json:"position,omitempty"`
}

// NewTaxView converts a tax rule for rendering.
func NewTaxView(t bill.TaxRule) TaxView {
	cats := t.Categories
	if cats == nil {
		cats = []bill.Category{}
	}
	return TaxView{ID: t.ID, Name: t.Name, Rate: t.Rate, Enabled: t.Enabled, Categories: cats}
}

// NewDiscountView converts a discount rule for rendering.
func NewDiscountView(d bill.DiscountRule) DiscountView {
	return DiscountView{ID: d.ID, Name: d.Name, Type: d.Kind.Type, Value: d.Kind.Value, Enabled: d.Enabled}
}

type createTaxRequest struct {
	Name       string          `json:"name" validate:"required,max=80"`
	Rate       decimal.Decimal `json:"rate"`
	Categories []string        `json:"categories" validate:"max=6,dive,required"`
	Enabled    *bool           `json:"enabled"`
}

type createDiscountRequest struct {
	Name  string          `json:"name" validate:"required,max=80"`
	Type  string          `json:"type" validate:"required,oneof=percentage amount"`
	Value decimal.Decimal `json:"value"`
}

type reorderRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

// Handler exposes rule management endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the rule endpoints. Mutating routes go through guard.
func (h *Handler) Routes(r chi.Router, guard func(http.Handler) http.Handler) {
	r.Get("/taxes", h.ListTaxes)
	r.Get("/discounts", h.ListDiscounts)
	r.Get("/discounts/applied", h.ListApplied)

	r.Group(func(r chi.Router) {
		if guard != nil {
			r.Use(guard)
		}
		r.Post("/taxes", h.CreateTax)
		r.Delete("/taxes/{id}", h.DeleteTax)
		r.Post("/taxes/{id}/toggle", h.ToggleTax)
		r.Post("/discounts", h.CreateDiscount)
		r.Put("/discounts/applied", h.ReorderApplied)
		r.Delete("/discounts/{id}", h.DeleteDiscount)
		r.Post("/discounts/{id}/toggle", h.ToggleDiscount)
	})
}

// ListTaxes handles GET /api/v1/taxes.
func (h *Handler) ListTaxes(w http.ResponseWriter, r *http.Request) {
	taxes := h.service.Taxes()
	out := make([]TaxView, len(taxes))
	for i, t := range taxes {
		out[i] = NewTaxView(t)
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// ListDiscounts handles GET /api/v1/discounts.
func (h *Handler) ListDiscounts(w http.ResponseWriter, r *http.Request) {
	discounts := h.service.Discounts()
	out := make([]DiscountView, len(discounts))
	for i, d := range discounts {
		out[i] = NewDiscountView(d)
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// ListApplied handles GET /api/v1/discounts/applied.
func (h *Handler) ListApplied(w http.ResponseWriter, r *http.Request) {
	common.JSON(w, http.StatusOK, map[string]any{"data": appliedViews(h.service.Applied())})
}

// CreateTax handles POST /api/v1/taxes.
func (h *Handler) CreateTax(w http.ResponseWriter, r *http.Request) {
	var req createTaxRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	categories := make([]bill.Category, 0, len(req.Categories))
	for _, raw := range req.Categories {
		c, err := bill.ParseCategory(raw)
		if err != nil {
			common.WriteError(w, common.NewAppError("INVALID_RULE", err.Error(), http.StatusBadRequest, err))
			return
		}
		categories = append(categories, c)
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	tax, err := h.service.CreateTax(r.Context(), req.Name, req.Rate, categories, enabled)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": NewTaxView(tax)})
}

// CreateDiscount handles POST /api/v1/discounts.
func (h *Handler) CreateDiscount(w http.ResponseWriter, r *http.Request) {
	var req createDiscountRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	discount, err := h.service.CreateDiscount(r.Context(), req.Name, bill.DiscountType(req.Type), req.Value)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": NewDiscountView(discount)})
}

// DeleteTax handles DELETE /api/v1/taxes/{id}.
func (h *Handler) DeleteTax(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteTax(r.Context(), id); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteDiscount handles DELETE /api/v1/discounts/{id}.
func (h *Handler) DeleteDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteDiscount(r.Context(), id); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleTax handles POST /api/v1/taxes/{id}/toggle.
func (h *Handler) ToggleTax(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleID(w, r)
	if !ok {
		return
	}
	tax, err := h.service.ToggleTax(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": NewTaxView(tax)})
}

// ToggleDiscount handles POST /api/v1/discounts/{id}/toggle.
func (h *Handler) ToggleDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleID(w, r)
	if !ok {
		return
	}
	discount, err := h.service.ToggleDiscount(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":    NewDiscountView(discount),
		"applied": appliedViews(h.service.Applied()),
	})
}

// ReorderApplied handles PUT /api/v1/discounts/applied.
func (h *Handler) ReorderApplied(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	applied, err := h.service.ReorderApplied(r.Context(), req.IDs)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": appliedViews(applied)})
}

func appliedViews(applied []bill.DiscountRule) []DiscountView {
	out := make([]DiscountView, len(applied))
	for i, d := range applied {
		pos := i
		out[i] = NewDiscountView(d)
		out[i].Position = &pos
	}
	return out
}

func ruleID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, common.BadRequest("invalid rule id", err))
		return uuid.Nil, false
	}
	return id, true
}
