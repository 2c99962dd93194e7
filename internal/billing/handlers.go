package billing

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/bill"
	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/present"
)

// LineView is one itemized rule contribution.
type LineView struct {
	RuleID uuid.UUID       `json:"ruleId"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// BillView is the JSON shape of a bill. Amounts are exact decimal strings; Display
// holds the rounded, formatted labels.
type BillView struct {
	Subtotal          decimal.Decimal               `json:"subtotal"`
	TaxTotal          decimal.Decimal               `json:"taxTotal"`
	DiscountTotal     decimal.Decimal               `json:"discountTotal"`
	GrandTotal        decimal.Decimal               `json:"grandTotal"`
	ItemizedTaxes     map[uuid.UUID]decimal.Decimal `json:"itemizedTaxes"`
	ItemizedDiscounts map[uuid.UUID]decimal.Decimal `json:"itemizedDiscounts"`
	Taxes             []LineView                    `json:"taxes"`
	Discounts         []LineView                    `json:"discounts"`
	Display           present.Labels                `json:"display"`
}

// NewBillView renders b with the formatter f.
func NewBillView(b bill.Bill, f present.Formatter) BillView {
	return BillView{
		Subtotal:          b.Subtotal,
		TaxTotal:          b.TaxTotal,
		DiscountTotal:     b.DiscountTotal,
		GrandTotal:        b.GrandTotal,
		ItemizedTaxes:     b.ItemizedTaxes,
		ItemizedDiscounts: b.ItemizedDiscounts,
		Taxes:             lineViews(b.Taxes),
		Discounts:         lineViews(b.Discounts),
		Display:           f.Summary(b),
	}
}

func lineViews(lines []bill.Line) []LineView {
	out := make([]LineView, len(lines))
	for i, l := range lines {
		out[i] = LineView{RuleID: l.RuleID, Name: l.Name, Amount: l.Amount}
	}
	return out
}

// Handler exposes the quote endpoints.
type Handler struct {
	service   *Service
	formatter present.Formatter
}

// NewHandler constructs a Handler.
func NewHandler(service *Service, formatter present.Formatter) *Handler {
	return &Handler{service: service, formatter: formatter}
}

// Routes mounts the billing endpoints behind limit when set.
func (h *Handler) Routes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		if limit != nil {
			r.Use(limit)
		}
		r.Post("/bills/quote", h.Quote)
		r.Get("/orders/{id}/bill", h.OrderBill)
	})
}

// Quote handles POST /api/v1/bills/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	b, err := h.service.Quote(r.Context(), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": NewBillView(b, h.formatter)})
}

// OrderBill handles GET /api/v1/orders/{id}/bill.
func (h *Handler) OrderBill(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, common.BadRequest("invalid order id", err))
		return
	}
	b, err := h.service.QuoteOrder(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": NewBillView(b, h.formatter)})
}
