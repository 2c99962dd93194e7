package billing_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/billing"
	"github.com/noah-isme/backend-pos/internal/menu"
	"github.com/noah-isme/backend-pos/internal/order"
	"github.com/noah-isme/backend-pos/internal/present"
	"github.com/noah-isme/backend-pos/internal/rules"
)

type quoteResponse struct {
	Data struct {
		Subtotal      string            `json:"subtotal"`
		TaxTotal      string            `json:"taxTotal"`
		DiscountTotal string            `json:"discountTotal"`
		GrandTotal    string            `json:"grandTotal"`
		ItemizedTaxes map[string]string `json:"itemizedTaxes"`
		Discounts     []struct {
			Name   string `json:"name"`
			Amount string `json:"amount"`
		} `json:"discounts"`
		Display present.Labels `json:"display"`
	} `json:"data"`
}

func newBillingRouter(t *testing.T) http.Handler {
	t.Helper()
	menuSvc, err := menu.NewService(menu.ServiceConfig{Repo: menu.NewStaticRepository(menu.DefaultMenu()), Logger: zerolog.Nop()})
	require.NoError(t, err)
	orders, err := order.NewService(order.ServiceConfig{Store: order.NewMemoryStore(), Menu: menuSvc, Logger: zerolog.Nop()})
	require.NoError(t, err)
	svc, err := billing.NewService(billing.ServiceConfig{Menu: menuSvc, Orders: orders, Rules: rules.DefaultRegistry(), Logger: zerolog.Nop()})
	require.NoError(t, err)

	r := chi.NewRouter()
	billing.NewHandler(svc, present.USD).Routes(r, nil)
	order.NewHandler(orders).Routes(r, nil)
	return r
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return rec
}

func TestQuoteHandlerReturnsExactDecimals(t *testing.T) {
	router := newBillingRouter(t)
	body := `{
		"items": [{"name": "Steak", "price": "10.00", "category": "Main"}],
		"taxes": [{"id": "2f1d0c7e-8d61-4a39-9a55-0b5d4f3f6a01", "name": "Sales", "rate": "8.0"}],
		"discounts": []
	}`
	rec := post(t, router, "/bills/quote", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp quoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "10", resp.Data.Subtotal)
	require.Equal(t, "0.8", resp.Data.TaxTotal)
	require.Equal(t, "10.8", resp.Data.GrandTotal)
	require.Equal(t, "0.8", resp.Data.ItemizedTaxes["2f1d0c7e-8d61-4a39-9a55-0b5d4f3f6a01"])
	require.Equal(t, "$10.80", resp.Data.Display.Total)
	require.Equal(t, "USD", resp.Data.Display.Currency)
}

func TestQuoteHandlerDiscountOrder(t *testing.T) {
	router := newBillingRouter(t)
	items := `"items": [{"name": "Platter", "price": "100.00", "category": "Appetizer"}], "taxes": []`

	rec := post(t, router, "/bills/quote", `{`+items+`, "discounts": [
		{"name": "Ten", "type": "percentage", "value": "10"},
		{"name": "Twenty", "type": "amount", "value": "20.00"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var first quoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	require.Equal(t, "70", first.Data.GrandTotal)

	rec = post(t, router, "/bills/quote", `{`+items+`, "discounts": [
		{"name": "Twenty", "type": "amount", "value": "20.00"},
		{"name": "Ten", "type": "percentage", "value": "10"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var reversed quoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reversed))
	require.Equal(t, "72", reversed.Data.GrandTotal)
	require.Equal(t, "8", reversed.Data.Discounts[1].Amount)
	require.Equal(t, "-$8.00", reversed.Data.Display.Discounts[1].Amount)
}

func TestQuoteHandlerValidation(t *testing.T) {
	router := newBillingRouter(t)

	rec := post(t, router, "/bills/quote", `{"items":[{"price":"1","category":"Main"}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "VALIDATION_FAILED")

	rec = post(t, router, "/bills/quote", `{"discounts":[{"name":"x","type":"bogo","value":"1"}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(t, router, "/bills/quote", `{"items":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderBillEndpoint(t *testing.T) {
	router := newBillingRouter(t)

	rec := post(t, router, "/orders", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = post(t, router, "/orders/"+created.Data.ID+"/lines", `{"itemId":"`+menu.ItemID("Beer").String()+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/"+created.Data.ID+"/bill", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp quoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "5", resp.Data.Subtotal)
	require.Equal(t, "0.75", resp.Data.TaxTotal)
	require.Equal(t, "5.75", resp.Data.GrandTotal)
	require.Len(t, resp.Data.ItemizedTaxes, 3)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/4b0c1c9e-0000-4000-8000-000000000000/bill", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
