package order_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/menu"
	"github.com/noah-isme/backend-pos/internal/order"
)

type orderResponse struct {
	Data struct {
		ID    string `json:"id"`
		Lines []struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			Price     string `json:"price"`
			TaxExempt bool   `json:"taxExempt"`
		} `json:"lines"`
	} `json:"data"`
}

func newOrderRouter(t *testing.T) http.Handler {
	t.Helper()
	menuSvc, err := menu.NewService(menu.ServiceConfig{Repo: menu.NewStaticRepository(menu.DefaultMenu()), Logger: zerolog.Nop()})
	require.NoError(t, err)
	svc, err := order.NewService(order.ServiceConfig{Store: order.NewMemoryStore(), Menu: menuSvc, Logger: zerolog.Nop()})
	require.NoError(t, err)
	r := chi.NewRouter()
	order.NewHandler(svc).Routes(r, nil)
	return r
}

func call(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, orderResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	var resp orderResponse
	if rec.Body.Len() > 0 && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestOrderHandlers(t *testing.T) {
	router := newOrderRouter(t)

	rec, created := call(t, router, http.MethodPost, "/orders", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	base := "/orders/" + created.Data.ID

	rec, withLine := call(t, router, http.MethodPost, base+"/lines", `{"itemId":"`+menu.ItemID("Pizza").String()+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, withLine.Data.Lines, 1)
	require.Equal(t, "Pizza", withLine.Data.Lines[0].Name)
	require.Equal(t, "12.99", withLine.Data.Lines[0].Price)

	lineID := withLine.Data.Lines[0].ID
	rec, toggled := call(t, router, http.MethodPost, base+"/lines/"+lineID+"/toggle-tax", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, toggled.Data.Lines[0].TaxExempt)

	rec, _ = call(t, router, http.MethodPost, base+"/lines", `{"itemId":"00000000-0000-0000-0000-000000000000"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = call(t, router, http.MethodPost, base+"/lines", `{"itemId":"`+menu.ItemID("Lobster").String()+`"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, removed := call(t, router, http.MethodDelete, base+"/lines/"+lineID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, removed.Data.Lines)

	rec, _ = call(t, router, http.MethodDelete, base, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = call(t, router, http.MethodGet, base, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = call(t, router, http.MethodGet, "/orders/nope", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
