package rules_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/rules"
)

type discountsResponse struct {
	Data []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Type     string `json:"type"`
		Value    string `json:"value"`
		Enabled  bool   `json:"enabled"`
		Position *int   `json:"position"`
	} `json:"data"`
}

func denyAll(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func newRulesRouter() http.Handler {
	svc := rules.NewService(rules.ServiceConfig{Registry: rules.DefaultRegistry(), Logger: zerolog.Nop()})
	r := chi.NewRouter()
	rules.NewHandler(svc).Routes(r, denyAll)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string, staff bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if staff {
		req.Header.Set("Authorization", "Bearer test")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRulesHandlers(t *testing.T) {
	router := newRulesRouter()

	t.Run("list taxes", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/taxes", "", false)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"name":"Service Tax"`)
		require.Contains(t, rec.Body.String(), `"rate":"10"`)
	})

	t.Run("writes require staff", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/discounts/"+rules.CouponID.String()+"/toggle", "", false)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("toggle and reorder", func(t *testing.T) {
		require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/discounts/"+rules.CouponID.String()+"/toggle", "", true).Code)
		require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/discounts/"+rules.HappyHourID.String()+"/toggle", "", true).Code)

		body := `{"ids":["` + rules.HappyHourID.String() + `","` + rules.CouponID.String() + `"]}`
		rec := do(t, router, http.MethodPut, "/discounts/applied", body, true)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = do(t, router, http.MethodGet, "/discounts/applied", "", false)
		var resp discountsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 2)
		require.Equal(t, "Happy Hour", resp.Data[0].Name)
		require.Equal(t, 0, *resp.Data[0].Position)
		require.Equal(t, "Coupon", resp.Data[1].Name)
	})

	t.Run("create tax validates", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/taxes", `{"name":"","rate":"5"}`, true)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "VALIDATION_FAILED")

		rec = do(t, router, http.MethodPost, "/taxes", `{"name":"Snack Tax","rate":"5","categories":["Snacks"]}`, true)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		rec = do(t, router, http.MethodPost, "/taxes", `{"name":"Dessert Tax","rate":"2.5","categories":["dessert"]}`, true)
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Contains(t, rec.Body.String(), `"categories":["Dessert"]`)
	})

	t.Run("create and delete discount", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/discounts", `{"name":"Staff","type":"amount","value":"3.50"}`, true)
		require.Equal(t, http.StatusCreated, rec.Code)
		var created struct {
			Data struct {
				ID      string `json:"id"`
				Enabled bool   `json:"enabled"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		require.False(t, created.Data.Enabled)

		require.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, "/discounts/"+created.Data.ID, "", true).Code)
		require.Equal(t, http.StatusNotFound, do(t, router, http.MethodDelete, "/discounts/"+created.Data.ID, "", true).Code)
	})

	t.Run("bad discount type", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/discounts", `{"name":"BOGO","type":"bogo","value":"1"}`, true)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
