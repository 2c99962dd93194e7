package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTokenRouter(t *testing.T, h *Handler) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	h.Routes(r, nil)
	return r
}

func TestTokenEndpointIssuesVerifiableToken(t *testing.T) {
	book, err := ParsePinBook("mgr-1:manager:" + cheapPinHash(t, "4821"))
	require.NoError(t, err)
	verifier := newTestVerifier(t, time.Now())
	router := newTokenRouter(t, &Handler{Pins: book, Verifier: verifier, TTL: time.Hour, Logger: zerolog.Nop()})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"staffId":"mgr-1","pin":"4821"}`)))
	require.Equal(t, http.StatusOK, rr.Code)

	var body tokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, RoleManager, body.Role)

	staff, err := verifier.Verify(body.Token)
	require.NoError(t, err)
	require.Equal(t, "mgr-1", staff.ID)
}

func TestTokenEndpointRejectsWrongPin(t *testing.T) {
	book, err := ParsePinBook("mgr-1:manager:" + cheapPinHash(t, "4821"))
	require.NoError(t, err)
	router := newTokenRouter(t, &Handler{Pins: book, Verifier: newTestVerifier(t, time.Now()), Logger: zerolog.Nop()})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"staffId":"mgr-1","pin":"9999"}`)))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"staffId":"mgr-1"}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTokenEndpointUnconfigured(t *testing.T) {
	router := newTokenRouter(t, &Handler{Logger: zerolog.Nop()})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
