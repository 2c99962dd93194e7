package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/common"
)

func TestRequireStaff(t *testing.T) {
	v := newTestVerifier(t, time.Now())
	token, err := v.Issue(Staff{ID: "staff-9", Role: RoleStaff}, time.Hour)
	require.NoError(t, err)

	var seen string
	handler := Middleware{Verifier: v, Logger: zerolog.Nop()}.RequireStaff(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = common.StaffID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "malformed", header: "Bearer not-a-jwt", want: http.StatusUnauthorized},
		{name: "basic scheme", header: "Basic " + token, want: http.StatusUnauthorized},
		{name: "valid", header: "bearer " + token, want: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/taxes", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, tt.want, rec.Code)
		})
	}
	require.Equal(t, "staff-9", seen)
}

func TestRequireStaffWithoutVerifier(t *testing.T) {
	handler := Middleware{}.RequireStaff(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/taxes", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
