package auth

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/common"
)

// Middleware guards staff-only endpoints.
type Middleware struct {
	Verifier *Verifier
	Logger   zerolog.Logger
}

// RequireStaff rejects requests without a valid bearer token and stores the staff id
// on the request context.
func (m Middleware) RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Verifier == nil {
			common.JSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "staff authentication is not configured", nil)
			return
		}
		token := bearerToken(r)
		if token == "" {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
			return
		}
		staff, err := m.Verifier.Verify(token)
		if err != nil {
			m.Logger.Debug().Err(err).Str("path", r.URL.Path).Msg("staff token rejected")
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
			return
		}
		m.Logger.Debug().Str("staff_id", staff.ID).Str("role", staff.Role).Str("path", r.URL.Path).Msg("staff request")
		next.ServeHTTP(w, r.WithContext(common.WithStaffID(r.Context(), staff.ID)))
	})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
