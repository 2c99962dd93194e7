package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/common"
)

// Handler exchanges staff PINs for bearer tokens.
type Handler struct {
	Pins     *PinBook
	Verifier *Verifier
	TTL      time.Duration
	Logger   zerolog.Logger
}

type tokenRequest struct {
	StaffID string `json:"staffId" validate:"required"`
	Pin     string `json:"pin" validate:"required"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Routes mounts the token endpoint behind limit.
func (h *Handler) Routes(r chi.Router, limit func(http.Handler) http.Handler) {
	if limit != nil {
		r.With(limit).Post("/auth/token", h.Token)
		return
	}
	r.Post("/auth/token", h.Token)
}

// Token verifies a staff PIN and issues a signed token.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	if h.Verifier == nil || h.Pins.Len() == 0 {
		common.JSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "staff sign-in is not configured", nil)
		return
	}
	var req tokenRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	staff, err := h.Pins.Authenticate(req.StaffID, req.Pin)
	if err != nil {
		if !errors.Is(err, ErrBadCredentials) {
			h.Logger.Error().Err(err).Str("staff_id", req.StaffID).Msg("pin check failed")
		}
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid staff id or pin", nil)
		return
	}
	ttl := h.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	token, err := h.Verifier.Issue(staff, ttl)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	h.Logger.Info().Str("staff_id", staff.ID).Str("role", staff.Role).Msg("staff signed in")
	common.JSON(w, http.StatusOK, tokenResponse{Token: token, Role: staff.Role, ExpiresAt: h.Verifier.now().Add(ttl).UTC()})
}
