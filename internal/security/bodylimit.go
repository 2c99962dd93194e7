package security

import (
	"net/http"

	"github.com/noah-isme/backend-pos/internal/common"
)

// BodyLimit caps request payloads. Quote requests can carry hundreds of items, so the
// limit is configurable rather than fixed.
type BodyLimit struct {
	Max int64
}

// Middleware rejects declared oversized bodies up front and caps streamed ones with
// http.MaxBytesReader. common.DecodeJSON turns an overrun into a 413.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			tooLarge(w, b.Max)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, b.Max)
		next.ServeHTTP(w, r)
	})
}

func tooLarge(w http.ResponseWriter, max int64) {
	common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request entity too large", map[string]any{"limit": max})
}
