package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/blake2b"
)

// APIKeyAuth guards the operator API. The key is read from X-API-Key or an
// "Authorization: Bearer" header, never from the query string. An empty
// apiKey rejects every request.
func APIKeyAuth(apiKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	// Comparing digests keeps the comparison time independent of key length.
	want := blake2b.Sum256([]byte(apiKey))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				auth := r.Header.Get("Authorization")
				if len(auth) > 7 && auth[:7] == "Bearer " {
					key = auth[7:]
				}
			}

			reason := ""
			switch {
			case key == "":
				reason = "missing API key"
			case apiKey == "":
				reason = "invalid API key"
			default:
				got := blake2b.Sum256([]byte(key))
				if subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
					reason = "invalid API key"
				}
			}

			if reason != "" {
				logger.Warn("api request rejected",
					"request_id", middleware.GetReqID(r.Context()),
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"reason", reason,
				)
				w.Header().Set("WWW-Authenticate", `Bearer realm="tokgrabba"`)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"` + reason + `"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
