// Package api exposes the HTTP surface: health probes, metrics, the operator
// status API and the Telegram webhook.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iconidentify/tokgrabba/internal/api/handler"
	mw "github.com/iconidentify/tokgrabba/internal/api/middleware"
)

// Handlers groups the route handlers. Webhook is nil in polling mode and
// Metrics may be nil to leave /metrics unrouted.
type Handlers struct {
	Health  *handler.HealthHandler
	Status  *handler.StatusHandler
	Webhook *handler.WebhookHandler
	Metrics http.Handler
}

// NewRouter creates the HTTP router with all routes configured.
// The status API requires apiKey when it is non-empty.
func NewRouter(h Handlers, apiKey string, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health endpoints (no auth)
	r.Get("/health", h.Health.Live)
	r.Get("/ready", h.Health.Ready)

	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	// Authenticated by the secret path segment.
	if h.Webhook != nil {
		r.Post("/telegram/{secret}", h.Webhook.Update)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if apiKey != "" {
			r.Use(mw.APIKeyAuth(apiKey, logger))
		}
		r.Get("/status", h.Status.Status)
		r.Get("/activity", h.Status.Activity)
	})

	return r
}
