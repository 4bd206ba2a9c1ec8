package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iconidentify/tokgrabba/internal/telegram"
	"github.com/iconidentify/tokgrabba/internal/worker"
)

// maxUpdateBytes bounds a webhook body. Updates are small JSON documents.
const maxUpdateBytes = 1 << 20

// WebhookHandler receives updates pushed by Telegram.
type WebhookHandler struct {
	secret string
	submit telegram.SubmitFunc
	logger *slog.Logger
}

// NewWebhookHandler creates a new webhook handler. Requests whose {secret}
// path segment differs from secret are answered with 404.
func NewWebhookHandler(secret string, submit telegram.SubmitFunc, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		secret: secret,
		submit: submit,
		logger: logger,
	}
}

// Update handles POST /telegram/{secret}.
func (h *WebhookHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !telegram.ValidSecret(chi.URLParam(r, "secret"), h.secret) {
		http.NotFound(w, r)
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBytes)).Decode(&update); err != nil {
		h.logger.Warn("invalid webhook body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid update")
		return
	}

	if err := h.submit(r.Context(), update); err != nil {
		if errors.Is(err, worker.ErrPoolStopped) {
			// Telegram retries the update after a non-2xx answer.
			writeError(w, http.StatusServiceUnavailable, "shutting down")
			return
		}
		h.logger.Error("failed to queue update", "update_id", update.UpdateID, "error", err)
		writeError(w, http.StatusServiceUnavailable, "busy")
		return
	}

	w.WriteHeader(http.StatusOK)
}
