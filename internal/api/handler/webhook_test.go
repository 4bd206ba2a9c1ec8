package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iconidentify/tokgrabba/internal/worker"
)

const testSecret = "c0ffee"

// serveWebhook routes through chi so the {secret} URL param is populated.
func serveWebhook(h *WebhookHandler, path, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Post("/telegram/{secret}", h.Update)

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookHandler_Update(t *testing.T) {
	var got []tgbotapi.Update
	h := NewWebhookHandler(testSecret, func(_ context.Context, u tgbotapi.Update) error {
		got = append(got, u)
		return nil
	}, testLogger())

	body := `{"update_id":42,"message":{"message_id":7,"chat":{"id":99,"type":"private"},"text":"https://vm.tiktok.com/x/"}}`
	w := serveWebhook(h, "/telegram/"+testSecret, body)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if len(got) != 1 {
		t.Fatalf("submitted %d updates, want 1", len(got))
	}
	if got[0].UpdateID != 42 || got[0].Message == nil || got[0].Message.Chat.ID != 99 {
		t.Errorf("update = %+v", got[0])
	}
	if got[0].Message.Text != "https://vm.tiktok.com/x/" {
		t.Errorf("text = %q", got[0].Message.Text)
	}
}

func TestWebhookHandler_Errors(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		body      string
		submitErr error
		wantCode  int
		wantCalls int
	}{
		{"wrong secret", "/telegram/nope", `{"update_id":1}`, nil, http.StatusNotFound, 0},
		{"bad json", "/telegram/" + testSecret, `{"update_id":`, nil, http.StatusBadRequest, 0},
		{"stopping", "/telegram/" + testSecret, `{"update_id":1}`, worker.ErrPoolStopped, http.StatusServiceUnavailable, 1},
		{"canceled", "/telegram/" + testSecret, `{"update_id":1}`, errors.New("context canceled"), http.StatusServiceUnavailable, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			h := NewWebhookHandler(testSecret, func(context.Context, tgbotapi.Update) error {
				calls++
				return tt.submitErr
			}, testLogger())

			w := serveWebhook(h, tt.path, tt.body)

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if calls != tt.wantCalls {
				t.Errorf("submit calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}
