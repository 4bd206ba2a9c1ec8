package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/crypto/blake2b"
)

// SubmitFunc queues an update for processing.
type SubmitFunc func(ctx context.Context, update tgbotapi.Update) error

// WebhookPathPrefix is the route the webhook secret is appended to.
const WebhookPathPrefix = "/telegram/"

// WebhookSecret derives the webhook path segment from the bot token, so the
// token itself never shows up in URLs or access logs.
func WebhookSecret(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ValidSecret reports whether got matches want in constant time.
func ValidSecret(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// WebhookURL returns the address Telegram should push updates to.
func WebhookURL(baseURL, secret string) string {
	return strings.TrimRight(baseURL, "/") + WebhookPathPrefix + secret
}

// RegisterWebhook points Telegram at baseURL.
func RegisterWebhook(api BotAPI, baseURL, secret string, logger *slog.Logger) error {
	wh, err := tgbotapi.NewWebhook(WebhookURL(baseURL, secret))
	if err != nil {
		return fmt.Errorf("build webhook: %w", err)
	}
	if _, err := api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	logger.Info("webhook registered", "base_url", baseURL)
	return nil
}

// Poll long-polls for updates and hands each to submit until ctx is done.
// Any webhook is removed first; Telegram refuses getUpdates while one is set.
func Poll(ctx context.Context, api BotAPI, timeout int, submit SubmitFunc, logger *slog.Logger) error {
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = timeout
	updates := api.GetUpdatesChan(cfg)
	defer api.StopReceivingUpdates()

	logger.Info("polling for updates", "timeout", timeout)
	for {
		select {
		case <-ctx.Done():
			logger.Info("stopped polling")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if err := submit(ctx, update); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logger.Error("failed to queue update", "update_id", update.UpdateID, "error", err)
			}
		}
	}
}
