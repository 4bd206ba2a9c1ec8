package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iconidentify/tokgrabba/internal/config"
	"github.com/iconidentify/tokgrabba/internal/domain"
	"github.com/iconidentify/tokgrabba/internal/service"
)

// Downloader runs one link request end to end.
type Downloader interface {
	Handle(ctx context.Context, rawURL string, d service.Deliverer) domain.Result
	Status(ctx context.Context) domain.ServiceStatus
}

// Bot answers commands and turns links into downloads.
type Bot struct {
	api     BotAPI
	svc     Downloader
	limiter *chatLimiter
	maxMB   float64
	logger  *slog.Logger
}

// NewBot creates a new bot.
func NewBot(api BotAPI, svc Downloader, cfg config.TelegramConfig, limits config.LimitsConfig, logger *slog.Logger) *Bot {
	return &Bot{
		api:     api,
		svc:     svc,
		limiter: newChatLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
		maxMB:   limits.MaxFileMB,
		logger:  logger,
	}
}

// HandleUpdate processes one update. Only text messages are acted on.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	b.handleLink(ctx, msg, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	b.logger.Debug("command received", "chat_id", chatID, "command", msg.Command())

	switch msg.Command() {
	case "start":
		b.reply(chatID, msg.MessageID, startText(b.svc.Status(ctx)))
	case "help":
		b.reply(chatID, msg.MessageID, helpText(b.maxMB))
	case "status":
		b.reply(chatID, msg.MessageID, statusText(b.svc.Status(ctx)))
	default:
		b.reply(chatID, msg.MessageID, textUnknownCommand)
	}
}

func (b *Bot) handleLink(ctx context.Context, msg *tgbotapi.Message, text string) {
	chatID := msg.Chat.ID
	logger := b.logger.With("chat_id", chatID, "message_id", msg.MessageID)

	var statusID int
	if domain.IsSupportedURL(text) {
		if !b.limiter.Allow(chatID) {
			logger.Info("link rate limited", "error", domain.ErrRateLimited)
			b.reply(chatID, msg.MessageID, textRateLimited)
			return
		}
		statusID = b.reply(chatID, msg.MessageID, textDownloading)
	}

	d := &chatDelivery{
		api:      b.api,
		chatID:   chatID,
		replyTo:  msg.MessageID,
		statusID: statusID,
		logger:   logger,
	}
	res := b.svc.Handle(ctx, text, d)

	if res.Succeeded() {
		b.deleteMessage(chatID, statusID)
		return
	}

	reply := outcomeText(res, b.maxMB)
	if errors.Is(res.Err, domain.ErrProcessFailed) && ctx.Err() != nil {
		reply = textBusy
	}
	if statusID != 0 {
		b.edit(chatID, statusID, reply)
		return
	}
	b.reply(chatID, msg.MessageID, reply)
}

// reply sends text as a reply and returns the new message ID, or 0.
func (b *Bot) reply(chatID int64, replyTo int, text string) int {
	m := tgbotapi.NewMessage(chatID, text)
	m.ParseMode = tgbotapi.ModeHTML
	m.ReplyToMessageID = replyTo
	m.DisableWebPagePreview = true

	sent, err := b.api.Send(m)
	if err != nil {
		b.logger.Error("failed to send message", "chat_id", chatID, "error", err)
		return 0
	}
	return sent.MessageID
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	if err := editText(b.api, chatID, messageID, text); err != nil {
		b.logger.Error("failed to edit message", "chat_id", chatID, "message_id", messageID, "error", err)
	}
}

func (b *Bot) deleteMessage(chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.logger.Warn("failed to delete status message", "chat_id", chatID, "message_id", messageID, "error", err)
	}
}

func editText(api BotAPI, chatID int64, messageID int, text string) error {
	e := tgbotapi.NewEditMessageText(chatID, messageID, text)
	e.ParseMode = tgbotapi.ModeHTML
	_, err := api.Request(e)
	return err
}

// chatDelivery uploads an artifact to the chat that asked for it.
type chatDelivery struct {
	api      BotAPI
	chatID   int64
	replyTo  int
	statusID int
	logger   *slog.Logger
}

// Deliver implements service.Deliverer.
func (d *chatDelivery) Deliver(ctx context.Context, del service.Delivery) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if d.statusID != 0 {
		if err := editText(d.api, d.chatID, d.statusID, textSending); err != nil {
			d.logger.Warn("failed to update status message", "error", err)
		}
	}

	video := tgbotapi.NewVideo(d.chatID, tgbotapi.FilePath(del.Path))
	video.Caption = captionText(del.Label, del.SizeMB)
	video.ParseMode = tgbotapi.ModeHTML
	video.SupportsStreaming = true
	video.ReplyToMessageID = d.replyTo

	if _, err := d.api.Send(video); err != nil {
		return err
	}
	d.logger.Info("video sent", "size_mb", del.SizeMB)
	return nil
}
