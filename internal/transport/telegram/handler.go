package telegram

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	adminDomain "github.com/reshetovitsme/channel-relay/internal/modules/admin/domain"
	adminService "github.com/reshetovitsme/channel-relay/internal/modules/admin/service"
	forwardService "github.com/reshetovitsme/channel-relay/internal/modules/forward/service"
	messageDomain "github.com/reshetovitsme/channel-relay/internal/modules/message/domain"
	"github.com/reshetovitsme/channel-relay/internal/shared/errors"
	"github.com/samber/lo"
)

// Handler handles Telegram bot interactions
type Handler struct {
	forward *forwardService.Service
	admin   *adminService.Service
}

// New creates a new Telegram handler
func New(forward *forwardService.Service, admin *adminService.Service) *Handler {
	return &Handler{
		forward: forward,
		admin:   admin,
	}
}

// RegisterCommands registers the admin command and the inline keyboard callbacks
func (h *Handler) RegisterCommands(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, h.handleStart)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, h.handleCallback)
}

// HandleUpdate processes every update no command matched: channel posts and
// group messages are relayed, admin private messages drive the conversation.
func (h *Handler) HandleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	switch {
	case update.ChannelPost != nil:
		h.relay(ctx, EventFromMessage(update.ChannelPost, true))
	case update.Message != nil:
		msg := update.Message
		if msg.Chat.Type == models.ChatTypePrivate && msg.From != nil && h.admin.IsAdmin(msg.From.ID) {
			if h.handleAdminMessage(ctx, b, msg) {
				return
			}
		}
		h.relay(ctx, EventFromMessage(msg, msg.Chat.Type == models.ChatTypeChannel))
	}
}

func (h *Handler) relay(ctx context.Context, ev messageDomain.Event) {
	if _, err := h.forward.Handle(ctx, ev); err != nil {
		slog.Error("Error relaying message", "error", err, "chat_id", ev.ChatID)
	}
}

func (h *Handler) handleAdminMessage(ctx context.Context, b *bot.Bot, msg *models.Message) bool {
	if photo := largestPhoto(msg); photo != "" {
		if reply := h.admin.Photo(msg.From.ID, photo, msg.Caption); reply != nil {
			h.send(ctx, b, msg.Chat.ID, *reply)
			return true
		}
		return false
	}

	reply, err := h.admin.Text(ctx, msg.From.ID, msg.Text)
	if err != nil {
		slog.Error("Admin step failed", "error", err, "user_id", msg.From.ID)
		h.send(ctx, b, msg.Chat.ID, adminDomain.Reply{Text: "❌ Something went wrong, try again."})
		return true
	}
	if reply == nil {
		return false
	}
	h.send(ctx, b, msg.Chat.ID, *reply)
	return true
}

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || !h.admin.IsAdmin(msg.From.ID) {
		return
	}
	h.send(ctx, b, msg.Chat.ID, h.admin.Start(msg.From.ID))
}

func (h *Handler) handleCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	query := update.CallbackQuery
	if query == nil {
		return
	}
	if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: query.ID}); err != nil {
		slog.Warn("Failed to answer callback", "error", err)
	}
	if !h.admin.IsAdmin(query.From.ID) {
		return
	}

	msg := query.Message.Message
	chatID := query.From.ID
	if msg != nil {
		chatID = msg.Chat.ID
	}

	reply, err := h.admin.Callback(ctx, query.From.ID, query.Data)
	if err != nil {
		slog.Error("Admin callback failed", "error", err, "data", query.Data)
		text := "❌ Something went wrong, try again."
		if errors.IsValidation(err) {
			text = "❌ Unknown or stale button."
		}
		h.send(ctx, b, chatID, adminDomain.Reply{Text: text})
		return
	}

	if reply.Edit && msg != nil {
		params := &bot.EditMessageTextParams{
			ChatID:    msg.Chat.ID,
			MessageID: msg.ID,
			Text:      reply.Text,
		}
		if markup := keyboard(reply.Keyboard); markup != nil {
			params.ReplyMarkup = markup
		}
		_, err := b.EditMessageText(ctx, params)
		if err == nil {
			return
		}
		slog.Warn("Failed to edit message, sending instead", "error", err, "chat_id", msg.Chat.ID)
	}
	h.send(ctx, b, chatID, reply)
}

func (h *Handler) send(ctx context.Context, b *bot.Bot, chatID int64, reply adminDomain.Reply) {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   reply.Text,
	}
	if markup := keyboard(reply.Keyboard); markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := b.SendMessage(ctx, params); err != nil {
		slog.Error("Failed to send admin reply", "error", err, "chat_id", chatID)
	}
}

// EventFromMessage maps a Telegram message to a relay event. Telegram lists
// photo sizes ascending, so the last one is the largest.
func EventFromMessage(msg *models.Message, isChannelPost bool) messageDomain.Event {
	return messageDomain.Event{
		ChatID:        msg.Chat.ID,
		ChatHandle:    msg.Chat.Username,
		Text:          msg.Text,
		Caption:       msg.Caption,
		PhotoID:       largestPhoto(msg),
		IsChannelPost: isChannelPost,
	}
}

func largestPhoto(msg *models.Message) string {
	if len(msg.Photo) == 0 {
		return ""
	}
	return msg.Photo[len(msg.Photo)-1].FileID
}

func keyboard(rows [][]adminDomain.Button) *models.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: lo.Map(rows, func(row []adminDomain.Button, _ int) []models.InlineKeyboardButton {
			return lo.Map(row, func(btn adminDomain.Button, _ int) models.InlineKeyboardButton {
				return models.InlineKeyboardButton{Text: btn.Text, CallbackData: btn.Data}
			})
		}),
	}
}
