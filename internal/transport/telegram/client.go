package telegram

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	channelService "github.com/reshetovitsme/channel-relay/internal/modules/channel/service"
	"github.com/samber/oops"
)

// Client adapts the Telegram bot to the outbound and lookup ports of the
// relay. The bot is attached after construction because its default handler
// needs the services that depend on this client.
type Client struct {
	mu  sync.RWMutex
	bot *bot.Bot
}

// NewClient creates a client without a bot attached
func NewClient() *Client {
	return &Client{}
}

// SetBot attaches the bot used for API calls
func (c *Client) SetBot(b *bot.Bot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bot = b
}

func (c *Client) api() (*bot.Bot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.bot == nil {
		return nil, oops.In("telegram").Errorf("bot is not attached")
	}
	return c.bot, nil
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, destination, text string) error {
	b, err := c.api()
	if err != nil {
		return err
	}
	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: ChatID(destination),
		Text:   text,
	})
	return err
}

// SendPhoto sends a photo by file id. Rich captions are parsed as Markdown.
func (c *Client) SendPhoto(ctx context.Context, destination, photoID, caption string, rich bool) error {
	b, err := c.api()
	if err != nil {
		return err
	}
	params := &bot.SendPhotoParams{
		ChatID:  ChatID(destination),
		Photo:   &models.InputFileString{Data: photoID},
		Caption: caption,
	}
	if rich {
		params.ParseMode = models.ParseModeMarkdownV1
	}
	_, err = b.SendPhoto(ctx, params)
	return err
}

// ResolveChat looks up a chat by @username or numeric id.
func (c *Client) ResolveChat(ctx context.Context, ref string) (*channelService.ChatInfo, error) {
	b, err := c.api()
	if err != nil {
		return nil, err
	}
	chat, err := b.GetChat(ctx, &bot.GetChatParams{ChatID: ChatID(ref)})
	if err != nil {
		return nil, err
	}
	return &channelService.ChatInfo{
		ID:       chat.ID,
		Title:    chat.Title,
		Username: chat.Username,
	}, nil
}

// ChatID converts a destination string into the value the Bot API expects:
// numeric ids as int64, anything else (an @username) unchanged.
func ChatID(ref string) any {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return id
	}
	return ref
}
