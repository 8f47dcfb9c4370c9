package notify

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the part of *tgbotapi.BotAPI used for delivery
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends notifications as bot messages. Attachments are
// forwarded as photos by file id after the text.
type TelegramNotifier struct {
	bot          sender
	adminChatID  int64
	reviewChatID int64
}

// NewTelegramNotifier connects to the bot API. endpoint is a format string
// such as tgbotapi.APIEndpoint.
func NewTelegramNotifier(token, endpoint string, adminChatID, reviewChatID int64) (*TelegramNotifier, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, adminChatID: adminChatID, reviewChatID: reviewChatID}, nil
}

func (t *TelegramNotifier) chatFor(audience Audience) (int64, error) {
	switch audience {
	case AudienceAdmin:
		return t.adminChatID, nil
	case AudienceReview:
		if t.reviewChatID == 0 {
			return t.adminChatID, nil
		}
		return t.reviewChatID, nil
	}
	if userID, ok := audience.UserID(); ok {
		chatID, err := strconv.ParseInt(userID, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("user %q has no telegram chat: %w", userID, err)
		}
		return chatID, nil
	}
	return 0, fmt.Errorf("unknown audience %q", audience)
}

// Notify sends n to the chat behind its audience
func (t *TelegramNotifier) Notify(ctx context.Context, n Notification) error {
	chatID, err := t.chatFor(n.Audience)
	if err != nil {
		return err
	}
	if chatID == 0 {
		return fmt.Errorf("no chat configured for audience %q", n.Audience)
	}

	if _, err := t.bot.Send(tgbotapi.NewMessage(chatID, n.Text)); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	if n.Attachment != "" {
		if _, err := t.bot.Send(tgbotapi.NewPhoto(chatID, tgbotapi.FileID(n.Attachment))); err != nil {
			return fmt.Errorf("send telegram photo: %w", err)
		}
	}
	return nil
}
