package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hozur/shared/notify"
)

// Sender delivers notifications through the Telegram API.
type Sender struct {
	tg telegramClient
}

var _ notify.Sender = (*Sender)(nil)

func NewSender(api *tgbotapi.BotAPI) *Sender {
	return newSender(&realTelegramClient{api: api})
}

func newSender(tg telegramClient) *Sender {
	return &Sender{tg: tg}
}

// Send posts the text with its buttons, then the attached document if any.
func (s *Sender) Send(ctx context.Context, to int64, msg notify.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.Text != "" {
		out := tgbotapi.NewMessage(to, msg.Text)
		if len(msg.Buttons) > 0 {
			out.ReplyMarkup = inlineKeyboard(msg.Buttons)
		}
		if _, err := s.tg.Send(out); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}
	if doc := msg.Document; doc != nil {
		file := tgbotapi.NewDocument(to, tgbotapi.FileBytes{Name: doc.Name, Bytes: doc.Data})
		if _, err := s.tg.Send(file); err != nil {
			return fmt.Errorf("send document: %w", err)
		}
	}
	return nil
}
