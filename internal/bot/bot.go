// Package bot is the Telegram transport: it turns updates into workflow calls
// and renders the results.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"hozur/internal/apperr"
	"hozur/internal/dialog"
	"hozur/internal/i18n"
	"hozur/internal/workflow"
)

type telegramClient interface {
	Send(tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	SelfUser() tgbotapi.User
}

type realTelegramClient struct {
	api *tgbotapi.BotAPI
}

func (c *realTelegramClient) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	return c.api.Send(msg)
}

func (c *realTelegramClient) Request(msg tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return c.api.Request(msg)
}

func (c *realTelegramClient) GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return c.api.GetUpdatesChan(cfg)
}

func (c *realTelegramClient) StopReceivingUpdates() {
	c.api.StopReceivingUpdates()
}

func (c *realTelegramClient) SelfUser() tgbotapi.User {
	return c.api.Self
}

type actionFunc func(ctx context.Context, msg *tgbotapi.Message, args string)

// Bot routes commands, menu buttons, dialog replies and inline callbacks.
type Bot struct {
	tg      telegramClient
	svc     *workflow.Service
	dialogs *dialog.Machine
	logger  *zerolog.Logger

	actions  map[string]actionFunc
	menu     map[string]string // localized label -> action
	locales  map[string]struct{}
	pageSize int
}

func New(api *tgbotapi.BotAPI, svc *workflow.Service, dialogs *dialog.Machine, logger *zerolog.Logger) (*Bot, error) {
	if api == nil {
		return nil, fmt.Errorf("telegram api is nil")
	}
	return newBot(&realTelegramClient{api: api}, svc, dialogs, logger)
}

// NewWithTelegramClient allows injecting a mocked Telegram client for tests.
func NewWithTelegramClient(tg telegramClient, svc *workflow.Service, dialogs *dialog.Machine, logger *zerolog.Logger) (*Bot, error) {
	return newBot(tg, svc, dialogs, logger)
}

func newBot(tg telegramClient, svc *workflow.Service, dialogs *dialog.Machine, logger *zerolog.Logger) (*Bot, error) {
	if tg == nil {
		return nil, fmt.Errorf("telegram client is nil")
	}
	if svc == nil || dialogs == nil {
		return nil, fmt.Errorf("workflow service and dialog machine are required")
	}
	l := logger.With().Str("component", "bot").Logger()
	b := &Bot{
		tg:       tg,
		svc:      svc,
		dialogs:  dialogs,
		logger:   &l,
		locales:  make(map[string]struct{}),
		pageSize: 8,
	}
	for _, loc := range i18n.Locales() {
		b.locales[loc] = struct{}{}
	}
	b.actions = b.buildActions()
	b.menu = buildMenuIndex()
	return b, nil
}

// Start polls updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.tg.GetUpdatesChan(u)
	b.logger.Info().Str("username", b.tg.SelfUser().UserName).Msg("bot authorized")

	for {
		select {
		case <-ctx.Done():
			b.tg.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			requestID := uuid.New().String()
			l := b.logger.With().Str("request_id", requestID).Logger()
			updateCtx := l.WithContext(ctx)
			b.handleUpdate(updateCtx, &update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	l := zerolog.Ctx(ctx)
	if cq := update.CallbackQuery; cq != nil {
		l.Debug().
			Int64("user_id", cq.From.ID).
			Str("data", cq.Data).
			Msg("Handling callback query")
		b.handleCallback(b.withLocale(ctx, cq.From), cq)
		return
	}
	if msg := update.Message; msg != nil && msg.From != nil {
		l.Debug().
			Int64("user_id", msg.From.ID).
			Str("text", msg.Text).
			Msg("Handling message")
		b.handleMessage(b.withLocale(ctx, msg.From), msg)
	}
}

// withLocale picks the sender's Telegram language when a message file exists for it.
func (b *Bot) withLocale(ctx context.Context, u *tgbotapi.User) context.Context {
	if u == nil || u.LanguageCode == "" {
		return ctx
	}
	lang := strings.ToLower(strings.SplitN(u.LanguageCode, "-", 2)[0])
	if _, ok := b.locales[lang]; ok {
		return i18n.WithLocale(ctx, lang)
	}
	return ctx
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	actor := msg.From.ID

	// Commands and menu buttons take priority and interrupt any active dialog.
	action, args := "", ""
	switch {
	case msg.IsCommand():
		action, args = msg.Command(), strings.TrimSpace(msg.CommandArguments())
	default:
		action = b.menu[text]
	}
	if action != "" {
		run, ok := b.actions[action]
		if !ok {
			b.replyT(ctx, msg.Chat.ID, "reply.unknown", nil)
			return
		}
		if action != "cancel" {
			if _, err := b.dialogs.Cancel(ctx, actor); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to reset dialog")
			}
		}
		run(ctx, msg, args)
		return
	}

	sess, err := b.dialogs.Current(ctx, actor)
	if err != nil {
		b.replyErr(ctx, msg.Chat.ID, err)
		return
	}
	if sess != nil {
		b.continueDialog(ctx, msg, sess, text)
		return
	}
	b.replyT(ctx, msg.Chat.ID, "reply.unknown", nil)
}

func (b *Bot) send(ctx context.Context, c tgbotapi.Chattable) {
	if _, err := b.tg.Send(c); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to send reply")
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	b.send(ctx, tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) replyT(ctx context.Context, chatID int64, id string, data map[string]any) {
	b.reply(ctx, chatID, i18n.T(ctx, id, data))
}

// replyErr renders taxonomy errors by their code; anything else is logged and
// reported as a generic failure.
func (b *Bot) replyErr(ctx context.Context, chatID int64, err error) {
	if e, ok := apperr.As(err); ok && e.Code != "" {
		b.replyT(ctx, chatID, e.Code, nil)
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	zerolog.Ctx(ctx).Error().Err(err).Msg("request failed")
	b.replyT(ctx, chatID, "err.internal", nil)
}

func displayName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	return name
}
