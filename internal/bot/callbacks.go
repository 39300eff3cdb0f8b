package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"hozur/internal/dialog"
	"hozur/internal/model"
	"hozur/internal/workflow"
)

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if err := b.answerCallback(cq.ID); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("callback_id", cq.ID).Msg("failed to answer callback")
	}
	if cq.Message == nil || cq.From == nil {
		return
	}
	chatID := cq.Message.Chat.ID
	actor := cq.From.ID

	action, value, _ := strings.Cut(cq.Data, ":")
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Str("data", cq.Data).Msg("malformed callback data")
		return
	}

	switch action {
	case workflow.ActionApprove, workflow.ActionReject:
		b.decideRegistration(ctx, cq, action, id)
	case workflow.ActionLeaveApprove, workflow.ActionLeaveReject:
		b.decideLeave(ctx, cq, action, id)
	case cbAssignPage:
		if _, ok := b.activeSession(ctx, chatID, actor, dialog.KindAssign, dialog.StateAskEmployee); ok {
			b.renderEmployeePicker(ctx, pickerParams{ChatID: chatID, ActorID: actor, MessageID: cq.Message.MessageID, Page: int(id)})
		}
	case cbAssignEmployee:
		if sess, ok := b.activeSession(ctx, chatID, actor, dialog.KindAssign, dialog.StateAskEmployee); ok {
			b.pickEmployee(ctx, chatID, sess, id)
		}
	case cbAssignShift:
		if sess, ok := b.activeSession(ctx, chatID, actor, dialog.KindAssign, dialog.StateAskShift); ok {
			b.pickShift(ctx, chatID, sess, int(id))
		}
	case cbNoteShift:
		if sess, ok := b.activeSession(ctx, chatID, actor, dialog.KindManagerNote, dialog.StateAskManagerShift); ok {
			b.pickManagerShift(ctx, chatID, sess, int(id))
		}
	default:
		zerolog.Ctx(ctx).Debug().Str("data", cq.Data).Msg("unknown callback action")
	}
}

func (b *Bot) decideRegistration(ctx context.Context, cq *tgbotapi.CallbackQuery, action string, id int64) {
	var (
		e   *model.Employee
		err error
	)
	if action == workflow.ActionApprove {
		e, err = b.svc.Approve(ctx, id, cq.From.ID)
	} else {
		e, err = b.svc.Reject(ctx, id, cq.From.ID)
	}
	b.settleDecision(ctx, cq, err)
	if err != nil {
		return
	}
	b.replyT(ctx, cq.Message.Chat.ID, "reply.registration_"+action, map[string]any{"Name": e.Label()})
}

func (b *Bot) decideLeave(ctx context.Context, cq *tgbotapi.CallbackQuery, action string, id int64) {
	d := model.DecisionApprove
	if action == workflow.ActionLeaveReject {
		d = model.DecisionReject
	}
	r, err := b.svc.ResolveLeave(ctx, id, cq.From.ID, d)
	b.settleDecision(ctx, cq, err)
	if err != nil {
		return
	}
	b.replyT(ctx, cq.Message.Chat.ID, "reply.leave_"+string(d), map[string]any{"ID": r.ID})
}

// settleDecision drops the buttons of a decided (or already decided) item and
// reports any error.
func (b *Bot) settleDecision(ctx context.Context, cq *tgbotapi.CallbackQuery, err error) {
	if err == nil || errors.Is(err, workflow.ErrAlreadyResolved) {
		b.clearButtons(ctx, cq.Message)
	}
	if err != nil {
		b.replyErr(ctx, cq.Message.Chat.ID, err)
	}
}

// activeSession returns the actor's session when it is at the state a button
// belongs to. A stale button is answered with the expiry notice.
func (b *Bot) activeSession(ctx context.Context, chatID, actor int64, kind dialog.Kind, state dialog.State) (*dialog.Session, bool) {
	sess, err := b.dialogs.Current(ctx, actor)
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return nil, false
	}
	if sess == nil || sess.Kind != kind || sess.State != state {
		b.replyErr(ctx, chatID, dialog.ErrSessionExpired)
		return nil, false
	}
	return sess, true
}

func (b *Bot) answerCallback(id string) error {
	_, err := b.tg.Request(tgbotapi.NewCallback(id, ""))
	return err
}

func (b *Bot) clearButtons(ctx context.Context, msg *tgbotapi.Message) {
	edit := tgbotapi.NewEditMessageReplyMarkup(msg.Chat.ID, msg.MessageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	if _, err := b.tg.Request(edit); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("failed to clear buttons")
	}
}
