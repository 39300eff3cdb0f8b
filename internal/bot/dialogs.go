package bot

import (
	"context"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"hozur/internal/apperr"
	"hozur/internal/dialog"
	"hozur/internal/i18n"
	"hozur/internal/model"
	"hozur/internal/workflow"
)

func (b *Bot) continueDialog(ctx context.Context, msg *tgbotapi.Message, sess *dialog.Session, text string) {
	chatID, actor := msg.Chat.ID, msg.From.ID

	switch sess.State {
	case dialog.StateAskName:
		e, err := b.svc.Register(ctx, actor, msg.From.UserName, text)
		if !b.settle(ctx, chatID, actor, err) {
			return
		}
		id := "reply.registered"
		if e.Status == model.StatusApproved {
			id = "reply.registered_privileged"
		}
		b.replyT(ctx, chatID, id, map[string]any{"Name": e.Label()})

	case dialog.StateAskNoteText:
		b.recordNote(ctx, chatID, actor, text)

	case dialog.StateAskLeaveDate:
		date, err := b.svc.LeaveDate(text)
		if err != nil {
			b.replyErr(ctx, chatID, err)
			return
		}
		if err := b.dialogs.Advance(ctx, sess, dialog.StateAskLeaveReason, dialog.KeyDate, date); err != nil {
			b.replyErr(ctx, chatID, err)
			return
		}
		b.replyT(ctx, chatID, "dialog.ask_leave_reason", map[string]any{"Date": date})

	case dialog.StateAskLeaveReason:
		b.requestLeave(ctx, chatID, actor, sess.Get(dialog.KeyDate), text)

	case dialog.StateAskEmployee:
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			b.replyT(ctx, chatID, "err.invalid_number", nil)
			return
		}
		b.pickEmployee(ctx, chatID, sess, id)

	case dialog.StateAskShift:
		id, err := strconv.Atoi(text)
		if err != nil {
			b.replyT(ctx, chatID, "err.invalid_number", nil)
			return
		}
		b.pickShift(ctx, chatID, sess, id)

	case dialog.StateAskManagerShift:
		id, err := strconv.Atoi(text)
		if err != nil {
			b.replyT(ctx, chatID, "err.invalid_number", nil)
			return
		}
		b.pickManagerShift(ctx, chatID, sess, id)

	case dialog.StateAskManagerText:
		shiftID, _ := strconv.Atoi(sess.Get(dialog.KeyShiftID))
		n, err := b.svc.RecordManagerNote(ctx, "", shiftID, text, actor)
		if !b.settle(ctx, chatID, actor, err) {
			return
		}
		b.replyT(ctx, chatID, "reply.manager_note_saved", map[string]any{"Shift": b.shiftTarget(ctx, n.ShiftID)})

	default:
		zerolog.Ctx(ctx).Warn().Str("state", string(sess.State)).Msg("unexpected dialog state")
		b.finishDialog(ctx, actor)
	}
}

func (b *Bot) finishDialog(ctx context.Context, actor int64) {
	if err := b.dialogs.Finish(ctx, actor); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int64("actor_id", actor).Msg("failed to finish dialog")
	}
}

// settle ends the dialog after its final step. A validation error keeps the
// dialog open so the actor can correct the input; it reports whether the step
// succeeded.
func (b *Bot) settle(ctx context.Context, chatID, actor int64, err error) bool {
	if err != nil && apperr.KindOf(err) == apperr.KindValidation {
		b.replyErr(ctx, chatID, err)
		return false
	}
	b.finishDialog(ctx, actor)
	if err != nil {
		b.replyErr(ctx, chatID, err)
		return false
	}
	return true
}

func (b *Bot) recordNote(ctx context.Context, chatID, actor int64, text string) {
	n, err := b.svc.RecordNote(ctx, actor, text)
	if !b.settle(ctx, chatID, actor, err) {
		return
	}
	b.replyT(ctx, chatID, "reply.note_saved", map[string]any{"Shift": b.svc.Catalog().Label(n.ShiftID)})
}

func (b *Bot) requestLeave(ctx context.Context, chatID, actor int64, date, reason string) {
	r, err := b.svc.RequestLeave(ctx, actor, date, reason)
	if !b.settle(ctx, chatID, actor, err) {
		return
	}
	b.replyT(ctx, chatID, "reply.leave_requested", map[string]any{"ID": r.ID, "Date": r.Date})
}

func (b *Bot) assign(ctx context.Context, chatID, actor, employeeID int64, shiftID int, date string) {
	a, err := b.svc.AssignShift(ctx, employeeID, date, shiftID, actor)
	if !b.settle(ctx, chatID, actor, err) {
		return
	}
	b.replyT(ctx, chatID, "reply.assigned", map[string]any{
		"Name":  b.employeeName(ctx, employeeID),
		"Shift": b.svc.Catalog().Label(a.ShiftID),
		"Date":  a.Date,
	})
}

// pickEmployee records the assignee and asks for the shift. The assignee must
// be an approved employee.
func (b *Bot) pickEmployee(ctx context.Context, chatID int64, sess *dialog.Session, employeeID int64) {
	e, err := b.svc.Employee(ctx, employeeID)
	switch {
	case err != nil:
		b.replyErr(ctx, chatID, err)
		return
	case e == nil:
		b.replyErr(ctx, chatID, workflow.ErrEmployeeNotFound)
		return
	case e.Status != model.StatusApproved:
		b.replyErr(ctx, chatID, workflow.ErrAssigneeNotApproved)
		return
	}
	if err := b.dialogs.Advance(ctx, sess, dialog.StateAskShift, dialog.KeyEmployeeID, strconv.FormatInt(employeeID, 10)); err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	out := tgbotapi.NewMessage(chatID, i18n.T(ctx, "dialog.ask_shift", map[string]any{
		"Name": e.Label(),
		"Date": sess.Get(dialog.KeyDate),
	}))
	out.ReplyMarkup = b.shiftKeyboard(ctx, cbAssignShift, false)
	b.send(ctx, out)
}

func (b *Bot) pickShift(ctx context.Context, chatID int64, sess *dialog.Session, shiftID int) {
	if !b.svc.Catalog().Has(shiftID) {
		b.replyErr(ctx, chatID, workflow.ErrUnknownShift)
		return
	}
	employeeID, err := strconv.ParseInt(sess.Get(dialog.KeyEmployeeID), 10, 64)
	if err != nil {
		b.finishDialog(ctx, sess.ActorID)
		b.replyErr(ctx, chatID, dialog.ErrSessionExpired)
		return
	}
	b.assign(ctx, chatID, sess.ActorID, employeeID, shiftID, sess.Get(dialog.KeyDate))
}

// pickManagerShift records the target of a manager note; 0 targets every shift.
func (b *Bot) pickManagerShift(ctx context.Context, chatID int64, sess *dialog.Session, shiftID int) {
	if shiftID != 0 && !b.svc.Catalog().Has(shiftID) {
		b.replyErr(ctx, chatID, workflow.ErrUnknownShift)
		return
	}
	if err := b.dialogs.Advance(ctx, sess, dialog.StateAskManagerText, dialog.KeyShiftID, strconv.Itoa(shiftID)); err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	b.replyT(ctx, chatID, "dialog.ask_manager_text", map[string]any{"Shift": b.shiftTarget(ctx, shiftID)})
}

func (b *Bot) clock(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.In(b.svc.Catalog().Location()).Format("15:04")
}
