package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"hozur/internal/dialog"
	"hozur/internal/i18n"
	"hozur/internal/model"
	"hozur/internal/report"
	"hozur/internal/workflow"
	"hozur/shared/notify"
)

func (b *Bot) buildActions() map[string]actionFunc {
	return map[string]actionFunc{
		"start":     b.handleStart,
		"myid":      b.handleMyID,
		"help":      b.handleHelp,
		"cancel":    b.handleCancel,
		"register":  b.handleRegister,
		"checkin":   b.handleCheckIn,
		"checkout":  b.handleCheckOut,
		"status":    b.handleStatus,
		"note":      b.handleNote,
		"leave":     b.handleLeave,
		"assign":    b.handleAssign,
		"pending":   b.handlePending,
		"leaves":    b.handleLeaves,
		"report":    b.handleReport,
		"notes":     b.handleNotes,
		"broadcast": b.handleBroadcast,
		"export":    b.handleExport,
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message, _ string) {
	id := msg.From.ID
	name := displayName(msg.From)

	rows, textID := employeeRows, "reply.welcome"
	if b.svc.Roles().IsPrivileged(id) {
		rows = managerRows
	} else {
		e, err := b.svc.Employee(ctx, id)
		if err != nil {
			b.replyErr(ctx, msg.Chat.ID, err)
			return
		}
		switch {
		case e == nil || e.Status == model.StatusRejected:
			rows, textID = guestRows, "reply.welcome_unregistered"
		case e.Status == model.StatusPending:
			rows, textID = guestRows, "reply.welcome_pending"
		}
		if e != nil && e.DisplayName != "" {
			name = e.DisplayName
		}
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, i18n.T(ctx, textID, map[string]any{"Name": name}))
	out.ReplyMarkup = replyKeyboard(ctx, rows)
	b.send(ctx, out)
}

func (b *Bot) handleMyID(ctx context.Context, msg *tgbotapi.Message, _ string) {
	b.replyT(ctx, msg.Chat.ID, "reply.myid", map[string]any{"ID": msg.From.ID})
}

func (b *Bot) handleHelp(ctx context.Context, msg *tgbotapi.Message, _ string) {
	text := i18n.T(ctx, "help.employee")
	if b.svc.Roles().IsPrivileged(msg.From.ID) {
		text += "\n\n" + i18n.T(ctx, "help.manager")
	}
	b.reply(ctx, msg.Chat.ID, text)
}

func (b *Bot) handleCancel(ctx context.Context, msg *tgbotapi.Message, _ string) {
	ok, err := b.dialogs.Cancel(ctx, msg.From.ID)
	if err != nil {
		b.replyErr(ctx, msg.Chat.ID, err)
		return
	}
	if !ok {
		b.replyT(ctx, msg.Chat.ID, "dialog.nothing_to_cancel", nil)
		return
	}
	b.replyT(ctx, msg.Chat.ID, "dialog.cancelled", nil)
}

func (b *Bot) handleRegister(ctx context.Context, msg *tgbotapi.Message, _ string) {
	e, err := b.svc.Employee(ctx, msg.From.ID)
	if err != nil {
		b.replyErr(ctx, msg.Chat.ID, err)
		return
	}
	if e != nil {
		// Registering again replaces the name and restarts approval.
		b.startDialog(ctx, msg.Chat.ID, msg.From.ID, dialog.KindRegister, "dialog.ask_name_again", map[string]any{
			"Name":   e.Label(),
			"Status": report.StatusLabel(ctx, e.Status),
		})
		return
	}
	b.startDialog(ctx, msg.Chat.ID, msg.From.ID, dialog.KindRegister, "dialog.ask_name", nil)
}

func (b *Bot) handleCheckIn(ctx context.Context, msg *tgbotapi.Message, _ string) {
	res, err := b.svc.CheckIn(ctx, msg.From.ID)
	if err != nil {
		b.replyErr(ctx, msg.Chat.ID, err)
		return
	}
	cat := b.svc.Catalog()
	parts := []string{i18n.T(ctx, "reply.checked_in", map[string]any{
		"Shift": cat.Label(res.Shift.ID),
		"Time":  b.clock(res.Record.CheckIn),
		"Delay": res.Record.DelayMinutes,
	})}
	if n := res.ManagerNote; n != nil {
		parts = append(parts, i18n.T(ctx, "reply.manager_note", map[string]any{
			"Shift": b.shiftTarget(ctx, n.ShiftID),
			"Text":  n.Text,
		}))
	}
	if n := res.Previous.Handover; n != nil {
		parts = append(parts, i18n.T(ctx, "reply.previous_handover", map[string]any{
			"Date": n.Date,
			"Name": b.employeeName(ctx, n.EmployeeID),
			"Text": n.Text,
		}))
	}
	if n := res.Previous.Manager; n != nil {
		parts = append(parts, i18n.T(ctx, "reply.previous_manager", map[string]any{
			"Date": n.Date,
			"Text": n.Text,
		}))
	}
	b.reply(ctx, msg.Chat.ID, strings.Join(parts, "\n\n"))
}

func (b *Bot) handleCheckOut(ctx context.Context, msg *tgbotapi.Message, _ string) {
	rec, err := b.svc.CheckOut(ctx, msg.From.ID)
	if err != nil {
		b.replyErr(ctx, msg.Chat.ID, err)
		return
	}
	b.replyT(ctx, msg.Chat.ID, "reply.checked_out", map[string]any{"Time": b.clock(rec.CheckOut)})
}

func (b *Bot) handleStatus(ctx context.Context, msg *tgbotapi.Message, args string) {
	st, err := b.svc.StatusToday(ctx, msg.From.ID, args)
	if err != nil {
		b.replyErr(ctx, msg.Chat.ID, err)
		return
	}
	if !st.Assigned && st.Record == nil {
		b.replyT(ctx, msg.Chat.ID, "reply.status_unassigned", map[string]any{"Date": st.Date})
		return
	}
	data := map[string]any{
		"Date":  st.Date,
		"Shift": b.svc.Catalog().Label(st.Shift.ID),
		"In":    "-",
		"Out":   "-",
		"Delay": 0,
	}
	if r := st.Record; r != nil {
		data["In"] = b.clock(r.CheckIn)
		data["Out"] = b.clock(r.CheckOut)
		data["Delay"] = r.DelayMinutes
	}
	b.replyT(ctx, msg.Chat.ID, "reply.status", data)
}

func (b *Bot) handleNote(ctx context.Context, msg *tgbotapi.Message, args string) {
	if !b.requireApproved(ctx, msg) {
		return
	}
	if args != "" {
		b.recordNote(ctx, msg.Chat.ID, msg.From.ID, args)
		return
	}
	b.startDialog(ctx, msg.Chat.ID, msg.From.ID, dialog.KindNote, "dialog.ask_note_text", nil)
}

func (b *Bot) handleLeave(ctx context.Context, msg *tgbotapi.Message, args string) {
	if !b.requireApproved(ctx, msg) {
		return
	}
	// "/leave 2026-03-12 family visit" files the request at once.
	if date, reason, ok := strings.Cut(args, " "); ok && strings.TrimSpace(reason) != "" {
		b.requestLeave(ctx, msg.Chat.ID, msg.From.ID, date, reason)
		return
	}
	b.startDialog(ctx, msg.Chat.ID, msg.From.ID, dialog.KindLeave, "dialog.ask_leave_date", map[string]any{"Today": b.svc.Today()})
}

func (b *Bot) handleAssign(ctx context.Context, msg *tgbotapi.Message, args string) {
	actor := msg.From.ID
	if !b.requirePrivileged(ctx, msg) {
		return
	}
	fields := strings.Fields(args)
	switch len(fields) {
	case 0, 1:
		date := ""
		if len(fields) == 1 {
			date = fields[0]
		}
		date, err := b.svc.ParseDate(date)
		if err != nil {
			b.replyErr(ctx, msg.Chat.ID, err)
			return
		}
		if _, err := b.dialogs.Start(ctx, actor, dialog.KindAssign, dialog.KeyDate, date); err != nil {
			b.replyErr(ctx, msg.Chat.ID, err)
			return
		}
		b.renderEmployeePicker(ctx, pickerParams{ChatID: msg.Chat.ID, ActorID: actor})
	case 2, 3:
		empID, err1 := strconv.ParseInt(fields[0], 10, 64)
		shiftID, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil {
			b.replyT(ctx, msg.Chat.ID, "err.usage_assign", nil)
			return
		}
		date := ""
		if len(fields) == 3 {
			date = fields[2]
		}
		b.assign(ctx, msg.Chat.ID, actor, empID, shiftID, date)
	default:
		b.replyT(ctx, msg.Chat.ID, "err.usage_assign", nil)
	}
}

func (b *Bot) handlePending(ctx context.Context, msg *tgbotapi.Message, _ string) {
	list, err := b.svc.PendingEmployees(ctx, msg.From.ID)
	if err != nil {
		b.replyErr(ctx, msg.Chat.ID, err)
		return
	}
	if len(list) == 0 {
		b.replyT(ctx, msg.Chat.ID, "pending.none", nil)
		return
	}
	b.replyT(ctx, msg.Chat.ID, "pending.title", map[string]any{"Count": len(list)})
	for i := range list {
		e := &list[i]
		out := tgbotapi.NewMessage(msg.Chat.ID, i18n.T(ctx, "pending.row", map[string]any{
			"Name":   e.Label(),
			"Handle": e.Handle,
			"ID":     e.ID,
		}))
		out.ReplyMarkup = b.decisionKeyboard(ctx, workflow.ActionApprove, workflow.ActionReject, e.ID)
		b.send(ctx, out)
	}
}

func (b *Bot) handleLeaves(ctx context.Context, msg *tgbotapi.Message, _ string) {
	list, people, err := b.svc.PendingLeaves(ctx, msg.From.ID)
	if err != nil {
		b.replyErr(ctx, msg.Chat.ID, err)
		return
	}
	if len(list) == 0 {
		b.replyT(ctx, msg.Chat.ID, "leaves.none", nil)
		return
	}
	b.replyT(ctx, msg.Chat.ID, "leaves.title", map[string]any{"Count": len(list)})
	for _, r := range list {
		e := people[r.EmployeeID]
		if e.ID == 0 {
			e.ID = r.EmployeeID
		}
		out := tgbotapi.NewMessage(msg.Chat.ID, i18n.T(ctx, "leaves.row", map[string]any{
			"ID":     r.ID,
			"Name":   e.Label(),
			"Date":   r.Date,
			"Reason": r.Reason,
		}))
		out.ReplyMarkup = b.decisionKeyboard(ctx, workflow.ActionLeaveApprove, workflow.ActionLeaveReject, r.ID)
		b.send(ctx, out)
	}
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message, args string) {
	d, err := b.svc.DailyReport(ctx, args, msg.From.ID)
	if err != nil {
		b.replyErr(ctx, msg.Chat.ID, err)
		return
	}
	b.reply(ctx, msg.Chat.ID, report.Text(ctx, d, b.svc.Catalog().Location()))
}

func (b *Bot) handleExport(ctx context.Context, msg *tgbotapi.Message, args string) {
	d, err := b.svc.DailyReport(ctx, args, msg.From.ID)
	if err != nil {
		b.replyErr(ctx, msg.Chat.ID, err)
		return
	}
	data, err := report.XLSX(ctx, d, b.svc.Catalog().Location())
	if err != nil {
		b.replyErr(ctx, msg.Chat.ID, err)
		return
	}
	b.send(ctx, tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FileBytes{Name: report.FileName(d.Date), Bytes: data}))
}

func (b *Bot) handleNotes(ctx context.Context, msg *tgbotapi.Message, args string) {
	notes, people, err := b.svc.HandoverNotes(ctx, args, msg.From.ID)
	if err != nil {
		b.replyErr(ctx, msg.Chat.ID, err)
		return
	}
	date, _ := b.svc.ParseDate(args)
	if len(notes) == 0 {
		b.replyT(ctx, msg.Chat.ID, "notes.none", map[string]any{"Date": date})
		return
	}
	var sb strings.Builder
	sb.WriteString(i18n.T(ctx, "notes.title", map[string]any{"Date": date}))
	for _, n := range notes {
		e := people[n.EmployeeID]
		if e.ID == 0 {
			e.ID = n.EmployeeID
		}
		created := n.CreatedAt
		sb.WriteString("\n")
		sb.WriteString(i18n.T(ctx, "notes.row", map[string]any{
			"Time":  b.clock(&created),
			"Name":  e.Label(),
			"Shift": b.svc.Catalog().Label(n.ShiftID),
			"Text":  n.Text,
		}))
	}
	b.reply(ctx, msg.Chat.ID, sb.String())
}

func (b *Bot) handleBroadcast(ctx context.Context, msg *tgbotapi.Message, _ string) {
	if !b.requirePrivileged(ctx, msg) {
		return
	}
	if _, err := b.dialogs.Start(ctx, msg.From.ID, dialog.KindManagerNote); err != nil {
		b.replyErr(ctx, msg.Chat.ID, err)
		return
	}
	out := tgbotapi.NewMessage(msg.Chat.ID, i18n.T(ctx, "dialog.ask_manager_shift"))
	out.ReplyMarkup = b.shiftKeyboard(ctx, cbNoteShift, true)
	b.send(ctx, out)
}

func (b *Bot) startDialog(ctx context.Context, chatID, actor int64, kind dialog.Kind, promptID string, data map[string]any) {
	if _, err := b.dialogs.Start(ctx, actor, kind); err != nil {
		b.replyErr(ctx, chatID, err)
		return
	}
	b.replyT(ctx, chatID, promptID, data)
}

func (b *Bot) requireApproved(ctx context.Context, msg *tgbotapi.Message) bool {
	ok, err := b.svc.IsApproved(ctx, msg.From.ID)
	if err != nil {
		b.replyErr(ctx, msg.Chat.ID, err)
		return false
	}
	if !ok {
		b.replyErr(ctx, msg.Chat.ID, workflow.ErrNotApproved)
	}
	return ok
}

func (b *Bot) requirePrivileged(ctx context.Context, msg *tgbotapi.Message) bool {
	if b.svc.Roles().IsPrivileged(msg.From.ID) {
		return true
	}
	b.replyErr(ctx, msg.Chat.ID, workflow.ErrNotPrivileged)
	return false
}

func (b *Bot) decisionKeyboard(ctx context.Context, approve, reject string, id int64) tgbotapi.InlineKeyboardMarkup {
	return inlineKeyboard([][]notify.Button{{
		{Label: i18n.T(ctx, "button.approve"), Action: workflow.CallbackData(approve, id)},
		{Label: i18n.T(ctx, "button.reject"), Action: workflow.CallbackData(reject, id)},
	}})
}

func (b *Bot) employeeName(ctx context.Context, id int64) string {
	e, err := b.svc.Employee(ctx, id)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int64("employee_id", id).Msg("failed to load employee")
	}
	if e == nil {
		e = &model.Employee{ID: id}
	}
	return e.Label()
}

func (b *Bot) shiftTarget(ctx context.Context, shiftID int) string {
	if shiftID == 0 {
		return i18n.T(ctx, "shift.all")
	}
	return b.svc.Catalog().Label(shiftID)
}
