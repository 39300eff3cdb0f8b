package bot

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hozur/internal/i18n"
	"hozur/shared/notify"
)

// Callback prefixes of the bot's own inline keyboards. Decision callbacks use
// the workflow action names.
const (
	cbAssignEmployee = "assign_emp"
	cbAssignPage     = "assign_page"
	cbAssignShift    = "assign_shift"
	cbNoteShift      = "note_shift"
)

var menuActions = []string{
	"checkin", "checkout", "status", "note", "leave", "register", "help",
	"report", "broadcast", "notes", "pending", "leaves", "assign", "export",
}

var (
	employeeRows = [][]string{
		{"checkin", "checkout"},
		{"status", "note"},
		{"leave", "help"},
	}
	guestRows = [][]string{
		{"register", "help"},
	}
	managerRows = [][]string{
		{"report", "broadcast"},
		{"notes", "pending"},
		{"leaves", "assign"},
		{"checkin", "checkout"},
		{"export", "help"},
	}
)

// buildMenuIndex maps the menu label of every locale to its action, so a
// button pressed under one language still works after a switch.
func buildMenuIndex() map[string]string {
	out := make(map[string]string)
	for _, loc := range i18n.Locales() {
		ctx := i18n.WithLocale(context.Background(), loc)
		for _, a := range menuActions {
			out[i18n.T(ctx, "menu."+a)] = a
		}
	}
	return out
}

func replyKeyboard(ctx context.Context, rows [][]string) tgbotapi.ReplyKeyboardMarkup {
	kb := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, a := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(i18n.T(ctx, "menu."+a)))
		}
		kb = append(kb, tgbotapi.NewKeyboardButtonRow(buttons...))
	}
	return tgbotapi.NewReplyKeyboard(kb...)
}

func inlineKeyboard(rows [][]notify.Button) tgbotapi.InlineKeyboardMarkup {
	kb := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Action))
		}
		kb = append(kb, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(kb...)
}

func callbackData(prefix string, id int64) string {
	return prefix + ":" + strconv.FormatInt(id, 10)
}

// shiftKeyboard lists every shift, and an "all shifts" entry with id 0 when withAll is set.
func (b *Bot) shiftKeyboard(ctx context.Context, prefix string, withAll bool) tgbotapi.InlineKeyboardMarkup {
	cat := b.svc.Catalog()
	var rows [][]notify.Button
	for _, id := range cat.IDs() {
		rows = append(rows, []notify.Button{{Label: cat.Label(id), Action: callbackData(prefix, int64(id))}})
	}
	if withAll {
		rows = append(rows, []notify.Button{{Label: i18n.T(ctx, "shift.all"), Action: callbackData(prefix, 0)}})
	}
	return inlineKeyboard(rows)
}
