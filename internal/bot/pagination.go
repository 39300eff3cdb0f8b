package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hozur/internal/i18n"
)

type pickerParams struct {
	ChatID    int64
	ActorID   int64
	MessageID int // 0 if new message
	Page      int
}

// renderEmployeePicker lists approved employees one page at a time for the
// assign dialog.
func (b *Bot) renderEmployeePicker(ctx context.Context, params pickerParams) {
	items, err := b.svc.ApprovedEmployees(ctx, params.ActorID)
	if err != nil {
		b.replyErr(ctx, params.ChatID, err)
		return
	}
	if len(items) == 0 {
		b.finishDialog(ctx, params.ActorID)
		b.replyT(ctx, params.ChatID, "picker.empty", nil)
		return
	}

	perPage := b.pageSize
	pages := (len(items) + perPage - 1) / perPage
	if params.Page < 0 {
		params.Page = 0
	}
	if params.Page >= pages {
		params.Page = pages - 1
	}
	startIdx := params.Page * perPage
	endIdx := startIdx + perPage
	if endIdx > len(items) {
		endIdx = len(items)
	}

	var message strings.Builder
	message.WriteString(i18n.T(ctx, "dialog.ask_employee"))
	message.WriteString("\n\n")
	message.WriteString(i18n.T(ctx, "picker.page", map[string]any{"Page": params.Page + 1, "Pages": pages}))

	var keyboard [][]tgbotapi.InlineKeyboardButton
	for i, item := range items[startIdx:endIdx] {
		btn := tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%d. %s", startIdx+i+1, item.Label()),
			callbackData(cbAssignEmployee, item.ID),
		)
		keyboard = append(keyboard, tgbotapi.NewInlineKeyboardRow(btn))
	}

	var navButtons []tgbotapi.InlineKeyboardButton
	if params.Page > 0 {
		navButtons = append(navButtons, tgbotapi.NewInlineKeyboardButtonData(i18n.T(ctx, "picker.prev"), callbackData(cbAssignPage, int64(params.Page-1))))
	}
	if endIdx < len(items) {
		navButtons = append(navButtons, tgbotapi.NewInlineKeyboardButtonData(i18n.T(ctx, "picker.next"), callbackData(cbAssignPage, int64(params.Page+1))))
	}
	if len(navButtons) > 0 {
		keyboard = append(keyboard, navButtons)
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(keyboard...)

	if params.MessageID != 0 {
		b.send(ctx, tgbotapi.NewEditMessageTextAndMarkup(params.ChatID, params.MessageID, message.String(), markup))
		return
	}
	msg := tgbotapi.NewMessage(params.ChatID, message.String())
	msg.ReplyMarkup = markup
	b.send(ctx, msg)
}
