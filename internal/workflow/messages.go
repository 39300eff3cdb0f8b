package workflow

import (
	"context"
	"strconv"
	"time"

	"hozur/internal/i18n"
	"hozur/shared/notify"
)

// Callback actions carried by inline buttons.
const (
	ActionApprove      = "approve"
	ActionReject       = "reject"
	ActionLeaveApprove = "leave_approve"
	ActionLeaveReject  = "leave_reject"
)

// CallbackData renders "action:id".
func CallbackData(action string, id int64) string {
	return action + ":" + strconv.FormatInt(id, 10)
}

// Outbound notifications are rendered in the default locale; the recipient is
// not the actor whose request carries a locale.
func text(id string, data map[string]any) string {
	return i18n.T(context.Background(), id, data)
}

func message(id string, data map[string]any) notify.Message {
	return notify.Message{Text: text(id, data)}
}

func decisionButtons(approve, reject string, id int64) [][]notify.Button {
	return [][]notify.Button{{
		{Label: text("button.approve", nil), Action: CallbackData(approve, id)},
		{Label: text("button.reject", nil), Action: CallbackData(reject, id)},
	}}
}

func clock(t time.Time) string {
	return t.Format("15:04")
}
