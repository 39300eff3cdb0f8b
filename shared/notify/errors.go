package notify

import (
	"context"
	"errors"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Delivery statuses used as metric labels.
const (
	StatusDelivered   = "delivered"
	StatusBlocked     = "blocked"
	StatusRateLimited = "rate_limited"
	StatusBadRequest  = "bad_request"
	StatusCancelled   = "cancelled"
	StatusFailed      = "failed"
)

// Classify maps a send error to a delivery status.
func Classify(err error) string {
	if err == nil {
		return StatusDelivered
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return StatusCancelled
	}

	var tgErr *tgbotapi.Error
	if !errors.As(err, &tgErr) {
		return StatusFailed
	}
	switch tgErr.Code {
	case http.StatusForbidden:
		return StatusBlocked
	case http.StatusTooManyRequests:
		return StatusRateLimited
	case http.StatusBadRequest:
		return StatusBadRequest
	default:
		return StatusFailed
	}
}
