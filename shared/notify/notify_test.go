package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, to int64, msg Message) error {
	args := m.Called(ctx, to, msg)
	return args.Error(0)
}

func newTestDispatcher(s Sender) *Dispatcher {
	return NewDispatcher(s, Config{RatePerSecond: 1000, Burst: 100}, zerolog.New(io.Discard))
}

func TestBroadcastContinuesPastFailures(t *testing.T) {
	s := new(mockSender)
	msg := Message{Text: "late"}
	s.On("Send", mock.Anything, int64(1), msg).Return(nil).Once()
	s.On("Send", mock.Anything, int64(2), msg).Return(&tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}).Once()
	s.On("Send", mock.Anything, int64(3), msg).Return(nil).Once()

	rep := newTestDispatcher(s).Broadcast(context.Background(), KindLateAlert, []int64{1, 2, 3, 1}, msg)

	assert.Equal(t, Report{Kind: KindLateAlert, Attempted: 3, Delivered: 2, Failed: 1}, rep)
	s.AssertExpectations(t)
}

func TestBroadcastEmpty(t *testing.T) {
	s := new(mockSender)
	rep := newTestDispatcher(s).Broadcast(context.Background(), KindNightlyReport, nil, Message{Text: "x"})
	assert.Zero(t, rep.Attempted)
	s.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestNotifyReportsDelivery(t *testing.T) {
	s := new(mockSender)
	s.On("Send", mock.Anything, int64(7), mock.Anything).Return(errors.New("network down")).Once()
	s.On("Send", mock.Anything, int64(8), mock.Anything).Return(nil).Once()

	d := newTestDispatcher(s)
	assert.False(t, d.Notify(context.Background(), KindApproval, 7, Message{Text: "hi"}))
	assert.True(t, d.Notify(context.Background(), KindApproval, 8, Message{Text: "hi"}))
	s.AssertExpectations(t)
}

func TestNotifyWithCancelledContextDoesNotSend(t *testing.T) {
	s := new(mockSender)
	d := NewDispatcher(s, Config{RatePerSecond: 0.001, Burst: 1}, zerolog.New(io.Discard))

	s.On("Send", mock.Anything, int64(1), mock.Anything).Return(nil).Once()
	assert.True(t, d.Notify(context.Background(), KindReminder, 1, Message{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, d.Notify(ctx, KindReminder, 1, Message{}))
	s.AssertNumberOfCalls(t, "Send", 1)
}

func TestNilSenderNeverPanics(t *testing.T) {
	d := newTestDispatcher(nil)
	rep := d.Broadcast(context.Background(), KindDelay, []int64{1}, Message{Text: "x"})
	assert.Equal(t, 1, rep.Failed)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, StatusDelivered},
		{"blocked", &tgbotapi.Error{Code: 403}, StatusBlocked},
		{"wrapped rate limit", fmt.Errorf("send: %w", &tgbotapi.Error{Code: 429}), StatusRateLimited},
		{"bad request", &tgbotapi.Error{Code: 400}, StatusBadRequest},
		{"cancelled", fmt.Errorf("rate limiter: %w", context.Canceled), StatusCancelled},
		{"other", errors.New("boom"), StatusFailed},
		{"server", &tgbotapi.Error{Code: 502}, StatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
