package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"hozur/internal/metrics"
)

// Kind labels a notification for logs and metrics.
type Kind string

const (
	KindRegistration  Kind = "registration"
	KindApproval      Kind = "approval"
	KindAssignment    Kind = "assignment"
	KindDelay         Kind = "delay"
	KindCheckOut      Kind = "checkout"
	KindHandover      Kind = "handover_note"
	KindLeaveRequest  Kind = "leave_request"
	KindLeaveDecision Kind = "leave_decision"
	KindManagerNote   Kind = "manager_note"
	KindReminder      Kind = "shift_reminder"
	KindLateAlert     Kind = "late_alert"
	KindNightlyReport Kind = "nightly_report"
)

// Button is an inline action attached to a message. Action is the callback
// payload, e.g. "approve:42".
type Button struct {
	Label  string
	Action string
}

// Document is a file sent after the message text.
type Document struct {
	Name string
	Data []byte
}

// Message is a transport-neutral outbound message.
type Message struct {
	Text     string
	Buttons  [][]Button
	Document *Document
}

// Sender delivers a message to one recipient.
type Sender interface {
	Send(ctx context.Context, to int64, msg Message) error
}

// Config holds the outbound throttle.
type Config struct {
	// RatePerSecond is the sustained number of sends per second.
	RatePerSecond float64
	// Burst is the number of sends allowed back to back.
	Burst int
}

// DefaultConfig returns the default throttle, below Telegram's 30 msg/s limit.
func DefaultConfig() Config {
	return Config{RatePerSecond: 25, Burst: 5}
}

// Report summarises one fan-out.
type Report struct {
	Kind      Kind
	Attempted int
	Delivered int
	Failed    int
}

// Dispatcher sends notifications without ever failing the caller. Every
// recipient is attempted independently; failures are logged and counted.
type Dispatcher struct {
	sender  Sender
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewDispatcher creates a dispatcher over sender.
func NewDispatcher(sender Sender, cfg Config, logger zerolog.Logger) *Dispatcher {
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = DefaultConfig().RatePerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultConfig().Burst
	}
	return &Dispatcher{
		sender:  sender,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		logger:  logger.With().Str("component", "notify").Logger(),
	}
}

// Notify sends msg to one recipient and reports whether it was delivered.
func (d *Dispatcher) Notify(ctx context.Context, kind Kind, to int64, msg Message) bool {
	if err := d.send(ctx, to, msg); err != nil {
		status := Classify(err)
		metrics.IncNotification(string(kind), status)
		d.log(ctx).Warn().Err(err).
			Str("kind", string(kind)).
			Int64("recipient", to).
			Str("status", status).
			Msg("notification not delivered")
		return false
	}
	metrics.IncNotification(string(kind), StatusDelivered)
	return true
}

// Broadcast sends msg to every distinct recipient in order.
func (d *Dispatcher) Broadcast(ctx context.Context, kind Kind, recipients []int64, msg Message) Report {
	rep := Report{Kind: kind}
	seen := make(map[int64]struct{}, len(recipients))
	for _, to := range recipients {
		if _, dup := seen[to]; dup {
			continue
		}
		seen[to] = struct{}{}

		rep.Attempted++
		if d.Notify(ctx, kind, to, msg) {
			rep.Delivered++
		} else {
			rep.Failed++
		}
	}

	ev := d.log(ctx).Info()
	if rep.Failed > 0 {
		ev = d.log(ctx).Warn()
	}
	ev.Str("kind", string(kind)).
		Int("attempted", rep.Attempted).
		Int("delivered", rep.Delivered).
		Int("failed", rep.Failed).
		Msg("broadcast finished")
	return rep
}

func (d *Dispatcher) send(ctx context.Context, to int64, msg Message) error {
	if d.sender == nil {
		return fmt.Errorf("no sender configured")
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return d.sender.Send(ctx, to, msg)
}

func (d *Dispatcher) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &d.logger
}
