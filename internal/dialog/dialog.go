// Package dialog tracks multi-step conversations as a small state machine.
// Each actor has at most one active session; starting another kind replaces it.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"hozur/internal/apperr"
	"hozur/internal/metrics"
)

type Kind string

const (
	KindRegister    Kind = "register"
	KindNote        Kind = "note"
	KindLeave       Kind = "leave"
	KindAssign      Kind = "assign"
	KindManagerNote Kind = "manager_note"
)

type State string

const (
	StateIdle            State = "idle"
	StateAskName         State = "ask_name"
	StateAskNoteText     State = "ask_note_text"
	StateAskLeaveDate    State = "ask_leave_date"
	StateAskLeaveReason  State = "ask_leave_reason"
	StateAskEmployee     State = "ask_employee"
	StateAskShift        State = "ask_shift"
	StateAskManagerShift State = "ask_manager_shift"
	StateAskManagerText  State = "ask_manager_text"
)

// Session data keys.
const (
	KeyDate       = "date"
	KeyEmployeeID = "employee_id"
	KeyShiftID    = "shift_id"
)

var (
	ErrSessionExpired    = apperr.New(apperr.KindInvalidState, "err.dialog_expired", "dialog expired")
	ErrInvalidTransition = errors.New("invalid dialog transition")
	ErrUnknownKind       = errors.New("unknown dialog kind")
)

var initialStates = map[Kind]State{
	KindRegister:    StateAskName,
	KindNote:        StateAskNoteText,
	KindLeave:       StateAskLeaveDate,
	KindAssign:      StateAskEmployee,
	KindManagerNote: StateAskManagerShift,
}

// transitions lists the states reachable from each state within a kind.
// Every state can also go back to idle through Finish or Cancel.
var transitions = map[Kind]map[State][]State{
	KindRegister: {},
	KindNote:     {},
	KindLeave: {
		StateAskLeaveDate: {StateAskLeaveReason},
	},
	KindAssign: {
		StateAskEmployee: {StateAskShift},
	},
	KindManagerNote: {
		StateAskManagerShift: {StateAskManagerText},
	},
}

type Session struct {
	ActorID   int64             `json:"actor_id"`
	Kind      Kind              `json:"kind"`
	State     State             `json:"state"`
	Data      map[string]string `json:"data,omitempty"`
	StartedAt time.Time         `json:"started_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Get returns a data value, "" when unset.
func (s *Session) Get(key string) string {
	if s == nil || s.Data == nil {
		return ""
	}
	return s.Data[key]
}

func (s *Session) set(kv []string) {
	if s.Data == nil {
		s.Data = make(map[string]string)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		s.Data[kv[i]] = kv[i+1]
	}
}

// Store persists sessions by actor. Get returns nil, nil for a missing session.
type Store interface {
	Get(ctx context.Context, actorID int64) (*Session, error)
	Put(ctx context.Context, s *Session, ttl time.Duration) error
	Delete(ctx context.Context, actorID int64) error
}

// Machine drives sessions through the transition table and expires idle ones.
type Machine struct {
	store   Store
	timeout time.Duration
	logger  zerolog.Logger
	now     func() time.Time
}

func NewMachine(store Store, timeout time.Duration, logger zerolog.Logger) *Machine {
	return &Machine{
		store:   store,
		timeout: timeout,
		logger:  logger.With().Str("component", "dialog").Logger(),
		now:     time.Now,
	}
}

// Start opens a session of kind for the actor at its first state, replacing any
// active session. kv pairs seed the session data.
func (m *Machine) Start(ctx context.Context, actorID int64, kind Kind, kv ...string) (*Session, error) {
	state, ok := initialStates[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	now := m.now()
	s := &Session{
		ActorID:   actorID,
		Kind:      kind,
		State:     state,
		Data:      make(map[string]string),
		StartedAt: now,
		UpdatedAt: now,
	}
	s.set(kv)
	if err := m.store.Put(ctx, s, m.retention()); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	m.logger.Debug().Int64("actor_id", actorID).Str("kind", string(kind)).Msg("dialog started")
	return s, nil
}

// Current returns the active session, nil when there is none. A session idle
// for longer than the timeout is discarded and ErrSessionExpired returned.
func (m *Machine) Current(ctx context.Context, actorID int64) (*Session, error) {
	s, err := m.store.Get(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s == nil || s.State == StateIdle {
		return nil, nil
	}
	if m.timeout > 0 && m.now().Sub(s.UpdatedAt) > m.timeout {
		if err := m.store.Delete(ctx, actorID); err != nil {
			m.logger.Warn().Err(err).Int64("actor_id", actorID).Msg("failed to drop expired session")
		}
		metrics.IncDialogTimeout()
		return nil, ErrSessionExpired
	}
	return s, nil
}

// Advance moves s to next, merging kv pairs into its data.
func (m *Machine) Advance(ctx context.Context, s *Session, next State, kv ...string) error {
	if !allowed(s.Kind, s.State, next) {
		return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, s.Kind, s.State, next)
	}
	s.set(kv)
	s.State = next
	s.UpdatedAt = m.now()
	if err := m.store.Put(ctx, s, m.retention()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Finish ends the actor's session after its last step.
func (m *Machine) Finish(ctx context.Context, actorID int64) error {
	if err := m.store.Delete(ctx, actorID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Cancel ends the actor's session and reports whether one was active.
func (m *Machine) Cancel(ctx context.Context, actorID int64) (bool, error) {
	s, err := m.store.Get(ctx, actorID)
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	if s == nil {
		return false, nil
	}
	if err := m.Finish(ctx, actorID); err != nil {
		return false, err
	}
	m.logger.Debug().Int64("actor_id", actorID).Str("kind", string(s.Kind)).Msg("dialog cancelled")
	return true, nil
}

// retention keeps stored sessions past the timeout so Current can tell an
// expired dialog from one that never existed.
func (m *Machine) retention() time.Duration {
	return 2 * m.timeout
}

func allowed(kind Kind, from, to State) bool {
	for _, s := range transitions[kind][from] {
		if s == to {
			return true
		}
	}
	return false
}
