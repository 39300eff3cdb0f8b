// Package workflow is the attendance engine: registration approval, shift
// assignment, check-in/out, handover notes, leave and the scheduled job bodies.
//
// Every operation validates the actor, mutates the store through a single
// guarded statement or transaction, and then notifies the recipients. A
// notification failure never fails the operation.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"hozur/internal/model"
	"hozur/internal/shifts"
	"hozur/shared/access"
	"hozur/shared/notify"
)

// Store is the persistence the engine needs. *database.DB implements it.
type Store interface {
	UpsertEmployee(ctx context.Context, e *model.Employee) error
	GetEmployee(ctx context.Context, id int64) (*model.Employee, error)
	TransitionEmployee(ctx context.Context, id int64, from, to model.Status) (bool, error)
	ListEmployees(ctx context.Context, status model.Status) ([]model.Employee, error)
	EmployeesByID(ctx context.Context, ids []int64) (map[int64]model.Employee, error)

	UpsertAssignment(ctx context.Context, a *model.Assignment) error
	GetAssignment(ctx context.Context, employeeID int64, date string) (*model.Assignment, error)
	ListAssignments(ctx context.Context, date string, shiftID int) ([]model.Assignment, error)

	InsertCheckIn(ctx context.Context, r *model.AttendanceRecord) (bool, error)
	SetCheckOut(ctx context.Context, employeeID int64, date string, at time.Time) (*model.AttendanceRecord, bool, error)
	GetAttendance(ctx context.Context, employeeID int64, date string) (*model.AttendanceRecord, error)
	ListAttendance(ctx context.Context, date string) ([]model.AttendanceRecord, error)

	AddHandoverNote(ctx context.Context, n *model.HandoverNote) error
	LatestHandoverNote(ctx context.Context, date string) (*model.HandoverNote, error)
	ListHandoverNotes(ctx context.Context, date string) ([]model.HandoverNote, error)
	AddManagerNote(ctx context.Context, n *model.ManagerNote) error
	LatestManagerNote(ctx context.Context, date string, shiftID int) (*model.ManagerNote, error)

	CreateLeaveRequest(ctx context.Context, r *model.LeaveRequest) error
	GetLeaveRequest(ctx context.Context, id int64) (*model.LeaveRequest, error)
	ResolveLeaveRequest(ctx context.Context, id int64, status model.Status, by int64, at time.Time) (bool, error)
	ListLeaveRequests(ctx context.Context, date string) ([]model.LeaveRequest, error)
	OnApprovedLeave(ctx context.Context, date string) (map[int64]struct{}, error)
}

// Notifier delivers notifications. *notify.Dispatcher implements it.
type Notifier interface {
	Notify(ctx context.Context, kind notify.Kind, to int64, msg notify.Message) bool
	Broadcast(ctx context.Context, kind notify.Kind, recipients []int64, msg notify.Message) notify.Report
}

// Options tunes the engine.
type Options struct {
	// NotesRequireAssignment rejects handover notes from employees without an
	// assignment for the day. When false the note's shift is the current one.
	NotesRequireAssignment bool
	// AttachXLSX adds the workbook to the nightly report.
	AttachXLSX bool
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Service is the workflow engine.
type Service struct {
	store    Store
	roles    *access.Registry
	catalog  *shifts.Catalog
	notifier Notifier
	logger   zerolog.Logger
	opts     Options
	now      func() time.Time
}

// New creates the engine.
func New(store Store, roles *access.Registry, catalog *shifts.Catalog, notifier Notifier, logger zerolog.Logger, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:    store,
		roles:    roles,
		catalog:  catalog,
		notifier: notifier,
		logger:   logger.With().Str("component", "workflow").Logger(),
		opts:     opts,
		now:      now,
	}
}

// Catalog returns the shift catalog.
func (s *Service) Catalog() *shifts.Catalog {
	return s.catalog
}

// Roles returns the role registry.
func (s *Service) Roles() *access.Registry {
	return s.roles
}

// Now returns the engine clock in the catalog location.
func (s *Service) Now() time.Time {
	return s.now().In(s.catalog.Location())
}

// Today returns the calendar date of the engine clock.
func (s *Service) Today() string {
	return s.Now().Format(model.DateLayout)
}

// ParseDate validates a YYYY-MM-DD date. An empty value means today.
func (s *Service) ParseDate(v string) (string, error) {
	if v == "" {
		return s.Today(), nil
	}
	d, err := time.ParseInLocation(model.DateLayout, v, s.catalog.Location())
	if err != nil {
		return "", ErrInvalidDate
	}
	return d.Format(model.DateLayout), nil
}

func (s *Service) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.logger
}

func (s *Service) requirePrivileged(actingID int64) error {
	if !s.roles.IsPrivileged(actingID) {
		return ErrNotPrivileged
	}
	return nil
}

// requireApproved loads the actor and fails unless it may use attendance actions.
// Privileged actors pass even without an employee record.
func (s *Service) requireApproved(ctx context.Context, id int64) (*model.Employee, error) {
	e, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	if s.roles.IsPrivileged(id) {
		if e == nil {
			e = &model.Employee{ID: id, Status: model.StatusApproved}
		}
		return e, nil
	}
	if e == nil || e.Status != model.StatusApproved {
		return nil, ErrNotApproved
	}
	return e, nil
}

func (s *Service) employeeLabel(ctx context.Context, id int64) string {
	e, err := s.store.GetEmployee(ctx, id)
	if err != nil || e == nil {
		return (&model.Employee{ID: id}).Label()
	}
	return e.Label()
}
