package workflow

import (
	"context"
	"fmt"

	"hozur/internal/model"
	"hozur/shared/notify"
)

// AssignShift sets the shift of an employee for a date, replacing any earlier
// assignment of that day.
func (s *Service) AssignShift(ctx context.Context, employeeID int64, date string, shiftID int, actingID int64) (*model.Assignment, error) {
	if err := s.requirePrivileged(actingID); err != nil {
		return nil, err
	}
	if !s.catalog.Has(shiftID) {
		return nil, ErrUnknownShift
	}
	date, err := s.ParseDate(date)
	if err != nil {
		return nil, err
	}

	e, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	if e == nil && !s.roles.IsPrivileged(employeeID) {
		return nil, ErrEmployeeNotFound
	}
	if e != nil && e.Status != model.StatusApproved && !s.roles.IsPrivileged(employeeID) {
		return nil, ErrAssigneeNotApproved
	}

	a := &model.Assignment{EmployeeID: employeeID, Date: date, ShiftID: shiftID, AssignedBy: actingID}
	if err := s.store.UpsertAssignment(ctx, a); err != nil {
		return nil, fmt.Errorf("upsert assignment: %w", err)
	}

	s.log(ctx).Info().
		Int64("employee_id", employeeID).
		Str("date", date).
		Int("shift_id", shiftID).
		Int64("acting_id", actingID).
		Msg("shift assigned")

	s.notifier.Notify(ctx, notify.KindAssignment, employeeID, message("notify.assignment", map[string]any{
		"Date":  date,
		"Shift": s.catalog.Label(shiftID),
	}))
	return a, nil
}

// AssignedShift returns the shift assigned to employeeID on date.
func (s *Service) AssignedShift(ctx context.Context, employeeID int64, date string) (model.Shift, bool, error) {
	a, err := s.store.GetAssignment(ctx, employeeID, date)
	if err != nil {
		return model.Shift{}, false, fmt.Errorf("get assignment: %w", err)
	}
	if a == nil {
		return model.Shift{}, false, nil
	}
	sh, ok := s.catalog.Get(a.ShiftID)
	if !ok {
		sh = model.Shift{ID: a.ShiftID}
	}
	return sh, true, nil
}
