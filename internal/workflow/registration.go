package workflow

import (
	"context"
	"fmt"
	"strings"

	"hozur/internal/metrics"
	"hozur/internal/model"
	"hozur/shared/notify"
)

// Register creates or refreshes the employee record and restarts approval.
// Privileged identities are stored as approved and no notice is sent.
func (s *Service) Register(ctx context.Context, employeeID int64, handle, displayName string) (*model.Employee, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, ErrEmptyName
	}
	e := &model.Employee{ID: employeeID, Handle: strings.TrimPrefix(handle, "@"), DisplayName: displayName}
	if err := s.store.UpsertEmployee(ctx, e); err != nil {
		return nil, fmt.Errorf("upsert employee: %w", err)
	}

	if s.roles.IsPrivileged(employeeID) {
		if _, err := s.store.TransitionEmployee(ctx, employeeID, model.StatusPending, model.StatusApproved); err != nil {
			return nil, fmt.Errorf("approve privileged: %w", err)
		}
		e.Status = model.StatusApproved
		s.log(ctx).Info().Int64("employee_id", employeeID).Msg("privileged identity registered")
		return e, nil
	}

	s.log(ctx).Info().Int64("employee_id", employeeID).Str("name", displayName).Msg("registration pending")

	msg := message("notify.registration", map[string]any{
		"Name":   e.Label(),
		"Handle": e.Handle,
		"ID":     employeeID,
	})
	msg.Buttons = decisionButtons(ActionApprove, ActionReject, employeeID)
	s.notifier.Broadcast(ctx, notify.KindRegistration, s.roles.Privileged(), msg)
	return e, nil
}

// Approve moves a pending employee to approved and tells them.
func (s *Service) Approve(ctx context.Context, employeeID, actingID int64) (*model.Employee, error) {
	return s.decideRegistration(ctx, employeeID, actingID, model.DecisionApprove)
}

// Reject moves a pending employee to rejected and tells them.
func (s *Service) Reject(ctx context.Context, employeeID, actingID int64) (*model.Employee, error) {
	return s.decideRegistration(ctx, employeeID, actingID, model.DecisionReject)
}

func (s *Service) decideRegistration(ctx context.Context, employeeID, actingID int64, d model.Decision) (*model.Employee, error) {
	if err := s.requirePrivileged(actingID); err != nil {
		return nil, err
	}
	e, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	if e == nil {
		return nil, ErrEmployeeNotFound
	}

	ok, err := s.store.TransitionEmployee(ctx, employeeID, model.StatusPending, d.Status())
	if err != nil {
		return nil, fmt.Errorf("transition employee: %w", err)
	}
	if !ok {
		return e, ErrAlreadyResolved
	}
	e.Status = d.Status()
	metrics.IncRegistrationDecision(string(d))

	s.log(ctx).Info().
		Int64("employee_id", employeeID).
		Int64("acting_id", actingID).
		Str("decision", string(d)).
		Msg("registration resolved")

	s.notifier.Notify(ctx, notify.KindApproval, employeeID, message("notify.registration_"+string(d), map[string]any{
		"Name": e.Label(),
	}))
	return e, nil
}

// IsApproved reports whether employeeID may use attendance actions.
func (s *Service) IsApproved(ctx context.Context, employeeID int64) (bool, error) {
	if s.roles.IsPrivileged(employeeID) {
		return true, nil
	}
	e, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return false, fmt.Errorf("get employee: %w", err)
	}
	return e != nil && e.Status == model.StatusApproved, nil
}

// Employee returns the stored record of id, or nil.
func (s *Service) Employee(ctx context.Context, id int64) (*model.Employee, error) {
	return s.store.GetEmployee(ctx, id)
}

// PendingEmployees lists registrations awaiting a decision.
func (s *Service) PendingEmployees(ctx context.Context, actingID int64) ([]model.Employee, error) {
	if err := s.requirePrivileged(actingID); err != nil {
		return nil, err
	}
	return s.store.ListEmployees(ctx, model.StatusPending)
}

// ApprovedEmployees lists the employees that can be assigned shifts.
func (s *Service) ApprovedEmployees(ctx context.Context, actingID int64) ([]model.Employee, error) {
	if err := s.requirePrivileged(actingID); err != nil {
		return nil, err
	}
	return s.store.ListEmployees(ctx, model.StatusApproved)
}
