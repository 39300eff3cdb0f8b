package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hozur/internal/metrics"
	"hozur/internal/model"
	"hozur/shared/notify"
)

// RequestLeave files a pending leave request for a day that is not in the past
// and asks every privileged identity to decide.
func (s *Service) RequestLeave(ctx context.Context, employeeID int64, date, reason string) (*model.LeaveRequest, error) {
	e, err := s.requireApproved(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	date, err = s.LeaveDate(date)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrEmptyText
	}

	r := &model.LeaveRequest{Date: date, EmployeeID: employeeID, Reason: reason, CreatedAt: s.now()}
	if err := s.store.CreateLeaveRequest(ctx, r); err != nil {
		return nil, fmt.Errorf("create leave request: %w", err)
	}
	s.log(ctx).Info().Int64("employee_id", employeeID).Int64("leave_id", r.ID).Str("date", r.Date).Msg("leave requested")

	msg := message("notify.leave_request", map[string]any{
		"ID":     r.ID,
		"Name":   e.Label(),
		"Date":   r.Date,
		"Reason": reason,
	})
	msg.Buttons = decisionButtons(ActionLeaveApprove, ActionLeaveReject, r.ID)
	s.notifier.Broadcast(ctx, notify.KindLeaveRequest, s.roles.Privileged(), msg)
	return r, nil
}

// LeaveDate validates a requested leave day: YYYY-MM-DD and not before today.
func (s *Service) LeaveDate(v string) (string, error) {
	d, err := time.ParseInLocation(model.DateLayout, strings.TrimSpace(v), s.catalog.Location())
	if err != nil {
		return "", ErrInvalidDate
	}
	date := d.Format(model.DateLayout)
	if date < s.Today() {
		return "", ErrDateInPast
	}
	return date, nil
}

// ResolveLeave approves or rejects a pending leave request and tells the employee.
func (s *Service) ResolveLeave(ctx context.Context, requestID, actingID int64, d model.Decision) (*model.LeaveRequest, error) {
	if err := s.requirePrivileged(actingID); err != nil {
		return nil, err
	}
	if !d.Valid() {
		return nil, ErrInvalidChoice
	}
	r, err := s.store.GetLeaveRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get leave request: %w", err)
	}
	if r == nil {
		return nil, ErrLeaveNotFound
	}

	now := s.now()
	ok, err := s.store.ResolveLeaveRequest(ctx, requestID, d.Status(), actingID, now)
	if err != nil {
		return nil, fmt.Errorf("resolve leave request: %w", err)
	}
	if !ok {
		return r, ErrAlreadyResolved
	}
	r.Status = d.Status()
	r.ResolvedBy = actingID
	r.ResolvedAt = &now
	metrics.IncLeaveDecision(string(d))

	s.log(ctx).Info().
		Int64("leave_id", requestID).
		Int64("acting_id", actingID).
		Str("decision", string(d)).
		Msg("leave resolved")

	s.notifier.Notify(ctx, notify.KindLeaveDecision, r.EmployeeID, message("notify.leave_"+string(d), map[string]any{
		"ID":   r.ID,
		"Date": r.Date,
	}))
	return r, nil
}

// PendingLeaves lists leave requests awaiting a decision.
func (s *Service) PendingLeaves(ctx context.Context, actingID int64) ([]model.LeaveRequest, map[int64]model.Employee, error) {
	if err := s.requirePrivileged(actingID); err != nil {
		return nil, nil, err
	}
	list, err := s.store.ListLeaveRequests(ctx, "")
	if err != nil {
		return nil, nil, fmt.Errorf("list leave requests: %w", err)
	}
	ids := make([]int64, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.EmployeeID)
	}
	people, err := s.store.EmployeesByID(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("load employees: %w", err)
	}
	return list, people, nil
}
