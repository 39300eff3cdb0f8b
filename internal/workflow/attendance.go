package workflow

import (
	"context"
	"fmt"
	"time"

	"hozur/internal/metrics"
	"hozur/internal/model"
	"hozur/shared/notify"
)

// CheckInResult is what the employee sees after a successful check-in.
type CheckInResult struct {
	Record      *model.AttendanceRecord
	Shift       model.Shift
	ManagerNote *model.ManagerNote
	Previous    PreviousNotes
}

// Status is the read-only projection of one employee's day.
type Status struct {
	Date     string
	Assigned bool
	Shift    model.Shift
	Record   *model.AttendanceRecord
}

// delayMinutes floors the minutes between start and now at zero.
func delayMinutes(now, start time.Time) int {
	if !now.After(start) {
		return 0
	}
	return int(now.Sub(start) / time.Minute)
}

// CheckIn records the first check-in of the day against the assigned shift.
func (s *Service) CheckIn(ctx context.Context, employeeID int64) (*CheckInResult, error) {
	e, err := s.requireApproved(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	date := now.Format(model.DateLayout)

	a, err := s.store.GetAssignment(ctx, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	if a == nil {
		return nil, ErrNoAssignment
	}
	start, err := s.catalog.Start(date, a.ShiftID)
	if err != nil {
		return nil, ErrUnknownShift
	}

	rec := &model.AttendanceRecord{
		Date:         date,
		EmployeeID:   employeeID,
		ShiftID:      a.ShiftID,
		CheckIn:      &now,
		DelayMinutes: delayMinutes(now, start),
	}
	inserted, err := s.store.InsertCheckIn(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("insert check-in: %w", err)
	}
	if !inserted {
		return nil, ErrAlreadyCheckedIn
	}
	metrics.ObserveCheckIn(rec.DelayMinutes)

	s.log(ctx).Info().
		Int64("employee_id", employeeID).
		Int("shift_id", a.ShiftID).
		Int("delay_minutes", rec.DelayMinutes).
		Msg("checked in")

	sh, _ := s.catalog.Get(a.ShiftID)
	res := &CheckInResult{Record: rec, Shift: sh}
	if res.ManagerNote, err = s.store.LatestManagerNote(ctx, date, a.ShiftID); err != nil {
		s.log(ctx).Warn().Err(err).Msg("failed to load manager note")
	}
	if res.Previous, err = s.PreviousNote(ctx, date); err != nil {
		s.log(ctx).Warn().Err(err).Msg("failed to load previous note")
	}

	if rec.DelayMinutes > 0 {
		s.notifier.Broadcast(ctx, notify.KindDelay, s.roles.Operational(), message("notify.delay", map[string]any{
			"Name":   e.Label(),
			"Handle": e.Handle,
			"Shift":  s.catalog.Label(a.ShiftID),
			"Time":   clock(now),
			"Delay":  rec.DelayMinutes,
		}))
	}
	return res, nil
}

// checkOutGrace is how long after a shift's end an open record of the
// previous day still accepts the check-out.
const checkOutGrace = 2 * time.Hour

// CheckOut stamps the check-out time on today's record. Without a check-in
// today, an open record of yesterday is closed instead when its shift runs
// past midnight or ended less than checkOutGrace ago.
func (s *Service) CheckOut(ctx context.Context, employeeID int64) (*model.AttendanceRecord, error) {
	e, err := s.requireApproved(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	date := now.Format(model.DateLayout)

	rec, updated, err := s.store.SetCheckOut(ctx, employeeID, date, now)
	if err != nil {
		return nil, fmt.Errorf("set check-out: %w", err)
	}
	if !rec.CheckedIn() {
		prev, err := s.openOvernight(ctx, employeeID, now)
		if err != nil {
			return nil, err
		}
		if prev != "" {
			if rec, updated, err = s.store.SetCheckOut(ctx, employeeID, prev, now); err != nil {
				return nil, fmt.Errorf("set check-out: %w", err)
			}
		}
	}
	switch {
	case !rec.CheckedIn():
		return nil, ErrNotCheckedIn
	case !updated:
		return nil, ErrAlreadyCheckedOut
	}
	metrics.IncCheckOut()

	s.log(ctx).Info().Int64("employee_id", employeeID).Int("shift_id", rec.ShiftID).Msg("checked out")

	s.notifier.Broadcast(ctx, notify.KindCheckOut, s.roles.Operational(), message("notify.checkout", map[string]any{
		"Name":  e.Label(),
		"Shift": s.catalog.Label(rec.ShiftID),
		"Time":  clock(now),
	}))
	return rec, nil
}

// openOvernight returns yesterday's date when the employee checked in then and
// that shift ended within the grace window, "" otherwise.
func (s *Service) openOvernight(ctx context.Context, employeeID int64, now time.Time) (string, error) {
	prev := now.AddDate(0, 0, -1).Format(model.DateLayout)
	rec, err := s.store.GetAttendance(ctx, employeeID, prev)
	if err != nil {
		return "", fmt.Errorf("get attendance: %w", err)
	}
	if !rec.CheckedIn() {
		return "", nil
	}
	end, err := s.catalog.End(prev, rec.ShiftID)
	if err != nil || now.After(end.Add(checkOutGrace)) {
		return "", nil
	}
	return prev, nil
}

// StatusToday returns the assignment and attendance of employeeID for date.
func (s *Service) StatusToday(ctx context.Context, employeeID int64, date string) (*Status, error) {
	if _, err := s.requireApproved(ctx, employeeID); err != nil {
		return nil, err
	}
	date, err := s.ParseDate(date)
	if err != nil {
		return nil, err
	}
	st := &Status{Date: date}
	if st.Shift, st.Assigned, err = s.AssignedShift(ctx, employeeID, date); err != nil {
		return nil, err
	}
	if st.Record, err = s.store.GetAttendance(ctx, employeeID, date); err != nil {
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	if st.Record != nil && !st.Assigned {
		st.Shift, _ = s.catalog.Get(st.Record.ShiftID)
	}
	return st, nil
}
