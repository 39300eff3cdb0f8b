package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"hozur/internal/model"
	"hozur/internal/report"
	"hozur/shared/notify"
)

// SendShiftReminders messages every employee assigned to shiftID on date,
// skipping those on approved leave.
func (s *Service) SendShiftReminders(ctx context.Context, date string, shiftID int) error {
	assigned, err := s.store.ListAssignments(ctx, date, shiftID)
	if err != nil {
		return fmt.Errorf("list assignments: %w", err)
	}
	onLeave, err := s.store.OnApprovedLeave(ctx, date)
	if err != nil {
		return fmt.Errorf("list approved leave: %w", err)
	}
	start, err := s.catalog.Start(date, shiftID)
	if err != nil {
		return err
	}

	recipients := make([]int64, 0, len(assigned))
	for _, a := range assigned {
		if _, ok := onLeave[a.EmployeeID]; ok {
			continue
		}
		recipients = append(recipients, a.EmployeeID)
	}
	if len(recipients) == 0 {
		s.log(ctx).Debug().Str("date", date).Int("shift_id", shiftID).Msg("no one to remind")
		return nil
	}
	s.notifier.Broadcast(ctx, notify.KindReminder, recipients, message("notify.reminder", map[string]any{
		"Shift": s.catalog.Label(shiftID),
		"Date":  date,
		"Start": clock(start),
	}))
	return nil
}

// LateEmployees returns the employees assigned to shiftID on date who have no
// check-in and are not on approved leave, ordered by name.
func (s *Service) LateEmployees(ctx context.Context, date string, shiftID int) ([]model.Employee, error) {
	assigned, err := s.store.ListAssignments(ctx, date, shiftID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	records, err := s.store.ListAttendance(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	onLeave, err := s.store.OnApprovedLeave(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list approved leave: %w", err)
	}

	checkedIn := make(map[int64]struct{}, len(records))
	for _, r := range records {
		if r.CheckedIn() {
			checkedIn[r.EmployeeID] = struct{}{}
		}
	}
	var ids []int64
	for _, a := range assigned {
		if _, ok := checkedIn[a.EmployeeID]; ok {
			continue
		}
		if _, ok := onLeave[a.EmployeeID]; ok {
			continue
		}
		ids = append(ids, a.EmployeeID)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	people, err := s.store.EmployeesByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load employees: %w", err)
	}
	out := make([]model.Employee, 0, len(ids))
	for _, id := range ids {
		e, ok := people[id]
		if !ok {
			e = model.Employee{ID: id}
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Label() < out[j].Label() })
	return out, nil
}

// SendLateAlert tells the operational managers who has not checked in for shiftID.
// Nothing is sent when everyone is present.
func (s *Service) SendLateAlert(ctx context.Context, date string, shiftID int) error {
	late, err := s.LateEmployees(ctx, date, shiftID)
	if err != nil {
		return err
	}
	if len(late) == 0 {
		s.log(ctx).Debug().Str("date", date).Int("shift_id", shiftID).Msg("everyone checked in")
		return nil
	}
	names := make([]string, len(late))
	for i := range late {
		names[i] = "• " + late[i].Label()
	}
	s.notifier.Broadcast(ctx, notify.KindLateAlert, s.roles.Operational(), message("notify.late_alert", map[string]any{
		"Shift": s.catalog.Label(shiftID),
		"Date":  date,
		"Count": len(late),
		"Names": strings.Join(names, "\n"),
	}))
	return nil
}

// SendNightlyReport sends the report of date to the operational managers.
func (s *Service) SendNightlyReport(ctx context.Context, date string) error {
	d, err := report.Build(ctx, s.store, s.catalog, date)
	if err != nil {
		return err
	}
	msg := notify.Message{Text: report.Text(context.Background(), d, s.catalog.Location())}
	if s.opts.AttachXLSX {
		data, err := report.XLSX(context.Background(), d, s.catalog.Location())
		if err != nil {
			s.log(ctx).Warn().Err(err).Msg("failed to render report workbook")
		} else {
			msg.Document = &notify.Document{Name: report.FileName(date), Data: data}
		}
	}
	rep := s.notifier.Broadcast(ctx, notify.KindNightlyReport, s.roles.Operational(), msg)
	s.log(ctx).Info().
		Str("date", date).
		Int("records", d.Records()).
		Int("leave_requests", len(d.Leave)).
		Int("delivered", rep.Delivered).
		Msg("nightly report sent")
	return nil
}

// DailyReport builds the report of date for a privileged reader.
func (s *Service) DailyReport(ctx context.Context, date string, actingID int64) (*report.Daily, error) {
	if err := s.requirePrivileged(actingID); err != nil {
		return nil, err
	}
	date, err := s.ParseDate(date)
	if err != nil {
		return nil, err
	}
	return report.Build(ctx, s.store, s.catalog, date)
}
