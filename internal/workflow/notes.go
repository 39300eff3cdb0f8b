package workflow

import (
	"context"
	"fmt"
	"strings"

	"hozur/internal/model"
	"hozur/shared/notify"
)

// PreviousNotes holds the latest notes of the previous calendar day.
type PreviousNotes struct {
	Date     string
	Handover *model.HandoverNote
	Manager  *model.ManagerNote
}

// RecordNote appends a handover note for today. The shift is the assigned one;
// without an assignment the note is rejected, or tied to the running shift when
// assignments are not required for notes.
func (s *Service) RecordNote(ctx context.Context, employeeID int64, noteText string) (*model.HandoverNote, error) {
	e, err := s.requireApproved(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	noteText = strings.TrimSpace(noteText)
	if noteText == "" {
		return nil, ErrEmptyText
	}
	now := s.Now()
	date := now.Format(model.DateLayout)

	a, err := s.store.GetAssignment(ctx, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	var shiftID int
	switch {
	case a != nil:
		shiftID = a.ShiftID
	case s.opts.NotesRequireAssignment:
		return nil, ErrNoAssignment
	default:
		cur, ok := s.catalog.Current(now)
		if !ok {
			return nil, ErrNoCurrentShift
		}
		shiftID = cur.ID
	}

	n := &model.HandoverNote{Date: date, EmployeeID: employeeID, ShiftID: shiftID, Text: noteText, CreatedAt: now}
	if err := s.store.AddHandoverNote(ctx, n); err != nil {
		return nil, fmt.Errorf("add handover note: %w", err)
	}
	s.log(ctx).Info().Int64("employee_id", employeeID).Int("shift_id", shiftID).Msg("handover note recorded")

	s.notifier.Broadcast(ctx, notify.KindHandover, s.roles.Operational(), message("notify.handover", map[string]any{
		"Name":  e.Label(),
		"Shift": s.catalog.Label(shiftID),
		"Text":  noteText,
	}))
	return n, nil
}

// PreviousNote returns the latest handover and manager note of the calendar day
// before date. The lookup is by day, not by previous shift instance: a note left
// after midnight by the shift crossing it is filed under date and is not returned.
func (s *Service) PreviousNote(ctx context.Context, date string) (PreviousNotes, error) {
	day, err := s.catalog.Midnight(date)
	if err != nil {
		return PreviousNotes{}, ErrInvalidDate
	}
	prev := PreviousNotes{Date: day.AddDate(0, 0, -1).Format(model.DateLayout)}
	if prev.Handover, err = s.store.LatestHandoverNote(ctx, prev.Date); err != nil {
		return prev, fmt.Errorf("latest handover note: %w", err)
	}
	if prev.Manager, err = s.store.LatestManagerNote(ctx, prev.Date, -1); err != nil {
		return prev, fmt.Errorf("latest manager note: %w", err)
	}
	return prev, nil
}

// HandoverNotes lists the handover notes of date for a privileged reader.
func (s *Service) HandoverNotes(ctx context.Context, date string, actingID int64) ([]model.HandoverNote, map[int64]model.Employee, error) {
	if err := s.requirePrivileged(actingID); err != nil {
		return nil, nil, err
	}
	date, err := s.ParseDate(date)
	if err != nil {
		return nil, nil, err
	}
	notes, err := s.store.ListHandoverNotes(ctx, date)
	if err != nil {
		return nil, nil, fmt.Errorf("list handover notes: %w", err)
	}
	ids := make([]int64, 0, len(notes))
	for _, n := range notes {
		ids = append(ids, n.EmployeeID)
	}
	people, err := s.store.EmployeesByID(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("load employees: %w", err)
	}
	return notes, people, nil
}

// RecordManagerNote stores a manager note for date and shiftID (0 for every
// shift) and sends it to every privileged identity, the author included.
func (s *Service) RecordManagerNote(ctx context.Context, date string, shiftID int, noteText string, actingID int64) (*model.ManagerNote, error) {
	if err := s.requirePrivileged(actingID); err != nil {
		return nil, err
	}
	if shiftID != 0 && !s.catalog.Has(shiftID) {
		return nil, ErrUnknownShift
	}
	noteText = strings.TrimSpace(noteText)
	if noteText == "" {
		return nil, ErrEmptyText
	}
	date, err := s.ParseDate(date)
	if err != nil {
		return nil, err
	}

	n := &model.ManagerNote{Date: date, ShiftID: shiftID, AuthorID: actingID, Text: noteText, CreatedAt: s.now()}
	if err := s.store.AddManagerNote(ctx, n); err != nil {
		return nil, fmt.Errorf("add manager note: %w", err)
	}
	s.log(ctx).Info().Int64("acting_id", actingID).Int("shift_id", shiftID).Str("date", date).Msg("manager note recorded")

	target := text("shift.all", nil)
	if shiftID != 0 {
		target = s.catalog.Label(shiftID)
	}
	s.notifier.Broadcast(ctx, notify.KindManagerNote, s.roles.Privileged(), message("notify.manager_note", map[string]any{
		"Author": s.employeeLabel(ctx, actingID),
		"Shift":  target,
		"Date":   date,
		"Text":   noteText,
	}))
	return n, nil
}
