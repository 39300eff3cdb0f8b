package workflow

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hozur/internal/apperr"
	"hozur/internal/database"
	"hozur/internal/i18n"
	"hozur/internal/model"
	"hozur/internal/shifts"
	"hozur/shared/access"
	"hozur/shared/notify"
)

const (
	managerID int64 = 100
	superID   int64 = 200
	today           = "2026-03-10"
)

type sentMessage struct {
	kind notify.Kind
	to   int64
	msg  notify.Message
}

type recorder struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (r *recorder) Notify(_ context.Context, kind notify.Kind, to int64, msg notify.Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMessage{kind: kind, to: to, msg: msg})
	return true
}

func (r *recorder) Broadcast(ctx context.Context, kind notify.Kind, recipients []int64, msg notify.Message) notify.Report {
	rep := notify.Report{Kind: kind}
	for _, to := range recipients {
		rep.Attempted++
		if r.Notify(ctx, kind, to, msg) {
			rep.Delivered++
		}
	}
	return rep
}

func (r *recorder) of(kind notify.Kind) []sentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sentMessage
	for _, m := range r.sent {
		if m.kind == kind {
			out = append(out, m)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.sent = nil
	r.mu.Unlock()
}

type fixture struct {
	svc   *Service
	db    *database.DB
	sent  *recorder
	clock time.Time
}

func (f *fixture) at(hhmm string) {
	d, err := shifts.ParseClock(hhmm)
	if err != nil {
		panic(err)
	}
	f.clock = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC).Add(d)
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	require.NoError(t, i18n.Init("en"))

	db, err := database.NewDB(filepath.Join(t.TempDir(), "workflow.db"), zerolog.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{db: db, sent: &recorder{}}
	f.at("07:00")
	opts.Now = func() time.Time { return f.clock }

	roles := access.NewRegistry([]int64{managerID}, []int64{superID}, zerolog.New(io.Discard))
	f.svc = New(db, roles, shifts.MustDefault(time.UTC), f.sent, zerolog.New(io.Discard), opts)
	return f
}

// approved registers and approves an employee.
func (f *fixture) approved(t *testing.T, id int64, name string) {
	t.Helper()
	_, err := f.svc.Register(context.Background(), id, "", name)
	require.NoError(t, err)
	_, err = f.svc.Approve(context.Background(), id, managerID)
	require.NoError(t, err)
}

func (f *fixture) assign(t *testing.T, id int64, shiftID int) {
	t.Helper()
	_, err := f.svc.AssignShift(context.Background(), id, today, shiftID, managerID)
	require.NoError(t, err)
}

func TestScenarioLateCheckIn(t *testing.T) {
	f := newFixture(t, Options{NotesRequireAssignment: true})
	ctx := context.Background()
	f.approved(t, 1, "Sara")
	f.assign(t, 1, 1)
	f.sent.reset()

	f.at("08:12")
	res, err := f.svc.CheckIn(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 12, res.Record.DelayMinutes)
	assert.Equal(t, 1, res.Shift.ID)

	delays := f.sent.of(notify.KindDelay)
	require.Len(t, delays, 1)
	assert.Equal(t, managerID, delays[0].to, "delay notices go to operational managers")
	assert.Contains(t, delays[0].msg.Text, "Sara")
	assert.Contains(t, delays[0].msg.Text, "12")

	f.at("08:30")
	_, err = f.svc.CheckIn(ctx, 1)
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	records, err := f.db.ListAttendance(ctx, today)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 12, records[0].DelayMinutes)
}

func TestScenarioCheckInWithoutAssignment(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.approved(t, 1, "Sara")

	f.at("08:00")
	_, err := f.svc.CheckIn(ctx, 1)
	assert.ErrorIs(t, err, ErrNoAssignment)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	records, err := f.db.ListAttendance(ctx, today)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestScenarioLeaveApproved(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.approved(t, 1, "Sara")
	f.sent.reset()

	r, err := f.svc.RequestLeave(ctx, 1, "2026-03-12", "family")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, r.Status)

	requests := f.sent.of(notify.KindLeaveRequest)
	require.Len(t, requests, 2, "every privileged identity is asked")
	require.Len(t, requests[0].msg.Buttons, 1)
	assert.Equal(t, CallbackData(ActionLeaveApprove, r.ID), requests[0].msg.Buttons[0][0].Action)

	resolved, err := f.svc.ResolveLeave(ctx, r.ID, managerID, model.DecisionApprove)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, resolved.Status)

	decisions := f.sent.of(notify.KindLeaveDecision)
	require.Len(t, decisions, 1)
	assert.Equal(t, int64(1), decisions[0].to)

	_, err = f.svc.ResolveLeave(ctx, r.ID, superID, model.DecisionReject)
	assert.ErrorIs(t, err, ErrAlreadyResolved)
	assert.Len(t, f.sent.of(notify.KindLeaveDecision), 1, "no second notice")

	stored, err := f.db.GetLeaveRequest(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, stored.Status)
}

func TestScenarioLateAlert(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.approved(t, 1, "Farid")
	f.approved(t, 2, "Golnaz")
	f.assign(t, 1, 1)
	f.assign(t, 2, 1)

	f.at("08:02")
	_, err := f.svc.CheckIn(ctx, 2)
	require.NoError(t, err)
	f.sent.reset()

	f.at("08:05")
	require.NoError(t, f.svc.SendLateAlert(ctx, today, 1))

	alerts := f.sent.of(notify.KindLateAlert)
	require.Len(t, alerts, 1)
	assert.Equal(t, managerID, alerts[0].to)
	assert.Contains(t, alerts[0].msg.Text, "Farid")
	assert.NotContains(t, alerts[0].msg.Text, "Golnaz")
}

func TestLateAlertSilentWhenEveryoneIsIn(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.approved(t, 1, "Sara")
	f.assign(t, 1, 1)
	f.at("07:55")
	_, err := f.svc.CheckIn(ctx, 1)
	require.NoError(t, err)
	f.sent.reset()

	require.NoError(t, f.svc.SendLateAlert(ctx, today, 1))
	assert.Empty(t, f.sent.of(notify.KindLateAlert))
}

func TestScenarioNightlyReportWithoutRecords(t *testing.T) {
	f := newFixture(t, Options{AttachXLSX: true})
	ctx := context.Background()

	f.at("23:50")
	require.NoError(t, f.svc.SendNightlyReport(ctx, today))

	reports := f.sent.of(notify.KindNightlyReport)
	require.Len(t, reports, 1)
	assert.Equal(t, managerID, reports[0].to)
	assert.Contains(t, reports[0].msg.Text, "none recorded")
	require.NotNil(t, reports[0].msg.Document)
	assert.NotEmpty(t, reports[0].msg.Document.Data)
}

func TestNightlyReportAggregatesDay(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.approved(t, 1, "Sara")
	f.approved(t, 2, "Ali")
	f.assign(t, 1, 1)
	f.assign(t, 2, 2)
	f.at("08:00")
	_, err := f.svc.CheckIn(ctx, 1)
	require.NoError(t, err)
	_, err = f.svc.RequestLeave(ctx, 2, today, "sick")
	require.NoError(t, err)
	f.sent.reset()

	require.NoError(t, f.svc.SendNightlyReport(ctx, today))
	reports := f.sent.of(notify.KindNightlyReport)
	require.Len(t, reports, 1)
	txt := reports[0].msg.Text
	assert.Contains(t, txt, "Sara")
	assert.Contains(t, txt, "Ali")
	assert.Contains(t, txt, "sick")
	assert.Nil(t, reports[0].msg.Document)
}

func TestDelayNeverNegative(t *testing.T) {
	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	tests := []struct {
		now  time.Time
		want int
	}{
		{start.Add(-90 * time.Minute), 0},
		{start, 0},
		{start.Add(59 * time.Second), 0},
		{start.Add(time.Minute), 1},
		{start.Add(12*time.Minute + 30*time.Second), 12},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, delayMinutes(tt.now, start), tt.now.Format(time.TimeOnly))
	}
}

func TestEarlyCheckInHasNoDelayAndNoNotice(t *testing.T) {
	f := newFixture(t, Options{})
	f.approved(t, 1, "Sara")
	f.assign(t, 1, 1)
	f.sent.reset()

	f.at("07:40")
	res, err := f.svc.CheckIn(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, res.Record.DelayMinutes)
	assert.Empty(t, f.sent.of(notify.KindDelay))
}

func TestCheckOutStates(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.approved(t, 1, "Sara")
	f.assign(t, 1, 1)

	_, err := f.svc.CheckOut(ctx, 1)
	assert.ErrorIs(t, err, ErrNotCheckedIn)

	f.at("08:00")
	_, err = f.svc.CheckIn(ctx, 1)
	require.NoError(t, err)
	f.sent.reset()

	f.at("16:01")
	rec, err := f.svc.CheckOut(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, rec.CheckOut)
	assert.Len(t, f.sent.of(notify.KindCheckOut), 1)

	f.at("16:05")
	_, err = f.svc.CheckOut(ctx, 1)
	assert.ErrorIs(t, err, ErrAlreadyCheckedOut)

	st, err := f.svc.StatusToday(ctx, 1, "")
	require.NoError(t, err)
	assert.True(t, st.Assigned)
	assert.Equal(t, 1, st.Shift.ID)
	assert.True(t, st.Record.CheckedOut())
	assert.True(t, time.Date(2026, 3, 10, 16, 1, 0, 0, time.UTC).Equal(*st.Record.CheckOut))
}

func TestAttendanceRequiresApproval(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	_, err := f.svc.Register(ctx, 1, "sara", "Sara")
	require.NoError(t, err)

	_, err = f.svc.CheckIn(ctx, 1)
	assert.ErrorIs(t, err, ErrNotApproved)
	assert.ErrorIs(t, err, apperr.ErrAccessDenied)

	_, err = f.svc.CheckIn(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrAccessDenied)

	ok, err := f.svc.IsApproved(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = f.svc.IsApproved(ctx, superID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegistrationLifecycle(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	e, err := f.svc.Register(ctx, 1, "@sara", "Sara")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, e.Status)
	assert.Equal(t, "sara", e.Handle)

	notices := f.sent.of(notify.KindRegistration)
	require.Len(t, notices, 2)
	assert.Equal(t, CallbackData(ActionApprove, 1), notices[0].msg.Buttons[0][0].Action)
	assert.Equal(t, CallbackData(ActionReject, 1), notices[0].msg.Buttons[0][1].Action)

	_, err = f.svc.Approve(ctx, 1, 1)
	assert.ErrorIs(t, err, ErrNotPrivileged)

	_, err = f.svc.Approve(ctx, 42, managerID)
	assert.ErrorIs(t, err, ErrEmployeeNotFound)

	_, err = f.svc.Approve(ctx, 1, superID)
	require.NoError(t, err)
	require.Len(t, f.sent.of(notify.KindApproval), 1)

	_, err = f.svc.Reject(ctx, 1, managerID)
	assert.ErrorIs(t, err, ErrAlreadyResolved)
	assert.Len(t, f.sent.of(notify.KindApproval), 1)

	// Re-registration restarts approval.
	e, err = f.svc.Register(ctx, 1, "", "Sara K")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, e.Status)
	ok, err := f.svc.IsApproved(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.svc.Register(ctx, 2, "", "  ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestPrivilegedRegistrationIsExempt(t *testing.T) {
	f := newFixture(t, Options{})
	e, err := f.svc.Register(context.Background(), managerID, "", "Boss")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, e.Status)
	assert.Empty(t, f.sent.of(notify.KindRegistration))
}

func TestAssignShift(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.approved(t, 1, "Sara")
	f.sent.reset()

	_, err := f.svc.AssignShift(ctx, 1, today, 1, 1)
	assert.ErrorIs(t, err, apperr.ErrAccessDenied)

	_, err = f.svc.AssignShift(ctx, 1, today, 9, managerID)
	assert.ErrorIs(t, err, ErrUnknownShift)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.AssignShift(ctx, 77, today, 1, managerID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.AssignShift(ctx, 1, "10/03/2026", 1, managerID)
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = f.svc.AssignShift(ctx, 1, today, 1, managerID)
	require.NoError(t, err)
	_, err = f.svc.AssignShift(ctx, 1, today, 3, managerID)
	require.NoError(t, err)

	sh, ok, err := f.svc.AssignedShift(ctx, 1, today)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, sh.ID, "last write wins")
	assert.Len(t, f.sent.of(notify.KindAssignment), 2)

	_, ok, err = f.svc.AssignedShift(ctx, 1, "2026-03-11")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAssignPendingEmployeeFails(t *testing.T) {
	f := newFixture(t, Options{})
	_, err := f.svc.Register(context.Background(), 1, "", "Sara")
	require.NoError(t, err)
	_, err = f.svc.AssignShift(context.Background(), 1, today, 1, managerID)
	assert.ErrorIs(t, err, ErrAssigneeNotApproved)
}

func TestNonPrivilegedCannotResolveLeave(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.approved(t, 1, "Sara")
	f.approved(t, 2, "Ali")

	r, err := f.svc.RequestLeave(ctx, 1, "2026-03-11", "trip")
	require.NoError(t, err)

	for _, d := range []model.Decision{model.DecisionApprove, model.DecisionReject} {
		_, err = f.svc.ResolveLeave(ctx, r.ID, 2, d)
		assert.ErrorIs(t, err, apperr.ErrAccessDenied)
	}
	stored, err := f.db.GetLeaveRequest(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.Status)

	_, err = f.svc.ResolveLeave(ctx, 404, managerID, model.DecisionApprove)
	assert.ErrorIs(t, err, ErrLeaveNotFound)
}

func TestRequestLeaveValidation(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.approved(t, 1, "Sara")

	_, err := f.svc.RequestLeave(ctx, 1, "tomorrow", "x")
	assert.ErrorIs(t, err, ErrInvalidDate)
	_, err = f.svc.RequestLeave(ctx, 1, "2026-03-09", "x")
	assert.ErrorIs(t, err, ErrDateInPast)
	_, err = f.svc.RequestLeave(ctx, 1, today, " ")
	assert.ErrorIs(t, err, ErrEmptyText)
	_, err = f.svc.RequestLeave(ctx, 5, today, "x")
	assert.ErrorIs(t, err, apperr.ErrAccessDenied)
}

func TestRecordNote(t *testing.T) {
	f := newFixture(t, Options{NotesRequireAssignment: true})
	ctx := context.Background()
	f.approved(t, 1, "Sara")
	f.sent.reset()

	_, err := f.svc.RecordNote(ctx, 1, "printer is broken")
	assert.ErrorIs(t, err, ErrNoAssignment)

	f.assign(t, 1, 2)
	n, err := f.svc.RecordNote(ctx, 1, "printer is broken")
	require.NoError(t, err)
	assert.Equal(t, 2, n.ShiftID)

	notes := f.sent.of(notify.KindHandover)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].msg.Text, "printer is broken")

	_, err = f.svc.RecordNote(ctx, 1, "   ")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestRecordNoteWithoutAssignmentUsesCurrentShift(t *testing.T) {
	f := newFixture(t, Options{NotesRequireAssignment: false})
	f.approved(t, 1, "Sara")

	f.at("17:30")
	n, err := f.svc.RecordNote(context.Background(), 1, "all quiet")
	require.NoError(t, err)
	assert.Equal(t, 2, n.ShiftID)
}

func TestPreviousNoteIsCalendarDayMinusOne(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	require.NoError(t, f.db.AddHandoverNote(ctx, &model.HandoverNote{Date: "2026-03-09", EmployeeID: 1, ShiftID: 1, Text: "old"}))
	require.NoError(t, f.db.AddHandoverNote(ctx, &model.HandoverNote{Date: "2026-03-09", EmployeeID: 2, ShiftID: 2, Text: "latest"}))
	require.NoError(t, f.db.AddHandoverNote(ctx, &model.HandoverNote{Date: today, EmployeeID: 3, ShiftID: 3, Text: "after midnight"}))
	require.NoError(t, f.db.AddManagerNote(ctx, &model.ManagerNote{Date: "2026-03-09", AuthorID: managerID, Text: "memo"}))

	prev, err := f.svc.PreviousNote(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-09", prev.Date)
	require.NotNil(t, prev.Handover)
	assert.Equal(t, "latest", prev.Handover.Text)
	require.NotNil(t, prev.Manager)
	assert.Equal(t, "memo", prev.Manager.Text)

	prev, err = f.svc.PreviousNote(ctx, "2026-03-01")
	require.NoError(t, err)
	assert.Nil(t, prev.Handover)
	assert.Nil(t, prev.Manager)
}

func TestManagerNote(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.approved(t, 1, "Sara")
	f.assign(t, 1, 1)
	f.sent.reset()

	_, err := f.svc.RecordManagerNote(ctx, today, 1, "x", 1)
	assert.ErrorIs(t, err, apperr.ErrAccessDenied)
	_, err = f.svc.RecordManagerNote(ctx, today, 7, "x", managerID)
	assert.ErrorIs(t, err, ErrUnknownShift)

	_, err = f.svc.RecordManagerNote(ctx, today, 1, "fire drill at 10", managerID)
	require.NoError(t, err)
	notes := f.sent.of(notify.KindManagerNote)
	require.Len(t, notes, 2)
	recipients := []int64{notes[0].to, notes[1].to}
	assert.ElementsMatch(t, []int64{managerID, superID}, recipients, "author included")

	f.at("08:00")
	res, err := f.svc.CheckIn(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, res.ManagerNote)
	assert.Equal(t, "fire drill at 10", res.ManagerNote.Text)
}

func TestRemindersSkipEmployeesOnLeave(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.approved(t, 1, "Sara")
	f.approved(t, 2, "Ali")
	f.assign(t, 1, 1)
	f.assign(t, 2, 1)
	r, err := f.svc.RequestLeave(ctx, 2, today, "sick")
	require.NoError(t, err)
	_, err = f.svc.ResolveLeave(ctx, r.ID, managerID, model.DecisionApprove)
	require.NoError(t, err)
	f.sent.reset()

	require.NoError(t, f.svc.SendShiftReminders(ctx, today, 1))
	reminders := f.sent.of(notify.KindReminder)
	require.Len(t, reminders, 1)
	assert.Equal(t, int64(1), reminders[0].to)

	require.NoError(t, f.svc.SendLateAlert(ctx, today, 1))
	alerts := f.sent.of(notify.KindLateAlert)
	require.Len(t, alerts, 1)
	assert.NotContains(t, alerts[0].msg.Text, "Ali")
}

func TestRemindersWithNoAssignmentsSendNothing(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.svc.SendShiftReminders(context.Background(), today, 2))
	assert.Empty(t, f.sent.sent)
}

func TestPrivilegedListingsRequireRole(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	_, err := f.svc.PendingEmployees(ctx, 1)
	assert.True(t, errors.Is(err, apperr.ErrAccessDenied))
	_, _, err = f.svc.PendingLeaves(ctx, 1)
	assert.ErrorIs(t, err, apperr.ErrAccessDenied)
	_, err = f.svc.DailyReport(ctx, "", 1)
	assert.ErrorIs(t, err, apperr.ErrAccessDenied)
	_, _, err = f.svc.HandoverNotes(ctx, "", 1)
	assert.ErrorIs(t, err, apperr.ErrAccessDenied)

	d, err := f.svc.DailyReport(ctx, "", managerID)
	require.NoError(t, err)
	assert.Equal(t, today, d.Date)
}

func TestCheckOutAfterMidnight(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.approved(t, 1, "Sara")
	f.approved(t, 2, "Omid")
	f.assign(t, 1, 2)
	f.assign(t, 2, 1)

	f.at("08:00")
	_, err := f.svc.CheckIn(ctx, 2)
	require.NoError(t, err)
	f.at("16:00")
	_, err = f.svc.CheckIn(ctx, 1)
	require.NoError(t, err)
	f.sent.reset()

	f.clock = time.Date(2026, 3, 11, 0, 3, 0, 0, time.UTC)
	rec, err := f.svc.CheckOut(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, today, rec.Date, "the evening shift record is closed")
	require.NotNil(t, rec.CheckOut)
	assert.True(t, f.clock.Equal(*rec.CheckOut))
	assert.Len(t, f.sent.of(notify.KindCheckOut), 1)

	_, err = f.svc.CheckOut(ctx, 1)
	assert.ErrorIs(t, err, ErrAlreadyCheckedOut)

	// A day shift left open is not closed the next night.
	_, err = f.svc.CheckOut(ctx, 2)
	assert.ErrorIs(t, err, ErrNotCheckedIn)

	f.clock = time.Date(2026, 3, 11, 2, 30, 0, 0, time.UTC)
	_, err = f.svc.CheckOut(ctx, 1)
	assert.ErrorIs(t, err, ErrNotCheckedIn, "past the grace window yesterday is out of reach")
}
