package database

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hozur/internal/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), zerolog.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestEmployeeUpsertResetsStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	e := &model.Employee{ID: 1, DisplayName: "Sara", Handle: "sara"}
	require.NoError(t, db.UpsertEmployee(ctx, e))

	ok, err := db.TransitionEmployee(ctx, 1, model.StatusPending, model.StatusApproved)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.TransitionEmployee(ctx, 1, model.StatusPending, model.StatusRejected)
	require.NoError(t, err)
	assert.False(t, ok, "only pending can transition")

	require.NoError(t, db.UpsertEmployee(ctx, &model.Employee{ID: 1, DisplayName: "Sara K."}))
	got, err := db.GetEmployee(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Sara K.", got.DisplayName)
	assert.Equal(t, "", got.Handle)
	assert.Equal(t, model.StatusPending, got.Status)

	missing, err := db.GetEmployee(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, db.UpsertEmployee(ctx, &model.Employee{ID: 2, DisplayName: "Ali"}))
	pending, err := db.ListEmployees(ctx, model.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "Ali", pending[0].DisplayName)

	byID, err := db.EmployeesByID(ctx, []int64{1, 2, 2, 77})
	require.NoError(t, err)
	assert.Len(t, byID, 2)
}

func TestAssignmentLastWriteWins(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertAssignment(ctx, &model.Assignment{EmployeeID: 1, Date: "2026-03-10", ShiftID: 1, AssignedBy: 9}))
	require.NoError(t, db.UpsertAssignment(ctx, &model.Assignment{EmployeeID: 1, Date: "2026-03-10", ShiftID: 3, AssignedBy: 9}))
	require.NoError(t, db.UpsertAssignment(ctx, &model.Assignment{EmployeeID: 2, Date: "2026-03-10", ShiftID: 1, AssignedBy: 9}))

	a, err := db.GetAssignment(ctx, 1, "2026-03-10")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, 3, a.ShiftID)

	none, err := db.GetAssignment(ctx, 1, "2026-03-11")
	require.NoError(t, err)
	assert.Nil(t, none)

	all, err := db.ListAssignments(ctx, "2026-03-10", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	first, err := db.ListAssignments(ctx, "2026-03-10", 1)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, int64(2), first[0].EmployeeID)
}

func TestCheckInOnlyOncePerDay(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	in := time.Date(2026, 3, 10, 8, 12, 0, 0, time.Local)

	rec := &model.AttendanceRecord{Date: "2026-03-10", EmployeeID: 1, ShiftID: 1, CheckIn: &in, DelayMinutes: 12}
	ok, err := db.InsertCheckIn(ctx, rec)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotZero(t, rec.ID)

	later := in.Add(time.Hour)
	ok, err = db.InsertCheckIn(ctx, &model.AttendanceRecord{Date: "2026-03-10", EmployeeID: 1, ShiftID: 2, CheckIn: &later})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := db.GetAttendance(ctx, 1, "2026-03-10")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.ShiftID)
	assert.Equal(t, 12, got.DelayMinutes)
	assert.True(t, in.Equal(*got.CheckIn))
	assert.Nil(t, got.CheckOut)
}

func TestConcurrentCheckInsStoreOneRecord(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	in := time.Now()

	var wg sync.WaitGroup
	var mu sync.Mutex
	inserted := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := db.InsertCheckIn(ctx, &model.AttendanceRecord{Date: "2026-03-10", EmployeeID: 5, ShiftID: 1, CheckIn: &in})
			if assert.NoError(t, err) && ok {
				mu.Lock()
				inserted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, inserted)

	all, err := db.ListAttendance(ctx, "2026-03-10")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSetCheckOut(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	in := time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)
	out := in.Add(8 * time.Hour)

	rec, updated, err := db.SetCheckOut(ctx, 1, "2026-03-10", out)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.False(t, updated)

	_, err = db.InsertCheckIn(ctx, &model.AttendanceRecord{Date: "2026-03-10", EmployeeID: 1, ShiftID: 1, CheckIn: &in})
	require.NoError(t, err)

	rec, updated, err = db.SetCheckOut(ctx, 1, "2026-03-10", out)
	require.NoError(t, err)
	assert.True(t, updated)
	require.NotNil(t, rec)
	assert.True(t, out.Equal(*rec.CheckOut))

	rec, updated, err = db.SetCheckOut(ctx, 1, "2026-03-10", out.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, updated)
	require.NotNil(t, rec)
	assert.True(t, out.Equal(*rec.CheckOut), "first check-out is kept")

	all, err := db.ListAttendance(ctx, "2026-03-10")
	require.NoError(t, err)
	assert.Len(t, all, 1, "check-out never creates a second record")
}

func TestNotes(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.AddHandoverNote(ctx, &model.HandoverNote{Date: "2026-03-09", EmployeeID: 1, ShiftID: 1, Text: "first"}))
	require.NoError(t, db.AddHandoverNote(ctx, &model.HandoverNote{Date: "2026-03-09", EmployeeID: 2, ShiftID: 2, Text: "second"}))

	n, err := db.LatestHandoverNote(ctx, "2026-03-09")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "second", n.Text)

	list, err := db.ListHandoverNotes(ctx, "2026-03-09")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	none, err := db.LatestHandoverNote(ctx, "2026-03-10")
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, db.AddManagerNote(ctx, &model.ManagerNote{Date: "2026-03-09", ShiftID: 0, AuthorID: 9, Text: "all"}))
	require.NoError(t, db.AddManagerNote(ctx, &model.ManagerNote{Date: "2026-03-09", ShiftID: 2, AuthorID: 9, Text: "evening"}))

	m, err := db.LatestManagerNote(ctx, "2026-03-09", 1)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "all", m.Text)

	m, err = db.LatestManagerNote(ctx, "2026-03-09", 2)
	require.NoError(t, err)
	assert.Equal(t, "evening", m.Text)

	m, err = db.LatestManagerNote(ctx, "2026-03-09", -1)
	require.NoError(t, err)
	assert.Equal(t, "evening", m.Text)
}

func TestLeaveResolutionIsGuarded(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	r := &model.LeaveRequest{Date: "2026-03-12", EmployeeID: 1, Reason: "family"}
	require.NoError(t, db.CreateLeaveRequest(ctx, r))
	assert.Equal(t, model.StatusPending, r.Status)

	pending, err := db.ListLeaveRequests(ctx, "")
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	ok, err := db.ResolveLeaveRequest(ctx, r.ID, model.StatusApproved, 9, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.ResolveLeaveRequest(ctx, r.ID, model.StatusRejected, 9, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := db.GetLeaveRequest(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got.Status)
	assert.Equal(t, int64(9), got.ResolvedBy)
	assert.NotNil(t, got.ResolvedAt)

	onLeave, err := db.OnApprovedLeave(ctx, "2026-03-12")
	require.NoError(t, err)
	assert.Contains(t, onLeave, int64(1))

	missing, err := db.GetLeaveRequest(ctx, 404)
	require.NoError(t, err)
	assert.Nil(t, missing)

	byDate, err := db.ListLeaveRequests(ctx, "2026-03-12")
	require.NoError(t, err)
	assert.Len(t, byDate, 1)
}

func TestBackupAndCleanup(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.UpsertEmployee(ctx, &model.Employee{ID: 1, DisplayName: "Sara"}))

	dir := t.TempDir()
	dest := filepath.Join(dir, BackupName(time.Now()))
	require.NoError(t, db.Backup(ctx, dest))
	assert.FileExists(t, dest)
	assert.Error(t, db.Backup(ctx, dest), "existing snapshot is not overwritten")

	old := filepath.Join(dir, "hozur_20000101_000000.db")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o600))
	past := time.Now().Add(-30 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))
	unrelated := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(unrelated, []byte("x"), 0o600))
	require.NoError(t, os.Chtimes(unrelated, past, past))

	deleted, err := db.CleanupBackups(dir, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.NoFileExists(t, old)
	assert.FileExists(t, unrelated)
	assert.FileExists(t, dest)
}
