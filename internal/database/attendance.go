package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hozur/internal/model"
)

const attendanceColumns = `id, date, employee_id, shift_id, check_in, check_out, delay_minutes`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttendance(row rowScanner) (*model.AttendanceRecord, error) {
	var r model.AttendanceRecord
	var in, out sql.NullTime
	if err := row.Scan(&r.ID, &r.Date, &r.EmployeeID, &r.ShiftID, &in, &out, &r.DelayMinutes); err != nil {
		return nil, err
	}
	r.CheckIn = timePtr(in)
	r.CheckOut = timePtr(out)
	return &r, nil
}

// InsertCheckIn stores the first check-in of the day. It reports false, leaving
// the existing row untouched, when a record for (employee, date) already exists.
func (db *DB) InsertCheckIn(ctx context.Context, r *model.AttendanceRecord) (bool, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO attendance (date, employee_id, shift_id, check_in, delay_minutes)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, date) DO NOTHING`,
		r.Date, r.EmployeeID, r.ShiftID, nullTime(r.CheckIn), r.DelayMinutes,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if r.ID, err = res.LastInsertId(); err != nil {
		return false, err
	}
	return true, nil
}

// SetCheckOut stamps the check-out time on the day's record inside one transaction.
// It returns the record as stored after the call (nil when there is none) and
// whether this call set the check-out.
func (db *DB) SetCheckOut(ctx context.Context, employeeID int64, date string, at time.Time) (*model.AttendanceRecord, bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rec, err := scanAttendance(tx.QueryRowContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance WHERE employee_id = ? AND date = ?`, employeeID, date))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if !rec.CheckedIn() || rec.CheckedOut() {
		return rec, false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE attendance SET check_out = ? WHERE id = ? AND check_out IS NULL`, at, rec.ID); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}
	rec.CheckOut = &at
	return rec, true, nil
}

// GetAttendance returns the day's record or nil.
func (db *DB) GetAttendance(ctx context.Context, employeeID int64, date string) (*model.AttendanceRecord, error) {
	rec, err := scanAttendance(db.QueryRowContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance WHERE employee_id = ? AND date = ?`, employeeID, date))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// ListAttendance returns every record of a date ordered by shift and check-in.
func (db *DB) ListAttendance(ctx context.Context, date string) ([]model.AttendanceRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance WHERE date = ? ORDER BY shift_id, check_in, id`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AttendanceRecord
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}
