package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"hozur/internal/model"
)

// UpsertAssignment sets the shift of an employee for a date. The last write wins.
func (db *DB) UpsertAssignment(ctx context.Context, a *model.Assignment) error {
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO assignments (employee_id, date, shift_id, assigned_by, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, date) DO UPDATE SET
			shift_id = excluded.shift_id,
			assigned_by = excluded.assigned_by,
			updated_at = excluded.updated_at`,
		a.EmployeeID, a.Date, a.ShiftID, a.AssignedBy, a.UpdatedAt,
	)
	return err
}

// GetAssignment returns the assignment or nil when none is set.
func (db *DB) GetAssignment(ctx context.Context, employeeID int64, date string) (*model.Assignment, error) {
	var a model.Assignment
	err := db.QueryRowContext(ctx, `
		SELECT employee_id, date, shift_id, assigned_by, updated_at
		FROM assignments WHERE employee_id = ? AND date = ?`, employeeID, date,
	).Scan(&a.EmployeeID, &a.Date, &a.ShiftID, &a.AssignedBy, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAssignments returns the assignments of a date. shiftID 0 returns every shift.
func (db *DB) ListAssignments(ctx context.Context, date string, shiftID int) ([]model.Assignment, error) {
	query := `SELECT employee_id, date, shift_id, assigned_by, updated_at FROM assignments WHERE date = ?`
	args := []any{date}
	if shiftID != 0 {
		query += ` AND shift_id = ?`
		args = append(args, shiftID)
	}
	query += ` ORDER BY shift_id, employee_id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.EmployeeID, &a.Date, &a.ShiftID, &a.AssignedBy, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
