package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"hozur/internal/model"
)

const leaveColumns = `id, date, employee_id, reason, status, resolved_by, resolved_at, created_at`

func scanLeave(row rowScanner) (*model.LeaveRequest, error) {
	var r model.LeaveRequest
	var status string
	var resolvedAt sql.NullTime
	if err := row.Scan(&r.ID, &r.Date, &r.EmployeeID, &r.Reason, &status, &r.ResolvedBy, &resolvedAt, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Status = model.Status(status)
	r.ResolvedAt = timePtr(resolvedAt)
	return &r, nil
}

// CreateLeaveRequest inserts a pending leave request.
func (db *DB) CreateLeaveRequest(ctx context.Context, r *model.LeaveRequest) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.Status = model.StatusPending
	res, err := db.ExecContext(ctx, `
		INSERT INTO leave_requests (date, employee_id, reason, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.Date, r.EmployeeID, r.Reason, r.Status, r.CreatedAt,
	)
	if err != nil {
		return err
	}
	r.ID, err = res.LastInsertId()
	return err
}

// GetLeaveRequest returns the request or nil when unknown.
func (db *DB) GetLeaveRequest(ctx context.Context, id int64) (*model.LeaveRequest, error) {
	r, err := scanLeave(db.QueryRowContext(ctx,
		`SELECT `+leaveColumns+` FROM leave_requests WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

// ResolveLeaveRequest moves a pending request to its terminal status. It reports
// false when the request was no longer pending.
func (db *DB) ResolveLeaveRequest(ctx context.Context, id int64, status model.Status, by int64, at time.Time) (bool, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE leave_requests SET status = ?, resolved_by = ?, resolved_at = ?
		WHERE id = ? AND status = ?`,
		status, by, at, id, model.StatusPending,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListLeaveRequests returns the requests for a date, or every pending request
// when date is empty.
func (db *DB) ListLeaveRequests(ctx context.Context, date string) ([]model.LeaveRequest, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests`
	var args []any
	if date != "" {
		query += ` WHERE date = ?`
		args = append(args, date)
	} else {
		query += ` WHERE status = ?`
		args = append(args, model.StatusPending)
	}
	query += ` ORDER BY id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LeaveRequest
	for rows.Next() {
		r, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// OnApprovedLeave returns the employees with approved leave on date.
func (db *DB) OnApprovedLeave(ctx context.Context, date string) (map[int64]struct{}, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT employee_id FROM leave_requests WHERE date = ? AND status = ?`,
		date, model.StatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}
