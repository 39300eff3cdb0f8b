package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"hozur/internal/model"
)

// UpsertEmployee inserts a pending employee or refreshes display fields and
// resets an existing one to pending.
func (db *DB) UpsertEmployee(ctx context.Context, e *model.Employee) error {
	now := time.Now()
	_, err := db.ExecContext(ctx, `
		INSERT INTO employees (id, display_name, handle, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			handle = excluded.handle,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		e.ID, e.DisplayName, e.Handle, model.StatusPending, now, now,
	)
	if err != nil {
		return err
	}
	e.Status = model.StatusPending
	e.UpdatedAt = now
	return nil
}

// GetEmployee returns the employee or nil when absent.
func (db *DB) GetEmployee(ctx context.Context, id int64) (*model.Employee, error) {
	var e model.Employee
	var status string
	err := db.QueryRowContext(ctx, `
		SELECT id, display_name, handle, status, created_at, updated_at
		FROM employees WHERE id = ?`, id,
	).Scan(&e.ID, &e.DisplayName, &e.Handle, &status, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.Status = model.Status(status)
	return &e, nil
}

// TransitionEmployee moves an employee from one status to another. It reports
// false when the employee was not in the from status.
func (db *DB) TransitionEmployee(ctx context.Context, id int64, from, to model.Status) (bool, error) {
	res, err := db.ExecContext(ctx,
		`UPDATE employees SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, time.Now(), id, from,
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

// ListEmployees returns employees ordered by name. An empty status lists everyone.
func (db *DB) ListEmployees(ctx context.Context, status model.Status) ([]model.Employee, error) {
	query := `SELECT id, display_name, handle, status, created_at, updated_at FROM employees`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY display_name, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Employee
	for rows.Next() {
		var e model.Employee
		var st string
		if err := rows.Scan(&e.ID, &e.DisplayName, &e.Handle, &st, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Status = model.Status(st)
		out = append(out, e)
	}
	return out, rows.Err()
}

// EmployeesByID loads the given employees keyed by id. Unknown ids are skipped.
func (db *DB) EmployeesByID(ctx context.Context, ids []int64) (map[int64]model.Employee, error) {
	out := make(map[int64]model.Employee, len(ids))
	for _, id := range ids {
		if _, seen := out[id]; seen {
			continue
		}
		e, err := db.GetEmployee(ctx, id)
		if err != nil {
			return nil, err
		}
		if e != nil {
			out[id] = *e
		}
	}
	return out, nil
}
