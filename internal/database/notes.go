package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"hozur/internal/model"
)

// AddHandoverNote appends a handover note.
func (db *DB) AddHandoverNote(ctx context.Context, n *model.HandoverNote) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO handover_notes (date, employee_id, shift_id, text, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		n.Date, n.EmployeeID, n.ShiftID, n.Text, n.CreatedAt,
	)
	if err != nil {
		return err
	}
	n.ID, err = res.LastInsertId()
	return err
}

// LatestHandoverNote returns the most recent handover note of a date, or nil.
func (db *DB) LatestHandoverNote(ctx context.Context, date string) (*model.HandoverNote, error) {
	var n model.HandoverNote
	err := db.QueryRowContext(ctx, `
		SELECT id, date, employee_id, shift_id, text, created_at
		FROM handover_notes WHERE date = ? ORDER BY id DESC LIMIT 1`, date,
	).Scan(&n.ID, &n.Date, &n.EmployeeID, &n.ShiftID, &n.Text, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListHandoverNotes returns the handover notes of a date in insertion order.
func (db *DB) ListHandoverNotes(ctx context.Context, date string) ([]model.HandoverNote, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, date, employee_id, shift_id, text, created_at
		FROM handover_notes WHERE date = ? ORDER BY shift_id, id`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.HandoverNote
	for rows.Next() {
		var n model.HandoverNote
		if err := rows.Scan(&n.ID, &n.Date, &n.EmployeeID, &n.ShiftID, &n.Text, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// AddManagerNote appends a manager note.
func (db *DB) AddManagerNote(ctx context.Context, n *model.ManagerNote) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO manager_notes (date, shift_id, author_id, text, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		n.Date, n.ShiftID, n.AuthorID, n.Text, n.CreatedAt,
	)
	if err != nil {
		return err
	}
	n.ID, err = res.LastInsertId()
	return err
}

// LatestManagerNote returns the newest manager note of a date. A negative shiftID
// matches any note; otherwise notes for that shift and all-shift notes match.
func (db *DB) LatestManagerNote(ctx context.Context, date string, shiftID int) (*model.ManagerNote, error) {
	query := `SELECT id, date, shift_id, author_id, text, created_at FROM manager_notes WHERE date = ?`
	args := []any{date}
	if shiftID >= 0 {
		query += ` AND shift_id IN (0, ?)`
		args = append(args, shiftID)
	}
	query += ` ORDER BY id DESC LIMIT 1`

	var n model.ManagerNote
	err := db.QueryRowContext(ctx, query, args...).
		Scan(&n.ID, &n.Date, &n.ShiftID, &n.AuthorID, &n.Text, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}
