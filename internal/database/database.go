package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB wraps sql.DB for the attendance bot.
type DB struct {
	*sql.DB
	logger zerolog.Logger
}

// NewDB opens the database at path and runs migrations.
func NewDB(path string, logger zerolog.Logger) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL, busy timeout and immediate transactions so concurrent writers queue instead of failing.
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_txlock=immediate&_loc=auto"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	l := logger.With().Str("component", "database").Logger()
	l.Info().Str("path", path).Msg("database ready")
	return &DB{DB: db, logger: l}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS employees (
			id INTEGER PRIMARY KEY,
			display_name TEXT NOT NULL DEFAULT '',
			handle TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS assignments (
			employee_id INTEGER NOT NULL,
			date TEXT NOT NULL,
			shift_id INTEGER NOT NULL,
			assigned_by INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (employee_id, date)
		)`,

		`CREATE TABLE IF NOT EXISTS attendance (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			employee_id INTEGER NOT NULL,
			shift_id INTEGER NOT NULL,
			check_in DATETIME,
			check_out DATETIME,
			delay_minutes INTEGER NOT NULL DEFAULT 0 CHECK (delay_minutes >= 0)
		)`,

		`CREATE TABLE IF NOT EXISTS handover_notes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			employee_id INTEGER NOT NULL,
			shift_id INTEGER NOT NULL,
			text TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS manager_notes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			shift_id INTEGER NOT NULL DEFAULT 0,
			author_id INTEGER NOT NULL,
			text TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS leave_requests (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			employee_id INTEGER NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			resolved_by INTEGER NOT NULL DEFAULT 0,
			resolved_at DATETIME,
			created_at DATETIME NOT NULL
		)`,

		// Indexes
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_employee_date ON attendance(employee_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance(date, shift_id)`,
		`CREATE INDEX IF NOT EXISTS idx_assignments_date ON assignments(date, shift_id)`,
		`CREATE INDEX IF NOT EXISTS idx_handover_notes_date ON handover_notes(date)`,
		`CREATE INDEX IF NOT EXISTS idx_manager_notes_date ON manager_notes(date, shift_id)`,
		`CREATE INDEX IF NOT EXISTS idx_leave_requests_date ON leave_requests(date)`,
		`CREATE INDEX IF NOT EXISTS idx_leave_requests_status ON leave_requests(status)`,
		`CREATE INDEX IF NOT EXISTS idx_employees_status ON employees(status)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
