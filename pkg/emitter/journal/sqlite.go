package journal

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists failed emissions to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite journal store.
// The path should be a file path (e.g., "./emissions.db") or ":memory:" for
// testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS failed_emissions (
			emission_id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			args BLOB,
			error_message TEXT NOT NULL,
			unhandled INTEGER NOT NULL,
			occurred_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_failed_emissions_event_type
		ON failed_emissions(event_type)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Record implements Store.
func (s *SQLiteStore) Record(ctx context.Context, failed *FailedEmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO failed_emissions
			(emission_id, event_type, args, error_message, unhandled, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(emission_id) DO UPDATE SET
			event_type = excluded.event_type,
			args = excluded.args,
			error_message = excluded.error_message,
			unhandled = excluded.unhandled,
			occurred_at = excluded.occurred_at
	`, failed.EmissionID, failed.EventType, failed.Args, failed.ErrorMessage,
		boolToInt(failed.Unhandled), failed.OccurredAt.UTC().Format(time.RFC3339Nano))

	if err != nil {
		return fmt.Errorf("record failed emission: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, emissionID string) (*FailedEmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT emission_id, event_type, args, error_message, unhandled, occurred_at
		FROM failed_emissions
		WHERE emission_id = ?
	`, emissionID)

	failed, err := scanFailedEmission(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get failed emission: %w", err)
	}
	return failed, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, eventType string, limit int) ([]*FailedEmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	query := `
		SELECT emission_id, event_type, args, error_message, unhandled, occurred_at
		FROM failed_emissions
	`
	args := []any{}
	if eventType != "" {
		query += " WHERE event_type = ?"
		args = append(args, eventType)
	}
	query += " ORDER BY occurred_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list failed emissions: %w", err)
	}
	defer rows.Close()

	var out []*FailedEmission
	for rows.Next() {
		failed, err := scanFailedEmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan failed emission: %w", err)
		}
		out = append(out, failed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failed emissions: %w", err)
	}
	return out, nil
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM failed_emissions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count failed emissions: %w", err)
	}
	return n, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, emissionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM failed_emissions WHERE emission_id = ?`, emissionID); err != nil {
		return fmt.Errorf("delete failed emission: %w", err)
	}
	return nil
}

// Clear implements Store.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM failed_emissions`); err != nil {
		return fmt.Errorf("clear failed emissions: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// scanner abstracts sql.Row and sql.Rows for scanFailedEmission.
type scanner interface {
	Scan(dest ...any) error
}

func scanFailedEmission(row scanner) (*FailedEmission, error) {
	var failed FailedEmission
	var unhandled int
	var occurredAt string
	if err := row.Scan(&failed.EmissionID, &failed.EventType, &failed.Args,
		&failed.ErrorMessage, &unhandled, &occurredAt); err != nil {
		return nil, err
	}
	failed.Unhandled = unhandled != 0
	ts, err := time.Parse(time.RFC3339Nano, occurredAt)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp: %w", err)
	}
	failed.OccurredAt = ts
	return &failed, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
