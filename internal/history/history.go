// Package history appends operation outcomes to a local sqlite database
// so past invocations can be audited with the history command. Failures
// here must never fail the operation being recorded; callers log and
// move on.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one recorded operation outcome.
type Entry struct {
	ID         int64     `json:"id"`
	Op         string    `json:"op"`
	Detail     string    `json:"detail,omitempty"`
	PID        int       `json:"pid,omitempty"`
	OK         bool      `json:"ok"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Log is an append-only operation log backed by sqlite.
type Log struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path and
// ensures the schema. sqlite works best with a single connection.
func Open(path string) (*Log, error) {
	if path == "" {
		return nil, fmt.Errorf("empty history database path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	l := &Log{db: db}
	if err := l.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Log) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS operation_history(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			occurred_at TIMESTAMP NOT NULL,
			op TEXT NOT NULL,
			detail TEXT NOT NULL,
			pid INTEGER NOT NULL,
			ok BOOLEAN NOT NULL,
			error TEXT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_operation_history_op ON operation_history(op);`,
	}
	for _, q := range stmts {
		if _, err := l.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure history schema: %w", err)
		}
	}
	return nil
}

// Append records one entry. OccurredAt defaults to now.
func (l *Log) Append(ctx context.Context, e Entry) error {
	occur := e.OccurredAt
	if occur.IsZero() {
		occur = time.Now()
	}
	errText := any(nil)
	if e.Error != "" {
		errText = e.Error
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO operation_history(occurred_at, op, detail, pid, ok, error)
		VALUES(?, ?, ?, ?, ?, ?);`,
		occur.UTC(), e.Op, e.Detail, e.PID, e.OK, errText)
	return err
}

// Recent returns up to n entries, newest first.
func (l *Log) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, occurred_at, op, detail, pid, ok, COALESCE(error, '')
		FROM operation_history ORDER BY id DESC LIMIT ?;`, n)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.OccurredAt, &e.Op, &e.Detail, &e.PID, &e.OK, &e.Error); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (l *Log) Close() error { return l.db.Close() }
