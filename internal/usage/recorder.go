// Package usage keeps a per-day count of calls made to the validation
// service. It stores counts only, never verdicts.
package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Recorder counts outbound validation calls.
type Recorder interface {
	Record(ctx context.Context, service string) error
}

// Nop discards every record. It is used when no database is configured.
type Nop struct{}

// Record does nothing.
func (Nop) Record(context.Context, string) error { return nil }

// execer is the subset of pgxpool.Pool used by PGRecorder.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS validation_usage (
	day     DATE        NOT NULL,
	service TEXT        NOT NULL,
	calls   BIGINT      NOT NULL DEFAULT 0,
	updated TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (day, service)
)`

const incrementUsage = `
INSERT INTO validation_usage (day, service, calls, updated)
VALUES ($1, $2, 1, now())
ON CONFLICT (day, service)
DO UPDATE SET calls = validation_usage.calls + 1, updated = now()`

const selectUsage = `SELECT calls FROM validation_usage WHERE day = $1 AND service = $2`

// PGRecorder stores call counts in PostgreSQL.
type PGRecorder struct {
	db  execer
	now func() time.Time
}

// NewPGRecorder creates a PGRecorder on top of db.
func NewPGRecorder(db *DB) *PGRecorder {
	return &PGRecorder{db: db.Pool, now: time.Now}
}

// Migrate creates the usage table if it does not exist.
func (r *PGRecorder) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create usage table: %w", err)
	}
	return nil
}

// Record increments today's (UTC) call count for service.
func (r *PGRecorder) Record(ctx context.Context, service string) error {
	if _, err := r.db.Exec(ctx, incrementUsage, day(r.now()), service); err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

// Calls returns the number of calls recorded for service on the UTC day
// containing t.
func (r *PGRecorder) Calls(ctx context.Context, service string, t time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, selectUsage, day(t), service).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query usage: %w", err)
	}
	return n, nil
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
