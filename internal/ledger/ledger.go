// Package ledger records pipeline runs and per-model outcomes in
// Postgres. The ledger is optional: runs behave identically without it.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nrt-labs/nrtpredict-go/internal/platform/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS pipeline_runs (
	id          TEXT PRIMARY KEY,
	locator     TEXT NOT NULL,
	status      TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS pipeline_model_outputs (
	run_id       TEXT NOT NULL REFERENCES pipeline_runs(id),
	model        TEXT NOT NULL,
	output       TEXT NOT NULL,
	completed_at TIMESTAMPTZ NOT NULL
);
`

type Ledger struct {
	db    *sql.DB
	runID string
	now   func() time.Time
}

// Open connects to the ledger database and ensures its schema.
func Open(ctx context.Context, dsn string, pingTimeout time.Duration) (*Ledger, error) {
	db, err := postgres.Open(ctx, postgres.Config{DSN: dsn, PingTimeout: pingTimeout})
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure ledger schema: %w", err)
	}
	return &Ledger{db: db, now: time.Now}, nil
}

func (l *Ledger) StartRun(ctx context.Context, locator string) error {
	if l == nil || l.db == nil {
		return errors.New("ledger not initialized")
	}
	l.runID = uuid.NewString()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO pipeline_runs (id, locator, status, started_at) VALUES ($1, $2, 'running', $3)`,
		l.runID, locator, l.now().UTC())
	return err
}

func (l *Ledger) ModelCompleted(ctx context.Context, name, output string) error {
	if l == nil || l.db == nil {
		return errors.New("ledger not initialized")
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO pipeline_model_outputs (run_id, model, output, completed_at) VALUES ($1, $2, $3, $4)`,
		l.runID, name, output, l.now().UTC())
	return err
}

func (l *Ledger) FinishRun(ctx context.Context, status string) error {
	if l == nil || l.db == nil {
		return errors.New("ledger not initialized")
	}
	_, err := l.db.ExecContext(ctx,
		`UPDATE pipeline_runs SET status = $1, finished_at = $2 WHERE id = $3`,
		status, l.now().UTC(), l.runID)
	return err
}

func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}
