// Package ledger records batch run outcomes: one row per run and one row per
// processed document. It is an audit surface, not a control surface; a run
// proceeds even when only the memory ledger is available.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// Status classifies a finished run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one invocation of a task over a document collection.
type Run struct {
	ID         string
	Task       string
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Failed     int
	Status     Status
}

// Item is one document processed within a run. Err is empty on success.
type Item struct {
	RunID      string
	Key        string
	Err        string
	Duration   time.Duration
	RecordedAt time.Time
}

// Ledger persists run and item records.
type Ledger interface {
	BeginRun(ctx context.Context, run Run) error
	RecordItem(ctx context.Context, item Item) error
	FinishRun(ctx context.Context, id string, total, failed int, status Status) error
	Runs(ctx context.Context) ([]Run, error)
	Items(ctx context.Context, runID string) ([]Item, error)
	Close() error
}

// ErrUnknownRun is returned when an operation references a run id that was
// never begun.
var ErrUnknownRun = errors.New("ledger: unknown run")

// Open selects a Ledger implementation using environment variables.
//
//	POLYTROPOS_LEDGER_DRIVER: memory|sqlite|postgres (default memory)
//	POLYTROPOS_LEDGER_SQLITE_PATH: database file when driver=sqlite (default polytropos.db)
//	POLYTROPOS_LEDGER_POSTGRES_DSN: DSN when driver=postgres
func Open(ctx context.Context) (Ledger, error) {
	driver := os.Getenv("POLYTROPOS_LEDGER_DRIVER")
	if driver == "" {
		driver = "memory"
	}
	switch driver {
	case "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(ctx, os.Getenv("POLYTROPOS_LEDGER_SQLITE_PATH"))
	case "postgres":
		return OpenPostgres(ctx, os.Getenv("POLYTROPOS_LEDGER_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("ledger: unknown driver %s", driver)
	}
}
