package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// sqlLedger implements Ledger over database/sql. The sqlite and postgres
// constructors differ only in driver registration and placeholder style.
type sqlLedger struct {
	db       *sql.DB
	rebinder func(string) string
}

const ledgerDDL = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	task TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP,
	total INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS run_items (
	run_id TEXT NOT NULL,
	item_key TEXT NOT NULL,
	err TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL DEFAULT 0,
	recorded_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS run_items_run_id ON run_items (run_id);
`

func newSQLLedger(ctx context.Context, db *sql.DB, rebinder func(string) string) (*sqlLedger, error) {
	for _, stmt := range strings.Split(ledgerDDL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("ledger: apply ddl: %w", err)
		}
	}
	if rebinder == nil {
		rebinder = func(q string) string { return q }
	}
	return &sqlLedger{db: db, rebinder: rebinder}, nil
}

func (l *sqlLedger) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return l.db.ExecContext(ctx, l.rebinder(query), args...)
}

func (l *sqlLedger) BeginRun(ctx context.Context, run Run) error {
	_, err := l.exec(ctx,
		`INSERT INTO runs (id, task, started_at, status) VALUES (?, ?, ?, ?)`,
		run.ID, run.Task, run.StartedAt.UTC(), string(StatusRunning))
	if err != nil {
		return fmt.Errorf("ledger: begin run %s: %w", run.ID, err)
	}
	return nil
}

func (l *sqlLedger) RecordItem(ctx context.Context, item Item) error {
	_, err := l.exec(ctx,
		`INSERT INTO run_items (run_id, item_key, err, duration_ms, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		item.RunID, item.Key, item.Err, item.Duration.Milliseconds(), item.RecordedAt.UTC())
	if err != nil {
		return fmt.Errorf("ledger: record item %s: %w", item.Key, err)
	}
	return nil
}

func (l *sqlLedger) FinishRun(ctx context.Context, id string, total, failed int, status Status) error {
	res, err := l.exec(ctx,
		`UPDATE runs SET finished_at = ?, total = ?, failed = ?, status = ? WHERE id = ?`,
		time.Now().UTC(), total, failed, string(status), id)
	if err != nil {
		return fmt.Errorf("ledger: finish run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("ledger: finish run %s: %w", id, ErrUnknownRun)
	}
	return nil
}

func (l *sqlLedger) Runs(ctx context.Context) ([]Run, error) {
	rows, err := l.db.QueryContext(ctx, l.rebinder(
		`SELECT id, task, started_at, finished_at, total, failed, status FROM runs ORDER BY started_at`))
	if err != nil {
		return nil, fmt.Errorf("ledger: select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Run
	for rows.Next() {
		var run Run
		var finished sql.NullTime
		var status string
		if err := rows.Scan(&run.ID, &run.Task, &run.StartedAt, &finished, &run.Total, &run.Failed, &status); err != nil {
			return nil, fmt.Errorf("ledger: scan run: %w", err)
		}
		if finished.Valid {
			run.FinishedAt = finished.Time
		}
		run.Status = Status(status)
		out = append(out, run)
	}
	return out, rows.Err()
}

func (l *sqlLedger) Items(ctx context.Context, runID string) ([]Item, error) {
	rows, err := l.db.QueryContext(ctx, l.rebinder(
		`SELECT run_id, item_key, err, duration_ms, recorded_at FROM run_items WHERE run_id = ? ORDER BY recorded_at`), runID)
	if err != nil {
		return nil, fmt.Errorf("ledger: select items: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Item
	for rows.Next() {
		var item Item
		var ms int64
		if err := rows.Scan(&item.RunID, &item.Key, &item.Err, &ms, &item.RecordedAt); err != nil {
			return nil, fmt.Errorf("ledger: scan item: %w", err)
		}
		item.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, item)
	}
	return out, rows.Err()
}

func (l *sqlLedger) Close() error { return l.db.Close() }

// rebindPositional rewrites ? placeholders to $1..$n for drivers that require
// numbered parameters.
func rebindPositional(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
