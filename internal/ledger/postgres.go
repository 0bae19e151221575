package ledger

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const defaultPostgresDSN = "postgres://localhost/polytropos?sslmode=disable"

// OpenPostgres opens a Postgres-backed ledger using the provided DSN.
func OpenPostgres(ctx context.Context, dsn string) (Ledger, error) {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("ledger: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ledger: ping postgres: %w", err)
	}
	return newSQLLedger(ctx, db, rebindPositional)
}
