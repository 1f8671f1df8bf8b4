// Package db implements PostgreSQL persistence for workflows, steps, and
// dependency edges.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// DB wraps a database/sql connection pool for PostgreSQL.
type DB struct {
	Pool *sql.DB
}

// New creates a new database connection.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pool.SetMaxOpenConns(25)
	pool.SetMaxIdleConns(5)

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the connection pool.
func (d *DB) Close() error {
	return d.Pool.Close()
}

// Migrate runs the database schema migrations.
func (d *DB) Migrate(ctx context.Context) error {
	_, err := d.Pool.ExecContext(ctx, migrationSQL)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// The UNIQUE constraints mirror the domain invariants: workflow ids are
// global, step ids are per-workflow, dependency pairs are per-workflow.
// ON DELETE CASCADE gives workflow deletion its ownership semantics.
const migrationSQL = `
CREATE TABLE IF NOT EXISTS workflows (
    internal_id TEXT PRIMARY KEY,
    id          TEXT UNIQUE NOT NULL,
    name        TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS steps (
    internal_id TEXT PRIMARY KEY,
    workflow_id TEXT NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
    id          TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    UNIQUE (workflow_id, id)
);

CREATE TABLE IF NOT EXISTS dependencies (
    workflow_id     TEXT NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
    step_id         TEXT NOT NULL,
    prerequisite_id TEXT NOT NULL,
    PRIMARY KEY (workflow_id, step_id, prerequisite_id),
    FOREIGN KEY (workflow_id, step_id) REFERENCES steps(workflow_id, id) ON DELETE CASCADE,
    FOREIGN KEY (workflow_id, prerequisite_id) REFERENCES steps(workflow_id, id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_steps_workflow_id ON steps(workflow_id);
CREATE INDEX IF NOT EXISTS idx_dependencies_workflow_id ON dependencies(workflow_id);
`
