// Package db provides PostgreSQL storage for the job ledger and the durable
// enrichment cache.
package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
)

//go:embed schema.sql
var schemaSQL string

// DriverName is the database/sql driver used for PostgreSQL
const DriverName = "pgx"

// DB wraps a PostgreSQL connection pool
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	conn, err := sql.Open(DriverName, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return New(conn), nil
}

// New wraps an existing connection pool
func New(conn *sql.DB) *DB {
	return &DB{conn: conn, now: time.Now}
}

// WithClock returns a copy of db that reads time from now
func (db *DB) WithClock(now func() time.Time) *DB {
	c := *db
	c.now = now
	return &c
}

// Close closes the connection pool
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Migrate creates the ledger and cache tables if they do not exist
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Ping checks the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}
