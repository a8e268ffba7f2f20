package kv

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/watchfilter/internal/value"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteBackend keeps mirrors in an in-memory SQLite database.
//
// The database lives on a single connection that is never recycled, so
// its contents last exactly as long as the backend. Nothing is written to
// disk. Query errors are logged and treated as absence, keeping the Store
// contract infallible.
type SQLiteBackend struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite creates an empty in-memory SQLite backend.
func OpenSQLite() (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Each connection to :memory: is a separate database, so pin one.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteBackend{db: db, logger: slog.Default()}, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = MEMORY",
		"PRAGMA synchronous = OFF",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database, discarding its contents.
func (b *SQLiteBackend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Get returns the mirror stored under key.
func (b *SQLiteBackend) Get(key string) (value.Mirror, bool) {
	var data []byte
	err := b.db.QueryRowContext(context.Background(),
		`SELECT value FROM kv WHERE key = ?`, key).Scan(&data)
	if err == sql.ErrNoRows {
		return value.Null(), false
	}
	if err != nil {
		b.logger.Error("kv get failed", "key", key, "error", err)
		return value.Null(), false
	}

	m, err := value.DecodeCBOR(data)
	if err != nil {
		b.logger.Error("kv decode failed", "key", key, "error", err)
		return value.Null(), false
	}
	return m, true
}

// Put stores m under key, replacing any previous entry.
func (b *SQLiteBackend) Put(key string, m value.Mirror) {
	data, err := value.EncodeCBOR(m)
	if err != nil {
		b.logger.Error("kv encode failed", "key", key, "error", err)
		return
	}

	_, err = b.db.ExecContext(context.Background(), `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, data)
	if err != nil {
		b.logger.Error("kv put failed", "key", key, "error", err)
	}
}

// Clear deletes every entry.
func (b *SQLiteBackend) Clear() {
	if _, err := b.db.ExecContext(context.Background(), `DELETE FROM kv`); err != nil {
		b.logger.Error("kv clear failed", "error", err)
	}
}

// Len returns the number of entries.
func (b *SQLiteBackend) Len() int {
	var n int
	if err := b.db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM kv`).Scan(&n); err != nil {
		b.logger.Error("kv count failed", "error", err)
		return 0
	}
	return n
}

// Keys returns all keys in sorted order.
func (b *SQLiteBackend) Keys() []string {
	rows, err := b.db.QueryContext(context.Background(), `SELECT key FROM kv ORDER BY key ASC`)
	if err != nil {
		b.logger.Error("kv keys failed", "error", err)
		return nil
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			b.logger.Error("kv keys scan failed", "error", err)
			return keys
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		b.logger.Error("kv keys failed", "error", err)
	}
	return keys
}
