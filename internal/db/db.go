// Package db implements the page registry on SQLite.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a lookup by id matches no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert would violate an identity index.
	ErrDuplicate = errors.New("duplicate identity")
	// ErrVersionConflict is returned when a content write lost a race.
	ErrVersionConflict = errors.New("content version conflict")
	// ErrInvalidNode is returned when a node violates the hub/spoke shape.
	ErrInvalidNode = errors.New("invalid node")
	// ErrSlugTaken is returned when a new page's slug belongs to another page.
	ErrSlugTaken = errors.New("slug already in use")
)

// DB wraps a SQLite database connection
type DB struct {
	conn *sql.DB
	Path string
	now  func() time.Time
}

// OpenDB opens a SQLite database with WAL mode and foreign keys enabled and
// applies the schema. All access goes through a single connection, which also
// serialises writers.
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent readers from other processes
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &DB{conn: conn, Path: path, now: time.Now}, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// Conn returns the underlying sql.DB for custom queries
func (d *DB) Conn() *sql.DB {
	return d.conn
}

// SetClock replaces the time source used for timestamps.
func (d *DB) SetClock(now func() time.Time) {
	d.now = now
}

func (d *DB) nowMillis() int64 {
	return d.now().UnixMilli()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFound(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("loading %s %s: %w", what, id, err)
}
