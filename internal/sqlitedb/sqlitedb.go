// Package sqlitedb opens the SQLite files behind the document store and the
// job queue. It applies connection pragmas to every pooled connection,
// installs a store's schema on first open, refuses files written by another
// schema version, and retries writes that lose a lock race.
package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrSchemaMismatch reports a database file created for a different schema
// version than the running binary expects.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Schema is the DDL a store owns. Version is recorded in the file's
// user_version header and must be positive.
type Schema struct {
	Name    string
	Version int
	DDL     string
}

// Backoff bounds the busy retry loop.
type Backoff struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// DefaultBackoff is used by Open.
var DefaultBackoff = Backoff{Attempts: 5, Initial: 10 * time.Millisecond, Max: 200 * time.Millisecond}

// DB is a SQLite handle that knows its file path and retries busy writes.
type DB struct {
	*sql.DB
	path    string
	schema  Schema
	backoff Backoff
}

// Open connects to the database at path and installs schema when the file
// is new.
func Open(ctx context.Context, path string, schema Schema) (*DB, error) {
	if schema.Version <= 0 {
		return nil, fmt.Errorf("%s schema: version must be positive", schema.Name)
	}
	conn, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", schema.Name, err)
	}
	db := &DB{DB: conn, path: path, schema: schema, backoff: DefaultBackoff}
	if err := db.install(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	return path + "?" + q.Encode()
}

// Path returns the database file location.
func (db *DB) Path() string {
	return db.path
}

// UserVersion reads the schema version stamped in the file header.
func (db *DB) UserVersion(ctx context.Context) (int, error) {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("read %s schema version: %w", db.schema.Name, err)
	}
	return version, nil
}

func (db *DB) install(ctx context.Context) error {
	version, err := db.UserVersion(ctx)
	if err != nil {
		return err
	}
	switch version {
	case db.schema.Version:
		return nil
	case 0:
	default:
		return fmt.Errorf("%w: %s database %s has version %d, expected %d (delete it to recreate)",
			ErrSchemaMismatch, db.schema.Name, db.path, version, db.schema.Version)
	}

	return db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, db.schema.DDL); err != nil {
			return fmt.Errorf("create %s schema: %w", db.schema.Name, err)
		}
		// PRAGMA arguments cannot be bound.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", db.schema.Version)); err != nil {
			return fmt.Errorf("stamp %s schema version: %w", db.schema.Name, err)
		}
		return nil
	})
}

// InTx runs fn inside a transaction, committing when fn returns nil. The
// whole transaction is retried while SQLite reports the database busy.
func (db *DB) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return db.Retry(ctx, func() error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
}

// ExecRetry is ExecContext with busy retries.
func (db *DB) ExecRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := db.Retry(ctx, func() error {
		var execErr error
		res, execErr = db.ExecContext(ctx, query, args...)
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Retry calls op until it succeeds, fails with a non-busy error, or the
// backoff is exhausted.
func (db *DB) Retry(ctx context.Context, op func() error) error {
	return db.backoff.run(ctx, op)
}

func (b Backoff) run(ctx context.Context, op func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Initial
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil || !IsBusy(err) || attempt >= attempts {
			return err
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = min(delay*2, b.Max)
	}
}

// IsBusy reports whether err is SQLite refusing a lock.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
		return false
	}
	return strings.Contains(err.Error(), "database is locked")
}
