package sqlitedb_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"pantrypal/internal/sqlitedb"
)

var testSchema = sqlitedb.Schema{
	Name:    "test",
	Version: 1,
	DDL:     "CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT NOT NULL);",
}

func openTestDB(t *testing.T, path string, schema sqlitedb.Schema) *sqlitedb.DB {
	t.Helper()
	db, err := sqlitedb.Open(context.Background(), path, schema)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenInstallsSchemaOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notes.db")

	db := openTestDB(t, path, testSchema)
	if _, err := db.ExecRetry(ctx, "INSERT INTO notes (body) VALUES (?)", "first"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	version, err := db.UserVersion(ctx)
	if err != nil {
		t.Fatalf("UserVersion: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected version 1, got %d", version)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := openTestDB(t, path, testSchema)
	var count int
	if err := reopened.QueryRowContext(ctx, "SELECT COUNT(*) FROM notes").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected existing row to survive reopen, got %d rows", count)
	}
	if reopened.Path() != path {
		t.Fatalf("unexpected path %q", reopened.Path())
	}
}

func TestOpenRejectsOtherSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.db")
	db := openTestDB(t, path, testSchema)
	_ = db.Close()

	next := testSchema
	next.Version = 2
	_, err := sqlitedb.Open(context.Background(), path, next)
	if !errors.Is(err, sqlitedb.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestOpenRejectsUnversionedSchema(t *testing.T) {
	bad := testSchema
	bad.Version = 0
	if _, err := sqlitedb.Open(context.Background(), filepath.Join(t.TempDir(), "x.db"), bad); err == nil {
		t.Fatal("expected error for zero schema version")
	}
}

func TestIsBusyRecognizesLockContention(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notes.db")
	_ = openTestDB(t, path, testSchema)

	holder, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open holder: %v", err)
	}
	defer holder.Close()
	conn, err := holder.Conn(ctx)
	if err != nil {
		t.Fatalf("conn: %v", err)
	}
	defer conn.Close()
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer func() { _, _ = conn.ExecContext(ctx, "ROLLBACK") }()

	writer, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(0)")
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	defer writer.Close()
	_, err = writer.ExecContext(ctx, "INSERT INTO notes (body) VALUES ('blocked')")
	if err == nil {
		t.Fatal("expected write to fail while another connection holds the lock")
	}
	if !sqlitedb.IsBusy(err) {
		t.Fatalf("expected busy error, got %v", err)
	}
	if sqlitedb.IsBusy(errors.New("no such table: notes")) {
		t.Fatal("plain errors must not read as busy")
	}
}

func TestRetry(t *testing.T) {
	db := openTestDB(t, filepath.Join(t.TempDir(), "notes.db"), testSchema)
	busy := errors.New("database is locked")

	t.Run("recovers after busy", func(t *testing.T) {
		calls := 0
		err := db.Retry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return busy
			}
			return nil
		})
		if err != nil || calls != 3 {
			t.Fatalf("expected success on third call, got err=%v calls=%d", err, calls)
		}
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		calls := 0
		err := db.Retry(context.Background(), func() error {
			calls++
			return busy
		})
		if !errors.Is(err, busy) || calls != sqlitedb.DefaultBackoff.Attempts {
			t.Fatalf("expected %d attempts ending busy, got err=%v calls=%d", sqlitedb.DefaultBackoff.Attempts, err, calls)
		}
	})

	t.Run("other errors are returned at once", func(t *testing.T) {
		calls := 0
		boom := errors.New("constraint failed")
		err := db.Retry(context.Background(), func() error {
			calls++
			return boom
		})
		if !errors.Is(err, boom) || calls != 1 {
			t.Fatalf("expected single call, got err=%v calls=%d", err, calls)
		}
	})

	t.Run("stops when the context ends", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := db.Retry(ctx, func() error {
			calls++
			cancel()
			return busy
		})
		if !errors.Is(err, context.Canceled) || calls != 1 {
			t.Fatalf("expected cancellation after one call, got err=%v calls=%d", err, calls)
		}
	})
}

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, filepath.Join(t.TempDir(), "notes.db"), testSchema)

	boom := errors.New("abort")
	err := db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO notes (body) VALUES ('discarded')"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected abort error, got %v", err)
	}
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notes").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback, found %d rows", count)
	}
}
