package queue

import (
	"context"
	_ "embed"
	"fmt"

	"pantrypal/internal/config"
	"pantrypal/internal/sqlitedb"
)

//go:embed schema.sql
var schemaDDL string

// schemaVersion is stamped into the queue file. Bump it with schema.sql.
const schemaVersion = 1

var schema = sqlitedb.Schema{Name: "queue", Version: schemaVersion, DDL: schemaDDL}

// Store manages hydration job persistence backed by SQLite.
type Store struct {
	db *sqlitedb.DB
}

// Open initializes or connects to the queue database under the data dir.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.QueueDBPath())
}

// OpenPath opens the queue database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sqlitedb.Open(context.Background(), dbPath, schema)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	_, err := s.db.ExecRetry(ensureContext(ctx), query, args...)
	return err
}
