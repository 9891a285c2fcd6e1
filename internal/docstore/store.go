package docstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"pantrypal/internal/config"
	"pantrypal/internal/keylock"
	"pantrypal/internal/pantry"
	"pantrypal/internal/services"
	"pantrypal/internal/sqlitedb"
)

//go:embed schema.sql
var schemaDDL string

// schemaVersion is stamped into the document file. Bump it with schema.sql.
const schemaVersion = 1

var schema = sqlitedb.Schema{Name: "document", Version: schemaVersion, DDL: schemaDDL}

// Document is one stored record. Body is the JSON encoding of the typed
// record; Active mirrors the soft-delete flag.
type Document struct {
	PK        string
	SK        string
	Body      []byte
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is a partitioned key/value document store backed by SQLite.
type Store struct {
	db    *sqlitedb.DB
	locks *keylock.Map
	now   func() time.Time
}

// Open initializes or connects to the document database under the data dir.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DocumentDBPath())
}

// OpenPath opens the document database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sqlitedb.Open(context.Background(), dbPath, schema)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, locks: keylock.New(), now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.db.Path()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ensureContext(ctx)); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// Get returns the active document for (owner, kind, id). Missing and
// soft-deleted documents both report services.ErrNotFound.
func (s *Store) Get(ctx context.Context, owner string, kind pantry.RecordType, id string) (*Document, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT pk, sk, body, active, created_at, updated_at FROM documents
		 WHERE pk = ? AND sk = ? AND active = 1`,
		pantry.PartitionKey(owner), pantry.SortKey(kind, id),
	)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(kind, id)
	}
	if err != nil {
		return nil, unavailable("get", err)
	}
	return doc, nil
}

// ListByPrefix returns every active document of kind owned by owner.
func (s *Store) ListByPrefix(ctx context.Context, owner string, kind pantry.RecordType) ([]Document, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT pk, sk, body, active, created_at, updated_at FROM documents
		 WHERE pk = ? AND active = 1 AND sk >= ? AND sk < ?
		 ORDER BY created_at, sk`,
		pantry.PartitionKey(owner), pantry.SortPrefix(kind), prefixUpperBound(pantry.SortPrefix(kind)),
	)
	if err != nil {
		return nil, unavailable("list", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, unavailable("list", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list", err)
	}
	return docs, nil
}

// Put writes body as the active document for (owner, kind, id), replacing
// any previous version.
func (s *Store) Put(ctx context.Context, owner string, kind pantry.RecordType, id string, body []byte) error {
	ctx = ensureContext(ctx)
	now := formatTime(s.now())
	_, err := s.db.ExecRetry(ctx,
		`INSERT INTO documents (pk, sk, body, active, created_at, updated_at)
		 VALUES (?, ?, ?, 1, ?, ?)
		 ON CONFLICT(pk, sk) DO UPDATE SET body = excluded.body, active = 1, updated_at = excluded.updated_at`,
		pantry.PartitionKey(owner), pantry.SortKey(kind, id), string(body), now, now,
	)
	if err != nil {
		return unavailable("put", err)
	}
	return nil
}

// SoftDelete marks the document inactive. The row is kept.
func (s *Store) SoftDelete(ctx context.Context, owner string, kind pantry.RecordType, id string) error {
	ctx = ensureContext(ctx)
	unlock := s.locks.Lock(lockKey(owner, kind, id))
	defer unlock()

	res, err := s.db.ExecRetry(ctx,
		`UPDATE documents SET active = 0, updated_at = ? WHERE pk = ? AND sk = ? AND active = 1`,
		formatTime(s.now()), pantry.PartitionKey(owner), pantry.SortKey(kind, id),
	)
	if err != nil {
		return unavailable("soft delete", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(kind, id)
	}
	return nil
}

// Patch applies mutate to the body of an active document inside a single
// transaction. Missing or inactive documents report services.ErrNotFound and
// are never written, so a patch cannot resurrect a soft-deleted record.
func (s *Store) Patch(ctx context.Context, owner string, kind pantry.RecordType, id string, mutate func(body []byte) ([]byte, error)) ([]byte, error) {
	ctx = ensureContext(ctx)
	unlock := s.locks.Lock(lockKey(owner, kind, id))
	defer unlock()

	pk, sk := pantry.PartitionKey(owner), pantry.SortKey(kind, id)
	var (
		updated   []byte
		mutateErr error
	)
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		var body string
		err := tx.QueryRowContext(ctx,
			"SELECT body FROM documents WHERE pk = ? AND sk = ? AND active = 1", pk, sk,
		).Scan(&body)
		if errors.Is(err, sql.ErrNoRows) {
			mutateErr = notFound(kind, id)
			return mutateErr
		}
		if err != nil {
			return err
		}

		next, err := mutate([]byte(body))
		if err != nil {
			mutateErr = err
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE documents SET body = ?, updated_at = ? WHERE pk = ? AND sk = ? AND active = 1",
			string(next), formatTime(s.now()), pk, sk,
		); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if mutateErr != nil {
		return nil, mutateErr
	}
	if err != nil {
		return nil, unavailable("patch", err)
	}
	return updated, nil
}

// Counts holds document totals for one record type.
type Counts struct {
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}

// CountByKind reports active and inactive document totals per record type.
func (s *Store) CountByKind(ctx context.Context) (map[pantry.RecordType]Counts, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT substr(sk, 1, instr(sk, '#') - 1) AS kind, active, COUNT(*) FROM documents GROUP BY kind, active`,
	)
	if err != nil {
		return nil, unavailable("count", err)
	}
	defer rows.Close()

	counts := make(map[pantry.RecordType]Counts)
	for rows.Next() {
		var (
			kind   string
			active int
			n      int
		)
		if err := rows.Scan(&kind, &active, &n); err != nil {
			return nil, unavailable("count", err)
		}
		entry := counts[pantry.RecordType(kind)]
		if active == 1 {
			entry.Active += n
		} else {
			entry.Inactive += n
		}
		counts[pantry.RecordType(kind)] = entry
	}
	return counts, rows.Err()
}

func scanDocument(scanner interface{ Scan(dest ...any) error }) (*Document, error) {
	var (
		doc        Document
		body       string
		active     int
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&doc.PK, &doc.SK, &body, &active, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	doc.Body = []byte(body)
	doc.Active = active == 1
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		doc.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		doc.UpdatedAt = updated
	}
	return &doc, nil
}

// timeLayout is fixed width so created_at orders correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// prefixUpperBound returns the smallest string greater than every string
// starting with prefix. Prefixes here always end in '#'.
func prefixUpperBound(prefix string) string {
	if prefix == "" {
		return ""
	}
	last := prefix[len(prefix)-1]
	return prefix[:len(prefix)-1] + string(last+1)
}

func lockKey(owner string, kind pantry.RecordType, id string) string {
	return owner + "/" + pantry.SortKey(kind, id)
}

func notFound(kind pantry.RecordType, id string) error {
	return services.Wrap(services.ErrNotFound, "docstore", strings.ToLower(string(kind)), id, nil)
}

func unavailable(operation string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return services.Wrap(services.ErrStorageUnavailable, "docstore", operation, "", err)
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
