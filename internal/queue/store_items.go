package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Add inserts a pending job and returns the stored row.
func (s *Store) Add(ctx context.Context, queueName string, body []byte) (*Entry, error) {
	queueName = strings.TrimSpace(queueName)
	if queueName == "" {
		return nil, errors.New("queue name is required")
	}
	timestamp := nowString()

	res, err := s.db.ExecRetry(
		ctx,
		`INSERT INTO queue_jobs (queue, body, job_type, status, attempts, created_at, updated_at)
         VALUES (?, ?, ?, ?, 0, ?, ?)`,
		queueName,
		string(body),
		jobTypeOf(body),
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Enqueue inserts a pending job. It satisfies the dispatcher transport.
func (s *Store) Enqueue(ctx context.Context, queueName string, body []byte) error {
	_, err := s.Add(ctx, queueName, body)
	return err
}

// GetByID fetches a job by identifier. A missing job returns nil, nil.
func (s *Store) GetByID(ctx context.Context, id int64) (*Entry, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+entryColumns+` FROM queue_jobs WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return entry, nil
}

// List returns jobs filtered by status. No statuses lists everything.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM queue_jobs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
