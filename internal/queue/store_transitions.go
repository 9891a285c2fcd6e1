package queue

import (
	"context"
	"fmt"
	"sort"
	"time"

	"pantrypal/internal/jobs"
)

// DequeueBatch claims up to max pending jobs from queueName, marking them
// processing with a fresh heartbeat. It never blocks waiting for work.
func (s *Store) DequeueBatch(ctx context.Context, queueName string, max int) ([]jobs.Delivery, error) {
	if max <= 0 {
		max = 1
	}
	ctx = ensureContext(ctx)
	now := nowString()

	var claimed []*Entry
	err := s.db.Retry(ctx, func() error {
		claimed = claimed[:0]
		rows, err := s.db.QueryContext(ctx,
			`UPDATE queue_jobs
             SET status = ?, attempts = attempts + 1, last_heartbeat = ?, updated_at = ?
             WHERE id IN (
                 SELECT id FROM queue_jobs WHERE queue = ? AND status = ? ORDER BY id LIMIT ?
             )
             RETURNING `+entryColumns,
			StatusProcessing, now, now,
			queueName, StatusPending, max,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			entry, err := scanEntry(rows)
			if err != nil {
				return err
			}
			claimed = append(claimed, entry)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("claim jobs: %w", err)
	}

	sort.Slice(claimed, func(i, j int) bool { return claimed[i].ID < claimed[j].ID })
	deliveries := make([]jobs.Delivery, 0, len(claimed))
	for _, entry := range claimed {
		deliveries = append(deliveries, entry.Delivery())
	}
	return deliveries, nil
}

// Complete marks a claimed job as completed.
func (s *Store) Complete(ctx context.Context, d jobs.Delivery) error {
	id, err := deliveryID(d)
	if err != nil {
		return err
	}
	if err := s.exec(ctx,
		`UPDATE queue_jobs SET status = ?, error_message = NULL, last_heartbeat = NULL, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusCompleted, nowString(), id, StatusProcessing,
	); err != nil {
		return fmt.Errorf("complete job %d: %w", id, err)
	}
	return nil
}

// Fail marks a claimed job as failed with reason. Failed jobs stay in the
// table until an operator retries or clears them.
func (s *Store) Fail(ctx context.Context, d jobs.Delivery, reason string) error {
	id, err := deliveryID(d)
	if err != nil {
		return err
	}
	if err := s.exec(ctx,
		`UPDATE queue_jobs SET status = ?, error_message = ?, last_heartbeat = NULL, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusFailed, nullableString(reason), nowString(), id, StatusProcessing,
	); err != nil {
		return fmt.Errorf("fail job %d: %w", id, err)
	}
	return nil
}

// Heartbeat refreshes the heartbeat of in-flight deliveries.
func (s *Store) Heartbeat(ctx context.Context, deliveries []jobs.Delivery) error {
	ids := make([]int64, 0, len(deliveries))
	for _, d := range deliveries {
		id, err := deliveryID(d)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	return s.UpdateHeartbeat(ctx, ids...)
}

// UpdateHeartbeat updates the last heartbeat timestamp for in-flight jobs.
func (s *Store) UpdateHeartbeat(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	now := nowString()
	args := make([]any, 0, len(ids)+3)
	args = append(args, now, now)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, StatusProcessing)
	if err := s.exec(
		ctx,
		`UPDATE queue_jobs SET last_heartbeat = ?, updated_at = ?
         WHERE id IN (`+makePlaceholders(len(ids))+`) AND status = ?`,
		args...,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ResetStuckProcessing returns every processing job to pending. The daemon
// calls it at startup, when no job can legitimately be in flight.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.db.ExecRetry(
		ctx,
		`UPDATE queue_jobs SET status = ?, last_heartbeat = NULL, updated_at = ? WHERE status = ?`,
		StatusPending, nowString(), StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	return res.RowsAffected()
}

// ReclaimStaleProcessing returns processing jobs whose heartbeat is older
// than cutoff to pending so they are redelivered.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecRetry(
		ctx,
		`UPDATE queue_jobs SET status = ?, last_heartbeat = NULL, updated_at = ?
         WHERE status = ? AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
		StatusPending, nowString(), StatusProcessing,
		formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale jobs: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves failed jobs back to pending for reprocessing.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		res, err := s.db.ExecRetry(
			ctx,
			`UPDATE queue_jobs SET status = ?, error_message = NULL, updated_at = ? WHERE status = ?`,
			StatusPending, nowString(), StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed jobs: %w", err)
		}
		return res.RowsAffected()
	}

	args := make([]any, 0, len(ids)+3)
	args = append(args, StatusPending, nowString())
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, StatusFailed)
	res, err := s.db.ExecRetry(ctx,
		`UPDATE queue_jobs SET status = ?, error_message = NULL, updated_at = ?
         WHERE id IN (`+makePlaceholders(len(ids))+`) AND status = ?`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("retry selected jobs: %w", err)
	}
	return res.RowsAffected()
}
