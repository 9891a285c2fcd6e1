package api

import (
	"context"

	"pantrypal/internal/queue"
)

// QueueReader abstracts queue persistence interactions needed for API queries.
type QueueReader interface {
	List(ctx context.Context, statuses ...queue.Status) ([]*queue.Entry, error)
	Stats(ctx context.Context) (map[queue.Status]int, error)
	GetByID(ctx context.Context, id int64) (*queue.Entry, error)
}

// QueueAdmin extends QueueReader with operator mutations.
type QueueAdmin interface {
	QueueReader
	RetryFailed(ctx context.Context, ids ...int64) (int64, error)
	ClearCompleted(ctx context.Context) (int64, error)
}

// QueueService exposes queue operations returning API DTOs.
type QueueService struct {
	store QueueReader
}

// NewQueueService constructs a QueueService around the provided reader.
func NewQueueService(store QueueReader) *QueueService {
	if store == nil {
		return nil
	}
	return &QueueService{store: store}
}

// List returns queue entries filtered by status.
func (s *QueueService) List(ctx context.Context, statuses ...queue.Status) ([]QueueEntry, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	entries, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromQueueEntries(entries), nil
}

// Stats returns queue summary counts keyed by status string.
func (s *QueueService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeQueueStats(stats), nil
}

// Describe fetches a single queue entry.
func (s *QueueService) Describe(ctx context.Context, id int64) (*QueueEntry, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	entry, err := s.store.GetByID(ctx, id)
	if err != nil || entry == nil {
		return nil, err
	}
	dto := FromQueueEntry(entry)
	return &dto, nil
}

// Retry moves failed entries back to pending. It reports false when the
// underlying store does not support operator mutations.
func (s *QueueService) Retry(ctx context.Context, ids ...int64) (int64, bool, error) {
	if s == nil {
		return 0, false, nil
	}
	admin, ok := s.store.(QueueAdmin)
	if !ok {
		return 0, false, nil
	}
	n, err := admin.RetryFailed(ctx, ids...)
	return n, true, err
}

// ClearCompleted removes completed entries.
func (s *QueueService) ClearCompleted(ctx context.Context) (int64, bool, error) {
	if s == nil {
		return 0, false, nil
	}
	admin, ok := s.store.(QueueAdmin)
	if !ok {
		return 0, false, nil
	}
	n, err := admin.ClearCompleted(ctx)
	return n, true, err
}
