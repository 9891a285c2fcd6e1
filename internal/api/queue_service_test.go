package api_test

import (
	"context"
	"testing"

	"pantrypal/internal/api"
	"pantrypal/internal/queue"
)

type readerStub struct {
	entries []*queue.Entry
}

func (s *readerStub) List(context.Context, ...queue.Status) ([]*queue.Entry, error) {
	return s.entries, nil
}

func (s *readerStub) Stats(context.Context) (map[queue.Status]int, error) {
	return map[queue.Status]int{queue.StatusPending: len(s.entries)}, nil
}

func (s *readerStub) GetByID(_ context.Context, id int64) (*queue.Entry, error) {
	for _, entry := range s.entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return nil, nil
}

type adminStub struct {
	readerStub
	retried []int64
}

func (s *adminStub) RetryFailed(_ context.Context, ids ...int64) (int64, error) {
	s.retried = ids
	return int64(len(ids)), nil
}

func (s *adminStub) ClearCompleted(context.Context) (int64, error) {
	return 5, nil
}

func TestQueueServiceReads(t *testing.T) {
	svc := api.NewQueueService(&readerStub{entries: []*queue.Entry{{ID: 1, Status: queue.StatusPending}}})
	ctx := context.Background()

	items, err := svc.List(ctx)
	if err != nil || len(items) != 1 {
		t.Fatalf("List: %v %+v", err, items)
	}
	stats, err := svc.Stats(ctx)
	if err != nil || stats["pending"] != 1 {
		t.Fatalf("Stats: %v %+v", err, stats)
	}
	item, err := svc.Describe(ctx, 1)
	if err != nil || item == nil || item.ID != 1 {
		t.Fatalf("Describe: %v %+v", err, item)
	}
	missing, err := svc.Describe(ctx, 99)
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing entry, got %+v (%v)", missing, err)
	}
	if _, supported, _ := svc.Retry(ctx); supported {
		t.Fatal("read-only store should not support retry")
	}
}

func TestQueueServiceAdmin(t *testing.T) {
	store := &adminStub{}
	svc := api.NewQueueService(store)
	n, supported, err := svc.Retry(context.Background(), 3, 4)
	if err != nil || !supported || n != 2 || len(store.retried) != 2 {
		t.Fatalf("Retry: n=%d supported=%v err=%v", n, supported, err)
	}
	n, supported, err = svc.ClearCompleted(context.Background())
	if err != nil || !supported || n != 5 {
		t.Fatalf("ClearCompleted: n=%d supported=%v err=%v", n, supported, err)
	}
}

func TestNilQueueService(t *testing.T) {
	var svc *api.QueueService
	if items, err := svc.List(context.Background()); err != nil || items != nil {
		t.Fatalf("nil service should return nothing, got %+v %v", items, err)
	}
	if api.NewQueueService(nil) != nil {
		t.Fatal("expected nil service for nil store")
	}
}
