package queueaccess

import (
	"context"
	"net/http"

	"pantrypal/internal/api"
	"pantrypal/internal/queue"
)

// Access provides queue operations regardless of HTTP or direct store backing.
type Access interface {
	Stats(ctx context.Context) (map[string]int, error)
	List(ctx context.Context, statuses []string) ([]api.QueueEntry, error)
	Describe(ctx context.Context, id int64) (*api.QueueEntry, error)
	Retry(ctx context.Context, ids []int64) (int64, error)
	ClearCompleted(ctx context.Context) (int64, error)
}

// NewHTTPAccess returns an Access backed by the daemon's operator API.
func NewHTTPAccess(baseURL, token string, client *http.Client) Access {
	return newAPIClient(baseURL, token, client)
}

// NewStoreAccess returns an Access backed by direct DB access.
func NewStoreAccess(store *queue.Store) Access {
	return &storeAccess{service: api.NewQueueService(store)}
}

type storeAccess struct {
	service *api.QueueService
}

func (a *storeAccess) Stats(ctx context.Context) (map[string]int, error) {
	return a.service.Stats(ctx)
}

func (a *storeAccess) List(ctx context.Context, statuses []string) ([]api.QueueEntry, error) {
	filters, err := parseStatuses(statuses)
	if err != nil {
		return nil, err
	}
	return a.service.List(ctx, filters...)
}

func (a *storeAccess) Describe(ctx context.Context, id int64) (*api.QueueEntry, error) {
	return a.service.Describe(ctx, id)
}

func (a *storeAccess) Retry(ctx context.Context, ids []int64) (int64, error) {
	n, _, err := a.service.Retry(ctx, ids...)
	return n, err
}

func (a *storeAccess) ClearCompleted(ctx context.Context) (int64, error) {
	n, _, err := a.service.ClearCompleted(ctx)
	return n, err
}
