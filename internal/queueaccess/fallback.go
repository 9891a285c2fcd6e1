package queueaccess

import (
	"context"
	"fmt"

	"pantrypal/internal/queue"
)

// Session represents a queue access handle and its cleanup function.
type Session struct {
	Access Access
	// Remote is true when the session talks to a running daemon.
	Remote bool
	close  func() error
}

// Close releases resources associated with the session.
func (s Session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenWithFallback probes the daemon API first, then falls back to direct
// store access.
func OpenWithFallback(
	ctx context.Context,
	baseURL, token string,
	openStore func() (*queue.Store, error),
) (Session, error) {
	if baseURL != "" {
		client := newAPIClient(baseURL, token, nil)
		if _, err := client.Status(ctx); err == nil {
			return Session{Access: client, Remote: true}, nil
		}
	}

	if openStore == nil {
		return Session{}, fmt.Errorf("open queue store: no store opener configured")
	}
	store, err := openStore()
	if err != nil {
		return Session{}, fmt.Errorf("open queue store: %w", err)
	}
	return Session{
		Access: NewStoreAccess(store),
		close:  store.Close,
	}, nil
}
