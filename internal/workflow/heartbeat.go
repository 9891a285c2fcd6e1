package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"pantrypal/internal/jobs"
	"pantrypal/internal/logging"
)

// HeartbeatMonitor extends delivery leases while handlers run and returns
// abandoned leases to the queue.
type HeartbeatMonitor struct {
	transport         Transport
	logger            *slog.Logger
	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration
}

// NewHeartbeatMonitor creates a new monitor.
func NewHeartbeatMonitor(transport Transport, logger *slog.Logger, interval, timeout time.Duration) *HeartbeatMonitor {
	return &HeartbeatMonitor{
		transport:         transport,
		logger:            logger,
		heartbeatInterval: interval,
		heartbeatTimeout:  timeout,
	}
}

// ReclaimStale resets deliveries whose heartbeat is older than the timeout.
// Transports that expire leases on their own are left alone.
func (h *HeartbeatMonitor) ReclaimStale(ctx context.Context, logger *slog.Logger) error {
	if h.heartbeatTimeout <= 0 {
		return nil
	}
	r, ok := h.transport.(reclaimer)
	if !ok {
		return nil
	}
	cutoff := time.Now().Add(-h.heartbeatTimeout)
	reclaimed, err := r.ReclaimStaleProcessing(ctx, cutoff)
	if err != nil {
		return err
	}
	if reclaimed > 0 {
		logger.Info("reclaimed stale jobs", logging.Int64("count", reclaimed))
	}
	return nil
}

// StartLoop refreshes the leases of deliveries until ctx is cancelled.
func (h *HeartbeatMonitor) StartLoop(ctx context.Context, wg *sync.WaitGroup, deliveries []jobs.Delivery) {
	defer wg.Done()
	hb, ok := h.transport.(heartbeater)
	if !ok || h.heartbeatInterval <= 0 || len(deliveries) == 0 {
		return
	}
	ticker := time.NewTicker(h.heartbeatInterval)
	defer ticker.Stop()

	logger := logging.WithContext(ctx, h.logger.With(logging.String(logging.FieldComponent, "dispatcher-heartbeat")))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := hb.Heartbeat(ctx, deliveries); err != nil {
				if errors.Is(err, context.Canceled) {
					logger.Debug("heartbeat update cancelled")
				} else {
					logger.Warn("heartbeat update failed", logging.Error(err))
				}
			}
		}
	}
}
