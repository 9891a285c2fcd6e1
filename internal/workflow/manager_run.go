package workflow

import (
	"context"
	"errors"
	"time"

	"pantrypal/internal/logging"
)

// Start begins background consumption.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return errors.New("dispatcher already running")
	}
	if len(d.registeredTypes()) == 0 {
		d.mu.Unlock()
		return errors.New("dispatcher handlers not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running = true
	d.wg.Add(1)
	d.mu.Unlock()

	d.logger.Info("dispatcher started",
		logging.String(logging.FieldQueue, d.queueName),
		logging.Int("workers", d.workers),
		logging.Int("batch_size", d.batchSize),
		logging.Any("job_types", d.registeredTypes()),
	)
	go d.run(runCtx)
	return nil
}

// Stop terminates background consumption and waits for in-flight jobs.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	cancel := d.cancel
	d.running = false
	d.cancel = nil
	d.mu.Unlock()

	cancel()
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := d.heartbeat.ReclaimStale(ctx, d.logger); err != nil && ctx.Err() == nil {
			d.logger.Warn("reclaim stale jobs failed; stuck jobs may remain",
				logging.Error(err),
				logging.String(logging.FieldEventType, "heartbeat_reclaim_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
		}

		deliveries, err := d.transport.DequeueBatch(ctx, d.queueName, d.batchSize)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d.handleFetchError(ctx, err)
			continue
		}
		if len(deliveries) == 0 {
			d.waitOrShutdown(ctx, d.pollInterval)
			continue
		}
		d.processBatch(ctx, deliveries)
	}
}

// DrainOnce consumes the queue inline until it is empty, for scheduled or
// test invocations that do not run the background loop.
func (d *Dispatcher) DrainOnce(ctx context.Context) (DrainReport, error) {
	var report DrainReport
	if len(d.registeredTypes()) == 0 {
		return report, errors.New("dispatcher handlers not configured")
	}
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		deliveries, err := d.transport.DequeueBatch(ctx, d.queueName, d.batchSize)
		if err != nil {
			d.metrics.fetchFailed()
			d.setLastError(err)
			return report, err
		}
		if len(deliveries) == 0 {
			return report, nil
		}
		report.Batches++
		for _, out := range d.processBatch(ctx, deliveries) {
			report.add(out)
		}
		if report.Interrupted > 0 {
			return report, ctx.Err()
		}
	}
}

func (d *Dispatcher) handleFetchError(ctx context.Context, err error) {
	d.metrics.fetchFailed()
	d.setLastError(err)
	d.logger.Error("failed to fetch next batch",
		logging.Error(err),
		logging.String(logging.FieldEventType, "queue_fetch_failed"),
		logging.String(logging.FieldErrorHint, "check queue backend access"),
	)
	d.waitOrShutdown(ctx, d.errorRetryInterval)
}

func (d *Dispatcher) waitOrShutdown(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
