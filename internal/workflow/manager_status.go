package workflow

import (
	"context"

	"pantrypal/internal/logging"
	"pantrypal/internal/queue"
	"pantrypal/internal/stage"
)

// statsReporter is implemented by transports that can count jobs by status.
type statsReporter interface {
	Stats(ctx context.Context) (map[queue.Status]int, error)
}

// StatusSummary represents lightweight dispatcher diagnostics.
type StatusSummary struct {
	Running       bool
	Queue         string
	LastError     string
	LastJob       *Outcome
	Totals        map[State]int64
	QueueStats    map[queue.Status]int
	HandlerHealth map[string]stage.Health
}

// Status returns the latest dispatcher information.
func (d *Dispatcher) Status(ctx context.Context) StatusSummary {
	d.mu.RLock()
	summary := StatusSummary{
		Running: d.running,
		Queue:   d.queueName,
		Totals:  make(map[State]int64, len(d.totals)),
	}
	if d.lastErr != nil {
		summary.LastError = d.lastErr.Error()
	}
	if d.lastJob != nil {
		last := *d.lastJob
		summary.LastJob = &last
	}
	for state, n := range d.totals {
		summary.Totals[state] = n
	}
	d.mu.RUnlock()

	if reporter, ok := d.transport.(statsReporter); ok {
		stats, err := reporter.Stats(ctx)
		if err != nil {
			d.logger.Warn("failed to read queue stats", logging.Error(err))
		} else {
			summary.QueueStats = stats
		}
	}

	summary.HandlerHealth = make(map[string]stage.Health)
	for _, jobType := range d.registeredTypes() {
		if handler, ok := d.handlerFor(jobType); ok {
			summary.HandlerHealth[string(jobType)] = handler.HealthCheck(ctx)
		}
	}
	return summary
}

func (d *Dispatcher) setLastError(err error) {
	d.mu.Lock()
	d.lastErr = err
	d.mu.Unlock()
}

func (d *Dispatcher) recordOutcome(out Outcome) {
	d.mu.Lock()
	defer d.mu.Unlock()
	last := out
	d.lastJob = &last
	d.totals[out.State]++
	if out.State == StateFailed && out.Err != nil {
		d.lastErr = out.Err
	}
}
