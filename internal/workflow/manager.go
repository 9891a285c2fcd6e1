package workflow

import (
	"log/slog"
	"sync"
	"time"

	"pantrypal/internal/config"
	"pantrypal/internal/jobs"
	"pantrypal/internal/keylock"
	"pantrypal/internal/logging"
	"pantrypal/internal/stage"
)

// Dispatcher consumes hydration jobs from a Transport and routes each to the
// handler registered for its job type.
type Dispatcher struct {
	transport Transport
	queueName string
	logger    *slog.Logger
	metrics   *Metrics
	locks     *keylock.Map

	batchSize          int
	workers            int
	pollInterval       time.Duration
	errorRetryInterval time.Duration

	heartbeat *HeartbeatMonitor

	handlersMu sync.RWMutex
	handlers   map[jobs.Type]stage.Handler

	mu      sync.RWMutex
	running bool
	cancel  func()
	wg      sync.WaitGroup
	lastErr error
	lastJob *Outcome
	totals  map[State]int64
}

// Option configures optional Dispatcher behavior.
type Option func(*Dispatcher)

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithPollInterval overrides the idle poll interval.
func WithPollInterval(interval time.Duration) Option {
	return func(d *Dispatcher) {
		d.pollInterval = interval
	}
}

// NewDispatcher constructs a dispatcher for cfg.Queue.Name on transport.
func NewDispatcher(cfg *config.Config, transport Transport, logger *slog.Logger, opts ...Option) *Dispatcher {
	q := cfg.Queue
	d := &Dispatcher{
		transport:          transport,
		queueName:          q.Name,
		logger:             logging.NewComponentLogger(logger, "dispatcher"),
		locks:              keylock.New(),
		batchSize:          q.BatchSize,
		workers:            q.Workers,
		pollInterval:       time.Duration(q.PollInterval) * time.Second,
		errorRetryInterval: time.Duration(q.ErrorRetryInterval) * time.Second,
		handlers:           make(map[jobs.Type]stage.Handler),
		totals:             make(map[State]int64),
	}
	if d.batchSize <= 0 {
		d.batchSize = 1
	}
	if d.workers <= 0 {
		d.workers = 1
	}
	d.heartbeat = NewHeartbeatMonitor(
		transport,
		d.logger,
		time.Duration(q.HeartbeatInterval)*time.Second,
		time.Duration(q.HeartbeatTimeout)*time.Second,
	)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// QueueName returns the queue this dispatcher consumes.
func (d *Dispatcher) QueueName() string {
	return d.queueName
}
