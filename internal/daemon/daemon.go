package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus"

	"pantrypal/internal/api"
	"pantrypal/internal/config"
	"pantrypal/internal/lifecycle"
	"pantrypal/internal/logging"
	"pantrypal/internal/workflow"
)

// QueueStore is the SQLite queue surface the daemon maintains. The NATS
// backend has no equivalent and leaves it unset.
type QueueStore interface {
	api.QueueAdmin
	ResetStuckProcessing(ctx context.Context) (int64, error)
}

// Daemon coordinates the background dispatcher and HTTP API and enforces
// single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	dispatcher *workflow.Dispatcher
	queue      QueueStore
	records    *lifecycle.Manager
	nutrition  NutritionService
	tokens     TokenVerifier
	gatherer   prometheus.Gatherer
	closers    []io.Closer

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running  bool
	PID      int
	Workflow workflow.StatusSummary
	LockPath string
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithQueueStore enables queue maintenance and the operator queue routes.
func WithQueueStore(store QueueStore) Option {
	return func(d *Daemon) {
		d.queue = store
	}
}

// WithRecords serves the pantry and recipe routes.
func WithRecords(records *lifecycle.Manager) Option {
	return func(d *Daemon) {
		d.records = records
	}
}

// WithNutrition serves the macro lookup routes.
func WithNutrition(svc NutritionService) Option {
	return func(d *Daemon) {
		d.nutrition = svc
	}
}

// WithTokens verifies bearer tokens on user routes.
func WithTokens(tokens TokenVerifier) Option {
	return func(d *Daemon) {
		d.tokens = tokens
	}
}

// WithMetricsGatherer exposes metrics at the configured path.
func WithMetricsGatherer(gatherer prometheus.Gatherer) Option {
	return func(d *Daemon) {
		d.gatherer = gatherer
	}
}

// WithClosers registers resources released by Close, in order.
func WithClosers(closers ...io.Closer) Option {
	return func(d *Daemon) {
		d.closers = append(d.closers, closers...)
	}
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, dispatcher *workflow.Dispatcher, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || dispatcher == nil || logger == nil {
		return nil, errors.New("daemon requires config, dispatcher, and logger")
	}
	d := &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		dispatcher: dispatcher,
		lockPath:   cfg.LockPath(),
		lock:       flock.New(cfg.LockPath()),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, reclaims interrupted jobs, and launches the
// dispatcher and the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := os.MkdirAll(d.cfg.Paths.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another pantryd instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if d.queue != nil {
		reset, err := d.queue.ResetStuckProcessing(runCtx)
		if err != nil {
			d.logger.Warn("failed to reset in-flight jobs", logging.Error(err))
		} else if reset > 0 {
			d.logger.Info("returned in-flight jobs to pending",
				logging.Int64("count", reset),
				logging.String(logging.FieldEventType, "queue_reset"),
			)
		}
	}

	if err := d.dispatcher.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start dispatcher: %w", err)
	}
	if err := d.api.start(runCtx); err != nil {
		cancel()
		d.dispatcher.Stop()
		_ = d.lock.Unlock()
		return err
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("pantryd started",
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldQueue, d.dispatcher.QueueName()),
	)
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.api.stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.dispatcher.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("pantryd stopped")
}

// Close stops the daemon and releases registered resources.
func (d *Daemon) Close() error {
	d.Stop()
	var errs []error
	for _, closer := range d.closers {
		if closer == nil {
			continue
		}
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Addr returns the API listener address once started.
func (d *Daemon) Addr() string {
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:  d.running.Load(),
		PID:      os.Getpid(),
		Workflow: d.dispatcher.Status(ctx),
		LockPath: d.lockPath,
	}
}

func (d *Daemon) apiStatus(ctx context.Context) api.DaemonStatus {
	status := d.Status(ctx)
	payload := api.DaemonStatus{
		Running:        status.Running,
		PID:            status.PID,
		QueueBackend:   d.cfg.Queue.Backend,
		DocumentDBPath: d.cfg.DocumentDBPath(),
		LockFilePath:   status.LockPath,
		ImagesEnabled:  d.cfg.Images.Enabled,
		Workflow:       api.FromStatusSummary(status.Workflow),
	}
	if d.queue != nil {
		payload.QueueDBPath = d.cfg.QueueDBPath()
	}
	return payload
}
