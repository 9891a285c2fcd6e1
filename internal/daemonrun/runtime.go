package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"pantrypal/internal/auth"
	"pantrypal/internal/config"
	"pantrypal/internal/daemon"
	"pantrypal/internal/docstore"
	"pantrypal/internal/hydration"
	"pantrypal/internal/lifecycle"
	"pantrypal/internal/logging"
	"pantrypal/internal/natsqueue"
	"pantrypal/internal/objectstore"
	"pantrypal/internal/queue"
	"pantrypal/internal/services/imagegen"
	"pantrypal/internal/services/nutrition"
	"pantrypal/internal/workflow"
)

// Transport is the job queue the runtime produces to and consumes from.
type Transport interface {
	workflow.Transport
	io.Closer
}

// Runtime holds every long-lived component built from configuration.
type Runtime struct {
	Config     *config.Config
	Logger     *slog.Logger
	Dispatcher *workflow.Dispatcher
	Records    *lifecycle.Manager
	Nutrition  *nutrition.Client
	Tokens     *auth.Tokens
	Registry   *prometheus.Registry
	Transport  Transport

	// Store is the SQLite queue; nil when the nats backend is configured.
	Store *queue.Store

	docs    *docstore.Store
	closers []io.Closer
}

// Build opens storage and clients and registers the hydration handlers.
// Callers own the returned runtime and must Close it, unless its closers
// are handed to a daemon via DaemonOptions.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	rt := &Runtime{Config: cfg, Logger: logger}
	if err := rt.build(ctx); err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) build(ctx context.Context) error {
	cfg := rt.Config
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	docs, err := docstore.Open(cfg)
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}
	rt.docs = docs
	rt.closers = append(rt.closers, docs)

	transport, err := openTransport(ctx, cfg, rt.Logger)
	if err != nil {
		return err
	}
	rt.Transport = transport
	rt.closers = append(rt.closers, transport)
	if store, ok := transport.(*queue.Store); ok {
		rt.Store = store
	}

	rt.Nutrition = nutrition.NewClient(nutrition.Config{
		APIKey:            cfg.Nutrition.APIKey,
		BaseURL:           cfg.Nutrition.BaseURL,
		TimeoutSeconds:    cfg.Nutrition.TimeoutSeconds,
		RequestsPerSecond: cfg.Nutrition.RequestsPerSecond,
		Burst:             cfg.Nutrition.Burst,
	})

	if strings.TrimSpace(cfg.Auth.JWTSecret) != "" {
		tokens, err := auth.New(cfg.Auth)
		if err != nil {
			return err
		}
		rt.Tokens = tokens
	}

	rt.Registry = prometheus.NewRegistry()
	rt.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := workflow.NewMetrics(rt.Registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	rt.Dispatcher = workflow.NewDispatcher(cfg, transport, rt.Logger, workflow.WithMetrics(metrics))

	handlers := workflow.HandlerSet{
		Item:   hydration.NewItemMacros(docs, rt.Nutrition, rt.Logger),
		Recipe: hydration.NewRecipeMacros(docs, rt.Nutrition, cfg.Nutrition.IngredientConcurrency, rt.Logger),
	}
	lifecycleOpts := []lifecycle.Option{}
	if cfg.Images.Enabled {
		objects, err := objectstore.Open(ctx, cfg.ObjectStorage)
		if err != nil {
			return fmt.Errorf("open object storage: %w", err)
		}
		if err := objects.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("ensure image bucket: %w", err)
		}
		generator := imagegen.NewClient(imagegen.Config{
			APIKey:         cfg.Images.APIKey,
			BaseURL:        cfg.Images.BaseURL,
			Model:          cfg.Images.Model,
			Size:           cfg.Images.Size,
			TimeoutSeconds: cfg.Images.TimeoutSeconds,
		})
		handlers.Image = hydration.NewImages(docs, generator, objects, rt.Logger)
		lifecycleOpts = append(lifecycleOpts, lifecycle.WithImages(true), lifecycle.WithImageRemover(objects))
	}
	rt.Dispatcher.ConfigureHandlers(handlers)
	rt.Records = lifecycle.New(docs, transport, cfg.Queue.Name, rt.Logger, lifecycleOpts...)
	return nil
}

func openTransport(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Transport, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Queue.Backend)) {
	case "", "sqlite":
		store, err := queue.Open(cfg)
		if err != nil {
			return nil, fmt.Errorf("open queue store: %w", err)
		}
		return store, nil
	case "nats":
		transport, err := natsqueue.Open(ctx, cfg.Queue, logger)
		if err != nil {
			return nil, fmt.Errorf("open nats queue: %w", err)
		}
		return transport, nil
	default:
		return nil, fmt.Errorf("queue backend: unsupported value %q", cfg.Queue.Backend)
	}
}

// DaemonOptions returns the daemon options matching this runtime. The
// daemon takes ownership of the runtime's closers.
func (rt *Runtime) DaemonOptions() []daemon.Option {
	opts := []daemon.Option{
		daemon.WithRecords(rt.Records),
		daemon.WithNutrition(rt.Nutrition),
		daemon.WithMetricsGatherer(rt.Registry),
		daemon.WithClosers(rt.takeClosers()...),
	}
	if rt.Store != nil {
		opts = append(opts, daemon.WithQueueStore(rt.Store))
	}
	if rt.Tokens != nil {
		opts = append(opts, daemon.WithTokens(rt.Tokens))
	}
	return opts
}

func (rt *Runtime) takeClosers() []io.Closer {
	closers := rt.closers
	rt.closers = nil
	return closers
}

// Close releases storage and transport handles still owned by the runtime.
func (rt *Runtime) Close() error {
	if rt == nil {
		return nil
	}
	closers := rt.takeClosers()
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
