package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pantrypal/internal/jobs"
	"pantrypal/internal/logging"
	"pantrypal/internal/pantry"
)

// Store is the subset of the document store the manager writes through.
type Store interface {
	GetItem(ctx context.Context, owner, id string) (*pantry.PantryItem, error)
	PutItem(ctx context.Context, item *pantry.PantryItem) error
	ListItems(ctx context.Context, owner string) ([]pantry.PantryItem, error)
	PatchItem(ctx context.Context, owner, id string, mutate func(*pantry.PantryItem) error) (*pantry.PantryItem, error)
	GetRecipe(ctx context.Context, owner, id string) (*pantry.Recipe, error)
	PutRecipe(ctx context.Context, recipe *pantry.Recipe) error
	ListRecipes(ctx context.Context, owner string) ([]pantry.Recipe, error)
	PatchRecipe(ctx context.Context, owner, id string, mutate func(*pantry.Recipe) error) (*pantry.Recipe, error)
	SoftDelete(ctx context.Context, owner string, kind pantry.RecordType, id string) error
}

// Enqueuer publishes hydration jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, queueName string, body []byte) error
}

// ImageRemover deletes uploaded images for deleted records.
type ImageRemover interface {
	KeyFromURL(raw string) string
	Delete(ctx context.Context, key string) error
}

// Manager creates, updates, and deletes pantry records and schedules their
// hydration.
type Manager struct {
	store     Store
	queue     Enqueuer
	queueName string
	logger    *slog.Logger

	images  bool
	remover ImageRemover
	newID   func() string
	now     func() time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

// WithImages enables IMAGE jobs on create and rename.
func WithImages(enabled bool) Option {
	return func(m *Manager) {
		m.images = enabled
	}
}

// WithImageRemover deletes a record's uploaded image when it is deleted.
func WithImageRemover(remover ImageRemover) Option {
	return func(m *Manager) {
		m.remover = remover
	}
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// WithClock overrides the clock used for summaries.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New constructs a Manager publishing to queueName.
func New(store Store, queue Enqueuer, queueName string, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		queue:     queue,
		queueName: queueName,
		logger:    logging.NewComponentLogger(logger, "lifecycle"),
		newID:     uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ImagesEnabled reports whether creates schedule IMAGE jobs.
func (m *Manager) ImagesEnabled() bool {
	return m.images
}

// enqueue publishes each job, logging and continuing past failures. It
// returns the number of jobs accepted by the queue.
func (m *Manager) enqueue(ctx context.Context, list ...jobs.Job) int {
	logger := logging.WithContext(ctx, m.logger)
	accepted := 0
	for _, job := range list {
		body, err := jobs.Encode(job)
		if err == nil {
			err = m.queue.Enqueue(ctx, m.queueName, body)
		}
		if err != nil {
			logging.WarnWithContext(logger, "hydration enqueue failed", "enqueue_failed",
				logging.String(logging.FieldJobType, string(job.Type)),
				logging.String(logging.FieldErrorHint, "check queue backend availability; re-hydrate the record once it recovers"),
				logging.String(logging.FieldImpact, "record stays unhydrated"),
				logging.Error(err),
			)
			continue
		}
		accepted++
		logger.Debug("hydration job enqueued",
			logging.String(logging.FieldEventType, "job_enqueued"),
			logging.String(logging.FieldJobType, string(job.Type)),
		)
	}
	return accepted
}

func (m *Manager) removeImage(ctx context.Context, imageURL string) {
	if m.remover == nil || imageURL == "" {
		return
	}
	key := m.remover.KeyFromURL(imageURL)
	if key == "" {
		return
	}
	if err := m.remover.Delete(ctx, key); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, m.logger), "image cleanup failed", "image_cleanup_failed",
			logging.String("image_key", key),
			logging.String(logging.FieldErrorHint, "check object storage credentials"),
			logging.String(logging.FieldImpact, "orphaned image left in bucket"),
			logging.Error(err),
		)
	}
}
