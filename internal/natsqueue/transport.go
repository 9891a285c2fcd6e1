package natsqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"pantrypal/internal/config"
	"pantrypal/internal/jobs"
	"pantrypal/internal/logging"
	"pantrypal/internal/queue"
	"pantrypal/internal/services"
)

const (
	defaultAckWait  = 60 * time.Second
	connectTimeout  = 5 * time.Second
	durablePrefix   = "pantrypal-"
	clientName      = "pantrypal"
	publishAttempts = 3
)

// Transport is a JetStream-backed job queue.
type Transport struct {
	nc           *nats.Conn
	js           jetstream.JetStream
	stream       string
	defaultQueue string
	ackWait      time.Duration
	logger       *slog.Logger

	mu        sync.Mutex
	consumers map[string]jetstream.Consumer
	inflight  map[string]jetstream.Msg
}

// Open connects to NATS and ensures the work-queue stream exists.
func Open(ctx context.Context, cfg config.Queue, logger *slog.Logger) (*Transport, error) {
	url := strings.TrimSpace(cfg.NATSURL)
	if url == "" {
		return nil, services.Wrap(services.ErrConfiguration, "natsqueue", "open", "nats url required", nil)
	}
	nc, err := nats.Connect(url,
		nats.Name(clientName),
		nats.Timeout(connectTimeout),
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(false),
	)
	if err != nil {
		return nil, services.Wrap(services.ErrStorageUnavailable, "natsqueue", "connect", url, err)
	}
	t, err := newTransport(ctx, nc, cfg, logger)
	if err != nil {
		nc.Close()
		return nil, err
	}
	return t, nil
}

func newTransport(ctx context.Context, nc *nats.Conn, cfg config.Queue, logger *slog.Logger) (*Transport, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, services.Wrap(services.ErrStorageUnavailable, "natsqueue", "jetstream", "", err)
	}
	ackWait := time.Duration(cfg.NATSAckWait) * time.Second
	if ackWait <= 0 {
		ackWait = defaultAckWait
	}
	t := &Transport{
		nc:           nc,
		js:           js,
		stream:       cfg.NATSStream,
		defaultQueue: cfg.Name,
		ackWait:      ackWait,
		logger:       logging.NewComponentLogger(logger, "natsqueue"),
		consumers:    make(map[string]jetstream.Consumer),
		inflight:     make(map[string]jetstream.Msg),
	}
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        t.stream,
		Description: "pantrypal hydration jobs",
		Subjects:    []string{t.stream + ".>"},
		Retention:   jetstream.WorkQueuePolicy,
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrStorageUnavailable, "natsqueue", "create stream", t.stream, err)
	}
	return t, nil
}

// Subject returns the subject jobs for queueName are published on.
func (t *Transport) Subject(queueName string) string {
	return subjectFor(t.stream, queueName)
}

// Enqueue publishes body and waits for the stream acknowledgement.
func (t *Transport) Enqueue(ctx context.Context, queueName string, body []byte) error {
	var lastErr error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		_, err := t.js.Publish(ctx, t.Subject(queueName), body)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil || (!errors.Is(err, nats.ErrTimeout) && !errors.Is(err, jetstream.ErrNoStreamResponse)) {
			break
		}
	}
	return services.Wrap(services.ErrStorageUnavailable, "natsqueue", "publish", queueName, lastErr)
}

// DequeueBatch fetches up to max messages without waiting for new ones.
func (t *Transport) DequeueBatch(ctx context.Context, queueName string, max int) ([]jobs.Delivery, error) {
	if max <= 0 {
		max = 1
	}
	consumer, err := t.consumer(ctx, queueName)
	if err != nil {
		return nil, err
	}
	batch, err := consumer.FetchNoWait(max)
	if err != nil {
		return nil, services.Wrap(services.ErrStorageUnavailable, "natsqueue", "fetch", queueName, err)
	}

	var deliveries []jobs.Delivery
	for msg := range batch.Messages() {
		delivery, err := t.track(queueName, msg)
		if err != nil {
			t.logger.Warn("dropping message without metadata",
				logging.Error(err),
				logging.String(logging.FieldEventType, "nats_metadata_missing"),
				logging.String(logging.FieldErrorHint, "message did not come from a JetStream consumer"),
			)
			_ = msg.Term()
			continue
		}
		deliveries = append(deliveries, delivery)
	}
	if err := batch.Error(); err != nil && !errors.Is(err, jetstream.ErrNoMessages) && len(deliveries) == 0 {
		return nil, services.Wrap(services.ErrStorageUnavailable, "natsqueue", "fetch", queueName, err)
	}
	return deliveries, nil
}

// Complete acknowledges a delivery so it is removed from the stream.
func (t *Transport) Complete(ctx context.Context, d jobs.Delivery) error {
	msg, err := t.take(d)
	if err != nil {
		return err
	}
	if err := msg.DoubleAck(ctx); err != nil {
		return services.Wrap(services.ErrStorageUnavailable, "natsqueue", "ack", d.ID, err)
	}
	return nil
}

// Fail terminates a delivery so it is never redelivered.
func (t *Transport) Fail(_ context.Context, d jobs.Delivery, reason string) error {
	msg, err := t.take(d)
	if err != nil {
		return err
	}
	t.logger.Debug("terminating failed job",
		logging.String("delivery_id", d.ID),
		logging.String("reason", reason),
	)
	if err := msg.Term(); err != nil {
		return services.Wrap(services.ErrStorageUnavailable, "natsqueue", "term", d.ID, err)
	}
	return nil
}

// Heartbeat resets the ack wait of in-flight deliveries.
func (t *Transport) Heartbeat(_ context.Context, deliveries []jobs.Delivery) error {
	var errs []error
	for _, d := range deliveries {
		t.mu.Lock()
		msg, ok := t.inflight[inflightKey(d.Queue, d.ID)]
		t.mu.Unlock()
		if !ok {
			continue
		}
		if err := msg.InProgress(); err != nil {
			errs = append(errs, fmt.Errorf("delivery %s: %w", d.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Stats reports pending and in-flight counts for the default queue.
func (t *Transport) Stats(ctx context.Context) (map[queue.Status]int, error) {
	consumer, err := t.consumer(ctx, t.defaultQueue)
	if err != nil {
		return nil, err
	}
	info, err := consumer.Info(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrStorageUnavailable, "natsqueue", "consumer info", t.defaultQueue, err)
	}
	return map[queue.Status]int{
		queue.StatusPending:    int(info.NumPending),
		queue.StatusProcessing: info.NumAckPending,
	}, nil
}

// HealthCheck reports whether the connection is usable.
func (t *Transport) HealthCheck(context.Context) error {
	if t.nc == nil || !t.nc.IsConnected() {
		return services.Wrap(services.ErrStorageUnavailable, "natsqueue", "health", "not connected", nil)
	}
	return nil
}

// Close drains the connection.
func (t *Transport) Close() error {
	if t.nc == nil {
		return nil
	}
	if err := t.nc.Drain(); err != nil {
		t.nc.Close()
		return err
	}
	return nil
}

func (t *Transport) consumer(ctx context.Context, queueName string) (jetstream.Consumer, error) {
	t.mu.Lock()
	consumer, ok := t.consumers[queueName]
	t.mu.Unlock()
	if ok {
		return consumer, nil
	}
	consumer, err := t.js.CreateOrUpdateConsumer(ctx, t.stream, jetstream.ConsumerConfig{
		Durable:       durableName(queueName),
		FilterSubject: t.Subject(queueName),
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       t.ackWait,
		MaxDeliver:    -1,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrStorageUnavailable, "natsqueue", "create consumer", queueName, err)
	}
	t.mu.Lock()
	t.consumers[queueName] = consumer
	t.mu.Unlock()
	return consumer, nil
}

func (t *Transport) track(queueName string, msg jetstream.Msg) (jobs.Delivery, error) {
	meta, err := msg.Metadata()
	if err != nil {
		return jobs.Delivery{}, err
	}
	id := strconv.FormatUint(meta.Sequence.Stream, 10)
	t.mu.Lock()
	t.inflight[inflightKey(queueName, id)] = msg
	t.mu.Unlock()
	return jobs.Delivery{
		ID:      id,
		Queue:   queueName,
		Body:    msg.Data(),
		Attempt: int(meta.NumDelivered),
	}, nil
}

func (t *Transport) take(d jobs.Delivery) (jetstream.Msg, error) {
	key := inflightKey(d.Queue, d.ID)
	t.mu.Lock()
	msg, ok := t.inflight[key]
	delete(t.inflight, key)
	t.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("natsqueue: delivery %s not in flight", d.ID)
	}
	return msg, nil
}

func inflightKey(queueName, id string) string {
	return queueName + "#" + id
}

func subjectFor(stream, queueName string) string {
	return stream + "." + tokenFor(queueName)
}

func durableName(queueName string) string {
	return durablePrefix + tokenFor(queueName)
}

// tokenFor maps a queue name onto a single subject token. Durable names may
// not contain '.', '*', '>' or whitespace.
func tokenFor(queueName string) string {
	name := strings.TrimSpace(queueName)
	if name == "" {
		return "default"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		default:
			return r
		}
	}, name)
}
