//go:build integration

package natsqueue_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"pantrypal/internal/config"
	"pantrypal/internal/jobs"
	"pantrypal/internal/logging"
	"pantrypal/internal/natsqueue"
	"pantrypal/internal/queue"
	"pantrypal/internal/stage"
	"pantrypal/internal/testsupport"
	"pantrypal/internal/workflow"
)

func startNATS(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "nats:latest",
		ExposedPorts: []string{"4222/tcp"},
		Cmd:          []string{"-js"},
		WaitingFor:   wait.ForListeningPort("4222/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "4222")
	require.NoError(t, err)
	return fmt.Sprintf("nats://%s:%s", host, port.Port())
}

func openTransport(t *testing.T, url string, ackWait int) (*config.Config, *natsqueue.Transport) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Queue.Backend = "nats"
	cfg.Queue.NATSURL = url
	cfg.Queue.NATSStream = "HYDRATION_TEST_" + fmt.Sprint(time.Now().UnixNano())
	cfg.Queue.NATSAckWait = ackWait

	transport, err := natsqueue.Open(context.Background(), cfg.Queue, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = transport.Close() })
	return cfg, transport
}

func TestTransportRoundTrip(t *testing.T) {
	url := startNATS(t)
	cfg, transport := openTransport(t, url, 30)
	ctx := context.Background()

	body, err := jobs.Encode(jobs.NewItemJob("u1", "i1", "Rice"))
	require.NoError(t, err)
	require.NoError(t, transport.Enqueue(ctx, cfg.Queue.Name, body))

	batch, err := transport.DequeueBatch(ctx, cfg.Queue.Name, 10)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, cfg.Queue.Name, batch[0].Queue)
	assert.Equal(t, 1, batch[0].Attempt)
	assert.JSONEq(t, string(body), string(batch[0].Body))

	require.NoError(t, transport.Heartbeat(ctx, batch))
	require.NoError(t, transport.Complete(ctx, batch[0]))

	again, err := transport.DequeueBatch(ctx, cfg.Queue.Name, 10)
	require.NoError(t, err)
	assert.Empty(t, again)

	stats, err := transport.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats[queue.StatusPending])
	assert.Equal(t, 0, stats[queue.StatusProcessing])
	assert.NoError(t, transport.HealthCheck(ctx))
}

func TestUnackedDeliveryIsRedelivered(t *testing.T) {
	url := startNATS(t)
	cfg, transport := openTransport(t, url, 1)
	ctx := context.Background()

	body, err := jobs.Encode(jobs.NewRecipeJob("u1", "r1"))
	require.NoError(t, err)
	require.NoError(t, transport.Enqueue(ctx, cfg.Queue.Name, body))

	first, err := transport.DequeueBatch(ctx, cfg.Queue.Name, 1)
	require.NoError(t, err)
	require.Len(t, first, 1)

	var second []jobs.Delivery
	require.Eventually(t, func() bool {
		second, err = transport.DequeueBatch(ctx, cfg.Queue.Name, 1)
		return err == nil && len(second) == 1
	}, 10*time.Second, 200*time.Millisecond)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, 2, second[0].Attempt)
	require.NoError(t, transport.Complete(ctx, second[0]))
}

func TestFailedDeliveryIsNotRedelivered(t *testing.T) {
	url := startNATS(t)
	cfg, transport := openTransport(t, url, 1)
	ctx := context.Background()

	require.NoError(t, transport.Enqueue(ctx, cfg.Queue.Name, []byte(`{"jobType":"BOGUS"}`)))
	batch, err := transport.DequeueBatch(ctx, cfg.Queue.Name, 1)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	require.NoError(t, transport.Fail(ctx, batch[0], "unknown job type BOGUS"))

	time.Sleep(1500 * time.Millisecond)
	again, err := transport.DequeueBatch(ctx, cfg.Queue.Name, 1)
	require.NoError(t, err)
	assert.Empty(t, again)
}

type recordingHandler struct {
	mu   sync.Mutex
	seen []string
}

func (h *recordingHandler) Handle(_ context.Context, job jobs.Job) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, job.Payload.ItemID)
	return nil
}

func (h *recordingHandler) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("recording")
}

func TestDispatcherOverNATS(t *testing.T) {
	url := startNATS(t)
	cfg, transport := openTransport(t, url, 30)
	ctx := context.Background()

	handler := &recordingHandler{}
	d := workflow.NewDispatcher(cfg, transport, logging.NewNop())
	d.Register(jobs.TypeItem, handler)

	require.NoError(t, transport.Enqueue(ctx, cfg.Queue.Name, []byte(`{"jobType":"BOGUS","payload":{"user_id":"u1","item_id":"i1"}}`)))
	body, err := jobs.Encode(jobs.NewItemJob("u1", "i2", "Oats"))
	require.NoError(t, err)
	require.NoError(t, transport.Enqueue(ctx, cfg.Queue.Name, body))

	report, err := d.DrainOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Completed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"i2"}, handler.seen)
}
