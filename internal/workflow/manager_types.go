package workflow

import (
	"context"
	"time"

	"pantrypal/internal/jobs"
)

// Transport is the queue the dispatcher consumes. Delivery is at least once:
// a delivery that is neither completed nor failed is handed out again later.
type Transport interface {
	Enqueue(ctx context.Context, queueName string, body []byte) error
	DequeueBatch(ctx context.Context, queueName string, max int) ([]jobs.Delivery, error)
	Complete(ctx context.Context, d jobs.Delivery) error
	Fail(ctx context.Context, d jobs.Delivery, reason string) error
}

// heartbeater is implemented by transports that lease deliveries and need
// the lease extended while a handler runs.
type heartbeater interface {
	Heartbeat(ctx context.Context, deliveries []jobs.Delivery) error
}

// reclaimer is implemented by transports that must return abandoned leases
// to the queue themselves.
type reclaimer interface {
	ReclaimStaleProcessing(ctx context.Context, cutoff time.Time) (int64, error)
}

// State is the position of one message in the dispatch state machine.
type State string

const (
	StateReceived   State = "RECEIVED"
	StateDispatched State = "DISPATCHED"
	StateCompleted  State = "COMPLETED"
	StateFailed     State = "FAILED"
	// StateInterrupted marks a delivery abandoned at shutdown. It is neither
	// acknowledged nor failed so the transport redelivers it.
	StateInterrupted State = "INTERRUPTED"
)

// Outcome describes how one delivery was handled.
type Outcome struct {
	Delivery jobs.Delivery
	Job      jobs.Job
	State    State
	// Skipped is set when the job completed without writing, e.g. because
	// the target record was deleted.
	Skipped  bool
	Err      error
	Duration time.Duration
}

// DrainReport totals the outcomes of a DrainOnce call.
type DrainReport struct {
	Batches     int
	Completed   int
	Failed      int
	Interrupted int
}

func (r *DrainReport) add(o Outcome) {
	switch o.State {
	case StateCompleted:
		r.Completed++
	case StateFailed:
		r.Failed++
	case StateInterrupted:
		r.Interrupted++
	}
}

// Total returns the number of deliveries handled.
func (r DrainReport) Total() int {
	return r.Completed + r.Failed + r.Interrupted
}
