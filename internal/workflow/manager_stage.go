package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"pantrypal/internal/jobs"
	"pantrypal/internal/logging"
	"pantrypal/internal/services"
	"pantrypal/internal/stage"
)

const settleTimeout = 10 * time.Second

// Dispatch runs one delivery through the state machine
// RECEIVED -> DISPATCHED -> {COMPLETED, FAILED}. It never panics and never
// returns an error: every failure is captured in the Outcome. Dispatch does
// not acknowledge the delivery; see processBatch.
func (d *Dispatcher) Dispatch(ctx context.Context, delivery jobs.Delivery) (out Outcome) {
	start := time.Now()
	out = Outcome{Delivery: delivery, State: StateReceived}
	d.metrics.started()
	defer func() {
		out.Duration = time.Since(start)
		d.metrics.finished(out.Job.Type, out.State, out.Duration)
		d.recordOutcome(out)
	}()

	ctx = services.WithJobID(ctx, delivery.ID)
	logger := logging.WithContext(ctx, d.logger).With(logging.String(logging.FieldQueue, delivery.Queue))

	job, err := jobs.Decode(delivery.Body)
	out.Job = job
	if err != nil {
		return d.malformed(logger, out, err)
	}
	ctx = withJobContext(ctx, job)
	logger = logging.WithContext(ctx, d.logger).With(logging.String(logging.FieldQueue, delivery.Queue))
	logger.Debug("job received",
		logging.String(logging.FieldEventType, "job_received"),
		logging.Int("attempt", delivery.Attempt),
	)

	if !job.Type.Known() {
		return d.malformed(logger, out, fmt.Errorf("%w: unknown job type %q", services.ErrMalformedJob, job.Type))
	}
	handler, ok := d.handlerFor(job.Type)
	if !ok {
		out.State = StateFailed
		out.Err = services.Wrap(services.ErrConfiguration, "dispatcher", "route", "no handler registered for "+string(job.Type), nil)
		d.logFailure(logger, out)
		return out
	}
	if err := job.Validate(); err != nil {
		return d.malformed(logger, out, err)
	}

	out.State = StateDispatched
	logger.Debug("job dispatched", logging.String(logging.FieldEventType, "job_dispatched"))

	unlock := d.locks.Lock(job.RecordKey())
	err = invoke(ctx, handler, job)
	unlock()

	switch {
	case err == nil:
		out.State = StateCompleted
	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		out.State = StateInterrupted
		out.Err = err
		logger.Info("job interrupted by shutdown; leaving for redelivery",
			logging.String(logging.FieldEventType, "job_interrupted"),
		)
		return out
	case services.IsBenign(err):
		out.State = StateCompleted
		out.Skipped = true
		out.Err = err
	default:
		out.State = StateFailed
		out.Err = err
		d.logFailure(logger, out)
		return out
	}

	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_completed"),
		logging.Bool("skipped", out.Skipped),
		logging.Duration("job_duration", time.Since(start)),
	)
	return out
}

// invoke calls the handler and converts a panic into an error.
func invoke(ctx context.Context, handler stage.Handler, job jobs.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v\n%s", r, debug.Stack())
		}
	}()
	return handler.Handle(ctx, job)
}

func (d *Dispatcher) malformed(logger *slog.Logger, out Outcome, err error) Outcome {
	if !errors.Is(err, services.ErrMalformedJob) {
		err = fmt.Errorf("%w: %v", services.ErrMalformedJob, err)
	}
	out.State = StateFailed
	out.Err = err
	logging.WarnWithContext(logger, "dropping malformed job", "job_malformed",
		logging.String(logging.FieldJobType, string(out.Job.Type)),
		logging.String(logging.FieldErrorKind, string(services.KindMalformedJob)),
		logging.String(logging.FieldErrorHint, "inspect the producer; the message cannot be routed"),
		logging.String(logging.FieldImpact, "job dropped; target record stays unhydrated"),
		logging.String("body", summarize(out.Delivery.Body)),
		logging.Error(err),
	)
	return out
}

// processBatch dispatches deliveries concurrently, keeping their leases alive
// while handlers run, then acknowledges each according to its outcome.
func (d *Dispatcher) processBatch(ctx context.Context, deliveries []jobs.Delivery) []Outcome {
	outcomes := make([]Outcome, len(deliveries))

	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go d.heartbeat.StartLoop(hbCtx, &hbWG, deliveries)

	var g errgroup.Group
	g.SetLimit(d.workers)
	for i, delivery := range deliveries {
		g.Go(func() error {
			outcomes[i] = d.Dispatch(ctx, delivery)
			d.settle(ctx, outcomes[i])
			return nil
		})
	}
	_ = g.Wait()

	hbCancel()
	hbWG.Wait()
	return outcomes
}

// settle acknowledges a delivery. Completed and failed jobs both leave the
// live queue; interrupted ones are left for redelivery.
func (d *Dispatcher) settle(ctx context.Context, out Outcome) {
	if out.State == StateInterrupted {
		return
	}
	ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()

	var err error
	switch out.State {
	case StateCompleted:
		err = d.transport.Complete(ackCtx, out.Delivery)
	case StateFailed:
		err = d.transport.Fail(ackCtx, out.Delivery, failureReason(out.Err))
	default:
		return
	}
	if err != nil {
		d.setLastError(err)
		d.logger.Warn("failed to acknowledge job; it may be redelivered",
			logging.String(logging.FieldJobID, out.Delivery.ID),
			logging.String("state", string(out.State)),
			logging.String(logging.FieldEventType, "job_ack_failed"),
			logging.String(logging.FieldErrorHint, "check queue backend health"),
			logging.Error(err),
		)
	}
}

func withJobContext(ctx context.Context, job jobs.Job) context.Context {
	_, recordID := job.Target()
	ctx = services.WithJobType(ctx, string(job.Type))
	if job.Payload.UserID != "" {
		ctx = services.WithOwnerID(ctx, job.Payload.UserID)
	}
	if recordID != "" {
		ctx = services.WithRecordID(ctx, recordID)
	}
	return ctx
}

func summarize(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
