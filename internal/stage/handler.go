package stage

import (
	"context"

	"pantrypal/internal/jobs"
)

// Handler describes the contract the dispatcher needs from each enrichment
// handler. Handle must be idempotent: redelivery of the same job leaves the
// record in the same final state.
type Handler interface {
	Handle(context.Context, jobs.Job) error
	HealthCheck(context.Context) Health
}

// HandlerFunc adapts a plain function to Handler. It always reports healthy.
type HandlerFunc func(context.Context, jobs.Job) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, job jobs.Job) error {
	return f(ctx, job)
}

// HealthCheck reports the func as ready.
func (f HandlerFunc) HealthCheck(context.Context) Health {
	return Healthy("func")
}
