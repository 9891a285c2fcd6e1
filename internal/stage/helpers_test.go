package stage

import (
	"context"
	"errors"
	"testing"

	"pantrypal/internal/jobs"
	"pantrypal/internal/services"
)

func TestRequireFields_Valid(t *testing.T) {
	if err := RequireFields(jobs.NewItemJob("u1", "i1", "Rice"), jobs.TypeItem); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireFields_WrongType(t *testing.T) {
	err := RequireFields(jobs.NewRecipeJob("u1", "r1"), jobs.TypeItem)
	if !errors.Is(err, services.ErrMalformedJob) {
		t.Fatalf("expected malformed job, got %v", err)
	}
}

func TestRequireFields_MissingPayload(t *testing.T) {
	err := RequireFields(jobs.Job{Type: jobs.TypeImage, Payload: jobs.Payload{UserID: "u1"}}, jobs.TypeImage)
	if !errors.Is(err, services.ErrMalformedJob) {
		t.Fatalf("expected malformed job, got %v", err)
	}
}

func TestHandlerFunc(t *testing.T) {
	called := false
	h := HandlerFunc(func(context.Context, jobs.Job) error {
		called = true
		return nil
	})
	if err := h.Handle(context.Background(), jobs.Job{}); err != nil || !called {
		t.Fatalf("handler func not invoked: %v", err)
	}
	if !h.HealthCheck(context.Background()).Ready {
		t.Fatal("expected func handler to report ready")
	}
}
