package services_test

import (
	"context"
	"testing"

	"pantrypal/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithOwnerID(ctx, "user-1")
	ctx = services.WithJobID(ctx, "42")
	ctx = services.WithJobType(ctx, "ITEM")
	ctx = services.WithRecordID(ctx, "item-9")
	ctx = services.WithRequestID(ctx, "req-123")

	if owner, ok := services.OwnerIDFromContext(ctx); !ok || owner != "user-1" {
		t.Fatalf("unexpected owner: %v %v", owner, ok)
	}
	if id, ok := services.JobIDFromContext(ctx); !ok || id != "42" {
		t.Fatalf("unexpected job id: %v %v", id, ok)
	}
	if jt, ok := services.JobTypeFromContext(ctx); !ok || jt != "ITEM" {
		t.Fatalf("unexpected job type: %v %v", jt, ok)
	}
	if rec, ok := services.RecordIDFromContext(ctx); !ok || rec != "item-9" {
		t.Fatalf("unexpected record id: %v %v", rec, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithOwnerID(ctx, "")
	ctx = services.WithJobType(ctx, "")
	if _, ok := services.OwnerIDFromContext(ctx); ok {
		t.Fatal("expected blank owner to be ignored")
	}
	if _, ok := services.JobTypeFromContext(ctx); ok {
		t.Fatal("expected blank job type to be ignored")
	}
}
