package daemonrun_test

import (
	"context"
	"strings"
	"testing"

	"pantrypal/internal/daemon"
	"pantrypal/internal/daemonrun"
	"pantrypal/internal/logging"
	"pantrypal/internal/objectstore"
	"pantrypal/internal/pantry"
	"pantrypal/internal/testsupport"
)

func TestBuildWiresSQLiteRuntime(t *testing.T) {
	usda := testsupport.NewUSDAServer(t, testsupport.Food{
		FDCID:       1001,
		Description: "RICE, WHITE, COOKED",
		Nutrients:   map[string]float64{"Energy": 130, "Protein": 5},
	})
	cfg := testsupport.NewConfig(t, testsupport.WithNutritionServer(usda.URL))

	rt, err := daemonrun.Build(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })

	if rt.Store == nil {
		t.Fatal("expected sqlite queue store")
	}
	if rt.Tokens == nil {
		t.Fatal("expected token service when a jwt secret is configured")
	}
	if rt.Records.ImagesEnabled() {
		t.Fatal("images should be disabled by default")
	}

	ctx := context.Background()
	item, err := rt.Records.CreateItem(ctx, "u1", pantry.PantryItem{ProductName: "Rice", Quantity: 1})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	report, err := rt.Dispatcher.DrainOnce(ctx)
	if err != nil {
		t.Fatalf("DrainOnce: %v", err)
	}
	if report.Completed != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	got, err := rt.Records.GetItem(ctx, "u1", item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.Macros == nil || got.Macros.Protein != 5 {
		t.Fatalf("expected hydrated macros, got %+v", got.Macros)
	}
}

func TestBuildWiresImagePipeline(t *testing.T) {
	usda := testsupport.NewUSDAServer(t)
	images := testsupport.NewImageServer(t, testsupport.PNG(t))
	s3 := testsupport.NewS3Server(t)
	cfg := testsupport.NewConfig(t,
		testsupport.WithNutritionServer(usda.URL),
		testsupport.WithImages(images.BaseURL(), s3.URL),
	)

	rt, err := daemonrun.Build(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })

	if !s3.HasBucket(cfg.ObjectStorage.Bucket) {
		t.Fatal("expected bucket to be created at startup")
	}
	ctx := context.Background()
	item, err := rt.Records.CreateItem(ctx, "u1", pantry.PantryItem{ProductName: "Oats"})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if _, err := rt.Dispatcher.DrainOnce(ctx); err != nil {
		t.Fatalf("DrainOnce: %v", err)
	}
	got, err := rt.Records.GetItem(ctx, "u1", item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if !strings.HasSuffix(got.ImageURL, "u1/"+item.ID+".png") {
		t.Fatalf("unexpected image url %q", got.ImageURL)
	}
	if _, ok := s3.Object(cfg.ObjectStorage.Bucket, objectstore.Key("u1", item.ID)); !ok {
		t.Fatal("expected uploaded image object")
	}
}

func TestBuildRejectsUnknownBackend(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Queue.Backend = "kafka"
	if _, err := daemonrun.Build(context.Background(), cfg, logging.NewNop()); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}

func TestDaemonOptionsTransferClosers(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	rt, err := daemonrun.Build(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	d, err := daemon.New(cfg, rt.Dispatcher, logging.NewNop(), rt.DaemonOptions()...)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("Close after transfer: %v", err)
	}
	// The queue is still open because the daemon now owns it.
	if _, err := rt.Store.Stats(context.Background()); err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("daemon Close: %v", err)
	}
	rt2 := &daemonrun.Runtime{}
	if err := rt2.Close(); err != nil {
		t.Fatalf("empty Close: %v", err)
	}
}
