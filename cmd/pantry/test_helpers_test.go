package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"pantrypal/internal/config"
	"pantrypal/internal/daemon"
	"pantrypal/internal/daemonrun"
	"pantrypal/internal/jobs"
	"pantrypal/internal/logging"
	"pantrypal/internal/queue"
	"pantrypal/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	apiURL     string
	usda       *testsupport.USDAServer
	daemon     *daemon.Daemon
}

func setupCLITestEnv(t *testing.T, startDaemon bool) *cliTestEnv {
	t.Helper()

	usda := testsupport.NewUSDAServer(t, testsupport.Food{
		FDCID:       1001,
		Description: "RICE, WHITE, COOKED",
		Category:    "Cereal Grains and Pasta",
		UPC:         "012345678905",
		Nutrients:   map[string]float64{"Energy": 130, "Protein": 5},
	})
	cfg := testsupport.NewConfig(t,
		testsupport.WithNutritionServer(usda.URL),
		testsupport.WithAPIToken("admin-secret"),
	)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "pantrypal.toml")
	writeTestConfig(t, configPath, cfg)

	env := &cliTestEnv{cfg: cfg, configPath: configPath, usda: usda, apiURL: "http://127.0.0.1:1"}
	if !startDaemon {
		return env
	}

	rt, err := daemonrun.Build(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	d, err := daemon.New(cfg, rt.Dispatcher, logging.NewNop(), rt.DaemonOptions()...)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	env.daemon = d
	env.apiURL = "http://" + d.Addr()
	return env
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath, "--api", env.apiURL}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// seedFailedJob enqueues one job and fails it directly in the queue database.
func seedFailedJob(t *testing.T, cfg *config.Config) {
	t.Helper()
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	body, err := jobs.Encode(jobs.NewItemJob("u1", "i1", "Rice"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := store.Enqueue(ctx, cfg.Queue.Name+"-seed", body); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	batch, err := store.DequeueBatch(ctx, cfg.Queue.Name+"-seed", 1)
	if err != nil || len(batch) != 1 {
		t.Fatalf("DequeueBatch: %v %d", err, len(batch))
	}
	if err := store.Fail(ctx, batch[0], "lookup failed: upstream 503"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
}

func enqueueItemJob(t *testing.T, cfg *config.Config, itemID string) {
	t.Helper()
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	defer store.Close()
	body, err := jobs.Encode(jobs.NewItemJob("u1", itemID, "Rice"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := store.Enqueue(context.Background(), cfg.Queue.Name, body); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
