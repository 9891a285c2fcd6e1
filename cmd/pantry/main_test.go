package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pantrypal/internal/auth"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, false)

	out, _, err := runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
}

func TestQueueCommandsThroughDaemon(t *testing.T) {
	env := setupCLITestEnv(t, true)
	seedFailedJob(t, env.cfg)

	out, _, err := runCLI(t, env, "queue", "stats")
	if err != nil {
		t.Fatalf("queue stats: %v", err)
	}
	requireContains(t, out, "failed")

	out, _, err = runCLI(t, env, "queue", "list", "--status", "failed")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "ITEM")
	requireContains(t, out, "lookup failed")

	out, _, err = runCLI(t, env, "queue", "show", "1")
	if err != nil {
		t.Fatalf("queue show: %v", err)
	}
	requireContains(t, out, `"item_id": "i1"`)

	if _, _, err := runCLI(t, env, "queue", "show", "999"); err == nil {
		t.Fatal("expected missing job error")
	}

	out, _, err = runCLI(t, env, "queue", "retry")
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	requireContains(t, out, "Retried 1 job(s)")

	out, _, err = runCLI(t, env, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "sqlite")
	requireContains(t, out, "ITEM")
}

func TestQueueCommandsFallBackToDatabase(t *testing.T) {
	env := setupCLITestEnv(t, false)
	seedFailedJob(t, env.cfg)

	out, _, err := runCLI(t, env, "queue", "list", "--json")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, `"status": "failed"`)

	if _, _, err := runCLI(t, env, "queue", "list", "--status", "bogus"); err == nil {
		t.Fatal("expected unknown status error")
	}

	out, _, err = runCLI(t, env, "queue", "health")
	if err != nil {
		t.Fatalf("queue health: %v", err)
	}
	requireContains(t, out, "Integrity")

	if _, _, err := runCLI(t, env, "status"); err == nil {
		t.Fatal("expected status to fail without a daemon")
	}
}

func TestDrainProcessesQueue(t *testing.T) {
	env := setupCLITestEnv(t, false)
	enqueueItemJob(t, env.cfg, "i1")
	enqueueItemJob(t, env.cfg, "i2")

	out, _, err := runCLI(t, env, "drain", "--json")
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	requireContains(t, out, `"Completed": 2`)

	out, _, err = runCLI(t, env, "drain")
	if err != nil {
		t.Fatalf("second drain: %v", err)
	}
	requireContains(t, out, "Queue is empty")
}

func TestLookupCommands(t *testing.T) {
	env := setupCLITestEnv(t, false)

	out, _, err := runCLI(t, env, "lookup", "rice", "--quantity", "1", "--unit", "kg", "--json")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	requireContains(t, out, `"protein": 50`)
	requireContains(t, out, `"calories": 1300`)

	out, _, err = runCLI(t, env, "lookup", "suggest", "rice")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	requireContains(t, out, "Rice, White, Cooked")

	out, _, err = runCLI(t, env, "lookup", "upc", "012345678905")
	if err != nil {
		t.Fatalf("upc: %v", err)
	}
	requireContains(t, out, `"fdc_id": "1001"`)

	if _, _, err := runCLI(t, env, "lookup", "suggest", "rice", "--category", "rocks"); err == nil {
		t.Fatal("expected invalid category error")
	}
}

func TestTokenIssue(t *testing.T) {
	env := setupCLITestEnv(t, false)

	out, _, err := runCLI(t, env, "token", "issue", "u42", "--ttl", "5m")
	if err != nil {
		t.Fatalf("token issue: %v", err)
	}
	tokens, err := auth.New(env.cfg.Auth)
	if err != nil {
		t.Fatalf("auth.New: %v", err)
	}
	owner, err := tokens.Verify(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if owner != "u42" {
		t.Fatalf("expected owner u42, got %q", owner)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("unexpected %q", got)
	}
	if got := truncate("abcdefghijkl", 5); got != "abcd…" {
		t.Fatalf("unexpected %q", got)
	}
}
