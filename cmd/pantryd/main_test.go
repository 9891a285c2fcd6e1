package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("USDA_API_KEY", "test")
	path := filepath.Join(dir, "pantrypal.toml")
	content := "[paths]\ndata_dir = \"" + filepath.Join(dir, "data") + "\"\nlog_dir = \"" + filepath.Join(dir, "logs") + "\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Paths.DataDir != filepath.Join(dir, "data") {
		t.Fatalf("unexpected data dir %q", cfg.Paths.DataDir)
	}
	if _, err := os.Stat(cfg.Paths.DataDir); err != nil {
		t.Fatalf("expected data dir to exist: %v", err)
	}
}

func TestLoadConfigRejectsInvalidBackend(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("USDA_API_KEY", "test")
	path := filepath.Join(dir, "pantrypal.toml")
	content := "[paths]\ndata_dir = \"" + filepath.Join(dir, "data") + "\"\n[queue]\nbackend = \"kafka\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Fatal("expected validation error")
	}
}
