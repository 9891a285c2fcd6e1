package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"pantrypal/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"USDA_API_KEY",
		"OPENAI_API_KEY",
		"IMAGE_BUCKET_NAME",
		"AWS_REGION",
		"AWS_ACCESS_KEY_ID",
		"AWS_SECRET_ACCESS_KEY",
		"PANTRYPAL_JWT_SECRET",
		"PANTRYPAL_API_TOKEN",
		"NATS_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigUsesEnvUSDAKeyAndExpandsPaths(t *testing.T) {
	clearEnv(t)
	t.Setenv("USDA_API_KEY", "usda-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "pantrypal")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Nutrition.APIKey != "usda-key" {
		t.Fatalf("expected USDA key from env, got %q", cfg.Nutrition.APIKey)
	}
	if cfg.Nutrition.BaseURL != config.Default().Nutrition.BaseURL {
		t.Fatalf("unexpected nutrition base url: %q", cfg.Nutrition.BaseURL)
	}
	if cfg.Queue.Backend != "sqlite" {
		t.Fatalf("expected sqlite backend by default, got %q", cfg.Queue.Backend)
	}
	if cfg.Queue.Name != "hydration" {
		t.Fatalf("unexpected queue name: %q", cfg.Queue.Name)
	}
	if cfg.Images.Enabled {
		t.Fatal("expected image generation disabled by default")
	}
	if cfg.Images.Size != "256x256" {
		t.Fatalf("unexpected image size: %q", cfg.Images.Size)
	}
	if cfg.API.Bind != "127.0.0.1:8000" {
		t.Fatalf("unexpected api bind: %q", cfg.API.Bind)
	}
	if got := cfg.DocumentDBPath(); got != filepath.Join(wantData, "pantry.db") {
		t.Fatalf("unexpected document db path: %q", got)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
data_dir = "~/pantry-data"

[queue]
backend = "NATS"
nats_url = "nats://queue.internal:4222"
batch_size = 25

[nutrition]
api_key = "file-key"
base_url = "http://usda.local/fdc/v1/"

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "pantry-data") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Queue.Backend != "nats" {
		t.Fatalf("expected backend lowercased, got %q", cfg.Queue.Backend)
	}
	if cfg.Queue.BatchSize != 25 {
		t.Fatalf("unexpected batch size: %d", cfg.Queue.BatchSize)
	}
	if cfg.Nutrition.BaseURL != "http://usda.local/fdc/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Nutrition.BaseURL)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestConfigFileWinsOverEnvForAPIKeys(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("USDA_API_KEY", "env-usda")
	t.Setenv("OPENAI_API_KEY", "env-openai")
	t.Setenv("IMAGE_BUCKET_NAME", "env-bucket")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[nutrition]
api_key = "file-usda"

[images]
enabled = true
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Nutrition.APIKey != "file-usda" {
		t.Fatalf("expected file key to win, got %q", cfg.Nutrition.APIKey)
	}
	if cfg.Images.APIKey != "env-openai" {
		t.Fatalf("expected openai key from env, got %q", cfg.Images.APIKey)
	}
	if cfg.ObjectStorage.Bucket != "env-bucket" {
		t.Fatalf("expected bucket from env, got %q", cfg.ObjectStorage.Bucket)
	}
}

func TestCreateSample(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[nutrition]") {
		t.Fatalf("sample missing nutrition section:\n%s", data)
	}

	var parsed config.Config
	if err := toml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if parsed.Queue.Name != config.Default().Queue.Name {
		t.Fatalf("sample queue name %q diverges from default", parsed.Queue.Name)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "missing usda key",
			mutate:  func(c *config.Config) { c.Nutrition.APIKey = "" },
			wantErr: "nutrition.api_key",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *config.Config) { c.Queue.Backend = "kafka" },
			wantErr: "queue.backend",
		},
		{
			name: "nats without url",
			mutate: func(c *config.Config) {
				c.Queue.Backend = "nats"
				c.Queue.NATSURL = ""
			},
			wantErr: "queue.nats_url",
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *config.Config) { c.Queue.PollInterval = 0 },
			wantErr: "queue.poll_interval",
		},
		{
			name:    "heartbeat timeout too small",
			mutate:  func(c *config.Config) { c.Queue.HeartbeatTimeout = c.Queue.HeartbeatInterval },
			wantErr: "queue.heartbeat_timeout",
		},
		{
			name: "images without key",
			mutate: func(c *config.Config) {
				c.Images.Enabled = true
				c.ObjectStorage.Bucket = "bucket"
			},
			wantErr: "images.api_key",
		},
		{
			name: "images without bucket",
			mutate: func(c *config.Config) {
				c.Images.Enabled = true
				c.Images.APIKey = "key"
			},
			wantErr: "object_storage.bucket",
		},
		{
			name:    "bad log format",
			mutate:  func(c *config.Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Nutrition.APIKey = "key"
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
