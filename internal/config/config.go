package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// API contains the HTTP listener settings.
type API struct {
	Bind string `toml:"bind"`
	// Token guards the operator routes (/api/queue). Empty disables the check.
	Token string `toml:"token"`
}

// Queue configures the hydration job transport and the consumer loop.
type Queue struct {
	Backend            string `toml:"backend"` // sqlite or nats
	Name               string `toml:"name"`
	BatchSize          int    `toml:"batch_size"`
	Workers            int    `toml:"workers"`
	PollInterval       int    `toml:"poll_interval"`
	ErrorRetryInterval int    `toml:"error_retry_interval"`
	HeartbeatInterval  int    `toml:"heartbeat_interval"`
	HeartbeatTimeout   int    `toml:"heartbeat_timeout"`
	NATSURL            string `toml:"nats_url"`
	NATSStream         string `toml:"nats_stream"`
	NATSAckWait        int    `toml:"nats_ack_wait"`
}

// Nutrition configures the USDA FoodData Central client.
type Nutrition struct {
	APIKey                string  `toml:"api_key"`
	BaseURL               string  `toml:"base_url"`
	TimeoutSeconds        int     `toml:"timeout_seconds"`
	RequestsPerSecond     float64 `toml:"requests_per_second"`
	Burst                 int     `toml:"burst"`
	IngredientConcurrency int     `toml:"ingredient_concurrency"`
}

// Images configures generated placeholder photos.
type Images struct {
	Enabled        bool   `toml:"enabled"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Size           string `toml:"size"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// ObjectStorage configures the S3 bucket generated images are uploaded to.
type ObjectStorage struct {
	Bucket          string `toml:"bucket"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	PublicBaseURL   string `toml:"public_base_url"`
	UsePathStyle    bool   `toml:"use_path_style"`
}

// Auth configures bearer token verification for user routes.
type Auth struct {
	JWTSecret string `toml:"jwt_secret"`
	Issuer    string `toml:"issuer"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`

	// RetentionDays prunes per-run daemon logs older than this. 0 keeps all.
	RetentionDays int `toml:"retention_days"`
}

// Metrics toggles the Prometheus endpoint.
type Metrics struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Config encapsulates all configuration values for pantrypal.
//
// Configuration sections by subsystem:
//   - Paths: data (SQLite databases, lock file) and log directories
//   - API: HTTP bind address and operator token
//   - Queue: hydration transport (sqlite or nats) and consumer timing
//   - Nutrition: USDA FoodData Central credentials and rate limits
//   - Images: generated placeholder photos
//   - ObjectStorage: S3 bucket for generated images
//   - Auth: bearer token verification
//   - Logging: log format and level
//   - Metrics: Prometheus exposition
type Config struct {
	Paths         Paths         `toml:"paths"`
	API           API           `toml:"api"`
	Queue         Queue         `toml:"queue"`
	Nutrition     Nutrition     `toml:"nutrition"`
	Images        Images        `toml:"images"`
	ObjectStorage ObjectStorage `toml:"object_storage"`
	Auth          Auth          `toml:"auth"`
	Logging       Logging       `toml:"logging"`
	Metrics       Metrics       `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("pantrypal.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DocumentDBPath is the SQLite file holding pantry items and recipes.
func (c *Config) DocumentDBPath() string {
	return filepath.Join(c.Paths.DataDir, "pantry.db")
}

// QueueDBPath is the SQLite file holding hydration jobs for the sqlite backend.
func (c *Config) QueueDBPath() string {
	return filepath.Join(c.Paths.DataDir, "queue.db")
}

// LockPath is the single-instance lock held by the daemon.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "pantryd.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
