package testsupport

import (
	"path/filepath"
	"testing"

	"pantrypal/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Nutrition.APIKey = "test"
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.API.Bind = "127.0.0.1:0"
	cfgVal.Queue.PollInterval = 1
	cfgVal.Auth.JWTSecret = "test-secret"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithNutritionServer points the USDA client at a test server.
func WithNutritionServer(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Nutrition.BaseURL = baseURL
		b.cfg.Nutrition.RequestsPerSecond = 0
	}
}

// WithImages enables image hydration against the given OpenAI-compatible
// and S3-compatible endpoints.
func WithImages(imageBaseURL, storageEndpoint string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Images.Enabled = true
		b.cfg.Images.APIKey = "test"
		b.cfg.Images.BaseURL = imageBaseURL
		b.cfg.ObjectStorage.Bucket = "pantry-images"
		b.cfg.ObjectStorage.Endpoint = storageEndpoint
		b.cfg.ObjectStorage.AccessKeyID = "test"
		b.cfg.ObjectStorage.SecretAccessKey = "test"
		b.cfg.ObjectStorage.UsePathStyle = true
	}
}

// WithAPIToken sets the operator token guarding queue routes.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.Token = token
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
