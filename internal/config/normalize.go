package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizeQueue()
	c.normalizeNutrition()
	c.normalizeImages()
	c.normalizeObjectStorage()
	c.normalizeAuth()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	c.API.Token = envFallback(c.API.Token, "PANTRYPAL_API_TOKEN")
}

func (c *Config) normalizeQueue() {
	c.Queue.Backend = strings.ToLower(strings.TrimSpace(c.Queue.Backend))
	if c.Queue.Backend == "" {
		c.Queue.Backend = defaultQueueBackend
	}
	c.Queue.Name = strings.TrimSpace(c.Queue.Name)
	if c.Queue.Name == "" {
		c.Queue.Name = defaultQueueName
	}
	if c.Queue.BatchSize <= 0 {
		c.Queue.BatchSize = defaultQueueBatchSize
	}
	if c.Queue.Workers <= 0 {
		c.Queue.Workers = 1
	}
	c.Queue.NATSURL = envFallback(c.Queue.NATSURL, "NATS_URL")
	if c.Queue.NATSURL == "" {
		c.Queue.NATSURL = defaultNATSURL
	}
	c.Queue.NATSStream = strings.TrimSpace(c.Queue.NATSStream)
	if c.Queue.NATSStream == "" {
		c.Queue.NATSStream = defaultNATSStream
	}
}

func (c *Config) normalizeNutrition() {
	c.Nutrition.APIKey = envFallback(c.Nutrition.APIKey, "USDA_API_KEY")
	c.Nutrition.BaseURL = strings.TrimRight(strings.TrimSpace(c.Nutrition.BaseURL), "/")
	if c.Nutrition.BaseURL == "" {
		c.Nutrition.BaseURL = defaultNutritionBaseURL
	}
	if c.Nutrition.IngredientConcurrency <= 0 {
		c.Nutrition.IngredientConcurrency = 1
	}
}

func (c *Config) normalizeImages() {
	c.Images.APIKey = envFallback(c.Images.APIKey, "OPENAI_API_KEY")
	c.Images.BaseURL = strings.TrimSpace(c.Images.BaseURL)
	c.Images.Model = strings.TrimSpace(c.Images.Model)
	if c.Images.Model == "" {
		c.Images.Model = defaultImageModel
	}
	c.Images.Size = strings.TrimSpace(c.Images.Size)
	if c.Images.Size == "" {
		c.Images.Size = defaultImageSize
	}
}

func (c *Config) normalizeObjectStorage() {
	c.ObjectStorage.Bucket = envFallback(c.ObjectStorage.Bucket, "IMAGE_BUCKET_NAME")
	c.ObjectStorage.Region = envFallback(c.ObjectStorage.Region, "AWS_REGION")
	if c.ObjectStorage.Region == "" {
		c.ObjectStorage.Region = defaultObjectStorageRegion
	}
	c.ObjectStorage.AccessKeyID = envFallback(c.ObjectStorage.AccessKeyID, "AWS_ACCESS_KEY_ID")
	c.ObjectStorage.SecretAccessKey = envFallback(c.ObjectStorage.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	c.ObjectStorage.Endpoint = strings.TrimSpace(c.ObjectStorage.Endpoint)
	c.ObjectStorage.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.ObjectStorage.PublicBaseURL), "/")
}

func (c *Config) normalizeAuth() {
	c.Auth.JWTSecret = envFallback(c.Auth.JWTSecret, "PANTRYPAL_JWT_SECRET")
	c.Auth.Issuer = strings.TrimSpace(c.Auth.Issuer)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Metrics.Path = strings.TrimSpace(c.Metrics.Path)
	if c.Metrics.Path == "" {
		c.Metrics.Path = defaultMetricsPath
	}
}

// envFallback trims value and, when it is empty, reads the named env var.
func envFallback(value, env string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	if fromEnv, ok := os.LookupEnv(env); ok {
		return strings.TrimSpace(fromEnv)
	}
	return ""
}
