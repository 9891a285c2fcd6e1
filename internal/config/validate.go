package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateNutrition(); err != nil {
		return err
	}
	if err := c.validateImages(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateQueue() error {
	switch c.Queue.Backend {
	case "sqlite":
	case "nats":
		if strings.TrimSpace(c.Queue.NATSURL) == "" {
			return errors.New("queue.nats_url must be set when queue.backend is nats")
		}
	default:
		return fmt.Errorf("queue.backend: unsupported value %q (want sqlite or nats)", c.Queue.Backend)
	}
	if c.Queue.PollInterval <= 0 {
		return errors.New("queue.poll_interval must be positive")
	}
	if c.Queue.HeartbeatInterval <= 0 {
		return errors.New("queue.heartbeat_interval must be positive")
	}
	if c.Queue.HeartbeatTimeout > 0 && c.Queue.HeartbeatTimeout <= c.Queue.HeartbeatInterval {
		return errors.New("queue.heartbeat_timeout must exceed queue.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateNutrition() error {
	if c.Nutrition.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("nutrition.api_key is required. Set USDA_API_KEY env var or edit %s (create with 'pantry config init')", defaultPath)
	}
	if c.Nutrition.RequestsPerSecond < 0 {
		return errors.New("nutrition.requests_per_second must not be negative")
	}
	return nil
}

func (c *Config) validateImages() error {
	if !c.Images.Enabled {
		return nil
	}
	if c.Images.APIKey == "" {
		return errors.New("images.api_key must be set when images.enabled is true (or export OPENAI_API_KEY)")
	}
	if c.ObjectStorage.Bucket == "" {
		return errors.New("object_storage.bucket must be set when images.enabled is true (or export IMAGE_BUCKET_NAME)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must not be negative")
	}
	return nil
}
