package config

const (
	defaultConfigPath             = "~/.config/pantrypal/config.toml"
	defaultDataDir                = "~/.local/share/pantrypal"
	defaultLogDir                 = "~/.local/share/pantrypal/logs"
	defaultAPIBind                = "127.0.0.1:8000"
	defaultQueueBackend           = "sqlite"
	defaultQueueName              = "hydration"
	defaultQueueBatchSize         = 10
	defaultQueueWorkers           = 4
	defaultQueuePollInterval      = 2
	defaultQueueErrorRetry        = 10
	defaultQueueHeartbeatInterval = 15
	defaultQueueHeartbeatTimeout  = 120
	defaultNATSURL                = "nats://127.0.0.1:4222"
	defaultNATSStream             = "HYDRATION"
	defaultNATSAckWait            = 60
	defaultNutritionBaseURL       = "https://api.nal.usda.gov/fdc/v1"
	defaultNutritionTimeout       = 15
	defaultNutritionRPS           = 5
	defaultNutritionBurst         = 5
	defaultIngredientConcurrency  = 4
	defaultImageModel             = "dall-e-2"
	defaultImageSize              = "256x256"
	defaultImageTimeout           = 60
	defaultObjectStorageRegion    = "us-east-1"
	defaultAuthIssuer             = "pantrypal"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLogRetentionDays       = 14
	defaultMetricsPath            = "/metrics"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Queue: Queue{
			Backend:            defaultQueueBackend,
			Name:               defaultQueueName,
			BatchSize:          defaultQueueBatchSize,
			Workers:            defaultQueueWorkers,
			PollInterval:       defaultQueuePollInterval,
			ErrorRetryInterval: defaultQueueErrorRetry,
			HeartbeatInterval:  defaultQueueHeartbeatInterval,
			HeartbeatTimeout:   defaultQueueHeartbeatTimeout,
			NATSURL:            defaultNATSURL,
			NATSStream:         defaultNATSStream,
			NATSAckWait:        defaultNATSAckWait,
		},
		Nutrition: Nutrition{
			BaseURL:               defaultNutritionBaseURL,
			TimeoutSeconds:        defaultNutritionTimeout,
			RequestsPerSecond:     defaultNutritionRPS,
			Burst:                 defaultNutritionBurst,
			IngredientConcurrency: defaultIngredientConcurrency,
		},
		Images: Images{
			Model:          defaultImageModel,
			Size:           defaultImageSize,
			TimeoutSeconds: defaultImageTimeout,
		},
		ObjectStorage: ObjectStorage{
			Region: defaultObjectStorageRegion,
		},
		Auth: Auth{
			Issuer: defaultAuthIssuer,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Metrics: Metrics{
			Enabled: true,
			Path:    defaultMetricsPath,
		},
	}
}
