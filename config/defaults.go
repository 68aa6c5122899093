package config

import "time"

// DefaultConfig returns the full default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Providers: DefaultProviderConfigs(),
		Upload:    DefaultUploadConfig(),
		Polling:   DefaultPollingConfig(),
		Redis:     DefaultRedisConfig(),
		Catalog:   CatalogConfig{},
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig returns the default HTTP server settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    5 * time.Minute,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    100,
		RateLimitBurst:  200,
	}
}

// DefaultProviderConfigs returns client settings for the providers the
// built-in catalog references. API keys come from the YAML file or env.
func DefaultProviderConfigs() map[string]ProviderConfig {
	return map[string]ProviderConfig{
		"fal": {
			BaseURL:           "https://queue.fal.run",
			Timeout:           2 * time.Minute,
			RequestsPerSecond: 5,
			StatusPath:        "v1/jobs/%s",
		},
		"runway": {
			BaseURL:           "https://api.dev.runwayml.com",
			Timeout:           2 * time.Minute,
			RequestsPerSecond: 2,
			StatusPath:        "v1/tasks/%s",
		},
	}
}

// DefaultUploadConfig returns the default upload service settings.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		BaseURL:  "https://v3.fal.media",
		Timeout:  2 * time.Minute,
		CacheTTL: 30 * time.Minute,
	}
}

// DefaultPollingConfig returns the default poller settings.
func DefaultPollingConfig() PollingConfig {
	return PollingConfig{
		Interval: 2 * time.Second,
	}
}

// DefaultRedisConfig returns the default upload-URL cache settings. The
// cache is off by default; uploads then dedupe in process only.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:      false,
		Addr:         "localhost:6379",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		TTL:          30 * time.Minute,
	}
}

// DefaultLogConfig returns the default logging settings.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig returns the default telemetry settings.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "genflow",
		SampleRate:   0.1,
	}
}
