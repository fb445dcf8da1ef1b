// =============================================================================
// PromptFlow 默认配置
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Backend:   DefaultBackendConfig(),
		Pipeline:  DefaultPipelineConfig(),
		Bootstrap: DefaultBootstrapConfig(),
		Cache:     DefaultCacheConfig(),
		Store:     DefaultStoreConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
		Metrics:   DefaultMetricsConfig(),
	}
}

// DefaultBackendConfig 返回默认后端配置
func DefaultBackendConfig() BackendConfig {
	return BackendConfig{
		Provider:       "anthropic",
		MaxTokens:      1024,
		Timeout:        60 * time.Second,
		RateLimitBurst: 1,
	}
}

// DefaultPipelineConfig 与 pipeline.DefaultOptions 保持一致
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		StopOnError: true,
		MaxRetries:  0,
		RetryDelay:  time.Second,
		HistorySize: 100,
	}
}

// DefaultBootstrapConfig 返回默认自举配置
func DefaultBootstrapConfig() BootstrapConfig {
	return BootstrapConfig{
		MaxLabeledDemos:      16,
		MaxBootstrappedDemos: 4,
		MinScore:             0.5,
	}
}

// DefaultCacheConfig 返回默认缓存配置
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:       false,
		LocalTTL:      5 * time.Minute,
		LocalCapacity: 1000,
		RedisTTL:      time.Hour,
	}
}

// DefaultStoreConfig 返回默认存储配置
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Type:      "file",
		Dir:       ".promptflow/artifacts",
		KeyPrefix: "promptflow:artifact:",
		SQLDriver: "sqlite",
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		EnableCaller:     false,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "promptflow",
		SampleRate:   0.1,
		Insecure:     true,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   false,
		Namespace: "promptflow",
		Addr:      ":9091",
	}
}
