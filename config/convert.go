package config

import (
	"github.com/BaSui01/promptflow/internal/cache"
	"github.com/BaSui01/promptflow/internal/database"
	"github.com/BaSui01/promptflow/llm"
	llmcache "github.com/BaSui01/promptflow/llm/cache"
	"github.com/BaSui01/promptflow/optimizer"
	"github.com/BaSui01/promptflow/pipeline"
	"github.com/BaSui01/promptflow/store"
)

// 以下方法把各配置段转换为对应组件的配置类型。

// BackendConfig returns the connection parameters for llm.Factory.
func (b BackendConfig) BackendConfig() llm.BackendConfig {
	return llm.BackendConfig{
		Name:    b.Provider,
		APIKey:  b.APIKey,
		BaseURL: b.BaseURL,
		Model:   b.Model,
		System:  b.System,
	}
}

// GenerateOptions returns the runtime-wide generation defaults.
func (b BackendConfig) GenerateOptions() llm.GenerateOptions {
	return llm.GenerateOptions{
		MaxTokens:     b.MaxTokens,
		Temperature:   b.Temperature,
		TopP:          b.TopP,
		StopSequences: append([]string(nil), b.Stop...),
	}
}

// Options returns the pipeline policy.
func (p PipelineConfig) Options() pipeline.Options {
	return pipeline.Options{
		StopOnError: p.StopOnError,
		MaxRetries:  p.MaxRetries,
		RetryDelay:  p.RetryDelay,
		Debug:       p.Debug,
	}
}

// OptimizerConfig returns the bootstrapper configuration.
func (b BootstrapConfig) OptimizerConfig() optimizer.Config {
	return optimizer.Config{
		MaxLabeledDemos:      b.MaxLabeledDemos,
		MaxBootstrappedDemos: b.MaxBootstrappedDemos,
		MinScore:             b.MinScore,
	}
}

// CacheConfig returns the response cache tiers. The Redis tier is only
// enabled when an address is configured.
func (c CacheConfig) CacheConfig() llmcache.Config {
	cfg := llmcache.DefaultConfig()
	cfg.LocalTTL = c.LocalTTL
	cfg.LocalMaxSize = c.LocalCapacity
	cfg.RedisTTL = c.RedisTTL
	cfg.EnableRedis = c.RedisAddr != ""
	return cfg
}

// RedisConfig returns the connection settings of the cache's Redis tier.
func (c CacheConfig) RedisConfig() cache.Config {
	rc := cache.DefaultConfig()
	rc.Addr = c.RedisAddr
	rc.Password = c.RedisPassword
	rc.DB = c.RedisDB
	rc.TLS = c.RedisTLS
	return rc
}

// StoreConfig returns the artifact store settings.
func (s StoreConfig) StoreConfig() store.Config {
	rc := cache.DefaultConfig()
	rc.Addr = s.RedisAddr
	rc.Password = s.RedisPassword
	rc.DB = s.RedisDB
	rc.TLS = s.RedisTLS
	return store.Config{
		Type:      s.Type,
		Dir:       s.Dir,
		KeyPrefix: s.KeyPrefix,
		Redis:     rc,
		SQL: database.Config{
			Driver: s.SQLDriver,
			DSN:    s.SQLDSN,
			Pool:   database.DefaultPoolConfig(),
		},
	}
}
