package store

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/promptflow/internal/cache"
	"github.com/BaSui01/promptflow/internal/database"
)

// 存储类型
const (
	TypeFile  = "file"
	TypeRedis = "redis"
	TypeSQL   = "sql"
)

// DefaultKeyPrefix namespaces artifact keys in Redis.
const DefaultKeyPrefix = "promptflow:artifact:"

// Config selects and configures a Store implementation.
type Config struct {
	Type      string          `yaml:"type" json:"type"`
	Dir       string          `yaml:"dir" json:"dir"`
	KeyPrefix string          `yaml:"key_prefix" json:"key_prefix"`
	Redis     cache.Config    `yaml:"redis" json:"redis"`
	SQL       database.Config `yaml:"sql" json:"sql"`
}

// Open builds the Store described by cfg. Connections opened here are
// released by the returned store's Close.
func Open(cfg Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Type {
	case TypeFile, "":
		return NewFileStore(cfg.Dir)
	case TypeRedis:
		mgr, err := cache.NewManager(cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		prefix := cfg.KeyPrefix
		if prefix == "" {
			prefix = DefaultKeyPrefix
		}
		s := NewRedisStore(mgr.Client(), prefix)
		s.closer = mgr.Close
		return s, nil
	case TypeSQL:
		pool, err := database.Open(cfg.SQL, logger)
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		s, err := NewSQLStore(pool)
		if err != nil {
			_ = pool.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("store: unknown type %q", cfg.Type)
	}
}
