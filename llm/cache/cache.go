package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrCacheMiss 缓存未命中
var ErrCacheMiss = errors.New("cache miss")

// Entry 缓存条目
type Entry struct {
	Text      string    `json:"text"`
	Backend   string    `json:"backend"`
	CreatedAt time.Time `json:"created_at"`
}

// Config 缓存配置
type Config struct {
	LocalMaxSize uint64        `yaml:"local_max_size" env:"LOCAL_MAX_SIZE"` // 本地缓存最大条目数
	LocalTTL     time.Duration `yaml:"local_ttl" env:"LOCAL_TTL"`           // 本地缓存 TTL
	RedisTTL     time.Duration `yaml:"redis_ttl" env:"REDIS_TTL"`           // Redis 缓存 TTL
	KeyPrefix    string        `yaml:"key_prefix" env:"KEY_PREFIX"`
	EnableLocal  bool          `yaml:"enable_local" env:"ENABLE_LOCAL"`
	EnableRedis  bool          `yaml:"enable_redis" env:"ENABLE_REDIS"`
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		LocalMaxSize: 1000,
		LocalTTL:     5 * time.Minute,
		RedisTTL:     time.Hour,
		KeyPrefix:    "promptflow:gen:",
		EnableLocal:  true,
		EnableRedis:  true,
	}
}

// MultiLevelCache 多级缓存实现
type MultiLevelCache struct {
	local  *ttlcache.Cache[string, *Entry]
	redis  *redis.Client
	config Config
	logger *zap.Logger
}

// NewMultiLevelCache 创建多级缓存。rdb 为 nil 时只使用本地缓存。
func NewMultiLevelCache(rdb *redis.Client, config Config, logger *zap.Logger) *MultiLevelCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &MultiLevelCache{
		redis:  rdb,
		config: config,
		logger: logger.With(zap.String("component", "generation_cache")),
	}
	if config.EnableLocal {
		opts := []ttlcache.Option[string, *Entry]{ttlcache.WithTTL[string, *Entry](config.LocalTTL)}
		if config.LocalMaxSize > 0 {
			opts = append(opts, ttlcache.WithCapacity[string, *Entry](config.LocalMaxSize))
		}
		c.local = ttlcache.New(opts...)
	}
	return c
}

// Get 获取缓存
func (c *MultiLevelCache) Get(ctx context.Context, key string) (*Entry, error) {
	// 1. 查本地缓存
	if c.local != nil {
		if item := c.local.Get(key); item != nil {
			c.logger.Debug("local cache hit", zap.String("key", key))
			return item.Value(), nil
		}
	}

	// 2. 查 Redis 缓存
	if c.config.EnableRedis && c.redis != nil {
		data, err := c.redis.Get(ctx, c.redisKey(key)).Bytes()
		if err == nil {
			var entry Entry
			if err := json.Unmarshal(data, &entry); err == nil {
				// 回填本地缓存
				if c.local != nil {
					c.local.Set(key, &entry, ttlcache.DefaultTTL)
				}
				c.logger.Debug("redis cache hit", zap.String("key", key))
				return &entry, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis get error", zap.Error(err))
		}
	}

	return nil, ErrCacheMiss
}

// Set 设置缓存
func (c *MultiLevelCache) Set(ctx context.Context, key string, entry *Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	if c.local != nil {
		c.local.Set(key, entry, ttlcache.DefaultTTL)
	}

	if c.config.EnableRedis && c.redis != nil {
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		if err := c.redis.Set(ctx, c.redisKey(key), data, c.config.RedisTTL).Err(); err != nil {
			c.logger.Warn("redis set error", zap.Error(err))
			return err
		}
	}

	c.logger.Debug("cache set", zap.String("key", key))
	return nil
}

// Delete 删除缓存
func (c *MultiLevelCache) Delete(ctx context.Context, key string) error {
	if c.local != nil {
		c.local.Delete(key)
	}
	if c.config.EnableRedis && c.redis != nil {
		return c.redis.Del(ctx, c.redisKey(key)).Err()
	}
	return nil
}

// Len returns the number of entries in the local tier.
func (c *MultiLevelCache) Len() int {
	if c.local == nil {
		return 0
	}
	return c.local.Len()
}

// Start runs the local expiry loop until Stop is called.
func (c *MultiLevelCache) Start() {
	if c.local != nil {
		c.local.Start()
	}
}

// Stop ends the local expiry loop.
func (c *MultiLevelCache) Stop() {
	if c.local != nil {
		c.local.Stop()
	}
}

func (c *MultiLevelCache) redisKey(key string) string {
	return c.config.KeyPrefix + key
}
