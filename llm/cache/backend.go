package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/BaSui01/promptflow/llm"
)

// Recorder receives cache lookup outcomes.
type Recorder interface {
	RecordCacheLookup(backend string, hit bool)
}

// CachingBackend 带响应缓存的后端装饰器。
type CachingBackend struct {
	next     llm.Backend
	cache    *MultiLevelCache
	group    singleflight.Group
	recorder Recorder
	logger   *zap.Logger
}

// NewCachingBackend wraps next with cache.
func NewCachingBackend(next llm.Backend, cache *MultiLevelCache, logger *zap.Logger) *CachingBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingBackend{
		next:   next,
		cache:  cache,
		logger: logger.With(zap.String("component", "caching_backend")),
	}
}

// WithRecorder sets the lookup recorder and returns b.
func (b *CachingBackend) WithRecorder(r Recorder) *CachingBackend {
	b.recorder = r
	return b
}

func (b *CachingBackend) record(hit bool) {
	if b.recorder != nil {
		b.recorder.RecordCacheLookup(b.next.Name(), hit)
	}
}

// Name implements llm.Backend.
func (b *CachingBackend) Name() string { return b.next.Name() }

// Unwrap returns the decorated backend.
func (b *CachingBackend) Unwrap() llm.Backend { return b.next }

// Generate implements llm.Backend.
func (b *CachingBackend) Generate(ctx context.Context, prompt string, opts *llm.GenerateOptions) (string, error) {
	key := Key(b.next.Name(), prompt, opts)

	if entry, err := b.cache.Get(ctx, key); err == nil {
		b.record(true)
		return entry.Text, nil
	} else if !errors.Is(err, ErrCacheMiss) {
		b.logger.Warn("cache lookup failed", zap.Error(err))
	}
	b.record(false)

	v, err, shared := b.group.Do(key, func() (any, error) {
		text, err := b.next.Generate(ctx, prompt, opts)
		if err != nil {
			return "", err
		}
		if err := b.cache.Set(ctx, key, &Entry{Text: text, Backend: b.next.Name()}); err != nil {
			// 写缓存失败不影响本次结果
			b.logger.Warn("cache store failed", zap.Error(err))
		}
		return text, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		b.logger.Debug("generation shared", zap.String("key", key))
	}
	return v.(string), nil
}

type keyMaterial struct {
	Backend string               `json:"backend"`
	Prompt  string               `json:"prompt"`
	Options *llm.GenerateOptions `json:"options,omitempty"`
}

// Key derives the cache key for one generation request.
func Key(backend, prompt string, opts *llm.GenerateOptions) string {
	data, _ := json.Marshal(keyMaterial{Backend: backend, Prompt: prompt, Options: opts})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}
