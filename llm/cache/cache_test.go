package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/promptflow/llm"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func TestMultiLevelCache_LocalOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableRedis = false
	c := NewMultiLevelCache(nil, cfg, nil)
	ctx := context.Background()

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", &Entry{Text: "v"}))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got.Text)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMultiLevelCache_RedisBackfillsLocal(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	cfg := DefaultConfig()
	ctx := context.Background()

	writer := NewMultiLevelCache(rdb, cfg, nil)
	require.NoError(t, writer.Set(ctx, "k", &Entry{Text: "from-redis", Backend: "echo"}))
	assert.True(t, mr.Exists(cfg.KeyPrefix+"k"))

	// 新实例本地为空，应从 Redis 读取并回填
	reader := NewMultiLevelCache(rdb, cfg, nil)
	assert.Equal(t, 0, reader.Len())
	got, err := reader.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "from-redis", got.Text)
	assert.Equal(t, 1, reader.Len())

	mr.FastForward(2 * time.Hour)
	third := NewMultiLevelCache(rdb, cfg, nil)
	_, err = third.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMultiLevelCache_RedisDown(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	c := NewMultiLevelCache(rdb, DefaultConfig(), nil)
	mr.Close()

	ctx := context.Background()
	assert.Error(t, c.Set(ctx, "k", &Entry{Text: "v"}))
	// 本地层仍然可用
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got.Text)
}

func TestCachingBackend_HitsSkipBackend(t *testing.T) {
	_, rdb := setupTestRedis(t)
	var calls atomic.Int32
	inner := llm.BackendFunc(func(_ context.Context, prompt string, _ *llm.GenerateOptions) (string, error) {
		calls.Add(1)
		return "re:" + prompt, nil
	})
	b := NewCachingBackend(inner, NewMultiLevelCache(rdb, DefaultConfig(), nil), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		out, err := b.Generate(ctx, "hello", nil)
		require.NoError(t, err)
		assert.Equal(t, "re:hello", out)
	}
	assert.Equal(t, int32(1), calls.Load())

	_, err := b.Generate(ctx, "hello", &llm.GenerateOptions{MaxTokens: 5})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "different options must not share an entry")
}

func TestCachingBackend_ErrorsAreNotCached(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableRedis = false
	var calls atomic.Int32
	boom := errors.New("boom")
	inner := llm.BackendFunc(func(context.Context, string, *llm.GenerateOptions) (string, error) {
		if calls.Add(1) == 1 {
			return "", boom
		}
		return "ok", nil
	})
	b := NewCachingBackend(inner, NewMultiLevelCache(nil, cfg, nil), nil)

	_, err := b.Generate(context.Background(), "p", nil)
	assert.ErrorIs(t, err, boom)
	out, err := b.Generate(context.Background(), "p", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCachingBackend_ConcurrentCallersShareResult(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableRedis = false
	var calls atomic.Int32
	release := make(chan struct{})
	inner := llm.BackendFunc(func(context.Context, string, *llm.GenerateOptions) (string, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	})
	b := NewCachingBackend(inner, NewMultiLevelCache(nil, cfg, nil), nil)

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = b.Generate(context.Background(), "same", nil)
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "shared", r)
	}
	assert.LessOrEqual(t, calls.Load(), int32(8))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestKey_Stable(t *testing.T) {
	a := Key("echo", "p", &llm.GenerateOptions{MaxTokens: 1})
	b := Key("echo", "p", &llm.GenerateOptions{MaxTokens: 1})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, Key("other", "p", &llm.GenerateOptions{MaxTokens: 1}))
	assert.NotEqual(t, a, Key("echo", "p", nil))
	assert.Len(t, a, 32)
}

type lookupRecorder struct {
	hits, misses int
}

func (r *lookupRecorder) RecordCacheLookup(_ string, hit bool) {
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func TestCachingBackend_RecordsLookups(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableRedis = false
	rec := &lookupRecorder{}
	b := NewCachingBackend(llm.EchoBackend{}, NewMultiLevelCache(nil, cfg, nil), nil).WithRecorder(rec)

	for i := 0; i < 3; i++ {
		_, err := b.Generate(context.Background(), "p", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, rec.hits)
	assert.Equal(t, 1, rec.misses)
}
