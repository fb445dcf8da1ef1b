package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/promptflow/internal/cache"
	"github.com/BaSui01/promptflow/internal/database"
)

func newStores(t *testing.T) map[string]Store {
	t.Helper()

	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	sqlStore, err := Open(Config{
		Type: TypeSQL,
		SQL: database.Config{
			Driver: database.DriverSQLite,
			DSN:    filepath.Join(t.TempDir(), "artifacts.db"),
		},
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlStore.Close() })

	return map[string]Store{
		"file":  fs,
		"redis": NewRedisStore(rdb, DefaultKeyPrefix),
		"sql":   sqlStore,
	}
}

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.Delete(ctx, "missing"), ErrNotFound)

			require.NoError(t, s.Put(ctx, "qa/v1", []byte("one")))
			require.NoError(t, s.Put(ctx, "qa/v2", []byte("two")))
			require.NoError(t, s.Put(ctx, "summarize", []byte("three")))

			got, err := s.Get(ctx, "qa/v1")
			require.NoError(t, err)
			assert.Equal(t, []byte("one"), got)

			// overwrite
			require.NoError(t, s.Put(ctx, "qa/v1", []byte("uno")))
			got, err = s.Get(ctx, "qa/v1")
			require.NoError(t, err)
			assert.Equal(t, []byte("uno"), got)

			keys, err := s.List(ctx, "qa/")
			require.NoError(t, err)
			assert.Equal(t, []string{"qa/v1", "qa/v2"}, keys)

			keys, err = s.List(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, []string{"qa/v1", "qa/v2", "summarize"}, keys)

			require.NoError(t, s.Delete(ctx, "qa/v2"))
			_, err = s.Get(ctx, "qa/v2")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_RejectsInvalidKeys(t *testing.T) {
	ctx := context.Background()
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "../escape", "a/../b", "/abs", "sp ace", "dir/"} {
				assert.Error(t, s.Put(ctx, key, []byte("x")), key)
			}
		})
	}
}

func TestValidateKey(t *testing.T) {
	assert.NoError(t, ValidateKey("qa.v1"))
	assert.NoError(t, ValidateKey("team/qa-module_2"))
	assert.Error(t, ValidateKey("a..b"))
	assert.Error(t, ValidateKey(".hidden"))
}

func TestRedisStore_UsesPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	s := NewRedisStore(rdb, "custom:")
	require.NoError(t, s.Put(context.Background(), "k", []byte("v")))

	val, err := mr.Get("custom:k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)
}

func TestOpen(t *testing.T) {
	s, err := Open(Config{Type: TypeFile, Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	mr := miniredis.RunT(t)
	rc := cache.DefaultConfig()
	rc.Addr = mr.Addr()
	rc.HealthCheckInterval = 0
	s, err = Open(Config{Type: TypeRedis, Redis: rc}, nil)
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)
	assert.NoError(t, s.Close())

	_, err = Open(Config{Type: "s3"}, nil)
	assert.Error(t, err)

	_, err = Open(Config{Type: TypeFile}, nil)
	assert.Error(t, err)
}
