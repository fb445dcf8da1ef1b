package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/promptflow/types"
)

type lifecycleBackend struct {
	EchoBackend
	inits    int
	cleanups int
}

func (b *lifecycleBackend) Init(context.Context) error    { b.inits++; return nil }
func (b *lifecycleBackend) Cleanup(context.Context) error { b.cleanups++; return nil }

func TestRuntime_BackendNotConfigured(t *testing.T) {
	rt := NewRuntime()

	_, err := rt.Backend()
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrBackendNotConfigured))

	assert.Error(t, rt.Init(context.Background()))
	assert.Error(t, rt.Cleanup(context.Background()))
}

func TestRuntime_ConfigureSwapsBackend(t *testing.T) {
	rt := NewRuntime(WithBackend(EchoBackend{}))
	b, err := rt.Backend()
	require.NoError(t, err)
	assert.Equal(t, "echo", b.Name())

	rt.Configure(BackendFunc(func(context.Context, string, *GenerateOptions) (string, error) {
		return "fixed", nil
	}))
	b, err = rt.Backend()
	require.NoError(t, err)
	out, err := b.Generate(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, "fixed", out)
}

func TestRuntime_LifecycleThroughDecorators(t *testing.T) {
	inner := &lifecycleBackend{}
	rt := NewRuntime(WithBackend(NewRateLimitedBackend(NewInstrumentedBackend(inner, nil, nil), 100, 1)))

	require.NoError(t, rt.Init(context.Background()))
	require.NoError(t, rt.Cleanup(context.Background()))
	assert.Equal(t, 1, inner.inits)
	assert.Equal(t, 1, inner.cleanups)
}

func TestRuntime_LifecycleOptional(t *testing.T) {
	rt := NewRuntime(WithBackend(EchoBackend{}))
	assert.NoError(t, rt.Init(context.Background()))
	assert.NoError(t, rt.Cleanup(context.Background()))
}

func TestRuntime_ConcurrentConfigureAndRead(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(WithBackend(EchoBackend{}))
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			rt.Configure(EchoBackend{})
		}()
		go func() {
			defer wg.Done()
			_, _ = rt.Backend()
			_ = rt.DefaultOptions()
		}()
	}
	wg.Wait()
}

func TestGenerateOptions_Merge(t *testing.T) {
	defaults := GenerateOptions{MaxTokens: 256, Temperature: 0.2, TopP: 0.9, StopSequences: []string{"\n\n"}}

	got := GenerateOptions{MaxTokens: 64}.Merge(defaults)
	assert.Equal(t, 64, got.MaxTokens)
	assert.Equal(t, 0.2, got.Temperature)
	assert.Equal(t, 0.9, got.TopP)
	assert.Equal(t, []string{"\n\n"}, got.StopSequences)

	got = GenerateOptions{StopSequences: []string{"END"}}.Merge(defaults)
	assert.Equal(t, []string{"END"}, got.StopSequences)
}

func TestEchoBackend_RespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := EchoBackend{}.Generate(ctx, "x", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFactory(t *testing.T) {
	f := NewFactory()
	f.Register("fixed", func(cfg BackendConfig) (Backend, error) {
		return BackendFunc(func(context.Context, string, *GenerateOptions) (string, error) {
			return cfg.Model, nil
		}), nil
	})

	assert.Equal(t, []string{"echo", "fixed"}, f.Names())

	b, err := f.Create(BackendConfig{Name: "fixed", Model: "m1"})
	require.NoError(t, err)
	out, err := b.Generate(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "m1", out)

	_, err = f.Create(BackendConfig{Name: "missing"})
	assert.ErrorContains(t, err, "not registered")
}

func TestFactory_ConcurrentRegisterAndCreate(t *testing.T) {
	t.Parallel()

	f := NewFactory()
	var wg sync.WaitGroup
	for g := 0; g < 20; g++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			f.Register(fmt.Sprintf("b-%d", id), func(BackendConfig) (Backend, error) { return EchoBackend{}, nil })
		}(g)
		go func(id int) {
			defer wg.Done()
			_, _ = f.Create(BackendConfig{Name: fmt.Sprintf("b-%d", id)})
		}(g)
	}
	wg.Wait()
}

type recordingRecorder struct {
	calls  int
	failed int
}

func (r *recordingRecorder) RecordBackendCall(_ string, _ time.Duration, err error) {
	r.calls++
	if err != nil {
		r.failed++
	}
}

func TestInstrumentedBackend_RecordsCalls(t *testing.T) {
	rec := &recordingRecorder{}
	boom := errors.New("boom")
	calls := 0
	b := NewInstrumentedBackend(BackendFunc(func(context.Context, string, *GenerateOptions) (string, error) {
		calls++
		if calls == 1 {
			return "", boom
		}
		return "ok", nil
	}), rec, nil)

	_, err := b.Generate(context.Background(), "p", nil)
	assert.ErrorIs(t, err, boom)
	out, err := b.Generate(context.Background(), "p", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	assert.Equal(t, 2, rec.calls)
	assert.Equal(t, 1, rec.failed)
	assert.Equal(t, "func", b.Name())
}

func TestRateLimitedBackend_ContextCancelled(t *testing.T) {
	b := NewRateLimitedBackend(EchoBackend{}, 0.001, 1)

	out, err := b.Generate(context.Background(), "first", nil)
	require.NoError(t, err)
	assert.Equal(t, "first", out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.Generate(ctx, "second", nil)
	assert.Error(t, err)
}

func TestTimeoutBackend(t *testing.T) {
	blocking := BackendFunc(func(ctx context.Context, _ string, _ *GenerateOptions) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	b := NewTimeoutBackend(blocking, 10*time.Millisecond)
	_, err := b.Generate(context.Background(), "p", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unbounded := NewTimeoutBackend(EchoBackend{}, 0)
	assert.Equal(t, EchoBackend{}, unbounded)
}
