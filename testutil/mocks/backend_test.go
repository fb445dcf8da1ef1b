package mocks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/promptflow/llm"
)

func TestMockBackend_ScriptAndFailFirst(t *testing.T) {
	b := NewMockBackend().WithFailFirst(2).WithScript("a", "b").WithResponse("z")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := b.Generate(ctx, "p", nil)
		assert.ErrorIs(t, err, ErrMockBackend)
	}
	for _, want := range []string{"a", "b", "z"} {
		got, err := b.Generate(ctx, "p", nil)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 5, b.CallCount())
}

func TestMockBackend_GenerateFunc(t *testing.T) {
	boom := errors.New("boom")
	b := NewMockBackend().WithGenerateFunc(func(_ context.Context, prompt string) (string, error) {
		if prompt == "bad" {
			return "", boom
		}
		return prompt + "!", nil
	})

	got, err := b.Generate(context.Background(), "ok", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok!", got)
	_, err = b.Generate(context.Background(), "bad", nil)
	assert.ErrorIs(t, err, boom)

	calls := b.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "ok!", calls[0].Response)
	assert.ErrorIs(t, calls[1].Error, boom)
	assert.Equal(t, []string{"ok", "bad"}, b.Prompts())
}

func TestMockProvider_ThroughBackendAdapter(t *testing.T) {
	p := NewMockProvider().WithResponse("hi").WithFailAfter(1)
	b := llm.FromProvider(p, "mock-model", "")

	out, err := b.Generate(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", out)

	_, err = b.Generate(context.Background(), "x", nil)
	assert.Error(t, err)
	assert.Equal(t, 2, p.CallCount())
}
