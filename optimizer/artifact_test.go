package optimizer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/promptflow/llm"
	"github.com/BaSui01/promptflow/module"
	"github.com/BaSui01/promptflow/testutil/fixtures"
	"github.com/BaSui01/promptflow/store"
	"github.com/BaSui01/promptflow/testutil/mocks"
	"github.com/BaSui01/promptflow/types"
)

var sampleInputs = []types.Record{
	{"x": "q"},
	{"x": "with \"quotes\" and\nnewline"},
	{"x": "n", "extra": map[string]any{"b": 2.5, "a": []any{"z", true}}},
}

func compileForArtifact(t *testing.T) *Compiled {
	t.Helper()
	backend := mocks.NewMockBackend().WithResponse(`{"y":"gen"}`)
	rt := llm.NewRuntime(llm.WithBackend(backend))
	base := module.MustNew(rt, "xy", fixtures.XYContract(), module.FieldPrompt("x"),
		module.WithGenerateOptions(llm.GenerateOptions{MaxTokens: 64, StopSequences: []string{"\n\n"}}))

	b, err := NewBootstrapper(constMetric(1))
	require.NoError(t, err)
	compiled, err := b.Compile(context.Background(), base, []Example{
		{Input: types.Record{"x": "a"}, Output: types.Record{"y": "1"}},
		{Input: types.Record{"x": "b"}},
	})
	require.NoError(t, err)
	require.NotNil(t, compiled.Template)
	return compiled
}

func assertSamePrompts(t *testing.T, want, got *module.Module) {
	t.Helper()
	for _, in := range sampleInputs {
		w, err := want.Prompt(in)
		require.NoError(t, err)
		g, err := got.Prompt(in)
		require.NoError(t, err)
		assert.Equal(t, w, g)
	}
}

func TestArtifact_RoundTripFormats(t *testing.T) {
	compiled := compileForArtifact(t)
	artifact := compiled.Artifact()
	rt := llm.NewRuntime(llm.WithBackend(llm.EchoBackend{}))

	for _, name := range []string{"artifact.json", "artifact.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, artifact.SaveFile(path))

			loaded, err := LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, artifact.Config, loaded.Config)
			assert.Equal(t, len(artifact.Demonstrations()), len(loaded.Demonstrations()))

			m, err := loaded.Module(rt)
			require.NoError(t, err)
			assert.Equal(t, "xy", m.Name())
			assert.Equal(t, fixtures.XYContract(), m.Contract())
			assert.Equal(t, module.Predict, m.Strategy())
			assert.Equal(t, compiled.Module.GenerateOptions(), m.GenerateOptions())
			assertSamePrompts(t, compiled.Module, m)
		})
	}
}

func TestArtifact_StoreRoundTrip(t *testing.T) {
	compiled := compileForArtifact(t)
	s, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, SaveArtifact(ctx, s, "xy/v1", compiled.Artifact()))

	resolve := Resolver(s, llm.NewRuntime())
	m, err := resolve(ctx, "xy/v1")
	require.NoError(t, err)
	assertSamePrompts(t, compiled.Module, m)

	_, err = resolve(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestArtifact_EmptyDemonstrations(t *testing.T) {
	rt := llm.NewRuntime(llm.WithBackend(mocks.NewMockBackend().WithResponse(`{"y":"g"}`)))
	b, err := NewBootstrapper(constMetric(0))
	require.NoError(t, err)

	t.Run("template base prompt is stored", func(t *testing.T) {
		base := module.MustNew(rt, "xy", fixtures.XYContract(), module.MustTemplatePrompt("Echo {{.x}}"))
		compiled, err := b.Compile(context.Background(), base, []Example{{Input: types.Record{"x": "b"}}})
		require.NoError(t, err)

		artifact := compiled.Artifact()
		assert.Equal(t, "Echo {{.x}}", artifact.Program.BasePrompt)
		data, err := artifact.ToJSON()
		require.NoError(t, err)
		loaded, err := ParseArtifact(data)
		require.NoError(t, err)

		m, err := loaded.Module(rt)
		require.NoError(t, err)
		assertSamePrompts(t, compiled.Module, m)
	})

	t.Run("func base prompt must be supplied", func(t *testing.T) {
		base := module.MustNew(rt, "xy", fixtures.XYContract(), module.FieldPrompt("x"))
		compiled, err := b.Compile(context.Background(), base, nil)
		require.NoError(t, err)

		artifact := compiled.Artifact()
		_, err = artifact.Module(rt)
		assert.True(t, types.IsErrorCode(err, types.ErrInvalidArtifact))

		m, err := artifact.Module(rt, WithBasePrompt(module.FieldPrompt("x")))
		require.NoError(t, err)
		assertSamePrompts(t, base, m)
	})
}

func TestParseArtifact_Invalid(t *testing.T) {
	for name, data := range map[string]string{
		"malformed json":  `{"version": 1,`,
		"malformed yaml":  "version: [1",
		"wrong version":   `{"version": 2, "program": {"name": "x"}}`,
		"missing name":    `{"version": 1, "program": {}}`,
		"bad strategy":    `{"version": 1, "program": {"name": "x", "strategy": "Guess"}}`,
		"bad field type":  `{"version": 1, "program": {"name": "x", "contract": {"inputs": [{"name": "a", "type": "date"}]}}}`,
		"bad base prompt": `{"version": 1, "program": {"name": "x", "base_prompt": "{{.x"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			a, err := ParseArtifact([]byte(data))
			if err == nil {
				_, err = a.Module(llm.NewRuntime())
			}
			require.Error(t, err)
		})
	}
}

func TestArtifact_ReservedStrategySurvives(t *testing.T) {
	a := &Artifact{
		Version: ArtifactVersion,
		Program: Program{Name: "x", Strategy: module.ReAct, Contract: fixtures.XYContract(), BasePrompt: "{{.x}}"},
	}
	data, err := a.ToYAML()
	require.NoError(t, err)
	loaded, err := ParseArtifact(data)
	require.NoError(t, err)

	m, err := loaded.Module(llm.NewRuntime(llm.WithBackend(llm.EchoBackend{})))
	require.NoError(t, err)
	_, err = m.Run(context.Background(), types.Record{"x": "1"})
	assert.True(t, types.IsErrorCode(err, types.ErrUnimplementedStrategy))
}

func TestArtifact_JSONKeepsLargeIntegers(t *testing.T) {
	backend := mocks.NewMockBackend().WithResponse(`{"y":"gen"}`)
	rt := llm.NewRuntime(llm.WithBackend(backend))
	base := module.MustNew(rt, "xy", fixtures.XYContract(), module.FieldPrompt("x"))

	b, err := NewBootstrapper(constMetric(1))
	require.NoError(t, err)
	compiled, err := b.Compile(context.Background(), base, []Example{
		{Input: types.Record{"x": "a", "id": int64(1<<53 + 1)}, Output: types.Record{"y": "1"}},
	})
	require.NoError(t, err)
	require.NotNil(t, compiled.Template)

	data, err := compiled.Artifact().ToJSON()
	require.NoError(t, err)
	loaded, err := ParseArtifact(data)
	require.NoError(t, err)
	m, err := loaded.Module(rt)
	require.NoError(t, err)

	want, err := compiled.Module.Prompt(types.Record{"x": "q"})
	require.NoError(t, err)
	assert.Contains(t, want, "9007199254740993")
	assertSamePrompts(t, compiled.Module, m)
}
