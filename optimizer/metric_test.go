package optimizer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/promptflow/types"
)

func TestExactMatch(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		fields   []string
		output   types.Record
		expected types.Record
		want     float64
	}{
		{"unlabeled passes", nil, types.Record{"y": "x"}, nil, 1},
		{"case and space insensitive", nil, types.Record{"y": " Paris "}, types.Record{"y": "paris"}, 1},
		{"numbers across types", nil, types.Record{"n": 3.0}, types.Record{"n": 3}, 1},
		{"decoded json number", nil, types.Record{"n": json.Number("3")}, types.Record{"n": 3}, 1},
		{"partial", nil, types.Record{"a": "1", "b": "x"}, types.Record{"a": "1", "b": "2"}, 0.5},
		{"selected fields", []string{"a"}, types.Record{"a": "1", "b": "x"}, types.Record{"a": "1", "b": "2"}, 1},
		{"missing output field", nil, types.Record{}, types.Record{"a": "1"}, 0},
		{"nested values", nil, types.Record{"o": map[string]any{"k": []any{"v"}}}, types.Record{"o": map[string]any{"k": []any{"v"}}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExactMatch(tt.fields...)(ctx, nil, tt.output, tt.expected)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestFieldsPresent(t *testing.T) {
	ctx := context.Background()
	m := FieldsPresent("a", "b", "c", "d")

	got, err := m(ctx, nil, types.Record{"a": "x", "b": "  ", "c": nil, "e": 1}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, got, 1e-9)

	_, err = FieldsPresent()(ctx, nil, types.Record{}, nil)
	assert.Error(t, err)
}

func TestStringSimilarity(t *testing.T) {
	ctx := context.Background()
	m := StringSimilarity("y")

	got, err := m(ctx, nil, types.Record{"y": "Kitten"}, types.Record{"y": "kitten"})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-9)

	got, err = m(ctx, nil, types.Record{"y": "sitting"}, types.Record{"y": "kitten"})
	require.NoError(t, err)
	assert.InDelta(t, 1-3.0/7.0, got, 1e-9)

	got, err = m(ctx, nil, types.Record{}, types.Record{"y": "kitten"})
	require.NoError(t, err)
	assert.Zero(t, got)

	got, err = m(ctx, nil, types.Record{"y": "a"}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-9)

	_, err = m(ctx, nil, types.Record{"y": "a"}, types.Record{"y": 1})
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.NoError(t, Config{}.Validate())

	err := Config{MaxLabeledDemos: -1, MaxBootstrappedDemos: -2}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_labeled_demos")
	assert.Contains(t, err.Error(), "max_bootstrapped_demos")
}

func TestMetricByName(t *testing.T) {
	ctx := context.Background()

	m, err := MetricByName(MetricExactMatch)
	require.NoError(t, err)
	score, err := m(ctx, nil, types.Record{"y": "A"}, types.Record{"y": "a"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	m, err = MetricByName(MetricFieldsPresent, "y", "z")
	require.NoError(t, err)
	score, err = m(ctx, nil, types.Record{"y": "v"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.5, score)

	m, err = MetricByName(MetricStringSimilarity, "y")
	require.NoError(t, err)
	score, err = m(ctx, nil, types.Record{"y": "abc"}, types.Record{"y": "abc"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	for _, tc := range []struct {
		name   string
		fields []string
	}{
		{MetricFieldsPresent, nil},
		{MetricStringSimilarity, nil},
		{MetricStringSimilarity, []string{"a", "b"}},
		{"bleu", nil},
	} {
		_, err := MetricByName(tc.name, tc.fields...)
		assert.True(t, types.IsErrorCode(err, types.ErrInvalidConfig), "%s %v", tc.name, tc.fields)
	}
}
