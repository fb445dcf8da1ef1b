package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/promptflow/types"
)

var errStep = errors.New("step failed")

// countingStep 在 failing 为 true 时总是失败，否则给 n 加一
type countingStep struct {
	name    string
	failing bool
	calls   int
}

func (s *countingStep) Name() string { return s.name }

func (s *countingStep) Run(_ context.Context, in types.Record) (types.Record, error) {
	s.calls++
	if s.failing {
		return nil, errStep
	}
	n, _ := in["n"].(int)
	return types.Record{"n": n + 1}, nil
}

func drawSteps(t *rapid.T) []*countingStep {
	n := rapid.IntRange(1, 8).Draw(t, "steps")
	steps := make([]*countingStep, n)
	for i := range steps {
		steps[i] = &countingStep{
			name:    fmt.Sprintf("s%d", i),
			failing: rapid.Bool().Draw(t, fmt.Sprintf("fail%d", i)),
		}
	}
	return steps
}

func asSteps(cs []*countingStep) []Step {
	out := make([]Step, len(cs))
	for i, s := range cs {
		out[i] = s
	}
	return out
}

// 停止模式：第 k 步失败后，k+1..n 不执行，记录恰好 k 条。
func TestProperty_StopOnErrorStopsAtFirstFailure(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cs := drawSteps(t)
		retries := rapid.IntRange(0, 3).Draw(t, "retries")
		p := MustNew(asSteps(cs), WithMaxRetries(retries), WithRetryDelay(0))

		result, err := p.Run(context.Background(), types.Record{"n": 0})
		require.NotNil(t, result)

		k := -1
		for i, s := range cs {
			if s.failing {
				k = i + 1
				break
			}
		}
		if k == -1 {
			require.NoError(t, err)
			require.Len(t, result.Steps, len(cs))
			require.Equal(t, types.Record{"n": len(cs)}, result.FinalOutput)
			return
		}

		require.ErrorIs(t, err, errStep)
		require.Len(t, result.Steps, k)
		require.Equal(t, retries+1, cs[k-1].calls)
		for _, s := range cs[k:] {
			require.Zero(t, s.calls, "step %s ran after abort", s.name)
		}
	})
}

// 继续模式：n 个步骤恰好 n 条记录；最终输出等于最后一步的输出或其原始输入。
func TestProperty_ContinueModeRecordsEveryStep(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cs := drawSteps(t)
		p := MustNew(asSteps(cs), WithStopOnError(false), WithRetryDelay(0))

		result, err := p.Run(context.Background(), types.Record{"n": 0})
		require.NoError(t, err)
		require.Len(t, result.Steps, len(cs))

		expected := 0
		for i, s := range cs {
			rec := result.Steps[i]
			require.Equal(t, types.Record{"n": expected}, rec.Input)
			if s.failing {
				require.Error(t, rec.Error)
				require.Equal(t, rec.Input, rec.Output)
				continue
			}
			expected++
			require.NoError(t, rec.Error)
		}

		last := result.Steps[len(result.Steps)-1]
		require.Equal(t, last.Output, result.FinalOutput)
		require.Equal(t, types.Record{"n": expected}, result.FinalOutput)
	})
}

// 重试律：前 f 次失败（f <= r）时步骤成功，且恰好调用 f+1 次。
func TestProperty_RetryLaw(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := rapid.IntRange(0, 5).Draw(t, "max_retries")
		f := rapid.IntRange(0, r).Draw(t, "failures")

		calls := 0
		step := NewStepFunc("flaky", func(_ context.Context, in types.Record) (types.Record, error) {
			calls++
			if calls <= f {
				return nil, errStep
			}
			return types.Record{"ok": true}, nil
		})

		result, err := MustNew([]Step{step}, WithMaxRetries(r), WithRetryDelay(0)).
			Run(context.Background(), types.Record{})
		require.NoError(t, err)
		require.True(t, result.Success)
		require.Equal(t, f+1, calls)
		require.Equal(t, f+1, result.Steps[0].Attempts)
	})
}
