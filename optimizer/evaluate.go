package optimizer

import (
	"context"
	"math"

	"github.com/BaSui01/promptflow/module"
	"github.com/BaSui01/promptflow/types"
)

// Evaluation is the result of Evaluate.
type Evaluation struct {
	Average  float64   `json:"average"`
	Outcomes []Outcome `json:"outcomes"`
}

// Failed counts examples that could not be scored.
func (e *Evaluation) Failed() int {
	n := 0
	for _, o := range e.Outcomes {
		if o.Skipped() {
			n++
		}
	}
	return n
}

// Evaluate runs m over devset and averages the metric scores. Examples that
// fail to generate or score count as 0 and keep their error on the Outcome.
// Every scored example is marked Accepted.
func Evaluate(ctx context.Context, m *module.Module, devset []Example, metric Metric) (*Evaluation, error) {
	if m == nil || metric == nil {
		return nil, types.NewError(types.ErrInvalidConfig, "module and metric are required")
	}
	b := &Bootstrapper{metric: metric, cfg: Config{MinScore: math.Inf(-1)}}
	eval := &Evaluation{Outcomes: make([]Outcome, 0, len(devset))}
	total := 0.0
	for i, ex := range devset {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		o := b.bootstrapOne(ctx, m, indexedExample{index: i, Example: ex})
		total += o.Score
		eval.Outcomes = append(eval.Outcomes, o)
	}
	if len(devset) > 0 {
		eval.Average = total / float64(len(devset))
	}
	return eval, nil
}
