package optimizer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/BaSui01/promptflow/module"
	"github.com/BaSui01/promptflow/types"
)

// Stage 样例处理阶段
type Stage string

const (
	StageGenerate Stage = "generate"
	StageScore    Stage = "score"
)

// Outcome is the per-example result of a bootstrap attempt.
type Outcome struct {
	Index    int          `json:"index"`
	Input    types.Record `json:"input"`
	Output   types.Record `json:"output,omitempty"`
	Score    float64      `json:"score"`
	Accepted bool         `json:"accepted"`
	Stage    Stage        `json:"stage,omitempty"`

	Err          error  `json:"-"`
	ErrorMessage string `json:"error,omitempty"`
}

// Skipped reports whether the example failed during generation or scoring.
func (o Outcome) Skipped() bool { return o.Err != nil }

// Report describes one compile call.
type Report struct {
	Module       string          `json:"module"`
	Labeled      []Demonstration `json:"labeled"`
	Bootstrapped []Demonstration `json:"bootstrapped"`
	Outcomes     []Outcome       `json:"outcomes"`
	Duration     time.Duration   `json:"duration"`
}

// Demonstrations returns labeled demonstrations followed by bootstrapped ones.
func (r *Report) Demonstrations() []Demonstration {
	out := make([]Demonstration, 0, len(r.Labeled)+len(r.Bootstrapped))
	out = append(out, r.Labeled...)
	return append(out, r.Bootstrapped...)
}

// Skipped counts examples that failed during generation or scoring.
func (r *Report) Skipped() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Skipped() {
			n++
		}
	}
	return n
}

// Recorder receives bootstrap metrics.
type Recorder interface {
	RecordBootstrap(module string, labeled, bootstrapped, skipped int, duration time.Duration)
}

// Option configures a Bootstrapper.
type Option func(*Bootstrapper)

// WithConfig sets the bootstrap configuration.
func WithConfig(cfg Config) Option {
	return func(b *Bootstrapper) { b.cfg = cfg }
}

// WithClock sets the clock used for report durations.
func WithClock(clock clockwork.Clock) Option {
	return func(b *Bootstrapper) {
		if clock != nil {
			b.clock = clock
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(b *Bootstrapper) { b.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bootstrapper) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Bootstrapper compiles modules with self-generated demonstrations.
// Its configuration is fixed at construction.
type Bootstrapper struct {
	cfg      Config
	metric   Metric
	clock    clockwork.Clock
	recorder Recorder
	logger   *zap.Logger
}

// NewBootstrapper creates a Bootstrapper scoring candidates with metric.
func NewBootstrapper(metric Metric, opts ...Option) (*Bootstrapper, error) {
	b := &Bootstrapper{
		cfg:    DefaultConfig(),
		metric: metric,
		clock:  clockwork.NewRealClock(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if metric == nil {
		return nil, types.NewError(types.ErrInvalidConfig, "metric is required")
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, types.NewError(types.ErrInvalidConfig, "invalid bootstrap config").WithCause(err)
	}
	b.logger = b.logger.With(zap.String("component", "bootstrapper"))
	return b, nil
}

// Config returns the bootstrap configuration.
func (b *Bootstrapper) Config() Config { return b.cfg }

// Compiled is the result of Compile.
type Compiled struct {
	Module   *module.Module
	Template *PromptTemplate // nil 表示示例集合为空，沿用基础 prompt
	Report   *Report
	config   Config
}

// Compile produces a new module whose prompt carries the accepted
// demonstrations. Per-example failures are recorded in the report and
// never fail the call; an empty demonstration set keeps the base prompt.
func (b *Bootstrapper) Compile(ctx context.Context, base *module.Module, trainset []Example) (*Compiled, error) {
	if base == nil {
		return nil, types.NewError(types.ErrInvalidConfig, "base module is required")
	}
	start := b.clock.Now()
	logger := b.logger.With(zap.String("module", base.Name()))
	report := &Report{Module: base.Name()}

	labeled, unlabeled := split(trainset)

	for _, ex := range labeled {
		if len(report.Labeled) >= b.cfg.MaxLabeledDemos {
			break
		}
		report.Labeled = append(report.Labeled, Demonstration{
			Input:  ex.Input.Clone(),
			Output: ex.Output.Clone(),
		})
	}

	limit := min(b.cfg.MaxBootstrappedDemos, len(unlabeled))
	for _, ex := range unlabeled[:limit] {
		outcome := b.bootstrapOne(ctx, base, ex)
		if outcome.Skipped() {
			logger.Warn("bootstrap example skipped",
				zap.Int("index", outcome.Index),
				zap.String("stage", string(outcome.Stage)),
				zap.Error(outcome.Err))
		} else if outcome.Accepted {
			report.Bootstrapped = append(report.Bootstrapped, Demonstration{
				Input:  outcome.Input.Clone(),
				Output: outcome.Output.Clone(),
			})
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	compiled := &Compiled{Module: base, Report: report, config: b.cfg}
	if demos := report.Demonstrations(); len(demos) > 0 {
		compiled.Template = NewPromptTemplate(base.Contract(), demos)
		compiled.Module = base.WithPrompt(compiled.Template)
	} else {
		compiled.Module = base.WithPrompt(base.PromptBuilder())
	}

	report.Duration = b.clock.Since(start)
	if b.recorder != nil {
		b.recorder.RecordBootstrap(base.Name(), len(report.Labeled), len(report.Bootstrapped), report.Skipped(), report.Duration)
	}
	logger.Info("bootstrap completed",
		zap.Int("labeled", len(report.Labeled)),
		zap.Int("bootstrapped", len(report.Bootstrapped)),
		zap.Int("skipped", report.Skipped()),
		zap.Duration("duration", report.Duration))
	return compiled, nil
}

// bootstrapOne runs the base module on one unlabeled example and scores the
// candidate. It never returns an error; failures land on the Outcome.
func (b *Bootstrapper) bootstrapOne(ctx context.Context, base *module.Module, ex indexedExample) Outcome {
	outcome := Outcome{Index: ex.index, Input: ex.Input.Clone()}

	output, err := base.Run(ctx, ex.Input.Clone())
	if err != nil {
		outcome.Stage = StageGenerate
		outcome.Err = err
		outcome.ErrorMessage = err.Error()
		return outcome
	}
	outcome.Output = output

	score, err := b.score(ctx, ex.Input.Clone(), output.Clone(), ex.Output.Clone())
	if err != nil {
		outcome.Stage = StageScore
		outcome.Err = err
		outcome.ErrorMessage = err.Error()
		return outcome
	}
	outcome.Score = score
	outcome.Accepted = score >= b.cfg.MinScore
	return outcome
}

// score calls the metric, turning panics and non-finite scores into errors.
func (b *Bootstrapper) score(ctx context.Context, input, output, expected types.Record) (score float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("metric panicked: %v", r)
		}
	}()
	score, err = b.metric(ctx, input, output, expected)
	if err != nil {
		return 0, fmt.Errorf("metric failed: %w", err)
	}
	if math.IsNaN(score) {
		return 0, fmt.Errorf("metric returned NaN")
	}
	return score, nil
}
