package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/promptflow/internal/retry"
	"github.com/BaSui01/promptflow/types"
)

const instrumentationName = "github.com/BaSui01/promptflow/pipeline"

// Step is one unit of a pipeline. *module.Module satisfies it.
type Step interface {
	Name() string
	Run(ctx context.Context, input types.Record) (types.Record, error)
}

// StepFunc 函数步骤
type StepFunc struct {
	name string
	fn   func(ctx context.Context, input types.Record) (types.Record, error)
}

// NewStepFunc wraps fn as a named Step.
func NewStepFunc(name string, fn func(ctx context.Context, input types.Record) (types.Record, error)) *StepFunc {
	return &StepFunc{name: name, fn: fn}
}

// Name implements Step.
func (s *StepFunc) Name() string { return s.name }

// Run implements Step.
func (s *StepFunc) Run(ctx context.Context, input types.Record) (types.Record, error) {
	return s.fn(ctx, input)
}

// Pipeline runs steps strictly in order. It is immutable after New and safe
// for concurrent Run calls as long as its steps are.
type Pipeline struct {
	name       string
	steps      []Step
	opts       Options
	newBackOff func() backoff.BackOff
	clock      clockwork.Clock
	observer   Observer
	recorder   Recorder
	history    *HistoryStore
	tracer     trace.Tracer
	logger     *zap.Logger
}

// New creates a Pipeline over steps.
func New(steps []Step, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		name:   "pipeline",
		opts:   DefaultOptions(),
		clock:  clockwork.NewRealClock(),
		tracer: otel.Tracer(instrumentationName),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.opts.Validate(); err != nil {
		return nil, types.NewError(types.ErrInvalidConfig, "invalid pipeline options").WithCause(err)
	}
	for i, s := range steps {
		if s == nil {
			return nil, types.NewError(types.ErrInvalidConfig, fmt.Sprintf("step %d is nil", i))
		}
	}
	p.steps = append([]Step(nil), steps...)
	p.logger = p.logger.With(zap.String("component", "pipeline"), zap.String("pipeline", p.name))
	if p.opts.Debug && p.observer == nil {
		p.observer = NewLogObserver(p.logger)
	}
	if p.newBackOff == nil {
		delay := p.opts.RetryDelay
		p.newBackOff = func() backoff.BackOff { return backoff.NewConstantBackOff(delay) }
	}
	return p, nil
}

// MustNew is New that panics on error.
func MustNew(steps []Step, opts ...Option) *Pipeline {
	p, err := New(steps, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string { return p.name }

// Options returns the pipeline policy.
func (p *Pipeline) Options() Options { return p.opts }

// Steps returns the step names in order.
func (p *Pipeline) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name()
	}
	return names
}

// Run executes the pipeline against input.
//
// The returned Result is never nil. Under StopOnError the first failed step
// ends the run, its error is returned and also stored in Result.Error.
// Otherwise Run never returns an error and failures live on the step
// records.
func (p *Pipeline) Run(ctx context.Context, input types.Record) (*Result, error) {
	runID := uuid.NewString()
	ctx = types.WithRunID(ctx, runID)
	ctx, span := p.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("pipeline.name", p.name),
		attribute.String("pipeline.run_id", runID),
		attribute.Int("pipeline.steps", len(p.steps)),
	))
	defer span.End()

	start := p.clock.Now()
	result := &Result{
		RunID:     runID,
		Pipeline:  p.name,
		Steps:     make([]StepResult, 0, len(p.steps)),
		StartedAt: start,
	}
	p.emit(ctx, Event{Type: EventRunStart, RunID: runID, Pipeline: p.name, Record: input.Clone()})

	current := input.Clone()
	success := true
	for i, step := range p.steps {
		sr := p.runStep(types.WithStepIndex(ctx, i), runID, i, step, current)
		result.Steps = append(result.Steps, sr)

		if !sr.Failed() {
			current = sr.Output.Clone()
			continue
		}
		success = false
		if p.opts.StopOnError {
			result.Error = sr.Error
			result.ErrorMessage = sr.ErrorMessage
			current = nil
			break
		}
		// 继续模式：原始输入原样传给下一步
	}

	result.FinalOutput = current
	result.Success = success
	result.FinishedAt = p.clock.Now()
	result.Duration = result.FinishedAt.Sub(start)

	p.emit(ctx, Event{Type: EventRunEnd, RunID: runID, Pipeline: p.name, Record: current.Clone(), Err: result.Error})
	if p.recorder != nil {
		p.recorder.RecordRun(p.name, result.Duration, result.Success)
	}
	if p.history != nil {
		p.history.Save(result)
	}

	if result.Error != nil {
		span.RecordError(result.Error)
		span.SetStatus(codes.Error, result.ErrorMessage)
		p.logger.Warn("pipeline aborted",
			zap.String("run_id", runID),
			zap.Int("executed_steps", len(result.Steps)),
			zap.Error(result.Error))
		return result, result.Error
	}
	span.SetAttributes(attribute.Bool("pipeline.success", result.Success))
	p.logger.Debug("pipeline finished",
		zap.String("run_id", runID),
		zap.Bool("success", result.Success),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// runStep runs one step with retries and builds its record. input is the
// step's original input and is never handed to the step directly.
func (p *Pipeline) runStep(ctx context.Context, runID string, index int, step Step, input types.Record) StepResult {
	name := step.Name()
	ctx, span := p.tracer.Start(ctx, "pipeline.step", trace.WithAttributes(
		attribute.String("pipeline.step.module", name),
		attribute.Int("pipeline.step.index", index),
	))
	defer span.End()

	base := Event{RunID: runID, Pipeline: p.name, StepIndex: index, Module: name}
	p.emitWith(ctx, base, func(ev *Event) {
		ev.Type = EventStepInput
		ev.Record = input.Clone()
	})

	policy := retry.Policy{
		MaxRetries: p.opts.MaxRetries,
		BackOff:    p.newBackOff(),
		Clock:      p.clock,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			if p.recorder != nil {
				p.recorder.RecordRetry(p.name, name)
			}
			p.emitWith(ctx, base, func(ev *Event) {
				ev.Type = EventRetry
				ev.Attempt = attempt
				ev.Delay = delay
				ev.Err = err
			})
		},
	}

	start := p.clock.Now()
	out := retry.Do(ctx, policy, p.logger.With(zap.String("module", name)),
		func(ctx context.Context, _ int) (types.Record, error) {
			// 每次尝试都拿到独立副本，步骤内部的修改不会污染原始输入
			return step.Run(ctx, input.Clone())
		})

	sr := StepResult{
		Index:    index,
		Module:   name,
		Input:    input.Clone(),
		Attempts: out.Attempts,
		Duration: p.clock.Since(start),
	}

	if out.Err != nil {
		sr.Error = out.Err
		sr.ErrorMessage = out.Err.Error()
		if !p.opts.StopOnError {
			sr.Output = input.Clone()
		}
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, sr.ErrorMessage)
		p.emitWith(ctx, base, func(ev *Event) {
			ev.Type = EventStepError
			ev.Attempt = out.Attempts
			ev.Err = out.Err
		})
		p.logger.Debug("step failed",
			zap.Int("step", index),
			zap.String("module", name),
			zap.Int("attempts", out.Attempts),
			zap.Error(out.Err))
	} else {
		sr.Output = out.Value.Clone()
		p.emitWith(ctx, base, func(ev *Event) {
			ev.Type = EventStepOutput
			ev.Attempt = out.Attempts
			ev.Record = out.Value.Clone()
		})
	}

	if p.recorder != nil {
		p.recorder.RecordStep(p.name, name, sr.Duration, sr.Attempts, sr.Error)
	}
	return sr
}

func (p *Pipeline) emit(ctx context.Context, ev Event) {
	if !p.opts.Debug || p.observer == nil {
		return
	}
	ev.Time = p.clock.Now()
	p.observer.OnEvent(ctx, ev)
}

// emitWith builds the event lazily so snapshots are only taken in debug mode.
func (p *Pipeline) emitWith(ctx context.Context, base Event, fill func(*Event)) {
	if !p.opts.Debug || p.observer == nil {
		return
	}
	ev := base
	fill(&ev)
	p.emit(ctx, ev)
}
