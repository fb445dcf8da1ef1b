package module

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/promptflow/contract"
	"github.com/BaSui01/promptflow/llm"
	"github.com/BaSui01/promptflow/types"
)

const instrumentationName = "github.com/BaSui01/promptflow/module"

// Module is a named, contract-bound execution unit. It is immutable after
// construction; WithPrompt derives a new Module.
type Module struct {
	name     string
	contract contract.Contract
	prompt   PromptBuilder
	strategy Strategy
	runtime  *llm.Runtime
	genOpts  llm.GenerateOptions
	clock    clockwork.Clock
	tracer   trace.Tracer
	logger   *zap.Logger
}

// Option configures a Module.
type Option func(*Module)

// WithStrategy sets the execution strategy tag. Defaults to Predict.
func WithStrategy(s Strategy) Option {
	return func(m *Module) { m.strategy = s }
}

// WithGenerateOptions sets per-module generation options; unset fields
// fall back to the runtime defaults.
func WithGenerateOptions(opts llm.GenerateOptions) Option {
	return func(m *Module) { m.genOpts = opts }
}

// WithLogger sets the module logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Module) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock sets the clock used to time generation calls.
func WithClock(clock clockwork.Clock) Option {
	return func(m *Module) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// New creates a Module. Reserved strategy tags are accepted here and fail
// at Run time.
func New(rt *llm.Runtime, name string, c contract.Contract, prompt PromptBuilder, opts ...Option) (*Module, error) {
	if rt == nil {
		return nil, types.NewError(types.ErrInvalidConfig, "runtime is required").WithModule(name)
	}
	if name == "" {
		return nil, types.NewError(types.ErrInvalidConfig, "module name is required")
	}
	if prompt == nil {
		return nil, types.NewError(types.ErrInvalidConfig, "prompt builder is required").WithModule(name)
	}

	m := &Module{
		name:     name,
		contract: c,
		prompt:   prompt,
		strategy: Predict,
		runtime:  rt,
		clock:    clockwork.NewRealClock(),
		tracer:   otel.Tracer(instrumentationName),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(zap.String("component", "module"), zap.String("module", name))
	return m, nil
}

// MustNew is New that panics on error.
func MustNew(rt *llm.Runtime, name string, c contract.Contract, prompt PromptBuilder, opts ...Option) *Module {
	m, err := New(rt, name, c, prompt, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// Name returns the module name.
func (m *Module) Name() string { return m.name }

// Contract returns the module contract.
func (m *Module) Contract() contract.Contract { return m.contract }

// Strategy returns the strategy tag.
func (m *Module) Strategy() Strategy { return m.strategy }

// PromptBuilder returns the prompt builder.
func (m *Module) PromptBuilder() PromptBuilder { return m.prompt }

// GenerateOptions returns the per-module generation options.
func (m *Module) GenerateOptions() llm.GenerateOptions { return m.genOpts }

// Runtime returns the runtime the module generates through.
func (m *Module) Runtime() *llm.Runtime { return m.runtime }

// WithPrompt returns a copy of m using prompt. Name, contract, strategy
// and runtime are unchanged.
func (m *Module) WithPrompt(prompt PromptBuilder) *Module {
	clone := *m
	clone.prompt = prompt
	return &clone
}

// Prompt validates input and renders the prompt without calling the
// backend.
func (m *Module) Prompt(input types.Record) (string, error) {
	if err := contract.ValidateInput(m.contract, input); err != nil {
		return "", m.fail(types.ErrContractViolation, "input validation failed", err)
	}
	text, err := m.prompt.Build(input)
	if err != nil {
		return "", m.fail(types.ErrInvalidConfig, "prompt construction failed", err)
	}
	return text, nil
}

// Run executes the module against input.
func (m *Module) Run(ctx context.Context, input types.Record) (types.Record, error) {
	ctx, span := m.tracer.Start(ctx, "module.run", trace.WithAttributes(
		attribute.String("module.name", m.name),
		attribute.String("module.strategy", string(m.strategy)),
	))
	defer span.End()

	out, err := m.run(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.logger.Debug("module run failed", zap.String("code", string(types.GetErrorCode(err))), zap.Error(err))
		return nil, err
	}
	return out, nil
}

func (m *Module) run(ctx context.Context, input types.Record) (types.Record, error) {
	if !m.strategy.Implemented() {
		return nil, m.fail(types.ErrUnimplementedStrategy,
			fmt.Sprintf("strategy %q is not implemented", m.strategy), nil)
	}

	prompt, err := m.Prompt(input)
	if err != nil {
		return nil, err
	}

	backend, err := m.runtime.Backend()
	if err != nil {
		return nil, m.fail(types.ErrBackend, "backend unavailable", err)
	}

	opts := m.genOpts.Merge(m.runtime.DefaultOptions())
	start := m.clock.Now()
	text, err := backend.Generate(ctx, prompt, &opts)
	if err != nil {
		return nil, m.fail(types.ErrBackend, "generation failed", err).WithRetryable(!errors.Is(err, context.Canceled))
	}
	m.logger.Debug("generation completed",
		zap.String("backend", backend.Name()),
		zap.Duration("duration", m.clock.Since(start)))

	output, err := ParseOutput(m.contract, text)
	if err != nil {
		return nil, m.fail(types.ErrParse, "response could not be parsed", err)
	}
	if err := contract.ValidateOutput(m.contract, output); err != nil {
		return nil, m.fail(types.ErrContractViolation, "output validation failed", err)
	}
	return output, nil
}

func (m *Module) fail(code types.ErrorCode, msg string, cause error) *types.Error {
	e := types.NewError(code, msg).WithModule(m.name)
	if cause != nil {
		e = e.WithCause(cause)
	}
	return e
}
