package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/BaSui01/promptflow/llm"

// Recorder receives one observation per backend call.
type Recorder interface {
	RecordBackendCall(backend string, duration time.Duration, err error)
}

// InstrumentedBackend 为后端调用附加 Span、指标和 debug 日志。
type InstrumentedBackend struct {
	next     Backend
	recorder Recorder
	tracer   trace.Tracer
	logger   *zap.Logger
}

// NewInstrumentedBackend wraps next. recorder and logger may be nil.
func NewInstrumentedBackend(next Backend, recorder Recorder, logger *zap.Logger) *InstrumentedBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedBackend{
		next:     next,
		recorder: recorder,
		tracer:   otel.Tracer(instrumentationName),
		logger:   logger.With(zap.String("component", "backend"), zap.String("backend", next.Name())),
	}
}

// Name implements Backend.
func (b *InstrumentedBackend) Name() string { return b.next.Name() }

// Generate implements Backend.
func (b *InstrumentedBackend) Generate(ctx context.Context, prompt string, opts *GenerateOptions) (string, error) {
	ctx, span := b.tracer.Start(ctx, "llm.generate",
		trace.WithAttributes(
			attribute.String("llm.backend", b.next.Name()),
			attribute.Int("llm.prompt_length", len(prompt)),
		))
	defer span.End()

	start := time.Now()
	text, err := b.next.Generate(ctx, prompt, opts)
	elapsed := time.Since(start)

	if b.recorder != nil {
		b.recorder.RecordBackendCall(b.next.Name(), elapsed, err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.logger.Debug("generate failed", zap.Duration("duration", elapsed), zap.Error(err))
		return "", err
	}
	span.SetAttributes(attribute.Int("llm.response_length", len(text)))
	b.logger.Debug("generate completed",
		zap.Duration("duration", elapsed),
		zap.Int("prompt_length", len(prompt)),
		zap.Int("response_length", len(text)))
	return text, nil
}

// Unwrap returns the decorated backend.
func (b *InstrumentedBackend) Unwrap() Backend { return b.next }
