package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/promptflow/types"
)

// EventType 调试事件类型
type EventType string

const (
	EventRunStart   EventType = "run_start"
	EventStepInput  EventType = "step_input"  // pre-input
	EventStepOutput EventType = "step_output" // post-output
	EventRetry      EventType = "retry"
	EventStepError  EventType = "step_error"
	EventRunEnd     EventType = "run_end"
)

// Event is a debug trace event. Record is a snapshot owned by the event.
type Event struct {
	Type      EventType     `json:"type"`
	RunID     string        `json:"run_id"`
	Pipeline  string        `json:"pipeline"`
	StepIndex int           `json:"step_index"`
	Module    string        `json:"module,omitempty"`
	Attempt   int           `json:"attempt,omitempty"`
	Delay     time.Duration `json:"delay,omitempty"`
	Record    types.Record  `json:"record,omitempty"`
	Err       error         `json:"-"`
	Time      time.Time     `json:"time"`
}

// Observer receives debug trace events. Implementations must not block for
// long; they run inline with the pipeline.
type Observer interface {
	OnEvent(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function into an Observer.
type ObserverFunc func(ctx context.Context, ev Event)

// OnEvent implements Observer.
func (f ObserverFunc) OnEvent(ctx context.Context, ev Event) { f(ctx, ev) }

// LogObserver writes events to a zap logger at Debug level.
type LogObserver struct {
	logger *zap.Logger
}

// NewLogObserver creates a LogObserver.
func NewLogObserver(logger *zap.Logger) *LogObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogObserver{logger: logger}
}

// OnEvent implements Observer.
func (o *LogObserver) OnEvent(_ context.Context, ev Event) {
	fields := []zap.Field{
		zap.String("event", string(ev.Type)),
		zap.String("run_id", ev.RunID),
		zap.String("pipeline", ev.Pipeline),
	}
	if ev.Type != EventRunStart && ev.Type != EventRunEnd {
		fields = append(fields, zap.Int("step", ev.StepIndex), zap.String("module", ev.Module))
	}
	if ev.Attempt > 0 {
		fields = append(fields, zap.Int("attempt", ev.Attempt))
	}
	if ev.Delay > 0 {
		fields = append(fields, zap.Duration("delay", ev.Delay))
	}
	if ev.Record != nil {
		fields = append(fields, zap.Any("record", map[string]any(ev.Record)))
	}
	if ev.Err != nil {
		fields = append(fields, zap.Error(ev.Err))
	}
	o.logger.Debug("pipeline trace", fields...)
}

// Recorder receives metrics observations.
type Recorder interface {
	RecordStep(pipeline, module string, duration time.Duration, attempts int, err error)
	RecordRetry(pipeline, module string)
	RecordRun(pipeline string, duration time.Duration, success bool)
}
