package pipeline

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// DefaultRetryDelay is the wait between attempts when none is configured.
const DefaultRetryDelay = time.Second

// Options are the recognised pipeline policy settings.
type Options struct {
	StopOnError bool          `json:"stop_on_error" yaml:"stop_on_error"`
	MaxRetries  int           `json:"max_retries" yaml:"max_retries"`
	RetryDelay  time.Duration `json:"retry_delay" yaml:"retry_delay"`
	Debug       bool          `json:"debug" yaml:"debug"`
}

// DefaultOptions returns StopOnError=true, MaxRetries=0, RetryDelay=1s,
// Debug=false.
func DefaultOptions() Options {
	return Options{
		StopOnError: true,
		MaxRetries:  0,
		RetryDelay:  DefaultRetryDelay,
		Debug:       false,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0, got %d", o.MaxRetries)
	}
	if o.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must be >= 0, got %s", o.RetryDelay)
	}
	return nil
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithName sets the pipeline name used in results, logs and metrics.
func WithName(name string) Option {
	return func(p *Pipeline) { p.name = name }
}

// WithOptions replaces the whole policy.
func WithOptions(opts Options) Option {
	return func(p *Pipeline) { p.opts = opts }
}

// WithStopOnError sets the stop/continue policy.
func WithStopOnError(stop bool) Option {
	return func(p *Pipeline) { p.opts.StopOnError = stop }
}

// WithMaxRetries sets the number of additional attempts per step.
func WithMaxRetries(n int) Option {
	return func(p *Pipeline) { p.opts.MaxRetries = n }
}

// WithRetryDelay sets the constant delay between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(p *Pipeline) { p.opts.RetryDelay = d }
}

// WithDebug toggles debug trace events.
func WithDebug(debug bool) Option {
	return func(p *Pipeline) { p.opts.Debug = debug }
}

// WithBackOff replaces the constant retry delay with a back-off policy.
// newBackOff is called once per step so state never leaks across steps
// or concurrent runs.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(p *Pipeline) { p.newBackOff = newBackOff }
}

// WithClock sets the clock used for durations and retry waits.
func WithClock(clock clockwork.Clock) Option {
	return func(p *Pipeline) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithObserver sets the debug trace observer.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithHistory stores every finished result in h.
func WithHistory(h *HistoryStore) Option {
	return func(p *Pipeline) { p.history = h }
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}
