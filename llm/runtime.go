package llm

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/promptflow/types"
)

// Runtime is the explicit context object holding the configured generation
// backend. Modules read the backend at call time, so a Configure call
// affects every module sharing the Runtime.
type Runtime struct {
	mu       sync.RWMutex
	backend  Backend
	defaults GenerateOptions
	logger   *zap.Logger
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithBackend configures the initial backend.
func WithBackend(b Backend) RuntimeOption {
	return func(r *Runtime) { r.backend = b }
}

// WithDefaultOptions sets generation options applied when a module leaves
// a field unset.
func WithDefaultOptions(opts GenerateOptions) RuntimeOption {
	return func(r *Runtime) { r.defaults = opts }
}

// WithRuntimeLogger sets the runtime logger.
func WithRuntimeLogger(logger *zap.Logger) RuntimeOption {
	return func(r *Runtime) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRuntime creates a Runtime.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	r := &Runtime{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("component", "runtime"))
	return r
}

// Configure swaps the generation backend.
func (r *Runtime) Configure(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend = b
	if b != nil {
		r.logger.Info("backend configured", zap.String("backend", b.Name()))
	}
}

// Backend returns the configured backend.
func (r *Runtime) Backend() (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.backend == nil {
		return nil, types.NewError(types.ErrBackendNotConfigured, "no generation backend configured")
	}
	return r.backend, nil
}

// DefaultOptions returns the runtime-wide generation defaults.
func (r *Runtime) DefaultOptions() GenerateOptions {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaults
}

// Init calls the backend's Init hook when it implements Lifecycle.
func (r *Runtime) Init(ctx context.Context) error {
	b, err := r.Backend()
	if err != nil {
		return err
	}
	if lc := lifecycleOf(b); lc != nil {
		return lc.Init(ctx)
	}
	return nil
}

// Cleanup calls the backend's Cleanup hook when it implements Lifecycle.
func (r *Runtime) Cleanup(ctx context.Context) error {
	b, err := r.Backend()
	if err != nil {
		return err
	}
	if lc := lifecycleOf(b); lc != nil {
		return lc.Cleanup(ctx)
	}
	return nil
}

// lifecycleOf walks decorator chains (Unwrap() Backend) and returns the
// first Lifecycle found.
func lifecycleOf(b Backend) Lifecycle {
	for b != nil {
		if lc, ok := b.(Lifecycle); ok {
			return lc
		}
		u, ok := b.(interface{ Unwrap() Backend })
		if !ok {
			return nil
		}
		b = u.Unwrap()
	}
	return nil
}
