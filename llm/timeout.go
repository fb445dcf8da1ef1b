package llm

import (
	"context"
	"time"
)

// TimeoutBackend 为每次 Generate 附加超时。超时以 context.DeadlineExceeded
// 形式返回，由 Module 包装为 BACKEND_ERROR。
type TimeoutBackend struct {
	next    Backend
	timeout time.Duration
}

// NewTimeoutBackend wraps next so that each call is bounded by timeout.
// A non-positive timeout returns next unchanged.
func NewTimeoutBackend(next Backend, timeout time.Duration) Backend {
	if timeout <= 0 {
		return next
	}
	return &TimeoutBackend{next: next, timeout: timeout}
}

// Name implements Backend.
func (b *TimeoutBackend) Name() string { return b.next.Name() }

// Generate implements Backend.
func (b *TimeoutBackend) Generate(ctx context.Context, prompt string, opts *GenerateOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.next.Generate(ctx, prompt, opts)
}

// Unwrap returns the decorated backend.
func (b *TimeoutBackend) Unwrap() Backend { return b.next }
