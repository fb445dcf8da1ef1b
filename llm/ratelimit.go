package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedBackend 令牌桶限流装饰器。Generate 在拿到令牌前阻塞，
// ctx 取消时返回 ctx 的错误。
type RateLimitedBackend struct {
	next    Backend
	limiter *rate.Limiter
}

// NewRateLimitedBackend wraps next with a limiter allowing rps requests per
// second with the given burst. A non-positive burst is treated as 1.
func NewRateLimitedBackend(next Backend, rps float64, burst int) *RateLimitedBackend {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedBackend{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Name implements Backend.
func (b *RateLimitedBackend) Name() string { return b.next.Name() }

// Generate implements Backend.
func (b *RateLimitedBackend) Generate(ctx context.Context, prompt string, opts *GenerateOptions) (string, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return b.next.Generate(ctx, prompt, opts)
}

// Unwrap returns the decorated backend.
func (b *RateLimitedBackend) Unwrap() Backend { return b.next }
