// Package retry 提供带退避策略和可注入时钟的重试循环。
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Policy 定义重试策略配置
type Policy struct {
	MaxRetries int             // 最大重试次数（0 表示不重试）
	BackOff    backoff.BackOff // 两次尝试之间的延迟；nil 表示不等待
	Clock      clockwork.Clock // 等待使用的时钟；nil 表示真实时钟

	// OnRetry 在每次等待前调用，attempt 为即将开始的尝试序号（从 2 开始）
	OnRetry func(attempt int, err error, delay time.Duration)
}

// ConstantPolicy returns a policy that waits delay between attempts.
func ConstantPolicy(maxRetries int, delay time.Duration) Policy {
	return Policy{MaxRetries: maxRetries, BackOff: backoff.NewConstantBackOff(delay)}
}

// Outcome 一次重试循环的结果
type Outcome[T any] struct {
	Value    T
	Attempts int
	Err      error
}

// Do runs fn until it succeeds, MaxRetries additional attempts have been
// made, the back-off policy returns backoff.Stop, or ctx is done while
// waiting. fn receives the 1-based attempt number. Every error is retried.
// A cancelled wait wraps both ctx.Err() and the last attempt's error.
func Do[T any](ctx context.Context, policy Policy, logger *zap.Logger, fn func(ctx context.Context, attempt int) (T, error)) Outcome[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := policy.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	maxRetries := policy.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	if policy.BackOff != nil {
		policy.BackOff.Reset()
	}

	var out Outcome[T]
	for attempt := 1; ; attempt++ {
		out.Attempts = attempt
		out.Value, out.Err = fn(ctx, attempt)
		if out.Err == nil {
			if attempt > 1 {
				logger.Debug("retry succeeded", zap.Int("attempt", attempt))
			}
			return out
		}
		if attempt > maxRetries {
			break
		}

		var delay time.Duration
		if policy.BackOff != nil {
			delay = policy.BackOff.NextBackOff()
			if delay == backoff.Stop {
				logger.Debug("back-off policy stopped retries", zap.Int("attempt", attempt))
				break
			}
		}

		logger.Debug("retrying",
			zap.Int("next_attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Duration("delay", delay),
			zap.Error(out.Err))
		if policy.OnRetry != nil {
			policy.OnRetry(attempt+1, out.Err, delay)
		}

		if delay > 0 {
			select {
			case <-ctx.Done():
				out.Err = fmt.Errorf("retry wait cancelled: %w (last error: %w)", ctx.Err(), out.Err)
				return out
			case <-clock.After(delay):
			}
		}
	}

	logger.Debug("retries exhausted", zap.Int("attempts", out.Attempts), zap.Error(out.Err))
	return out
}
