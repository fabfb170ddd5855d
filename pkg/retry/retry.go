// Package retry 通用的重试组合器，供生成服务等外部调用复用
package retry

import (
	"context"
	"time"
)

// BackoffFunc 根据已完成的尝试次数（从 1 开始）计算下一次重试前的等待时长
type BackoffFunc func(attempt int) time.Duration

// Exponential 指数退避：base、2*base、4*base……
func Exponential(base time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return base << (attempt - 1)
	}
}

// None 不等待，主要用于测试
func None() BackoffFunc {
	return func(int) time.Duration { return 0 }
}

// Do 执行 op，失败则按退避策略重试，最多尝试 maxAttempts 次
//
// 最后一次失败后不再等待，直接返回该错误。
// 等待期间 ctx 被取消时立即返回 ctx 的错误。
func Do(ctx context.Context, maxAttempts int, backoff BackoffFunc, op func() error) error {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if lastErr = op(); lastErr == nil {
			return nil
		}

		// 最后一次尝试失败后直接返回
		if attempt == maxAttempts {
			break
		}

		if err := sleep(ctx, backoff(attempt)); err != nil {
			return err
		}
	}

	return lastErr
}

// sleep 可被 ctx 打断的等待
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
