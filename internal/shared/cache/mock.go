package cache

import (
	"context"
	"sync"
	"time"
)

// ============================================================================
// NoOpLimiter - 不限制登录（未配置 Redis 时使用）
// ============================================================================

// NoOpLimiter 永远放行
type NoOpLimiter struct{}

// NewNoOpLimiter 创建 NoOpLimiter 实例
func NewNoOpLimiter() *NoOpLimiter {
	return &NoOpLimiter{}
}

func (NoOpLimiter) Allowed(context.Context, string) (bool, error) { return true, nil }
func (NoOpLimiter) RecordFailure(context.Context, string) error { return nil }
func (NoOpLimiter) Reset(context.Context, string) error { return nil }
func (NoOpLimiter) Close() error { return nil }

// ============================================================================
// MemoryLimiter - 进程内实现（单实例部署和测试）
// ============================================================================

type attemptWindow struct {
	count   int
	expires time.Time
}

// MemoryLimiter 进程内登录失败计数
type MemoryLimiter struct {
	mu      sync.Mutex
	policy  Policy
	windows map[string]attemptWindow
	now     func() time.Time
}

// NewMemoryLimiter 创建进程内计数器
func NewMemoryLimiter(policy Policy) *MemoryLimiter {
	return &MemoryLimiter{
		policy:  policy.Normalize(),
		windows: make(map[string]attemptWindow),
		now:     time.Now,
	}
}

// current 返回未过期的窗口，调用方持有锁
func (l *MemoryLimiter) current(account string) attemptWindow {
	w, ok := l.windows[account]
	if ok && !l.now().Before(w.expires) {
		delete(l.windows, account)
		return attemptWindow{}
	}
	return w
}

func (l *MemoryLimiter) Allowed(_ context.Context, account string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current(account).count < l.policy.MaxAttempts, nil
}

func (l *MemoryLimiter) RecordFailure(_ context.Context, account string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	w := l.current(account)
	if w.count == 0 {
		w.expires = l.now().Add(l.policy.Window)
	}
	w.count++
	l.windows[account] = w
	return nil
}

func (l *MemoryLimiter) Reset(_ context.Context, account string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, account)
	return nil
}

func (l *MemoryLimiter) Close() error { return nil }

var (
	_ LoginAttemptLimiter = NoOpLimiter{}
	_ LoginAttemptLimiter = (*MemoryLimiter)(nil)
)
