package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryLimiter 验证失败预算、窗口过期和清零
func TestMemoryLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(Policy{MaxAttempts: 2, Window: time.Minute})
	l.now = func() time.Time { return now }

	ok, err := l.Allowed(ctx, "alice01")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, l.RecordFailure(ctx, "alice01"))
	ok, _ = l.Allowed(ctx, "alice01")
	assert.True(t, ok)

	require.NoError(t, l.RecordFailure(ctx, "alice01"))
	ok, _ = l.Allowed(ctx, "alice01")
	assert.False(t, ok)

	// 其他账号不受影响
	ok, _ = l.Allowed(ctx, "bob01")
	assert.True(t, ok)

	// 窗口过期后恢复
	now = now.Add(time.Minute)
	ok, _ = l.Allowed(ctx, "alice01")
	assert.True(t, ok)

	require.NoError(t, l.RecordFailure(ctx, "alice01"))
	require.NoError(t, l.RecordFailure(ctx, "alice01"))
	require.NoError(t, l.Reset(ctx, "alice01"))
	ok, _ = l.Allowed(ctx, "alice01")
	assert.True(t, ok)
}

func TestPolicyNormalize(t *testing.T) {
	p := Policy{}.Normalize()
	assert.Equal(t, DefaultMaxAttempts, p.MaxAttempts)
	assert.Equal(t, DefaultWindow, p.Window)
}

func TestNoOpLimiter(t *testing.T) {
	l := NewNoOpLimiter()
	for range 10 {
		require.NoError(t, l.RecordFailure(context.Background(), "alice01"))
	}
	ok, err := l.Allowed(context.Background(), "alice01")
	require.NoError(t, err)
	assert.True(t, ok)
}
