// Package cache 缓存层抽象接口
//
// 目前只承载登录失败计数（防暴力破解），由 Redis 实现；
// 未配置 Redis 时使用 NoOpLimiter 放行所有请求。
package cache

import (
	"context"
	"time"
)

// 默认登录失败预算
const (
	DefaultMaxAttempts = 5
	DefaultWindow      = 15 * time.Minute
)

// LoginAttemptLimiter 登录失败计数器
//
// key 为账号名；窗口从第一次失败开始计时，窗口内失败次数达到上限后拒绝登录，
// 登录成功时清零。
type LoginAttemptLimiter interface {
	// Allowed 是否还允许尝试登录
	Allowed(ctx context.Context, account string) (bool, error)
	// RecordFailure 记录一次失败
	RecordFailure(ctx context.Context, account string) error
	// Reset 登录成功后清零
	Reset(ctx context.Context, account string) error
	Close() error
}

// Policy 失败预算
type Policy struct {
	MaxAttempts int
	Window      time.Duration
}

// Normalize 填充默认值
func (p Policy) Normalize() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Window <= 0 {
		p.Window = DefaultWindow
	}
	return p
}
