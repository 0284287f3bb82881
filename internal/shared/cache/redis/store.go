// Package redis Redis 版登录失败计数器
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"cardshop/internal/shared/cache"
)

const keyPrefix = "cardshop:login_attempts:"

// Store Redis 登录失败计数
//
// 每个账号一个计数 key，第一次失败时设置过期时间作为窗口，
// 多实例部署时共享同一份预算。
type Store struct {
	client *redis.Client
	policy cache.Policy
}

var _ cache.LoginAttemptLimiter = (*Store)(nil)

// NewStoreFromURL 从 URL 创建 Redis 计数器
func NewStoreFromURL(redisURL string, policy cache.Policy) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("[Redis/Limiter] Connected to %s", opts.Addr)
	return NewStoreFromClient(client, policy), nil
}

// NewStoreFromClient 从现有 Redis 客户端创建计数器
func NewStoreFromClient(client *redis.Client, policy cache.Policy) *Store {
	return &Store{client: client, policy: policy.Normalize()}
}

func key(account string) string {
	return keyPrefix + account
}

// Allowed 计数未达上限时放行
func (s *Store) Allowed(ctx context.Context, account string) (bool, error) {
	n, err := s.client.Get(ctx, key(account)).Int()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("get login attempts: %w", err)
	}
	return n < s.policy.MaxAttempts, nil
}

// RecordFailure INCR 计数，第一次失败时设置窗口过期
func (s *Store) RecordFailure(ctx context.Context, account string) error {
	k := key(account)
	pipe := s.client.TxPipeline()
	pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, s.policy.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record login failure: %w", err)
	}
	return nil
}

// Reset 删除计数
func (s *Store) Reset(ctx context.Context, account string) error {
	if err := s.client.Del(ctx, key(account)).Err(); err != nil {
		return fmt.Errorf("reset login attempts: %w", err)
	}
	return nil
}

// Close 关闭 Redis 连接
func (s *Store) Close() error {
	return s.client.Close()
}

// Client 返回底层 Redis 客户端
func (s *Store) Client() *redis.Client {
	return s.client
}
