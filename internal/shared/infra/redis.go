// Package infra Redis 基础设施初始化
package infra

import (
	"log"

	"cardshop/internal/config"
	"cardshop/internal/shared/cache"
	cacheredis "cardshop/internal/shared/cache/redis"
)

// openLimiter 创建登录失败计数器
//
// 未配置 Redis 时使用空操作实现；连接失败时降级为进程内计数，不阻止启动。
func openLimiter(cfg *config.Config) cache.LoginAttemptLimiter {
	policy := cache.Policy{
		MaxAttempts: cfg.Auth.LoginMaxAttempts,
		Window:      cfg.Auth.LoginWindow,
	}.Normalize()

	if cfg.RedisURL == "" {
		log.Printf("[Redis/Infra] REDIS_URL not set, login attempt limiting disabled")
		return cache.NewNoOpLimiter()
	}
	store, err := cacheredis.NewStoreFromURL(cfg.RedisURL, policy)
	if err != nil {
		log.Printf("[Redis/Infra] %v, falling back to in-process limiter", err)
		return cache.NewMemoryLimiter(policy)
	}
	return store
}
