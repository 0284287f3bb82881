package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// buildDatabaseURL 构建 MongoDB 连接字符串，URI 优先
func buildDatabaseURL(db DatabaseConfig) string {
	if db.URI != "" {
		return db.URI
	}
	if db.User != "" && db.Password != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d", db.User, db.Password, db.Host, db.Port)
	}
	return fmt.Sprintf("mongodb://%s:%d", db.Host, db.Port)
}

// detectDatabaseDriver 检测数据库驱动类型
// 优先级：显式指定 > URL 前缀自动检测 > 默认 mongodb
func detectDatabaseDriver(driver, databaseURL string) string {
	switch d := strings.ToLower(driver); d {
	case DriverMongoDB, DriverMemory:
		return d
	}
	if strings.HasPrefix(databaseURL, "memory:") {
		return DriverMemory
	}
	return DriverMongoDB
}

// buildRedisURL 构建 Redis 连接字符串，未配置时返回空串
func buildRedisURL(redis RedisConfig) string {
	if redis.URL != "" {
		return redis.URL
	}
	if redis.Host == "" {
		return ""
	}
	if redis.Password != "" {
		return fmt.Sprintf("redis://:%s@%s:%d/%d", redis.Password, redis.Host, redis.Port, redis.DB)
	}
	return fmt.Sprintf("redis://%s:%d/%d", redis.Host, redis.Port, redis.DB)
}

var passwordRe = regexp.MustCompile(`(://[^:/@]*:)([^@]+)(@)`)

// maskPassword 隐藏 URL 中的密码
func maskPassword(url string) string {
	return passwordRe.ReplaceAllString(url, "${1}***${3}")
}

// maskSecret 只保留是否设置的信息
func maskSecret(s string) string {
	if s == "" {
		return "<unset>"
	}
	return "***"
}

// parseEnv 解析环境字符串
func parseEnv(env string) Environment {
	switch strings.ToLower(env) {
	case "test":
		return EnvTest
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

// splitList 逗号分隔列表，去掉空项
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// firstEnv 返回第一个非空的环境变量值（兼容多种变量名）
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// getEnv 获取环境变量，支持默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// String 返回配置摘要（隐藏密码）
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, Port: %s, Driver: %s, DB: %s/%s, Redis: %s, MinIO: %s, JWTSecret: %s, TokenTTL: %s}",
		c.Env, c.Port, c.DatabaseDriver, maskPassword(c.DatabaseURL), c.DatabaseName,
		maskPassword(c.RedisURL), c.MinIO.Endpoint, maskSecret(c.Auth.JWTSecret), c.Auth.TokenTTL)
}
