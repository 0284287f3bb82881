// Package config 统一配置管理
//
// 配置加载优先级（高→低）：
//  1. 环境变量（shell 注入或 .env / .env.{env} 文件）
//  2. YAML 配置文件（configs/{env}.yaml）
//  3. 代码硬编码默认值
//
// 凭据单一数据源：JWT 密钥、数据库/MinIO/管理员密码只从环境变量读取，
// YAML 中不存储任何密码。
package config

import "time"

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// 数据库驱动
const (
	DriverMongoDB = "mongodb"
	DriverMemory  = "memory"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
	Admin    AdminConfig    `yaml:"admin"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "mongodb"（默认）或 "memory"
	URI      string `yaml:"uri"`    // 优先于 host/port
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"-"` // 只从 DB_PASSWORD 环境变量读取
	Name     string `yaml:"name"`
}

// RedisConfig Redis 配置，host 和 url 都为空时不启用登录限流
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       int    `yaml:"db"`
	Password string `yaml:"-"` // 只从 REDIS_PASSWORD 环境变量读取
	URL      string `yaml:"url"`
}

// MinIOConfig MinIO 对象存储配置，endpoint 为空时不启用图片上传
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`   // 例如 localhost:9000
	AccessKey string `yaml:"-"`          // 只从 MINIO_ACCESS_KEY 环境变量读取
	SecretKey string `yaml:"-"`          // 只从 MINIO_SECRET_KEY 环境变量读取
	UseSSL    bool   `yaml:"use_ssl"`    // 是否使用 HTTPS
	Bucket    string `yaml:"bucket"`     // bucket 名称
	PublicURL string `yaml:"public_url"` // 对外访问前缀，为空时按 endpoint 拼接
}

// Enabled 是否配置了 MinIO
func (c MinIOConfig) Enabled() bool {
	return c.Endpoint != ""
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret        string        `yaml:"-"`                  // 只从 JWT_SECRET 环境变量读取
	TokenTTL         time.Duration `yaml:"token_ttl"`          // 会话令牌有效期，默认 7 天
	BcryptCost       int           `yaml:"bcrypt_cost"`        // 默认 10
	LoginMaxAttempts int           `yaml:"login_max_attempts"` // 窗口内允许的失败次数
	LoginWindow      time.Duration `yaml:"login_window"`       // 失败计数窗口
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// CORSConfig 跨域配置，Origin 包含任一片段即放行
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// AdminConfig 启动时确保存在的管理员账号
type AdminConfig struct {
	Account  string `yaml:"account"`
	Email    string `yaml:"email"`
	Phone    string `yaml:"phone"`
	Password string `yaml:"-"` // 只从 ADMIN_PASSWORD 环境变量读取
}

// Enabled 账号和密码都配置时才创建管理员
func (c AdminConfig) Enabled() bool {
	return c.Account != "" && c.Password != ""
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env            Environment
	Port           string
	DatabaseDriver string
	DatabaseURL    string
	DatabaseName   string
	RedisURL       string // 为空表示不启用
	Auth           AuthConfig
	MinIO          MinIOConfig
	Log            LogConfig
	CORS           CORSConfig
	Admin          AdminConfig
	ConfigFilePath string // 实际加载的配置文件路径
}
