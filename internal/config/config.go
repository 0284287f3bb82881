package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// 默认值
const (
	DefaultPort       = "4000"
	DefaultTokenTTL   = 7 * 24 * time.Hour
	DefaultBcryptCost = 10
	DefaultDBName     = "cardshop"
	DefaultBucket     = "cardshop"
)

// Load 加载配置
// 1. 加载 .env / .env.{env}
// 2. 根据 APP_ENV 加载 configs/{env}.yaml（叠加在默认值之上）
// 3. 环境变量覆盖
func Load() *Config {
	loadDotEnv()
	env := parseEnv(getEnv("APP_ENV", "dev"))
	loadEnvFiles(env)

	yamlCfg, path := loadYAMLConfig(env)
	applyEnvOverrides(yamlCfg)

	cfg := &Config{
		Env:            env,
		Port:           yamlCfg.Server.Port,
		DatabaseDriver: detectDatabaseDriver(yamlCfg.Database.Driver, yamlCfg.Database.URI),
		DatabaseURL:    buildDatabaseURL(yamlCfg.Database),
		DatabaseName:   yamlCfg.Database.Name,
		RedisURL:       buildRedisURL(yamlCfg.Redis),
		Auth:           yamlCfg.Auth,
		MinIO:          yamlCfg.MinIO,
		Log:            yamlCfg.Log,
		CORS:           yamlCfg.CORS,
		Admin:          yamlCfg.Admin,
		ConfigFilePath: path,
	}
	cfg.fillDefaults()
	return cfg
}

// defaultYAMLConfig 代码默认值
func defaultYAMLConfig() *YAMLConfig {
	return &YAMLConfig{
		Server:   ServerConfig{Port: DefaultPort},
		Database: DatabaseConfig{Driver: DriverMongoDB, Host: "localhost", Port: 27017, Name: DefaultDBName},
		MinIO:    MinIOConfig{Bucket: DefaultBucket},
		Auth: AuthConfig{
			TokenTTL:   DefaultTokenTTL,
			BcryptCost: DefaultBcryptCost,
		},
		Log:  LogConfig{Level: "info", Format: "text"},
		CORS: CORSConfig{AllowedOrigins: []string{"github.io", "localhost"}},
	}
}

// loadYAMLConfig 加载 YAML 配置文件：默认值 → {env}.yaml
func loadYAMLConfig(env Environment) (*YAMLConfig, string) {
	cfg := defaultYAMLConfig()

	path := findConfigFile(env)
	if path == "" {
		return cfg, ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[config] read %s failed: %v", path, err)
		return cfg, ""
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		log.Printf("[config] parse %s failed: %v", path, err)
		return defaultYAMLConfig(), ""
	}
	return cfg, path
}

// applyEnvOverrides 环境变量覆盖 YAML
func applyEnvOverrides(cfg *YAMLConfig) {
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)

	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	if v := firstEnv("DB_URL", "MONGO_URI", "DATABASE_URL"); v != "" {
		cfg.Database.URI = v
	}
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.Password = firstEnv("DB_PASSWORD", "MONGO_ROOT_PASSWORD")

	cfg.Redis.URL = getEnv("REDIS_URL", cfg.Redis.URL)
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")

	cfg.MinIO.Endpoint = getEnv("MINIO_ENDPOINT", cfg.MinIO.Endpoint)
	cfg.MinIO.AccessKey = firstEnv("MINIO_ACCESS_KEY", "MINIO_ROOT_USER")
	cfg.MinIO.SecretKey = firstEnv("MINIO_SECRET_KEY", "MINIO_ROOT_PASSWORD")
	cfg.MinIO.Bucket = getEnv("MINIO_BUCKET", cfg.MinIO.Bucket)
	cfg.MinIO.PublicURL = getEnv("MINIO_PUBLIC_URL", cfg.MinIO.PublicURL)
	if v, err := strconv.ParseBool(os.Getenv("MINIO_USE_SSL")); err == nil {
		cfg.MinIO.UseSSL = v
	}

	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	if v := os.Getenv("JWT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenTTL = d
		} else {
			log.Printf("[config] invalid JWT_TTL %q: %v", v, err)
		}
	}
	if v, err := strconv.Atoi(os.Getenv("LOGIN_MAX_ATTEMPTS")); err == nil {
		cfg.Auth.LoginMaxAttempts = v
	}
	if v := os.Getenv("LOGIN_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auth.LoginWindow = d
		} else {
			log.Printf("[config] invalid LOGIN_WINDOW %q: %v", v, err)
		}
	}

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	if v := os.Getenv("CORS_ALLOWED"); v != "" {
		cfg.CORS.AllowedOrigins = splitList(v)
	}

	cfg.Admin.Account = getEnv("ADMIN_ACCOUNT", cfg.Admin.Account)
	cfg.Admin.Email = getEnv("ADMIN_EMAIL", cfg.Admin.Email)
	cfg.Admin.Phone = getEnv("ADMIN_PHONE", cfg.Admin.Phone)
	cfg.Admin.Password = os.Getenv("ADMIN_PASSWORD")
}

// fillDefaults 填充 YAML 中被显式置空的字段
func (c *Config) fillDefaults() {
	if c.Port == "" {
		c.Port = DefaultPort
	}
	if c.DatabaseName == "" {
		c.DatabaseName = DefaultDBName
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = DefaultTokenTTL
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = DefaultBcryptCost
	}
	if c.MinIO.Bucket == "" {
		c.MinIO.Bucket = DefaultBucket
	}
}

// Validate 启动前检查必填项
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.DatabaseDriver != DriverMongoDB && c.DatabaseDriver != DriverMemory {
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.DatabaseDriver))
	}
	if c.MinIO.Enabled() && (c.MinIO.AccessKey == "" || c.MinIO.SecretKey == "") {
		errs = append(errs, errors.New("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set"))
	}
	return errors.Join(errs...)
}
