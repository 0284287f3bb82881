// Package infra 基础设施聚合层
//
// 提供统一的基础设施初始化和依赖注入，包括：
//   - Storage：持久化存储（MongoDB 或内存）
//   - Limiter：登录失败计数（Redis，未配置时为空操作）
//   - Objects：媒体对象存储（MinIO，未配置时为 nil）
package infra

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cardshop/internal/config"
	"cardshop/internal/shared/cache"
	"cardshop/internal/shared/objstore"
	"cardshop/internal/shared/storage"
	"cardshop/internal/shared/storage/memstore"
	"cardshop/internal/shared/storage/mongostore"
	"cardshop/pkg/logging"
)

// Infrastructure 基础设施聚合结构
type Infrastructure struct {
	// Storage 持久化存储
	Storage storage.PersistentStore

	// Limiter 登录失败计数
	Limiter cache.LoginAttemptLimiter

	// Objects 媒体对象存储，可能为 nil
	Objects *objstore.Client
}

// New 按配置初始化全部基础设施，任一必需组件失败时关闭已打开的连接
//
// logger 为 nil 时使用默认日志器。
func New(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Infrastructure, error) {
	if logger == nil {
		logger = logging.Default("infra")
	}
	infra := &Infrastructure{}

	store, err := openStorage(cfg, logger)
	if err != nil {
		return nil, err
	}
	infra.Storage = store

	infra.Limiter = openLimiter(cfg)

	if cfg.MinIO.Enabled() {
		objects, err := objstore.NewClient(cfg.MinIO)
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("init object storage: %w", err)
		}
		if err := objects.EnsureBucket(ctx); err != nil {
			infra.Close()
			return nil, fmt.Errorf("ensure bucket: %w", err)
		}
		infra.Objects = objects
		log.Printf("[Infra] Object storage enabled: %s/%s", cfg.MinIO.Endpoint, cfg.MinIO.Bucket)
	} else {
		log.Printf("[Infra] MINIO_ENDPOINT not set, image upload disabled")
	}

	return infra, nil
}

func openStorage(cfg *config.Config, logger *logging.Logger) (storage.PersistentStore, error) {
	switch cfg.DatabaseDriver {
	case config.DriverMemory:
		log.Printf("[Infra] Using in-memory storage")
		return memstore.NewStore(), nil
	case config.DriverMongoDB:
		store, err := mongostore.NewStore(cfg.DatabaseURL, cfg.DatabaseName, logger.Named("mongostore"))
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
}

// Close 关闭所有基础设施连接
func (i *Infrastructure) Close() error {
	var errs []error
	if i.Storage != nil {
		errs = append(errs, i.Storage.Close())
	}
	if i.Limiter != nil {
		errs = append(errs, i.Limiter.Close())
	}
	return errors.Join(errs...)
}

// NewNoOpInfrastructure 创建内存存储 + 空操作限流的基础设施（用于测试）
func NewNoOpInfrastructure() *Infrastructure {
	return &Infrastructure{
		Storage: memstore.NewStore(),
		Limiter: cache.NewNoOpLimiter(),
	}
}
