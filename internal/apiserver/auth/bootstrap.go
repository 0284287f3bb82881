package auth

import (
	"context"
	"fmt"
	"log"

	"cardshop/internal/config"
	"cardshop/internal/shared/credential"
	"cardshop/internal/shared/model"
	"cardshop/internal/shared/storage"
)

// EnsureAdminUser 确保管理员用户存在（启动时调用）
//
// 未配置账号或密码时跳过；账号已存在但不是管理员时提升角色，不修改密码。
func EnsureAdminUser(ctx context.Context, store storage.UserStore, creds *credential.Service, cfg config.AdminConfig) error {
	if !cfg.Enabled() {
		return nil
	}

	existing, err := store.GetUserByAccount(ctx, cfg.Account)
	if err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if existing != nil {
		if existing.Role != model.UserRoleAdmin {
			log.Printf("[auth] Upgrading user %s to admin role", cfg.Account)
			if err := store.UpdateRole(ctx, existing.ID, model.UserRoleAdmin); err != nil {
				return fmt.Errorf("upgrade admin user: %w", err)
			}
		}
		log.Printf("[auth] Admin user already exists: %s (%s)", cfg.Account, existing.ID.Hex())
		return nil
	}

	user := &model.User{
		Account:  cfg.Account,
		Email:    cfg.Email,
		Phone:    cfg.Phone,
		Password: cfg.Password,
		Role:     model.UserRoleAdmin,
	}
	if err := creds.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.Printf("[auth] Created admin user: %s (%s)", cfg.Account, user.ID.Hex())
	return nil
}
