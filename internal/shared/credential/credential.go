// Package credential 密码哈希与凭证写入路径
//
// 明文密码只在这里出现：长度校验 → bcrypt 哈希 → 清空明文 → 写入存储。
// 其他写操作（令牌、购物车、角色）不会触发重新哈希。
package credential

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"

	"cardshop/internal/shared/model"
)

// DefaultCost 默认 bcrypt 成本
const DefaultCost = 10

// Hasher bcrypt 密码哈希
type Hasher struct {
	cost int
}

// NewHasher 创建哈希器，cost 超出 bcrypt 允许范围时使用默认值
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash 生成带盐摘要，不做长度校验
func (h *Hasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify 校验明文与摘要是否匹配
func (h *Hasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// UserWriter 凭证写入依赖的存储能力
type UserWriter interface {
	CreateUser(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id bson.ObjectID, passwordHash string) error
}

// Service 凭证写入路径
type Service struct {
	store  UserWriter
	hasher *Hasher
}

// NewService 创建凭证服务
func NewService(store UserWriter, hasher *Hasher) *Service {
	return &Service{store: store, hasher: hasher}
}

// Hasher 返回底层哈希器（登录校验用）
func (s *Service) Hasher() *Hasher {
	return s.hasher
}

// CreateUser 校验并写入新用户
//
// user.Password 为明文；先做 schema 校验（字段顺序保证只报第一个错误），
// 再校验明文长度并哈希，成功后 user.Password 被清空。
func (s *Service) CreateUser(ctx context.Context, user *model.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if user.Password != "" {
		if err := model.ValidatePasswordLength(user.Password); err != nil {
			return err
		}
		digest, err := s.hasher.Hash(user.Password)
		if err != nil {
			return err
		}
		user.PasswordHash = digest
		user.Password = ""
	}
	return s.store.CreateUser(ctx, user)
}

// ChangePassword 校验长度后写入新密码哈希；会话撤销由调用方完成
func (s *Service) ChangePassword(ctx context.Context, id bson.ObjectID, plaintext string) error {
	if err := model.ValidatePasswordLength(plaintext); err != nil {
		return err
	}
	digest, err := s.hasher.Hash(plaintext)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(ctx, id, digest); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
