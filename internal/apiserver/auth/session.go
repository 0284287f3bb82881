package auth

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"

	"cardshop/internal/shared/apperr"
	"cardshop/internal/shared/cache"
	"cardshop/internal/shared/credential"
	"cardshop/internal/shared/model"
	"cardshop/internal/shared/storage"
	"cardshop/pkg/logging"
)

// 登录失败的内部原因（只进日志和指标）
const (
	ReasonUnknownAccount   = "unknown_account"
	ReasonPasswordMismatch = "password_mismatch"
)

// 令牌拒绝的内部原因
const (
	reasonMalformed = "malformed"
	reasonSubject   = "bad_subject"
	reasonRevoked   = "revoked"
)

// expiryExempt 允许携带过期令牌访问的路径
var expiryExempt = map[string]bool{
	"/users/extend": true,
	"/users/logout": true,
}

// Sessions 登录校验与会话令牌生命周期
type Sessions struct {
	store   storage.UserStore
	tokens  *Tokens
	hasher  *credential.Hasher
	limiter cache.LoginAttemptLimiter
	log     *logging.Logger
}

// NewSessions 创建会话管理器，limiter 为 nil 时不限制登录失败次数
func NewSessions(store storage.UserStore, tokens *Tokens, hasher *credential.Hasher, limiter cache.LoginAttemptLimiter, log *logging.Logger) *Sessions {
	if limiter == nil {
		limiter = cache.NewNoOpLimiter()
	}
	if log == nil {
		log = logging.Default("auth")
	}
	return &Sessions{store: store, tokens: tokens, hasher: hasher, limiter: limiter, log: log}
}

// Authenticate 账号密码校验
//
// 账号不存在与密码错误对外是同一个错误，内部原因分别记录。
func (s *Sessions) Authenticate(ctx context.Context, account, password string) (*model.User, error) {
	if account == "" || password == "" {
		return nil, apperr.Malformed("account and password are required")
	}

	allowed, err := s.limiter.Allowed(ctx, account)
	if err != nil {
		// 限流器故障时放行
		s.log.WithContext(ctx).WithError(err).Warn("login limiter unavailable", "account", account)
	} else if !allowed {
		s.log.WithContext(ctx).AuthLog("login", account, "too_many_attempts")
		return nil, apperr.TooManyAttempts()
	}

	user, err := s.store.GetUserByAccount(ctx, account)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, s.loginFailed(ctx, account, ReasonUnknownAccount)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, s.loginFailed(ctx, account, ReasonPasswordMismatch)
	}

	if err := s.limiter.Reset(ctx, account); err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("reset login attempts failed", "account", account)
	}
	return user, nil
}

// loginFailed 记录失败次数和内部原因，返回对外统一的错误
func (s *Sessions) loginFailed(ctx context.Context, account, reason string) error {
	if err := s.limiter.RecordFailure(ctx, account); err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("record login failure failed", "account", account)
	}
	s.log.WithContext(ctx).AuthLog("login", account, reason)
	return apperr.InvalidCredentials(reason)
}

// Validate 校验会话令牌
//
// 顺序：签名 → 过期（path 在豁免列表中时跳过）→ 是否仍在用户的活跃令牌列表中。
func (s *Sessions) Validate(ctx context.Context, token, path string) (*Session, error) {
	claims, expired, err := s.tokens.Parse(token)
	if err != nil {
		return nil, apperr.InvalidToken(reasonMalformed)
	}
	if expired && !expiryExempt[path] {
		return nil, apperr.Expired()
	}
	id, err := bson.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, apperr.InvalidToken(reasonSubject)
	}
	user, err := s.store.GetUserByToken(ctx, id, token)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, apperr.InvalidToken(reasonRevoked)
	}
	return &Session{User: user, Token: token}, nil
}

// Login 签发令牌并追加到用户的活跃令牌列表
func (s *Sessions) Login(ctx context.Context, user *model.User) (string, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", apperr.Internal(err)
	}
	if err := s.store.PushToken(ctx, user.ID, token); err != nil {
		return "", tokenStoreError(err)
	}
	user.Tokens = append(user.Tokens, token)
	recordSessionOp("login")
	return token, nil
}

// Extend 原位替换令牌，活跃令牌数量不变
//
// 旧令牌已被并发撤销时返回 InvalidToken。
func (s *Sessions) Extend(ctx context.Context, user *model.User, oldToken string) (string, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", apperr.Internal(err)
	}
	if err := s.store.ReplaceToken(ctx, user.ID, oldToken, token); err != nil {
		return "", tokenStoreError(err)
	}
	recordSessionOp("extend")
	return token, nil
}

// Revoke 移除一个令牌
func (s *Sessions) Revoke(ctx context.Context, user *model.User, token string) error {
	if err := s.store.PullToken(ctx, user.ID, token); err != nil {
		return tokenStoreError(err)
	}
	recordSessionOp("revoke")
	return nil
}

// RevokeAll 清空用户的全部令牌
func (s *Sessions) RevokeAll(ctx context.Context, user *model.User) error {
	if err := s.store.ClearTokens(ctx, user.ID); err != nil {
		return tokenStoreError(err)
	}
	recordSessionOp("revoke_all")
	return nil
}

func tokenStoreError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.InvalidToken(reasonRevoked)
	}
	return apperr.Internal(err)
}
