// Package auth 用户认证：会话令牌签发与校验、登录/会话/授权网关
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"

	"cardshop/internal/shared/model"
)

// contextKey context 键类型
type contextKey string

const ctxKeySession contextKey = "auth_session"

// DefaultTokenTTL 默认会话有效期
const DefaultTokenTTL = 7 * 24 * time.Hour

// Config 认证配置
type Config struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// ============================================================================
// 会话令牌
// ============================================================================

// Claims JWT 声明：Subject 为用户 ID，ID(jti) 保证每次签发的令牌字符串唯一
type Claims struct {
	jwt.RegisteredClaims
}

var (
	errMalformedToken = errors.New("malformed token")
	errMissingClaims  = errors.New("missing subject or expiry")
)

// Tokens 令牌签发与解析
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens 创建令牌签发器，TTL 未设置时使用默认值
func NewTokens(cfg Config) *Tokens {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Tokens{secret: []byte(cfg.JWTSecret), ttl: ttl, now: time.Now}
}

// SetClock 替换时间来源（测试用）
func (t *Tokens) SetClock(now func() time.Time) {
	t.now = now
}

// Issue 签发令牌：subject + 绝对过期时间
func (t *Tokens) Issue(userID bson.ObjectID) (string, error) {
	now := t.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.Hex(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse 校验签名并解析声明，过期与否单独返回
//
// 过期判断使用注入的时钟（now >= exp 即过期），不依赖 jwt 库的时间校验。
func (t *Tokens) Parse(tokenString string) (claims *Claims, expired bool, err error) {
	claims = &Claims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", errMalformedToken, err)
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, false, errMissingClaims
	}
	return claims, !t.now().Before(claims.ExpiresAt.Time), nil
}

// ============================================================================
// Context 辅助函数
// ============================================================================

// Session 已认证的请求主体；密码登录时 Token 为空
type Session struct {
	User  *model.User
	Token string
}

// WithSession 将会话注入 context
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKeySession, s)
}

// SessionFrom 从 context 获取会话
func SessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKeySession).(*Session)
	return s
}

// UserFrom 从 context 获取当前用户
func UserFrom(ctx context.Context) *model.User {
	if s := SessionFrom(ctx); s != nil {
		return s.User
	}
	return nil
}
