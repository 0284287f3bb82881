package auth

import (
	"net/http"
	"strings"

	"cardshop/internal/apiserver/httpx"
	"cardshop/internal/shared/apperr"
	"cardshop/internal/shared/model"
	"cardshop/pkg/logging"
)

// Strategy 认证策略，每条路由显式选择
type Strategy int

const (
	// StrategyPassword 请求体携带账号密码（仅登录）
	StrategyPassword Strategy = iota
	// StrategyBearer Authorization: Bearer <token>
	StrategyBearer
)

func (s Strategy) String() string {
	switch s {
	case StrategyPassword:
		return "password"
	case StrategyBearer:
		return "bearer"
	default:
		return "unknown"
	}
}

// Gate 认证 / 授权中间件
type Gate struct {
	sessions *Sessions
}

// NewGate 创建网关
func NewGate(sessions *Sessions) *Gate {
	return &Gate{sessions: sessions}
}

// Require 按策略认证，成功后把会话注入 context
func (g *Gate) Require(strategy Strategy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				sess *Session
				err  error
			)
			switch strategy {
			case StrategyPassword:
				sess, err = g.password(w, r)
			case StrategyBearer:
				sess, err = g.bearer(r)
			default:
				err = apperr.Internalf("unknown auth strategy %d", strategy)
			}
			if err != nil {
				reason := outcome(err)
				recordAuth(strategy, reason)
				g.sessions.log.WithContext(r.Context()).Debug("auth rejected",
					"strategy", strategy.String(), "path", r.URL.Path, "reason", reason)
				httpx.Fail(w, r, err)
				return
			}
			recordAuth(strategy, "success")

			ctx := WithSession(r.Context(), sess)
			ctx = logging.ContextWithUserID(ctx, sess.User.ID.Hex())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type loginRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

func (g *Gate) password(w http.ResponseWriter, r *http.Request) (*Session, error) {
	var req loginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		return nil, err
	}
	user, err := g.sessions.Authenticate(r.Context(), req.Account, req.Password)
	if err != nil {
		return nil, err
	}
	return &Session{User: user}, nil
}

func (g *Gate) bearer(r *http.Request) (*Session, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, apperr.Unauthorized("missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return nil, apperr.Unauthorized("invalid authorization header")
	}
	return g.sessions.Validate(r.Context(), strings.TrimSpace(parts[1]), r.URL.Path)
}

// RequireRole 授权检查，必须在 Require 之后
func (g *Gate) RequireRole(role model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFrom(r.Context())
			if user == nil {
				httpx.Fail(w, r, apperr.Unauthorized("not authenticated"))
				return
			}
			if !user.Role.Satisfies(role) {
				httpx.Fail(w, r, apperr.Forbidden())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Protect 组合认证与（可选）角色要求
func (g *Gate) Protect(h http.Handler, strategy Strategy, role ...model.UserRole) http.Handler {
	if len(role) > 0 {
		h = g.RequireRole(role[0])(h)
	}
	return g.Require(strategy)(h)
}

// outcome 指标标签：优先使用内部原因
func outcome(err error) string {
	e := apperr.From(err)
	if e.Reason != "" {
		return e.Reason
	}
	return e.Kind.String()
}
