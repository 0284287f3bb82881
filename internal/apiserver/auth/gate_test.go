package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cardshop/internal/apiserver/httpx"
	"cardshop/internal/config"
	"cardshop/internal/shared/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoHandler 返回 context 中的会话信息
func echoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFrom(r.Context())
		httpx.OK(w, http.StatusOK, "ok", map[string]string{
			"account": sess.User.Account,
			"token":   sess.Token,
		})
	})
}

func serve(h http.Handler, r *http.Request) (*httptest.ResponseRecorder, httpx.Envelope) {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	var env httpx.Envelope
	json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestStrategyString(t *testing.T) {
	assert.Equal(t, "password", StrategyPassword.String())
	assert.Equal(t, "bearer", StrategyBearer.String())
}

// TestBearerGate 验证 Authorization 头解析与令牌校验
func TestBearerGate(t *testing.T) {
	f := newFixture(t, nil)
	u := f.createUser(t, "alice01", model.UserRoleUser)
	tok, err := f.sessions.Login(context.Background(), u)
	require.NoError(t, err)

	h := NewGate(f.sessions).Require(StrategyBearer)(echoHandler())

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing header", "", 401, "missing authorization header"},
		{"wrong scheme", "Basic " + tok, 401, "invalid authorization header"},
		{"no token", "Bearer ", 401, "invalid authorization header"},
		{"garbage token", "Bearer abc.def.ghi", 401, "invalid token"},
		{"valid", "Bearer " + tok, 200, "ok"},
		{"case insensitive scheme", "bearer " + tok, 200, "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rec, env := serve(h, r)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, env.Message)
		})
	}
}

// TestPasswordGate 验证登录网关把用户注入 context 且不签发令牌
func TestPasswordGate(t *testing.T) {
	f := newFixture(t, nil)
	f.createUser(t, "alice01", model.UserRoleUser)
	h := NewGate(f.sessions).Require(StrategyPassword)(echoHandler())

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"bad json", `{`, 400, "invalid request body"},
		{"missing password", `{"account":"alice01"}`, 400, "account and password are required"},
		{"unknown account", `{"account":"nobody01","password":"pass1234"}`, 401, "invalid account or password"},
		{"wrong password", `{"account":"alice01","password":"nope1234"}`, 401, "invalid account or password"},
		{"ok", `{"account":"alice01","password":"pass1234"}`, 200, "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/users/login", strings.NewReader(tt.body))
			rec, env := serve(h, r)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, env.Message)
			assert.NotContains(t, rec.Body.String(), "unknown_account")
			assert.NotContains(t, rec.Body.String(), "password_mismatch")
		})
	}

	assert.Equal(t, 0, f.tokenCount(t, mustAccount(t, f, "alice01").ID))
}

func mustAccount(t *testing.T, f *fixture, account string) *model.User {
	t.Helper()
	u, err := f.store.GetUserByAccount(context.Background(), account)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u
}

// TestRequireRole 验证角色不足返回 403，未认证返回 401
func TestRequireRole(t *testing.T) {
	f := newFixture(t, nil)
	gate := NewGate(f.sessions)
	user := f.createUser(t, "alice01", model.UserRoleUser)
	admin := f.createUser(t, "admin02", model.UserRoleAdmin)
	userTok, err := f.sessions.Login(context.Background(), user)
	require.NoError(t, err)
	adminTok, err := f.sessions.Login(context.Background(), admin)
	require.NoError(t, err)

	h := gate.Protect(echoHandler(), StrategyBearer, model.UserRoleAdmin)

	r := httptest.NewRequest(http.MethodGet, "/products/all", nil)
	r.Header.Set("Authorization", "Bearer "+userTok)
	rec, env := serve(h, r)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "permission denied", env.Message)

	r = httptest.NewRequest(http.MethodGet, "/products/all", nil)
	r.Header.Set("Authorization", "Bearer "+adminTok)
	rec, _ = serve(h, r)
	assert.Equal(t, http.StatusOK, rec.Code)

	// 没有前置认证
	rec, _ = serve(gate.RequireRole(model.UserRoleAdmin)(echoHandler()), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestEnsureAdminUser 验证管理员创建与角色提升
func TestEnsureAdminUser(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	// 未配置时跳过
	require.NoError(t, EnsureAdminUser(ctx, f.store, f.creds, config.AdminConfig{}))

	cfg := config.AdminConfig{Account: "admin", Email: "admin@example.com", Phone: "0911111111", Password: "admin1234"}
	require.NoError(t, EnsureAdminUser(ctx, f.store, f.creds, cfg))
	u := mustAccount(t, f, "admin")
	assert.Equal(t, model.UserRoleAdmin, u.Role)
	assert.True(t, f.creds.Hasher().Verify("admin1234", u.PasswordHash))

	// 重复调用幂等
	require.NoError(t, EnsureAdminUser(ctx, f.store, f.creds, cfg))

	// 已存在的普通用户被提升
	f.createUser(t, "carol03", model.UserRoleUser)
	require.NoError(t, EnsureAdminUser(ctx, f.store, f.creds, config.AdminConfig{Account: "carol03", Password: "whatever"}))
	assert.Equal(t, model.UserRoleAdmin, mustAccount(t, f, "carol03").Role)
}
