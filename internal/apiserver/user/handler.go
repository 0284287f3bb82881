// Package user 用户领域 - HTTP 处理（注册、会话、购物车、密码）
package user

import (
	"net/http"
	"slices"

	"go.mongodb.org/mongo-driver/v2/bson"

	"cardshop/internal/apiserver/auth"
	"cardshop/internal/apiserver/httpx"
	"cardshop/internal/shared/apperr"
	"cardshop/internal/shared/credential"
	"cardshop/internal/shared/model"
	"cardshop/internal/shared/storage"
)

// Handler 用户处理器
type Handler struct {
	users    storage.UserStore
	products storage.ProductStore
	creds    *credential.Service
	sessions *auth.Sessions
	gate     *auth.Gate
}

// NewHandler 创建用户处理器
func NewHandler(users storage.UserStore, products storage.ProductStore, creds *credential.Service, sessions *auth.Sessions, gate *auth.Gate) *Handler {
	return &Handler{
		users:    users,
		products: products,
		creds:    creds,
		sessions: sessions,
		gate:     gate,
	}
}

// RegisterRoutes 注册用户路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	bearer := func(fn http.HandlerFunc) http.Handler {
		return h.gate.Protect(fn, auth.StrategyBearer)
	}

	mux.HandleFunc("POST /users", h.Register)
	mux.Handle("POST /users/login", h.gate.Protect(http.HandlerFunc(h.Login), auth.StrategyPassword))
	mux.Handle("DELETE /users/logout", bearer(h.Logout))
	mux.Handle("PATCH /users/extend", bearer(h.Extend))
	mux.Handle("GET /users/me", bearer(h.Me))
	mux.Handle("PATCH /users/cart", bearer(h.EditCart))
	mux.Handle("GET /users/cart", bearer(h.GetCart))
	mux.Handle("PATCH /users/password", bearer(h.ChangePassword))
}

// ============================================================================
// 注册与会话
// ============================================================================

type registerRequest struct {
	Account  string `json:"account"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// Register 注册，角色固定为普通用户
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Fail(w, r, err)
		return
	}
	u := &model.User{
		Account:  req.Account,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Role:     model.UserRoleUser,
	}
	if err := h.creds.CreateUser(r.Context(), u); err != nil {
		httpx.Fail(w, r, httpx.StoreError(err, "user not found"))
		return
	}
	httpx.OK(w, http.StatusOK, "", nil)
}

// profile 登录 / me 的响应
type profile struct {
	Token   string         `json:"token"`
	Account string         `json:"account"`
	Email   string         `json:"email"`
	Phone   string         `json:"phone"`
	Role    model.UserRole `json:"role"`
	Cart    int            `json:"cart"`
}

func newProfile(u *model.User, token string) profile {
	return profile{
		Token:   token,
		Account: u.Account,
		Email:   u.Email,
		Phone:   u.Phone,
		Role:    u.Role,
		Cart:    u.CartQuantity(),
	}
}

// Login 账号密码已由网关校验，这里签发令牌
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFrom(r.Context())
	token, err := h.sessions.Login(r.Context(), u)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", newProfile(u, token))
}

// Logout 撤销当前令牌
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	if err := h.sessions.Revoke(r.Context(), sess.User, sess.Token); err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", nil)
}

// Extend 用新令牌原位替换当前令牌
func (h *Handler) Extend(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	token, err := h.sessions.Extend(r.Context(), sess.User, sess.Token)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", token)
}

// Me 当前用户资料
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	httpx.OK(w, http.StatusOK, "", newProfile(sess.User, sess.Token))
}

type passwordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// ChangePassword 校验旧密码后写入新密码，所有会话失效
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Fail(w, r, err)
		return
	}
	u := auth.UserFrom(r.Context())
	if !h.creds.Hasher().Verify(req.OldPassword, u.PasswordHash) {
		httpx.Fail(w, r, apperr.Validation("oldPassword", "old password is incorrect"))
		return
	}
	if err := h.creds.ChangePassword(r.Context(), u.ID, req.NewPassword); err != nil {
		httpx.Fail(w, r, httpx.StoreError(err, "user not found"))
		return
	}
	if err := h.sessions.RevokeAll(r.Context(), u); err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", nil)
}

// ============================================================================
// 购物车
// ============================================================================

type cartRequest struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

// EditCart 按增量调整购物车，数量降到 0 及以下时移除该条目
func (h *Handler) EditCart(w http.ResponseWriter, r *http.Request) {
	var req cartRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Fail(w, r, err)
		return
	}
	productID, err := httpx.ParseID(req.Product)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}

	u := auth.UserFrom(r.Context())
	cart, err := h.applyCartDelta(r, slices.Clone(u.Cart), productID, req.Quantity)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	if err := h.users.UpdateCart(r.Context(), u.ID, cart); err != nil {
		httpx.Fail(w, r, httpx.StoreError(err, "user not found"))
		return
	}
	u.Cart = cart
	httpx.OK(w, http.StatusOK, "", u.CartQuantity())
}

func (h *Handler) applyCartDelta(r *http.Request, cart []model.CartItem, productID bson.ObjectID, delta int) ([]model.CartItem, error) {
	idx := slices.IndexFunc(cart, func(item model.CartItem) bool { return item.Product == productID })
	if delta > model.CartMaxQuantity {
		return nil, apperr.Validation("quantity", "quantity is too large")
	}
	if idx >= 0 {
		if delta > model.CartMaxQuantity-cart[idx].Quantity {
			return nil, apperr.Validation("quantity", "quantity is too large")
		}
		cart[idx].Quantity += delta
		if cart[idx].Quantity <= 0 {
			cart = slices.Delete(cart, idx, idx+1)
		}
		return cart, nil
	}

	if delta <= 0 {
		return nil, apperr.Validation("quantity", "quantity must be a positive integer")
	}
	p, err := h.products.GetProduct(r.Context(), productID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if p == nil || !p.Listed() {
		return nil, apperr.NotFound("product not found")
	}
	return append(cart, model.CartItem{Product: productID, Quantity: delta}), nil
}

// cartLine 购物车条目，商品已删除时 product 为 null
type cartLine struct {
	Product  *model.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

// GetCart 购物车明细，关联商品文档
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFrom(r.Context())

	ids := make([]bson.ObjectID, 0, len(u.Cart))
	for _, item := range u.Cart {
		ids = append(ids, item.Product)
	}
	found, err := h.products.GetProductsByIDs(r.Context(), ids)
	if err != nil {
		httpx.Fail(w, r, apperr.Internal(err))
		return
	}
	byID := make(map[bson.ObjectID]*model.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	lines := make([]cartLine, 0, len(u.Cart))
	for _, item := range u.Cart {
		lines = append(lines, cartLine{Product: byID[item.Product], Quantity: item.Quantity})
	}
	httpx.OK(w, http.StatusOK, "", lines)
}
