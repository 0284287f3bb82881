package server

import (
	"net/http"

	"cardshop/internal/apiserver/article"
	"cardshop/internal/apiserver/product"
	"cardshop/internal/apiserver/user"
)

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查 / 指标:
//   - GET /health
//   - GET /metrics
//
// 用户 (User):
//   - POST   /users           - 注册
//   - POST   /users/login     - 登录（账号密码）
//   - DELETE /users/logout    - 登出（允许过期令牌）
//   - PATCH  /users/extend    - 续期（允许过期令牌）
//   - GET    /users/me        - 当前用户
//   - PATCH  /users/cart      - 调整购物车
//   - GET    /users/cart      - 购物车明细
//   - PATCH  /users/password  - 修改密码
//
// 商品 (Product) / 文章 (Article)，以 products 为例:
//   - GET    /products        - 已上架列表
//   - GET    /products/{id}   - 已上架详情
//   - POST   /products        - 创建（管理员）
//   - GET    /products/all    - 全部列表（管理员）
//   - PATCH  /products/{id}   - 更新（管理员）
//   - DELETE /products/{id}   - 删除（管理员）
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler())

	userHandler := user.NewHandler(h.store, h.store, h.creds, h.sessions, h.gate)
	userHandler.RegisterRoutes(mux)

	productHandler := product.NewHandler(h.store, h.gate, h.uploader)
	productHandler.RegisterRoutes(mux)

	articleHandler := article.NewHandler(h.store, h.gate, h.uploader)
	articleHandler.RegisterRoutes(mux)

	// 兜底 404（方法不匹配同样走信封）
	mux.HandleFunc("/", h.NotFound)

	var handler http.Handler = mux
	handler = h.metrics.MetricsMiddleware(handler)
	handler = corsMiddleware(h.cors.AllowedOrigins, handler)
	handler = recoverMiddleware(h.log, handler)
	handler = accessLogMiddleware(h.log, handler)
	handler = requestIDMiddleware(handler)
	return handler
}
