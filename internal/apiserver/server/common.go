// Package server 路由配置与核心基础设施
//
// 文件组织：
//   - common.go: Handler 定义、健康检查、404
//   - handler.go: 路由表与中间件链
//   - middleware.go: 请求 ID、访问日志、CORS、panic 恢复
//   - metrics.go: Prometheus 指标
package server

import (
	"context"
	"net/http"
	"time"

	"cardshop/internal/apiserver/auth"
	"cardshop/internal/apiserver/httpx"
	"cardshop/internal/apiserver/media"
	"cardshop/internal/config"
	"cardshop/internal/shared/apperr"
	"cardshop/internal/shared/credential"
	"cardshop/internal/shared/storage"
	"cardshop/pkg/logging"
)

// Deps Handler 依赖
type Deps struct {
	Store    storage.PersistentStore
	Sessions *auth.Sessions
	Creds    *credential.Service
	// Uploader 为 nil 时带图片的请求返回内部错误
	Uploader media.Uploader
	CORS     config.CORSConfig
	Logger   *logging.Logger
	// Metrics 为 nil 时使用进程级默认指标
	Metrics *Metrics
}

// Handler API 处理器
//
// Handler 是所有 HTTP API 的入口，负责：
//   - 把路由分发到各领域包（user / product / article）
//   - 组装认证网关与公共中间件
type Handler struct {
	store    storage.PersistentStore
	sessions *auth.Sessions
	creds    *credential.Service
	gate     *auth.Gate
	uploader media.Uploader
	cors     config.CORSConfig
	log      *logging.Logger
	metrics  *Metrics
}

// NewHandler 创建 Handler 实例
func NewHandler(deps Deps) *Handler {
	h := &Handler{
		store:    deps.Store,
		sessions: deps.Sessions,
		creds:    deps.Creds,
		gate:     auth.NewGate(deps.Sessions),
		uploader: deps.Uploader,
		cors:     deps.CORS,
		log:      deps.Logger,
		metrics:  deps.Metrics,
	}
	if h.log == nil {
		h.log = logging.Default("server")
	}
	if h.metrics == nil {
		h.metrics = DefaultMetrics()
	}
	return h
}

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics {
	return h.metrics
}

// pinger 可探活的存储
type pinger interface {
	Ping(ctx context.Context) error
}

// Health 健康检查接口
//
// 路由: GET /health
//
// 存储支持探活时一并检查，失败返回 503。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			h.log.WithContext(r.Context()).WithError(err).Warn("health check failed")
			httpx.WriteJSON(w, http.StatusServiceUnavailable, httpx.Envelope{Success: false, Message: "storage unavailable"})
			return
		}
	}
	httpx.OK(w, http.StatusOK, "ok", nil)
}

// NotFound 未匹配路由
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	httpx.Fail(w, r, apperr.NotFound("route not found"))
}
