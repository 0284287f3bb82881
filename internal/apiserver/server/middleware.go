package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"cardshop/internal/apiserver/httpx"
	"cardshop/internal/shared/apperr"
	"cardshop/pkg/logging"
)

// RequestIDHeader 请求 ID 头
const RequestIDHeader = "X-Request-ID"

// requestIDMiddleware 透传或生成请求 ID，写入 context 与响应头
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.ContextWithRequestID(r.Context(), id)))
	})
}

// accessLogMiddleware 访问日志
func accessLogMiddleware(log *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		log.WithContext(r.Context()).HTTPRequestLog(r.Method, r.URL.Path, wrapped.statusCode, time.Since(start), httpx.ClientIP(r))
	})
}

// recoverMiddleware panic 转为 500 信封
func recoverMiddleware(log *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				log.WithContext(r.Context()).Error("panic recovered", "panic", v, "path", r.URL.Path)
				httpx.Fail(w, r, apperr.Internalf("panic: %v", v))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware 来源白名单
//
// 没有 Origin 的请求（同源、curl）直接放行；Origin 包含任一白名单片段时放行并回写 CORS 头；
// 其余返回 403。
func corsMiddleware(allowed []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}
		if !originAllowed(origin, allowed) {
			httpx.WriteJSON(w, http.StatusForbidden, httpx.Envelope{Success: false, Message: "request rejected"})
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Add("Vary", "Origin")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func originAllowed(origin string, allowed []string) bool {
	for _, fragment := range allowed {
		if fragment != "" && strings.Contains(origin, fragment) {
			return true
		}
	}
	return false
}
