// Package httpx HTTP 层公共工具：统一响应信封、错误映射、请求解析
package httpx

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync/atomic"

	"cardshop/internal/shared/apperr"
	"cardshop/internal/shared/model"
	"cardshop/internal/shared/storage"
	"cardshop/pkg/logging"
)

// Envelope 统一响应信封
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Result  any    `json:"result,omitempty"`
}

var logger atomic.Pointer[logging.Logger]

func init() {
	logger.Store(logging.Default("httpx"))
}

// SetLogger 替换错误日志输出
func SetLogger(l *logging.Logger) {
	if l != nil {
		logger.Store(l)
	}
}

// WriteJSON 写 JSON 响应；序列化失败时改写为 500 信封
func WriteJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		logger.Load().WithError(err).Error("encode response failed", "status", status)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(Envelope{Success: false, Message: apperr.Internal(err).Message})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

// OK 成功响应
func OK(w http.ResponseWriter, status int, message string, result any) {
	WriteJSON(w, status, Envelope{Success: true, Message: message, Result: result})
}

// Fail 失败响应：错误归一为 apperr.Error，按类别映射状态码
//
// 内部错误对外只返回通用信息，原因写日志；Reason 从不写入响应。
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.From(err)
	if e.Kind == apperr.KindInternal {
		logger.Load().WithContext(r.Context()).WithError(e.Err).Error("request failed",
			"method", r.Method, "path", r.URL.Path)
	}
	WriteJSON(w, e.Kind.HTTPStatus(), Envelope{Success: false, Message: e.Message})
}

// StoreError 存储层错误转换为领域错误
//
// schema/唯一键失败 → ValidationFailed（只带第一个字段）；
// ErrNotFound → NotFound(notFoundMsg)；其他 → Internal。
func StoreError(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		f := verr.First()
		return apperr.Validation(f.Field, f.Message)
	}
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound(notFoundMsg)
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	return apperr.Internal(err)
}

// ClientIP 取客户端地址，优先 X-Forwarded-For 第一项
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(ip)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
