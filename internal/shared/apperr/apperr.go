// Package apperr 领域错误分类
//
// 每个对外操作最终只产出一种 Kind，由传输层映射为 HTTP 状态码。
// 未识别的错误一律降级为 KindInternal，对外只返回通用信息。
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误类别
type Kind int

const (
	KindInternal Kind = iota
	KindMalformedRequest
	KindValidationFailed
	KindInvalidCredentials
	KindInvalidToken
	KindExpired
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindFileTooLarge
	KindUnsupportedFormat
	KindTooManyAttempts
)

var kindNames = map[Kind]string{
	KindInternal:           "internal_error",
	KindMalformedRequest:   "malformed_request",
	KindValidationFailed:   "validation_failed",
	KindInvalidCredentials: "invalid_credentials",
	KindInvalidToken:       "invalid_token",
	KindExpired:            "expired",
	KindUnauthorized:       "unauthorized",
	KindForbidden:          "forbidden",
	KindNotFound:           "not_found",
	KindFileTooLarge:       "file_too_large",
	KindUnsupportedFormat:  "unsupported_format",
	KindTooManyAttempts:    "too_many_attempts",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// HTTPStatus 错误类别对应的 HTTP 状态码
func (k Kind) HTTPStatus() int {
	switch k {
	case KindMalformedRequest, KindValidationFailed, KindFileTooLarge, KindUnsupportedFormat:
		return http.StatusBadRequest
	case KindInvalidCredentials, KindInvalidToken, KindExpired, KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindTooManyAttempts:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error 领域错误
//
// Message 面向调用方；Reason 仅用于服务端日志和指标（如登录失败的真实原因）；
// Err 为底层原因。
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Reason  string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Field != "" {
		msg += "(" + e.Field + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 同类别即视为相等，便于 errors.Is(err, apperr.ErrExpired) 之类的判断
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Field == "" && t.Message == "" && t.Reason == "" && t.Err == nil
}

// 各类别的哨兵值，只用于 errors.Is 比较
var (
	ErrInternal           = &Error{Kind: KindInternal}
	ErrMalformedRequest   = &Error{Kind: KindMalformedRequest}
	ErrValidationFailed   = &Error{Kind: KindValidationFailed}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrInvalidToken       = &Error{Kind: KindInvalidToken}
	ErrExpired            = &Error{Kind: KindExpired}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrFileTooLarge       = &Error{Kind: KindFileTooLarge}
	ErrUnsupportedFormat  = &Error{Kind: KindUnsupportedFormat}
	ErrTooManyAttempts    = &Error{Kind: KindTooManyAttempts}
)

func Malformed(message string) *Error {
	return &Error{Kind: KindMalformedRequest, Message: message}
}

func Validation(field, message string) *Error {
	return &Error{Kind: KindValidationFailed, Field: field, Message: message}
}

// InvalidCredentials 对外统一信息，reason 只进日志
func InvalidCredentials(reason string) *Error {
	return &Error{Kind: KindInvalidCredentials, Message: "invalid account or password", Reason: reason}
}

func InvalidToken(reason string) *Error {
	return &Error{Kind: KindInvalidToken, Message: "invalid token", Reason: reason}
}

func Expired() *Error {
	return &Error{Kind: KindExpired, Message: "token expired"}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func Forbidden() *Error {
	return &Error{Kind: KindForbidden, Message: "permission denied"}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func FileTooLarge() *Error {
	return &Error{Kind: KindFileTooLarge, Message: "file too large"}
}

func UnsupportedFormat() *Error {
	return &Error{Kind: KindUnsupportedFormat, Message: "unsupported file format"}
}

func TooManyAttempts() *Error {
	return &Error{Kind: KindTooManyAttempts, Message: "too many failed attempts, try again later"}
}

// Internal 包装未预期的错误
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// Internalf 格式化后包装
func Internalf(format string, args ...any) *Error {
	return Internal(fmt.Errorf(format, args...))
}

// From 将任意错误归一为 *Error，无法识别的一律视为内部错误
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// KindOf 返回错误类别
func KindOf(err error) Kind {
	return From(err).Kind
}
