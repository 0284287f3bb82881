package model

import (
	"regexp"
	"strings"
)

// FieldError 单个字段的校验失败
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError 模型校验错误
//
// Errors 按 schema 字段声明顺序排列，对外只报告 First()。
type ValidationError struct {
	Errors []FieldError
}

// Error 实现 error 接口，只包含第一个失败字段
func (e *ValidationError) Error() string {
	f := e.First()
	return "validation failed: " + f.Field + ": " + f.Message
}

// Add 追加字段错误
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// First 返回第一个失败字段
func (e *ValidationError) First() FieldError {
	if len(e.Errors) == 0 {
		return FieldError{}
	}
	return e.Errors[0]
}

// orNil 没有错误时返回 nil，避免 typed-nil 陷阱
func (e *ValidationError) orNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// NewFieldError 创建只有一个字段的校验错误
func NewFieldError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

var (
	emailRegex        = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	alphanumericRegex = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	// 台湾手机号：09xxxxxxxx，可带 +886 / 886 前缀
	twMobileRegex = regexp.MustCompile(`^(\+?886-?|0)?9\d{8}$`)
)

// IsValidEmail 邮箱格式校验
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// IsAlphanumeric 仅包含字母和数字
func IsAlphanumeric(s string) bool {
	return alphanumericRegex.MatchString(s)
}

// IsValidPhone 台湾手机号校验
func IsValidPhone(phone string) bool {
	return twMobileRegex.MatchString(phone)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
