package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cardshop/internal/shared/apperr"
	"cardshop/internal/shared/model"
)

// Form 表单字段读取器，兼容 multipart / urlencoded / JSON 三种请求体
//
// 类型转换失败的字段按缺失处理，并记录转换错误；Resolve 时与模型校验错误
// 合并，按 schema 顺序只报告第一个失败字段。
type Form struct {
	values   url.Values
	json     map[string]json.RawMessage
	castErrs map[string]string
}

// ParseForm 解析请求体
func ParseForm(w http.ResponseWriter, r *http.Request) (*Form, error) {
	f := &Form{castErrs: make(map[string]string)}

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/json":
		if err := DecodeJSON(w, r, &f.json); err != nil {
			return nil, err
		}
		return f, nil
	case "multipart/form-data":
		if r.MultipartForm == nil {
			r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBody)
			if err := r.ParseMultipartForm(MaxJSONBody); err != nil {
				return nil, apperr.Malformed("invalid multipart form")
			}
		}
	default:
		r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBody)
		if err := r.ParseForm(); err != nil {
			return nil, apperr.Malformed("invalid form")
		}
	}
	f.values = r.PostForm
	return f, nil
}

// text 返回字段文本，第二个返回值表示字段是否出现
func (f *Form) text(key string) (string, bool) {
	if f.json != nil {
		raw, ok := f.json[key]
		if !ok || bytes.Equal(raw, []byte("null")) {
			return "", false
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s, true
		}
		return strings.TrimSpace(string(raw)), true
	}
	if _, ok := f.values[key]; !ok {
		return "", false
	}
	return f.values.Get(key), true
}

// String 字符串字段，缺失为空串
func (f *Form) String(key string) string {
	s, _ := f.text(key)
	return s
}

// Float 数字字段，缺失、无法解析或非有限值时为 nil
func (f *Form) Float(key string) *float64 {
	s, ok := f.text(key)
	if !ok || strings.TrimSpace(s) == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		f.castErrs[key] = key + " must be a number"
		return nil
	}
	return &v
}

// Bool 布尔字段，缺失或无法解析时为 nil
func (f *Form) Bool(key string) *bool {
	s, ok := f.text(key)
	if !ok || strings.TrimSpace(s) == "" {
		return nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		f.castErrs[key] = key + " must be a boolean"
		return nil
	}
	return &v
}

// Time 日期字段，支持 RFC3339 和 YYYY-MM-DD，缺失或无法解析时为零值
func (f *Form) Time(key string) time.Time {
	s, ok := f.text(key)
	s = strings.TrimSpace(s)
	if !ok || s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	f.castErrs[key] = key + " must be a date"
	return time.Time{}
}

// Resolve 合并类型转换错误与模型校验错误
func (f *Form) Resolve(validateErr error) error {
	if validateErr == nil {
		return nil
	}
	var verr *model.ValidationError
	if !errors.As(validateErr, &verr) {
		return validateErr
	}
	first := verr.First()
	if msg, ok := f.castErrs[first.Field]; ok {
		return apperr.Validation(first.Field, msg)
	}
	return apperr.Validation(first.Field, first.Message)
}
