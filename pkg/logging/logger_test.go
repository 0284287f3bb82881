package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLogger(buf *bytes.Buffer, level string) *Logger {
	return New(Config{Level: level, Format: "json", Writer: buf, Component: "test"})
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", ParseLevel("debug").String())
	assert.Equal(t, "WARN", ParseLevel("warn").String())
	assert.Equal(t, "INFO", ParseLevel("bogus").String())
}

// TestWithContext 验证请求 ID 与用户 ID 被带入日志
func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "info")

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithUserID(ctx, "u-1")
	l.WithContext(ctx).WithError(errors.New("boom")).Info("hello")

	m := decode(t, &buf)
	assert.Equal(t, "test", m["component"])
	assert.Equal(t, "req-1", m["request_id"])
	assert.Equal(t, "u-1", m["user_id"])
	assert.Equal(t, "boom", m["error"])
}

// TestHTTPRequestLogLevel 验证按状态码选择日志级别
func TestHTTPRequestLogLevel(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "INFO"},
		{404, "WARN"},
		{500, "ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		jsonLogger(&buf, "info").HTTPRequestLog("GET", "/products", tt.status, time.Millisecond, "127.0.0.1")
		m := decode(t, &buf)
		assert.Equal(t, tt.level, m["level"])
		assert.Equal(t, float64(tt.status), m["status"])
	}
}

// TestAuthLog 验证拒绝原因写入日志
func TestAuthLog(t *testing.T) {
	var buf bytes.Buffer
	jsonLogger(&buf, "info").AuthLog("login", "alice01", "password_mismatch")
	m := decode(t, &buf)
	assert.Equal(t, "WARN", m["level"])
	assert.Equal(t, "password_mismatch", m["reason"])
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	jsonLogger(&buf, "warn").Info("dropped")
	assert.Zero(t, buf.Len())
}
