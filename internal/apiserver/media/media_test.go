package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	"cardshop/internal/apiserver/httpx"
	"cardshop/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	httpx.SetLogger(logging.Discard())
}

var (
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
	jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0}, 64)...)
)

// fakeUploader 内存对象存储
type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	failAt  int // 第 n 次上传失败（从 1 开始），0 表示不失败
	calls   int
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: make(map[string][]byte)}
}

func (f *fakeUploader) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls == f.failAt {
		return errors.New("minio down")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = b
	return nil
}

func (f *fakeUploader) URL(key string) string {
	return "http://cdn.test/" + key
}

func (f *fakeUploader) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

type part struct {
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, fields map[string]string, parts ...part) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for i, p := range parts {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="f%d"`, FieldName, i))
		h.Set("Content-Type", p.contentType)
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/products", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

// captureHandler 记录 context 中的图片和表单字段
func captureHandler(images *[]string, name *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*images = Images(r.Context())
		*name = r.FormValue("name")
		httpx.OK(w, http.StatusOK, "ok", nil)
	})
}

func run(h http.Handler, r *http.Request) (int, string) {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	var env httpx.Envelope
	json.Unmarshal(rec.Body.Bytes(), &env)
	return rec.Code, env.Message
}

// TestUploadAccepted 验证合法图片被上传，URL 注入 context，表单字段可读
func TestUploadAccepted(t *testing.T) {
	up := newFakeUploader()
	var images []string
	var name string
	h := Upload(up, "articles", 3)(captureHandler(&images, &name))

	code, _ := run(h, multipartRequest(t, map[string]string{"name": "card"},
		part{"image/png", pngBytes}, part{"image/jpeg", jpegBytes}))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "card", name)
	require.Len(t, images, 2)
	assert.True(t, strings.HasPrefix(images[0], "http://cdn.test/articles/"))
	assert.True(t, strings.HasSuffix(images[0], ".png"))
	assert.True(t, strings.HasSuffix(images[1], ".jpg"))
	assert.Len(t, up.objects, 2)
}

// TestUploadRejected 验证格式、大小、数量限制
func TestUploadRejected(t *testing.T) {
	big := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, MaxFileSize)...)

	tests := []struct {
		name     string
		maxFiles int
		parts    []part
		status   int
		message  string
	}{
		{"gif", 1, []part{{"image/gif", []byte("GIF89a")}}, 400, "unsupported file format"},
		{"declared png but text", 1, []part{{"image/png", []byte("hello world")}}, 400, "unsupported file format"},
		{"too large", 3, []part{{"image/png", big}}, 400, "file too large"},
		{"too many for product", 1, []part{{"image/png", pngBytes}, {"image/png", pngBytes}}, 400, "at most 1 image(s) allowed"},
		{"too many for article", 3, []part{{"image/png", pngBytes}, {"image/png", pngBytes}, {"image/png", pngBytes}, {"image/png", pngBytes}}, 400, "at most 3 image(s) allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := newFakeUploader()
			var images []string
			var name string
			h := Upload(up, "products", tt.maxFiles)(captureHandler(&images, &name))

			code, msg := run(h, multipartRequest(t, nil, tt.parts...))
			assert.Equal(t, tt.status, code)
			assert.Equal(t, tt.message, msg)
			assert.Empty(t, up.objects)
		})
	}
}

// TestUploadPassThrough 验证非 multipart 或无文件请求直接放行
func TestUploadPassThrough(t *testing.T) {
	var images []string
	var name string
	h := Upload(nil, "products", 1)(captureHandler(&images, &name))

	r := httptest.NewRequest(http.MethodPatch, "/products/x", strings.NewReader(`{"name":"a"}`))
	r.Header.Set("Content-Type", "application/json")
	code, _ := run(h, r)
	assert.Equal(t, http.StatusOK, code)
	assert.Nil(t, images)

	code, _ = run(h, multipartRequest(t, map[string]string{"name": "only-fields"}))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "only-fields", name)
	assert.Nil(t, images)
}

// TestUploadWithoutStorage 验证未配置对象存储时带文件的请求失败
func TestUploadWithoutStorage(t *testing.T) {
	var images []string
	var name string
	h := Upload(nil, "products", 1)(captureHandler(&images, &name))

	code, msg := run(h, multipartRequest(t, nil, part{"image/png", pngBytes}))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal error", msg)
}

// TestUploadRollback 验证部分上传失败时清理已上传对象
func TestUploadRollback(t *testing.T) {
	up := newFakeUploader()
	up.failAt = 2
	var images []string
	var name string
	h := Upload(up, "articles", 3)(captureHandler(&images, &name))

	code, _ := run(h, multipartRequest(t, nil, part{"image/png", pngBytes}, part{"image/png", pngBytes}))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Empty(t, up.objects)
}

func TestBadMultipart(t *testing.T) {
	var images []string
	var name string
	h := Upload(newFakeUploader(), "products", 1)(captureHandler(&images, &name))

	r := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader("garbage"))
	r.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	code, msg := run(h, r)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid multipart form", msg)
}
