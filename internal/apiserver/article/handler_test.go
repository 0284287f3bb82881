package article

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cardshop/internal/apiserver/httpx"
	"cardshop/internal/apiserver/media"
	"cardshop/internal/shared/model"
	"cardshop/internal/shared/storage/memstore"
	"cardshop/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	httpx.SetLogger(logging.Discard())
}

func request(method, path, id, body string, images []string) *http.Request {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	if id != "" {
		r.SetPathValue("id", id)
	}
	return r.WithContext(media.WithImages(r.Context(), images))
}

func call(fn http.HandlerFunc, r *http.Request) (int, httpx.Envelope) {
	rec := httptest.NewRecorder()
	fn(rec, r)
	var env httpx.Envelope
	json.Unmarshal(rec.Body.Bytes(), &env)
	return rec.Code, env
}

// TestCreateValidation 日期解析失败报告为 date 字段错误
func TestCreateValidation(t *testing.T) {
	h := NewHandler(memstore.NewStore(), nil, nil)
	images := []string{"http://cdn.test/articles/a.png"}

	tests := []struct {
		name     string
		body     string
		images   []string
		wantCode int
		wantMsg  string
	}{
		{"ok", `{"title":"T","author":"A","date":"2024-05-01","description":"D","category":"學校認同","sell":true}`, images, http.StatusOK, ""},
		{"rfc3339 date", `{"title":"T","author":"A","date":"2024-05-01T08:00:00Z","description":"D","category":"學校認同","sell":false}`, images, http.StatusOK, ""},
		{"bad date", `{"title":"T","author":"A","date":"May 1st","description":"D","category":"學校認同","sell":true}`, images, http.StatusBadRequest, "date must be a date"},
		{"missing title first", `{"author":"A","date":"bad","description":"D"}`, nil, http.StatusBadRequest, "title is required"},
		{"no image", `{"title":"T","author":"A","date":"2024-05-01","description":"D","category":"學校認同","sell":true}`, nil, http.StatusBadRequest, "image is required"},
		{"bad json", `{"title":`, images, http.StatusBadRequest, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := call(h.Create, request(http.MethodPost, "/articles", "", tt.body, tt.images))
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantMsg, env.Message)
		})
	}
}

// TestUpdateKeepsImages 没有上传时保留原图，上传后整体替换
func TestUpdateKeepsImages(t *testing.T) {
	store := memstore.NewStore()
	h := NewHandler(store, nil, nil)
	listed := true
	a := &model.Article{
		Title:       "Launch",
		Author:      "staff",
		Image:       []string{"a.png", "b.png"},
		Date:        time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Description: "new cards",
		Category:    model.CategorySchool,
		Sell:        &listed,
	}
	require.NoError(t, store.CreateArticle(context.Background(), a))
	id := a.ID.Hex()
	body := `{"title":"Launch 2","author":"staff","date":"2024-06-01","description":"more","category":"學校認同","sell":true}`

	code, env := call(h.Update, request(http.MethodPatch, "/articles/"+id, id, body, nil))
	require.Equal(t, http.StatusOK, code, env.Message)
	got, _ := store.GetArticle(context.Background(), a.ID)
	assert.Equal(t, "Launch 2", got.Title)
	assert.Equal(t, []string{"a.png", "b.png"}, got.Image)

	code, _ = call(h.Update, request(http.MethodPatch, "/articles/"+id, id, body, []string{"c.png"}))
	require.Equal(t, http.StatusOK, code)
	got, _ = store.GetArticle(context.Background(), a.ID)
	assert.Equal(t, []string{"c.png"}, got.Image)
	assert.True(t, got.CreatedAt.Equal(a.CreatedAt))
}

// TestPublicVisibility 未上架文章对前台返回 404，列表不包含
func TestPublicVisibility(t *testing.T) {
	store := memstore.NewStore()
	h := NewHandler(store, nil, nil)
	hidden := false
	a := &model.Article{
		Title:       "Draft",
		Author:      "staff",
		Image:       []string{"a.png"},
		Date:        time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Description: "wip",
		Category:    model.CategoryCharity,
		Sell:        &hidden,
	}
	require.NoError(t, store.CreateArticle(context.Background(), a))

	code, env := call(h.Get, request(http.MethodGet, "/articles/"+a.ID.Hex(), a.ID.Hex(), "", nil))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "article not found", env.Message)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/articles", nil))
	assert.JSONEq(t, `{"success":true,"message":"","result":{"data":[],"total":0}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ListAll(rec, httptest.NewRequest(http.MethodGet, "/articles/all", nil))
	assert.Contains(t, rec.Body.String(), `"total":1`)
}
