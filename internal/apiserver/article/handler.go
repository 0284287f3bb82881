// Package article 文章领域 - HTTP 处理
package article

import (
	"net/http"

	"cardshop/internal/apiserver/auth"
	"cardshop/internal/apiserver/httpx"
	"cardshop/internal/apiserver/media"
	"cardshop/internal/shared/model"
	"cardshop/internal/shared/storage"
)

const notFoundMsg = "article not found"

// Handler 文章处理器
type Handler struct {
	store    storage.ArticleStore
	gate     *auth.Gate
	uploader media.Uploader
}

// NewHandler 创建文章处理器
func NewHandler(store storage.ArticleStore, gate *auth.Gate, uploader media.Uploader) *Handler {
	return &Handler{store: store, gate: gate, uploader: uploader}
}

// RegisterRoutes 注册文章路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	upload := media.Upload(h.uploader, "articles", model.ArticleMaxImages)
	admin := func(next http.Handler) http.Handler {
		return h.gate.Protect(next, auth.StrategyBearer, model.UserRoleAdmin)
	}

	mux.Handle("POST /articles", admin(upload(http.HandlerFunc(h.Create))))
	mux.Handle("GET /articles/all", admin(http.HandlerFunc(h.ListAll)))
	mux.Handle("PATCH /articles/{id}", admin(upload(http.HandlerFunc(h.Update))))
	mux.Handle("DELETE /articles/{id}", admin(http.HandlerFunc(h.Delete)))

	mux.HandleFunc("GET /articles", h.List)
	mux.HandleFunc("GET /articles/{id}", h.Get)
}

// Create 创建文章
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	a, err := bind(w, r, nil)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	if err := h.store.CreateArticle(r.Context(), a); err != nil {
		httpx.Fail(w, r, httpx.StoreError(err, notFoundMsg))
		return
	}
	httpx.OK(w, http.StatusOK, "", a)
}

// ListAll 全部文章
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

// List 已上架文章
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

// Get 单篇文章，未上架的对前台返回不存在
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.load(r)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	if !a.Listed() {
		httpx.Fail(w, r, httpx.StoreError(storage.ErrNotFound, notFoundMsg))
		return
	}
	httpx.OK(w, http.StatusOK, "", a)
}

// Update 整体更新；没有上传图片时保留原有图片
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	existing, err := h.load(r)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	a, err := bind(w, r, existing.Image)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	a.ID = existing.ID
	if err := h.store.UpdateArticle(r.Context(), a); err != nil {
		httpx.Fail(w, r, httpx.StoreError(err, notFoundMsg))
		return
	}
	a.CreatedAt = existing.CreatedAt
	httpx.OK(w, http.StatusOK, "", a)
}

// Delete 删除文章
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParseID(r.PathValue("id"))
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	if err := h.store.DeleteArticle(r.Context(), id); err != nil {
		httpx.Fail(w, r, httpx.StoreError(err, notFoundMsg))
		return
	}
	httpx.OK(w, http.StatusOK, "", nil)
}

func (h *Handler) load(r *http.Request) (*model.Article, error) {
	id, err := httpx.ParseID(r.PathValue("id"))
	if err != nil {
		return nil, err
	}
	a, err := h.store.GetArticle(r.Context(), id)
	if err != nil {
		return nil, httpx.StoreError(err, notFoundMsg)
	}
	if a == nil {
		return nil, httpx.StoreError(storage.ErrNotFound, notFoundMsg)
	}
	return a, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, listedOnly bool) {
	q := httpx.ParseListQuery(r)
	q.ListedOnly = listedOnly
	items, total, err := h.store.ListArticles(r.Context(), q)
	if err != nil {
		httpx.Fail(w, r, httpx.StoreError(err, notFoundMsg))
		return
	}
	if items == nil {
		items = []*model.Article{}
	}
	httpx.OK(w, http.StatusOK, "", httpx.ListResult[*model.Article]{Data: items, Total: total})
}

func bind(w http.ResponseWriter, r *http.Request, fallbackImages []string) (*model.Article, error) {
	form, err := httpx.ParseForm(w, r)
	if err != nil {
		return nil, err
	}
	a := &model.Article{
		Title:       form.String("title"),
		Author:      form.String("author"),
		Image:       fallbackImages,
		Date:        form.Time("date"),
		Description: form.String("description"),
		Category:    model.Category(form.String("category")),
		Sell:        form.Bool("sell"),
	}
	if images := media.Images(r.Context()); len(images) > 0 {
		a.Image = images
	}
	if err := form.Resolve(a.Validate()); err != nil {
		return nil, err
	}
	return a, nil
}
