// Package product 商品领域 - HTTP 处理
package product

import (
	"net/http"

	"cardshop/internal/apiserver/auth"
	"cardshop/internal/apiserver/httpx"
	"cardshop/internal/apiserver/media"
	"cardshop/internal/shared/model"
	"cardshop/internal/shared/storage"
)

const notFoundMsg = "product not found"

// Handler 商品处理器
type Handler struct {
	store    storage.ProductStore
	gate     *auth.Gate
	uploader media.Uploader
}

// NewHandler 创建商品处理器；uploader 为 nil 时带图片的请求返回内部错误
func NewHandler(store storage.ProductStore, gate *auth.Gate, uploader media.Uploader) *Handler {
	return &Handler{store: store, gate: gate, uploader: uploader}
}

// RegisterRoutes 注册商品路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	upload := media.Upload(h.uploader, "products", model.ProductMaxImages)
	admin := func(next http.Handler) http.Handler {
		return h.gate.Protect(next, auth.StrategyBearer, model.UserRoleAdmin)
	}

	mux.Handle("POST /products", admin(upload(http.HandlerFunc(h.Create))))
	mux.Handle("GET /products/all", admin(http.HandlerFunc(h.ListAll)))
	mux.Handle("PATCH /products/{id}", admin(upload(http.HandlerFunc(h.Update))))
	mux.Handle("DELETE /products/{id}", admin(http.HandlerFunc(h.Delete)))

	mux.HandleFunc("GET /products", h.List)
	mux.HandleFunc("GET /products/{id}", h.Get)
}

// ============================================================================
// 管理端
// ============================================================================

// Create 创建商品
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := bind(w, r, "")
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	if err := h.store.CreateProduct(r.Context(), p); err != nil {
		httpx.Fail(w, r, httpx.StoreError(err, notFoundMsg))
		return
	}
	httpx.OK(w, http.StatusOK, "", p)
}

// ListAll 全部商品（含未上架）
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

// Update 整体更新商品，未上传新图片时沿用原图
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParseID(r.PathValue("id"))
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	existing, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		httpx.Fail(w, r, httpx.StoreError(err, notFoundMsg))
		return
	}
	if existing == nil {
		httpx.Fail(w, r, httpx.StoreError(storage.ErrNotFound, notFoundMsg))
		return
	}

	p, err := bind(w, r, existing.Image)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	p.ID = id
	if err := h.store.UpdateProduct(r.Context(), p); err != nil {
		httpx.Fail(w, r, httpx.StoreError(err, notFoundMsg))
		return
	}
	p.CreatedAt = existing.CreatedAt
	httpx.OK(w, http.StatusOK, "", p)
}

// Delete 删除商品
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParseID(r.PathValue("id"))
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	if err := h.store.DeleteProduct(r.Context(), id); err != nil {
		httpx.Fail(w, r, httpx.StoreError(err, notFoundMsg))
		return
	}
	httpx.OK(w, http.StatusOK, "", nil)
}

// ============================================================================
// 前台
// ============================================================================

// List 已上架商品列表
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

// Get 单个商品；未上架的商品对前台不可见
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParseID(r.PathValue("id"))
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	p, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		httpx.Fail(w, r, httpx.StoreError(err, notFoundMsg))
		return
	}
	if p == nil || !p.Listed() {
		httpx.Fail(w, r, httpx.StoreError(storage.ErrNotFound, notFoundMsg))
		return
	}
	httpx.OK(w, http.StatusOK, "", p)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, listedOnly bool) {
	q := httpx.ParseListQuery(r)
	q.ListedOnly = listedOnly
	items, total, err := h.store.ListProducts(r.Context(), q)
	if err != nil {
		httpx.Fail(w, r, httpx.StoreError(err, notFoundMsg))
		return
	}
	if items == nil {
		items = []*model.Product{}
	}
	httpx.OK(w, http.StatusOK, "", httpx.ListResult[*model.Product]{Data: items, Total: total})
}

// bind 从请求体构造商品，image 取上传结果，没有上传时使用 fallbackImage
func bind(w http.ResponseWriter, r *http.Request, fallbackImage string) (*model.Product, error) {
	form, err := httpx.ParseForm(w, r)
	if err != nil {
		return nil, err
	}
	p := &model.Product{
		Name:        form.String("name"),
		Price:       form.Float("price"),
		Image:       fallbackImage,
		Description: form.String("description"),
		Category:    model.Category(form.String("category")),
		Sell:        form.Bool("sell"),
	}
	if images := media.Images(r.Context()); len(images) > 0 {
		p.Image = images[0]
	}
	if err := form.Resolve(p.Validate()); err != nil {
		return nil, err
	}
	return p, nil
}
