// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：mongostore/, memstore/
//   - 初始化时通过依赖注入传入实现
package storage

import (
	"context"
	"math"

	"go.mongodb.org/mongo-driver/v2/bson"

	"cardshop/internal/shared/model"
)

// ============================================================================
// 查询参数
// ============================================================================

// 列表查询默认值
const (
	DefaultSortBy   = "createdAt"
	DefaultPageSize = 20
	// PageSizeAll 表示不分页，返回全部
	PageSizeAll = -1
)

// ListQuery 列表查询参数（搜索 / 排序 / 分页直接透传给存储层）
type ListQuery struct {
	Search     string // 不区分大小写的子串匹配
	SortBy     string // JSON 字段名，如 createdAt、price
	SortOrder  int    // 1 升序，-1 降序
	Page       int    // 从 1 开始
	PageSize   int    // PageSizeAll 表示全部
	ListedOnly bool   // 仅返回 sell == true 的记录（前台列表）
}

// Normalize 填充默认值
func (q ListQuery) Normalize() ListQuery {
	if q.SortBy == "" {
		q.SortBy = DefaultSortBy
	}
	if q.SortOrder != 1 {
		q.SortOrder = -1
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize == 0 || q.PageSize < PageSizeAll {
		q.PageSize = DefaultPageSize
	}
	return q
}

// Skip 需要跳过的记录数，超出 int64 时取最大值
func (q ListQuery) Skip() int64 {
	if q.PageSize <= 0 || q.Page <= 1 {
		return 0
	}
	page, size := int64(q.Page-1), int64(q.PageSize)
	if page > math.MaxInt64/size {
		return math.MaxInt64
	}
	return page * size
}

// ============================================================================
// 领域存储接口
// ============================================================================

// UserStore 用户存储接口（Credential Store）
//
// Get* 在记录不存在时返回 (nil, nil)；更新类操作在记录不存在时返回 ErrNotFound。
// 令牌列表的修改均为单文档原子操作。
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id bson.ObjectID) (*model.User, error)
	GetUserByAccount(ctx context.Context, account string) (*model.User, error)
	// GetUserByToken 仅当 token 仍在该用户的活跃令牌列表中时返回用户
	GetUserByToken(ctx context.Context, id bson.ObjectID, token string) (*model.User, error)
	PushToken(ctx context.Context, id bson.ObjectID, token string) error
	// PullToken 移除一个匹配的令牌；令牌不在列表中时返回 ErrNotFound
	PullToken(ctx context.Context, id bson.ObjectID, token string) error
	// ReplaceToken 在原位置用 newToken 替换 oldToken；oldToken 不在列表中时返回 ErrNotFound
	ReplaceToken(ctx context.Context, id bson.ObjectID, oldToken, newToken string) error
	ClearTokens(ctx context.Context, id bson.ObjectID) error
	UpdatePassword(ctx context.Context, id bson.ObjectID, passwordHash string) error
	UpdateCart(ctx context.Context, id bson.ObjectID, cart []model.CartItem) error
	UpdateRole(ctx context.Context, id bson.ObjectID, role model.UserRole) error
}

// ProductStore 商品存储接口
type ProductStore interface {
	CreateProduct(ctx context.Context, p *model.Product) error
	GetProduct(ctx context.Context, id bson.ObjectID) (*model.Product, error)
	GetProductsByIDs(ctx context.Context, ids []bson.ObjectID) ([]*model.Product, error)
	ListProducts(ctx context.Context, q ListQuery) ([]*model.Product, int64, error)
	// UpdateProduct 整体替换（保留 createdAt）
	UpdateProduct(ctx context.Context, p *model.Product) error
	DeleteProduct(ctx context.Context, id bson.ObjectID) error
}

// ArticleStore 文章存储接口
type ArticleStore interface {
	CreateArticle(ctx context.Context, a *model.Article) error
	GetArticle(ctx context.Context, id bson.ObjectID) (*model.Article, error)
	ListArticles(ctx context.Context, q ListQuery) ([]*model.Article, int64, error)
	UpdateArticle(ctx context.Context, a *model.Article) error
	DeleteArticle(ctx context.Context, id bson.ObjectID) error
}

// ============================================================================
// 组合接口
// ============================================================================

// PersistentStore 持久化存储组合接口
type PersistentStore interface {
	UserStore
	ProductStore
	ArticleStore
	Close() error
}
