// Package memstore 内存版 PersistentStore
//
// 行为与 mongostore 保持一致（schema 校验、唯一键、令牌列表原子修改、
// 列表搜索/排序/分页），用于开发环境（database.driver=memory）和测试。
// 所有读写都做深拷贝，调用方修改返回值不会影响存储内容。
package memstore

import (
	"cmp"
	"slices"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"cardshop/internal/shared/model"
	"cardshop/internal/shared/storage"
)

// Store 内存存储
type Store struct {
	mu       sync.RWMutex
	users    map[bson.ObjectID]*model.User
	products map[bson.ObjectID]*model.Product
	articles map[bson.ObjectID]*model.Article
	now      func() time.Time
}

var _ storage.PersistentStore = (*Store)(nil)

// NewStore 创建空的内存存储
func NewStore() *Store {
	return &Store{
		users:    make(map[bson.ObjectID]*model.User),
		products: make(map[bson.ObjectID]*model.Product),
		articles: make(map[bson.ObjectID]*model.Article),
		now:      time.Now,
	}
}

// SetClock 替换时间来源（测试用）
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Close 无资源需要释放
func (s *Store) Close() error {
	return nil
}

// ============================================================================
// 拷贝辅助
// ============================================================================

func cloneUser(u *model.User) *model.User {
	c := *u
	c.Tokens = slices.Clone(u.Tokens)
	c.Cart = slices.Clone(u.Cart)
	c.Password = ""
	if c.Tokens == nil {
		c.Tokens = []string{}
	}
	if c.Cart == nil {
		c.Cart = []model.CartItem{}
	}
	return &c
}

func cloneProduct(p *model.Product) *model.Product {
	c := *p
	if p.Price != nil {
		v := *p.Price
		c.Price = &v
	}
	if p.Sell != nil {
		v := *p.Sell
		c.Sell = &v
	}
	return &c
}

func cloneArticle(a *model.Article) *model.Article {
	c := *a
	c.Image = slices.Clone(a.Image)
	if a.Sell != nil {
		v := *a.Sell
		c.Sell = &v
	}
	return &c
}

// ============================================================================
// 列表辅助
// ============================================================================

// containsFold 不区分大小写的子串匹配
func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// paginate 按 ListQuery 截取一页
func paginate[T any](items []T, q storage.ListQuery) []T {
	if q.PageSize == storage.PageSizeAll {
		return items
	}
	start := int(q.Skip())
	if start >= len(items) {
		return []T{}
	}
	end := start + min(q.PageSize, len(items)-start)
	return items[start:end]
}

// sortBy 按排序键排序，键相同时按 ID 保证稳定
func sortBy[T any](items []T, order int, key func(T) sortKey, id func(T) bson.ObjectID) {
	slices.SortStableFunc(items, func(a, b T) int {
		c := key(a).compare(key(b))
		if c == 0 {
			c = strings.Compare(id(a).Hex(), id(b).Hex())
		}
		return c * order
	})
}

// sortKey 可比较的排序键，只会用到其中一个字段
type sortKey struct {
	s string
	f float64
	t time.Time
}

func (k sortKey) compare(o sortKey) int {
	if c := strings.Compare(k.s, o.s); c != 0 {
		return c
	}
	if c := cmp.Compare(k.f, o.f); c != 0 {
		return c
	}
	return k.t.Compare(o.t)
}

func boolKey(b *bool) sortKey {
	if b != nil && *b {
		return sortKey{f: 1}
	}
	return sortKey{}
}
