package memstore

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"cardshop/internal/shared/model"
	"cardshop/internal/shared/storage"
)

// ============================================================================
// ProductStore
// ============================================================================

func productSortKey(field string) func(*model.Product) sortKey {
	switch field {
	case "updatedAt":
		return func(p *model.Product) sortKey { return sortKey{t: p.UpdatedAt} }
	case "name":
		return func(p *model.Product) sortKey { return sortKey{s: p.Name} }
	case "price":
		return func(p *model.Product) sortKey {
			if p.Price == nil {
				return sortKey{}
			}
			return sortKey{f: *p.Price}
		}
	case "category":
		return func(p *model.Product) sortKey { return sortKey{s: string(p.Category)} }
	case "sell":
		return func(p *model.Product) sortKey { return boolKey(p.Sell) }
	default:
		return func(p *model.Product) sortKey { return sortKey{t: p.CreatedAt} }
	}
}

func (s *Store) CreateProduct(_ context.Context, p *model.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = bson.NewObjectID()
	}
	if _, ok := s.products[p.ID]; ok {
		return storage.ErrDuplicate
	}
	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.products[p.ID] = cloneProduct(p)
	return nil
}

func (s *Store) GetProduct(_ context.Context, id bson.ObjectID) (*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.products[id]; ok {
		return cloneProduct(p), nil
	}
	return nil, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []bson.ObjectID) ([]*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*model.Product{}
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, cloneProduct(p))
		}
	}
	return out, nil
}

func (s *Store) ListProducts(_ context.Context, q storage.ListQuery) ([]*model.Product, int64, error) {
	q = q.Normalize()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	matched := []*model.Product{}
	for _, p := range s.products {
		if q.ListedOnly && !p.Listed() {
			continue
		}
		total++
		if q.Search != "" && !containsFold(p.Name, q.Search) && !containsFold(p.Description, q.Search) {
			continue
		}
		matched = append(matched, cloneProduct(p))
	}
	sortBy(matched, q.SortOrder, productSortKey(q.SortBy), func(p *model.Product) bson.ObjectID { return p.ID })
	return paginate(matched, q), total, nil
}

func (s *Store) UpdateProduct(_ context.Context, p *model.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.products[p.ID]
	if !ok {
		return storage.ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now()
	s.products[p.ID] = cloneProduct(p)
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id bson.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

// ============================================================================
// ArticleStore
// ============================================================================

func articleSortKey(field string) func(*model.Article) sortKey {
	switch field {
	case "updatedAt":
		return func(a *model.Article) sortKey { return sortKey{t: a.UpdatedAt} }
	case "title":
		return func(a *model.Article) sortKey { return sortKey{s: a.Title} }
	case "author":
		return func(a *model.Article) sortKey { return sortKey{s: a.Author} }
	case "date":
		return func(a *model.Article) sortKey { return sortKey{t: a.Date} }
	case "category":
		return func(a *model.Article) sortKey { return sortKey{s: string(a.Category)} }
	case "sell":
		return func(a *model.Article) sortKey { return boolKey(a.Sell) }
	default:
		return func(a *model.Article) sortKey { return sortKey{t: a.CreatedAt} }
	}
}

func (s *Store) CreateArticle(_ context.Context, a *model.Article) error {
	if err := a.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID.IsZero() {
		a.ID = bson.NewObjectID()
	}
	if _, ok := s.articles[a.ID]; ok {
		return storage.ErrDuplicate
	}
	now := s.now()
	a.CreatedAt = now
	a.UpdatedAt = now
	s.articles[a.ID] = cloneArticle(a)
	return nil
}

func (s *Store) GetArticle(_ context.Context, id bson.ObjectID) (*model.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.articles[id]; ok {
		return cloneArticle(a), nil
	}
	return nil, nil
}

func (s *Store) ListArticles(_ context.Context, q storage.ListQuery) ([]*model.Article, int64, error) {
	q = q.Normalize()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	matched := []*model.Article{}
	for _, a := range s.articles {
		if q.ListedOnly && !a.Listed() {
			continue
		}
		total++
		if q.Search != "" && !containsFold(a.Title, q.Search) && !containsFold(a.Description, q.Search) {
			continue
		}
		matched = append(matched, cloneArticle(a))
	}
	sortBy(matched, q.SortOrder, articleSortKey(q.SortBy), func(a *model.Article) bson.ObjectID { return a.ID })
	return paginate(matched, q), total, nil
}

func (s *Store) UpdateArticle(_ context.Context, a *model.Article) error {
	if err := a.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.articles[a.ID]
	if !ok {
		return storage.ErrNotFound
	}
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = s.now()
	s.articles[a.ID] = cloneArticle(a)
	return nil
}

func (s *Store) DeleteArticle(_ context.Context, id bson.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.articles, id)
	return nil
}
