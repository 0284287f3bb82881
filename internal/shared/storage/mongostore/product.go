package mongostore

import (
	"context"

	"cardshop/internal/shared/model"
	"cardshop/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ============================================================================
// ProductStore
// ============================================================================

var productSortable = map[string]bool{
	"createdAt": true,
	"updatedAt": true,
	"name":      true,
	"price":     true,
	"category":  true,
	"sell":      true,
}

func (s *Store) CreateProduct(ctx context.Context, p *model.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID.IsZero() {
		p.ID = bson.NewObjectID()
	}
	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	return insertOne(ctx, s.col(ColProducts), p)
}

func (s *Store) GetProduct(ctx context.Context, id bson.ObjectID) (*model.Product, error) {
	return findOne[model.Product](ctx, s.col(ColProducts), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []bson.ObjectID) ([]*model.Product, error) {
	if len(ids) == 0 {
		return []*model.Product{}, nil
	}
	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}
	return findMany[model.Product](ctx, s.col(ColProducts), filter)
}

// ListProducts 列出商品
//
// total 与原系统一致：前台为上架商品总数，后台为集合估算总数，均不受 search 影响。
func (s *Store) ListProducts(ctx context.Context, q storage.ListQuery) ([]*model.Product, int64, error) {
	q = q.Normalize()
	col := s.col(ColProducts)

	filter := bson.D{}
	if q.ListedOnly {
		filter = append(filter, bson.E{Key: "sell", Value: true})
	}
	if q.Search != "" {
		filter = append(filter, searchFilter(q.Search, "name", "description"))
	}

	items, err := findMany[model.Product](ctx, col, filter, listOptions(q, productSortable))
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if q.ListedOnly {
		total, err = col.CountDocuments(ctx, bson.D{{Key: "sell", Value: true}})
	} else {
		total, err = col.EstimatedDocumentCount(ctx)
	}
	if err != nil {
		return nil, 0, wrapError(ColProducts, err)
	}
	return items, total, nil
}

func (s *Store) UpdateProduct(ctx context.Context, p *model.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.UpdatedAt = s.now()
	return updateFields(ctx, s.col(ColProducts), p.ID, bson.D{
		{Key: "name", Value: p.Name},
		{Key: "price", Value: p.Price},
		{Key: "image", Value: p.Image},
		{Key: "description", Value: p.Description},
		{Key: "category", Value: p.Category},
		{Key: "sell", Value: p.Sell},
		{Key: "updatedAt", Value: p.UpdatedAt},
	})
}

func (s *Store) DeleteProduct(ctx context.Context, id bson.ObjectID) error {
	return deleteByID(ctx, s.col(ColProducts), id)
}
