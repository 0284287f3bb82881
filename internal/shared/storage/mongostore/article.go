package mongostore

import (
	"context"

	"cardshop/internal/shared/model"
	"cardshop/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ============================================================================
// ArticleStore
// ============================================================================

var articleSortable = map[string]bool{
	"createdAt": true,
	"updatedAt": true,
	"title":     true,
	"author":    true,
	"date":      true,
	"category":  true,
	"sell":      true,
}

func (s *Store) CreateArticle(ctx context.Context, a *model.Article) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.ID.IsZero() {
		a.ID = bson.NewObjectID()
	}
	now := s.now()
	a.CreatedAt = now
	a.UpdatedAt = now
	return insertOne(ctx, s.col(ColArticles), a)
}

func (s *Store) GetArticle(ctx context.Context, id bson.ObjectID) (*model.Article, error) {
	return findOne[model.Article](ctx, s.col(ColArticles), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) ListArticles(ctx context.Context, q storage.ListQuery) ([]*model.Article, int64, error) {
	q = q.Normalize()
	col := s.col(ColArticles)

	filter := bson.D{}
	if q.ListedOnly {
		filter = append(filter, bson.E{Key: "sell", Value: true})
	}
	if q.Search != "" {
		filter = append(filter, searchFilter(q.Search, "title", "description"))
	}

	items, err := findMany[model.Article](ctx, col, filter, listOptions(q, articleSortable))
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
		return nil, 0, wrapError(ColArticles, err)
	}
	return items, total, nil
}

func (s *Store) UpdateArticle(ctx context.Context, a *model.Article) error {
	if err := a.Validate(); err != nil {
		return err
	}
	a.UpdatedAt = s.now()
	return updateFields(ctx, s.col(ColArticles), a.ID, bson.D{
		{Key: "title", Value: a.Title},
		{Key: "author", Value: a.Author},
		{Key: "image", Value: a.Image},
		{Key: "date", Value: a.Date},
		{Key: "description", Value: a.Description},
		{Key: "category", Value: a.Category},
		{Key: "sell", Value: a.Sell},
		{Key: "updatedAt", Value: a.UpdatedAt},
	})
}

func (s *Store) DeleteArticle(ctx context.Context, id bson.ObjectID) error {
	return deleteByID(ctx, s.col(ColArticles), id)
}
