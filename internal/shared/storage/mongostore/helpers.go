package mongostore

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"cardshop/internal/shared/model"
	"cardshop/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// uniqueFields 各集合中带唯一索引的字段，顺序即 schema 顺序
var uniqueFields = map[string][]string{
	ColUsers: {"account", "email", "phone"},
}

// wrapError 将 MongoDB 错误转换为领域错误
//
// 唯一键冲突会尽量归属到具体字段，以 *model.ValidationError 返回。
func wrapError(col string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		if field := duplicateField(err, uniqueFields[col]); field != "" {
			return model.NewFieldError(field, field+" already exists")
		}
		return storage.ErrDuplicate
	}
	return err
}

// duplicateField 从 E11000 错误信息中解析冲突的索引字段
// 形如 "E11000 duplicate key error collection: shop.users index: email_1 dup key: {...}"
func duplicateField(err error, fields []string) string {
	msg := err.Error()
	for _, f := range fields {
		if strings.Contains(msg, "index: "+f+"_1") {
			return f
		}
	}
	return ""
}

// findOne 查找单个文档并解码到 result
// 文档不存在时返回 (nil, nil)
func findOne[T any](ctx context.Context, col collection, filter bson.D) (_ *T, err error) {
	defer col.observe(ctx, "findOne", time.Now(), &err)
	var result T
	err = col.FindOne(ctx, filter).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, wrapError(col.Name(), err)
	}
	return &result, nil
}

// findMany 查找多个文档
func findMany[T any](ctx context.Context, col collection, filter bson.D, opts ...options.Lister[options.FindOptions]) (_ []*T, err error) {
	defer col.observe(ctx, "find", time.Now(), &err)
	cursor, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, wrapError(col.Name(), err)
	}
	defer cursor.Close(ctx)

	var results []*T
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, err
		}
		results = append(results, &item)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	if results == nil {
		results = []*T{}
	}
	return results, nil
}

// insertOne 插入单个文档
func insertOne(ctx context.Context, col collection, doc interface{}) (err error) {
	defer col.observe(ctx, "insertOne", time.Now(), &err)
	_, err = col.InsertOne(ctx, doc)
	return wrapError(col.Name(), err)
}

// deleteByID 按 _id 删除
func deleteByID(ctx context.Context, col collection, id bson.ObjectID) (err error) {
	defer col.observe(ctx, "deleteOne", time.Now(), &err)
	res, err := col.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return wrapError(col.Name(), err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// updateOne 按 filter 更新，未命中时返回 ErrNotFound
func updateOne(ctx context.Context, col collection, filter, update bson.D) (err error) {
	defer col.observe(ctx, "updateOne", time.Now(), &err)
	res, err := col.UpdateOne(ctx, filter, update)
	if err != nil {
		return wrapError(col.Name(), err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// updateFields 按 _id 更新指定字段
func updateFields(ctx context.Context, col collection, id bson.ObjectID, update bson.D) error {
	return updateOne(ctx, col, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: update}})
}

// listOptions 将 ListQuery 转换为 Find 选项
// sortable 为允许排序的字段白名单，未知字段回落到 createdAt
func listOptions(q storage.ListQuery, sortable map[string]bool) *options.FindOptionsBuilder {
	sortBy := q.SortBy
	if !sortable[sortBy] {
		sortBy = storage.DefaultSortBy
	}
	opts := options.Find().SetSort(bson.D{
		{Key: sortBy, Value: q.SortOrder},
		{Key: "_id", Value: q.SortOrder},
	})
	if q.PageSize != storage.PageSizeAll {
		opts.SetSkip(q.Skip()).SetLimit(int64(q.PageSize))
	}
	return opts
}

// searchFilter 构建多字段不区分大小写的子串匹配
func searchFilter(search string, fields ...string) bson.E {
	regex := bson.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	or := bson.A{}
	for _, f := range fields {
		or = append(or, bson.D{{Key: f, Value: regex}})
	}
	return bson.E{Key: "$or", Value: or}
}
