// Package mongostore 实现基于 MongoDB 的 PersistentStore
//
// 使用 mongo-go-driver v2，通过 bson tag 实现 model 结构体的序列化/反序列化。
// 所有 Collection 名称和索引在 ensureIndexes 中统一管理。
// 写入前调用 model 的 Validate 作为 schema 校验层，唯一性由唯一索引保证。
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"cardshop/internal/shared/model"
	"cardshop/internal/shared/storage"
	"cardshop/pkg/logging"
)

// Collection 名称常量
const (
	ColUsers    = "users"
	ColProducts = "products"
	ColArticles = "articles"
)

// Store 实现 storage.PersistentStore 接口的 MongoDB 驱动
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
	log    *logging.Logger
}

var _ storage.PersistentStore = (*Store)(nil)

// NewStore 创建 MongoDB 存储实例
//
// uri: MongoDB 连接 URI，如 "mongodb://localhost:27017"
// dbName: 数据库名称，如 "cardshop"
// logger: 查询日志，nil 时使用默认日志器
func NewStore(uri, dbName string, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Default("mongostore")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect failed: %w", err)
	}

	// 验证连接
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: ping failed: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{client: client, db: db, now: time.Now, log: logger}

	// 唯一索引是 account/email/phone 唯一性的唯一保证，创建失败直接报错
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: ensure indexes failed: %w", err)
	}
	log.Printf("[mongostore] Connected to database %s", dbName)

	return s, nil
}

// Close 关闭 MongoDB 连接
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ping 探活（健康检查用）
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// collection 带查询日志的 Collection
type collection struct {
	*mongo.Collection
	log *logging.Logger
}

// col 获取指定 Collection
func (s *Store) col(name string) collection {
	return collection{Collection: s.db.Collection(name), log: s.log}
}

// observe 记录一次数据库操作；未命中、唯一键冲突和校验失败按正常结果记录
func (c collection) observe(ctx context.Context, op string, start time.Time, errp *error) {
	err := *errp
	var verr *model.ValidationError
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrDuplicate) || errors.As(err, &verr) {
		err = nil
	}
	c.log.WithContext(ctx).DBQueryLog(op, c.Name(), time.Since(start), err)
}

// ensureIndexes 创建所有必要的索引
func (s *Store) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col    string
		keys   bson.D
		unique bool
	}

	indexes := []idx{
		// users
		{ColUsers, bson.D{{Key: "account", Value: 1}}, true},
		{ColUsers, bson.D{{Key: "email", Value: 1}}, true},
		{ColUsers, bson.D{{Key: "phone", Value: 1}}, true},

		// products
		{ColProducts, bson.D{{Key: "sell", Value: 1}, {Key: "createdAt", Value: -1}}, false},

		// articles
		{ColArticles, bson.D{{Key: "sell", Value: 1}, {Key: "createdAt", Value: -1}}, false},
	}

	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys}
		if i.unique {
			model.Options = options.Index().SetUnique(true)
		}
		if _, err := s.col(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col, err)
		}
	}

	return nil
}
