package mongostore

import (
	"context"

	"cardshop/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	// nil 切片会被编码为 null，之后的 $push 会失败
	if user.Tokens == nil {
		user.Tokens = []string{}
	}
	if user.Cart == nil {
		user.Cart = []model.CartItem{}
	}
	now := s.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	return insertOne(ctx, s.col(ColUsers), user)
}

func (s *Store) GetUserByID(ctx context.Context, id bson.ObjectID) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) GetUserByAccount(ctx context.Context, account string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "account", Value: account}})
}

func (s *Store) GetUserByToken(ctx context.Context, id bson.ObjectID, token string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{
		{Key: "_id", Value: id},
		{Key: "tokens", Value: token},
	})
}

func (s *Store) PushToken(ctx context.Context, id bson.ObjectID, token string) error {
	return updateOne(ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}}, bson.D{
		{Key: "$push", Value: bson.D{{Key: "tokens", Value: token}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: s.now()}}},
	})
}

// PullToken 令牌内含随机 jti，列表中不会出现重复值，$pull 即只移除一个
func (s *Store) PullToken(ctx context.Context, id bson.ObjectID, token string) error {
	filter := bson.D{{Key: "_id", Value: id}, {Key: "tokens", Value: token}}
	return updateOne(ctx, s.col(ColUsers), filter, bson.D{
		{Key: "$pull", Value: bson.D{{Key: "tokens", Value: token}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: s.now()}}},
	})
}

// ReplaceToken 位置运算符 $ 原地替换，过滤条件即 compare-and-swap
func (s *Store) ReplaceToken(ctx context.Context, id bson.ObjectID, oldToken, newToken string) error {
	filter := bson.D{{Key: "_id", Value: id}, {Key: "tokens", Value: oldToken}}
	return updateOne(ctx, s.col(ColUsers), filter, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "tokens.$", Value: newToken},
			{Key: "updatedAt", Value: s.now()},
		}},
	})
}

func (s *Store) ClearTokens(ctx context.Context, id bson.ObjectID) error {
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "tokens", Value: []string{}},
		{Key: "updatedAt", Value: s.now()},
	})
}

func (s *Store) UpdatePassword(ctx context.Context, id bson.ObjectID, passwordHash string) error {
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "password", Value: passwordHash},
		{Key: "updatedAt", Value: s.now()},
	})
}

func (s *Store) UpdateCart(ctx context.Context, id bson.ObjectID, cart []model.CartItem) error {
	if err := model.ValidateCart(cart); err != nil {
		return err
	}
	if cart == nil {
		cart = []model.CartItem{}
	}
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "cart", Value: cart},
		{Key: "updatedAt", Value: s.now()},
	})
}

func (s *Store) UpdateRole(ctx context.Context, id bson.ObjectID, role model.UserRole) error {
	if !role.Valid() {
		return model.NewFieldError("role", "invalid role")
	}
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "role", Value: role},
		{Key: "updatedAt", Value: s.now()},
	})
}
