package memstore

import (
	"context"
	"slices"

	"go.mongodb.org/mongo-driver/v2/bson"

	"cardshop/internal/shared/model"
	"cardshop/internal/shared/storage"
)

func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 唯一键检查，顺序与 schema 一致
	for _, existing := range s.users {
		switch {
		case existing.Account == user.Account:
			return model.NewFieldError("account", "account already exists")
		case existing.Email == user.Email:
			return model.NewFieldError("email", "email already exists")
		case existing.Phone == user.Phone:
			return model.NewFieldError("phone", "phone already exists")
		}
	}

	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	if _, ok := s.users[user.ID]; ok {
		return storage.ErrDuplicate
	}
	now := s.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Tokens == nil {
		user.Tokens = []string{}
	}
	if user.Cart == nil {
		user.Cart = []model.CartItem{}
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id bson.ObjectID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, nil
}

func (s *Store) GetUserByAccount(_ context.Context, account string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Account == account {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (s *Store) GetUserByToken(_ context.Context, id bson.ObjectID, token string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok && u.HasToken(token) {
		return cloneUser(u), nil
	}
	return nil, nil
}

// mutateUser 在写锁内修改用户，不存在时返回 ErrNotFound
func (s *Store) mutateUser(id bson.ObjectID, fn func(u *model.User) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	if err := fn(u); err != nil {
		return err
	}
	u.UpdatedAt = s.now()
	return nil
}

func (s *Store) PushToken(_ context.Context, id bson.ObjectID, token string) error {
	return s.mutateUser(id, func(u *model.User) error {
		u.Tokens = append(u.Tokens, token)
		return nil
	})
}

func (s *Store) PullToken(_ context.Context, id bson.ObjectID, token string) error {
	return s.mutateUser(id, func(u *model.User) error {
		i := slices.Index(u.Tokens, token)
		if i < 0 {
			return storage.ErrNotFound
		}
		u.Tokens = slices.Delete(u.Tokens, i, i+1)
		return nil
	})
}

func (s *Store) ReplaceToken(_ context.Context, id bson.ObjectID, oldToken, newToken string) error {
	return s.mutateUser(id, func(u *model.User) error {
		i := slices.Index(u.Tokens, oldToken)
		if i < 0 {
			return storage.ErrNotFound
		}
		u.Tokens[i] = newToken
		return nil
	})
}

func (s *Store) ClearTokens(_ context.Context, id bson.ObjectID) error {
	return s.mutateUser(id, func(u *model.User) error {
		u.Tokens = []string{}
		return nil
	})
}

func (s *Store) UpdatePassword(_ context.Context, id bson.ObjectID, passwordHash string) error {
	return s.mutateUser(id, func(u *model.User) error {
		u.PasswordHash = passwordHash
		return nil
	})
}

func (s *Store) UpdateCart(_ context.Context, id bson.ObjectID, cart []model.CartItem) error {
	if err := model.ValidateCart(cart); err != nil {
		return err
	}
	return s.mutateUser(id, func(u *model.User) error {
		u.Cart = slices.Clone(cart)
		if u.Cart == nil {
			u.Cart = []model.CartItem{}
		}
		return nil
	})
}

func (s *Store) UpdateRole(_ context.Context, id bson.ObjectID, role model.UserRole) error {
	if !role.Valid() {
		return model.NewFieldError("role", "invalid role")
	}
	return s.mutateUser(id, func(u *model.User) error {
		u.Role = role
		return nil
	})
}
