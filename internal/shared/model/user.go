package model

import (
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// UserRole 用户角色，数值越大权限越高
type UserRole int

const (
	UserRoleUser  UserRole = 0
	UserRoleAdmin UserRole = 1
)

// Valid 是否为已知角色
func (r UserRole) Valid() bool {
	return r == UserRoleUser || r == UserRoleAdmin
}

// Satisfies 当前角色是否满足 required 要求
func (r UserRole) Satisfies(required UserRole) bool {
	return r >= required
}

func (r UserRole) String() string {
	switch r {
	case UserRoleAdmin:
		return "admin"
	case UserRoleUser:
		return "user"
	default:
		return "unknown"
	}
}

// 账号与密码长度限制
const (
	AccountMinLen  = 4
	AccountMaxLen  = 20
	PasswordMinLen = 4
	PasswordMaxLen = 20
)

// CartMaxQuantity 单个购物车条目的数量上限
const CartMaxQuantity = 1_000_000

// CartItem 购物车条目，Product 为弱引用（只存 ID，查询时关联）
type CartItem struct {
	Product  bson.ObjectID `json:"product" bson:"product"`
	Quantity int           `json:"quantity" bson:"quantity"`
}

// User 用户
type User struct {
	ID           bson.ObjectID `json:"_id" bson:"_id,omitempty"`
	Account      string        `json:"account" bson:"account"`
	Email        string        `json:"email" bson:"email"`
	Phone        string        `json:"phone" bson:"phone"`
	PasswordHash string        `json:"-" bson:"password"` // never expose in JSON
	Role         UserRole      `json:"role" bson:"role"`
	Tokens       []string      `json:"-" bson:"tokens"`
	Cart         []CartItem    `json:"cart" bson:"cart"`
	CreatedAt    time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt" bson:"updatedAt"`

	// Password 待写入的明文密码，只在修改密码时设置，写入前由 credential 包哈希并清空
	Password string `json:"-" bson:"-"`
}

// CartQuantity 购物车商品总数
func (u *User) CartQuantity() int {
	total := 0
	for _, item := range u.Cart {
		total += item.Quantity
	}
	return total
}

// HasToken 是否持有指定的活跃令牌
func (u *User) HasToken(token string) bool {
	for _, t := range u.Tokens {
		if t == token {
			return true
		}
	}
	return false
}

// Validate 按 schema 字段顺序校验
func (u *User) Validate() error {
	errs := &ValidationError{}

	switch n := utf8.RuneCountInString(u.Account); {
	case blank(u.Account):
		errs.Add("account", "account is required")
	case n < AccountMinLen || n > AccountMaxLen:
		errs.Add("account", "account length must be between 4 and 20")
	case !IsAlphanumeric(u.Account):
		errs.Add("account", "account must be alphanumeric")
	}

	switch {
	case blank(u.Email):
		errs.Add("email", "email is required")
	case !IsValidEmail(u.Email):
		errs.Add("email", "invalid email format")
	}

	if u.Password == "" && u.PasswordHash == "" {
		errs.Add("password", "password is required")
	}

	switch {
	case blank(u.Phone):
		errs.Add("phone", "phone is required")
	case !IsValidPhone(u.Phone):
		errs.Add("phone", "invalid phone format")
	}

	if f, bad := firstCartError(u.Cart); bad {
		errs.Add(f.Field, f.Message)
	}

	if !u.Role.Valid() {
		errs.Add("role", "invalid role")
	}

	return errs.orNil()
}

// ValidateCart 校验购物车条目：商品必填，数量为正整数
func ValidateCart(cart []CartItem) error {
	if f, bad := firstCartError(cart); bad {
		return NewFieldError(f.Field, f.Message)
	}
	return nil
}

func firstCartError(cart []CartItem) (FieldError, bool) {
	for _, item := range cart {
		if item.Product.IsZero() {
			return FieldError{Field: "cart.product", Message: "cart product is required"}, true
		}
		if item.Quantity < 1 {
			return FieldError{Field: "cart.quantity", Message: "cart quantity must be a positive integer"}, true
		}
		if item.Quantity > CartMaxQuantity {
			return FieldError{Field: "cart.quantity", Message: "cart quantity is too large"}, true
		}
	}
	return FieldError{}, false
}

// ValidatePasswordLength 明文密码长度校验（哈希前调用）
func ValidatePasswordLength(plaintext string) error {
	n := utf8.RuneCountInString(plaintext)
	if n < PasswordMinLen || n > PasswordMaxLen {
		return NewFieldError("password", "password length must be between 4 and 20")
	}
	return nil
}
