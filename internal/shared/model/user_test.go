package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func validUser() *User {
	return &User{
		Account:  "alice01",
		Email:    "a@x.com",
		Phone:    "0912345678",
		Password: "abcd",
		Role:     UserRoleUser,
	}
}

// TestUserValidate_Valid 合法用户通过校验
func TestUserValidate_Valid(t *testing.T) {
	assert.NoError(t, validUser().Validate())
}

// TestUserValidate_FirstErrorOnly 多个字段失败时只报告 schema 顺序中的第一个
func TestUserValidate_FirstErrorOnly(t *testing.T) {
	u := &User{Account: "a!", Email: "bad", Phone: "123"}

	err := u.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors, 4)
	assert.Equal(t, "account", verr.First().Field)
	assert.Contains(t, err.Error(), "account")
	assert.NotContains(t, err.Error(), "email")
}

func TestUserValidate_Fields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(u *User)
		field  string
	}{
		{"account missing", func(u *User) { u.Account = "" }, "account"},
		{"account too short", func(u *User) { u.Account = "abc" }, "account"},
		{"account too long", func(u *User) { u.Account = "abcdefghijklmnopqrstu" }, "account"},
		{"account not alphanumeric", func(u *User) { u.Account = "alice_01" }, "account"},
		{"email invalid", func(u *User) { u.Email = "not-an-email" }, "email"},
		{"password missing", func(u *User) { u.Password = "" }, "password"},
		{"phone invalid", func(u *User) { u.Phone = "0212345678" }, "phone"},
		{"cart quantity zero", func(u *User) {
			u.Cart = []CartItem{{Product: bson.NewObjectID(), Quantity: 0}}
		}, "cart.quantity"},
		{"cart quantity too large", func(u *User) {
			u.Cart = []CartItem{{Product: bson.NewObjectID(), Quantity: CartMaxQuantity + 1}}
		}, "cart.quantity"},
		{"role unknown", func(u *User) { u.Role = 7 }, "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := validUser()
			tt.mutate(u)
			var verr *ValidationError
			require.ErrorAs(t, u.Validate(), &verr)
			assert.Equal(t, tt.field, verr.First().Field)
		})
	}
}

// TestUserValidate_HashSatisfiesPassword 已持久化的用户只有哈希也视为有密码
func TestUserValidate_HashSatisfiesPassword(t *testing.T) {
	u := validUser()
	u.Password = ""
	u.PasswordHash = "$2a$10$abcdefghijklmnopqrstuv"
	assert.NoError(t, u.Validate())
}

func TestValidatePasswordLength(t *testing.T) {
	for _, pw := range []string{"", "a", "abc", "abcdefghijklmnopqrstu"} {
		var verr *ValidationError
		require.ErrorAs(t, ValidatePasswordLength(pw), &verr, "password %q", pw)
		assert.Equal(t, "password", verr.First().Field)
	}
	for _, pw := range []string{"abcd", "12345678", "abcdefghijklmnopqrst"} {
		assert.NoError(t, ValidatePasswordLength(pw), "password %q", pw)
	}
}

func TestIsValidPhone(t *testing.T) {
	assert.True(t, IsValidPhone("0912345678"))
	assert.True(t, IsValidPhone("+886912345678"))
	assert.True(t, IsValidPhone("886-912345678"))
	assert.False(t, IsValidPhone("0812345678"))
	assert.False(t, IsValidPhone("091234567"))
}

func TestUserRole(t *testing.T) {
	assert.True(t, UserRoleAdmin.Satisfies(UserRoleAdmin))
	assert.True(t, UserRoleAdmin.Satisfies(UserRoleUser))
	assert.False(t, UserRoleUser.Satisfies(UserRoleAdmin))
	assert.Equal(t, "admin", UserRoleAdmin.String())
}

func TestUser_CartQuantityAndTokens(t *testing.T) {
	u := validUser()
	u.Cart = []CartItem{
		{Product: bson.NewObjectID(), Quantity: 2},
		{Product: bson.NewObjectID(), Quantity: 3},
	}
	u.Tokens = []string{"t1", "t2"}

	assert.Equal(t, 5, u.CartQuantity())
	assert.True(t, u.HasToken("t2"))
	assert.False(t, u.HasToken("t3"))
}
