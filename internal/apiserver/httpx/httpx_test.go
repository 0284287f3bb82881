package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cardshop/internal/shared/apperr"
	"cardshop/internal/shared/model"
	"cardshop/internal/shared/storage"
	"cardshop/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	SetLogger(logging.Discard())
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestOK(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, http.StatusCreated, "created", map[string]int{"n": 1})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"message":"created","result":{"n":1}}`, rec.Body.String())
}

// TestWriteJSONEncodeFailure 无法序列化的结果改写为 500 信封
func TestWriteJSONEncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, http.StatusOK, "", map[string]float64{"price": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"internal error"}`, rec.Body.String())
}

// TestFail 验证错误类别到状态码的映射，内部错误不泄露原因
func TestFail(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"malformed", apperr.Malformed("invalid id"), 400, "invalid id"},
		{"validation", apperr.Validation("email", "invalid email format"), 400, "invalid email format"},
		{"credentials", apperr.InvalidCredentials("password_mismatch"), 401, "invalid account or password"},
		{"expired", apperr.Expired(), 401, "token expired"},
		{"forbidden", apperr.Forbidden(), 403, "permission denied"},
		{"not found", apperr.NotFound("product not found"), 404, "product not found"},
		{"too many", apperr.TooManyAttempts(), 429, "too many failed attempts, try again later"},
		{"unknown error", errors.New("mongo: connection refused"), 500, "internal error"},
		{"wrapped", fmt.Errorf("ctx: %w", apperr.Forbidden()), 403, "permission denied"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Fail(rec, httptest.NewRequest(http.MethodGet, "/x", nil), tt.err)
			assert.Equal(t, tt.status, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.False(t, env.Success)
			assert.Equal(t, tt.message, env.Message)
			assert.NotContains(t, rec.Body.String(), "password_mismatch")
			assert.NotContains(t, rec.Body.String(), "connection refused")
		})
	}
}

func TestStoreError(t *testing.T) {
	assert.NoError(t, StoreError(nil, "x"))

	err := StoreError(&model.ValidationError{Errors: []model.FieldError{
		{Field: "name", Message: "name is required"},
		{Field: "price", Message: "price is required"},
	}}, "x")
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindValidationFailed, ae.Kind)
	assert.Equal(t, "name", ae.Field)

	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(StoreError(storage.ErrNotFound, "product not found")))
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(StoreError(errors.New("boom"), "x")))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(StoreError(apperr.Forbidden(), "x")))
}

func TestParseID(t *testing.T) {
	_, err := ParseID("65a1b2c3d4e5f6a7b8c9d0e1")
	assert.NoError(t, err)

	for _, s := range []string{"", "xyz", "65a1b2c3d4e5f6a7b8c9d0e", "zza1b2c3d4e5f6a7b8c9d0e1"} {
		_, err := ParseID(s)
		require.Error(t, err, s)
		assert.Equal(t, apperr.KindMalformedRequest, apperr.KindOf(err))
	}
}

func TestParseListQuery(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want storage.ListQuery
	}{
		{"defaults", "/products", storage.ListQuery{SortBy: "createdAt", SortOrder: -1, Page: 1, PageSize: 20}},
		{"explicit", "/products?search=a&sortBy=price&sortOrder=1&page=3&itemsPerPage=5",
			storage.ListQuery{Search: "a", SortBy: "price", SortOrder: 1, Page: 3, PageSize: 5}},
		{"all", "/products?itemsPerPage=-1", storage.ListQuery{SortBy: "createdAt", SortOrder: -1, Page: 1, PageSize: -1}},
		{"garbage numbers", "/products?page=x&itemsPerPage=y&sortOrder=z",
			storage.ListQuery{SortBy: "createdAt", SortOrder: -1, Page: 1, PageSize: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseListQuery(httptest.NewRequest(http.MethodGet, tt.url, nil))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Account string `json:"account"`
	}
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"account":"alice01"}`))
	require.NoError(t, DecodeJSON(rec, r, &v))
	assert.Equal(t, "alice01", v.Account)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{bad`))
	err := DecodeJSON(rec, r, &v)
	assert.Equal(t, apperr.KindMalformedRequest, apperr.KindOf(err))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	assert.Equal(t, "1.2.3.4", ClientIP(r))
}
