package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.mongodb.org/mongo-driver/v2/bson"

	"cardshop/internal/shared/apperr"
	"cardshop/internal/shared/storage"
)

// MaxJSONBody JSON 请求体上限
const MaxJSONBody = 1 << 20

// ParseID 解析路径中的 ObjectID
func ParseID(s string) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(s)
	if err != nil {
		return bson.ObjectID{}, apperr.Malformed("invalid id")
	}
	return id, nil
}

// DecodeJSON 解析 JSON 请求体
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Malformed("invalid request body")
	}
	return nil
}

// ParseListQuery 解析列表查询参数
//
// search / sortBy / sortOrder / page / itemsPerPage；数字参数无法解析时使用默认值，
// sortBy 的白名单由存储层负责。
func ParseListQuery(r *http.Request) storage.ListQuery {
	q := r.URL.Query()
	return storage.ListQuery{
		Search:    q.Get("search"),
		SortBy:    q.Get("sortBy"),
		SortOrder: atoiOr(q.Get("sortOrder"), -1),
		Page:      atoiOr(q.Get("page"), 1),
		PageSize:  atoiOr(q.Get("itemsPerPage"), storage.DefaultPageSize),
	}.Normalize()
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// ListResult 列表响应
type ListResult[T any] struct {
	Data  []T   `json:"data"`
	Total int64 `json:"total"`
}
