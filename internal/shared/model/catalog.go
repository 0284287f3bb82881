package model

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Category 商品 / 文章分类
type Category string

const (
	CategoryRegional Category = "地區回饋"
	CategoryCharity  Category = "愛心公益"
	CategorySchool   Category = "學校認同"
	CategoryCitizen  Category = "市民卡"
	CategoryGuild    Category = "公會組織"
)

// 每种实体允许的图片数量上限
const (
	ProductMaxImages = 1
	ArticleMaxImages = 3
)

// Categories 全部合法分类
var Categories = []Category{
	CategoryRegional,
	CategoryCharity,
	CategorySchool,
	CategoryCitizen,
	CategoryGuild,
}

// Valid 是否为合法分类
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Product 认同卡商品
type Product struct {
	ID          bson.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name        string        `json:"name" bson:"name"`
	Price       *float64      `json:"price" bson:"price"`
	Image       string        `json:"image" bson:"image"`
	Description string        `json:"description" bson:"description"`
	Category    Category      `json:"category" bson:"category"`
	Sell        *bool         `json:"sell" bson:"sell"`
	CreatedAt   time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// Listed 是否上架
func (p *Product) Listed() bool {
	return p.Sell != nil && *p.Sell
}

// Validate 按 schema 字段顺序校验
func (p *Product) Validate() error {
	errs := &ValidationError{}
	if blank(p.Name) {
		errs.Add("name", "name is required")
	}
	switch {
	case p.Price == nil:
		errs.Add("price", "price is required")
	case math.IsNaN(*p.Price) || math.IsInf(*p.Price, 0):
		errs.Add("price", "price must be a number")
	case *p.Price < 0:
		errs.Add("price", "price must not be negative")
	}
	if blank(p.Image) {
		errs.Add("image", "image is required")
	}
	if blank(p.Description) {
		errs.Add("description", "description is required")
	}
	switch {
	case p.Category == "":
		errs.Add("category", "category is required")
	case !p.Category.Valid():
		errs.Add("category", "invalid category")
	}
	if p.Sell == nil {
		errs.Add("sell", "sell is required")
	}
	return errs.orNil()
}

// Article 文章 / 新闻，支持多张图片
type Article struct {
	ID          bson.ObjectID `json:"_id" bson:"_id,omitempty"`
	Title       string        `json:"title" bson:"title"`
	Author      string        `json:"author" bson:"author"`
	Image       []string      `json:"image" bson:"image"`
	Date        time.Time     `json:"date" bson:"date"`
	Description string        `json:"description" bson:"description"`
	Category    Category      `json:"category" bson:"category"`
	Sell        *bool         `json:"sell" bson:"sell"`
	CreatedAt   time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// Listed 是否上架
func (a *Article) Listed() bool {
	return a.Sell != nil && *a.Sell
}

// Validate 按 schema 字段顺序校验
func (a *Article) Validate() error {
	errs := &ValidationError{}
	if blank(a.Title) {
		errs.Add("title", "title is required")
	}
	if blank(a.Author) {
		errs.Add("author", "author is required")
	}
	switch {
	case len(a.Image) == 0:
		errs.Add("image", "image is required")
	case len(a.Image) > ArticleMaxImages:
		errs.Add("image", "too many images")
	}
	if a.Date.IsZero() {
		errs.Add("date", "date is required")
	}
	if blank(a.Description) {
		errs.Add("description", "description is required")
	}
	switch {
	case a.Category == "":
		errs.Add("category", "category is required")
	case !a.Category.Valid():
		errs.Add("category", "invalid category")
	}
	if a.Sell == nil {
		errs.Add("sell", "sell is required")
	}
	return errs.orNil()
}
