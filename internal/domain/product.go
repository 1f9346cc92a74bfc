package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            string
	Name          string
	Description   string
	Price         decimal.Decimal
	DiscountPrice decimal.Decimal // zero means no discount
	Images        []string
	Category      string
	Tags          []string
	Stock         int
	IsNewProduct  bool
	IsFeatured    bool
	IsSale        bool
	Rating        float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EffectivePrice is the unit price a buyer pays right now.
func (p Product) EffectivePrice() decimal.Decimal {
	if !p.DiscountPrice.IsZero() {
		return p.DiscountPrice
	}
	return p.Price
}

// PrimaryImage returns the first image URL, or "" when the product has none.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// HasStock reports whether quantity units can be sold.
func (p Product) HasStock(quantity int) bool {
	return p.Stock >= quantity
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price must be non-negative", ErrValidation)
	}
	if p.DiscountPrice.IsNegative() {
		return fmt.Errorf("%w: discountPrice must be non-negative", ErrValidation)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock must be non-negative", ErrValidation)
	}
	if p.Rating < 0 || p.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 0 and 5", ErrValidation)
	}
	return nil
}

// ProductPatch carries a partial product update; nil fields are left unchanged.
type ProductPatch struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	DiscountPrice *decimal.Decimal
	Images        []string
	Category      *string
	Tags          []string
	Stock         *int
	IsNewProduct  *bool
	IsFeatured    *bool
	IsSale        *bool
}

// Apply merges the patch into p. Empty strings and empty image lists keep the
// current value, matching how the storefront admin form submits untouched fields.
func (pp ProductPatch) Apply(p *Product) {
	if pp.Name != nil && *pp.Name != "" {
		p.Name = *pp.Name
	}
	if pp.Description != nil && *pp.Description != "" {
		p.Description = *pp.Description
	}
	if pp.Price != nil && !pp.Price.IsZero() {
		p.Price = *pp.Price
	}
	if pp.DiscountPrice != nil {
		p.DiscountPrice = *pp.DiscountPrice
	}
	if len(pp.Images) > 0 {
		p.Images = pp.Images
	}
	if pp.Category != nil && *pp.Category != "" {
		p.Category = *pp.Category
	}
	if pp.Tags != nil {
		p.Tags = pp.Tags
	}
	if pp.Stock != nil {
		p.Stock = *pp.Stock
	}
	if pp.IsNewProduct != nil {
		p.IsNewProduct = *pp.IsNewProduct
	}
	if pp.IsFeatured != nil {
		p.IsFeatured = *pp.IsFeatured
	}
	if pp.IsSale != nil {
		p.IsSale = *pp.IsSale
	}
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Sortable product fields.
const (
	SortByCreatedAt = "createdAt"
	SortByPrice     = "price"
	SortByRating    = "rating"
	SortByName      = "name"
)

// ProductQuery describes a catalog listing request.
type ProductQuery struct {
	Keyword       string
	Category      string
	PriceMin      *decimal.Decimal
	PriceMax      *decimal.Decimal
	SortBy        string
	SortAscending bool
	Page          int
	PageSize      int
}

// Normalize fills defaults and clamps paging values.
func (q *ProductQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	switch q.SortBy {
	case SortByCreatedAt, SortByPrice, SortByRating, SortByName:
	default:
		q.SortBy = SortByCreatedAt
	}
}

// Skip is the number of documents before the requested page.
func (q ProductQuery) Skip() int64 {
	return int64(q.PageSize) * int64(q.Page-1)
}

type ProductPage struct {
	Products []Product
	Page     int
	Pages    int
	Total    int64
}

// NewProductPage computes the page count for total matches.
func NewProductPage(products []Product, q ProductQuery, total int64) ProductPage {
	pages := 0
	if q.PageSize > 0 {
		pages = int((total + int64(q.PageSize) - 1) / int64(q.PageSize))
	}
	if products == nil {
		products = []Product{}
	}
	return ProductPage{Products: products, Page: q.Page, Pages: pages, Total: total}
}
