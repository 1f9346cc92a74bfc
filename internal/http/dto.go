package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront-service/internal/domain"
)

// Money is written as a bare JSON number carrying the exact decimal digits.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type CartItemDTO struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
}

type CartDTO struct {
	UserID     string          `json:"user"`
	Items      []CartItemDTO   `json:"items"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	UpdatedAt  *time.Time      `json:"updatedAt,omitempty"`
}

type CartResponse struct {
	Cart CartDTO `json:"cart"`
}

func toCartDTO(c *domain.Cart) CartDTO {
	dto := CartDTO{
		UserID:     c.UserID,
		Items:      make([]CartItemDTO, 0, len(c.Items)),
		TotalPrice: c.TotalPrice,
	}
	if !c.UpdatedAt.IsZero() {
		updated := c.UpdatedAt
		dto.UpdatedAt = &updated
	}
	for _, it := range c.Items {
		dto.Items = append(dto.Items, CartItemDTO{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Image:     it.Image,
			Quantity:  it.Quantity,
		})
	}
	return dto
}

type ProductDTO struct {
	ID            string          `json:"_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	DiscountPrice decimal.Decimal `json:"discountPrice"`
	Images        []string        `json:"images"`
	Category      string          `json:"category"`
	Tags          []string        `json:"tags"`
	Stock         int             `json:"stock"`
	IsNewProduct  bool            `json:"isNewProduct"`
	IsFeatured    bool            `json:"isFeatured"`
	IsSale        bool            `json:"isSale"`
	Rating        float64         `json:"rating"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func toProductDTO(p domain.Product) ProductDTO {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return ProductDTO{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		DiscountPrice: p.DiscountPrice,
		Images:        images,
		Category:      p.Category,
		Tags:          tags,
		Stock:         p.Stock,
		IsNewProduct:  p.IsNewProduct,
		IsFeatured:    p.IsFeatured,
		IsSale:        p.IsSale,
		Rating:        p.Rating,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toProductDTOs(products []domain.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, toProductDTO(p))
	}
	return out
}

type ProductPageResponse struct {
	Products []ProductDTO `json:"products"`
	Page     int          `json:"page"`
	Pages    int          `json:"pages"`
	Total    int64        `json:"total"`
}

type WishlistDTO struct {
	UserID   string       `json:"user"`
	Products []ProductDTO `json:"products"`
}

type WishlistResponse struct {
	Wishlist WishlistDTO `json:"wishlist"`
}

// WishlistRefsDTO is a wishlist after a write, holding product ids only.
type WishlistRefsDTO struct {
	UserID   string   `json:"user"`
	Products []string `json:"products"`
}

type WishlistRefsResponse struct {
	Wishlist WishlistRefsDTO `json:"wishlist"`
}

func toWishlistRefsDTO(w *domain.Wishlist) WishlistRefsDTO {
	products := w.Products
	if products == nil {
		products = []string{}
	}
	return WishlistRefsDTO{UserID: w.UserID, Products: products}
}

type UserDTO struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   string(u.Role),
		Avatar: u.Avatar,
	}
}

type AuthResponse struct {
	User    UserDTO `json:"user"`
	Token   string  `json:"token"`
	Message string  `json:"message"`
}

type CurrentUserResponse struct {
	User    UserDTO `json:"user"`
	Message string  `json:"message"`
}

type AddToCartRequestDTO struct {
	ProductID string `json:"productId"`
	// Quantity defaults to 1 when omitted.
	Quantity *int `json:"quantity"`
}

type AddToWishlistRequestDTO struct {
	ProductID string `json:"productId"`
}

type RegisterRequestDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProductRequestDTO is the body of product create and update requests. On
// update, absent fields are left unchanged.
type ProductRequestDTO struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discountPrice"`
	Images        []string         `json:"images"`
	Category      *string          `json:"category"`
	Tags          []string         `json:"tags"`
	Stock         *int             `json:"stock"`
	IsNewProduct  *bool            `json:"isNewProduct"`
	IsFeatured    *bool            `json:"isFeatured"`
	IsSale        *bool            `json:"isSale"`
}

func (d ProductRequestDTO) toPatch() domain.ProductPatch {
	return domain.ProductPatch{
		Name:          d.Name,
		Description:   d.Description,
		Price:         d.Price,
		DiscountPrice: d.DiscountPrice,
		Images:        d.Images,
		Category:      d.Category,
		Tags:          d.Tags,
		Stock:         d.Stock,
		IsNewProduct:  d.IsNewProduct,
		IsFeatured:    d.IsFeatured,
		IsSale:        d.IsSale,
	}
}

func (d ProductRequestDTO) toProduct() *domain.Product {
	p := &domain.Product{}
	d.toPatch().Apply(p)
	return p
}
