package repository

import (
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront-service/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type cartDocument struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty"`
	UserID     string               `bson:"user_id"`
	Items      []cartItemDocument   `bson:"items"`
	TotalPrice primitive.Decimal128 `bson:"total_price"`
	Version    int64                `bson:"version"`
	CreatedAt  time.Time            `bson:"created_at"`
	UpdatedAt  time.Time            `bson:"updated_at"`
}

type cartItemDocument struct {
	ProductID string               `bson:"product_id"`
	Name      string               `bson:"name"`
	Price     primitive.Decimal128 `bson:"price"`
	Image     string               `bson:"image"`
	Quantity  int                  `bson:"quantity"`
	AddedAt   time.Time            `bson:"added_at"`
}

type wishlistDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Products  []string           `bson:"products"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

type productDocument struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	Name          string               `bson:"name"`
	Description   string               `bson:"description"`
	Price         primitive.Decimal128 `bson:"price"`
	DiscountPrice primitive.Decimal128 `bson:"discount_price"`
	Images        []string             `bson:"images"`
	Category      string               `bson:"category"`
	Tags          []string             `bson:"tags"`
	Stock         int                  `bson:"stock"`
	IsNewProduct  bool                 `bson:"is_new_product"`
	IsFeatured    bool                 `bson:"is_featured"`
	IsSale        bool                 `bson:"is_sale"`
	Rating        float64              `bson:"rating"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at"`
}

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password"`
	Role         string             `bson:"role"`
	Avatar       string             `bson:"avatar"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

var decimal128Zero, _ = primitive.ParseDecimal128("0")

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("convert %s to decimal128: %w", d.String(), err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	if v.IsZero() {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		// Decimal128 always renders as a parseable number except NaN/Inf,
		// which the service never writes.
		return decimal.Zero
	}
	return d
}

func (d cartDocument) toDomain() *domain.Cart {
	items := make([]domain.CartItem, len(d.Items))
	for i, it := range d.Items {
		items[i] = domain.CartItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     fromDecimal128(it.Price),
			Image:     it.Image,
			Quantity:  it.Quantity,
			AddedAt:   it.AddedAt,
		}
	}
	return &domain.Cart{
		UserID:     d.UserID,
		Items:      items,
		TotalPrice: fromDecimal128(d.TotalPrice),
		Version:    d.Version,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func cartItemsToDocuments(items []domain.CartItem) ([]cartItemDocument, error) {
	docs := make([]cartItemDocument, len(items))
	for i, it := range items {
		price, err := toDecimal128(it.Price)
		if err != nil {
			return nil, err
		}
		docs[i] = cartItemDocument{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     price,
			Image:     it.Image,
			Quantity:  it.Quantity,
			AddedAt:   it.AddedAt,
		}
	}
	return docs, nil
}

func (d wishlistDocument) toDomain() *domain.Wishlist {
	products := d.Products
	if products == nil {
		products = []string{}
	}
	return &domain.Wishlist{
		UserID:    d.UserID,
		Products:  products,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (d productDocument) toDomain() domain.Product {
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return domain.Product{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		Description:   d.Description,
		Price:         fromDecimal128(d.Price),
		DiscountPrice: fromDecimal128(d.DiscountPrice),
		Images:        images,
		Category:      d.Category,
		Tags:          d.Tags,
		Stock:         d.Stock,
		IsNewProduct:  d.IsNewProduct,
		IsFeatured:    d.IsFeatured,
		IsSale:        d.IsSale,
		Rating:        d.Rating,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func productToDocument(p *domain.Product) (productDocument, error) {
	price, err := toDecimal128(p.Price)
	if err != nil {
		return productDocument{}, err
	}
	discount, err := toDecimal128(p.DiscountPrice)
	if err != nil {
		return productDocument{}, err
	}
	doc := productDocument{
		Name:          p.Name,
		Description:   p.Description,
		Price:         price,
		DiscountPrice: discount,
		Images:        p.Images,
		Category:      p.Category,
		Tags:          p.Tags,
		Stock:         p.Stock,
		IsNewProduct:  p.IsNewProduct,
		IsFeatured:    p.IsFeatured,
		IsSale:        p.IsSale,
		Rating:        p.Rating,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if doc.Images == nil {
		doc.Images = []string{}
	}
	if p.ID != "" {
		oid, err := primitive.ObjectIDFromHex(p.ID)
		if err != nil {
			return productDocument{}, fmt.Errorf("%w: invalid product id", domain.ErrValidation)
		}
		doc.ID = oid
	}
	return doc, nil
}

func (d userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         domain.Role(d.Role),
		Avatar:       d.Avatar,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// parseObjectID maps a malformed hex id to notFound, since no document can carry it.
func parseObjectID(id string, notFound error) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, notFound
	}
	return oid, nil
}
