package repository

import (
	"context"

	"github.com/fjod/go_cart/storefront-service/internal/domain"
)

// CartRepository defines the interface for cart data operations.
// Consumers depend on this interface, not the MongoDB implementation.
type CartRepository interface {
	// GetCart returns domain.ErrCartNotFound when the user has no cart.
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	// LoadOrCreateCart returns the user's cart, creating an empty one in the same
	// round trip if none exists.
	LoadOrCreateCart(ctx context.Context, userID string) (*domain.Cart, error)
	// SaveCart writes items and total only if the stored version still equals
	// cart.Version, then bumps cart.Version. A lost race yields domain.ErrVersionConflict.
	SaveCart(ctx context.Context, cart *domain.Cart) error
	// DeleteCart removes the cart. Deleting a missing cart is not an error.
	DeleteCart(ctx context.Context, userID string) error
}

// WishlistRepository mutates wishlists with single update operators so that
// concurrent requests never overwrite each other.
type WishlistRepository interface {
	GetWishlist(ctx context.Context, userID string) (*domain.Wishlist, error)
	AddProduct(ctx context.Context, userID, productID string) (*domain.Wishlist, error)
	RemoveProduct(ctx context.Context, userID, productID string) (*domain.Wishlist, error)
	DeleteWishlist(ctx context.Context, userID string) error
}

type ProductRepository interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	// GetProductsByIDs returns the products that exist, in the order of ids.
	GetProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	ListProducts(ctx context.Context, q domain.ProductQuery) (domain.ProductPage, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
	AppendImage(ctx context.Context, id, url string) (*domain.Product, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}
