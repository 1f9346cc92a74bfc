package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/storefront-service/internal/domain"
)

// CartCache is written through after every successful save. Reads fill it
// with SetIfAbsent so a fill that loaded an older version never replaces a
// newer entry written by a save.
type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Set(ctx context.Context, userID string, cart *domain.Cart) error
	SetIfAbsent(ctx context.Context, userID string, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}

// WishlistCache holds product references only; products are resolved on read.
type WishlistCache interface {
	Get(ctx context.Context, userID string) (*domain.Wishlist, error)
	Set(ctx context.Context, userID string, wishlist *domain.Wishlist) error
	SetIfAbsent(ctx context.Context, userID string, wishlist *domain.Wishlist) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")
