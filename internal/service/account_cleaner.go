package service

import (
	"context"
	"fmt"

	"github.com/fjod/go_cart/storefront-service/internal/domain"
)

// AccountCleaner removes the cart and wishlist of a closed account.
type AccountCleaner struct {
	carts     *CartService
	wishlists *WishlistService
}

func NewAccountCleaner(carts *CartService, wishlists *WishlistService) *AccountCleaner {
	return &AccountCleaner{carts: carts, wishlists: wishlists}
}

func (c *AccountCleaner) ClearAccountData(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	if err := c.carts.ClearCart(ctx, userID); err != nil {
		return err
	}
	return c.wishlists.ClearWishlist(ctx, userID)
}
