package domain

import "time"

// Wishlist holds product references in the order they were added. References are
// unique.
type Wishlist struct {
	UserID    string    `json:"user_id"`
	Products  []string  `json:"products"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func EmptyWishlist(userID string) *Wishlist {
	return &Wishlist{UserID: userID, Products: []string{}}
}

func (w *Wishlist) Contains(productID string) bool {
	for _, id := range w.Products {
		if id == productID {
			return true
		}
	}
	return false
}

// WishlistView is a wishlist with its references resolved to catalog records.
type WishlistView struct {
	UserID   string
	Products []Product
}
