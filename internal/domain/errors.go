package domain

import "errors"

// Common errors returned across the service. Callers wrap them with context and
// the HTTP layer matches them with errors.Is.
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrCartNotFound      = errors.New("cart not found")
	ErrWishlistNotFound  = errors.New("wishlist not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrInsufficientStock = errors.New("not enough stock available")
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrEmailTaken        = errors.New("user already exists")

	// ErrUploadsUnavailable means image storage is not configured or is failing.
	ErrUploadsUnavailable = errors.New("image uploads are unavailable")

	// ErrVersionConflict means a conditional write lost against a concurrent writer.
	ErrVersionConflict = errors.New("aggregate was modified concurrently")
)
