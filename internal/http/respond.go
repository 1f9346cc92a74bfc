package http

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/fjod/go_cart/storefront-service/internal/domain"
)

type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Warn("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Message: message,
		Code:    code,
	})
}

// errorStatus maps a service error to its status, code and client message.
// Unknown errors are reported as a generic server error.
func errorStatus(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", "Unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden", "Forbidden"
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound, "product_not_found", "Product not found"
	case errors.Is(err, domain.ErrCartNotFound):
		return http.StatusNotFound, "cart_not_found", "Cart not found"
	case errors.Is(err, domain.ErrWishlistNotFound):
		return http.StatusNotFound, "wishlist_not_found", "Wishlist not found"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user_not_found", "User not found"
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusBadRequest, "insufficient_stock", "Not enough stock available"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "invalid_request", err.Error()
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, "email_taken", "User already exists"
	case errors.Is(err, domain.ErrVersionConflict):
		return http.StatusConflict, "conflict", "Cart was modified concurrently, try again"
	case errors.Is(err, domain.ErrUploadsUnavailable):
		return http.StatusServiceUnavailable, "uploads_unavailable", "Image uploads are unavailable"
	default:
		return http.StatusInternalServerError, "internal_error", "Server error"
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := errorStatus(err)
	if status >= http.StatusInternalServerError {
		entry := log.WithError(err).WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		})
		if status == http.StatusServiceUnavailable {
			entry.Warn("request failed")
		} else {
			entry.Error("request failed")
		}
	}
	respondError(w, status, code, message)
}
