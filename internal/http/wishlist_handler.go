package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/go_cart/storefront-service/internal/domain"
)

type WishlistService interface {
	AddToWishlist(ctx context.Context, userID, productID string) (*domain.Wishlist, error)
	RemoveFromWishlist(ctx context.Context, userID, productID string) (*domain.Wishlist, error)
	GetWishlist(ctx context.Context, userID string) (*domain.WishlistView, error)
	ClearWishlist(ctx context.Context, userID string) error
}

type WishlistHandler struct {
	wishlists WishlistService
}

func NewWishlistHandler(wishlists WishlistService) *WishlistHandler {
	return &WishlistHandler{wishlists: wishlists}
}

func (h *WishlistHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	var req AddToWishlistRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	productID := strings.TrimSpace(req.ProductID)
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "productId is required")
		return
	}

	wl, err := h.wishlists.AddToWishlist(r.Context(), id.UserID, productID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, WishlistRefsResponse{Wishlist: toWishlistRefsDTO(wl)})
}

func (h *WishlistHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	productID := chi.URLParam(r, "productId")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "productId is required")
		return
	}

	wl, err := h.wishlists.RemoveFromWishlist(r.Context(), id.UserID, productID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, WishlistRefsResponse{Wishlist: toWishlistRefsDTO(wl)})
}

func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	view, err := h.wishlists.GetWishlist(r.Context(), id.UserID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, WishlistResponse{Wishlist: WishlistDTO{
		UserID:   view.UserID,
		Products: toProductDTOs(view.Products),
	}})
}

func (h *WishlistHandler) ClearWishlist(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	if err := h.wishlists.ClearWishlist(r.Context(), id.UserID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, MessageResponse{Message: "Wishlist cleared"})
}
