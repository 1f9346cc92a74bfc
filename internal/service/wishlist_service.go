package service

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_cart/storefront-service/internal/cache"
	"github.com/fjod/go_cart/storefront-service/internal/domain"
	"github.com/fjod/go_cart/storefront-service/internal/metrics"
	"github.com/fjod/go_cart/storefront-service/internal/repository"
)

type WishlistService struct {
	wishlists repository.WishlistRepository
	products  repository.ProductRepository
	cache     cache.WishlistCache
	metrics   *metrics.Metrics
	logger    *log.Entry
	sfg       singleflight.Group
}

func NewWishlistService(
	wishlists repository.WishlistRepository,
	products repository.ProductRepository,
	wishlistCache cache.WishlistCache,
	m *metrics.Metrics,
	logger *log.Entry,
) *WishlistService {
	if logger == nil {
		logger = log.WithField("component", "wishlist-service")
	}
	if wishlistCache == nil {
		wishlistCache = cache.Noop[domain.Wishlist]{}
	}
	return &WishlistService{
		wishlists: wishlists,
		products:  products,
		cache:     wishlistCache,
		metrics:   m,
		logger:    logger,
	}
}

// AddToWishlist adds a reference to an existing product. Adding a product that
// is already present changes nothing.
func (s *WishlistService) AddToWishlist(ctx context.Context, userID, productID string) (w *domain.Wishlist, err error) {
	defer func() { s.metrics.WishlistOperation("add", resultOf(err)) }()

	if productID == "" {
		return nil, fmt.Errorf("%w: productId is required", domain.ErrValidation)
	}
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return nil, fmt.Errorf("add to wishlist: %w", err)
	}

	w, err = s.wishlists.AddProduct(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("add to wishlist: %w", err)
	}
	s.store(userID, w)
	return w, nil
}

func (s *WishlistService) RemoveFromWishlist(ctx context.Context, userID, productID string) (w *domain.Wishlist, err error) {
	defer func() { s.metrics.WishlistOperation("remove", resultOf(err)) }()

	w, err = s.wishlists.RemoveProduct(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("remove from wishlist: %w", err)
	}
	s.store(userID, w)
	return w, nil
}

func (s *WishlistService) ClearWishlist(ctx context.Context, userID string) (err error) {
	defer func() { s.metrics.WishlistOperation("clear", resultOf(err)) }()

	if err := s.wishlists.DeleteWishlist(ctx, userID); err != nil {
		return fmt.Errorf("clear wishlist: %w", err)
	}
	s.store(userID, domain.EmptyWishlist(userID))
	return nil
}

// GetWishlist resolves the user's references to catalog products in wishlist
// order. References to deleted products are skipped.
func (s *WishlistService) GetWishlist(ctx context.Context, userID string) (*domain.WishlistView, error) {
	refs, err := s.references(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get wishlist: %w", err)
	}

	view := &domain.WishlistView{UserID: userID, Products: []domain.Product{}}
	if len(refs.Products) == 0 {
		return view, nil
	}

	products, err := s.products.GetProductsByIDs(ctx, refs.Products)
	if err != nil {
		return nil, fmt.Errorf("get wishlist: %w", err)
	}
	view.Products = products
	return view, nil
}

func (s *WishlistService) references(ctx context.Context, userID string) (*domain.Wishlist, error) {
	ch := s.sfg.DoChan(userID, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()

		w, err := s.cache.Get(loadCtx, userID)
		if err == nil {
			return w, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WithError(err).WithField("user_id", userID).Warn("wishlist cache get failed")
		}

		w, err = s.wishlists.GetWishlist(loadCtx, userID)
		if errors.Is(err, domain.ErrWishlistNotFound) {
			w, err = domain.EmptyWishlist(userID), nil
		}
		if err != nil {
			return nil, err
		}

		if errSet := s.cache.SetIfAbsent(loadCtx, userID, w); errSet != nil {
			s.logger.WithError(errSet).WithField("user_id", userID).Warn("wishlist cache fill failed")
		}
		return w, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return copyRefs(res.Val.(*domain.Wishlist)), nil
	}
}

func copyRefs(w *domain.Wishlist) *domain.Wishlist {
	cp := *w
	cp.Products = append([]string{}, w.Products...)
	return &cp
}

// store overwrites the cached references with the state just written.
func (s *WishlistService) store(userID string, w *domain.Wishlist) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
	defer cancel()

	err := s.cache.Set(ctx, userID, copyRefs(w))
	if err == nil {
		return
	}
	s.logger.WithError(err).WithField("user_id", userID).Warn("wishlist cache write failed")
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("wishlist cache invalidate failed")
	}
}
