package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_cart/storefront-service/internal/cache"
	"github.com/fjod/go_cart/storefront-service/internal/domain"
	"github.com/fjod/go_cart/storefront-service/internal/metrics"
	"github.com/fjod/go_cart/storefront-service/internal/repository"
)

const (
	cacheWriteTimeout = time.Second
	// sharedLoadTimeout bounds a coalesced read, which no longer follows the
	// cancellation of the request that started it.
	sharedLoadTimeout = 5 * time.Second
)

// CartOptions tunes cart reconciliation.
type CartOptions struct {
	// MaxRetries is how many times a conflicting write is reloaded and reapplied.
	MaxRetries int
	// StrictStock checks the quantity already in the cart plus the requested
	// quantity against stock, instead of the requested quantity alone.
	StrictStock bool
}

func DefaultCartOptions() CartOptions {
	return CartOptions{MaxRetries: 3}
}

type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	cache    cache.CartCache
	metrics  *metrics.Metrics
	logger   *log.Entry
	opts     CartOptions
	now      func() time.Time
	sfg      singleflight.Group
}

func NewCartService(
	carts repository.CartRepository,
	products repository.ProductRepository,
	cartCache cache.CartCache,
	m *metrics.Metrics,
	opts CartOptions,
	logger *log.Entry,
) *CartService {
	if logger == nil {
		logger = log.WithField("component", "cart-service")
	}
	if cartCache == nil {
		cartCache = cache.Noop[domain.Cart]{}
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &CartService{
		carts:    carts,
		products: products,
		cache:    cartCache,
		metrics:  m,
		logger:   logger,
		opts:     opts,
		now:      time.Now,
	}
}

// GetCart returns the user's cart, or the empty shape if none exists. It never
// creates a record.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	ch := s.sfg.DoChan(userID, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()

		cart, err := s.cache.Get(loadCtx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WithError(err).WithField("user_id", userID).Warn("cart cache get failed")
		}

		cart, err = s.carts.GetCart(loadCtx, userID)
		if errors.Is(err, domain.ErrCartNotFound) {
			cart, err = domain.EmptyCart(userID), nil
		}
		if err != nil {
			return nil, err
		}

		if errSet := s.cache.SetIfAbsent(loadCtx, userID, cart); errSet != nil {
			s.logger.WithError(errSet).WithField("user_id", userID).Warn("cart cache fill failed")
		}
		return cart, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get cart: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("get cart: %w", res.Err)
		}
		// Callers coalesced by singleflight share the value.
		return res.Val.(*domain.Cart).Clone(), nil
	}
}

// AddItem adds quantity units of productID, creating the cart on first use.
// Stock is checked before the cart is read, so a rejected add never leaves a
// record behind.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (cart *domain.Cart, err error) {
	defer func() { s.record("add", err) }()

	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrValidation)
	}
	if productID == "" {
		return nil, fmt.Errorf("%w: productId is required", domain.ErrValidation)
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}
	if !product.HasStock(quantity) {
		return nil, domain.ErrInsufficientStock
	}

	return s.mutate(ctx, userID, s.carts.LoadOrCreateCart, func(c *domain.Cart) (bool, error) {
		if s.opts.StrictStock && !product.HasStock(c.QuantityOf(productID)+quantity) {
			return false, domain.ErrInsufficientStock
		}
		c.AddItem(*product, quantity, s.now())
		return true, nil
	})
}

// RemoveItem drops productID from the cart. Removing a product that is not in
// the cart returns the cart unchanged.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (cart *domain.Cart, err error) {
	defer func() { s.record("remove", err) }()

	return s.mutate(ctx, userID, s.carts.GetCart, func(c *domain.Cart) (bool, error) {
		return c.RemoveItem(productID, s.now()), nil
	})
}

func (s *CartService) ClearCart(ctx context.Context, userID string) (err error) {
	defer func() { s.record("clear", err) }()

	if err := s.carts.DeleteCart(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	s.store(userID, domain.EmptyCart(userID))
	return nil
}

type cartLoader func(ctx context.Context, userID string) (*domain.Cart, error)

// mutate loads the cart, applies fn and writes it back conditioned on the
// loaded version. A conflicting write is retried from a fresh load.
func (s *CartService) mutate(
	ctx context.Context,
	userID string,
	load cartLoader,
	fn func(*domain.Cart) (bool, error),
) (*domain.Cart, error) {
	for attempt := 0; ; attempt++ {
		cart, err := load(ctx, userID)
		if err != nil {
			return nil, err
		}

		changed, err := fn(cart)
		if err != nil {
			return nil, err
		}
		if !changed {
			return cart, nil
		}

		err = s.carts.SaveCart(ctx, cart)
		if err == nil {
			s.store(userID, cart)
			return cart, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}

		s.metrics.CartConflict()
		if attempt >= s.opts.MaxRetries {
			s.logger.WithFields(log.Fields{
				"user_id":  userID,
				"attempts": attempt + 1,
			}).Warn("cart write conflict, giving up")
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.WithFields(log.Fields{
			"user_id": userID,
			"attempt": attempt + 1,
		}).Debug("cart write conflict, retrying")
	}
}

// store overwrites the cached entry with the cart just written. If that fails
// the entry is dropped so the next read goes to the repository.
func (s *CartService) store(userID string, cart *domain.Cart) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
	defer cancel()

	err := s.cache.Set(ctx, userID, cart.Clone())
	if err == nil {
		return
	}
	s.logger.WithError(err).WithField("user_id", userID).Warn("cart cache write failed")
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("cart cache invalidate failed")
	}
}

func (s *CartService) record(op string, err error) {
	s.metrics.CartOperation(op, resultOf(err))
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, domain.ErrVersionConflict):
		return metrics.ResultConflict
	default:
		return metrics.ResultError
	}
}
