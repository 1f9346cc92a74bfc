package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/go_cart/storefront-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	cartKeyPrefix     = "cart"
	wishlistKeyPrefix = "wishlist"
)

// RedisCache stores JSON-encoded aggregates under "<prefix>:<userID>".
type RedisCache[T any] struct {
	client  *redis.Client
	prefix  string
	baseTTL time.Duration
	jitter  time.Duration
}

func NewRedisCartCache(client *redis.Client) *RedisCache[domain.Cart] {
	return newRedisCache[domain.Cart](client, cartKeyPrefix)
}

func NewRedisWishlistCache(client *redis.Client) *RedisCache[domain.Wishlist] {
	return newRedisCache[domain.Wishlist](client, wishlistKeyPrefix)
}

func newRedisCache[T any](client *redis.Client, prefix string) *RedisCache[T] {
	return &RedisCache[T]{
		client:  client,
		prefix:  prefix,
		baseTTL: 15 * time.Minute,
		jitter:  5 * time.Minute,
	}
}

func (r *RedisCache[T]) Get(ctx context.Context, userID string) (*T, error) {
	data, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal %s failed: %w", r.prefix, err)
	}
	return &v, nil
}

func (r *RedisCache[T]) Set(ctx context.Context, userID string, v *T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", r.prefix, err)
	}

	if err := r.client.Set(ctx, r.key(userID), data, r.ttl()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// SetIfAbsent stores v only when no entry exists for userID.
func (r *RedisCache[T]) SetIfAbsent(ctx context.Context, userID string, v *T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", r.prefix, err)
	}

	if err := r.client.SetNX(ctx, r.key(userID), data, r.ttl()).Err(); err != nil {
		return fmt.Errorf("redis setnx failed: %w", err)
	}
	return nil
}

func (r *RedisCache[T]) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// ttl spreads expirations so entries written together do not expire together.
func (r *RedisCache[T]) ttl() time.Duration {
	if r.jitter <= 0 {
		return r.baseTTL
	}
	return r.baseTTL + time.Duration(rand.Int63n(int64(r.jitter)))
}

func (r *RedisCache[T]) key(userID string) string {
	return fmt.Sprintf("%s:%s", r.prefix, userID)
}
