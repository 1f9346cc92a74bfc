package cache

import "context"

// Noop is used when no Redis address is configured. Every read misses.
type Noop[T any] struct{}

func (Noop[T]) Get(context.Context, string) (*T, error) { return nil, ErrCacheMiss }

func (Noop[T]) Set(context.Context, string, *T) error { return nil }

func (Noop[T]) SetIfAbsent(context.Context, string, *T) error { return nil }

func (Noop[T]) Delete(context.Context, string) error { return nil }
