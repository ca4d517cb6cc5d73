package repository

import (
	"context"
	"errors"
	"sync"

	"educontrol/internal/store"
)

// ErrNotFound is returned when no entity has the requested id.
var ErrNotFound = errors.New("not found")

// collection is a list-shaped document with entities identified by id.
// The mutex only serialises read-modify-write cycles inside this process.
type collection[T any] struct {
	mu   sync.Mutex
	g    store.Gateway
	key  string
	seed func() []T
	id   func(T) string
}

func newCollection[T any](g store.Gateway, key string, id func(T) string, seed func() []T) *collection[T] {
	if seed == nil {
		seed = func() []T { return []T{} }
	}
	return &collection[T]{g: g, key: key, id: id, seed: seed}
}

func (c *collection[T]) all(ctx context.Context) ([]T, error) {
	items, err := store.Load(ctx, c.g, c.key, c.seed())
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// All returns the stored entities in insertion order.
func (c *collection[T]) All(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.all(ctx)
}

// Get returns the entity with the given id.
func (c *collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	items, err := c.All(ctx)
	if err != nil {
		return zero, err
	}
	for _, it := range items {
		if c.id(it) == id {
			return it, nil
		}
	}
	return zero, ErrNotFound
}

func (c *collection[T]) mutate(ctx context.Context, fn func([]T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, err := c.all(ctx)
	if err != nil {
		return err
	}
	next, err := fn(items)
	if err != nil {
		return err
	}
	return store.Save(ctx, c.g, c.key, next)
}

// Add appends v.
func (c *collection[T]) Add(ctx context.Context, v T) error {
	return c.mutate(ctx, func(items []T) ([]T, error) {
		return append(items, v), nil
	})
}

// Prepend inserts v before every existing entity.
func (c *collection[T]) Prepend(ctx context.Context, v T) error {
	return c.mutate(ctx, func(items []T) ([]T, error) {
		return append([]T{v}, items...), nil
	})
}

// Update replaces the entity whose id matches v.
func (c *collection[T]) Update(ctx context.Context, v T) error {
	return c.mutate(ctx, func(items []T) ([]T, error) {
		for i, it := range items {
			if c.id(it) == c.id(v) {
				items[i] = v
				return items, nil
			}
		}
		return nil, ErrNotFound
	})
}

// Delete removes the entity with the given id.
func (c *collection[T]) Delete(ctx context.Context, id string) error {
	return c.mutate(ctx, func(items []T) ([]T, error) {
		out := items[:0]
		found := false
		for _, it := range items {
			if c.id(it) == id {
				found = true
				continue
			}
			out = append(out, it)
		}
		if !found {
			return nil, ErrNotFound
		}
		return out, nil
	})
}
