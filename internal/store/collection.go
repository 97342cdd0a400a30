package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Snapshot persists a whole collection at once.
type Snapshot[T any] interface {
	Load(ctx context.Context) ([]T, error)
	Save(ctx context.Context, items []T) error
}

// Collection is an ordered, id-indexed set of records held in memory. With a
// Snapshot attached, every mutation rewrites the full snapshot; a failed
// write rolls the mutation back.
type Collection[T Record[T]] struct {
	mu       sync.RWMutex
	items    []T
	index    map[string]int
	ids      IDGenerator
	snapshot Snapshot[T]
	log      zerolog.Logger
}

// NewCollection creates an empty collection. snapshot may be nil for a purely
// in-memory store.
func NewCollection[T Record[T]](ids IDGenerator, snapshot Snapshot[T], logger zerolog.Logger) *Collection[T] {
	return &Collection[T]{
		index:    make(map[string]int),
		ids:      ids,
		snapshot: snapshot,
		log:      logger,
	}
}

// Load replaces the in-memory contents with the snapshot. On error the
// collection is left empty and the error is returned for the caller to log.
func (c *Collection[T]) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.index = make(map[string]int)
	if c.snapshot == nil {
		return nil
	}

	loaded, err := c.snapshot.Load(ctx)
	if err != nil {
		return err
	}

	for _, item := range loaded {
		id := item.RecordID()
		if _, dup := c.index[id]; dup {
			c.log.Warn().Str("id", id).Msg("skipping duplicate record id in snapshot")
			continue
		}
		c.ids.Observe(id)
		c.index[id] = len(c.items)
		c.items = append(c.items, item)
	}
	c.log.Info().Int("count", len(c.items)).Msg("collection loaded")
	return nil
}

func (c *Collection[T]) Create(ctx context.Context, item T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.ids.Next()
	for {
		if _, taken := c.index[id]; !taken {
			break
		}
		id = c.ids.Next()
	}
	item = item.WithID(id)

	c.items = append(c.items, item)
	c.index[id] = len(c.items) - 1

	if err := c.persist(ctx); err != nil {
		c.items = c.items[:len(c.items)-1]
		delete(c.index, id)
		var zero T
		return zero, err
	}
	return item, nil
}

func (c *Collection[T]) Get(_ context.Context, id string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	pos, ok := c.index[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("id %s: %w", id, ErrNotFound)
	}
	return c.items[pos], nil
}

func (c *Collection[T]) List(_ context.Context) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, len(c.items))
	copy(out, c.items)
	return out, nil
}

func (c *Collection[T]) Update(ctx context.Context, id string, item T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos, ok := c.index[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("id %s: %w", id, ErrNotFound)
	}

	prev := c.items[pos]
	item = item.WithID(id)
	c.items[pos] = item

	if err := c.persist(ctx); err != nil {
		c.items[pos] = prev
		var zero T
		return zero, err
	}
	return item, nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos, ok := c.index[id]
	if !ok {
		return fmt.Errorf("id %s: %w", id, ErrNotFound)
	}

	prevItems := c.items
	prevIndex := c.index

	c.items = make([]T, 0, len(prevItems)-1)
	c.items = append(c.items, prevItems[:pos]...)
	c.items = append(c.items, prevItems[pos+1:]...)
	c.reindex()

	if err := c.persist(ctx); err != nil {
		c.items = prevItems
		c.index = prevIndex
		return err
	}
	return nil
}

// Len reports the number of records.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Collection[T]) reindex() {
	c.index = make(map[string]int, len(c.items))
	for i, item := range c.items {
		c.index[item.RecordID()] = i
	}
}

// persist must be called with c.mu held.
func (c *Collection[T]) persist(ctx context.Context) error {
	if c.snapshot == nil {
		return nil
	}
	if err := c.snapshot.Save(ctx, c.items); err != nil {
		c.log.Error().Err(err).Msg("failed to save collection")
		return err
	}
	return nil
}
