package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dbh-bot/dbh/internal/cache"
	"github.com/dbh-bot/dbh/internal/store"
)

// KindReport counts the outcome of flushing one entity kind.
type KindReport struct {
	Persisted int `json:"persisted"`
	Failed    int `json:"failed"`
	Dropped   int `json:"dropped"`
}

// entityCache is the write-back core shared by every entity kind: cache
// first, store second, create last, with one in-flight resolution per key.
//
// Cached entities are shared pointers. Their fields are written only under
// mu, which every save also holds.
type entityCache[T any] struct {
	kind         string
	items        *cache.Keyed[*T]
	flight       cache.Coalescer[*T]
	mu           sync.Mutex
	save         func(ctx context.Context, entity *T) error
	writeThrough bool
	log          *slog.Logger
}

func newEntityCache[T any](kind string, save func(context.Context, *T) error, opts Options) *entityCache[T] {
	return &entityCache[T]{
		kind:         kind,
		items:        cache.NewKeyed[*T](),
		save:         save,
		writeThrough: opts.WriteThrough,
		log:          opts.logger().With("kind", kind),
	}
}

// lookup returns the cached entity or loads it from the store. A store miss
// is reported as store.ErrNotFound.
func (c *entityCache[T]) lookup(ctx context.Context, key string, find func(context.Context) (T, error)) (*T, error) {
	if entity, ok := c.items.Get(key); ok {
		return entity, nil
	}
	return c.flight.Do(ctx, key, func(ctx context.Context) (*T, error) {
		return c.load(ctx, key, find)
	})
}

// resolve is lookup that falls back to create on a store miss. Any other
// store error is returned unchanged.
func (c *entityCache[T]) resolve(ctx context.Context, key string, find func(context.Context) (T, error), build func() *T) (*T, error) {
	if entity, ok := c.items.Get(key); ok {
		return entity, nil
	}
	return c.flight.Do(ctx, key, func(ctx context.Context) (*T, error) {
		entity, err := c.load(ctx, key, find)
		if err == nil {
			return entity, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return c.create(ctx, key, build())
	})
}

func (c *entityCache[T]) load(ctx context.Context, key string, find func(context.Context) (T, error)) (*T, error) {
	// A resolution for key may have completed between the caller's miss and
	// entering the flight.
	if entity, ok := c.items.Get(key); ok {
		return entity, nil
	}
	record, err := find(ctx)
	if err != nil {
		return nil, err
	}
	return c.items.PutIfAbsent(key, &record), nil
}

// create caches entity under key before any persistence call. In
// write-through mode it is then saved; a failed save uncaches it.
func (c *entityCache[T]) create(ctx context.Context, key string, entity *T) (*T, error) {
	c.items.Put(key, entity)
	if !c.writeThrough {
		return entity, nil
	}
	if err := c.persist(ctx, entity); err != nil {
		c.items.DeleteIf(key, func(cur *T) bool { return cur == entity })
		c.log.ErrorContext(ctx, "write-through save failed", "key", key, "error", err)
		return nil, err
	}
	return entity, nil
}

// flush saves every cached entity and evicts the ones that were saved.
// Failed saves stay cached for the next cycle unless the store rejected them
// as conflicting, in which case they are dropped.
func (c *entityCache[T]) flush(ctx context.Context) (KindReport, error) {
	var report KindReport
	var errs []error
	c.items.ForEach(func(key string, entity *T) bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		err := c.save(ctx, entity)
		switch {
		case err == nil:
			report.Persisted++
		case errors.Is(err, store.ErrConflict):
			report.Dropped++
			errs = append(errs, err)
			c.log.ErrorContext(ctx, "dropping conflicting entity", "key", key, "error", err)
		default:
			report.Failed++
			errs = append(errs, err)
			c.log.ErrorContext(ctx, "flush save failed", "key", key, "error", err)
			return true
		}
		c.items.DeleteIf(key, func(cur *T) bool { return cur == entity })
		return true
	})
	return report, errors.Join(errs...)
}

// apply runs fn on entity under the kind lock, provided entity is still the
// cached instance for key. It reports false when a flush evicted entity
// first; the caller should resolve again so the change is not lost.
func (c *entityCache[T]) apply(key string, entity *T, fn func(*T)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.items.Get(key); !ok || cur != entity {
		return false
	}
	fn(entity)
	return true
}

// persist saves entity immediately under the kind lock.
func (c *entityCache[T]) persist(ctx context.Context, entity *T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(ctx, entity)
}

// update applies fn to entity and persists it, both under the kind lock.
func (c *entityCache[T]) update(ctx context.Context, entity *T, fn func(*T)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(entity)
	return c.save(ctx, entity)
}

// snapshot copies entity under the kind lock.
func (c *entityCache[T]) snapshot(entity *T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *entity
}
