package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

const defaultCoalesceTimeout = 30 * time.Second

// Coalescer shares one in-flight call among concurrent callers of the same key.
type Coalescer[V any] struct {
	group singleflight.Group
	// Timeout bounds a shared call. Zero means 30s.
	Timeout time.Duration
}

// Do runs fn once per key at a time. Callers that arrive while fn is running
// for key wait for it and receive the same result.
//
// fn gets a context detached from the caller that started it, so one
// caller's cancellation never fails the others. Each caller still stops
// waiting when its own ctx is done.
func (c *Coalescer[V]) Do(ctx context.Context, key string, fn func(ctx context.Context) (V, error)) (V, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout())
		defer cancel()
		return fn(callCtx)
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

func (c *Coalescer[V]) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultCoalesceTimeout
}
