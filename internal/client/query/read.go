package query

import (
	"context"
	"sync"
	"time"
)

// Result is the typed outcome of a read.
type Result[T any] struct {
	Status Status
	// Data is the latest result. It survives a failed refetch, so it can be
	// set together with Err.
	Data      T
	HasData   bool
	Err       error
	UpdatedAt time.Time
	// FromCache is set when no fetch was needed to answer the read.
	FromCache bool
}

func typed[T any](st State, fromCache bool) Result[T] {
	r := Result[T]{
		Status:    st.Status,
		HasData:   st.HasData,
		Err:       st.Err,
		UpdatedAt: st.UpdatedAt,
		FromCache: fromCache,
	}
	if v, ok := st.Data.(T); ok {
		r.Data = v
	}
	return r
}

func erase[T any](fetch func(context.Context) (T, error)) fetchFunc {
	return func(ctx context.Context) (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

// Query reads key through the cache.
//
// A fresh cached result is returned without calling fetch. Otherwise, unless
// opts.Disabled is set, exactly one fetch runs for key and every concurrent
// caller waits for that same fetch. The fetch is detached from ctx: a caller
// that gives up gets ctx.Err() while the fetch completes into the cache.
func Query[T any](ctx context.Context, c *Client, key Key, fetch func(context.Context) (T, error), opts Options) Result[T] {
	st, fromCache := c.read(ctx, key, erase(fetch), opts, false)
	return typed[T](st, fromCache)
}

// observer is a mounted read that reacts to invalidation, focus and its interval.
type observer struct {
	key   Key
	id    string
	fetch fetchFunc
	opts  Options
	c     *Client

	stop chan struct{}
	once sync.Once
}

func (o *observer) close() {
	o.once.Do(func() {
		close(o.stop)
		o.c.mu.Lock()
		delete(o.c.observers, o)
		o.c.mu.Unlock()
	})
}

// Observer is a mounted read. Close unmounts it.
type Observer[T any] struct {
	o *observer
}

// Observe mounts a read of key. The mount policy decides whether a background
// fetch starts right away; RefetchInterval starts a timer that refetches until
// Close. While mounted, invalidating key refetches it immediately.
func Observe[T any](c *Client, key Key, fetch func(context.Context) (T, error), opts Options) *Observer[T] {
	o := &observer{
		key:   key,
		id:    key.String(),
		fetch: erase(fetch),
		opts:  opts,
		c:     c,
		stop:  make(chan struct{}),
	}

	c.mu.Lock()
	c.observers[o] = struct{}{}
	e, exists := c.entries[o.id]
	hasData := exists && e.hasData
	c.mu.Unlock()

	switch opts.RefetchOnMount {
	case MountAlways:
		c.background(key, o.fetch, opts, true)
	case MountNever:
		if !hasData {
			c.background(key, o.fetch, opts, true)
		}
	default:
		c.background(key, o.fetch, opts, false)
	}

	if opts.RefetchInterval > 0 && !opts.Disabled {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			ticker := time.NewTicker(opts.RefetchInterval)
			defer ticker.Stop()
			for {
				select {
				case <-o.stop:
					return
				case <-c.ctx.Done():
					return
				case <-ticker.C:
					c.background(key, o.fetch, opts, true)
				}
			}
		}()
	}
	return &Observer[T]{o: o}
}

// Key returns the observed identity.
func (ob *Observer[T]) Key() Key { return ob.o.key }

// Result returns the current cached state without fetching.
func (ob *Observer[T]) Result() Result[T] {
	st, _ := ob.o.c.Snapshot(ob.o.key)
	return typed[T](st, true)
}

// Refetch forces a fetch, joining one already in flight, and waits for it.
func (ob *Observer[T]) Refetch(ctx context.Context) Result[T] {
	o := ob.o
	st, _ := o.c.read(ctx, o.key, o.fetch, o.opts, true)
	return typed[T](st, false)
}

// Close unmounts the observer. A fetch in flight still completes into the cache.
func (ob *Observer[T]) Close() { ob.o.close() }
