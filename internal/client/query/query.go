// Package query is the read/write cache between dashboard actions and the
// API gateways.
//
// Reads are keyed by a structured identity (Key). Concurrent reads of the same
// identity share one in-flight fetch, successful results are cached until they
// go stale, and failed refetches keep the last good result. Every fetch is
// tagged with a per-identity generation; a settlement whose generation is no
// longer current (because the entry was invalidated or purged meanwhile) is
// discarded instead of overwriting newer state.
//
// Writes run exactly once, mark the matching reads stale on success, and emit
// notifications through the notify package.
package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/atinyakov/Workboard/internal/client/notify"
	"go.uber.org/zap"
)

// Status is the lifecycle state of a managed operation.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return "idle"
}

// MountPolicy controls whether mounting an observer triggers a fetch.
type MountPolicy int

const (
	// MountIfStale fetches when the entry is absent or stale.
	MountIfStale MountPolicy = iota
	// MountAlways fetches on every mount.
	MountAlways
	// MountNever fetches only when there is no cached result at all.
	MountNever
)

// Options configure a read.
type Options struct {
	// StaleAfter is how long a successful result stays fresh. Zero means
	// results are stale immediately and every access refetches.
	StaleAfter time.Duration
	// RefetchOnFocus refetches observed stale entries on Client.Focus.
	RefetchOnFocus bool
	// RefetchOnMount is applied by Observe.
	RefetchOnMount MountPolicy
	// RefetchInterval, when positive, refetches an observed entry on a timer.
	RefetchInterval time.Duration
	// Disabled suppresses fetching; the read stays idle or returns what is cached.
	Disabled bool
	// Gate, when set, is consulted before every fetch; false acts like Disabled.
	Gate func() bool
	// ErrorMessage is the notification fallback for a failed fetch.
	ErrorMessage string
	// Silent suppresses error notifications for this read.
	Silent bool
	// OnError runs after every failed fetch of this read, once its
	// notifications are out, including fetches whose result is discarded.
	// It runs outside the cache lock and may clear the cache.
	OnError func(error)
}

// State is a point-in-time view of one cache entry.
type State struct {
	Key       Key
	Status    Status
	Data      any
	HasData   bool
	Err       error
	UpdatedAt time.Time
	// Invalidated is set by a matching mutation until the next successful fetch.
	Invalidated bool
	Fetching    bool
	Generation  uint64
}

func (o Options) disabled() bool {
	return o.Disabled || (o.Gate != nil && !o.Gate())
}

type fetchFunc func(context.Context) (any, error)

// call is one fetch in flight for an entry.
type call struct {
	gen  uint64
	done chan struct{}
	data any
	err  error
}

type entry struct {
	key         Key
	id          string
	status      Status
	data        any
	hasData     bool
	err         error
	updatedAt   time.Time
	staleAfter  time.Duration
	invalidated bool
	gen         uint64
	inflight    *call
}

func (e *entry) state() State {
	return State{
		Key:         e.key,
		Status:      e.status,
		Data:        e.data,
		HasData:     e.hasData,
		Err:         e.err,
		UpdatedAt:   e.updatedAt,
		Invalidated: e.invalidated,
		Fetching:    e.inflight != nil,
		Generation:  e.gen,
	}
}

// Client owns the cache store. It is safe for concurrent use; the zero value is not.
type Client struct {
	mu        sync.Mutex
	entries   map[string]*entry
	observers map[*observer]struct{}

	sink notify.Sink
	log  *zap.Logger
	now  func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an empty cache. Notifications go to sink; sink and log may be nil.
func New(sink notify.Sink, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		entries:   make(map[string]*entry),
		observers: make(map[*observer]struct{}),
		sink:      sink,
		log:       log,
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Close stops observers, cancels fetches in flight and waits for background work.
func (c *Client) Close() {
	c.mu.Lock()
	obs := make([]*observer, 0, len(c.observers))
	for o := range c.observers {
		obs = append(obs, o)
	}
	c.mu.Unlock()
	for _, o := range obs {
		o.close()
	}
	c.cancel()
	c.wg.Wait()
}

// Snapshot returns the state of key and whether an entry exists.
func (c *Client) Snapshot(key Key) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return State{Key: key}, false
	}
	return e.state(), true
}

// Len returns the number of cached entries.
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Invalidate marks every entry matched by ms stale. A fetch in flight for a
// matched entry is superseded: its response will be discarded. Observed
// entries are refetched immediately; the others on next access.
// It returns the number of entries marked.
func (c *Client) Invalidate(ms ...Matcher) int {
	c.mu.Lock()
	marked := make(map[string]bool)
	for id, e := range c.entries {
		if !matchAny(e.key, ms) {
			continue
		}
		e.invalidated = true
		if e.inflight != nil {
			e.gen++
			e.inflight = nil
		}
		marked[id] = true
	}
	var refetch []*observer
	for o := range c.observers {
		if marked[o.id] {
			refetch = append(refetch, o)
		}
	}
	c.mu.Unlock()

	c.log.Debug("cache invalidated", zap.Int("entries", len(marked)), zap.Int("observed", len(refetch)))
	for _, o := range refetch {
		c.background(o.key, o.fetch, o.opts, true)
	}
	return len(marked)
}

// Clear drops every entry. Fetches in flight settle into nothing.
func (c *Client) Clear() {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
	c.log.Debug("cache cleared", zap.Int("entries", n))
}

// Focus refetches observed entries that opted into RefetchOnFocus and are stale.
func (c *Client) Focus() {
	c.mu.Lock()
	var due []*observer
	for o := range c.observers {
		if !o.opts.RefetchOnFocus || o.opts.disabled() {
			continue
		}
		e, ok := c.entries[o.id]
		if !ok || c.isStale(e) {
			due = append(due, o)
		}
	}
	c.mu.Unlock()
	for _, o := range due {
		c.background(o.key, o.fetch, o.opts, false)
	}
}

// lookup returns the entry for key, creating it if needed. c.mu must be held.
func (c *Client) lookup(key Key, opts Options) *entry {
	id := key.String()
	e, ok := c.entries[id]
	if !ok {
		e = &entry{key: key, id: id}
		c.entries[id] = e
	}
	e.staleAfter = opts.StaleAfter
	return e
}

// isStale reports whether e needs a refetch. c.mu must be held.
func (c *Client) isStale(e *entry) bool {
	if !e.hasData || e.invalidated {
		return true
	}
	return c.now().Sub(e.updatedAt) >= e.staleAfter
}

// start launches a fetch for e under a new generation. c.mu must be held.
func (c *Client) start(e *entry, fetch fetchFunc, opts Options) *call {
	e.gen++
	cl := &call{gen: e.gen, done: make(chan struct{})}
	e.inflight = cl
	if !e.hasData {
		e.status = StatusPending
	}
	c.log.Debug("fetch started", zap.String("key", e.id), zap.Uint64("generation", cl.gen))

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		data, err := protect(c.ctx, fetch)
		c.settle(e, cl, data, err, opts)
		close(cl.done)
	}()
	return cl
}

// settle applies a finished fetch if its generation is still current.
func (c *Client) settle(e *entry, cl *call, data any, err error, opts Options) {
	c.mu.Lock()
	cl.data, cl.err = data, err
	cur, ok := c.entries[e.id]
	current := ok && cur == e && e.gen == cl.gen
	if e.inflight == cl {
		e.inflight = nil
	}
	if !current {
		c.mu.Unlock()
		c.log.Debug("stale fetch discarded", zap.String("key", e.id), zap.Uint64("generation", cl.gen))
		if err != nil && opts.OnError != nil {
			opts.OnError(err)
		}
		return
	}
	if err != nil {
		e.status = StatusError
		e.err = err
	} else {
		e.status = StatusSuccess
		e.data = data
		e.hasData = true
		e.err = nil
		e.updatedAt = c.now()
		e.invalidated = false
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Debug("fetch failed", zap.String("key", e.id), zap.Error(err))
		if !opts.Silent {
			notify.Emit(c.sink, notify.Failure(err, opts.ErrorMessage))
		}
		if opts.OnError != nil {
			opts.OnError(err)
		}
		return
	}
	c.log.Debug("fetch settled", zap.String("key", e.id), zap.Uint64("generation", cl.gen))
}

// read is the untyped read contract; see Query. With force set a fresh entry
// is refetched too.
func (c *Client) read(ctx context.Context, key Key, fetch fetchFunc, opts Options, force bool) (State, bool) {
	c.mu.Lock()
	if opts.disabled() {
		st := State{Key: key}
		if e, ok := c.entries[key.String()]; ok {
			st = e.state()
		}
		c.mu.Unlock()
		return st, true
	}
	e := c.lookup(key, opts)
	if e.inflight == nil && !force && !c.isStale(e) {
		st := e.state()
		c.mu.Unlock()
		return st, true
	}
	cl := e.inflight
	if cl == nil {
		cl = c.start(e, fetch, opts)
	}
	c.mu.Unlock()

	select {
	case <-cl.done:
	case <-ctx.Done():
		c.mu.Lock()
		st := e.state()
		c.mu.Unlock()
		st.Status, st.Err = StatusError, ctx.Err()
		return st, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.entries[e.id]; ok && cur == e && e.gen == cl.gen {
		return e.state(), false
	}
	// Superseded while waiting: report what this fetch produced.
	st := State{Key: key, Generation: cl.gen}
	if cl.err != nil {
		st.Status, st.Err = StatusError, cl.err
	} else {
		st.Status, st.Data, st.HasData = StatusSuccess, cl.data, true
	}
	return st, false
}

// background starts a fetch without waiting for it. Unless force is set it
// only fetches stale entries. A fetch already in flight is never duplicated.
func (c *Client) background(key Key, fetch fetchFunc, opts Options, force bool) {
	if opts.disabled() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx.Err() != nil {
		return
	}
	e := c.lookup(key, opts)
	if e.inflight != nil || (!force && !c.isStale(e)) {
		return
	}
	c.start(e, fetch, opts)
}

// protect runs fn and turns a panic into an error.
func protect(ctx context.Context, fn fetchFunc) (data any, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("query panicked: %v", r)
		}
	}()
	return fn(ctx)
}
