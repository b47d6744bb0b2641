package query

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/atinyakov/Workboard/internal/client/notify"
	"go.uber.org/zap"
)

// MutateOptions configure a write.
type MutateOptions[T any] struct {
	// Invalidates lists the reads made stale by a successful write.
	Invalidates []Matcher
	// InvalidatesFor adds matchers that depend on the write's result.
	InvalidatesFor func(T) []Matcher
	// Message extracts the server's success message from the result.
	Message func(T) string
	// SuccessMessage is used when Message is nil or returns "".
	SuccessMessage string
	// ErrorMessage is the fallback for error notifications.
	ErrorMessage string
	// OnSuccess runs after a successful write, before invalidation, even if
	// the caller has gone away. Use it for state that must follow the server.
	OnSuccess func(T)
	// OnSettled runs with the final result only while the caller is still
	// waiting; a caller whose context is done never sees it.
	OnSettled func(MutationResult[T])
	// OnError runs after a failed write, once its notifications are out.
	OnError func(error)
}

// MutationResult is the outcome of one write.
type MutationResult[T any] struct {
	Status Status
	Data   T
	Err    error
}

// Mutate runs write exactly once. It is not retried and never deduplicated.
//
// On success the OnSuccess hook runs, every matching read is invalidated and a
// success notification is emitted. On failure the error notifications are
// emitted. The write is detached from ctx: if ctx ends first the write still
// completes with its cache and notification effects, but the caller receives
// ctx.Err() and OnSettled is skipped.
func Mutate[T any](ctx context.Context, c *Client, write func(context.Context) (T, error), opts MutateOptions[T]) MutationResult[T] {
	settled := make(chan MutationResult[T], 1)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		settled <- runWrite(context.WithoutCancel(ctx), c, write, opts)
	}()

	select {
	case res := <-settled:
		if ctx.Err() == nil && opts.OnSettled != nil {
			opts.OnSettled(res)
		}
		return res
	case <-ctx.Done():
		c.log.Debug("mutation result discarded", zap.Error(ctx.Err()))
		return MutationResult[T]{Status: StatusError, Err: ctx.Err()}
	}
}

func runProtected[T any](ctx context.Context, write func(context.Context) (T, error)) (res T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mutation panicked: %v", r)
		}
	}()
	return write(ctx)
}

func runWrite[T any](ctx context.Context, c *Client, write func(context.Context) (T, error), opts MutateOptions[T]) MutationResult[T] {
	data, err := runProtected(ctx, write)
	if err != nil {
		c.log.Debug("mutation failed", zap.Error(err))
		notify.Emit(c.sink, notify.Failure(err, opts.ErrorMessage))
		if opts.OnError != nil {
			opts.OnError(err)
		}
		return MutationResult[T]{Status: StatusError, Err: err}
	}

	if opts.OnSuccess != nil {
		opts.OnSuccess(data)
	}
	ms := opts.Invalidates
	if opts.InvalidatesFor != nil {
		ms = append(append([]Matcher(nil), ms...), opts.InvalidatesFor(data)...)
	}
	if len(ms) > 0 {
		c.Invalidate(ms...)
	}

	var msg string
	if opts.Message != nil {
		msg = opts.Message(data)
	}
	notify.Emit(c.sink, notify.Success(msg, opts.SuccessMessage))
	return MutationResult[T]{Status: StatusSuccess, Data: data}
}

// Mutation is a reusable write bound to its options, taking variables per call.
type Mutation[V, T any] struct {
	c       *Client
	write   func(context.Context, V) (T, error)
	opts    MutateOptions[T]
	pending atomic.Int64
}

// NewMutation binds write and opts to c.
func NewMutation[V, T any](c *Client, write func(context.Context, V) (T, error), opts MutateOptions[T]) *Mutation[V, T] {
	return &Mutation[V, T]{c: c, write: write, opts: opts}
}

// Mutate runs the write with vars; see the package-level Mutate.
func (m *Mutation[V, T]) Mutate(ctx context.Context, vars V) MutationResult[T] {
	m.pending.Add(1)
	defer m.pending.Add(-1)
	return Mutate(ctx, m.c, func(ctx context.Context) (T, error) {
		return m.write(ctx, vars)
	}, m.opts)
}

// Pending returns how many calls of this mutation are in flight.
func (m *Mutation[V, T]) Pending() int {
	return int(m.pending.Load())
}
