// Package promise provides a minimal completion primitive: a value holder
// that can be settled exactly once from the outside and awaited by any
// number of goroutines.
//
// It exists because listeners frequently finish their work on another
// goroutine, and the emitter's parameterless Once form needs a handle that
// resolves with the first emitted value.
package promise

import (
	"context"
	"sync"
)

// Promise is a write-once value holder.
// The zero value is not usable; create instances with New.
type Promise[T any] struct {
	mu      sync.Mutex
	done    chan struct{}
	val     T
	err     error
	settled bool
}

// New creates an unsettled promise.
func New[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{})}
}

// Resolved creates a promise already settled with the given value.
func Resolved[T any](v T) *Promise[T] {
	p := New[T]()
	p.Resolve(v)
	return p
}

// Rejected creates a promise already settled with the given error.
func Rejected[T any](err error) *Promise[T] {
	p := New[T]()
	p.Reject(err)
	return p
}

// Resolve settles the promise with a value.
// Returns false if the promise was already settled.
func (p *Promise[T]) Resolve(v T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.settled {
		return false
	}
	p.val = v
	p.settled = true
	close(p.done)
	return true
}

// Reject settles the promise with an error.
// Returns false if the promise was already settled.
func (p *Promise[T]) Reject(err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.settled {
		return false
	}
	p.err = err
	p.settled = true
	close(p.done)
	return true
}

// Await blocks until the promise settles or the context is cancelled.
// Cancellation abandons the wait; it does not settle the promise.
func (p *Promise[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done returns a channel closed when the promise settles.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}

// Settled reports whether the promise has been resolved or rejected.
func (p *Promise[T]) Settled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settled
}
