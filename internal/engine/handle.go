package engine

import (
	"context"
	"fmt"
	"sync"
)

// Handle is the pending result of a submitted job. It resolves exactly
// once, with a value, an error or a cancellation.
type Handle[R any] struct {
	id   string
	done chan struct{}
	once sync.Once

	value R
	err   error

	// cancel removes the job from its queue; nil for handles resolved at
	// submission.
	cancel func() bool
}

func newHandle[R any](id string) *Handle[R] {
	return &Handle[R]{id: id, done: make(chan struct{})}
}

// failed returns a handle already resolved with err.
func failed[R any](id string, err error) *Handle[R] {
	h := newHandle[R](id)
	var zero R
	h.resolve(zero, err)
	return h
}

// ID returns the job's identifier.
func (h *Handle[R]) ID() string { return h.id }

// Done is closed once the handle resolves.
func (h *Handle[R]) Done() <-chan struct{} { return h.done }

// Wait blocks until the handle resolves or ctx ends. A ctx ending only
// stops the wait; the job itself keeps its place in the queue and may
// still run, so the returned error wraps ctx.Err() and is not a canceled
// error.
func (h *Handle[R]) Wait(ctx context.Context) (R, error) {
	select {
	case <-h.done:
		return h.value, h.err
	case <-ctx.Done():
		var zero R
		return zero, fmt.Errorf("wait for job %s: %w", h.id, ctx.Err())
	}
}

// Cancel removes a job that has not started yet and resolves the handle
// with a canceled error. It reports false when the job is already running
// or resolved; in-flight jobs are never interrupted.
func (h *Handle[R]) Cancel() bool {
	if h.cancel == nil {
		return false
	}
	return h.cancel()
}

func (h *Handle[R]) resolve(v R, err error) bool {
	resolved := false
	h.once.Do(func() {
		h.value, h.err = v, err
		close(h.done)
		resolved = true
	})
	return resolved
}
