package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/roach88/litemap/internal/store"
)

// Submit queues fn on c's path and returns immediately. fn runs on the
// path's drain goroutine with the path's connection, after every job
// submitted to c before it.
//
// When ctx ends while the job is still queued, the job is removed and its
// handle resolves with a canceled error. Once the job has started, ctx is
// only passed through to fn.
func Submit[R any](ctx context.Context, c *Conn, fn func(context.Context, *store.Conn) (R, error)) *Handle[R] {
	return submit(ctx, c.w, fn)
}

func submit[R any](ctx context.Context, w *worker, fn func(context.Context, *store.Conn) (R, error)) *Handle[R] {
	h, j := prepare(ctx, w, fn)
	w.enqueue(j, false)
	return h
}

// prepare builds the handle and job for fn without queuing it.
func prepare[R any](ctx context.Context, w *worker, fn func(context.Context, *store.Conn) (R, error)) (*Handle[R], *job) {
	id := w.pool.ids.Generate()
	h := newHandle[R](id)
	j := &job{id: id, ctx: ctx}

	j.abort = func(err error) {
		var zero R
		h.resolve(zero, err)
	}
	j.run = func(w *worker) (err error) {
		var v R
		defer func() {
			if p := recover(); p != nil {
				err = newPanicError(id, p)
				var zero R
				h.resolve(zero, err)
			}
		}()
		v, err = fn(j.ctx, w.connection())
		h.resolve(v, err)
		return err
	}
	h.cancel = func() bool {
		if !w.queue.Remove(j) {
			return false
		}
		j.stop()
		j.abort(newCanceledError(id, nil))
		w.logger.Debug("job canceled", zap.String("job", id))
		return true
	}
	j.stop = context.AfterFunc(ctx, func() {
		if w.queue.Remove(j) {
			j.abort(newCanceledError(id, context.Cause(ctx)))
		}
	})
	return h, j
}
