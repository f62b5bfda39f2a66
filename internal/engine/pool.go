package engine

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/roach88/litemap/internal/dberr"
	"github.com/roach88/litemap/internal/schema"
	"github.com/roach88/litemap/internal/store"
)

// DefaultMaxWorkers bounds how many paths run a job at the same time.
const DefaultMaxWorkers = 8

// PoolOptions configures NewPool.
type PoolOptions struct {
	// MaxWorkers bounds concurrently running jobs across paths.
	// Zero means DefaultMaxWorkers.
	MaxWorkers int64

	// Logger receives job lifecycle logs. Nil means no logging.
	Logger *zap.Logger

	// Registry is handed to connections opened without one.
	// Nil means schema.Default().
	Registry *schema.Registry

	// IDs generates job IDs. Nil means UUIDv7Generator.
	IDs IDGenerator
}

// Pool maps database paths to their connection and job queue.
//
// Paths are compared exactly as given: "data.db" and "./data.db" are two
// paths with two connections.
//
// Safe for concurrent use.
type Pool struct {
	logger   *zap.Logger
	registry *schema.Registry
	ids      IDGenerator
	sem      *semaphore.Weighted
	opens    singleflight.Group

	mu      sync.Mutex
	workers map[string]*worker
	closed  bool
}

// NewPool creates an empty pool.
func NewPool(opts PoolOptions) *Pool {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = DefaultMaxWorkers
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Registry == nil {
		opts.Registry = schema.Default()
	}
	if opts.IDs == nil {
		opts.IDs = UUIDv7Generator{}
	}
	return &Pool{
		logger:   opts.Logger,
		registry: opts.Registry,
		ids:      opts.IDs,
		sem:      semaphore.NewWeighted(opts.MaxWorkers),
		workers:  make(map[string]*worker),
	}
}

// Conn is a pool-owned connection to one database path. All work on it
// goes through Submit or the *Async adapters.
type Conn struct {
	w *worker
}

// Path returns the database path the connection was opened with.
func (c *Conn) Path() string { return c.w.path }

// Pending returns the number of jobs queued and not yet started.
func (c *Conn) Pending() int { return c.w.queue.Len() }

// State reports "busy" while a drain goroutine runs the path's queue and
// "idle" otherwise.
func (c *Conn) State() string {
	c.w.mu.Lock()
	defer c.w.mu.Unlock()
	return c.w.state.String()
}

// Open returns the connection for opts.Path, opening it on first use. The
// open runs as the first job on the path's queue. Concurrent first opens
// of one path share a single open; a failed open leaves nothing behind,
// so a later Open retries.
//
// Options other than Path are only used by the call that opens.
func (p *Pool) Open(ctx context.Context, opts store.Options) (*Conn, error) {
	if w := p.lookup(opts.Path); w != nil {
		return &Conn{w: w}, nil
	}

	v, err, _ := p.opens.Do(opts.Path, func() (any, error) {
		if w := p.lookup(opts.Path); w != nil {
			return w, nil
		}
		w, err := p.newWorker(opts.Path)
		if err != nil {
			return nil, err
		}

		if opts.Registry == nil {
			opts.Registry = p.registry
		}
		if opts.Logger == nil {
			opts.Logger = p.logger
		}
		h := submit(ctx, w, func(ctx context.Context, _ *store.Conn) (*store.Conn, error) {
			c, err := store.Open(ctx, opts)
			if err != nil {
				return nil, err
			}
			w.setConn(c)
			return c, nil
		})

		// The open job always resolves: it runs, fails, or is removed when
		// ctx ends while it is queued.
		if _, err := h.Wait(context.Background()); err != nil {
			p.discard(w)
			return nil, err
		}
		return w, nil
	})
	if err != nil {
		return nil, err
	}
	return &Conn{w: v.(*worker)}, nil
}

// lookup returns the open, non-closing worker for path.
func (p *Pool) lookup(path string) *worker {
	p.mu.Lock()
	w := p.workers[path]
	p.mu.Unlock()
	if w == nil || w.closing.Load() || w.connection() == nil {
		return nil
	}
	return w
}

func (p *Pool) newWorker(path string) (*worker, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, newClosedError("pool")
	}
	if w, ok := p.workers[path]; ok && w.closing.Load() {
		return nil, dberr.NewConnectionError("connection "+path+" is closing", nil)
	}
	w := &worker{
		pool:   p,
		path:   path,
		queue:  newJobQueue(),
		logger: p.logger.With(zap.String("db", path)),
	}
	p.workers[path] = w
	return w, nil
}

// discard forgets w and rejects further jobs on it.
func (p *Pool) discard(w *worker) {
	w.queue.Close()
	p.mu.Lock()
	if p.workers[w.path] == w {
		delete(p.workers, w.path)
	}
	p.mu.Unlock()
}

// Paths returns the paths with a worker, sorted.
func (p *Pool) Paths() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	paths := make([]string, 0, len(p.workers))
	for path := range p.workers {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// ClosePath closes the connection for path once every job already queued
// on it has run. Jobs submitted afterwards fail with a connection error.
// Closing an unknown path is a no-op.
//
// If ctx ends first, ClosePath returns a canceled error and the close
// still happens in queue order.
func (p *Pool) ClosePath(ctx context.Context, path string) error {
	p.mu.Lock()
	w := p.workers[path]
	p.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.close(ctx)
}

// Close rejects new opens and closes every path concurrently.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	workers := make([]*worker, 0, len(p.workers))
	for _, w := range p.workers {
		workers = append(workers, w)
	}
	p.mu.Unlock()

	var g errgroup.Group
	for _, w := range workers {
		g.Go(func() error { return w.close(ctx) })
	}
	err := g.Wait()
	p.logger.Debug("pool closed", zap.Int("paths", len(workers)))
	return err
}

// workerState is the drain state of a path.
type workerState int

const (
	stateIdle workerState = iota
	stateBusy
)

func (s workerState) String() string {
	if s == stateBusy {
		return "busy"
	}
	return "idle"
}

// worker owns one path's connection and queue. At most one drain
// goroutine exists per worker; it alone touches conn.
type worker struct {
	pool   *Pool
	path   string
	queue  *jobQueue
	logger *zap.Logger

	mu    sync.Mutex
	state workerState
	conn  *store.Conn

	closing   atomic.Bool
	closeOnce sync.Once
	closed    *Handle[struct{}]
}

func (w *worker) connection() *store.Conn {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn
}

func (w *worker) setConn(c *store.Conn) {
	w.mu.Lock()
	w.conn = c
	w.mu.Unlock()
}

// enqueue queues j and starts a drain goroutine when the worker is idle.
// With last, j is the final job the worker accepts.
func (w *worker) enqueue(j *job, last bool) {
	var ok bool
	if last {
		ok = w.queue.EnqueueLast(j)
	} else {
		ok = w.queue.Enqueue(j)
	}
	if !ok {
		j.stop()
		j.abort(newClosedError(w.path))
		return
	}
	w.logger.Debug("job submitted", zap.String("job", j.id))

	w.mu.Lock()
	if w.state == stateIdle {
		w.state = stateBusy
		go w.drain()
	}
	w.mu.Unlock()
}

// drain runs queued jobs in order until the queue is empty, then returns
// the worker to idle.
func (w *worker) drain() {
	for {
		j, ok := w.queue.TryDequeue()
		if !ok {
			w.mu.Lock()
			if w.queue.Len() == 0 {
				w.state = stateIdle
				w.mu.Unlock()
				return
			}
			w.mu.Unlock()
			continue
		}
		w.execute(j)
	}
}

func (w *worker) execute(j *job) {
	j.stop()
	if j.ctx.Err() != nil {
		j.abort(newCanceledError(j.id, context.Cause(j.ctx)))
		return
	}
	if err := w.pool.sem.Acquire(j.ctx, 1); err != nil {
		j.abort(newCanceledError(j.id, err))
		return
	}
	defer w.pool.sem.Release(1)

	start := time.Now()
	w.logger.Debug("job started", zap.String("job", j.id))
	if err := j.run(w); err != nil {
		w.logger.Warn("job failed",
			zap.String("job", j.id),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return
	}
	w.logger.Debug("job finished",
		zap.String("job", j.id),
		zap.Duration("elapsed", time.Since(start)))
}

// close queues the connection close behind every pending job and waits
// for it.
func (w *worker) close(ctx context.Context) error {
	w.closeOnce.Do(func() {
		w.closing.Store(true)
		h, j := prepare(context.Background(), w, func(_ context.Context, c *store.Conn) (struct{}, error) {
			if c == nil {
				return struct{}{}, nil
			}
			return struct{}{}, c.Close()
		})
		w.closed = h
		w.enqueue(j, true)
	})

	_, err := w.closed.Wait(ctx)
	if dberr.IsCanceled(err) {
		return err
	}
	w.pool.discard(w)
	if err == nil {
		w.logger.Debug("connection closed")
	}
	return err
}
