package pathfind

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/midgard-nav/internal/nav"
)

var (
	// ErrDispatcherClosed is returned by Dispatch after Close.
	ErrDispatcherClosed = errors.New("path dispatcher closed")
	// ErrDispatcherBusy is returned by TryDispatch when the queue is full.
	ErrDispatcherBusy = errors.New("path dispatcher queue full")
)

// Find takes the grid's shared lock within req.Timeout, runs Search and
// releases the lock. A lock timeout is reported as ReasonLockTimeout.
func Find(ctx context.Context, g *nav.Grid, req Request, opts Options) Result {
	if err := g.RLock(ctx, req.Timeout); err != nil {
		return Result{Reason: ReasonLockTimeout, Callback: req.Callback}
	}
	defer g.RUnlock()
	return Search(g.View(), req, opts)
}

// DispatcherConfig sizes the worker pool.
type DispatcherConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

// DefaultDispatcherConfig returns four workers and a 256-deep queue.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{Workers: 4, QueueSize: 256}
}

// Stats counts finished searches.
type Stats struct {
	Succeeded uint64
	Failed    uint64
}

type job struct {
	req      Request
	deadline time.Time // Set only for a positive timeout
	queued   time.Time
}

// budget returns the lock timeout left for the job. A positive timeout that
// expired while queued reports false; zero and negative timeouts pass
// through unchanged.
func (j job) budget() (time.Duration, bool) {
	if j.deadline.IsZero() {
		return j.req.Timeout, true
	}
	left := time.Until(j.deadline)
	return left, left > 0
}

// Dispatcher runs path requests on a fixed pool of worker goroutines and
// delivers each Result to the request's callback on the worker.
type Dispatcher struct {
	ctx  context.Context
	grid *nav.Grid
	opts Options
	log  *zap.Logger

	queue  chan job
	group  *errgroup.Group
	mu     sync.RWMutex
	closed bool

	succeeded atomic.Uint64
	failed    atomic.Uint64
}

// NewDispatcher starts cfg.Workers workers. Cancelling ctx aborts lock
// waits of queued requests; it does not stop the workers, Close does.
func NewDispatcher(ctx context.Context, g *nav.Grid, cfg DispatcherConfig, opts Options, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	workers := max(cfg.Workers, 1)
	d := &Dispatcher{
		ctx:   ctx,
		grid:  g,
		opts:  opts,
		log:   log,
		queue: make(chan job, max(cfg.QueueSize, 0)),
		group: &errgroup.Group{},
	}
	for range workers {
		d.group.Go(d.work)
	}
	log.Debug("path dispatcher started", zap.Int("workers", workers), zap.Int("queue", cap(d.queue)))
	return d
}

// Dispatch queues req and returns without running the search. The lock
// budget in req.Timeout starts counting now. Dispatch blocks while the queue
// is full, so a callback that dispatches more work must use TryDispatch:
// with every worker inside a callback nothing drains the queue.
func (d *Dispatcher) Dispatch(req Request) error {
	return d.enqueue(req, true)
}

// TryDispatch is Dispatch without blocking. It returns ErrDispatcherBusy
// when the queue is full.
func (d *Dispatcher) TryDispatch(req Request) error {
	return d.enqueue(req, false)
}

func (d *Dispatcher) enqueue(req Request, block bool) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	now := time.Now()
	j := job{req: req, queued: now}
	if req.Timeout > 0 {
		j.deadline = now.Add(req.Timeout)
	}
	if block {
		d.queue <- j
		return nil
	}
	select {
	case d.queue <- j:
		return nil
	default:
		return ErrDispatcherBusy
	}
}

// FindPath dispatches req and waits for its result. The request's own
// callback, if any, still runs first on the worker.
func (d *Dispatcher) FindPath(ctx context.Context, req Request) Result {
	done := make(chan Result, 1)
	orig := req.Callback
	req.Callback = func(r Result) {
		r.Callback = orig
		defer func() { done <- r }()
		if orig != nil {
			orig(r)
		}
	}

	if err := d.Dispatch(req); err != nil {
		return Result{Reason: ReasonClosed, Callback: orig}
	}
	select {
	case r := <-done:
		return r
	case <-ctx.Done():
		return Result{Reason: ReasonCanceled, Callback: orig}
	}
}

// Close stops accepting requests, completes everything already queued and
// waits for the workers to exit.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	err := d.group.Wait()
	st := d.Stats()
	d.log.Debug("path dispatcher stopped",
		zap.Uint64("succeeded", st.Succeeded),
		zap.Uint64("failed", st.Failed),
	)
	return err
}

// Stats returns the number of finished searches so far.
func (d *Dispatcher) Stats() Stats {
	return Stats{Succeeded: d.succeeded.Load(), Failed: d.failed.Load()}
}

func (d *Dispatcher) work() error {
	for j := range d.queue {
		d.run(j)
	}
	return nil
}

func (d *Dispatcher) run(j job) {
	started := time.Now()
	var res Result
	if left, ok := j.budget(); ok {
		req := j.req
		req.Timeout = left
		res = Find(d.ctx, d.grid, req, d.opts)
	} else {
		// The lock budget ran out in the queue.
		res = Result{Reason: ReasonLockTimeout, Callback: j.req.Callback}
	}
	if res.Success {
		d.succeeded.Add(1)
	} else {
		d.failed.Add(1)
	}

	d.log.Debug("path search finished",
		zap.Bool("success", res.Success),
		zap.Stringer("reason", res.Reason),
		zap.Int("waypoints", len(res.Points)),
		zap.Int("cost", res.Cost),
		zap.Duration("queued", started.Sub(j.queued)),
		zap.Duration("elapsed", time.Since(started)),
	)

	d.deliver(res)
}

func (d *Dispatcher) deliver(res Result) {
	if res.Callback == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("path callback panicked", zap.Any("panic", r))
		}
	}()
	res.Callback(res)
}
