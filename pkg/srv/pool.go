package srv

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sandevgo/ragmemory/pkg/log"
)

var ErrPoolClosed = errors.New("worker pool is closed")

// Task is a unit of background work. The context it receives is detached from
// the request that submitted it.
type Task func(ctx context.Context) error

type namedTask struct {
	name string
	run  Task
}

type TaskError struct {
	Name string
	Err  error
}

func (e TaskError) Error() string {
	return fmt.Sprintf("task %s: %v", e.Name, e.Err)
}

func (e TaskError) Unwrap() error {
	return e.Err
}

type PoolOption func(*Pool)

// WithTaskTimeout bounds every task run.
func WithTaskTimeout(d time.Duration) PoolOption {
	return func(p *Pool) { p.taskTimeout = d }
}

// WithDropHook is called with the task name whenever the queue is full.
func WithDropHook(fn func(name string)) PoolOption {
	return func(p *Pool) { p.onDrop = fn }
}

// Pool is a fixed set of workers draining a bounded queue. Submit never
// blocks; failures are reported on an error channel that the pool logs.
type Pool struct {
	workers     int
	taskTimeout time.Duration
	onDrop      func(name string)

	mu      sync.RWMutex
	closed  bool
	started bool
	tasks   chan namedTask
	errs    chan TaskError

	wg      sync.WaitGroup
	errDone chan struct{}
}

func NewPool(workers, queueSize int, opts ...PoolOption) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	p := &Pool{
		workers: workers,
		tasks:   make(chan namedTask, queueSize),
		errs:    make(chan TaskError, queueSize),
		errDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the workers and returns. ctx provides the logger; its
// cancellation does not cancel queued tasks, Shutdown does the draining.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}
	if p.started {
		return nil
	}
	p.started = true

	base := context.WithoutCancel(ctx)
	logger := log.FromCtx(ctx).With().Str("component", "worker_pool").Logger()

	go func() {
		defer close(p.errDone)
		for te := range p.errs {
			logger.Error().Err(te.Err).Str("task", te.Name).Msg("background task failed")
		}
	}()

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for t := range p.tasks {
				p.run(base, t)
			}
		}()
	}

	logger.Debug().Int("workers", p.workers).Msg("worker pool started")
	return nil
}

func (p *Pool) run(base context.Context, t namedTask) {
	ctx := base
	if p.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(base, p.taskTimeout)
		defer cancel()
	}

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return t.run(ctx)
	}()
	if err != nil {
		p.errs <- TaskError{Name: t.name, Err: err}
	}
}

// Submit enqueues a task. It returns false when the pool is closed or the
// queue is full; the task is dropped in both cases.
func (p *Pool) Submit(name string, task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}

	select {
	case p.tasks <- namedTask{name: name, run: task}:
		return true
	default:
		if p.onDrop != nil {
			p.onDrop(name)
		}
		return false
	}
}

// Shutdown stops intake and waits for queued and running tasks until ctx expires.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.tasks)
	started := p.started
	p.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(p.errs)
		<-p.errDone
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker pool drain: %w", ctx.Err())
	}
}
