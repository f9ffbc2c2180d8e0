// Package looper provides a single-goroutine task loop. All checkout state that
// is observed by the host (observables, dispatch managers, scopes) is owned by
// one Loop and must only be touched from tasks running on it.
package looper

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Loop executes posted tasks one at a time, in FIFO order, on a single goroutine.
type Loop struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}

	executing atomic.Bool
	running   atomic.Bool
}

func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
	}
}

// Post enqueues a task. It never blocks and may be called from any goroutine,
// including from a task already running on the loop.
func (l *Loop) Post(task func()) {
	l.mu.Lock()
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Do posts a task and waits until it has run or ctx is done. It must not be
// called from a loop task: the task could never run, so Do would only return
// through ctx.
func (l *Loop) Do(ctx context.Context, task func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		task()
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drives the loop until ctx is cancelled. Tasks still queued at that
// point are dropped.
func (l *Loop) Run(ctx context.Context) {
	if !l.running.CompareAndSwap(false, true) {
		panic("looper: Run called twice")
	}
	defer l.running.Store(false)

	for {
		l.mu.Lock()
		tasks := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, task := range tasks {
			if ctx.Err() != nil {
				return
			}
			l.execute(task)
		}

		if len(tasks) > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		}
	}
}

// Start runs the loop on a new goroutine.
func (l *Loop) Start(ctx context.Context) {
	go l.Run(ctx)
}

func (l *Loop) execute(task func()) {
	l.executing.Store(true)
	defer l.executing.Store(false)
	task()
}

// OnLoop reports whether a loop task is currently executing. Go exposes no
// goroutine identity, so another goroutine that asks while a task runs also
// sees true; the answer is exact only for callers running inside a task.
func (l *Loop) OnLoop() bool {
	return l.executing.Load()
}

// AssertOnLoop panics when op is invoked while the loop is not executing a
// task. It is a best-effort check: an off-loop call made while some task is
// executing is not caught, and only the race detector reports it.
func (l *Loop) AssertOnLoop(op string) {
	if !l.OnLoop() {
		panic(fmt.Sprintf("looper: %s must be called on the event loop", op))
	}
}
