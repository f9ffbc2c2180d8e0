package services

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// workerPool runs tasks on at most size goroutines. Submit never blocks, so
// it is safe to call from the event loop; tasks start in FIFO order.
type workerPool struct {
	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	queue  []func(ctx context.Context)
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

func newWorkerPool(size int) *workerPool {
	if size < 1 {
		size = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	group := &errgroup.Group{}
	group.SetLimit(size)

	p := &workerPool{
		group:  group,
		ctx:    ctx,
		cancel: cancel,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// Submit queues task. It returns false once the pool is closed.
func (p *workerPool) Submit(task func(ctx context.Context)) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	p.queue = append(p.queue, task)
	p.mu.Unlock()

	p.signal()
	return true
}

func (p *workerPool) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *workerPool) run() {
	defer close(p.done)

	for {
		p.mu.Lock()
		tasks := p.queue
		p.queue = nil
		closed := p.closed
		p.mu.Unlock()

		for _, task := range tasks {
			// Go blocks while size tasks are running.
			p.group.Go(func() error {
				task(p.ctx)
				return nil
			})
		}

		if len(tasks) > 0 {
			continue
		}
		if closed {
			return
		}
		<-p.wake
	}
}

// Close cancels the context seen by running and queued tasks, lets every
// queued task observe the cancellation, and waits for all of them.
func (p *workerPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.done
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.signal()
	<-p.done
	_ = p.group.Wait()
}
