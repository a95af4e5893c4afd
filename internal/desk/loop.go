package desk

import (
	"context"
	"sync"
)

// Loop is a single goroutine UI loop for surfaces without their own event
// loop. Post queues fn; Run executes queued callbacks one at a time.
type Loop struct {
	queue chan func()
	done  chan struct{}
	once  sync.Once
}

// NewLoop creates a Loop whose queue holds up to size pending callbacks.
func NewLoop(size int) *Loop {
	if size <= 0 {
		size = 64
	}
	return &Loop{
		queue: make(chan func(), size),
		done:  make(chan struct{}),
	}
}

// Post queues fn. It blocks while the queue is full and returns without
// queueing once the loop is stopped. Never call it from inside a callback.
func (l *Loop) Post(fn func()) {
	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

// Run executes callbacks until Stop is called or ctx ends.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case fn := <-l.queue:
			fn()
		case <-l.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stop ends Run. Safe to call from a callback and more than once.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.done) })
}
