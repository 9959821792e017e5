package viewer

import (
	"context"
	"sync"
)

// Loop runs tasks one at a time on a single goroutine, in the order they were posted.
// The queue is bounded: Post blocks while it is full.
type Loop struct {
	tasks     chan func()
	quit      chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
	afterEach func()
	onExit    func()
}

// NewLoop starts a loop with room for size queued tasks.
// afterEach, when set, runs after every task. onExit, when set, runs on the
// loop goroutine once it stops, before Done is closed.
func NewLoop(size int, afterEach, onExit func()) *Loop {
	if size < 1 {
		size = 1
	}
	l := &Loop{
		tasks:     make(chan func(), size),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		afterEach: afterEach,
		onExit:    onExit,
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	if l.onExit != nil {
		defer l.onExit()
	}
	for {
		select {
		case <-l.quit:
			return
		default:
		}

		select {
		case <-l.quit:
			return
		case fn := <-l.tasks:
			fn()
			if l.afterEach != nil {
				l.afterEach()
			}
		}
	}
}

// Post queues fn. It returns false when the loop has stopped and fn was discarded.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.quit:
		return false
	default:
	}

	select {
	case l.tasks <- fn:
		return true
	case <-l.quit:
		return false
	}
}

// Call runs fn on the loop and waits for it to finish
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		fn()
		close(finished)
	}) {
		return ErrClosed
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrClosed
		}
	}
}

// Stop ends the loop. Queued tasks that have not started are dropped.
// It is safe to call from a task.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.quit) })
}

// Done is closed once the loop goroutine has exited
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
