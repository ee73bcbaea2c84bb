package redraw

import (
	"context"
	"errors"
)

// ErrLoopStopped is returned by Do once Run has returned.
var ErrLoopStopped = errors.New("event loop stopped")

// Loop runs submitted functions one at a time on a single goroutine. Every
// access to the controller and its document goes through it.
type Loop struct {
	reqs chan func()
	done chan struct{}
}

// NewLoop returns a loop that is idle until Run is called.
func NewLoop() *Loop {
	return &Loop{reqs: make(chan func()), done: make(chan struct{})}
}

// Run executes submitted work until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.reqs:
			fn()
		}
	}
}

// Do runs fn on the loop and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	job := func() {
		defer close(finished)
		fn()
	}
	select {
	case l.reqs <- job:
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

// Call runs fn on the loop and returns its result.
func Call[T any](ctx context.Context, l *Loop, fn func() (T, error)) (T, error) {
	var (
		out T
		err error
	)
	if derr := l.Do(ctx, func() { out, err = fn() }); derr != nil {
		var zero T
		return zero, derr
	}
	return out, err
}
