package hub

import (
	"context"
	"sync"
	"time"

	"github.com/park285/chess-movetable/internal/obslog"
	"go.uber.org/zap"
)

// DefaultQueue is the number of frames Async holds before Publish blocks.
const DefaultQueue = 1024

const asyncPublishTimeout = 2 * time.Second

// Async hands frames to a slow broadcaster from its own goroutine, so the
// publisher only waits when the queue is full. Frames keep their order.
type Async struct {
	inner Broadcaster
	queue chan Frame
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// NewAsync starts draining into inner. Close closes inner.
func NewAsync(inner Broadcaster, queue int) *Async {
	if queue <= 0 {
		queue = DefaultQueue
	}
	a := &Async{
		inner: inner,
		queue: make(chan Frame, queue),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go a.drain()
	return a
}

// Publish queues f. It blocks only while the queue is full, until ctx is
// done.
func (a *Async) Publish(ctx context.Context, f Frame) error {
	select {
	case <-a.quit:
		return ErrClosed
	default:
	}
	select {
	case a.queue <- f:
		return nil
	case <-a.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Async) Subscribe(ctx context.Context) (*Subscription, error) {
	return a.inner.Subscribe(ctx)
}

// Close flushes queued frames, then closes the inner broadcaster.
func (a *Async) Close() error {
	a.once.Do(func() { close(a.quit) })
	<-a.done
	return a.inner.Close()
}

func (a *Async) drain() {
	defer close(a.done)
	for {
		select {
		case f := <-a.queue:
			a.forward(f)
		case <-a.quit:
			for {
				select {
				case f := <-a.queue:
					a.forward(f)
				default:
					return
				}
			}
		}
	}
}

func (a *Async) forward(f Frame) {
	ctx, cancel := context.WithTimeout(context.Background(), asyncPublishTimeout)
	defer cancel()
	if err := a.inner.Publish(ctx, f); err != nil {
		obslog.L().Warn("frame_publish_failed", zap.String("kind", string(f.Kind)), zap.Uint64("seq", f.Seq), zap.Error(err))
	}
}
