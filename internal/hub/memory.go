package hub

import (
	"context"
	"sync"

	"github.com/park285/chess-movetable/internal/obslog"
	"go.uber.org/zap"
)

// DefaultBuffer is the per-subscriber backlog before it is dropped.
const DefaultBuffer = 64

// Memory is an in-process broadcaster.
type Memory struct {
	mu     sync.Mutex
	subs   map[chan Frame]struct{}
	buffer int
	closed bool
}

// NewMemory returns a broadcaster with the given per-subscriber buffer.
func NewMemory(buffer int) *Memory {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Memory{subs: make(map[chan Frame]struct{}), buffer: buffer}
}

// Publish never blocks. A subscriber whose buffer is full is dropped so it
// reconnects and resynchronises from a reset frame.
func (m *Memory) Publish(_ context.Context, f Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	for ch := range m.subs {
		select {
		case ch <- f:
		default:
			delete(m.subs, ch)
			close(ch)
			obslog.L().Warn("hub_subscriber_dropped", zap.Uint64("seq", f.Seq))
		}
	}
	return nil
}

// Subscribe registers a subscriber. It ends when ctx is done or Close is
// called on it.
func (m *Memory) Subscribe(ctx context.Context) (*Subscription, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	ch := make(chan Frame, m.buffer)
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			m.mu.Lock()
			defer m.mu.Unlock()
			if _, ok := m.subs[ch]; ok {
				delete(m.subs, ch)
				close(ch)
			}
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-done:
		}
	}()
	return &Subscription{C: ch, close: stop}, nil
}

// Close ends every subscription.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for ch := range m.subs {
		close(ch)
	}
	clear(m.subs)
	return nil
}
