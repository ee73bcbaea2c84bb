// Package hub fans document frames out to connected sessions.
package hub

import (
	"context"
	"errors"

	"github.com/park285/chess-movetable/internal/vdom"
)

// FrameKind tells the client how to apply a frame.
type FrameKind string

const (
	// FramePatch carries ops to replay in order.
	FramePatch FrameKind = "patch"
	// FrameNotify carries a message shown as a blocking alert.
	FrameNotify FrameKind = "notify"
	// FrameReset carries the whole rendered root; patches up to Seq are
	// already applied to it.
	FrameReset FrameKind = "reset"
)

// Frame is one server-to-browser message. Seq is only ordered within one
// Replica.
type Frame struct {
	Kind    FrameKind `json:"kind"`
	Replica string    `json:"replica,omitempty"`
	Seq     uint64    `json:"seq"`
	Ops     []vdom.Op `json:"ops,omitempty"`
	HTML    string    `json:"html,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Follows reports whether f must be applied on top of the reset frame snap.
func (f Frame) Follows(snap Frame) bool {
	return f.Replica == snap.Replica && f.Seq > snap.Seq
}

// ErrClosed is returned after Close.
var ErrClosed = errors.New("hub closed")

// Subscription delivers frames in publish order. C is closed when the
// subscription ends, including when the subscriber fell too far behind.
type Subscription struct {
	C     <-chan Frame
	close func()
}

// Close ends the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}

// Broadcaster publishes frames to every live subscription.
type Broadcaster interface {
	Publish(ctx context.Context, f Frame) error
	Subscribe(ctx context.Context) (*Subscription, error)
	Close() error
}
