package redraw

import (
	"context"

	"github.com/park285/chess-movetable/internal/hub"
	"github.com/park285/chess-movetable/internal/movedata"
)

// Service exposes the controller to other goroutines by running every call
// on the loop.
type Service struct {
	loop *Loop
	ctrl *Controller
}

// NewService pairs a controller with the loop that owns it.
func NewService(loop *Loop, ctrl *Controller) *Service {
	return &Service{loop: loop, ctrl: ctrl}
}

func (s *Service) Redraw(ctx context.Context) error {
	return s.call(ctx, s.ctrl.Redraw)
}

func (s *Service) BeginLoad(ctx context.Context) (Seq, error) {
	return Call(ctx, s.loop, func() (Seq, error) { return s.ctrl.BeginLoad(), nil })
}

func (s *Service) Commit(ctx context.Context, seq Seq, ds *movedata.ExperimentalDataset, from Origin) (bool, error) {
	return Call(ctx, s.loop, func() (bool, error) { return s.ctrl.Commit(seq, ds, from) })
}

func (s *Service) Fail(ctx context.Context, seq Seq, cause error) (bool, error) {
	return Call(ctx, s.loop, func() (bool, error) { return s.ctrl.Fail(seq, cause) })
}

func (s *Service) Focus(ctx context.Context, path []int) error {
	return s.call(ctx, func() error { return s.ctrl.Focus(path) })
}

func (s *Service) Blur(ctx context.Context) error {
	return s.call(ctx, func() error { s.ctrl.Blur(); return nil })
}

func (s *Service) Notify(ctx context.Context, msg string) error {
	return s.call(ctx, func() error { s.ctrl.Notify(msg); return nil })
}

// Snapshot returns a reset frame for a newly attached session.
func (s *Service) Snapshot(ctx context.Context) (hub.Frame, error) {
	return Call(ctx, s.loop, func() (hub.Frame, error) { return s.ctrl.Snapshot(), nil })
}

// Page renders the whole document.
func (s *Service) Page(ctx context.Context) (string, error) {
	return Call(ctx, s.loop, func() (string, error) { return s.ctrl.Document().String(), nil })
}

// Moves returns the current dataset, if any.
func (s *Service) Moves(ctx context.Context) ([]movedata.MoveRecord, error) {
	return Call(ctx, s.loop, func() ([]movedata.MoveRecord, error) {
		moves, _ := s.ctrl.Moves()
		return moves, nil
	})
}

func (s *Service) call(ctx context.Context, fn func() error) error {
	_, err := Call(ctx, s.loop, func() (struct{}, error) { return struct{}{}, fn() })
	return err
}
