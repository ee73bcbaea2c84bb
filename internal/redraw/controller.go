// Package redraw keeps exactly one rendered tree in sync with the latest
// dataset.
package redraw

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/park285/chess-movetable/internal/announce"
	"github.com/park285/chess-movetable/internal/hub"
	"github.com/park285/chess-movetable/internal/movedata"
	"github.com/park285/chess-movetable/internal/msgcat"
	"github.com/park285/chess-movetable/internal/obslog"
	"github.com/park285/chess-movetable/internal/vdom"
	"github.com/park285/chess-movetable/internal/views"
	"go.uber.org/zap"
)

// Seq orders loads. Later loads win regardless of completion order.
type Seq uint64

// Origin says where a load came from.
type Origin int

const (
	// FromFetch is the initial network load.
	FromFetch Origin = iota
	// FromImport is a user-supplied file.
	FromImport
)

func (o Origin) String() string {
	if o == FromImport {
		return "import"
	}
	return "fetch"
}

const publishTimeout = 2 * time.Second

// Options wire a controller.
type Options struct {
	Doc          *vdom.Document
	Views        []views.Kind
	Msgs         *msgcat.Catalog
	AnnounceMode announce.Mode
	Hub          hub.Broadcaster
}

// Controller owns the document, the live tree and the current dataset.
// Its methods must run on the Loop.
type Controller struct {
	doc   *vdom.Document
	kinds []views.Kind
	msgs  *msgcat.Catalog
	ann   *announce.Announcer
	hub   hub.Broadcaster
	// replica tags every frame so sessions ignore other controllers
	// publishing on a shared channel.
	replica string

	tree     *vdom.Tree
	moves    []movedata.MoveRecord
	hasData  bool
	imported bool
	status   views.Status

	nextSeq      Seq
	committedSeq Seq
	frameSeq     uint64
}

// New returns a controller in the loading state. Nothing is rendered until
// the first Redraw.
func New(opts Options) (*Controller, error) {
	if opts.Doc == nil {
		return nil, errors.New("redraw: document is required")
	}
	if len(opts.Views) == 0 {
		return nil, errors.New("redraw: at least one view is required")
	}
	msgs := opts.Msgs
	if msgs == nil {
		msgs = msgcat.Default()
	}
	c := &Controller{
		doc:     opts.Doc,
		kinds:   append([]views.Kind(nil), opts.Views...),
		msgs:    msgs,
		ann:     announce.New(opts.AnnounceMode, &vdom.Ref{}),
		hub:     opts.Hub,
		replica: uuid.NewString(),
		status:  views.Status{State: views.StateLoading},
	}
	c.doc.SetMutationSink(func(op vdom.Op) { c.publish(hub.Frame{Kind: hub.FramePatch, Ops: []vdom.Op{op}}) })
	return c, nil
}

// Document returns the owned document.
func (c *Controller) Document() *vdom.Document { return c.doc }

// Status reports the load state shown by the banner.
func (c *Controller) Status() views.Status { return c.status }

// Moves returns the current dataset. The slice is never mutated in place.
func (c *Controller) Moves() ([]movedata.MoveRecord, bool) { return c.moves, c.hasData }

// FrameSeq is the sequence of the last published frame.
func (c *Controller) FrameSeq() uint64 { return c.frameSeq }

// Replica identifies the frames this controller publishes.
func (c *Controller) Replica() string { return c.replica }

// Build composes the top-level tree from the current state.
func (c *Controller) Build() *vdom.Node {
	children := make([]*vdom.Node, 0, len(c.kinds)+3)
	children = append(children, views.StatusBanner(c.msgs, c.status))
	if c.hasData {
		in := views.Input{Moves: c.moves, Msgs: c.msgs, Focus: c.ann.Hooks()}
		for _, k := range c.kinds {
			build, ok := views.Lookup(k)
			if !ok {
				continue
			}
			children = append(children, build(in))
		}
	}
	children = append(children, views.UploadControl(c.msgs), announce.LiveRegion(c.ann.Region()))
	return vdom.H("main", children)
}

// Redraw patches the document to match Build and publishes the mutations.
func (c *Controller) Redraw() error {
	var target vdom.Target = c.doc.Mount()
	if c.tree != nil {
		target = c.tree
	}
	tree, ops, err := c.doc.Patch(target, c.Build())
	if err != nil {
		return fmt.Errorf("redraw: %w", err)
	}
	c.tree = tree
	redrawsTotal.Inc()
	redrawOps.Observe(float64(len(ops)))
	if len(ops) > 0 {
		c.publish(hub.Frame{Kind: hub.FramePatch, Ops: ops})
	}
	return nil
}

// BeginLoad stamps a new load.
func (c *Controller) BeginLoad() Seq {
	c.nextSeq++
	return c.nextSeq
}

// Commit replaces the dataset wholesale and redraws, unless a later load
// already committed. Once an import has committed, fetched data is never
// shown, whatever its sequence.
func (c *Controller) Commit(seq Seq, ds *movedata.ExperimentalDataset, from Origin) (bool, error) {
	if ds == nil {
		return false, errors.New("redraw: nil dataset")
	}
	if seq <= c.committedSeq || (from == FromFetch && c.imported) {
		loadsTotal.WithLabelValues("discarded").Inc()
		obslog.L().Info("load_discarded",
			zap.Uint64("seq", uint64(seq)),
			zap.Uint64("committed", uint64(c.committedSeq)),
			zap.Stringer("origin", from),
			zap.Bool("imported", c.imported))
		return false, nil
	}
	c.committedSeq = seq
	if from == FromImport {
		c.imported = true
	}
	c.moves = append([]movedata.MoveRecord(nil), ds.Moves...)
	c.hasData = true
	c.status = views.Status{State: views.StateReady}
	loadsTotal.WithLabelValues("committed").Inc()
	datasetSize.Set(float64(len(c.moves)))
	obslog.L().Info("redraw_commit", zap.Uint64("seq", uint64(seq)), zap.Int("moves", len(c.moves)))
	return true, c.Redraw()
}

// Fail records a failed load. The failed state is only shown while no
// dataset has been committed; otherwise the current view stays.
func (c *Controller) Fail(seq Seq, cause error) (bool, error) {
	if cause == nil {
		cause = errors.New("unknown error")
	}
	if seq <= c.committedSeq || c.hasData {
		loadsTotal.WithLabelValues("discarded").Inc()
		obslog.L().Info("load_failure_ignored", zap.Uint64("seq", uint64(seq)), zap.Error(cause))
		return false, nil
	}
	loadsTotal.WithLabelValues("failed").Inc()
	obslog.L().Warn("load_failed", zap.Uint64("seq", uint64(seq)), zap.Error(cause))
	c.status = views.Status{State: views.StateFailed, Err: cause.Error()}
	return true, c.Redraw()
}

// Focus moves document focus to the element at path, running its hook.
func (c *Controller) Focus(path []int) error {
	return c.doc.FocusPath(path)
}

// Blur clears document focus.
func (c *Controller) Blur() { c.doc.Blur() }

// Notify publishes a message the client shows as a blocking alert.
func (c *Controller) Notify(msg string) {
	c.publish(hub.Frame{Kind: hub.FrameNotify, Message: msg})
}

// Snapshot returns the rendered root and the frame sequence it reflects.
func (c *Controller) Snapshot() hub.Frame {
	return hub.Frame{Kind: hub.FrameReset, Replica: c.replica, Seq: c.frameSeq, HTML: c.doc.RootHTML()}
}

func (c *Controller) publish(f hub.Frame) {
	c.frameSeq++
	f.Seq = c.frameSeq
	f.Replica = c.replica
	if c.hub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := c.hub.Publish(ctx, f); err != nil {
		obslog.L().Warn("frame_publish_failed", zap.String("kind", string(f.Kind)), zap.Uint64("seq", f.Seq), zap.Error(err))
	}
}
