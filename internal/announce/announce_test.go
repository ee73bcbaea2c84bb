package announce

import (
	"testing"

	"github.com/park285/chess-movetable/internal/vdom"
)

type fixture struct {
	doc *vdom.Document
	ann *Announcer
	ops []vdom.Op
}

func setup(t *testing.T, mode Mode, withRegion bool) *fixture {
	t.Helper()
	doc, err := vdom.NewDocument(vdom.Options{MountID: "container"})
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	f := &fixture{doc: doc, ann: New(mode, &vdom.Ref{})}
	doc.SetMutationSink(func(op vdom.Op) { f.ops = append(f.ops, op) })
	cells := []*vdom.Node{
		vdom.H("div", vdom.Attrs{"tabindex": "0"}, f.ann.Hooks(), "white played 1 e4"),
		vdom.H("div", vdom.Attrs{"tabindex": "0"}, f.ann.Hooks(), "black played e5"),
	}
	var region *vdom.Node
	if withRegion {
		region = LiveRegion(f.ann.Region())
	}
	if _, _, err := doc.Patch(doc.Mount(), vdom.H("main", vdom.H("div.grid", cells), region)); err != nil {
		t.Fatalf("Patch: %v", err)
	}
	return f
}

func (f *fixture) region(t *testing.T) string {
	t.Helper()
	el := f.doc.GetElementByID(RegionID)
	if el == nil {
		t.Fatalf("no live region")
	}
	return vdom.TextContent(el)
}

func TestLiveRegionIsAssertive(t *testing.T) {
	f := setup(t, Persistent, true)
	el := f.doc.GetElementByID(RegionID)
	if vdom.Attr(el, "aria-live") != "assertive" || vdom.Attr(el, "aria-atomic") != "true" {
		t.Fatalf("region attributes: %+v", el.Attr)
	}
}

func TestPersistentAnnouncesEachFocus(t *testing.T) {
	f := setup(t, Persistent, true)
	steps := []struct {
		path []int
		want string
		ops  int
	}{
		{[]int{0, 0}, "white played 1 e4", 1},
		{[]int{0, 0}, "white played 1 e4", 1}, // re-entry on the active element
		{[]int{0, 1}, "black played e5", 2},
		{[]int{0, 0}, "white played 1 e4", 3},
	}
	for i, s := range steps {
		if err := f.doc.FocusPath(s.path); err != nil {
			t.Fatalf("step %d: FocusPath: %v", i, err)
		}
		if got := f.region(t); got != s.want {
			t.Fatalf("step %d: region = %q, want %q", i, got, s.want)
		}
		if len(f.ops) != s.ops {
			t.Fatalf("step %d: %d mutations, want %d", i, len(f.ops), s.ops)
		}
	}
}

func TestOneShotFiresOncePerElement(t *testing.T) {
	f := setup(t, OneShot, true)
	for _, p := range [][]int{{0, 0}, {0, 1}, {0, 0}, {0, 1}} {
		if err := f.doc.FocusPath(p); err != nil {
			t.Fatalf("FocusPath %v: %v", p, err)
		}
	}
	if len(f.ops) != 2 {
		t.Fatalf("expected 2 announcements, got %d", len(f.ops))
	}
	if got := f.region(t); got != "black played e5" {
		t.Fatalf("region = %q", got)
	}
}

func TestMissingRegionIsSilent(t *testing.T) {
	f := setup(t, Persistent, false)
	if err := f.doc.FocusPath([]int{0, 1}); err != nil {
		t.Fatalf("focus must not fail without a region: %v", err)
	}
	if len(f.ops) != 0 {
		t.Fatalf("expected no mutations, got %+v", f.ops)
	}
	if f.doc.Active() == nil {
		t.Fatalf("focus did not move")
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("oneshot"); err != nil || m != OneShot {
		t.Fatalf("oneshot: %v %v", m, err)
	}
	if m, err := ParseMode(""); err != nil || m != Persistent {
		t.Fatalf("default: %v %v", m, err)
	}
	if _, err := ParseMode("loud"); err == nil {
		t.Fatalf("expected error")
	}
}
