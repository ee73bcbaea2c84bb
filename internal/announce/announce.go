// Package announce copies the text of a focused cell into an assertive live
// region so screen readers speak it immediately.
package announce

import (
	"fmt"
	"strings"

	"github.com/park285/chess-movetable/internal/obslog"
	"github.com/park285/chess-movetable/internal/vdom"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// RegionID is the id of the live region element.
const RegionID = "moveAnnouncer"

// Mode selects how often a cell announces itself.
type Mode int

const (
	// OneShot announces at most once per element, then detaches.
	OneShot Mode = iota
	// Persistent announces on every focus except re-entry on the already
	// active element.
	Persistent
)

func (m Mode) String() string {
	if m == OneShot {
		return "oneshot"
	}
	return "persistent"
}

// ParseMode accepts "oneshot" and "persistent".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "oneshot", "one-shot", "once":
		return OneShot, nil
	case "", "persistent":
		return Persistent, nil
	default:
		return Persistent, fmt.Errorf("unknown announce mode %q", s)
	}
}

// Announcer publishes focused cell text to the live region held by region.
type Announcer struct {
	mode   Mode
	region *vdom.Ref
	fired  map[*html.Node]struct{}
}

// New binds an announcer to the live region ref. The ref is filled once the
// region built by LiveRegion is patched into the document.
func New(mode Mode, region *vdom.Ref) *Announcer {
	return &Announcer{mode: mode, region: region, fired: make(map[*html.Node]struct{})}
}

// Region returns the ref the live region must carry.
func (a *Announcer) Region() *vdom.Ref { return a.region }

// Hooks returns the focus hook for announcing cells.
func (a *Announcer) Hooks() vdom.Hooks { return vdom.Hooks{Focus: a.onFocus} }

func (a *Announcer) onFocus(ev vdom.FocusEvent) {
	switch a.mode {
	case OneShot:
		if _, done := a.fired[ev.Target]; done {
			return
		}
		a.forgetDetached()
		a.fired[ev.Target] = struct{}{}
	default:
		if ev.Previous == ev.Target {
			return
		}
	}
	a.announce(ev.Doc, vdom.TextContent(ev.Target))
}

func (a *Announcer) announce(doc *vdom.Document, text string) {
	el := a.region.Elm()
	if doc == nil || el == nil {
		return
	}
	if err := doc.SetText(el, text); err != nil {
		obslog.L().Debug("announce_skipped", zap.String("reason", err.Error()))
	}
}

// forgetDetached drops elements a redraw has removed from the document.
func (a *Announcer) forgetDetached() {
	for el := range a.fired {
		if !attached(el) {
			delete(a.fired, el)
		}
	}
}

func attached(el *html.Node) bool {
	n := el
	for n.Parent != nil {
		n = n.Parent
	}
	return n.Type == html.DocumentNode
}

// LiveRegion builds the region element carrying ref.
func LiveRegion(ref *vdom.Ref) *vdom.Node {
	return vdom.H("div#"+RegionID, vdom.Key(RegionID), vdom.Attrs{
		"aria-live":   "assertive",
		"aria-atomic": "true",
	}, ref)
}
