// Package views builds the alternative tabular renderings of a move list.
// Builders are pure: the same Input always yields an equal tree, and no
// builder touches the document.
package views

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/park285/chess-movetable/internal/movedata"
	"github.com/park285/chess-movetable/internal/msgcat"
	"github.com/park285/chess-movetable/internal/notation"
	"github.com/park285/chess-movetable/internal/vdom"
)

// Input is everything a builder reads.
type Input struct {
	Moves []movedata.MoveRecord
	Msgs  *msgcat.Catalog
	// Focus is attached to focusable Move cells.
	Focus vdom.Hooks
}

// Builder renders one view section.
type Builder func(Input) *vdom.Node

// Kind names a view for configuration.
type Kind string

const (
	KindPlainTable         Kind = "plain-table"
	KindARIATable          Kind = "aria-table"
	KindARIATableFocusable Kind = "aria-table-focusable"
	KindRoleGrid           Kind = "role-grid"
	KindPlainGrid          Kind = "plain-grid"
)

var registry = map[Kind]Builder{
	KindPlainTable:         PlainTable,
	KindARIATable:          func(in Input) *vdom.Node { return ARIATable(in, false) },
	KindARIATableFocusable: func(in Input) *vdom.Node { return ARIATable(in, true) },
	KindRoleGrid:           RoleGrid,
	KindPlainGrid:          PlainGrid,
}

// Kinds lists every registered kind in display order.
func Kinds() []Kind {
	return []Kind{KindPlainTable, KindARIATable, KindARIATableFocusable, KindRoleGrid, KindPlainGrid}
}

// Lookup returns the builder for k.
func Lookup(k Kind) (Builder, bool) {
	b, ok := registry[k]
	return b, ok
}

// Resolve maps configured names to kinds, keeping their order and rejecting
// unknown or repeated names.
func Resolve(names []string) ([]Kind, error) {
	seen := make(map[Kind]bool, len(names))
	out := make([]Kind, 0, len(names))
	for _, n := range names {
		k := Kind(strings.TrimSpace(n))
		if _, ok := registry[k]; !ok {
			return nil, fmt.Errorf("unknown view %q", n)
		}
		if seen[k] {
			return nil, fmt.Errorf("view %q listed twice", n)
		}
		seen[k] = true
		out = append(out, k)
	}
	return out, nil
}

// HasGrid reports whether any kind renders focusable div cells.
func HasGrid(kinds []Kind) bool {
	for _, k := range kinds {
		if k == KindRoleGrid || k == KindPlainGrid {
			return true
		}
	}
	return false
}

// LabelID is the id of the heading that names the view.
func LabelID(k Kind) string { return string(k) + "-label" }

var columnKeys = [...]string{"columns.turn", "columns.move", "columns.movetime", "columns.advantage"}

// ColumnCount is the fixed number of columns in every view.
const ColumnCount = len(columnKeys)

func columnLabels(in Input) []string {
	out := make([]string, len(columnKeys))
	for i, key := range columnKeys {
		out[i] = catalog(in).Text(key, nil)
	}
	return out
}

// cellTexts returns the four cell strings of a record in column order.
func cellTexts(in Input, m movedata.MoveRecord) []string {
	msgs := catalog(in)
	return []string{
		strconv.Itoa(m.Turn),
		msgs.Text("cell.move", struct{ Color, Notation string }{string(m.Color), notation.Display(m.Notation)}),
		msgs.Text("cell.movetime", struct{ Seconds string }{m.MoveTime.String()}),
		m.AdvantageLabel,
	}
}

func catalog(in Input) *msgcat.Catalog {
	if in.Msgs != nil {
		return in.Msgs
	}
	return msgcat.Default()
}

func rowKey(m movedata.MoveRecord) vdom.Key { return vdom.Key(strconv.Itoa(m.Ply)) }

const headerKey = vdom.Key("header")

// section wraps a view body with its labelled heading.
func section(in Input, k Kind, body *vdom.Node) *vdom.Node {
	return vdom.H("section.view", vdom.Key(k),
		vdom.H("h2#"+LabelID(k), catalog(in).Text("views."+string(k), nil)),
		body,
	)
}
