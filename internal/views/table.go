package views

import (
	"strconv"

	"github.com/park285/chess-movetable/internal/movedata"
	"github.com/park285/chess-movetable/internal/vdom"
)

// PlainTable relies on native table semantics only.
func PlainTable(in Input) *vdom.Node {
	rows := make([]*vdom.Node, 0, len(in.Moves)+1)
	head := make([]*vdom.Node, 0, ColumnCount)
	for _, label := range columnLabels(in) {
		head = append(head, vdom.H("th", label))
	}
	rows = append(rows, vdom.H("tr", headerKey, head))
	for _, m := range in.Moves {
		cells := make([]*vdom.Node, 0, ColumnCount)
		for _, text := range cellTexts(in, m) {
			cells = append(cells, vdom.H("td", text))
		}
		rows = append(rows, vdom.H("tr", rowKey(m), cells))
	}
	return section(in, KindPlainTable, vdom.H("table.moves", vdom.H("tbody", rows)))
}

// ARIATable adds grid semantics to a native table. Data cells leave the tab
// order; with focusableMove the Move cell is reachable and announces itself.
func ARIATable(in Input, focusableMove bool) *vdom.Node {
	kind := KindARIATable
	if focusableMove {
		kind = KindARIATableFocusable
	}
	rows := make([]*vdom.Node, 0, len(in.Moves)+1)
	head := make([]*vdom.Node, 0, ColumnCount)
	for i, label := range columnLabels(in) {
		head = append(head, vdom.H("th", vdom.Attrs{"aria-colindex": strconv.Itoa(i + 1)}, label))
	}
	rows = append(rows, vdom.H("tr", headerKey, head))
	for _, m := range in.Moves {
		rows = append(rows, vdom.H("tr", rowKey(m),
			vdom.Attrs{"aria-rowindex": strconv.Itoa(m.Ply)},
			ariaTableCells(in, m, focusableMove),
		))
	}
	table := vdom.H("table.moves", vdom.Attrs{
		"role":            "grid",
		"aria-labelledby": LabelID(kind),
		"aria-rowcount":   strconv.Itoa(len(in.Moves)),
		"aria-colcount":   strconv.Itoa(ColumnCount),
	}, vdom.H("tbody", rows))
	return section(in, kind, table)
}

func ariaTableCells(in Input, m movedata.MoveRecord, focusableMove bool) []*vdom.Node {
	texts := cellTexts(in, m)
	cells := make([]*vdom.Node, 0, len(texts))
	for i, text := range texts {
		if i == 1 && focusableMove {
			cells = append(cells, vdom.H("td", vdom.Attrs{"tabindex": "0"}, in.Focus, text))
			continue
		}
		cells = append(cells, vdom.H("td", vdom.Attrs{"tabindex": "-1"}, text))
	}
	return cells
}
