package views

import (
	"strconv"

	"github.com/park285/chess-movetable/internal/vdom"
)

// RoleGrid mirrors the ARIA table with div elements carrying table, row,
// columnheader and cell roles.
func RoleGrid(in Input) *vdom.Node {
	return divGrid(in, KindRoleGrid, true)
}

// PlainGrid has the structure of RoleGrid without any roles or aria
// indices. Only the focusable Move cell remains.
func PlainGrid(in Input) *vdom.Node {
	return divGrid(in, KindPlainGrid, false)
}

func divGrid(in Input, kind Kind, roles bool) *vdom.Node {
	attrs := func(a vdom.Attrs) vdom.Attrs {
		if roles {
			return a
		}
		return nil
	}

	rows := make([]*vdom.Node, 0, len(in.Moves)+1)
	head := make([]*vdom.Node, 0, ColumnCount)
	for i, label := range columnLabels(in) {
		head = append(head, vdom.H("div.cell.header", attrs(vdom.Attrs{
			"role":          "columnheader",
			"aria-colindex": strconv.Itoa(i + 1),
		}), label))
	}
	rows = append(rows, vdom.H("div.row", headerKey, attrs(vdom.Attrs{"role": "row"}), head))

	for _, m := range in.Moves {
		texts := cellTexts(in, m)
		cells := make([]*vdom.Node, 0, len(texts))
		for i, text := range texts {
			a := attrs(vdom.Attrs{"role": "cell", "aria-colindex": strconv.Itoa(i + 1)})
			if i == 1 {
				if a == nil {
					a = vdom.Attrs{}
				}
				a["tabindex"] = "0"
				cells = append(cells, vdom.H("div.cell.move", a, in.Focus, text))
				continue
			}
			cells = append(cells, vdom.H("div.cell", a, text))
		}
		rows = append(rows, vdom.H("div.row", rowKey(m),
			attrs(vdom.Attrs{"role": "row", "aria-rowindex": strconv.Itoa(m.Ply)}),
			cells,
		))
	}

	grid := vdom.H("div.moves.grid", attrs(vdom.Attrs{
		"role":            "table",
		"aria-labelledby": LabelID(kind),
		"aria-rowcount":   strconv.Itoa(len(in.Moves)),
		"aria-colcount":   strconv.Itoa(ColumnCount),
	}), rows)
	return section(in, kind, grid)
}
