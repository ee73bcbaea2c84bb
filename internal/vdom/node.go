// Package vdom describes documents as trees of plain values and patches an
// x/net/html document to match them.
package vdom

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Attrs are static and dynamic attributes, including aria-* and tabindex.
type Attrs map[string]string

// Key identifies a child among its siblings across redraws.
type Key string

// FocusEvent is delivered to a FocusHook after the document moved focus.
type FocusEvent struct {
	Target   *html.Node
	Previous *html.Node
	Doc      *Document
}

// FocusHook runs when the element built from the node receives focus.
type FocusHook func(FocusEvent)

// Hooks are lifecycle and event callbacks. They never take part in diffing.
type Hooks struct {
	Focus FocusHook
}

// Ref is filled by Patch with the element created for the node carrying it.
type Ref struct {
	elm *html.Node
}

// Elm returns the element, or nil before the node was patched in.
func (r *Ref) Elm() *html.Node {
	if r == nil {
		return nil
	}
	return r.elm
}

// Node is one element (Tag != "") or text node (Tag == "") of a tree
// description.
type Node struct {
	Tag      string
	Key      string
	Attrs    Attrs
	Classes  []string
	Text     string
	Children []*Node
	On       Hooks
	Ref      *Ref

	elm *html.Node
}

// Text returns a text node.
func Text(s string) *Node { return &Node{Text: s} }

// H builds an element from a selector "tag#id.class1.class2" and arguments:
// Attrs, Hooks, *Ref, Key, string or int (text child), *Node or []*Node.
func H(sel string, args ...any) *Node {
	n := &Node{}
	var id string
	n.Tag, id, n.Classes = parseSelector(sel)
	if id != "" {
		n.Attrs = Attrs{"id": id}
	}
	for _, a := range args {
		switch v := a.(type) {
		case nil:
		case Attrs:
			if n.Attrs == nil {
				n.Attrs = make(Attrs, len(v))
			}
			for k, val := range v {
				n.Attrs[k] = val
			}
		case Hooks:
			n.On = v
		case *Ref:
			n.Ref = v
		case Key:
			n.Key = string(v)
		case string:
			if v != "" {
				n.Children = append(n.Children, Text(v))
			}
		case int:
			n.Children = append(n.Children, Text(strconv.Itoa(v)))
		case *Node:
			if v != nil {
				n.Children = append(n.Children, v)
			}
		case []*Node:
			for _, c := range v {
				if c != nil {
					n.Children = append(n.Children, c)
				}
			}
		default:
			panic(fmt.Sprintf("vdom.H(%q): unsupported argument %T", sel, a))
		}
	}
	return n
}

func parseSelector(sel string) (tag, id string, classes []string) {
	tag = sel
	if i := strings.IndexAny(sel, "#."); i >= 0 {
		tag = sel[:i]
		rest := sel[i:]
		for rest != "" {
			mark := rest[0]
			rest = rest[1:]
			end := strings.IndexAny(rest, "#.")
			if end < 0 {
				end = len(rest)
			}
			part := rest[:end]
			rest = rest[end:]
			if part == "" {
				continue
			}
			if mark == '#' {
				id = part
			} else {
				classes = append(classes, part)
			}
		}
	}
	if tag == "" {
		tag = "div"
	}
	return tag, id, classes
}

// attrMap merges Attrs and Classes into the attribute set written to the
// document. Classes win over an explicit "class" attribute.
func (n *Node) attrMap() map[string]string {
	out := make(map[string]string, len(n.Attrs)+1)
	for k, v := range n.Attrs {
		out[k] = v
	}
	if len(n.Classes) > 0 {
		out["class"] = strings.Join(n.Classes, " ")
	}
	return out
}

// TextContent concatenates the text of n's subtree.
func (n *Node) TextContent() string {
	if n == nil {
		return ""
	}
	if n.Tag == "" {
		return n.Text
	}
	var b strings.Builder
	for _, c := range n.Children {
		b.WriteString(c.TextContent())
	}
	return b.String()
}

// Equal reports structural equality of two descriptions. Hooks and refs
// are ignored.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Tag != b.Tag || a.Key != b.Key || a.Text != b.Text {
		return false
	}
	am, bm := a.attrMap(), b.attrMap()
	if len(am) != len(bm) {
		return false
	}
	for k, v := range am {
		if bv, ok := bm[k]; !ok || bv != v {
			return false
		}
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// Walk visits n and its descendants depth-first until fn returns false.
func Walk(n *Node, fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !Walk(c, fn) {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
