package vdom

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// OpKind names one document mutation.
type OpKind string

const (
	OpReplace    OpKind = "replace"
	OpInsert     OpKind = "insert"
	OpRemove     OpKind = "remove"
	OpMove       OpKind = "move"
	OpSetAttr    OpKind = "setAttr"
	OpRemoveAttr OpKind = "removeAttr"
	OpSetText    OpKind = "setText"
)

// Op is one mutation applied by Patch, addressed by child-index path from
// the root element. For insert, remove and move the path names the parent
// and Index the child slot; Ops replay in order against an identical tree.
type Op struct {
	Kind  OpKind `json:"op"`
	Path  []int  `json:"path"`
	Index int    `json:"index"`
	From  int    `json:"from"`
	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"`
	HTML  string `json:"html,omitempty"`
}

// Target is what Patch reconciles against: the mount point or the live Tree.
type Target interface {
	patchTarget()
}

type mountTarget struct {
	doc *Document
	elm *html.Node
}

func (mountTarget) patchTarget() {}

// Tree is the committed result of a Patch. Only the latest Tree of a
// document is a valid target.
type Tree struct {
	doc  *Document
	root *Node
}

func (*Tree) patchTarget() {}

// Root returns the description the tree was committed from.
func (t *Tree) Root() *Node { return t.root }

// Element returns the root element in the document.
func (t *Tree) Element() *html.Node { return t.root.elm }

// Patch reconciles the document with next and returns the new live tree and
// the mutations performed, in order. Unchanged subtrees produce no Op.
func (d *Document) Patch(target Target, next *Node) (*Tree, []Op, error) {
	if next == nil || next.Tag == "" {
		return nil, nil, ErrInvalidRoot
	}
	p := &patcher{}
	switch t := target.(type) {
	case mountTarget:
		if t.doc != d || d.current != nil || t.elm == nil || t.elm.Parent == nil {
			return nil, nil, ErrStaleTarget
		}
		elm := p.create(next)
		parent := t.elm.Parent
		parent.InsertBefore(elm, t.elm)
		parent.RemoveChild(t.elm)
		p.emit(Op{Kind: OpReplace, HTML: renderHTML(elm)})
	case *Tree:
		if t == nil || t.doc != d || t != d.current {
			return nil, nil, ErrStaleTarget
		}
		p.patchNode(t.root, next, nil)
	default:
		return nil, nil, ErrStaleTarget
	}
	tree := &Tree{doc: d, root: next}
	d.current = tree
	d.rootElm = next.elm
	d.reindex()
	return tree, p.ops, nil
}

type patcher struct {
	ops []Op
}

func (p *patcher) emit(op Op) {
	op.Path = append([]int{}, op.Path...)
	p.ops = append(p.ops, op)
}

func sameNode(a, b *Node) bool { return a.Tag == b.Tag && a.Key == b.Key }

func childPath(path []int, i int) []int {
	out := make([]int, len(path)+1)
	copy(out, path)
	out[len(path)] = i
	return out
}

func (p *patcher) create(v *Node) *html.Node {
	if v.Tag == "" {
		n := &html.Node{Type: html.TextNode, Data: v.Text}
		v.elm = n
		return n
	}
	n := &html.Node{Type: html.ElementNode, Data: v.Tag, DataAtom: atom.Lookup([]byte(v.Tag))}
	attrs := v.attrMap()
	for _, k := range sortedKeys(attrs) {
		n.Attr = append(n.Attr, html.Attribute{Key: k, Val: attrs[k]})
	}
	for _, c := range v.Children {
		n.AppendChild(p.create(c))
	}
	v.elm = n
	if v.Ref != nil {
		v.Ref.elm = n
	}
	return n
}

func (p *patcher) patchNode(old, nu *Node, path []int) {
	if old == nu {
		return
	}
	if !sameNode(old, nu) {
		elm := p.create(nu)
		parent := old.elm.Parent
		parent.InsertBefore(elm, old.elm)
		parent.RemoveChild(old.elm)
		p.emit(Op{Kind: OpReplace, Path: path, HTML: renderHTML(elm)})
		return
	}
	elm := old.elm
	nu.elm = elm
	if nu.Ref != nil {
		nu.Ref.elm = elm
	}
	if nu.Tag == "" {
		if old.Text != nu.Text {
			elm.Data = nu.Text
			p.emit(Op{Kind: OpSetText, Path: path, Value: nu.Text})
		}
		return
	}
	p.patchAttrs(elm, old, nu, path)
	if keyedList(old.Children) && keyedList(nu.Children) {
		p.patchKeyed(elm, old.Children, nu.Children, path)
		return
	}
	p.patchPositional(elm, old.Children, nu.Children, path)
}

func (p *patcher) patchAttrs(elm *html.Node, old, nu *Node, path []int) {
	cur, want := old.attrMap(), nu.attrMap()
	for _, k := range sortedKeys(want) {
		if v, ok := cur[k]; ok && v == want[k] {
			continue
		}
		setAttr(elm, k, want[k])
		p.emit(Op{Kind: OpSetAttr, Path: path, Name: k, Value: want[k]})
	}
	for _, k := range sortedKeys(cur) {
		if _, ok := want[k]; ok {
			continue
		}
		removeAttr(elm, k)
		p.emit(Op{Kind: OpRemoveAttr, Path: path, Name: k})
	}
}

func (p *patcher) patchPositional(parent *html.Node, old, nu []*Node, path []int) {
	n := min(len(old), len(nu))
	for i := 0; i < n; i++ {
		p.patchNode(old[i], nu[i], childPath(path, i))
	}
	for i := n; i < len(nu); i++ {
		elm := p.create(nu[i])
		parent.InsertBefore(elm, childAt(parent, i))
		p.emit(Op{Kind: OpInsert, Path: path, Index: i, HTML: renderHTML(elm)})
	}
	for i := len(old) - 1; i >= n; i-- {
		parent.RemoveChild(old[i].elm)
		p.emit(Op{Kind: OpRemove, Path: path, Index: i})
	}
}

// keyedList reports whether every child carries a key.
func keyedList(kids []*Node) bool {
	for _, k := range kids {
		if k.Key == "" {
			return false
		}
	}
	return true
}

func (p *patcher) patchKeyed(parent *html.Node, old, nu []*Node, path []int) {
	want := make(map[string]bool, len(nu))
	for _, k := range nu {
		want[k.Key] = true
	}
	byKey := make(map[string]*Node, len(old))
	for i := len(old) - 1; i >= 0; i-- {
		o := old[i]
		if _, dup := byKey[o.Key]; want[o.Key] && !dup {
			byKey[o.Key] = o
			continue
		}
		idx := indexOf(parent, o.elm)
		parent.RemoveChild(o.elm)
		p.emit(Op{Kind: OpRemove, Path: path, Index: idx})
	}
	for i, v := range nu {
		o, ok := byKey[v.Key]
		if !ok {
			elm := p.create(v)
			parent.InsertBefore(elm, childAt(parent, i))
			p.emit(Op{Kind: OpInsert, Path: path, Index: i, HTML: renderHTML(elm)})
			continue
		}
		delete(byKey, v.Key)
		if cur := indexOf(parent, o.elm); cur != i {
			ref := childAt(parent, i)
			parent.RemoveChild(o.elm)
			parent.InsertBefore(o.elm, ref)
			p.emit(Op{Kind: OpMove, Path: path, From: cur, Index: i})
		}
		p.patchNode(o, v, childPath(path, i))
	}
}
