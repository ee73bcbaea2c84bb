package vdom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type staticErr string

func (e staticErr) Error() string { return string(e) }

var (
	ErrNotFocusable = staticErr("element is not focusable")
	ErrDetached     = staticErr("element is not part of the rendered tree")
	ErrStaleTarget  = staticErr("patch target is not the live tree")
	ErrInvalidRoot  = staticErr("tree root must be an element")
)

// Options configure the page shell around the mount point.
type Options struct {
	Title   string
	MountID string
	Scripts []string
}

// Document is the real tree Patch writes into. It is not safe for
// concurrent use; the owner serialises access.
type Document struct {
	root    *html.Node
	mount   *html.Node
	rootElm *html.Node
	current *Tree
	active  *html.Node
	hooks   map[*html.Node]*Node
	sink    func(Op)
}

const skeleton = `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title></title></head><body><div></div></body></html>`

// NewDocument parses the page shell and locates its mount point.
func NewDocument(opts Options) (*Document, error) {
	if strings.TrimSpace(opts.MountID) == "" {
		opts.MountID = "container"
	}
	root, err := html.Parse(strings.NewReader(skeleton))
	if err != nil {
		return nil, fmt.Errorf("parse shell: %w", err)
	}
	d := &Document{root: root, hooks: make(map[*html.Node]*Node)}

	head := findElement(root, func(n *html.Node) bool { return n.DataAtom == atom.Head })
	title := findElement(root, func(n *html.Node) bool { return n.DataAtom == atom.Title })
	body := findElement(root, func(n *html.Node) bool { return n.DataAtom == atom.Body })
	if head == nil || title == nil || body == nil || body.FirstChild == nil {
		return nil, staticErr("malformed page shell")
	}
	if opts.Title != "" {
		title.AppendChild(&html.Node{Type: html.TextNode, Data: opts.Title})
	}
	for _, src := range opts.Scripts {
		head.AppendChild(&html.Node{
			Type:     html.ElementNode,
			Data:     "script",
			DataAtom: atom.Script,
			Attr:     []html.Attribute{{Key: "src", Val: src}, {Key: "defer"}},
		})
	}
	d.mount = body.FirstChild
	d.mount.Attr = []html.Attribute{{Key: "id", Val: opts.MountID}}
	return d, nil
}

// Mount returns the patch target for the first Patch call.
func (d *Document) Mount() Target { return mountTarget{doc: d, elm: d.mount} }

// Current returns the live tree, or nil before the first Patch.
func (d *Document) Current() *Tree { return d.current }

// RootElement is the element currently occupying the mount slot.
func (d *Document) RootElement() *html.Node {
	if d.rootElm != nil {
		return d.rootElm
	}
	return d.mount
}

// RootHTML serialises the element occupying the mount slot.
func (d *Document) RootHTML() string { return renderHTML(d.RootElement()) }

// SetMutationSink receives mutations made outside Patch, such as SetText.
func (d *Document) SetMutationSink(fn func(Op)) { d.sink = fn }

// Render writes the whole page.
func (d *Document) Render(w io.Writer) error { return html.Render(w, d.root) }

// String renders the whole page, or an empty string on failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// Active returns the focused element.
func (d *Document) Active() *html.Node { return d.active }

// Focus moves focus to el and runs the focus hook of the node it was built
// from. The hook sees the previously active element.
func (d *Document) Focus(el *html.Node) error {
	if !Focusable(el) {
		return ErrNotFocusable
	}
	if !d.contains(el) {
		return ErrDetached
	}
	prev := d.active
	d.active = el
	if v := d.hooks[el]; v != nil && v.On.Focus != nil {
		v.On.Focus(FocusEvent{Target: el, Previous: prev, Doc: d})
	}
	return nil
}

// FocusPath focuses the element at a child-index path from the root element.
func (d *Document) FocusPath(path []int) error {
	el := d.Resolve(path)
	if el == nil {
		return ErrDetached
	}
	return d.Focus(el)
}

// Blur clears focus.
func (d *Document) Blur() { d.active = nil }

// Resolve follows a child-index path from the root element.
func (d *Document) Resolve(path []int) *html.Node {
	n := d.rootElm
	for _, i := range path {
		if n == nil {
			return nil
		}
		n = childAt(n, i)
	}
	return n
}

// PathOf returns el's child-index path from the root element.
func (d *Document) PathOf(el *html.Node) ([]int, error) {
	var rev []int
	for n := el; n != d.rootElm; n = n.Parent {
		if n == nil || n.Parent == nil {
			return nil, ErrDetached
		}
		rev = append(rev, indexOf(n.Parent, n))
	}
	path := make([]int, len(rev))
	for i := range rev {
		path[i] = rev[len(rev)-1-i]
	}
	return path, nil
}

// SetText replaces the children of el with a single text node and reports
// the mutation to the sink.
func (d *Document) SetText(el *html.Node, text string) error {
	path, err := d.PathOf(el)
	if err != nil {
		return err
	}
	setText(el, text)
	if d.sink != nil {
		d.sink(Op{Kind: OpSetText, Path: path, Value: text})
	}
	return nil
}

// GetElementByID searches the rendered tree.
func (d *Document) GetElementByID(id string) *html.Node {
	return findElement(d.root, func(n *html.Node) bool { return attr(n, "id") == id })
}

// QueryAll returns the rendered elements matching pred in document order.
func (d *Document) QueryAll(pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && pred(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return out
}

func (d *Document) contains(el *html.Node) bool {
	for n := el; n != nil; n = n.Parent {
		if n == d.root {
			return true
		}
	}
	return false
}

func (d *Document) reindex() {
	clear(d.hooks)
	if d.current == nil {
		return
	}
	Walk(d.current.root, func(n *Node) bool {
		if n.elm != nil && n.On.Focus != nil {
			d.hooks[n.elm] = n
		}
		return true
	})
	if d.active != nil && !d.contains(d.active) {
		d.active = nil
	}
}

// Focusable reports whether el can take focus: an explicit tabindex, form
// controls, and links with href.
func Focusable(el *html.Node) bool {
	if el == nil || el.Type != html.ElementNode {
		return false
	}
	if hasAttr(el, "tabindex") {
		return true
	}
	switch el.DataAtom {
	case atom.Input, atom.Button, atom.Select, atom.Textarea:
		return !hasAttr(el, "disabled")
	case atom.A:
		return hasAttr(el, "href")
	}
	return false
}

// TextContent concatenates the text nodes under n.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(TextContent(c))
	}
	return b.String()
}

// Attr returns the value of the named attribute, or "".
func Attr(n *html.Node, key string) string { return attr(n, key) }

func attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

func setText(n *html.Node, text string) {
	if n.Type == html.TextNode {
		n.Data = text
		return
	}
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

func findElement(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && pred(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, pred); found != nil {
			return found
		}
	}
	return nil
}

func childAt(parent *html.Node, i int) *html.Node {
	if i < 0 {
		return nil
	}
	c := parent.FirstChild
	for ; c != nil && i > 0; i-- {
		c = c.NextSibling
	}
	return c
}

func indexOf(parent, child *html.Node) int {
	i := 0
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c == child {
			return i
		}
		i++
	}
	return -1
}

func renderHTML(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}
