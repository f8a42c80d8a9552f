// CLAUDE:SUMMARY Composed document model over x/net/html: shadow roots, slot assignment, host adapter, element cache.
// Package dom is a composed document tree built on golang.org/x/net/html.
// It attaches shadow roots and slot assignments to a plain HTML tree and
// implements the focus package interfaces on top of it.
//
// Parse covers static HTML (declarative shadow DOM included). Other adapters,
// such as a live browser capture, build the tree themselves with
// NewDocument, AttachShadow and Assign, and supply a Host.
package dom

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/net/html"

	"github.com/hazyhaar/focuskit/focus"
)

// ShadowInit describes how a shadow root is attached.
type ShadowInit struct {
	Mode           string // open | closed
	DelegatesFocus bool
}

// Host supplies the behaviour a document cannot derive from markup alone:
// rendered geometry, focus movement and the active element of each root.
type Host interface {
	HasLayout(d *Document, n *html.Node) bool
	Focus(d *Document, n *html.Node) error
	// ActiveElement returns the focused node retargeted to root, which is
	// the document node or a shadow root node.
	ActiveElement(d *Document, root *html.Node) *html.Node
}

// Option configures a Document.
type Option func(*Document)

// WithHost sets the host adapter. Default: a new StaticHost.
func WithHost(h Host) Option {
	return func(d *Document) { d.host = h }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Document) { d.logger = l }
}

// Document is a composed tree. Structure is fixed once built; reads are
// safe from several goroutines.
type Document struct {
	root   *html.Node
	host   Host
	logger *slog.Logger

	shadows  map[*html.Node]*ShadowRoot // host -> shadow root
	hostOf   map[*html.Node]*html.Node  // shadow root node -> host
	assigned map[*html.Node][]*html.Node
	slotOf   map[*html.Node]*html.Node

	mu       sync.Mutex
	elements map[*html.Node]*Element
}

// ErrShadowAttached is returned when a host already has a shadow root.
var ErrShadowAttached = errors.New("dom: host already has a shadow root")

// NewDocument wraps an existing tree rooted at a document node.
func NewDocument(root *html.Node, opts ...Option) *Document {
	d := &Document{
		root:     root,
		shadows:  make(map[*html.Node]*ShadowRoot),
		hostOf:   make(map[*html.Node]*html.Node),
		assigned: make(map[*html.Node][]*html.Node),
		slotOf:   make(map[*html.Node]*html.Node),
		elements: make(map[*html.Node]*Element),
	}
	for _, o := range opts {
		o(d)
	}
	if d.host == nil {
		d.host = NewStaticHost()
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Parse reads HTML and builds a Document. Declarative shadow roots
// (<template shadowrootmode>) are attached to their parent element and
// light children are assigned to slots by name.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	d := NewDocument(root, opts...)
	d.attachDeclarative(root)
	return d, nil
}

// Root returns the document node.
func (d *Document) Root() *html.Node { return d.root }

// Host returns the host adapter.
func (d *Document) Host() Host { return d.host }

// AttachShadow attaches root as the shadow root of host. A nil root gets a
// fresh fragment node. The returned node is the shadow root container.
func (d *Document) AttachShadow(host, root *html.Node, init ShadowInit) (*html.Node, error) {
	if _, ok := d.shadows[host]; ok {
		return nil, ErrShadowAttached
	}
	if root == nil {
		root = &html.Node{Type: html.DocumentNode}
	}
	if init.Mode == "" {
		init.Mode = "open"
	}
	d.shadows[host] = &ShadowRoot{
		doc:            d,
		host:           host,
		node:           root,
		mode:           init.Mode,
		delegatesFocus: init.DelegatesFocus,
	}
	d.hostOf[root] = host
	return root, nil
}

// Assign records nodes as the assigned nodes of slot, replacing any
// previous assignment.
func (d *Document) Assign(slot *html.Node, nodes ...*html.Node) {
	for _, n := range d.assigned[slot] {
		delete(d.slotOf, n)
	}
	d.assigned[slot] = nodes
	for _, n := range nodes {
		d.slotOf[n] = slot
	}
}

// AssignByName assigns host's light element children to the slots of its
// shadow tree: slot="x" goes to the first <slot name="x">, the rest to the
// first unnamed slot.
func (d *Document) AssignByName(host *html.Node) {
	sr, ok := d.shadows[host]
	if !ok {
		return
	}

	byName := make(map[string]*html.Node)
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if c.Data == "slot" {
				name := attr(c, "name")
				if _, seen := byName[name]; !seen {
					byName[name] = c
				}
			}
			collect(c)
		}
	}
	collect(sr.node)

	grouped := make(map[*html.Node][]*html.Node)
	var order []*html.Node
	for c := host.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		slot := byName[attr(c, "slot")]
		if slot == nil {
			continue
		}
		if _, seen := grouped[slot]; !seen {
			order = append(order, slot)
		}
		grouped[slot] = append(grouped[slot], c)
	}
	for _, slot := range order {
		d.Assign(slot, grouped[slot]...)
	}
}

// attachDeclarative turns <template shadowrootmode> children into shadow
// roots, innermost trees first so that slot lookup never sees a nested
// template.
func (d *Document) attachDeclarative(n *html.Node) {
	if n.Type == html.ElementNode {
		if tmpl := declarativeTemplate(n); tmpl != nil {
			if _, has := d.shadows[n]; !has {
				container := &html.Node{Type: html.DocumentNode}
				for c := tmpl.FirstChild; c != nil; {
					next := c.NextSibling
					tmpl.RemoveChild(c)
					container.AppendChild(c)
					c = next
				}
				n.RemoveChild(tmpl)
				_, _ = d.AttachShadow(n, container, ShadowInit{
					Mode:           attr(tmpl, "shadowrootmode"),
					DelegatesFocus: hasAttr(tmpl, "shadowrootdelegatesfocus"),
				})
				d.attachDeclarative(container)
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.attachDeclarative(c)
	}

	if _, has := d.shadows[n]; has {
		d.AssignByName(n)
	}
}

func declarativeTemplate(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "template" {
			continue
		}
		switch attr(c, "shadowrootmode") {
		case "open", "closed":
			return c
		}
	}
	return nil
}

// Element returns the cached wrapper for n, or nil for a nil or non-element
// node.
func (d *Document) Element(n *html.Node) *Element {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.elements[n]; ok {
		return e
	}
	e := &Element{doc: d, node: n}
	d.elements[n] = e
	return e
}

// element returns the wrapper as a focus.Element, keeping nil a true nil
// interface.
func (d *Document) element(n *html.Node) focus.Element {
	if e := d.Element(n); e != nil {
		return e
	}
	return nil
}

// DocumentElement returns the <html> element.
func (d *Document) DocumentElement() *Element {
	return d.Element(firstElement(d.root))
}

// Body returns the <body> element, or nil.
func (d *Document) Body() *Element {
	root := d.DocumentElement()
	if root == nil {
		return nil
	}
	for c := firstElement(root.node); c != nil; c = nextElement(c) {
		if c.Data == "body" {
			return d.Element(c)
		}
	}
	return nil
}

// ActiveElement implements focus.Root for the document.
func (d *Document) ActiveElement() focus.Element {
	return d.element(d.host.ActiveElement(d, d.root))
}

// QuerySelector returns the first element in the light tree matching sel.
func (d *Document) QuerySelector(sel string) *Element {
	return d.Element(d.queryFirst(d.root, sel))
}

// QueryAllComposed returns every element matching sel in the light tree and
// in every shadow tree, open or closed, in composed tree order. Page scripts
// cannot see into closed roots; an inspector can.
func (d *Document) QueryAllComposed(sel string) []*Element {
	m, err := compile(sel)
	if err != nil {
		d.logger.Warn("dom: bad selector", "selector", sel, "error", err)
		return nil
	}
	var out []*Element
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := firstElement(n); c != nil; c = nextElement(c) {
			if m.Match(c) {
				out = append(out, d.Element(c))
			}
			if sr, ok := d.shadows[c]; ok {
				walk(sr.node)
			}
			walk(c)
		}
	}
	walk(d.root)
	return out
}

func (d *Document) queryFirst(n *html.Node, sel string) *html.Node {
	m, err := compile(sel)
	if err != nil {
		d.logger.Warn("dom: bad selector", "selector", sel, "error", err)
		return nil
	}
	var find func(*html.Node) *html.Node
	find = func(n *html.Node) *html.Node {
		for c := firstElement(n); c != nil; c = nextElement(c) {
			if m.Match(c) {
				return c
			}
			if found := find(c); found != nil {
				return found
			}
		}
		return nil
	}
	return find(n)
}

// flatParent returns n's parent in the flat (rendered) tree. ok is false
// when n is not rendered through its parent: an unassigned light child of a
// shadow host, fallback content of a filled slot, or a detached node.
func (d *Document) flatParent(n *html.Node) (p *html.Node, ok bool) {
	if slot, assigned := d.slotOf[n]; assigned {
		return slot, true
	}
	p = n.Parent
	if p == nil {
		return nil, false
	}
	if host, top := d.hostOf[p]; top {
		return host, true
	}
	if _, isHost := d.shadows[p]; isHost {
		return nil, false
	}
	if p.Type == html.ElementNode && p.Data == "slot" && len(d.assigned[p]) > 0 {
		return nil, false
	}
	return p, true
}

// treeRoot returns the root of the tree n belongs to: the document node or
// a shadow root node.
func treeRoot(n *html.Node) *html.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// flattenedAssigned returns slot's flattened assigned elements: nested
// slots are replaced by their own assignment, an empty slot yields its
// fallback children.
func (d *Document) flattenedAssigned(slot *html.Node) []*html.Node {
	nodes := d.assigned[slot]
	if len(nodes) == 0 {
		for c := firstElement(slot); c != nil; c = nextElement(c) {
			nodes = append(nodes, c)
		}
	}
	var out []*html.Node
	for _, n := range nodes {
		if n.Type == html.ElementNode && n.Data == "slot" {
			if _, inShadow := d.hostOf[treeRoot(n)]; inShadow {
				out = append(out, d.flattenedAssigned(n)...)
				continue
			}
		}
		out = append(out, n)
	}
	return out
}
