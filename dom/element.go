package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/focuskit/focus"
)

// Element wraps an element node of a Document.
type Element struct {
	doc  *Document
	node *html.Node
}

var _ focus.Element = (*Element)(nil)

// Node returns the underlying html node.
func (e *Element) Node() *html.Node { return e.node }

// Document returns the owning document.
func (e *Element) Document() *Document { return e.doc }

// TagName returns the lower-case local name.
func (e *Element) TagName() string { return e.node.Data }

// Attr returns the value of an attribute and whether it is present.
func (e *Element) Attr(key string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func (e *Element) Matches(sel string) bool {
	m, err := compile(sel)
	if err != nil {
		e.doc.logger.Warn("dom: bad selector", "selector", sel, "error", err)
		return false
	}
	return m.Match(e.node)
}

func (e *Element) HasLayout() bool {
	return e.doc.host.HasLayout(e.doc, e.node)
}

func (e *Element) FirstElementChild() focus.Element {
	return e.doc.element(firstElement(e.node))
}

func (e *Element) LastElementChild() focus.Element {
	return e.doc.element(lastElement(e.node))
}

func (e *Element) NextElementSibling() focus.Element {
	return e.doc.element(nextElement(e.node))
}

func (e *Element) PreviousElementSibling() focus.Element {
	return e.doc.element(prevElement(e.node))
}

// ShadowRoot returns the open shadow root. Closed roots are not exposed,
// matching element.shadowRoot in a browser.
func (e *Element) ShadowRoot() focus.ShadowRoot {
	if sr := e.doc.shadows[e.node]; sr != nil && sr.mode == "open" {
		return sr
	}
	return nil
}

// AttachedShadow returns the shadow root whatever its mode, or nil.
func (e *Element) AttachedShadow() *ShadowRoot {
	return e.doc.shadows[e.node]
}

func (e *Element) IsSlot() bool { return e.node.Data == "slot" }

func (e *Element) AssignedElements() []focus.Element {
	if !e.IsSlot() {
		return nil
	}
	nodes := e.doc.flattenedAssigned(e.node)
	out := make([]focus.Element, 0, len(nodes))
	for _, n := range nodes {
		if el := e.doc.Element(n); el != nil {
			out = append(out, el)
		}
	}
	return out
}

func (e *Element) QuerySelector(sel string) focus.Element {
	return e.doc.element(e.doc.queryFirst(e.node, sel))
}

// Focus asks the host to focus the element. A refusal is not an error for
// callers; it is only logged.
func (e *Element) Focus() {
	if err := e.doc.host.Focus(e.doc, e.node); err != nil {
		e.doc.logger.Debug("dom: focus refused", "element", e.Path(), "error", err)
	}
}

// ComposedContains reports whether other is e or one of its descendants,
// crossing shadow roots up to their hosts.
func (e *Element) ComposedContains(other *Element) bool {
	if other == nil || other.doc != e.doc {
		return false
	}
	for n := other.node; n != nil; {
		if n == e.node {
			return true
		}
		if host, ok := e.doc.hostOf[n]; ok {
			n = host
			continue
		}
		n = n.Parent
	}
	return false
}

// TreeActiveElement returns the focused element retargeted to the tree e
// belongs to, closed shadow trees included.
func (e *Element) TreeActiveElement() *Element {
	return e.doc.Element(e.doc.host.ActiveElement(e.doc, treeRoot(e.node)))
}

// Path returns a selector-like path from the document, with shadow
// boundaries written as " >>> ".
func (e *Element) Path() string {
	var segs []string
	n := e.node
	for n != nil && n.Type == html.ElementNode {
		segs = append(segs, segment(n))
		n = n.Parent
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	p := strings.Join(segs, " > ")
	if n != nil {
		if host, ok := e.doc.hostOf[n]; ok {
			return e.doc.Element(host).Path() + " >>> " + p
		}
	}
	return p
}

// String describes the element in one short token, e.g. button#save.
func (e *Element) String() string {
	s := e.node.Data
	if id := attr(e.node, "id"); id != "" {
		s += "#" + id
	}
	return s
}

func segment(n *html.Node) string {
	if id := attr(n, "id"); id != "" {
		return n.Data + "#" + id
	}
	idx, count := 0, 0
	for c := firstElement(n.Parent); c != nil; c = nextElement(c) {
		if c.Data == n.Data {
			count++
			if c == n {
				idx = count
			}
		}
	}
	if count > 1 {
		return fmt.Sprintf("%s:nth-of-type(%d)", n.Data, idx)
	}
	return n.Data
}

// ShadowRoot is a shadow tree attached to a host element.
type ShadowRoot struct {
	doc            *Document
	host           *html.Node
	node           *html.Node
	mode           string
	delegatesFocus bool
}

var _ focus.ShadowRoot = (*ShadowRoot)(nil)

// Host returns the host element.
func (s *ShadowRoot) Host() *Element { return s.doc.Element(s.host) }

// Node returns the shadow root container node.
func (s *ShadowRoot) Node() *html.Node { return s.node }

// Mode returns "open" or "closed".
func (s *ShadowRoot) Mode() string { return s.mode }

// DelegatesFocus reports whether focusing the host moves focus inside.
func (s *ShadowRoot) DelegatesFocus() bool { return s.delegatesFocus }

func (s *ShadowRoot) FirstElementChild() focus.Element {
	return s.doc.element(firstElement(s.node))
}

func (s *ShadowRoot) LastElementChild() focus.Element {
	return s.doc.element(lastElement(s.node))
}

func (s *ShadowRoot) ActiveElement() focus.Element {
	return s.doc.element(s.doc.host.ActiveElement(s.doc, s.node))
}

func attr(n *html.Node, key string) string {
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

// inert reports whether n's children are out of the tree, as template
// contents are.
func inert(n *html.Node) bool {
	return n.Type == html.ElementNode && n.Data == "template"
}

func firstElement(n *html.Node) *html.Node {
	if n == nil || inert(n) {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

func lastElement(n *html.Node) *html.Node {
	if n == nil || inert(n) {
		return nil
	}
	for c := n.LastChild; c != nil; c = c.PrevSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

func nextElement(n *html.Node) *html.Node {
	for c := n.NextSibling; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

func prevElement(n *html.Node) *html.Node {
	for c := n.PrevSibling; c != nil; c = c.PrevSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}
