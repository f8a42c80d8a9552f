// CLAUDE:SUMMARY Static host: heuristic layout from markup and inline style, single focused node with per-root retargeting.
package dom

import (
	"errors"
	"strings"
	"sync"

	"github.com/gorilla/css/scanner"
	"golang.org/x/net/html"

	"github.com/hazyhaar/focuskit/focus"
)

// ErrNotFocusable is returned by a host refusing to focus a node.
var ErrNotFocusable = errors.New("dom: element cannot take focus")

// StaticHost is the Host for documents without a rendering engine. Layout
// is derived from markup: an element is rendered unless it or a flat-tree
// ancestor is hidden, display:none inline, non-rendered by nature (head,
// script, template...), inside a closed <details> or <dialog>, or not
// slotted into its host's shadow tree.
type StaticHost struct {
	mu       sync.Mutex
	focused  *html.Node
	revealed map[*html.Node]bool
}

// NewStaticHost returns an empty StaticHost.
func NewStaticHost() *StaticHost {
	return &StaticHost{revealed: make(map[*html.Node]bool)}
}

// Reveal forces n to be treated as rendered regardless of its own hidden
// state, the way a script opening a dialog would. Ancestors still count.
func (h *StaticHost) Reveal(n *html.Node) {
	h.mu.Lock()
	h.revealed[n] = true
	h.mu.Unlock()
}

// Focused returns the focused node, or nil.
func (h *StaticHost) Focused() *html.Node {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.focused
}

func (h *StaticHost) HasLayout(d *Document, n *html.Node) bool {
	for c := n; c != nil; {
		if c == d.root {
			return true
		}
		if c.Type == html.ElementNode && !h.rendersBox(c) {
			return false
		}
		p, ok := d.flatParent(c)
		if !ok {
			return false
		}
		c = p
	}
	return false
}

func (h *StaticHost) rendersBox(n *html.Node) bool {
	h.mu.Lock()
	revealed := h.revealed[n]
	h.mu.Unlock()
	if revealed {
		return true
	}

	switch n.Data {
	case "head", "script", "style", "template", "title", "meta", "link", "base", "noscript":
		return false
	case "dialog":
		if !hasAttr(n, "open") {
			return false
		}
	case "input":
		if strings.EqualFold(attr(n, "type"), "hidden") {
			return false
		}
	}
	if hasAttr(n, "hidden") {
		return false
	}
	if style, ok := styleAttr(n); ok && displayNone(style) {
		return false
	}
	if p := n.Parent; p != nil && p.Type == html.ElementNode && p.Data == "details" && !hasAttr(p, "open") {
		return n.Data == "summary" && firstSummary(p) == n
	}
	return true
}

func (h *StaticHost) Focus(d *Document, n *html.Node) error {
	if sr := d.shadows[n]; sr != nil && sr.delegatesFocus {
		for c := sr.FirstElementChild(); c != nil; c = c.NextElementSibling() {
			if target := focus.FindFocusableElement(c, focus.Forward); target != nil {
				n = target.(*Element).node
				break
			}
		}
	}
	if !d.Element(n).Matches(focus.ProgrammaticFocusSelector) || !h.HasLayout(d, n) {
		return ErrNotFocusable
	}
	h.mu.Lock()
	h.focused = n
	h.mu.Unlock()
	return nil
}

// ActiveElement retargets the focused node to root: the focused node itself
// when it lives in root's tree, otherwise the host that contains it in
// root's tree, otherwise nil.
func (h *StaticHost) ActiveElement(d *Document, root *html.Node) *html.Node {
	n := h.Focused()
	for n != nil {
		r := treeRoot(n)
		if r == root {
			return n
		}
		n = d.hostOf[r]
	}
	return nil
}

func styleAttr(n *html.Node) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == "style" {
			return a.Val, true
		}
	}
	return "", false
}

// displayNone reports whether the last display declaration of an inline
// style is none.
func displayNone(style string) bool {
	s := scanner.New(style)
	var prop, display string
	inValue := false
	for {
		tok := s.Next()
		switch tok.Type {
		case scanner.TokenEOF, scanner.TokenError:
			return display == "none"
		case scanner.TokenIdent:
			if !inValue {
				prop = strings.ToLower(tok.Value)
				continue
			}
			if prop == "display" {
				display = strings.ToLower(tok.Value)
			}
			inValue = false
		case scanner.TokenChar:
			switch tok.Value {
			case ":":
				inValue = true
			case ";":
				prop, inValue = "", false
			}
		}
	}
}

func firstSummary(details *html.Node) *html.Node {
	for c := firstElement(details); c != nil; c = nextElement(c) {
		if c.Data == "summary" {
			return c
		}
	}
	return nil
}
