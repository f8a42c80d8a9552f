package focus

// Kind is the traversal-relevant shape of a node.
type Kind int

const (
	KindElement Kind = iota
	KindShadowHost
	KindSlot
)

func (k Kind) String() string {
	switch k {
	case KindShadowHost:
		return "shadow-host"
	case KindSlot:
		return "slot"
	default:
		return "element"
	}
}

// Classify dispatches an element into one of the three traversal shapes.
// A shadow host wins over a slot: shadow content replaces whatever the
// element would otherwise render.
func Classify(el Element) (Kind, ShadowRoot) {
	if sr := el.ShadowRoot(); sr != nil {
		return KindShadowHost, sr
	}
	if el.IsSlot() {
		return KindSlot, nil
	}
	return KindElement, nil
}

// IsFocusable reports whether el matches a focusable selector and is
// actually rendered.
func IsFocusable(el Element) bool {
	return el.Matches(focusableList) && el.HasLayout()
}

// CanHaveFocusableChildren reports whether descending into el may still
// yield focusable elements. Hidden or disabled elements are always entered;
// otherwise elements with presentational children are not.
func CanHaveFocusableChildren(el Element) bool {
	return el.Matches(hiddenList) || !el.Matches(presentationalList)
}

// FindFocusableElement searches el and its composed subtree depth-first for
// the first focusable element in the given direction. Forward prefers the
// outermost, earliest match; Backward prefers the innermost, latest match.
func FindFocusableElement(el Element, dir Direction) Element {
	if dir == Forward && IsFocusable(el) {
		return el
	}
	if CanHaveFocusableChildren(el) {
		if found := searchChildren(el, dir); found != nil {
			return found
		}
	}
	if dir == Backward && IsFocusable(el) {
		return el
	}
	return nil
}

// searchChildren descends into the children el renders: its shadow tree,
// its assigned elements when it is a slot, or its light children.
func searchChildren(el Element, dir Direction) Element {
	kind, sr := Classify(el)
	switch kind {
	case KindShadowHost:
		return searchChain(firstChild(sr, dir), dir)
	case KindSlot:
		assigned := el.AssignedElements()
		if dir == Backward {
			assigned = reversed(assigned)
		}
		for _, a := range assigned {
			if found := FindFocusableElement(a, dir); found != nil {
				return found
			}
		}
		return nil
	default:
		return searchChain(firstChild(el, dir), dir)
	}
}

// FirstAndLastFocusableChild returns the first and last focusable elements
// of root's composed subtree. last equals first when only one exists; both
// are nil when there are none.
func FirstAndLastFocusableChild(root Element) (first, last Element) {
	first = FindFocusableElement(root, Forward)
	if first == nil {
		return nil, nil
	}
	last = FindFocusableElement(root, Backward)
	if last == nil {
		last = first
	}
	return first, last
}

type parent interface {
	FirstElementChild() Element
	LastElementChild() Element
}

func firstChild(p parent, dir Direction) Element {
	if dir == Forward {
		return p.FirstElementChild()
	}
	return p.LastElementChild()
}

func nextSibling(el Element, dir Direction) Element {
	if dir == Forward {
		return el.NextElementSibling()
	}
	return el.PreviousElementSibling()
}

func searchChain(start Element, dir Direction) Element {
	for c := start; c != nil; c = nextSibling(c, dir) {
		if found := FindFocusableElement(c, dir); found != nil {
			return found
		}
	}
	return nil
}

func reversed(els []Element) []Element {
	out := make([]Element, len(els))
	for i, e := range els {
		out[len(els)-1-i] = e
	}
	return out
}
