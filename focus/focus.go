// Package focus answers point-in-time focus questions about a composed
// document tree: light DOM, shadow DOM and slotted content.
//
// The package never mutates the tree except through MoveFocusToDialog, holds
// no state between calls, and reports "nothing found" as a nil Element.
// Host environments (a parsed document, a live browser page) plug in by
// implementing Element, ShadowRoot and Root.
package focus

// Element is an element node of the host tree. Accessors return nil when
// there is no such element.
type Element interface {
	// Matches reports whether the element matches a CSS selector list.
	Matches(selector string) bool
	// HasLayout reports whether the element has a nonzero width or height
	// or at least one client rect.
	HasLayout() bool

	FirstElementChild() Element
	LastElementChild() Element
	NextElementSibling() Element
	PreviousElementSibling() Element

	// ShadowRoot returns the attached shadow root visible to scripts, or nil.
	ShadowRoot() ShadowRoot
	// IsSlot reports whether the element is a <slot>.
	IsSlot() bool
	// AssignedElements returns the flattened elements assigned to a slot.
	AssignedElements() []Element

	// QuerySelector returns the first descendant matching selector in the
	// element's own tree.
	QuerySelector(selector string) Element
	// Focus asks the host to move input focus to the element.
	Focus()
}

// Root is a document or a shadow root: anything with a notion of an active
// element.
type Root interface {
	ActiveElement() Element
}

// ShadowRoot is an encapsulated tree attached to a host element.
type ShadowRoot interface {
	Root
	FirstElementChild() Element
	LastElementChild() Element
}

// Direction selects traversal order.
type Direction bool

const (
	Forward  Direction = true
	Backward Direction = false
)

func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "backward"
}
