package focus

// MoveFocusToDialog focuses the container's autofocus descendant, or the
// container itself when there is none. The target is not checked for
// focusability: a designated target is assumed intentional and the host
// no-ops when it cannot take focus.
func MoveFocusToDialog(container Element) {
	InitialFocusTarget(container).Focus()
}

// InitialFocusTarget returns the element MoveFocusToDialog would focus.
func InitialFocusTarget(container Element) Element {
	if target := container.QuerySelector(AutofocusSelector); target != nil {
		return target
	}
	return container
}

// ActiveElement returns the deepest focused element under root, following
// focus into nested shadow roots. It returns nil when root has no active
// element. A focused host whose shadow root reports no active element is
// itself the answer.
func ActiveElement(root Root) Element {
	active := root.ActiveElement()
	if active == nil {
		return nil
	}
	if sr := active.ShadowRoot(); sr != nil {
		if inner := ActiveElement(sr); inner != nil {
			return inner
		}
	}
	return active
}
