package focus

// fakeEl is a hand-built tree node for exercising the traversal without a
// host document.
type fakeEl struct {
	name           string
	focusable      bool
	presentational bool
	hidden         bool
	autofocus      bool
	layout         bool
	slot           bool

	parent   *fakeEl
	children []*fakeEl
	shadow   *fakeShadow
	assigned []*fakeEl

	doc *fakeDoc
}

type fakeShadow struct {
	host     *fakeEl
	children []*fakeEl
	active   *fakeEl
}

type fakeDoc struct {
	active  *fakeEl
	focused []string
}

func (d *fakeDoc) ActiveElement() Element { return elOrNil(d.active) }

func el(name string, children ...*fakeEl) *fakeEl {
	e := &fakeEl{name: name, layout: true}
	for _, c := range children {
		c.parent = e
	}
	e.children = children
	return e
}

func btn(name string) *fakeEl {
	e := el(name)
	e.focusable = true
	e.presentational = true
	return e
}

func elOrNil(e *fakeEl) Element {
	if e == nil {
		return nil
	}
	return e
}

func (e *fakeEl) Matches(sel string) bool {
	switch sel {
	case focusableList:
		return e.focusable
	case presentationalList:
		return e.presentational
	case hiddenList:
		return e.hidden
	case AutofocusSelector:
		return e.autofocus
	}
	return false
}

func (e *fakeEl) HasLayout() bool { return e.layout }

func (e *fakeEl) FirstElementChild() Element {
	if len(e.children) == 0 {
		return nil
	}
	return e.children[0]
}

func (e *fakeEl) LastElementChild() Element {
	if len(e.children) == 0 {
		return nil
	}
	return e.children[len(e.children)-1]
}

func (e *fakeEl) siblings() []*fakeEl {
	if e.parent != nil {
		return e.parent.children
	}
	return nil
}

func (e *fakeEl) NextElementSibling() Element {
	sib := e.siblings()
	for i, s := range sib {
		if s == e && i+1 < len(sib) {
			return sib[i+1]
		}
	}
	return nil
}

func (e *fakeEl) PreviousElementSibling() Element {
	sib := e.siblings()
	for i, s := range sib {
		if s == e && i > 0 {
			return sib[i-1]
		}
	}
	return nil
}

func (e *fakeEl) ShadowRoot() ShadowRoot {
	if e.shadow == nil {
		return nil
	}
	return e.shadow
}

func (e *fakeEl) IsSlot() bool { return e.slot }

func (e *fakeEl) AssignedElements() []Element {
	out := make([]Element, 0, len(e.assigned))
	for _, a := range e.assigned {
		out = append(out, a)
	}
	return out
}

func (e *fakeEl) QuerySelector(sel string) Element {
	for _, c := range e.children {
		if c.Matches(sel) {
			return c
		}
		if found := c.QuerySelector(sel); found != nil {
			return found
		}
	}
	return nil
}

func (e *fakeEl) Focus() {
	if e.doc != nil {
		e.doc.focused = append(e.doc.focused, e.name)
	}
}

func (s *fakeShadow) ActiveElement() Element { return elOrNil(s.active) }

func (s *fakeShadow) FirstElementChild() Element {
	if len(s.children) == 0 {
		return nil
	}
	return s.children[0]
}

func (s *fakeShadow) LastElementChild() Element {
	if len(s.children) == 0 {
		return nil
	}
	return s.children[len(s.children)-1]
}

// attach gives host a shadow root holding children. Shadow children keep a
// parent pointer to a detached container so their sibling chain works.
func attach(host *fakeEl, children ...*fakeEl) *fakeShadow {
	container := el("#shadow-root", children...)
	sr := &fakeShadow{host: host, children: container.children}
	host.shadow = sr
	return sr
}

func name(e Element) string {
	if e == nil {
		return "<nil>"
	}
	return e.(*fakeEl).name
}
