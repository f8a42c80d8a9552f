package focus

import "testing"

func TestMoveFocusToDialog_Autofocus(t *testing.T) {
	doc := &fakeDoc{}
	target := btn("ok")
	target.autofocus = true
	target.doc = doc
	container := el("dialog", btn("cancel"), el("div", target))
	container.doc = doc

	MoveFocusToDialog(container)

	if len(doc.focused) != 1 || doc.focused[0] != "ok" {
		t.Fatalf("focused %v, want [ok]", doc.focused)
	}
}

func TestMoveFocusToDialog_FallsBackToContainer(t *testing.T) {
	doc := &fakeDoc{}
	container := el("dialog", btn("cancel"))
	container.doc = doc

	MoveFocusToDialog(container)

	if len(doc.focused) != 1 || doc.focused[0] != "dialog" {
		t.Fatalf("focused %v, want [dialog]", doc.focused)
	}
}

func TestActiveElement_NestedShadowRoots(t *testing.T) {
	innermost := btn("innermost")
	h3 := el("h3")
	sr3 := attach(h3, innermost)
	sr3.active = innermost

	h2 := el("h2")
	sr2 := attach(h2, h3)
	sr2.active = h3

	h1 := el("h1")
	sr1 := attach(h1, h2)
	sr1.active = h2

	doc := &fakeDoc{active: h1}

	if got := name(ActiveElement(doc)); got != "innermost" {
		t.Fatalf("got %s, want innermost", got)
	}
}

func TestActiveElement_None(t *testing.T) {
	if got := ActiveElement(&fakeDoc{}); got != nil {
		t.Fatalf("got %s, want nil", name(got))
	}
}

func TestActiveElement_FocusedHostItself(t *testing.T) {
	host := el("host")
	attach(host, btn("inside"))
	doc := &fakeDoc{active: host}

	if got := name(ActiveElement(doc)); got != "host" {
		t.Fatalf("got %s, want host", got)
	}
}
