package dom

import (
	"strings"
	"testing"

	"github.com/hazyhaar/focuskit/focus"
)

func parse(t *testing.T, src string) *Document {
	t.Helper()
	d, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return d
}

func byID(t *testing.T, d *Document, id string) *Element {
	t.Helper()
	found := d.QueryAllComposed("#" + id)
	if len(found) == 0 {
		t.Fatalf("no element #%s", id)
	}
	return found[0]
}

func idOf(e focus.Element) string {
	if e == nil {
		return "<nil>"
	}
	v, _ := e.(*Element).Attr("id")
	return v
}

func TestFirstAndLast(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantFirst string
		wantLast  string
	}{
		{
			name:      "none",
			src:       `<div id="root"><p>text</p><span></span></div>`,
			wantFirst: "<nil>", wantLast: "<nil>",
		},
		{
			name:      "single",
			src:       `<div id="root"><p><a id="x" href="/">x</a></p></div>`,
			wantFirst: "x", wantLast: "x",
		},
		{
			name:      "document order",
			src:       `<div id="root"><button id="a">a</button><div><input id="b"></div><textarea id="c"></textarea></div>`,
			wantFirst: "a", wantLast: "c",
		},
		{
			name:      "skips disabled and negative tabindex",
			src:       `<div id="root"><button disabled>no</button><a id="a" href="#">a</a><span id="b" tabindex="0">b</span><span tabindex="-1">no</span></div>`,
			wantFirst: "a", wantLast: "b",
		},
		{
			name:      "skips display none",
			src:       `<div id="root"><button id="a">a</button><button style="display: none">no</button></div>`,
			wantFirst: "a", wantLast: "a",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := parse(t, tt.src)
			first, last := focus.FirstAndLastFocusableChild(byID(t, d, "root"))
			if idOf(first) != tt.wantFirst || idOf(last) != tt.wantLast {
				t.Errorf("got (%s, %s), want (%s, %s)", idOf(first), idOf(last), tt.wantFirst, tt.wantLast)
			}
		})
	}
}

func TestIsFocusable_NotRendered(t *testing.T) {
	d := parse(t, `<button id="none" style="color:red; display:none">x</button>
		<button id="hidden" hidden>x</button>
		<div hidden><button id="inside">x</button></div>
		<button id="ok">x</button>`)

	for _, id := range []string{"none", "hidden", "inside"} {
		if focus.IsFocusable(byID(t, d, id)) {
			t.Errorf("#%s: focusable, want not", id)
		}
	}
	if !focus.IsFocusable(byID(t, d, "ok")) {
		t.Error("#ok: not focusable")
	}
}

func TestCanHaveFocusableChildren_Button(t *testing.T) {
	d := parse(t, `<button id="visible"><input></button><button id="hidden" hidden><input></button>`)

	if focus.CanHaveFocusableChildren(byID(t, d, "visible")) {
		t.Error("visible button: want false")
	}
	if !focus.CanHaveFocusableChildren(byID(t, d, "hidden")) {
		t.Error("hidden button: want true")
	}
}

func TestShadowHostPrecedence(t *testing.T) {
	d := parse(t, `<div id="host"><template shadowrootmode="open"><p><button id="inner">in</button></p></template><button id="light">light</button></div>`)

	host := byID(t, d, "host")
	if host.ShadowRoot() == nil {
		t.Fatal("declarative shadow root not attached")
	}
	if got := idOf(focus.FindFocusableElement(host, focus.Forward)); got != "inner" {
		t.Errorf("got %s, want inner", got)
	}
}

func TestSlotAssignment(t *testing.T) {
	d := parse(t, `<x-list id="host"><template shadowrootmode="open"><slot id="s"></slot></template><button id="p">p</button><button id="q">q</button></x-list>`)

	slot := byID(t, d, "s")
	assigned := slot.AssignedElements()
	if len(assigned) != 2 || idOf(assigned[0]) != "p" || idOf(assigned[1]) != "q" {
		t.Fatalf("assigned = %v", assigned)
	}
	if got := idOf(focus.FindFocusableElement(slot, focus.Forward)); got != "p" {
		t.Errorf("forward: got %s, want p", got)
	}
	if got := idOf(focus.FindFocusableElement(slot, focus.Backward)); got != "q" {
		t.Errorf("backward: got %s, want q", got)
	}
}

func TestNamedSlotsFollowShadowOrder(t *testing.T) {
	d := parse(t, `<div id="root"><x-card id="host">
		<template shadowrootmode="open">
			<slot name="footer"></slot>
			<button id="mid">mid</button>
			<slot></slot>
		</template>
		<a id="body" href="/">body</a>
		<button id="foot" slot="footer">foot</button>
		<button id="orphan" slot="nowhere">orphan</button>
	</x-card></div>`)

	first, last := focus.FirstAndLastFocusableChild(byID(t, d, "root"))
	if idOf(first) != "foot" || idOf(last) != "body" {
		t.Errorf("got (%s, %s), want (foot, body)", idOf(first), idOf(last))
	}
	if focus.IsFocusable(byID(t, d, "orphan")) {
		t.Error("unassigned light child must not be rendered")
	}
}

func TestSlotFallbackContent(t *testing.T) {
	d := parse(t, `<x-empty id="host"><template shadowrootmode="open"><slot id="s"><button id="fb">fallback</button></slot></template></x-empty>`)

	if got := idOf(focus.FindFocusableElement(byID(t, d, "host"), focus.Forward)); got != "fb" {
		t.Errorf("got %s, want fb", got)
	}
}

func TestClosedShadowRootHidden(t *testing.T) {
	d := parse(t, `<x-closed id="host"><template shadowrootmode="closed"><button id="secret">s</button><slot></slot></template><button id="light">l</button></x-closed>`)

	host := byID(t, d, "host")
	if host.ShadowRoot() != nil {
		t.Fatal("closed shadow root exposed")
	}
	if host.AttachedShadow() == nil {
		t.Fatal("closed shadow root not attached")
	}
	if got := idOf(focus.FindFocusableElement(host, focus.Forward)); got != "light" {
		t.Errorf("got %s, want light", got)
	}

	secret := d.QueryAllComposed("#secret")
	if len(secret) != 1 {
		t.Fatalf("composed query found %d elements in the closed root, want 1", len(secret))
	}
	if !host.ComposedContains(secret[0]) {
		t.Error("host must contain its closed shadow content")
	}

	secret[0].Focus()
	if got := idOf(d.ActiveElement()); got != "host" {
		t.Errorf("document active = %s, want host", got)
	}
	if got := secret[0].TreeActiveElement(); got != secret[0] {
		t.Errorf("tree active = %v, want secret", got)
	}
}

func TestComposedContains(t *testing.T) {
	d := parse(t, `<div id="outer"><x-a id="host"><template shadowrootmode="open"><p id="deep"><button id="b">b</button></p></template></x-a></div><div id="other"></div>`)
	outer, deep, b, other := byID(t, d, "outer"), byID(t, d, "deep"), byID(t, d, "b"), byID(t, d, "other")

	tests := []struct {
		name      string
		ancestor  *Element
		node      *Element
		contained bool
	}{
		{"self", b, b, true},
		{"across shadow root", outer, b, true},
		{"inside shadow tree", deep, b, true},
		{"descendant does not contain ancestor", b, outer, false},
		{"sibling", other, b, false},
		{"nil", outer, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ancestor.ComposedContains(tt.node); got != tt.contained {
				t.Errorf("ComposedContains = %v, want %v", got, tt.contained)
			}
		})
	}
}

func TestClosedDetails(t *testing.T) {
	d := parse(t, `<details id="d"><summary id="sum">more</summary><button id="in">x</button></details>`)

	if !byID(t, d, "sum").HasLayout() {
		t.Error("summary of closed details must render")
	}
	if byID(t, d, "in").HasLayout() {
		t.Error("content of closed details must not render")
	}
}

func TestActiveElement_ThreeShadowRootsDeep(t *testing.T) {
	d := parse(t, `<div id="h1"><template shadowrootmode="open">
		<div id="h2"><template shadowrootmode="open">
			<div id="h3"><template shadowrootmode="open">
				<button id="deep">deep</button>
			</template></div>
		</template></div>
	</template></div>`)

	byID(t, d, "deep").Focus()

	if got := idOf(d.ActiveElement()); got != "h1" {
		t.Errorf("document.activeElement: got %s, want h1", got)
	}
	if got := idOf(focus.ActiveElement(d)); got != "deep" {
		t.Errorf("resolved: got %s, want deep", got)
	}
}

func TestActiveElement_NothingFocused(t *testing.T) {
	d := parse(t, `<button>x</button>`)
	if got := focus.ActiveElement(d); got != nil {
		t.Errorf("got %s, want nil", idOf(got))
	}
}

func TestMoveFocusToDialog(t *testing.T) {
	withTarget := parse(t, `<div role="dialog" id="dlg" tabindex="-1"><button id="cancel">c</button><input id="name" autofocus></div>`)
	focus.MoveFocusToDialog(byID(t, withTarget, "dlg"))
	if got := idOf(focus.ActiveElement(withTarget)); got != "name" {
		t.Errorf("autofocus: got %s, want name", got)
	}

	without := parse(t, `<div role="dialog" id="dlg" tabindex="-1"><button id="cancel">c</button></div>`)
	focus.MoveFocusToDialog(byID(t, without, "dlg"))
	if got := idOf(focus.ActiveElement(without)); got != "dlg" {
		t.Errorf("fallback: got %s, want dlg", got)
	}
}

func TestFocusRefusedOnPlainElement(t *testing.T) {
	d := parse(t, `<div id="plain">x</div>`)
	byID(t, d, "plain").Focus()
	if d.ActiveElement() != nil {
		t.Error("a div without tabindex must not take focus")
	}
}

func TestFocus_ProgrammaticTargets(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"negative tabindex", `<div id="x" tabindex="-1">x</div>`, true},
		{"zero tabindex", `<span id="x" tabindex="0">x</span>`, true},
		{"button", `<button id="x">x</button>`, true},
		{"disabled button", `<button id="x" disabled>x</button>`, false},
		{"link without href", `<a id="x">x</a>`, false},
		{"hidden input", `<input id="x" type="hidden">`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := parse(t, tt.src)
			byID(t, d, "x").Focus()
			if got := d.ActiveElement() != nil; got != tt.want {
				t.Errorf("focused = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDelegatesFocus(t *testing.T) {
	d := parse(t, `<x-field id="host" tabindex="0"><template shadowrootmode="open" shadowrootdelegatesfocus><span>label</span><input id="inner"></template></x-field>`)

	byID(t, d, "host").Focus()
	if got := idOf(focus.ActiveElement(d)); got != "inner" {
		t.Errorf("got %s, want inner", got)
	}
}

func TestRevealClosedDialog(t *testing.T) {
	h := NewStaticHost()
	d, err := Parse(strings.NewReader(`<dialog id="dlg"><button id="b">b</button></dialog>`), WithHost(h))
	if err != nil {
		t.Fatal(err)
	}
	if focus.IsFocusable(byID(t, d, "b")) {
		t.Fatal("content of a closed dialog must not render")
	}
	h.Reveal(byID(t, d, "dlg").Node())
	if !focus.IsFocusable(byID(t, d, "b")) {
		t.Error("revealed dialog content must render")
	}
}

func TestPath(t *testing.T) {
	d := parse(t, `<div><p></p><p><x-a id="host"><template shadowrootmode="open"><span></span><span class="t"></span></template></x-a></p></div>`)

	inner := d.QueryAllComposed("span.t")
	if len(inner) != 1 {
		t.Fatalf("found %d", len(inner))
	}
	want := "x-a#host >>> span:nth-of-type(2)"
	if got := inner[0].Path(); !strings.HasSuffix(got, want) {
		t.Errorf("path %q, want suffix %q", got, want)
	}
	if got := inner[0].Path(); !strings.HasPrefix(got, "html > body > div > p:nth-of-type(2)") {
		t.Errorf("path %q", got)
	}
}

func TestDisplayNone(t *testing.T) {
	tests := []struct {
		style string
		want  bool
	}{
		{"display:none", true},
		{"DISPLAY: None;", true},
		{"color: red; display: none !important", true},
		{"display: none; display: block", false},
		{"display: flex", false},
		{"visibility: hidden", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := displayNone(tt.style); got != tt.want {
			t.Errorf("displayNone(%q) = %v, want %v", tt.style, got, tt.want)
		}
	}
}

func TestElementIdentity(t *testing.T) {
	d := parse(t, `<div id="a"><span></span></div>`)
	a := byID(t, d, "a")
	child := a.FirstElementChild()
	if child.(*Element).Node().Parent != a.Node() {
		t.Fatal("unexpected parent")
	}
	if d.Element(a.Node()) != a {
		t.Error("wrappers must be cached")
	}
	if a.NextElementSibling() != nil {
		t.Error("nil sibling must be a nil interface")
	}
}
