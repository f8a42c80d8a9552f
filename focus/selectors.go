package focus

import "strings"

// FocusableSelectors lists the elements that can receive keyboard focus.
// It follows the focusable-selectors package: negative tabindex excludes an
// element from sequential navigation.
var FocusableSelectors = []string{
	`a[href]:not([tabindex^="-"])`,
	`area[href]:not([tabindex^="-"])`,
	`input:not([type="hidden"]):not([type="radio"]):not([disabled]):not([tabindex^="-"])`,
	`input[type="radio"]:not([disabled]):not([tabindex^="-"])`,
	`select:not([disabled]):not([tabindex^="-"])`,
	`textarea:not([disabled]):not([tabindex^="-"])`,
	`button:not([disabled]):not([tabindex^="-"])`,
	`iframe:not([tabindex^="-"])`,
	`audio[controls]:not([tabindex^="-"])`,
	`video[controls]:not([tabindex^="-"])`,
	`[contenteditable]:not([tabindex^="-"])`,
	`[tabindex]:not([tabindex^="-"])`,
}

// PresentationalParents lists elements whose role makes their children
// presentational: the accessibility tree strips the semantics of anything
// inside them.
var PresentationalParents = []string{
	`a[href]`,
	`button`,
	`img`,
	`summary`,
	`[role="button"]`,
	`[role="image"]`,
	`[role="img"]`,
	`[role="link"]`,
	`[role="math"]`,
	`[role="presentation"]`,
	`[role="progressbar"]`,
	`[role="scrollbar"]`,
	`[role="slider"]`,
}

// HiddenOrDisabled matches elements that are hidden, inert or disabled.
var HiddenOrDisabled = []string{
	`[hidden]`,
	`[inert]`,
	`[disabled]`,
	`[aria-hidden="true"]`,
	`[aria-disabled="true"]`,
}

// AutofocusSelector marks the designated initial focus target of a dialog.
const AutofocusSelector = `[autofocus]`

// ProgrammaticFocusSelector matches elements that focus() accepts: the
// focusable list plus any tabindex, negative included.
var ProgrammaticFocusSelector = strings.Join(FocusableSelectors, ",") + ",[tabindex]"

var (
	focusableList      = strings.Join(FocusableSelectors, ",")
	presentationalList = strings.Join(PresentationalParents, ",")
	hiddenList         = strings.Join(HiddenOrDisabled, ",")
)
