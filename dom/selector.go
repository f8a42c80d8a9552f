package dom

import (
	"sync"

	"github.com/andybalholm/cascadia"
)

var selectors sync.Map // string -> cascadia.SelectorGroup

// compile parses a selector list once and caches it for the process.
func compile(sel string) (cascadia.SelectorGroup, error) {
	if m, ok := selectors.Load(sel); ok {
		return m.(cascadia.SelectorGroup), nil
	}
	g, err := cascadia.ParseGroup(sel)
	if err != nil {
		return nil, err
	}
	selectors.Store(sel, g)
	return g, nil
}
