package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// resourceClasses maps config names onto CDP resource types.
var resourceClasses = map[string]proto.NetworkResourceType{
	"images":      proto.NetworkResourceTypeImage,
	"fonts":       proto.NetworkResourceTypeFont,
	"media":       proto.NetworkResourceTypeMedia,
	"stylesheets": proto.NetworkResourceTypeStylesheet,
}

// blockList is the set of resource types a tab refuses to load.
type blockList map[proto.NetworkResourceType]bool

func newBlockList(names []string) blockList {
	bl := make(blockList, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if t, ok := resourceClasses[name]; ok {
			bl[t] = true
			continue
		}
		// Raw CDP names ("script", "xhr", ...) pass through.
		for _, t := range allResourceTypes {
			if strings.EqualFold(string(t), name) {
				bl[t] = true
			}
		}
	}
	return bl
}

var allResourceTypes = []proto.NetworkResourceType{
	proto.NetworkResourceTypeDocument,
	proto.NetworkResourceTypeStylesheet,
	proto.NetworkResourceTypeImage,
	proto.NetworkResourceTypeMedia,
	proto.NetworkResourceTypeFont,
	proto.NetworkResourceTypeScript,
	proto.NetworkResourceTypeXHR,
	proto.NetworkResourceTypeFetch,
	proto.NetworkResourceTypeWebSocket,
	proto.NetworkResourceTypeOther,
}

func (bl blockList) blocks(t proto.NetworkResourceType) bool {
	return bl[t]
}

// applyResourceBlocking fails requests for the configured resource types.
// Focus audits depend on layout, so stylesheets load unless listed.
func applyResourceBlocking(page *rod.Page, names []string) {
	bl := newBlockList(names)
	if len(bl) == 0 {
		return
	}

	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if bl.blocks(h.Request.Type()) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})

	go router.Run()
}
