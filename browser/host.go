package browser

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/net/html"

	"github.com/hazyhaar/focuskit/dom"
)

// activeElementFn runs with this bound to a document or a shadow root.
const activeElementFn = `function() { return this.activeElement }`

// liveHost answers dom.Host queries from the page a snapshot was taken of.
// Layout answers are cached for the lifetime of the host; a fresh Capture
// gives a fresh host.
type liveHost struct {
	page   *rod.Page
	index  *nodeIndex
	logger *slog.Logger

	mu     sync.Mutex
	layout map[proto.DOMBackendNodeID]bool
}

func newLiveHost(page *rod.Page, index *nodeIndex, logger *slog.Logger) *liveHost {
	return &liveHost{
		page:   page,
		index:  index,
		logger: logger,
		layout: make(map[proto.DOMBackendNodeID]bool),
	}
}

// HasLayout reports whether the node has a box model or at least one
// content quad. Nodes the page no longer knows have no layout.
func (h *liveHost) HasLayout(_ *dom.Document, n *html.Node) bool {
	id, ok := h.index.backendOf[n]
	if !ok {
		return false
	}

	h.mu.Lock()
	cached, hit := h.layout[id]
	h.mu.Unlock()
	if hit {
		return cached
	}

	rendered := h.rendered(id)
	h.mu.Lock()
	h.layout[id] = rendered
	h.mu.Unlock()
	return rendered
}

func (h *liveHost) rendered(id proto.DOMBackendNodeID) bool {
	box, err := proto.DOMGetBoxModel{BackendNodeID: id}.Call(h.page)
	if err == nil && box.Model != nil && (box.Model.Width > 0 || box.Model.Height > 0) {
		return true
	}
	quads, err := proto.DOMGetContentQuads{BackendNodeID: id}.Call(h.page)
	if err != nil {
		return false
	}
	return len(quads.Quads) > 0
}

// Focus asks the page to focus the node. Layout is invalidated since
// focusing can scroll or open ancestors.
func (h *liveHost) Focus(_ *dom.Document, n *html.Node) error {
	id, ok := h.index.backendOf[n]
	if !ok {
		return fmt.Errorf("browser: focus: node not in capture")
	}
	if err := (proto.DOMFocus{BackendNodeID: id}).Call(h.page); err != nil {
		return fmt.Errorf("browser: focus: %w", err)
	}
	h.mu.Lock()
	clear(h.layout)
	h.mu.Unlock()
	return nil
}

// ActiveElement evaluates root.activeElement in the page. The page already
// retargets across shadow boundaries, so the result belongs to root's tree.
func (h *liveHost) ActiveElement(_ *dom.Document, root *html.Node) *html.Node {
	id, ok := h.index.backendOf[root]
	if !ok {
		return nil
	}

	resolved, err := proto.DOMResolveNode{BackendNodeID: id}.Call(h.page)
	if err != nil || resolved.Object == nil {
		h.logger.Debug("browser: resolve root failed", "backend_id", id, "error", err)
		return nil
	}
	defer h.release(resolved.Object.ObjectID)

	res, err := proto.RuntimeCallFunctionOn{
		ObjectID:            resolved.Object.ObjectID,
		FunctionDeclaration: activeElementFn,
	}.Call(h.page)
	if err != nil || res.Result == nil || res.Result.ObjectID == "" {
		return nil
	}
	defer h.release(res.Result.ObjectID)

	desc, err := proto.DOMDescribeNode{ObjectID: res.Result.ObjectID}.Call(h.page)
	if err != nil || desc.Node == nil {
		return nil
	}
	return h.index.byBackend[desc.Node.BackendNodeID]
}

func (h *liveHost) release(id proto.RuntimeRemoteObjectID) {
	if err := (proto.RuntimeReleaseObject{ObjectID: id}).Call(h.page); err != nil {
		h.logger.Debug("browser: release object", "error", err)
	}
}
