package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
	"golang.org/x/net/html"

	"github.com/hazyhaar/focuskit/dom"
)

// nodeIndex maps captured html nodes to CDP backend node ids and back.
// Backend ids survive DOM.getDocument calls, unlike NodeId.
type nodeIndex struct {
	byBackend map[proto.DOMBackendNodeID]*html.Node
	backendOf map[*html.Node]proto.DOMBackendNodeID
}

func newNodeIndex() *nodeIndex {
	return &nodeIndex{
		byBackend: make(map[proto.DOMBackendNodeID]*html.Node),
		backendOf: make(map[*html.Node]proto.DOMBackendNodeID),
	}
}

func (ix *nodeIndex) add(id proto.DOMBackendNodeID, n *html.Node) {
	ix.byBackend[id] = n
	ix.backendOf[n] = id
}

type shadowLink struct {
	host *html.Node
	root *html.Node
	mode string
}

type slotLink struct {
	node *html.Node
	slot proto.DOMBackendNodeID
}

// snapshot is a CDP DOM tree converted to html nodes, before the shadow
// roots and slot assignments are registered on a Document.
type snapshot struct {
	root    *html.Node
	index   *nodeIndex
	shadows []shadowLink
	slotted []slotLink
}

// convert turns a pierced DOM.getDocument result into an html tree.
// User-agent shadow roots, iframe documents and template contents are
// skipped: they are not part of the document's composed tree.
func convert(root *proto.DOMNode) *snapshot {
	s := &snapshot{index: newNodeIndex()}
	s.root = s.build(root)
	return s
}

func (s *snapshot) build(n *proto.DOMNode) *html.Node {
	var hn *html.Node
	switch n.NodeType {
	case 1:
		hn = &html.Node{Type: html.ElementNode, Data: elementName(n), Attr: attributes(n.Attributes)}
	case 3:
		hn = &html.Node{Type: html.TextNode, Data: n.NodeValue}
	case 8:
		hn = &html.Node{Type: html.CommentNode, Data: n.NodeValue}
	case 9, 11:
		hn = &html.Node{Type: html.DocumentNode}
	default:
		return nil
	}
	s.index.add(n.BackendNodeID, hn)

	for _, c := range n.Children {
		if ch := s.build(c); ch != nil {
			hn.AppendChild(ch)
		}
	}

	if n.NodeType == 1 {
		for _, sr := range n.ShadowRoots {
			if sr.ShadowRootType == proto.DOMShadowRootTypeUserAgent {
				continue
			}
			if root := s.build(sr); root != nil {
				s.shadows = append(s.shadows, shadowLink{host: hn, root: root, mode: string(sr.ShadowRootType)})
			}
		}
		if n.AssignedSlot != nil {
			s.slotted = append(s.slotted, slotLink{node: hn, slot: n.AssignedSlot.BackendNodeID})
		}
	}
	return hn
}

// document registers the snapshot's shadow roots and slot assignments on a
// new Document. Hosts whose children carry no assignedSlot from CDP fall
// back to name-based assignment.
func (s *snapshot) document(opts ...dom.Option) (*dom.Document, error) {
	d := dom.NewDocument(s.root, opts...)
	for _, l := range s.shadows {
		if _, err := d.AttachShadow(l.host, l.root, dom.ShadowInit{Mode: l.mode}); err != nil {
			return nil, fmt.Errorf("browser: attach shadow: %w", err)
		}
	}

	explicit := make(map[*html.Node]bool)
	grouped := make(map[*html.Node][]*html.Node)
	var order []*html.Node
	for _, l := range s.slotted {
		slot := s.index.byBackend[l.slot]
		if slot == nil {
			continue
		}
		if _, seen := grouped[slot]; !seen {
			order = append(order, slot)
		}
		grouped[slot] = append(grouped[slot], l.node)
		if l.node.Parent != nil {
			explicit[l.node.Parent] = true
		}
	}
	for _, l := range s.shadows {
		if !explicit[l.host] {
			d.AssignByName(l.host)
		}
	}
	for _, slot := range order {
		d.Assign(slot, grouped[slot]...)
	}
	return d, nil
}

func elementName(n *proto.DOMNode) string {
	if n.LocalName != "" {
		return n.LocalName
	}
	return strings.ToLower(n.NodeName)
}

// attributes converts CDP's flat [name, value, name, value...] list.
func attributes(flat []string) []html.Attribute {
	if len(flat) < 2 {
		return nil
	}
	out := make([]html.Attribute, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		out = append(out, html.Attribute{Key: flat[i], Val: flat[i+1]})
	}
	return out
}

// CaptureOption configures Capture.
type CaptureOption func(*captureConfig)

type captureConfig struct {
	logger *slog.Logger
}

// WithCaptureLogger sets the logger used by the captured document and its host.
func WithCaptureLogger(l *slog.Logger) CaptureOption {
	return func(c *captureConfig) { c.logger = l }
}

// Capture reads the composed DOM of page (open and closed shadow roots
// included) and returns a Document whose host queries the page for layout,
// focus and the active element.
func Capture(ctx context.Context, page *rod.Page, opts ...CaptureOption) (*dom.Document, error) {
	cfg := captureConfig{logger: slog.Default()}
	for _, o := range opts {
		o(&cfg)
	}

	p := page.Context(ctx)
	if err := (proto.DOMEnable{}).Call(p); err != nil {
		return nil, fmt.Errorf("browser: capture: dom enable: %w", err)
	}
	res, err := proto.DOMGetDocument{Depth: gson.Int(-1), Pierce: true}.Call(p)
	if err != nil {
		return nil, fmt.Errorf("browser: capture: get document: %w", err)
	}

	s := convert(res.Root)
	host := newLiveHost(p, s.index, cfg.logger)
	d, err := s.document(dom.WithHost(host), dom.WithLogger(cfg.logger))
	if err != nil {
		return nil, err
	}

	cfg.logger.Debug("browser: captured document",
		"nodes", len(s.index.byBackend),
		"shadow_roots", len(s.shadows),
		"slotted", len(s.slotted),
	)
	return d, nil
}
