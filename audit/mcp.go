// CLAUDE:SUMMARY Registers the focus audit MCP tools: audit HTML, audit URL, get report, list reports, issue stats.
package audit

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/focuskit/internal/kit"
)

// RegisterMCP registers the focus audit tools on an MCP server.
func (a *Auditor) RegisterMCP(srv *mcp.Server) {
	eps := a.endpoints()

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "focus_audit_html",
		Description: "Audit the dialogs of an HTML document for keyboard focus problems: focusable content, autofocus target, focus moved on open. Declarative shadow DOM is supported.",
		InputSchema: inputSchema(map[string]any{
			"html":   map[string]any{"type": "string", "description": "HTML document or fragment"},
			"source": map[string]any{"type": "string", "description": "Label stored with the report (default \"inline\")"},
		}, []string{"html"}),
	}, eps.auditHTML, decodeInto[auditHTMLRequest])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "focus_audit_url",
		Description: "Audit the dialogs of a web page. live=true loads it in Chrome (scripts, shadow DOM, real layout); otherwise the HTML is fetched and parsed.",
		InputSchema: inputSchema(map[string]any{
			"url":  map[string]any{"type": "string", "description": "Absolute http(s) URL"},
			"live": map[string]any{"type": "boolean", "description": "Use a live browser (default false)"},
		}, []string{"url"}),
	}, eps.auditURL, decodeInto[auditURLRequest])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "focus_report_get",
		Description: "Get a stored focus audit report by id.",
		InputSchema: inputSchema(map[string]any{
			"id": map[string]any{"type": "string", "description": "Report id"},
		}, []string{"id"}),
	}, eps.reportGet, decodeInto[reportGetRequest])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "focus_report_list",
		Description: "List stored focus audit reports, newest first.",
		InputSchema: inputSchema(map[string]any{
			"source":      map[string]any{"type": "string", "description": "Only reports for this source"},
			"issues_only": map[string]any{"type": "boolean", "description": "Only reports with at least one issue"},
			"limit":       map[string]any{"type": "integer", "description": "Max results (default 50)"},
		}, nil),
	}, eps.reportList, decodeInto[reportListRequest])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "focus_issue_stats",
		Description: "Count stored focus issues by kind.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, eps.issueStats, func(*mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{}, nil
	})
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func decodeInto[T any](req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	var r T
	if err := kit.UnmarshalArgs(req, &r); err != nil {
		return nil, err
	}
	return &kit.MCPDecodeResult{Request: &r}, nil
}
