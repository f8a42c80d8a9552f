package audit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testImpl = &mcp.Implementation{Name: "focusaudit-test", Version: "0.1.0"}

// mcpSession creates an Auditor, registers MCP tools, and returns a
// connected client session that can call tools end-to-end.
func mcpSession(t *testing.T) (*Auditor, *mcp.ClientSession) {
	t.Helper()
	a := testAuditor(t)

	srv := mcp.NewServer(testImpl, nil)
	a.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()

	go func() {
		_ = srv.Run(ctx, serverT)
	}()

	client := mcp.NewClient(testImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })

	return a, session
}

// callTool invokes a tool and returns the JSON text from the first TextContent.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if err := result.GetError(); err != nil {
		t.Fatalf("CallTool(%s) tool error: %v", name, err)
	}
	if len(result.Content) == 0 {
		t.Fatalf("CallTool(%s): empty content", name)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent, got %T", name, result.Content[0])
	}
	return tc.Text
}

func TestMCP_ListTools(t *testing.T) {
	_, session := mcpSession(t)

	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	want := map[string]bool{
		"focus_audit_html":  false,
		"focus_audit_url":   false,
		"focus_report_get":  false,
		"focus_report_list": false,
		"focus_issue_stats": false,
	}
	for _, tool := range res.Tools {
		want[tool.Name] = true
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("tool %s not registered", name)
		}
	}
}

func TestMCP_AuditHTMLThenGet(t *testing.T) {
	_, session := mcpSession(t)

	text := callTool(t, session, "focus_audit_html", map[string]any{
		"html":   page,
		"source": "mcp.html",
	})
	var rep Report
	if err := json.Unmarshal([]byte(text), &rep); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rep.ID == "" || rep.Transport != "mcp" || len(rep.Dialogs) != 5 {
		t.Errorf("report = %+v", rep)
	}

	text = callTool(t, session, "focus_report_get", map[string]any{"id": rep.ID})
	var got Report
	json.Unmarshal([]byte(text), &got)
	if got.ID != rep.ID || got.Source != "mcp.html" {
		t.Errorf("got = %+v", got)
	}

	text = callTool(t, session, "focus_report_list", map[string]any{"source": "mcp.html"})
	var list []Summary
	json.Unmarshal([]byte(text), &list)
	if len(list) != 1 || list[0].DialogCount != 5 {
		t.Errorf("list = %s", text)
	}

	text = callTool(t, session, "focus_issue_stats", map[string]any{})
	var stats map[string]int
	json.Unmarshal([]byte(text), &stats)
	if stats[string(IssueNoFocusableContent)] != 1 {
		t.Errorf("stats = %s", text)
	}
}

func TestMCP_ToolErrors(t *testing.T) {
	_, session := mcpSession(t)
	ctx := context.Background()

	tests := []struct {
		name string
		tool string
		args map[string]any
	}{
		{"empty html", "focus_audit_html", map[string]any{"html": ""}},
		{"bad url", "focus_audit_url", map[string]any{"url": "not a url"}},
		{"loopback url", "focus_audit_url", map[string]any{"url": "http://127.0.0.1:8090/health"}},
		{"metadata url", "focus_audit_url", map[string]any{"url": "http://169.254.169.254/latest"}},
		{"unknown report", "focus_report_get", map[string]any{"id": "missing"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: tt.tool, Arguments: tt.args})
			if err != nil {
				t.Fatalf("call: %v", err)
			}
			if !res.IsError {
				t.Error("expected tool error")
			}
		})
	}
}
