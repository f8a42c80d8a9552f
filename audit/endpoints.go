package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hazyhaar/focuskit/internal/kit"
	"github.com/hazyhaar/focuskit/internal/observability"
)

// ErrInvalidRequest marks request validation failures.
var ErrInvalidRequest = errors.New("invalid request")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

type auditHTMLRequest struct {
	HTML   string `json:"html"`
	Source string `json:"source,omitempty"`
}

type auditURLRequest struct {
	URL  string `json:"url"`
	Live bool   `json:"live,omitempty"`
}

type reportGetRequest struct {
	ID string `json:"id"`
}

type reportListRequest struct {
	Source     string `json:"source,omitempty"`
	IssuesOnly bool   `json:"issues_only,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

// endpoints are shared by the HTTP handlers and the MCP tools.
type endpoints struct {
	auditHTML  kit.Endpoint
	auditURL   kit.Endpoint
	reportGet  kit.Endpoint
	reportList kit.Endpoint
	issueStats kit.Endpoint
}

func (a *Auditor) endpoints() endpoints {
	wrap := func(name string, ep kit.Endpoint) kit.Endpoint {
		return kit.Chain(
			kit.Logging(a.logger, name),
			observability.Record(a.calls, name),
		)(ep)
	}
	return endpoints{
		auditHTML:  wrap("audit_html", a.auditHTMLEndpoint),
		auditURL:   wrap("audit_url", a.auditURLEndpoint),
		reportGet:  wrap("report_get", a.reportGetEndpoint),
		reportList: wrap("report_list", a.reportListEndpoint),
		issueStats: wrap("issue_stats", a.issueStatsEndpoint),
	}
}

func (a *Auditor) auditHTMLEndpoint(ctx context.Context, req any) (any, error) {
	r := req.(*auditHTMLRequest)
	if strings.TrimSpace(r.HTML) == "" {
		return nil, invalid("html is required")
	}
	return a.AuditHTML(ctx, strings.NewReader(r.HTML), r.Source)
}

func (a *Auditor) auditURLEndpoint(ctx context.Context, req any) (any, error) {
	r := req.(*auditURLRequest)
	if r.URL == "" {
		return nil, invalid("url is required")
	}
	if err := a.validateURL(r.URL); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return a.AuditURL(ctx, r.URL, r.Live)
}

func (a *Auditor) reportGetEndpoint(ctx context.Context, req any) (any, error) {
	r := req.(*reportGetRequest)
	if r.ID == "" {
		return nil, invalid("id is required")
	}
	return a.Report(ctx, r.ID)
}

func (a *Auditor) reportListEndpoint(ctx context.Context, req any) (any, error) {
	r := req.(*reportListRequest)
	if r.Limit < 0 || r.Limit > 500 {
		return nil, invalid("limit must be between 0 and 500")
	}
	return a.Reports(ctx, ListOptions{Source: r.Source, IssuesOnly: r.IssuesOnly, Limit: r.Limit})
}

func (a *Auditor) issueStatsEndpoint(ctx context.Context, _ any) (any, error) {
	return a.IssueStats(ctx)
}
