// CLAUDE:SUMMARY Focus auditor: finds dialog containers in a composed document, runs the focus queries on each, stores and publishes the report.
// Package audit checks the keyboard focus behaviour of dialogs.
//
// For every dialog container in a document it computes the first and last
// focusable descendants, the autofocus and initial focus targets, moves
// focus the way a dialog library does on open and reads the active element
// back. Documents come from static HTML (parsed, no scripts) or from a live
// Chrome page captured over CDP.
//
//	a, err := audit.New(cfg, audit.WithLogger(logger))
//	defer a.Close()
//	rep, err := a.AuditURL(ctx, "https://example.com", false)
//	a.RegisterMCP(mcpServer)
//	http.ListenAndServe(addr, a.Handler())
package audit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/hazyhaar/focuskit/audit/internal/fetcher"
	"github.com/hazyhaar/focuskit/audit/internal/sink"
	"github.com/hazyhaar/focuskit/audit/internal/store"
	"github.com/hazyhaar/focuskit/browser"
	"github.com/hazyhaar/focuskit/dom"
	"github.com/hazyhaar/focuskit/focus"
	"github.com/hazyhaar/focuskit/internal/horosafe"
	"github.com/hazyhaar/focuskit/internal/idgen"
	"github.com/hazyhaar/focuskit/internal/kit"
	"github.com/hazyhaar/focuskit/internal/observability"
)

// Auditor runs focus audits and keeps their reports.
type Auditor struct {
	cfg     *Config
	store   *store.Store
	sinks   *sink.Router
	extra   []sink.Sink
	fetch   *fetcher.Fetcher
	logger  *slog.Logger
	newID   idgen.Generator
	dialogs string

	httpClient  *http.Client
	validateURL func(string) error

	calls   *observability.CallLog
	metrics *observability.MetricsManager

	mu         sync.Mutex
	browser    *browser.Manager
	ownBrowser bool
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Auditor) { a.logger = l }
}

// WithStore uses an already opened report store instead of cfg.DBPath.
func WithStore(s *store.Store) Option {
	return func(a *Auditor) { a.store = s }
}

// WithCallback delivers every report to fn in-process.
func WithCallback(fn func(ctx context.Context, rep *Report) error) Option {
	return func(a *Auditor) { a.extra = append(a.extra, sink.NewCallback(fn)) }
}

// WithOutput writes every report as a JSON line to w.
func WithOutput(w io.Writer) Option {
	return func(a *Auditor) { a.extra = append(a.extra, sink.NewStdout(w)) }
}

// WithBrowser uses an existing browser manager for live audits. The
// Auditor does not close it.
func WithBrowser(m *browser.Manager) Option {
	return func(a *Auditor) { a.browser = m }
}

// WithHTTPClient sets the client used for static URL fetches.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Auditor) { a.httpClient = c }
}

// WithURLValidator overrides the check applied to page URLs received over
// HTTP or MCP, and to redirects followed by the default fetch client.
// Default: horosafe.ValidateURL, which refuses private and loopback
// addresses. Tests against httptest servers relax it.
func WithURLValidator(fn func(string) error) Option {
	return func(a *Auditor) { a.validateURL = fn }
}

// WithIDGenerator overrides report id generation.
func WithIDGenerator(g idgen.Generator) Option {
	return func(a *Auditor) { a.newID = g }
}

// New creates an Auditor. A nil cfg uses DefaultConfig. The report store
// is opened at cfg.DBPath unless WithStore is given.
func New(cfg *Config, opts ...Option) (*Auditor, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.ApplyDefaults()

	a := &Auditor{
		cfg:         cfg,
		logger:      slog.Default(),
		newID:       idgen.UUIDv7(),
		dialogs:     strings.Join(cfg.DialogSelectors, ", "),
		validateURL: horosafe.ValidateURL,
	}
	for _, o := range opts {
		o(a)
	}
	a.sinks = sink.NewRouter(a.logger, a.extra...)

	for _, sc := range cfg.Sinks {
		switch sc.Type {
		case "stdout":
			a.sinks.Add(sink.NewStdout(nil))
		case "webhook":
			a.sinks.Add(sink.NewWebhook(sc.URL,
				sink.WithWebhookRetries(sc.Retries),
				sink.WithWebhookLogger(a.logger),
			))
		default:
			return nil, fmt.Errorf("audit: unknown sink type %q", sc.Type)
		}
	}

	fopts := []fetcher.Option{
		fetcher.WithLogger(a.logger),
		fetcher.WithMaxBytes(cfg.Fetch.MaxBytes),
	}
	if cfg.Fetch.UserAgent != "" {
		fopts = append(fopts, fetcher.WithUserAgent(cfg.Fetch.UserAgent))
	}
	if a.httpClient == nil {
		a.httpClient = &http.Client{
			Timeout:       cfg.Fetch.Timeout,
			CheckRedirect: horosafe.CheckRedirect(a.validateURL),
		}
	}
	fopts = append(fopts, fetcher.WithClient(a.httpClient))
	a.fetch = fetcher.New(fopts...)

	ownStore := a.store == nil
	if ownStore {
		s, err := store.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("audit: open store: %w", err)
		}
		a.store = s
	}

	if err := observability.Init(a.store.DB); err != nil {
		if ownStore {
			a.store.Close()
		}
		return nil, fmt.Errorf("audit: %w", err)
	}
	a.calls = observability.NewCallLog(a.store.DB,
		observability.WithCallIDGenerator(a.newID),
		observability.WithCallLogger(a.logger),
	)
	a.metrics = observability.NewMetricsManager(a.store.DB, 0, 0, a.logger)
	return a, nil
}

// Close releases the browser (when the Auditor started it), the sinks and
// the store.
func (a *Auditor) Close() error {
	a.mu.Lock()
	if a.browser != nil && a.ownBrowser {
		if err := a.browser.Close(); err != nil {
			a.logger.Warn("audit: close browser", "error", err)
		}
	}
	a.mu.Unlock()

	if err := a.sinks.Close(); err != nil {
		a.logger.Warn("audit: close sinks", "error", err)
	}
	a.metrics.Close()
	return a.store.Close()
}

// AuditDocument audits every dialog container of doc. Static documents get
// their containers revealed first (closed <dialog>, [hidden]) when
// reveal_dialogs is on, as if the dialog had been opened.
func (a *Auditor) AuditDocument(ctx context.Context, doc *dom.Document, source, mode string) (*Report, error) {
	return a.audit(ctx, doc, source, mode, false)
}

func (a *Auditor) audit(ctx context.Context, doc *dom.Document, source, mode string, shell bool) (*Report, error) {
	start := time.Now()
	containers := doc.QueryAllComposed(a.dialogs)

	if host, ok := doc.Host().(*dom.StaticHost); ok && *a.cfg.RevealDialogs {
		for _, c := range containers {
			host.Reveal(c.Node())
		}
	}

	rep := &Report{
		ID:        a.newID(),
		Source:    source,
		Mode:      mode,
		Transport: kit.GetTransport(ctx),
		ShellPage: shell,
		Dialogs:   make([]Dialog, 0, len(containers)),
	}
	for _, c := range containers {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("audit: %w", err)
		}
		d := auditDialog(doc, c)
		rep.IssueCount += len(d.Issues)
		rep.Dialogs = append(rep.Dialogs, d)
	}
	rep.CreatedAt = time.Now().UnixMilli()

	if err := a.store.InsertReport(ctx, rep); err != nil {
		return nil, fmt.Errorf("audit: store report: %w", err)
	}
	if err := a.sinks.Send(ctx, rep); err != nil {
		a.logger.Warn("audit: deliver report", "report", rep.ID, "error", err)
	}

	elapsed := time.Since(start)
	labels := map[string]string{"mode": mode, "transport": rep.Transport}
	a.metrics.Record(&observability.Metric{Name: observability.MetricAuditDurationMs, Value: float64(elapsed.Milliseconds()), Unit: "milliseconds", Labels: labels})
	a.metrics.Record(&observability.Metric{Name: observability.MetricAuditDialogs, Value: float64(len(rep.Dialogs)), Unit: "count", Labels: labels})
	a.metrics.Record(&observability.Metric{Name: observability.MetricAuditIssues, Value: float64(rep.IssueCount), Unit: "count", Labels: labels})

	a.logger.Info("audit: document audited",
		"report", rep.ID,
		"source", source,
		"mode", mode,
		"dialogs", len(rep.Dialogs),
		"issues", rep.IssueCount,
		"duration", elapsed,
	)
	return rep, nil
}

// auditDialog runs the focus queries on one container. It moves focus, so
// containers are audited one after the other.
func auditDialog(doc *dom.Document, c *dom.Element) Dialog {
	d := Dialog{
		Path:  c.Path(),
		Tag:   c.TagName(),
		Role:  attrOf(c, "role"),
		Label: attrOf(c, "aria-label"),
	}

	first, last := focus.FirstAndLastFocusableChild(c)
	d.First, d.Last = pathOf(first), pathOf(last)

	autofocus := c.QuerySelector(focus.AutofocusSelector)
	d.Autofocus = pathOf(autofocus)

	target := focus.InitialFocusTarget(c)
	d.InitialFocus = pathOf(target)

	focus.MoveFocusToDialog(c)
	active := focus.ActiveElement(doc)
	d.ActiveAfter = pathOf(active)

	if first == nil {
		d.Issues = append(d.Issues, IssueNoFocusableContent)
	}
	if autofocus != nil && !focus.IsFocusable(autofocus) {
		d.Issues = append(d.Issues, IssueAutofocusNotFocusable)
	}
	if autofocus == nil && !c.Matches(focus.ProgrammaticFocusSelector) {
		d.Issues = append(d.Issues, IssueContainerNotFocusable)
	}
	if !focusMoved(c, target, active) {
		d.Issues = append(d.Issues, IssueFocusNotMoved)
	}
	if d.Issues == nil {
		d.Issues = []Issue{}
	}
	return d
}

// AuditHTML parses r as static HTML and audits it.
func (a *Auditor) AuditHTML(ctx context.Context, r io.Reader, source string) (*Report, error) {
	doc, err := dom.Parse(r, dom.WithLogger(a.logger))
	if err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}
	if source == "" {
		source = "inline"
	}
	return a.audit(ctx, doc, source, ModeStatic, false)
}

// AuditFile audits the static HTML file at path.
func (a *Auditor) AuditFile(ctx context.Context, path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audit: open file: %w", err)
	}
	defer f.Close()
	return a.AuditHTML(ctx, f, path)
}

// AuditURL audits a page. Static audits fetch the HTML over HTTP; live
// audits load it in Chrome and capture the composed DOM.
func (a *Auditor) AuditURL(ctx context.Context, pageURL string, live bool) (*Report, error) {
	if live {
		return a.auditLive(ctx, pageURL)
	}

	res, err := a.fetch.Fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}
	if res.Shell {
		a.logger.Warn("audit: page looks script-rendered, a live audit may find more dialogs", "url", pageURL)
	}
	doc, err := dom.Parse(bytes.NewReader(res.Body), dom.WithLogger(a.logger))
	if err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}
	return a.audit(ctx, doc, pageURL, ModeStatic, res.Shell)
}

func (a *Auditor) auditLive(ctx context.Context, pageURL string) (*Report, error) {
	mgr, err := a.browserManager(ctx)
	if err != nil {
		return nil, err
	}

	tab, err := browser.OpenTab(ctx, mgr, pageURL)
	if err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}
	defer tab.Close()

	doc, err := browser.Capture(ctx, tab.Page, browser.WithCaptureLogger(a.logger))
	if err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}
	return a.audit(ctx, doc, pageURL, ModeLive, false)
}

// browserManager returns the configured browser, starting one on first use.
func (a *Auditor) browserManager(ctx context.Context) (*browser.Manager, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.browser == nil {
		bc := a.cfg.Browser
		a.browser = browser.NewManager(browser.Config{
			RemoteURL:        bc.Remote,
			Headful:          bc.Headful,
			XvfbDisplay:      bc.XvfbDisplay,
			Stealth:          *bc.Stealth,
			ResourceBlocking: bc.ResourceBlocking,
			NavigateTimeout:  bc.NavigateTimeout,
			Logger:           a.logger,
		})
		a.ownBrowser = true
	}
	if _, err := a.browser.Start(ctx); err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}
	return a.browser, nil
}

// Report returns a stored report.
func (a *Auditor) Report(ctx context.Context, id string) (*Report, error) {
	return a.store.GetReport(ctx, id)
}

// Reports lists stored reports, newest first.
func (a *Auditor) Reports(ctx context.Context, opts ListOptions) ([]Summary, error) {
	return a.store.ListReports(ctx, opts)
}

// DeleteReport removes a stored report.
func (a *Auditor) DeleteReport(ctx context.Context, id string) error {
	return a.store.DeleteReport(ctx, id)
}

// IssueStats counts stored issues by kind.
func (a *Auditor) IssueStats(ctx context.Context) (map[Issue]int, error) {
	return a.store.IssueStats(ctx)
}

// Calls lists recorded HTTP and MCP endpoint calls, newest first.
func (a *Auditor) Calls(ctx context.Context, f CallFilter) ([]CallEntry, error) {
	return a.calls.Query(ctx, f)
}

// Metrics flushes pending datapoints and returns those named name (all
// when empty), newest first.
func (a *Auditor) Metrics(ctx context.Context, name string, limit int) ([]Metric, error) {
	a.metrics.Flush()
	return a.metrics.Query(ctx, name, limit)
}

func pathOf(e focus.Element) string {
	if el, ok := e.(*dom.Element); ok && el != nil {
		return el.Path()
	}
	return ""
}

// focusMoved reports whether focus landed on target or inside it, as a host
// delegating focus to its shadow tree does. Focus inside a closed shadow
// tree reads back as its host, so the container's own tree is asked too.
func focusMoved(c *dom.Element, target, active focus.Element) bool {
	t, ok := target.(*dom.Element)
	if !ok || t == nil {
		return false
	}
	a, ok := active.(*dom.Element)
	if !ok || a == nil {
		return false
	}
	if t.ComposedContains(a) {
		return true
	}
	return a.ComposedContains(c) && t.ComposedContains(c.TreeActiveElement())
}

func attrOf(e *dom.Element, key string) string {
	v, _ := e.Attr(key)
	return v
}
