// CLAUDE:SUMMARY CLI entry point for focusaudit: one-shot file/URL audits, HTTP API server, or MCP over stdio.
// Command focusaudit audits the keyboard focus behaviour of dialogs.
//
// Usage:
//
//	focusaudit -file page.html                  # audit a local file
//	focusaudit -url https://example.com         # fetch and audit the static HTML
//	focusaudit -url https://example.com -live   # audit in Chrome
//	focusaudit -serve :8090                     # HTTP API
//	focusaudit -mcp                             # MCP server on stdio
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/focuskit/audit"
)

var version = "dev"

var (
	// errUsage exits with status 2: no mode selected or bad flags.
	errUsage = errors.New("usage")
	// errIssuesFound exits with status 3 under -fail-on-issues.
	errIssuesFound = errors.New("focus issues found")
)

type options struct {
	configPath   string
	file         string
	url          string
	live         bool
	serve        string
	mcp          bool
	dbPath       string
	failOnIssues bool
	logLevel     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	code := exitCode(err)
	if code == 1 {
		slog.Error("focusaudit: fatal", "error", err)
	}
	os.Exit(code)
}

func exitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		return 2
	case errors.Is(err, errIssuesFound):
		return 3
	default:
		return 1
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("focusaudit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "path to focusaudit.yaml config file")
	fs.StringVar(&o.file, "file", "", "audit a local HTML file")
	fs.StringVar(&o.url, "url", "", "audit a URL")
	fs.BoolVar(&o.live, "live", false, "with -url: load the page in Chrome instead of fetching the HTML")
	fs.StringVar(&o.serve, "serve", "", "serve the HTTP API on this address (\"config\" uses http.addr)")
	fs.BoolVar(&o.mcp, "mcp", false, "serve MCP tools on stdin/stdout")
	fs.StringVar(&o.dbPath, "db", "", "report database path (overrides db_path)")
	fs.BoolVar(&o.failOnIssues, "fail-on-issues", false, "exit with status 3 when a one-shot audit finds issues")
	fs.StringVar(&o.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: focusaudit [-config <file>] -file <path> | -url <url> [-live] | -serve <addr> | -mcp")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return o, err
		}
		return o, fmt.Errorf("%w: %w", errUsage, err)
	}
	if o.file == "" && o.url == "" && o.serve == "" && !o.mcp {
		fs.Usage()
		return o, fmt.Errorf("%w: no mode selected", errUsage)
	}
	return o, nil
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// run executes one invocation. stdout carries reports; logs go to stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: parseLevel(o.logLevel)}))
	slog.SetDefault(logger)

	cfg := audit.DefaultConfig()
	if o.configPath != "" {
		if cfg, err = audit.LoadConfig(o.configPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}

	a, err := audit.New(cfg, audit.WithLogger(logger))
	if err != nil {
		return err
	}
	defer a.Close()

	switch {
	case o.mcp:
		return runMCP(ctx, a)
	case o.serve != "":
		addr := o.serve
		if addr == "config" {
			addr = cfg.HTTP.Addr
		}
		return runHTTP(ctx, logger, a, addr)
	default:
		return runOnce(ctx, a, o, stdout)
	}
}

func runOnce(ctx context.Context, a *audit.Auditor, o options, stdout io.Writer) error {
	var rep *audit.Report
	var err error
	if o.file != "" {
		rep, err = a.AuditFile(ctx, o.file)
	} else {
		rep, err = a.AuditURL(ctx, o.url, o.live)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if o.failOnIssues && rep.IssueCount > 0 {
		return errIssuesFound
	}
	return nil
}

func runMCP(ctx context.Context, a *audit.Auditor) error {
	srv := mcp.NewServer(&mcp.Implementation{Name: "focusaudit", Version: version}, nil)
	a.RegisterMCP(srv)
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}

func runHTTP(ctx context.Context, logger *slog.Logger, a *audit.Auditor, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("focusaudit: listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http: shutdown: %w", err)
	}
	logger.Info("focusaudit: stopped")
	return nil
}
