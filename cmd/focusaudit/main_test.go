package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/focuskit/audit"
)

func writePage(t *testing.T, html string) (page, db string) {
	t.Helper()
	dir := t.TempDir()
	page = filepath.Join(dir, "page.html")
	if err := os.WriteFile(page, []byte(html), 0o644); err != nil {
		t.Fatal(err)
	}
	return page, filepath.Join(dir, "reports.db")
}

func TestRun_NoModeIsUsageError(t *testing.T) {
	// WHAT: Running without -file, -url, -serve or -mcp prints usage and exits 2.
	// WHY: The usage path must return through main so deferred cleanup runs.
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), nil, &stdout, &stderr)
	if !errors.Is(err, errUsage) {
		t.Fatalf("err = %v, want errUsage", err)
	}
	if exitCode(err) != 2 {
		t.Errorf("exit code = %d, want 2", exitCode(err))
	}
	if !strings.Contains(stderr.String(), "usage: focusaudit") {
		t.Errorf("stderr = %q", stderr.String())
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty", stdout.String())
	}
}

func TestRun_UnknownFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-nope"}, &stdout, &stderr)
	if exitCode(err) != 2 {
		t.Errorf("err = %v, exit code = %d, want 2", err, exitCode(err))
	}
}

func TestRun_FileReport(t *testing.T) {
	// WHAT: -file prints the report as JSON on stdout; -fail-on-issues maps issues to exit 3.
	// WHY: CI pipelines gate on the exit status and read the report from stdout.
	tests := []struct {
		name     string
		html     string
		fail     bool
		wantCode int
		issues   int
	}{
		{"clean", `<dialog open><input autofocus></dialog>`, true, 0, 0},
		{"issues ignored", `<div role="dialog"><p>text</p></div>`, false, 0, 3},
		{"issues fail", `<div role="dialog"><p>text</p></div>`, true, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, db := writePage(t, tt.html)
			args := []string{"-db", db, "-log-level", "error", "-file", page}
			if tt.fail {
				args = append(args, "-fail-on-issues")
			}

			var stdout, stderr bytes.Buffer
			err := run(context.Background(), args, &stdout, &stderr)
			if got := exitCode(err); got != tt.wantCode {
				t.Fatalf("exit code = %d (err %v), want %d; stderr %s", got, err, tt.wantCode, stderr.String())
			}

			var rep audit.Report
			if err := json.Unmarshal(stdout.Bytes(), &rep); err != nil {
				t.Fatalf("decode report: %v\n%s", err, stdout.String())
			}
			if rep.Source != page || rep.IssueCount != tt.issues {
				t.Errorf("report source %q issues %d, want %q %d", rep.Source, rep.IssueCount, page, tt.issues)
			}
		})
	}
}

func TestRun_MissingFile(t *testing.T) {
	_, db := writePage(t, "")
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-db", db, "-file", filepath.Join(t.TempDir(), "missing.html")}, &stdout, &stderr)
	if exitCode(err) != 1 {
		t.Errorf("err = %v, want exit code 1", err)
	}
}

func TestRun_ServeStopsOnCancel(t *testing.T) {
	_, db := writePage(t, "")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		var stdout, stderr bytes.Buffer
		done <- run(ctx, []string{"-db", db, "-log-level", "error", "-serve", "127.0.0.1:0"}, &stdout, &stderr)
	}()
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{flag.ErrHelp, 0},
		{errUsage, 2},
		{errIssuesFound, 3},
		{errors.New("boom"), 1},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
