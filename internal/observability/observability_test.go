package observability

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/focuskit/internal/dbopen"
	"github.com/hazyhaar/focuskit/internal/kit"
)

func setupObsDB(t *testing.T) *sql.DB {
	t.Helper()
	return dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
}

func TestInit_CreatesTables(t *testing.T) {
	db := setupObsDB(t)
	if err := Init(db); err != nil {
		t.Fatalf("init twice: %v", err)
	}
	for _, table := range []string{"endpoint_calls", "metrics_timeseries"} {
		var count int
		db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if count != 1 {
			t.Fatalf("table %s not found", table)
		}
	}
}

// --- CallLog ---

func TestCallLog_LogAndQuery(t *testing.T) {
	db := setupObsDB(t)
	n := 0
	cl := NewCallLog(db, WithCallIDGenerator(func() string { n++; return fmt.Sprintf("c%02d", n) }))
	ctx := context.Background()

	base := time.UnixMilli(1_700_000_000_000)
	entries := []*CallEntry{
		{Timestamp: base, Endpoint: "audit_html", Transport: "http", RequestID: "r1", DurationMs: 12, Status: StatusSuccess},
		{Timestamp: base.Add(time.Second), Endpoint: "audit_url", Transport: "mcp", DurationMs: 3, Status: StatusError, ErrorMessage: "invalid request"},
		{Timestamp: base.Add(2 * time.Second), Endpoint: "audit_html", Transport: "cli", DurationMs: 7, Status: StatusSuccess},
	}
	for _, e := range entries {
		if err := cl.Log(ctx, e); err != nil {
			t.Fatalf("log: %v", err)
		}
	}

	all, err := cl.Query(ctx, CallFilter{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 || all[0].EntryID != "c03" || all[2].EntryID != "c01" {
		t.Fatalf("all = %+v, want newest first", all)
	}
	if all[2].RequestID != "r1" || !all[2].Timestamp.Equal(base) {
		t.Errorf("first entry = %+v", all[2])
	}

	html, _ := cl.Query(ctx, CallFilter{Endpoint: "audit_html", Limit: 1})
	if len(html) != 1 || html[0].Transport != "cli" {
		t.Errorf("audit_html limit 1 = %+v", html)
	}

	failed, _ := cl.Query(ctx, CallFilter{Status: StatusError})
	if len(failed) != 1 || failed[0].ErrorMessage != "invalid request" {
		t.Errorf("failed = %+v", failed)
	}
}

func TestRecord_Middleware(t *testing.T) {
	db := setupObsDB(t)
	cl := NewCallLog(db)

	ok := Record(cl, "echo")(func(_ context.Context, req any) (any, error) { return req, nil })
	boom := errors.New("boom")
	bad := Record(cl, "fail")(func(context.Context, any) (any, error) { return nil, boom })
	slow := Record(cl, "slow")(func(ctx context.Context, _ any) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	ctx := kit.WithRequestID(kit.WithTransport(context.Background(), "http"), "req-1")
	if resp, err := ok(ctx, "hi"); err != nil || resp != "hi" {
		t.Fatalf("echo = %v, %v", resp, err)
	}
	if _, err := bad(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("fail err = %v, want boom", err)
	}
	cctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := slow(cctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("slow err = %v", err)
	}

	tests := []struct {
		endpoint  string
		transport string
		requestID string
		status    string
		errMsg    string
	}{
		{"echo", "http", "req-1", StatusSuccess, ""},
		{"fail", "cli", "", StatusError, "boom"},
		{"slow", "cli", "", StatusCancelled, "context canceled"},
	}
	for _, tt := range tests {
		got, err := cl.Query(context.Background(), CallFilter{Endpoint: tt.endpoint})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("%s: %d entries, want 1", tt.endpoint, len(got))
		}
		e := got[0]
		if e.Transport != tt.transport || e.RequestID != tt.requestID || e.Status != tt.status || e.ErrorMessage != tt.errMsg {
			t.Errorf("%s: entry = %+v", tt.endpoint, e)
		}
	}
}

func TestRecord_LogFailureDoesNotFailCall(t *testing.T) {
	db := setupObsDB(t)
	var buf bytes.Buffer
	cl := NewCallLog(db, WithCallLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	if _, err := db.Exec("DROP TABLE endpoint_calls"); err != nil {
		t.Fatal(err)
	}

	ep := Record(cl, "echo")(func(_ context.Context, req any) (any, error) { return req, nil })
	if resp, err := ep(context.Background(), 1); err != nil || resp != 1 {
		t.Fatalf("echo = %v, %v", resp, err)
	}
	if !strings.Contains(buf.String(), "observability: record call") {
		t.Errorf("log = %q", buf.String())
	}
}

// --- MetricsManager ---

func TestMetricsManager_RecordAndQuery(t *testing.T) {
	db := setupObsDB(t)
	mm := NewMetricsManager(db, 100, time.Hour, nil)

	mm.Record(&Metric{
		Name:   MetricAuditDurationMs,
		Value:  42.5,
		Unit:   "milliseconds",
		Labels: map[string]string{"mode": "static"},
	})
	mm.Record(&Metric{Name: MetricAuditIssues, Value: 3, Unit: "count"})

	got, err := mm.Query(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d metrics before flush", len(got))
	}

	mm.Flush()
	got, err = mm.Query(context.Background(), MetricAuditDurationMs, 10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d metrics, want 1", len(got))
	}
	if got[0].Value != 42.5 || got[0].Unit != "milliseconds" || got[0].Labels["mode"] != "static" {
		t.Errorf("metric = %+v", got[0])
	}

	mm.Close()
	mm.Close()
}

func TestMetricsManager_FlushOnFullBuffer(t *testing.T) {
	db := setupObsDB(t)
	mm := NewMetricsManager(db, 2, time.Hour, nil)
	defer mm.Close()

	mm.Record(&Metric{Name: "n", Value: 1})
	mm.Record(&Metric{Name: "n", Value: 2})

	got, err := mm.Query(context.Background(), "n", 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d metrics, want 2 after a full buffer", len(got))
	}
}

func TestMetricsManager_CloseFlushes(t *testing.T) {
	db := setupObsDB(t)
	mm := NewMetricsManager(db, 100, time.Hour, nil)
	mm.Record(&Metric{Name: "n", Value: 1})
	mm.Close()

	var count int
	db.QueryRow("SELECT COUNT(*) FROM metrics_timeseries").Scan(&count)
	if count != 1 {
		t.Errorf("count = %d, want 1 after Close", count)
	}
}
