// CLAUDE:SUMMARY SQLite call log for endpoint invocations (endpoint, transport, request id, duration, status) and the kit middleware feeding it.
package observability

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/focuskit/internal/idgen"
	"github.com/hazyhaar/focuskit/internal/kit"
)

// Call statuses.
const (
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusCancelled = "cancelled"
	StatusTimeout   = "timeout"
)

// CallEntry is one endpoint invocation.
type CallEntry struct {
	EntryID      string    `json:"entry_id"`
	Timestamp    time.Time `json:"timestamp"`
	Endpoint     string    `json:"endpoint"`
	Transport    string    `json:"transport"`
	RequestID    string    `json:"request_id,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error,omitempty"`
}

// CallFilter narrows Query results.
type CallFilter struct {
	Endpoint string
	Status   string
	Limit    int // default 100
}

// CallLog persists endpoint calls.
type CallLog struct {
	db     *sql.DB
	newID  idgen.Generator
	logger *slog.Logger
}

// CallLogOption configures a CallLog.
type CallLogOption func(*CallLog)

// WithCallIDGenerator sets the entry id generator.
func WithCallIDGenerator(g idgen.Generator) CallLogOption {
	return func(c *CallLog) { c.newID = g }
}

// WithCallLogger sets a custom logger.
func WithCallLogger(l *slog.Logger) CallLogOption {
	return func(c *CallLog) { c.logger = l }
}

// NewCallLog returns a CallLog writing to db. Init must have run on db.
func NewCallLog(db *sql.DB, opts ...CallLogOption) *CallLog {
	c := &CallLog{
		db:     db,
		newID:  idgen.UUIDv7(),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Log inserts e, filling the id and timestamp when unset.
func (c *CallLog) Log(ctx context.Context, e *CallEntry) error {
	if e.EntryID == "" {
		e.EntryID = c.newID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	_, err := c.db.ExecContext(ctx, `INSERT INTO endpoint_calls
		(entry_id, timestamp, endpoint, transport, request_id, duration_ms, status, error_message)
		VALUES (?,?,?,?,?,?,?,?)`,
		e.EntryID, e.Timestamp.UnixMilli(), e.Endpoint, e.Transport,
		e.RequestID, e.DurationMs, e.Status, e.ErrorMessage)
	if err != nil {
		return fmt.Errorf("observability: log call: %w", err)
	}
	return nil
}

// Query returns calls matching f, newest first.
func (c *CallLog) Query(ctx context.Context, f CallFilter) ([]CallEntry, error) {
	q := `SELECT entry_id, timestamp, endpoint, transport, request_id,
		duration_ms, status, error_message
		FROM endpoint_calls WHERE 1=1`
	var args []any
	if f.Endpoint != "" {
		q += " AND endpoint = ?"
		args = append(args, f.Endpoint)
	}
	if f.Status != "" {
		q += " AND status = ?"
		args = append(args, f.Status)
	}
	limit := 100
	if f.Limit > 0 {
		limit = f.Limit
	}
	q += " ORDER BY timestamp DESC, entry_id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("observability: query calls: %w", err)
	}
	defer rows.Close()

	out := []CallEntry{}
	for rows.Next() {
		var e CallEntry
		var ts int64
		var requestID, errMsg sql.NullString
		if err := rows.Scan(&e.EntryID, &ts, &e.Endpoint, &e.Transport,
			&requestID, &e.DurationMs, &e.Status, &errMsg); err != nil {
			return nil, fmt.Errorf("observability: scan call: %w", err)
		}
		e.Timestamp = time.UnixMilli(ts)
		e.RequestID = requestID.String
		e.ErrorMessage = errMsg.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// Record returns a middleware that logs every call of the wrapped endpoint
// under name. A failed insert is logged and never fails the call.
func Record(c *CallLog, name string) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			e := &CallEntry{
				Timestamp:  start,
				Endpoint:   name,
				Transport:  kit.GetTransport(ctx),
				RequestID:  kit.GetRequestID(ctx),
				DurationMs: time.Since(start).Milliseconds(),
				Status:     statusOf(err),
			}
			if err != nil {
				e.ErrorMessage = err.Error()
			}
			// The request context may be done already; the entry still goes in.
			if lerr := c.Log(context.WithoutCancel(ctx), e); lerr != nil {
				c.logger.Warn("observability: record call", "endpoint", name, "error", lerr)
			}
			return resp, err
		}
	}
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, context.Canceled):
		return StatusCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	default:
		return StatusError
	}
}
