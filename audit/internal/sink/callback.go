package sink

import (
	"context"

	"github.com/hazyhaar/focuskit/audit/internal/store"
)

// ReportFunc receives each report in-process.
type ReportFunc func(ctx context.Context, rep *store.Report) error

// Callback delivers reports through a Go function call, without
// serialisation. Embedders use it to react to audits in the same binary.
type Callback struct {
	fn ReportFunc
}

// NewCallback creates a Callback sink. fn may be nil.
func NewCallback(fn ReportFunc) *Callback {
	return &Callback{fn: fn}
}

func (c *Callback) Send(ctx context.Context, rep *store.Report) error {
	if c.fn != nil {
		return c.fn(ctx, rep)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
