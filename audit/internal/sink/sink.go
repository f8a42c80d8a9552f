// Package sink delivers finished focus audit reports to output backends.
package sink

import (
	"context"

	"github.com/hazyhaar/focuskit/audit/internal/store"
)

// Sink is the output interface. Implementations deliver reports to
// different backends (stdout, webhook, in-process callback).
type Sink interface {
	Send(ctx context.Context, rep *store.Report) error
	Close() error
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
