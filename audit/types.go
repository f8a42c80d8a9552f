package audit

import (
	"github.com/hazyhaar/focuskit/audit/internal/config"
	"github.com/hazyhaar/focuskit/audit/internal/store"
	"github.com/hazyhaar/focuskit/internal/observability"
)

// Re-exported types from internal packages for use by cmd/ and external callers.
type (
	Config      = config.Config
	Report      = store.Report
	Dialog      = store.Dialog
	Issue       = store.Issue
	Summary     = store.Summary
	ListOptions = store.ListOptions
	CallEntry   = observability.CallEntry
	CallFilter  = observability.CallFilter
	Metric      = observability.Metric
)

const (
	IssueNoFocusableContent    = store.IssueNoFocusableContent
	IssueAutofocusNotFocusable = store.IssueAutofocusNotFocusable
	IssueContainerNotFocusable = store.IssueContainerNotFocusable
	IssueFocusNotMoved         = store.IssueFocusNotMoved
)

// Audit modes.
const (
	ModeStatic = "static"
	ModeLive   = "live"
)

// ErrNotFound is returned for unknown report ids.
var ErrNotFound = store.ErrNotFound

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config { return config.Default() }

// LoadConfig reads a YAML config file and applies defaults.
func LoadConfig(path string) (*Config, error) { return config.LoadFile(path) }
