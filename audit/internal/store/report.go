// CLAUDE:SUMMARY Report types and CRUD for focus_reports/focus_issues: insert in one transaction, get by id, list, per-issue stats, delete.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Issue names a focus problem found in a dialog.
type Issue string

const (
	IssueNoFocusableContent    Issue = "no-focusable-content"
	IssueAutofocusNotFocusable Issue = "autofocus-not-focusable"
	IssueContainerNotFocusable Issue = "container-not-focusable"
	IssueFocusNotMoved         Issue = "focus-not-moved"
)

// Dialog is the audit result of one dialog container. Element fields hold
// composed-tree paths; empty means none.
type Dialog struct {
	Path         string  `json:"path"`
	Tag          string  `json:"tag"`
	Role         string  `json:"role,omitempty"`
	Label        string  `json:"label,omitempty"`
	First        string  `json:"first,omitempty"`
	Last         string  `json:"last,omitempty"`
	Autofocus    string  `json:"autofocus,omitempty"`
	InitialFocus string  `json:"initial_focus"`
	ActiveAfter  string  `json:"active_after,omitempty"`
	Issues       []Issue `json:"issues"`
}

// Report is the audit of one document.
type Report struct {
	ID         string   `json:"id"`
	Source     string   `json:"source"`
	Mode       string   `json:"mode"` // "static" | "live"
	Transport  string   `json:"transport,omitempty"`
	ShellPage  bool     `json:"shell_page,omitempty"`
	Dialogs    []Dialog `json:"dialogs"`
	IssueCount int      `json:"issue_count"`
	CreatedAt  int64    `json:"created_at"`
}

// Summary is a report row without its dialogs.
type Summary struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	Mode        string `json:"mode"`
	DialogCount int    `json:"dialog_count"`
	IssueCount  int    `json:"issue_count"`
	CreatedAt   int64  `json:"created_at"`
}

// ListOptions filters ListReports.
type ListOptions struct {
	Source     string
	IssuesOnly bool
	Limit      int
}

// InsertReport stores r and its flattened issues in one transaction.
func (s *Store) InsertReport(ctx context.Context, r *Report) error {
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().UnixMilli()
	}
	dialogs, err := json.Marshal(r.Dialogs)
	if err != nil {
		return fmt.Errorf("store: marshal dialogs: %w", err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO focus_reports
			(id, source, mode, transport, shell_page, dialog_count, issue_count, dialogs, created_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		r.ID, r.Source, r.Mode, r.Transport, boolInt(r.ShellPage),
		len(r.Dialogs), r.IssueCount, string(dialogs), r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: insert report: %w", err)
	}

	for _, d := range r.Dialogs {
		for _, issue := range d.Issues {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO focus_issues (report_id, dialog_path, issue) VALUES (?,?,?)`,
				r.ID, d.Path, string(issue),
			); err != nil {
				return fmt.Errorf("store: insert issue: %w", err)
			}
		}
	}
	return tx.Commit()
}

// GetReport retrieves a report by id.
func (s *Store) GetReport(ctx context.Context, id string) (*Report, error) {
	r := &Report{}
	var dialogs string
	var shell int

	err := s.DB.QueryRowContext(ctx, `
		SELECT id, source, mode, transport, shell_page, issue_count, dialogs, created_at
		FROM focus_reports WHERE id = ?`, id).Scan(
		&r.ID, &r.Source, &r.Mode, &r.Transport, &shell, &r.IssueCount, &dialogs, &r.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get report: %w", err)
	}

	r.ShellPage = shell != 0
	if err := json.Unmarshal([]byte(dialogs), &r.Dialogs); err != nil {
		return nil, fmt.Errorf("store: decode dialogs: %w", err)
	}
	return r, nil
}

// ListReports returns report summaries, newest first. Default limit: 50.
func (s *Store) ListReports(ctx context.Context, opts ListOptions) ([]Summary, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}

	query := `SELECT id, source, mode, dialog_count, issue_count, created_at FROM focus_reports WHERE 1=1`
	var args []any
	if opts.Source != "" {
		query += ` AND source = ?`
		args = append(args, opts.Source)
	}
	if opts.IssuesOnly {
		query += ` AND issue_count > 0`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, opts.Limit)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list reports: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.ID, &sm.Source, &sm.Mode, &sm.DialogCount, &sm.IssueCount, &sm.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan report: %w", err)
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

// IssueStats counts stored issues by kind.
func (s *Store) IssueStats(ctx context.Context) (map[Issue]int, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT issue, COUNT(*) FROM focus_issues GROUP BY issue`)
	if err != nil {
		return nil, fmt.Errorf("store: issue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Issue]int)
	for rows.Next() {
		var issue string
		var n int
		if err := rows.Scan(&issue, &n); err != nil {
			return nil, fmt.Errorf("store: scan stats: %w", err)
		}
		stats[Issue(issue)] = n
	}
	return stats, rows.Err()
}

// DeleteReport removes a report and its issues.
func (s *Store) DeleteReport(ctx context.Context, id string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	// foreign_keys is per connection; do not rely on the cascade.
	if _, err := tx.ExecContext(ctx, `DELETE FROM focus_issues WHERE report_id = ?`, id); err != nil {
		return fmt.Errorf("store: delete issues: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM focus_reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete report: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
