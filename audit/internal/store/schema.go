package store

// Schema contains the DDL for the report tables.
const Schema = `
-- One row per audited document
CREATE TABLE IF NOT EXISTS focus_reports (
    id           TEXT PRIMARY KEY,
    source       TEXT NOT NULL,
    mode         TEXT NOT NULL,
    transport    TEXT NOT NULL DEFAULT '',
    shell_page   INTEGER NOT NULL DEFAULT 0,
    dialog_count INTEGER NOT NULL DEFAULT 0,
    issue_count  INTEGER NOT NULL DEFAULT 0,
    dialogs      TEXT NOT NULL DEFAULT '[]',
    created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_focus_reports_source ON focus_reports(source, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_focus_reports_created ON focus_reports(created_at DESC);

-- Flattened issues, for per-kind statistics
CREATE TABLE IF NOT EXISTS focus_issues (
    report_id   TEXT NOT NULL,
    dialog_path TEXT NOT NULL,
    issue       TEXT NOT NULL,
    FOREIGN KEY (report_id) REFERENCES focus_reports(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_focus_issues_report ON focus_issues(report_id);
CREATE INDEX IF NOT EXISTS idx_focus_issues_kind ON focus_issues(issue);
`
