package observability

import (
	"database/sql"
	"fmt"
)

// Schema holds the DDL for the endpoint call log and the metrics
// timeseries. It lives next to the report tables in the auditor database.
const Schema = `
CREATE TABLE IF NOT EXISTS endpoint_calls (
    entry_id TEXT PRIMARY KEY,
    timestamp INTEGER NOT NULL,
    endpoint TEXT NOT NULL,
    transport TEXT NOT NULL,
    request_id TEXT,
    duration_ms INTEGER NOT NULL,
    status TEXT NOT NULL,
    error_message TEXT
);
CREATE INDEX IF NOT EXISTS idx_calls_timestamp ON endpoint_calls(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_calls_endpoint ON endpoint_calls(endpoint, timestamp DESC);

CREATE TABLE IF NOT EXISTS metrics_timeseries (
    metric_id TEXT PRIMARY KEY DEFAULT ('met_' || hex(randomblob(16))),
    metric_name TEXT NOT NULL,
    timestamp INTEGER NOT NULL,
    value REAL NOT NULL,
    labels TEXT,
    unit TEXT
);
CREATE INDEX IF NOT EXISTS idx_metrics_name_time
    ON metrics_timeseries(metric_name, timestamp DESC);
`

// Init applies Schema to db.
func Init(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("observability: init schema: %w", err)
	}
	return nil
}
