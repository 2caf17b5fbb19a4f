package storage

const schemaSQL = `
-- Append-only archive of scheduler runs. The in-memory history is the
-- source of truth; this table survives restarts for offline analysis.
CREATE TABLE IF NOT EXISTS crawl_outcomes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    page_id TEXT NOT NULL,
    success INTEGER NOT NULL CHECK (success IN (0, 1)),
    duration_ms INTEGER NOT NULL,
    seo_score REAL,
    errors TEXT,
    run_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_outcomes_page ON crawl_outcomes(page_id, run_at);
CREATE INDEX IF NOT EXISTS idx_outcomes_run_at ON crawl_outcomes(run_at);

-- Append-only archive of raised alerts.
CREATE TABLE IF NOT EXISTS alerts (
    id TEXT PRIMARY KEY,
    alert_type TEXT NOT NULL,
    severity TEXT NOT NULL,
    message TEXT NOT NULL,
    details TEXT,
    raised_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_alerts_raised_at ON alerts(raised_at);
CREATE INDEX IF NOT EXISTS idx_alerts_type ON alerts(alert_type, raised_at);
`
