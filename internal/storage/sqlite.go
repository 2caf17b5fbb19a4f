// Package storage archives crawl outcomes and alerts to SQLite. The
// archive is write-mostly: the scheduler and the monitor keep their own
// in-memory state and call into this package best-effort after each
// run or alert.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avelane/seowatch/internal/monitoring"
	"github.com/avelane/seowatch/internal/scheduler"

	// SQLite database driver (CGO-free)
	_ "modernc.org/sqlite"
)

// SQLiteArchive persists outcomes and alerts to a SQLite file.
type SQLiteArchive struct {
	db *sql.DB
}

// NewSQLiteArchive opens or creates the archive at dbPath.
func NewSQLiteArchive(dbPath string) (*SQLiteArchive, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection prevents lock conflicts between the scheduler
	// and the monitor writing concurrently.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	archive := &SQLiteArchive{db: db}
	if err := archive.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return archive, nil
}

func (a *SQLiteArchive) initSchema() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 30000", // 30 second timeout for locks
	}
	for _, pragma := range pragmas {
		if _, err := a.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
		}
	}

	if _, err := a.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}

// SaveOutcome appends one scheduler run to the archive.
func (a *SQLiteArchive) SaveOutcome(outcome scheduler.CrawlOutcome) error {
	var errorsJSON any
	if len(outcome.Errors) > 0 {
		data, err := json.Marshal(outcome.Errors)
		if err != nil {
			return fmt.Errorf("failed to encode errors: %w", err)
		}
		errorsJSON = string(data)
	}

	var score any
	if outcome.SEOScore != nil {
		score = *outcome.SEOScore
	}

	_, err := a.db.Exec(`
		INSERT INTO crawl_outcomes (page_id, success, duration_ms, seo_score, errors, run_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		outcome.PageID, outcome.Success, outcome.Duration.Milliseconds(),
		score, errorsJSON, outcome.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("failed to save outcome: %w", err)
	}
	return nil
}

// SaveAlert appends one alert to the archive.
func (a *SQLiteArchive) SaveAlert(alert monitoring.Alert) error {
	var detailsJSON any
	if len(alert.Details) > 0 {
		data, err := json.Marshal(alert.Details)
		if err != nil {
			return fmt.Errorf("failed to encode details: %w", err)
		}
		detailsJSON = string(data)
	}

	_, err := a.db.Exec(`
		INSERT INTO alerts (id, alert_type, severity, message, details, raised_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		alert.ID, string(alert.Type), string(alert.Severity),
		alert.Message, detailsJSON, alert.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}
	return nil
}

// RecentOutcomes returns up to limit archived runs, newest first.
func (a *SQLiteArchive) RecentOutcomes(limit int) ([]scheduler.CrawlOutcome, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := a.db.Query(`
		SELECT page_id, success, duration_ms, seo_score, errors, run_at
		FROM crawl_outcomes
		ORDER BY run_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []scheduler.CrawlOutcome
	for rows.Next() {
		var o scheduler.CrawlOutcome
		var durationMs int64
		var score sql.NullFloat64
		var errorsJSON sql.NullString

		if err := rows.Scan(&o.PageID, &o.Success, &durationMs, &score, &errorsJSON, &o.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		o.Duration = time.Duration(durationMs) * time.Millisecond
		if score.Valid {
			v := score.Float64
			o.SEOScore = &v
		}
		if errorsJSON.Valid && errorsJSON.String != "" {
			if err := json.Unmarshal([]byte(errorsJSON.String), &o.Errors); err != nil {
				return nil, fmt.Errorf("failed to decode errors: %w", err)
			}
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// RecentAlerts returns up to limit archived alerts, newest first.
func (a *SQLiteArchive) RecentAlerts(limit int) ([]monitoring.Alert, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := a.db.Query(`
		SELECT id, alert_type, severity, message, details, raised_at
		FROM alerts
		ORDER BY raised_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []monitoring.Alert
	for rows.Next() {
		var alert monitoring.Alert
		var alertType, severity string
		var detailsJSON sql.NullString

		if err := rows.Scan(&alert.ID, &alertType, &severity, &alert.Message, &detailsJSON, &alert.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alert.Type = monitoring.AlertType(alertType)
		alert.Severity = monitoring.Severity(severity)
		if detailsJSON.Valid && detailsJSON.String != "" {
			if err := json.Unmarshal([]byte(detailsJSON.String), &alert.Details); err != nil {
				return nil, fmt.Errorf("failed to decode details: %w", err)
			}
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}
