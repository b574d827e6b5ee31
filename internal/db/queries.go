package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/vault-usage-export/internal/models"
)

// ErrExportNotFound is returned by GetExport for an unknown id.
var ErrExportNotFound = errors.New("export not found")

// InsertExport records one export together with the names of the tenants
// whose statistics failed. An empty ID is filled with a new UUID.
func (db *DB) InsertExport(rec *models.ExportRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin export insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO exports (
			id, started_at, finished_at, environment, scope, date_from, date_to,
			filename, path, outcome, error, tenant_count, row_count, failed_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		rec.ID,
		formatTime(rec.StartedAt),
		nullTime(rec.FinishedAt),
		rec.Environment,
		rec.Scope,
		nullString(rec.DateFrom),
		nullString(rec.DateTo),
		nullString(rec.Filename),
		nullString(rec.Path),
		string(rec.Outcome),
		nullString(rec.Error),
		rec.TenantCount,
		rec.RowCount,
		len(rec.FailedTenants),
	)
	if err != nil {
		return fmt.Errorf("failed to insert export: %w", err)
	}

	for i, name := range rec.FailedTenants {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO export_failures (export_id, position, tenant_name) VALUES (?, ?, ?)",
			rec.ID, i, name,
		)
		if err != nil {
			return fmt.Errorf("failed to insert export failure: %w", err)
		}
	}

	return tx.Commit()
}

// GetRecentExports returns the most recent exports, newest first, with their
// failed tenants attached.
func (db *DB) GetRecentExports(limit int) ([]models.ExportRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := `
		SELECT id, started_at, finished_at, environment, scope, date_from, date_to,
			   filename, path, outcome, error, tenant_count, row_count
		FROM exports
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(context.Background(), query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent exports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []models.ExportRecord
	for rows.Next() {
		rec, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range records {
		failed, err := db.GetExportFailures(records[i].ID)
		if err != nil {
			return nil, err
		}
		records[i].FailedTenants = failed
	}

	return records, nil
}

// GetExport returns a single export by id.
func (db *DB) GetExport(id string) (*models.ExportRecord, error) {
	query := `
		SELECT id, started_at, finished_at, environment, scope, date_from, date_to,
			   filename, path, outcome, error, tenant_count, row_count
		FROM exports
		WHERE id = ?
	`

	rec, err := scanExport(db.QueryRowContext(context.Background(), query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExportNotFound
	}
	if err != nil {
		return nil, err
	}

	rec.FailedTenants, err = db.GetExportFailures(id)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetExportFailures returns the failed tenant names of one export in the
// order they were reported.
func (db *DB) GetExportFailures(exportID string) ([]string, error) {
	rows, err := db.QueryContext(context.Background(),
		"SELECT tenant_name FROM export_failures WHERE export_id = ? ORDER BY position",
		exportID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query export failures: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan export failure: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// CountExports returns how many exports of each outcome are stored.
func (db *DB) CountExports() (map[models.Outcome]int, error) {
	rows, err := db.QueryContext(context.Background(), "SELECT outcome, COUNT(*) FROM exports GROUP BY outcome")
	if err != nil {
		return nil, fmt.Errorf("failed to count exports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[models.Outcome]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("failed to scan export count: %w", err)
		}
		counts[models.Outcome(outcome)] = n
	}
	return counts, rows.Err()
}

// DeleteExportsOlderThan removes exports started more than days ago along
// with their failure rows.
func (db *DB) DeleteExportsOlderThan(days int) (int64, error) {
	cutoff := formatTime(time.Now().AddDate(0, 0, -days))

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin cleanup: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Pragmas are per connection, so foreign-key cascades are not relied on.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM export_failures
		WHERE export_id IN (SELECT id FROM exports WHERE started_at < ?)`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old export failures: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM exports WHERE started_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old exports: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return deleted, tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExport(row rowScanner) (*models.ExportRecord, error) {
	var rec models.ExportRecord
	var started, outcome string
	var finished, dateFrom, dateTo, filename, path, errStr sql.NullString

	err := row.Scan(
		&rec.ID,
		&started,
		&finished,
		&rec.Environment,
		&rec.Scope,
		&dateFrom,
		&dateTo,
		&filename,
		&path,
		&outcome,
		&errStr,
		&rec.TenantCount,
		&rec.RowCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan export: %w", err)
	}

	rec.StartedAt, _ = parseTime(started)
	if finished.Valid {
		rec.FinishedAt, _ = parseTime(finished.String)
	}
	rec.DateFrom = dateFrom.String
	rec.DateTo = dateTo.String
	rec.Filename = filename.String
	rec.Path = path.String
	rec.Outcome = models.Outcome(outcome)
	rec.Error = errStr.String
	return &rec, nil
}

// formatTime stores t as UTC text.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime reads a stored timestamp back into local time.
func parseTime(s string) (time.Time, bool) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.Local(), true
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}

// nullString returns a sql.NullString from a string.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
