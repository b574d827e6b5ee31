// Package db stores the export history in sqlite.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// sqlite driver
	_ "modernc.org/sqlite"
)

// pragmas are applied to every connection opened by New. foreign_keys only
// affects the connection it runs on, so deletes never rely on cascades.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
}

// schema holds one statement per entry; everything is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS exports (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		environment TEXT NOT NULL DEFAULT 'production',
		scope TEXT NOT NULL,
		date_from TEXT,
		date_to TEXT,
		filename TEXT,
		path TEXT,
		outcome TEXT NOT NULL,
		error TEXT,
		tenant_count INTEGER DEFAULT 0,
		row_count INTEGER DEFAULT 0,
		failed_count INTEGER DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_exports_started_at ON exports(started_at)`,
	`CREATE INDEX IF NOT EXISTS idx_exports_outcome ON exports(outcome)`,
	`CREATE TABLE IF NOT EXISTS export_failures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		export_id TEXT NOT NULL REFERENCES exports(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		tenant_name TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_export_failures_export ON export_failures(export_id)`,
}

// DB is the export history store.
type DB struct {
	*sql.DB
	path string
}

// New opens the history database at path, creating its directory and
// schema when missing.
func New(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps the pragmas in effect for every query.
	sqlDB.SetMaxOpenConns(1)

	db := &DB{DB: sqlDB, path: path}
	if err := db.init(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) init(ctx context.Context) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return db.FixLegacyTimeFormats()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Close checkpoints the WAL and closes the database.
func (db *DB) Close() error {
	_, _ = db.ExecContext(context.Background(), "PRAGMA wal_checkpoint(TRUNCATE)")
	return db.DB.Close()
}

// Vacuum reclaims the space left by pruned exports.
func (db *DB) Vacuum() error {
	_, err := db.ExecContext(context.Background(), "VACUUM")
	return err
}
