package db

import (
	"context"
	"fmt"
)

// FixLegacyTimeFormats rewrites timestamps stored with a zone suffix
// ("2006-01-02 15:04:05 +0000 UTC") into the plain layout SQLite's date
// functions understand. modernc.org/sqlite stores time.Time values that way
// when they are bound directly instead of formatted.
func (db *DB) FixLegacyTimeFormats() error {
	queries := []string{
		`UPDATE exports
		 SET started_at = SUBSTR(started_at, 1, 19)
		 WHERE length(started_at) > 19 AND started_at LIKE '% UTC'`,

		`UPDATE exports
		 SET finished_at = SUBSTR(finished_at, 1, 19)
		 WHERE length(finished_at) > 19 AND finished_at LIKE '% UTC'`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(context.Background(), query); err != nil {
			return fmt.Errorf("failed to fix legacy time formats: %w", err)
		}
	}

	return nil
}
