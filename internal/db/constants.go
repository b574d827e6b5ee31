package db

const (
	// timeLayout is how timestamps are written so that ORDER BY and
	// SQLite's date functions agree.
	timeLayout = "2006-01-02 15:04:05"

	// DefaultHistoryLimit is how many exports GetRecentExports returns when
	// asked for a non-positive limit.
	DefaultHistoryLimit = 20
)
