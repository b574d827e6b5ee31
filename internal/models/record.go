package models

import "time"

// ExportRecord is one export invocation stored in the history database.
type ExportRecord struct {
	StartedAt     time.Time
	FinishedAt    time.Time
	ID            string
	Environment   string
	Scope         string
	DateFrom      string
	DateTo        string
	Filename      string
	Path          string
	Outcome       Outcome
	Error         string
	FailedTenants []string
	TenantCount   int
	RowCount      int
}

// Duration returns how long the export ran.
func (r ExportRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// OutputFile is a CSV file found in the output directory.
type OutputFile struct {
	ModTime time.Time
	Name    string
	Path    string
	Size    int64
}

// MonthlyTotal is the summed usage of one month across all detailed rows.
type MonthlyTotal struct {
	Month   string
	UsageTB string
	Value   float64
}
