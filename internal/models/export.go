package models

import "fmt"

// NotAvailable is the placeholder rendered for missing values.
const NotAvailable = "N/A"

// ScopeKind selects which tenants an export covers.
type ScopeKind int

const (
	// ScopeAllTenants exports every tenant with monthly detail.
	ScopeAllTenants ScopeKind = iota
	// ScopeSingleTenant exports one tenant with monthly detail.
	ScopeSingleTenant
	// ScopeSummaryOnly exports one row per tenant without fetching stats.
	ScopeSummaryOnly
)

// String returns the string representation of the ScopeKind.
func (k ScopeKind) String() string {
	switch k {
	case ScopeAllTenants:
		return "all"
	case ScopeSingleTenant:
		return "tenant"
	case ScopeSummaryOnly:
		return "summary"
	default:
		return "unknown"
	}
}

// Scope describes the tenant selection of an export.
type Scope struct {
	Kind     ScopeKind
	TenantID string
}

// AllTenants returns the default scope.
func AllTenants() Scope { return Scope{Kind: ScopeAllTenants} }

// SingleTenant returns a scope restricted to one tenant id.
func SingleTenant(id string) Scope { return Scope{Kind: ScopeSingleTenant, TenantID: id} }

// SummaryOnly returns the summary scope.
func SummaryOnly() Scope { return Scope{Kind: ScopeSummaryOnly} }

// IsSummary reports whether the scope skips the stats fetch.
func (s Scope) IsSummary() bool { return s.Kind == ScopeSummaryOnly }

// String returns the string representation of the Scope.
func (s Scope) String() string {
	if s.Kind == ScopeSingleTenant {
		return fmt.Sprintf("tenant:%s", s.TenantID)
	}
	return s.Kind.String()
}

// ExportRow is one flattened CSV row. The Vault* and Usage* fields are only
// rendered in detailed mode.
type ExportRow struct {
	TenantDisplayName    string
	TenantID             string
	TenantStatus         string
	TenantRegion         string
	TenantCreatedAt      string
	SubscriptionID       string
	SubscriptionEdition  string
	SubscriptionExpires  string
	TenantStorageRegions string
	VaultDisplayName     string
	VaultStorageName     string
	UsageMonth           string
	SubscriptionLimitTB  float64
	TenantOverallUsageTB *float64
	TenantVaultCount     *float64
	UsageTB              float64
}

// AggregateResult is the joined, scoped and filtered row set of one export.
type AggregateResult struct {
	OrganizationID string
	TenantName     string
	Rows           []ExportRow
	FailedTenants  []string
	TenantCount    int
	TotalTenants   int
	IsSummary      bool
}

// ExportRequest is what a caller supplies to trigger an export.
type ExportRequest struct {
	Scope     Scope
	DateRange DateRange
}

// Outcome classifies a successful export.
type Outcome string

const (
	// OutcomeSuccess means every tenant was exported with its statistics.
	OutcomeSuccess Outcome = "success"
	// OutcomeWarnings means some tenants fell back to placeholder rows.
	OutcomeWarnings Outcome = "success-with-warnings"
	// OutcomeFailed is only recorded in history; Export returns an error instead.
	OutcomeFailed Outcome = "failed"
)

// ExportResult is the product of a successful export.
type ExportResult struct {
	CSV         []byte
	Filename    string
	Warnings    []string
	Rows        []ExportRow
	TenantCount int
	Summary     bool
	Outcome     Outcome
}

// Message returns the user-facing status line for the result.
func (r *ExportResult) Message() string {
	switch {
	case len(r.Warnings) > 0:
		return fmt.Sprintf("Export complete with %d error(s).", len(r.Warnings))
	case r.Summary:
		return fmt.Sprintf("Summary export complete! (%d tenants)", r.TenantCount)
	default:
		return fmt.Sprintf("Export complete! (%d tenants)", r.TenantCount)
	}
}
