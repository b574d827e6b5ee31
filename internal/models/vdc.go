// Package models defines data structures and domain types.
package models

// Organization is the root scope returned by the identity endpoint.
type Organization struct {
	OrganizationID string `json:"organizationId"`
}

// Product describes the purchased edition of a subscription.
type Product struct {
	Edition string `json:"edition"`
}

// Subscription is a billing record capped by a storage limit in TB.
type Subscription struct {
	ID             string  `json:"id"`
	Product        Product `json:"product"`
	ExpirationDate string  `json:"expirationDate"`
	Count          float64 `json:"count"`
}

// WorkloadTenant is a customer-level storage account under an organization.
// Metadata holds a JSON document encoded as a string.
type WorkloadTenant struct {
	ID             string `json:"id"`
	DisplayName    string `json:"displayName"`
	Status         string `json:"status"`
	Region         string `json:"region"`
	CreatedAt      string `json:"createdAt"`
	SubscriptionID string `json:"subscriptionId"`
	Metadata       string `json:"metadata"`
}

// TenantMetadata is the decoded form of WorkloadTenant.Metadata. A number the
// document leaves out or sets to null stays nil and renders as an empty field.
type TenantMetadata struct {
	TenantUsage   *float64 `json:"tenantUsage"`
	StorageAmount *float64 `json:"storageAmount"`
	StorageRegion string   `json:"storageRegion"`
}

// DefaultTenantMetadata returns the values used when metadata is missing or
// cannot be decoded.
func DefaultTenantMetadata() TenantMetadata {
	return TenantMetadata{
		TenantUsage:   Number(0),
		StorageAmount: Number(0),
		StorageRegion: NotAvailable,
	}
}

// Number returns a pointer to v, for optional numeric fields.
func Number(v float64) *float64 {
	return &v
}

// MonthlyUsage is one month of storage usage. Date is formatted "M/YYYY".
type MonthlyUsage struct {
	Date         string  `json:"date"`
	StorageUsage float64 `json:"storageUsage"`
}

// StorageUnit is a named vault belonging to a tenant.
type StorageUnit struct {
	DisplayName string         `json:"displayName"`
	StorageName string         `json:"storageName"`
	StorageData []MonthlyUsage `json:"storageData"`
}

// StorageStatEntry pairs a tenant with its fetched storage units.
// StatsData is empty when the fetch failed.
type StorageStatEntry struct {
	TenantID   string
	TenantName string
	StatsData  []StorageUnit
	Failed     bool
}
