package aggregate

import (
	"encoding/json"

	"github.com/j-veylop/vault-usage-export/internal/models"
)

// DecodeMetadata decodes a tenant's JSON-encoded metadata string. An absent
// or null document yields the defaults. A decoded document replaces them
// entirely, so fields it leaves out or sets to null render empty. On error
// the defaults are returned together with the error.
func DecodeMetadata(tenantID, raw string) (models.TenantMetadata, error) {
	if raw == "" || raw == "null" {
		return models.DefaultTenantMetadata(), nil
	}
	var md models.TenantMetadata
	if err := json.Unmarshal([]byte(raw), &md); err != nil {
		return models.DefaultTenantMetadata(), &MetadataDecodeError{TenantID: tenantID, Err: err}
	}
	return md, nil
}

// tenantRow fills the twelve tenant/subscription columns shared by both
// export shapes.
func tenantRow(t models.WorkloadTenant, sub *models.Subscription, md models.TenantMetadata) models.ExportRow {
	row := models.ExportRow{
		TenantDisplayName:    t.DisplayName,
		TenantID:             t.ID,
		TenantStatus:         t.Status,
		TenantRegion:         t.Region,
		TenantCreatedAt:      t.CreatedAt,
		SubscriptionID:       t.SubscriptionID,
		SubscriptionEdition:  models.NotAvailable,
		SubscriptionExpires:  models.NotAvailable,
		TenantOverallUsageTB: md.TenantUsage,
		TenantVaultCount:     md.StorageAmount,
		TenantStorageRegions: md.StorageRegion,
	}

	if sub != nil {
		if sub.Product.Edition != "" {
			row.SubscriptionEdition = sub.Product.Edition
		}
		if sub.ExpirationDate != "" {
			row.SubscriptionExpires = sub.ExpirationDate
		}
		row.SubscriptionLimitTB = sub.Count
	}

	return row
}

// detailRows expands one tenant into a row per storage unit and month that
// passes the date range. A tenant without statistics yields one placeholder.
func detailRows(base models.ExportRow, units []models.StorageUnit, dr models.DateRange) []models.ExportRow {
	if len(units) == 0 {
		base.VaultDisplayName = models.NotAvailable
		base.VaultStorageName = models.NotAvailable
		base.UsageMonth = models.NotAvailable
		base.UsageTB = 0
		return []models.ExportRow{base}
	}

	filter := dr.Enabled()
	var rows []models.ExportRow
	for _, unit := range units {
		for _, month := range unit.StorageData {
			if filter && !dr.Contains(month.Date) {
				continue
			}
			row := base
			row.VaultDisplayName = unit.DisplayName
			row.VaultStorageName = unit.StorageName
			row.UsageMonth = month.Date
			row.UsageTB = month.StorageUsage
			rows = append(rows, row)
		}
	}
	return rows
}
