package export

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/vault-usage-export/internal/models"
)

func sampleRow() models.ExportRow {
	return models.ExportRow{
		TenantDisplayName:    `Acme "Storage" Co`,
		TenantID:             "t-1",
		TenantStatus:         "Active",
		TenantRegion:         "eu-west",
		TenantCreatedAt:      "2024-03-01T10:00:00Z",
		SubscriptionID:       "sub1",
		SubscriptionEdition:  "Standard",
		SubscriptionLimitTB:  10,
		SubscriptionExpires:  "2025-12-31",
		TenantOverallUsageTB: models.Number(12.5),
		TenantVaultCount:     models.Number(2),
		TenantStorageRegions: "westeurope, northeurope",
		VaultDisplayName:     "Vault, primary",
		VaultStorageName:     "vault-1",
		UsageMonth:           "1/2025",
		UsageTB:              0.25,
	}
}

func TestHeaders(t *testing.T) {
	assert.Len(t, SummaryHeader, 12)
	assert.Len(t, DetailedHeader, 16)
	assert.Equal(t, SummaryHeader, DetailedHeader[:12])
	assert.Equal(t, []string{"VaultDisplayName", "VaultStorageName", "UsageMonth", "UsageTB"}, DetailedHeader[12:])
}

func TestRenderCSV_Detailed(t *testing.T) {
	out := string(RenderCSV([]models.ExportRow{sampleRow()}, false))

	want := strings.Join(DetailedHeader, ",") + "\n" +
		`"Acme ""Storage"" Co","t-1","Active","eu-west","2024-03-01T10:00:00Z","sub1","Standard",10,"2025-12-31",12.5,2,` +
		`"westeurope, northeurope","Vault, primary","vault-1","1/2025",0.25` + "\n"
	assert.Equal(t, want, out)
}

func TestRenderCSV_Summary(t *testing.T) {
	out := string(RenderCSV([]models.ExportRow{sampleRow()}, true))

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(SummaryHeader, ","), lines[0])
	assert.Equal(t,
		`"Acme ""Storage"" Co","t-1","Active","eu-west","2024-03-01T10:00:00Z","sub1","Standard",10,"2025-12-31",12.5,2,"westeurope, northeurope"`,
		lines[1])
}

func TestRenderCSV_Placeholder(t *testing.T) {
	row := sampleRow()
	row.VaultDisplayName = models.NotAvailable
	row.VaultStorageName = models.NotAvailable
	row.UsageMonth = models.NotAvailable
	row.UsageTB = 0

	out := string(RenderCSV([]models.ExportRow{row}, false))
	assert.True(t, strings.HasSuffix(out, `,"N/A","N/A","N/A",0`+"\n"), out)
}

func TestRenderCSV_EmptyValues(t *testing.T) {
	out := string(RenderCSV([]models.ExportRow{{}}, true))
	lines := strings.Split(out, "\n")
	assert.Equal(t, `"","","","","","","",0,"",,,""`, lines[1])
}

func TestRenderCSV_MissingMetadataNumbers(t *testing.T) {
	row := sampleRow()
	row.TenantOverallUsageTB = nil
	row.TenantVaultCount = models.Number(0)

	r := csv.NewReader(strings.NewReader(string(RenderCSV([]models.ExportRow{row}, true))))
	records, err := r.ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "", records[1][9])
	assert.Equal(t, "0", records[1][10])
}

func TestRenderCSV_NoRows(t *testing.T) {
	assert.Equal(t, strings.Join(SummaryHeader, ",")+"\n", string(RenderCSV(nil, true)))
}

func TestRenderCSV_RoundTrip(t *testing.T) {
	rows := []models.ExportRow{sampleRow(), sampleRow(), sampleRow()}
	rows[1].TenantDisplayName = "line\nbreak"
	rows[2].TenantDisplayName = `"quoted"`

	r := csv.NewReader(strings.NewReader(string(RenderCSV(rows, false))))
	records, err := r.ReadAll()
	require.NoError(t, err)

	require.Len(t, records, len(rows)+1)
	assert.Equal(t, DetailedHeader, records[0])
	assert.Equal(t, `Acme "Storage" Co`, records[1][0])
	assert.Equal(t, "line\nbreak", records[2][0])
	assert.Equal(t, `"quoted"`, records[3][0])
	assert.Equal(t, "0.25", records[1][15])
}

func TestNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{10, "10"},
		{7.5, "7.5"},
		{0.1, "0.1"},
		{1234567.891, "1234567.891"},
		{-2, "-2"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, number(tt.in))
		})
	}
}
