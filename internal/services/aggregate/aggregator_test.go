package aggregate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/vault-usage-export/internal/models"
)

type fakeSource struct {
	org           *models.Organization
	identityErr   error
	subscriptions []models.Subscription
	subsErr       error
	tenants       []models.WorkloadTenant
	tenantsErr    error
	stats         map[string][]models.StorageUnit
	statsErr      map[string]error
	statsCalls    atomic.Int32
	statsHook     func(tenantID string)
}

func (f *fakeSource) FetchIdentity(context.Context) (*models.Organization, error) {
	return f.org, f.identityErr
}

func (f *fakeSource) FetchSubscriptions(context.Context, string) ([]models.Subscription, error) {
	return f.subscriptions, f.subsErr
}

func (f *fakeSource) FetchWorkloadTenants(context.Context, string) ([]models.WorkloadTenant, error) {
	return f.tenants, f.tenantsErr
}

func (f *fakeSource) FetchStorageStats(_ context.Context, tenantID string) ([]models.StorageUnit, error) {
	f.statsCalls.Add(1)
	if f.statsHook != nil {
		f.statsHook(tenantID)
	}
	if err := f.statsErr[tenantID]; err != nil {
		return nil, err
	}
	return f.stats[tenantID], nil
}

type recordingReporter struct {
	statuses []string
	progress [][2]int
	warnings []string
}

func (r *recordingReporter) OnStatus(msg string) { r.statuses = append(r.statuses, msg) }
func (r *recordingReporter) OnProgress(c, t int) { r.progress = append(r.progress, [2]int{c, t}) }
func (r *recordingReporter) OnWarning(name string) {
	r.warnings = append(r.warnings, name)
}

// twoTenantSource is tenant A with subscription sub1 and two months of usage,
// and tenant B with no matching subscription and a failing stats fetch.
func twoTenantSource() *fakeSource {
	return &fakeSource{
		org: &models.Organization{OrganizationID: "org-1"},
		subscriptions: []models.Subscription{
			{ID: "sub1", Product: models.Product{Edition: "Standard"}, Count: 10, ExpirationDate: "2025-12-31"},
		},
		tenants: []models.WorkloadTenant{
			{ID: "a", DisplayName: "Tenant A", Status: "Active", Region: "eu", SubscriptionID: "sub1",
				Metadata: `{"tenantUsage":12,"storageAmount":1,"storageRegion":"westeurope"}`},
			{ID: "b", DisplayName: "Tenant B", Status: "Active", Region: "us", SubscriptionID: "missing"},
		},
		stats: map[string][]models.StorageUnit{
			"a": {{DisplayName: "Vault 1", StorageName: "v1", StorageData: []models.MonthlyUsage{
				{Date: "1/2025", StorageUsage: 5},
				{Date: "2/2025", StorageUsage: 7},
			}}},
		},
		statsErr: map[string]error{"b": errors.New("HTTP 500")},
	}
}

func TestRun_PartialFailure(t *testing.T) {
	src := twoTenantSource()
	rep := &recordingReporter{}

	res, err := New(src).Run(context.Background(), models.ExportRequest{Scope: models.AllTenants()}, rep)
	require.NoError(t, err)

	require.Len(t, res.Rows, 3)
	assert.Equal(t, []string{"Tenant B"}, res.FailedTenants)
	assert.Equal(t, []string{"Tenant B"}, rep.warnings)
	assert.False(t, res.IsSummary)
	assert.Equal(t, 2, res.TenantCount)
	assert.Equal(t, "org-1", res.OrganizationID)

	a1, a2, b := res.Rows[0], res.Rows[1], res.Rows[2]
	assert.Equal(t, "Standard", a1.SubscriptionEdition)
	assert.Equal(t, 10.0, a1.SubscriptionLimitTB)
	assert.Equal(t, "2025-12-31", a1.SubscriptionExpires)
	require.NotNil(t, a1.TenantOverallUsageTB)
	assert.Equal(t, 12.0, *a1.TenantOverallUsageTB)
	assert.Equal(t, "westeurope", a1.TenantStorageRegions)
	assert.Equal(t, "1/2025", a1.UsageMonth)
	assert.Equal(t, 5.0, a1.UsageTB)
	assert.Equal(t, "2/2025", a2.UsageMonth)
	assert.Equal(t, 7.0, a2.UsageTB)

	assert.Equal(t, "Tenant B", b.TenantDisplayName)
	assert.Equal(t, models.NotAvailable, b.SubscriptionEdition)
	assert.Equal(t, models.NotAvailable, b.SubscriptionExpires)
	assert.Zero(t, b.SubscriptionLimitTB)
	assert.Equal(t, models.NotAvailable, b.VaultDisplayName)
	assert.Equal(t, models.NotAvailable, b.VaultStorageName)
	assert.Equal(t, models.NotAvailable, b.UsageMonth)
	assert.Zero(t, b.UsageTB)
	assert.Equal(t, models.NotAvailable, b.TenantStorageRegions)
}

func TestRun_DateFilter(t *testing.T) {
	src := twoTenantSource()
	src.statsErr = nil

	req := models.ExportRequest{
		Scope:     models.AllTenants(),
		DateRange: models.DateRange{From: "2025-02", To: "2025-02"},
	}
	res, err := New(src).Run(context.Background(), req, nil)
	require.NoError(t, err)

	// Tenant B has no stats so still gets its placeholder.
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "2/2025", res.Rows[0].UsageMonth)
	assert.Equal(t, "Tenant A", res.Rows[0].TenantDisplayName)
	assert.Equal(t, models.NotAvailable, res.Rows[1].UsageMonth)
}

func TestRun_DateFilterExcludesAllMonths(t *testing.T) {
	src := twoTenantSource()
	src.tenants = src.tenants[:1]

	req := models.ExportRequest{
		Scope:     models.AllTenants(),
		DateRange: models.DateRange{From: "2026-01"},
	}
	res, err := New(src).Run(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Rows, "filtered tenant contributes no rows and no placeholder")
	assert.Empty(t, res.FailedTenants)
}

func TestRun_SummaryIgnoresStatsAndFilter(t *testing.T) {
	src := twoTenantSource()
	rep := &recordingReporter{}

	req := models.ExportRequest{
		Scope:     models.SummaryOnly(),
		DateRange: models.DateRange{From: "2030-01", To: "2030-02"},
	}
	res, err := New(src).Run(context.Background(), req, rep)
	require.NoError(t, err)

	assert.True(t, res.IsSummary)
	assert.Len(t, res.Rows, len(src.tenants))
	assert.Zero(t, src.statsCalls.Load(), "summary must not fetch stats")
	assert.Empty(t, rep.progress)
	assert.Empty(t, res.FailedTenants)
}

func TestRun_SingleTenant(t *testing.T) {
	src := twoTenantSource()

	res, err := New(src).Run(context.Background(), models.ExportRequest{Scope: models.SingleTenant("a")}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, res.TenantCount)
	assert.Equal(t, 2, res.TotalTenants)
	assert.Len(t, res.Rows, 2)
	assert.EqualValues(t, 1, src.statsCalls.Load())
}

func TestRun_SingleTenantNotFound(t *testing.T) {
	src := twoTenantSource()

	_, err := New(src).Run(context.Background(), models.ExportRequest{Scope: models.SingleTenant("zzz")}, nil)
	require.Error(t, err)

	var notFound *ScopeNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "zzz", notFound.TenantID)
	assert.Equal(t, 2, notFound.TenantCount)
	assert.Equal(t, "Tenant with ID zzz not found in organization's 2 tenants.", err.Error())
	assert.Zero(t, src.statsCalls.Load())
}

func TestRun_FatalErrors(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name    string
		mutate  func(f *fakeSource)
		message string
	}{
		{"identity", func(f *fakeSource) { f.identityErr = cause }, "Could not fetch user data. Are you logged in?"},
		{"no org id", func(f *fakeSource) { f.org = &models.Organization{} }, "Organization ID not found."},
		{"nil org", func(f *fakeSource) { f.org = nil }, "Organization ID not found."},
		{"subscriptions", func(f *fakeSource) { f.subsErr = cause }, "Could not fetch subscriptions."},
		{"tenants", func(f *fakeSource) { f.tenantsErr = cause }, "Could not fetch workload tenants."},
		{"no tenants", func(f *fakeSource) { f.tenants = nil }, "No workload tenants found."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := twoTenantSource()
			tt.mutate(src)

			res, err := New(src).Run(context.Background(), models.ExportRequest{}, nil)
			require.Error(t, err)
			assert.Nil(t, res)

			var fatalErr *FatalFetchError
			require.ErrorAs(t, err, &fatalErr)
			assert.Equal(t, tt.message, err.Error())
			assert.Zero(t, src.statsCalls.Load())
		})
	}
}

func TestRun_FatalErrorWrapsCause(t *testing.T) {
	cause := errors.New("unauthorized")
	src := twoTenantSource()
	src.identityErr = cause

	_, err := New(src).Run(context.Background(), models.ExportRequest{}, nil)
	assert.ErrorIs(t, err, cause)
}

func TestRun_Progress(t *testing.T) {
	src := twoTenantSource()
	rep := &recordingReporter{}

	_, err := New(src).Run(context.Background(), models.ExportRequest{}, rep)
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{0, 2}, {1, 2}, {2, 2}}, rep.progress)
	assert.Equal(t, []string{"Fetching data...", "Found Org ID: org-1"}, rep.statuses)
}

func TestRun_StatsFetchedConcurrently(t *testing.T) {
	src := twoTenantSource()
	src.statsErr = nil
	for _, id := range []string{"c", "d", "e"} {
		src.tenants = append(src.tenants, models.WorkloadTenant{ID: id, DisplayName: id})
	}

	var started sync.WaitGroup
	started.Add(len(src.tenants))
	allStarted := make(chan struct{})
	go func() {
		started.Wait()
		close(allStarted)
	}()

	src.statsHook = func(string) {
		started.Done()
		// Every request must be in flight before any of them completes.
		select {
		case <-allStarted:
		case <-time.After(2 * time.Second):
			t.Error("stats requests were not issued concurrently")
		}
	}

	res, err := New(src).Run(context.Background(), models.ExportRequest{}, nil)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2+4)
}

func TestRun_DuplicateSubscriptionLastWins(t *testing.T) {
	src := twoTenantSource()
	src.subscriptions = append(src.subscriptions,
		models.Subscription{ID: "sub1", Product: models.Product{Edition: "Advanced"}, Count: 20})

	res, err := New(src).Run(context.Background(), models.ExportRequest{Scope: models.SummaryOnly()}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Advanced", res.Rows[0].SubscriptionEdition)
	assert.Equal(t, 20.0, res.Rows[0].SubscriptionLimitTB)
	assert.Equal(t, models.NotAvailable, res.Rows[0].SubscriptionExpires)
}

func TestDecodeMetadata(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    models.TenantMetadata
		wantErr bool
	}{
		{"empty", "", models.DefaultTenantMetadata(), false},
		{"null", "null", models.DefaultTenantMetadata(), false},
		{"full", `{"tenantUsage":1.5,"storageAmount":2,"storageRegion":"eu"}`,
			models.TenantMetadata{TenantUsage: models.Number(1.5), StorageAmount: models.Number(2), StorageRegion: "eu"}, false},
		{"partial", `{"tenantUsage":4}`,
			models.TenantMetadata{TenantUsage: models.Number(4)}, false},
		{"null region", `{"tenantUsage":5,"storageAmount":2,"storageRegion":null}`,
			models.TenantMetadata{TenantUsage: models.Number(5), StorageAmount: models.Number(2)}, false},
		{"null number", `{"tenantUsage":null,"storageRegion":"eu"}`,
			models.TenantMetadata{StorageRegion: "eu"}, false},
		{"empty object", `{}`, models.TenantMetadata{}, false},
		{"invalid", `{not json`, models.DefaultTenantMetadata(), true},
		{"wrong types", `{"tenantUsage":"lots"}`, models.DefaultTenantMetadata(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeMetadata("t1", tt.raw)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				var decodeErr *MetadataDecodeError
				require.ErrorAs(t, err, &decodeErr)
				assert.Equal(t, "t1", decodeErr.TenantID)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRun_InvalidMetadataDoesNotAbort(t *testing.T) {
	src := twoTenantSource()
	src.tenants[0].Metadata = "{broken"

	res, err := New(src).Run(context.Background(), models.ExportRequest{Scope: models.SummaryOnly()}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.NotAvailable, res.Rows[0].TenantStorageRegions)
	require.NotNil(t, res.Rows[0].TenantOverallUsageTB)
	assert.Zero(t, *res.Rows[0].TenantOverallUsageTB)
}

func TestRun_PartialMetadataLeavesFieldsEmpty(t *testing.T) {
	src := twoTenantSource()
	src.tenants[0].Metadata = `{"tenantUsage":5}`

	res, err := New(src).Run(context.Background(), models.ExportRequest{Scope: models.SummaryOnly()}, nil)
	require.NoError(t, err)
	require.NotNil(t, res.Rows[0].TenantOverallUsageTB)
	assert.Equal(t, 5.0, *res.Rows[0].TenantOverallUsageTB)
	assert.Nil(t, res.Rows[0].TenantVaultCount)
	assert.Empty(t, res.Rows[0].TenantStorageRegions)
}

func TestProgressMessage(t *testing.T) {
	assert.Equal(t, "Fetching stats: 0/3 (0%)", ProgressMessage(0, 3))
	assert.Equal(t, "Fetching stats: 1/3 (33%)", ProgressMessage(1, 3))
	assert.Equal(t, "Fetching stats: 2/3 (67%)", ProgressMessage(2, 3))
	assert.Equal(t, "Fetching stats: 1/8 (13%)", ProgressMessage(1, 8))
	assert.Equal(t, "Fetching stats: 0/0 (0%)", ProgressMessage(0, 0))
}

func TestResult(t *testing.T) {
	ok := Ok(3)
	assert.True(t, ok.IsOk())
	assert.Equal(t, 3, ok.Value)

	failed := Fail[int](errors.New("x"))
	assert.False(t, failed.IsOk())
	assert.Zero(t, failed.Value)
}
