// Package aggregate fetches subscriptions, workload tenants and storage
// statistics for an organization and joins them into export rows.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/j-veylop/vault-usage-export/internal/logger"
	"github.com/j-veylop/vault-usage-export/internal/models"
)

// Source is the set of remote reads an export needs.
type Source interface {
	FetchIdentity(ctx context.Context) (*models.Organization, error)
	FetchSubscriptions(ctx context.Context, orgID string) ([]models.Subscription, error)
	FetchWorkloadTenants(ctx context.Context, orgID string) ([]models.WorkloadTenant, error)
	FetchStorageStats(ctx context.Context, tenantID string) ([]models.StorageUnit, error)
}

// Reporter receives progress while an export runs. All calls are made from
// the goroutine that called Run.
type Reporter interface {
	OnStatus(msg string)
	OnProgress(completed, total int)
	OnWarning(tenantName string)
}

type nopReporter struct{}

func (nopReporter) OnStatus(string)     {}
func (nopReporter) OnProgress(int, int) {}
func (nopReporter) OnWarning(string)    {}

// ProgressMessage formats the stats-fetch status line.
func ProgressMessage(completed, total int) string {
	pct := 0
	if total > 0 {
		pct = int(math.Round(float64(completed) / float64(total) * 100))
	}
	return fmt.Sprintf("Fetching stats: %d/%d (%d%%)", completed, total, pct)
}

// Aggregator runs the fetch/join pipeline against a Source.
type Aggregator struct {
	source Source
}

// New creates a new aggregator.
func New(source Source) *Aggregator {
	return &Aggregator{source: source}
}

// Run fetches and joins everything an export needs. Identity, subscription
// and tenant-list failures are fatal; per-tenant statistics failures are
// reported in FailedTenants and rendered as placeholder rows.
func (a *Aggregator) Run(ctx context.Context, req models.ExportRequest, reporter Reporter) (*models.AggregateResult, error) {
	if reporter == nil {
		reporter = nopReporter{}
	}

	reporter.OnStatus("Fetching data...")

	org, err := a.source.FetchIdentity(ctx)
	if err != nil {
		return nil, fatal("Could not fetch user data. Are you logged in?", err)
	}
	if org == nil || org.OrganizationID == "" {
		return nil, fatal("Organization ID not found.", nil)
	}
	orgID := org.OrganizationID
	reporter.OnStatus(fmt.Sprintf("Found Org ID: %s", orgID))

	subscriptions, tenants, err := a.fetchOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if len(tenants) == 0 {
		return nil, fatal("No workload tenants found.", nil)
	}

	subscriptionsMap := make(map[string]*models.Subscription, len(subscriptions))
	for i := range subscriptions {
		subscriptionsMap[subscriptions[i].ID] = &subscriptions[i]
	}

	scoped, err := applyScope(tenants, req.Scope)
	if err != nil {
		return nil, err
	}

	result := &models.AggregateResult{
		OrganizationID: orgID,
		TenantCount:    len(scoped),
		TotalTenants:   len(tenants),
		IsSummary:      req.Scope.IsSummary(),
	}
	if req.Scope.Kind == models.ScopeSingleTenant {
		result.TenantName = scoped[0].DisplayName
	}

	if result.IsSummary {
		reporter.OnStatus("Generating summary CSV...")
		for _, t := range scoped {
			result.Rows = append(result.Rows, tenantRow(t, subscriptionsMap[t.SubscriptionID], metadataFor(t)))
		}
		return result, nil
	}

	stats := a.fetchStats(ctx, scoped, reporter)

	for i, t := range scoped {
		entry := stats[i]
		if entry.Failed {
			result.FailedTenants = append(result.FailedTenants, t.DisplayName)
			reporter.OnWarning(t.DisplayName)
		}
		base := tenantRow(t, subscriptionsMap[t.SubscriptionID], metadataFor(t))
		result.Rows = append(result.Rows, detailRows(base, entry.StatsData, req.DateRange)...)
	}

	if len(result.FailedTenants) > 0 {
		logger.Warn("failed to fetch stats for tenants", "count", len(result.FailedTenants), "tenants", result.FailedTenants)
	}

	return result, nil
}

// fetchOrganization loads subscriptions and tenants concurrently and fails
// as soon as either request does.
func (a *Aggregator) fetchOrganization(ctx context.Context, orgID string) ([]models.Subscription, []models.WorkloadTenant, error) {
	var (
		subscriptions []models.Subscription
		tenants       []models.WorkloadTenant
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := a.source.FetchSubscriptions(gctx, orgID)
		if err != nil {
			return fatal("Could not fetch subscriptions.", err)
		}
		subscriptions = s
		return nil
	})
	g.Go(func() error {
		t, err := a.source.FetchWorkloadTenants(gctx, orgID)
		if err != nil {
			return fatal("Could not fetch workload tenants.", err)
		}
		tenants = t
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return subscriptions, tenants, nil
}

type settlement struct {
	result Result[[]models.StorageUnit]
	index  int
}

// fetchStats issues one request per tenant at once and waits for all of them
// to settle. Entries are returned in tenant order.
func (a *Aggregator) fetchStats(ctx context.Context, tenants []models.WorkloadTenant, reporter Reporter) []models.StorageStatEntry {
	total := len(tenants)
	reporter.OnProgress(0, total)

	settled := make(chan settlement, total)
	for i, t := range tenants {
		go func() {
			units, err := a.source.FetchStorageStats(ctx, t.ID)
			if err != nil {
				settled <- settlement{index: i, result: Fail[[]models.StorageUnit](err)}
				return
			}
			settled <- settlement{index: i, result: Ok(units)}
		}()
	}

	results := make([]Result[[]models.StorageUnit], total)
	for completed := 1; completed <= total; completed++ {
		s := <-settled
		results[s.index] = s.result
		reporter.OnProgress(completed, total)
	}

	entries := make([]models.StorageStatEntry, total)
	for i, r := range results {
		t := tenants[i]
		entries[i] = models.StorageStatEntry{TenantID: t.ID, TenantName: t.DisplayName}
		if !r.IsOk() {
			logger.Error("failed to fetch data for tenant", "tenant", t.DisplayName, "tenant_id", t.ID, "error", r.Err)
			entries[i].Failed = true
			continue
		}
		entries[i].StatsData = r.Value
	}
	return entries
}

func applyScope(tenants []models.WorkloadTenant, scope models.Scope) ([]models.WorkloadTenant, error) {
	if scope.Kind != models.ScopeSingleTenant {
		return tenants, nil
	}

	var scoped []models.WorkloadTenant
	for _, t := range tenants {
		if t.ID == scope.TenantID {
			scoped = append(scoped, t)
		}
	}
	if len(scoped) == 0 {
		return nil, &ScopeNotFoundError{TenantID: scope.TenantID, TenantCount: len(tenants)}
	}

	logger.Info("filtered to single tenant", "tenant", scoped[0].DisplayName, "tenant_id", scope.TenantID)
	return scoped, nil
}

func metadataFor(t models.WorkloadTenant) models.TenantMetadata {
	md, err := DecodeMetadata(t.ID, t.Metadata)
	if err != nil {
		var decodeErr *MetadataDecodeError
		if errors.As(err, &decodeErr) {
			logger.Warn("using default tenant metadata", "tenant_id", decodeErr.TenantID, "error", decodeErr.Err)
		}
	}
	return md
}
