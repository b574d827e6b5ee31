// Package export turns aggregated tenant data into CSV reports.
package export

import (
	"context"
	"time"

	"github.com/j-veylop/vault-usage-export/internal/logger"
	"github.com/j-veylop/vault-usage-export/internal/models"
	"github.com/j-veylop/vault-usage-export/internal/services/aggregate"
)

// DefaultPrefix starts every filename unless overridden.
const DefaultPrefix = "veeam_data_cloud"

// Options configures an Exporter.
type Options struct {
	FilenamePrefix string
	Now            func() time.Time
}

// Exporter drives the aggregator and the CSV renderer.
type Exporter struct {
	aggregator *aggregate.Aggregator
	now        func() time.Time
	prefix     string
}

// New creates a new exporter reading from source.
func New(source aggregate.Source, opts Options) *Exporter {
	if opts.FilenamePrefix == "" {
		opts.FilenamePrefix = DefaultPrefix
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Exporter{
		aggregator: aggregate.New(source),
		now:        opts.Now,
		prefix:     opts.FilenamePrefix,
	}
}

// Export runs one export. A returned error is fatal and nothing was
// produced; otherwise the result carries the CSV bytes, the filename and
// the names of tenants whose statistics could not be fetched.
func (e *Exporter) Export(ctx context.Context, req models.ExportRequest, sink Sink) (*models.ExportResult, error) {
	if sink == nil {
		sink = SinkFuncs{}
	}
	if err := req.DateRange.Validate(); err != nil {
		return nil, err
	}
	// The filename date is taken when the export is triggered.
	started := e.now()

	agg, err := e.aggregator.Run(ctx, req, sink)
	if err != nil {
		logger.Error("export failed", "scope", req.Scope.String(), "error", err)
		return nil, err
	}

	if !agg.IsSummary {
		sink.OnStatus("Generating CSV...")
	}

	result := &models.ExportResult{
		CSV:         RenderCSV(agg.Rows, agg.IsSummary),
		Filename:    Filename(BaseFilename(e.prefix, req.Scope, agg.TenantName), started),
		Warnings:    agg.FailedTenants,
		Rows:        agg.Rows,
		TenantCount: agg.TenantCount,
		Summary:     agg.IsSummary,
		Outcome:     models.OutcomeSuccess,
	}
	if len(result.Warnings) > 0 {
		result.Outcome = models.OutcomeWarnings
	}

	logger.Info("export complete",
		"filename", result.Filename,
		"tenants", result.TenantCount,
		"rows", len(result.Rows),
		"failed", len(result.Warnings),
	)

	sink.OnStatus(result.Message())
	sink.OnDone(result)
	return result, nil
}
