package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/j-veylop/vault-usage-export/internal/config"
	"github.com/j-veylop/vault-usage-export/internal/logger"
	"github.com/j-veylop/vault-usage-export/internal/models"
	"github.com/j-veylop/vault-usage-export/internal/portal"
	"github.com/j-veylop/vault-usage-export/internal/services"
	"github.com/j-veylop/vault-usage-export/internal/services/aggregate"
	exportsvc "github.com/j-veylop/vault-usage-export/internal/services/export"
	"github.com/j-veylop/vault-usage-export/internal/ui/components"
	"github.com/j-veylop/vault-usage-export/internal/ui/styles"
)

const (
	chartWidth  = 60
	chartHeight = 10
)

type exportOptions struct {
	tenant  string
	summary bool
	from    string
	to      string
	url     string
	env     string
	out     string
	stdout  bool
	chart   bool
}

// resolved is what the flags select: the request and, when given, the
// environment to run against.
type resolved struct {
	request     models.ExportRequest
	environment config.Environment
}

// resolve turns the flags into a request. Explicit flags win over what a
// portal URL implies, except that --summary needs a page that offers it.
func (o *exportOptions) resolve() (*resolved, error) {
	r := &resolved{request: models.ExportRequest{Scope: models.AllTenants()}}

	if o.url != "" {
		pc, err := portal.ParseURL(o.url)
		if err != nil {
			return nil, err
		}
		r.environment = pc.Environment
		r.request.Scope = pc.Scope()
		if o.summary {
			if err := pc.AllowSummary(); err != nil {
				return nil, err
			}
		}
	}

	if o.env != "" {
		env, err := config.ParseEnvironment(o.env)
		if err != nil {
			return nil, err
		}
		r.environment = env
	}

	switch {
	case o.summary:
		r.request.Scope = models.SummaryOnly()
	case o.tenant != "":
		r.request.Scope = models.SingleTenant(o.tenant)
	}

	r.request.DateRange = models.DateRange{From: o.from, To: o.to}
	if err := r.request.DateRange.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func newExportCmd() *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run one export and write the CSV",
		Long: `Run one export and write the CSV into the output directory
(EXPORT_OUTPUT_DIR, default ~/Downloads) or to stdout.

Status lines go to stderr. The command exits non-zero when the export
fails; tenants whose statistics could not be fetched are reported as
warnings and still get a placeholder row.`,
		Example: `  # All tenants with monthly detail
  vdcexport export

  # Scope taken from a portal page
  vdcexport export --url https://stage.cloud.veeam.com/vault/tenant/2f1c...

  # One row per tenant, no statistics
  vdcexport export --summary --stdout > tenants.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.tenant, "tenant", "", "export a single tenant by id")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "one row per tenant without monthly statistics")
	cmd.Flags().StringVar(&opts.from, "from", "", "first month to include (YYYY-MM)")
	cmd.Flags().StringVar(&opts.to, "to", "", "last month to include (YYYY-MM)")
	cmd.Flags().StringVar(&opts.url, "url", "", "portal page URL to take environment and scope from")
	cmd.Flags().StringVar(&opts.env, "env", "", "environment: production or staging")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output directory (overrides EXPORT_OUTPUT_DIR)")
	cmd.Flags().BoolVar(&opts.stdout, "stdout", false, "write the CSV to stdout instead of a file")
	cmd.Flags().BoolVar(&opts.chart, "chart", false, "plot monthly usage totals after the export")

	cmd.MarkFlagsMutuallyExclusive("tenant", "summary")
	cmd.MarkFlagsMutuallyExclusive("out", "stdout")

	return cmd
}

func runExport(cmd *cobra.Command, opts *exportOptions) error {
	r, err := opts.resolve()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.out != "" {
		cfg.OutputDir = opts.out
	}

	stderr := cmd.ErrOrStderr()
	if verbose {
		logger.Setup(stderr, true)
	} else {
		logFile, err := logger.SetupFile(cfg.LogPath, false)
		if err != nil {
			return err
		}
		defer func() { _ = logFile.Close() }()
	}

	mgr, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() { _ = mgr.Close() }()

	if r.environment != "" {
		mgr.UseEnvironment(r.environment)
	}
	logger.Info("export requested",
		"environment", string(mgr.Environment()),
		"scope", r.request.Scope.String(),
		"output_dir", mgr.OutputDir(),
		"stdout", opts.stdout)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, rec, err := mgr.RunExport(ctx, r.request, services.RunOptions{
		Sink:      newStatusPrinter(stderr),
		SkipWrite: opts.stdout,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errors.New("export cancelled")
		}
		return err
	}

	if opts.stdout {
		if _, err := cmd.OutOrStdout().Write(result.CSV); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
	} else {
		outcome := string(result.Outcome)
		fmt.Fprintf(stderr, "%s Saved %s\n", styles.GetOutcomeStyle(outcome).Render(styles.OutcomeSymbol(outcome)), rec.Path)
	}

	if opts.chart && !result.Summary {
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, components.RenderTrendChart(exportsvc.MonthlyTotals(result.Rows), chartWidth, chartHeight))
	}
	return nil
}

// statusPrinter writes export status lines. Progress is printed in steps of
// progressStep percent so that large organizations stay readable.
type statusPrinter struct {
	w        io.Writer
	lastStep int
}

const progressStep = 10

func newStatusPrinter(w io.Writer) exportsvc.Sink {
	p := &statusPrinter{w: w, lastStep: -1}
	return exportsvc.SinkFuncs{
		Status:   p.status,
		Progress: p.progress,
		Warning:  p.warning,
	}
}

func (p *statusPrinter) status(msg string) {
	fmt.Fprintln(p.w, styles.InfoTextStyle.Render("• ")+msg)
}

func (p *statusPrinter) progress(completed, total int) {
	if total <= 0 {
		return
	}
	step := completed * 100 / total / progressStep
	if step == p.lastStep && completed != total {
		return
	}
	p.lastStep = step
	fmt.Fprintln(p.w, lipgloss.NewStyle().Foreground(styles.TextSecondary).Render("  "+aggregate.ProgressMessage(completed, total)))
}

func (p *statusPrinter) warning(tenantName string) {
	fmt.Fprintln(p.w, styles.WarningTextStyle.Render("! ")+"statistics failed for "+tenantName)
}
