package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"

	"github.com/j-veylop/vault-usage-export/internal/config"
	"github.com/j-veylop/vault-usage-export/internal/db"
	"github.com/j-veylop/vault-usage-export/internal/models"
	"github.com/j-veylop/vault-usage-export/internal/ui/styles"
)

const maxErrorWidth = 60

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := openHistory()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			records, err := database.GetRecentExports(limit)
			if err != nil {
				return err
			}
			counts, err := database.CountExports()
			if err != nil {
				return err
			}

			printHistory(cmd.OutOrStdout(), records, counts)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", db.DefaultHistoryLimit, "number of exports to list")

	cmd.AddCommand(newHistoryPruneCmd())
	return cmd
}

func newHistoryPruneCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete exports older than --days from the history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}

			database, err := openHistory()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			deleted, err := database.DeleteExportsOlderThan(days)
			if err != nil {
				return err
			}
			if deleted > 0 {
				if err := database.Vacuum(); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d export(s) older than %d days\n", deleted, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 90, "age in days above which exports are deleted")
	return cmd
}

func openHistory() (*db.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return db.New(cfg.DatabasePath)
}

func printHistory(w io.Writer, records []models.ExportRecord, counts map[models.Outcome]int) {
	if len(records) == 0 {
		fmt.Fprintln(w, styles.HelpStyle.Render("No exports recorded yet."))
		return
	}

	muted := lipgloss.NewStyle().Foreground(styles.TextMuted)
	for _, rec := range records {
		outcome := string(rec.Outcome)
		line := []string{
			styles.GetOutcomeStyle(outcome).Render(styles.OutcomeSymbol(outcome)),
			rec.StartedAt.Format("2006-01-02 15:04"),
			fmt.Sprintf("%-10s", rec.Environment),
			fmt.Sprintf("%-14s", rec.Scope),
			fmt.Sprintf("%-16s", models.DateRange{From: rec.DateFrom, To: rec.DateTo}.String()),
		}

		if rec.Outcome == models.OutcomeFailed {
			line = append(line, styles.ErrorTextStyle.Render(ansi.Truncate(rec.Error, maxErrorWidth, "…")))
		} else {
			line = append(line,
				fmt.Sprintf("%4d tenants %6d rows", rec.TenantCount, rec.RowCount),
				rec.Filename,
			)
		}
		fmt.Fprintln(w, strings.Join(line, "  "))

		if n := len(rec.FailedTenants); n > 0 {
			fmt.Fprintln(w, muted.Render(fmt.Sprintf("    statistics failed: %s", strings.Join(rec.FailedTenants, ", "))))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, muted.Render(fmt.Sprintf("%d succeeded, %d with warnings, %d failed",
		counts[models.OutcomeSuccess], counts[models.OutcomeWarnings], counts[models.OutcomeFailed])))
}
