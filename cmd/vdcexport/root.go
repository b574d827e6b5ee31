package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/vault-usage-export/internal/app"
	"github.com/j-veylop/vault-usage-export/internal/config"
	"github.com/j-veylop/vault-usage-export/internal/logger"
	"github.com/j-veylop/vault-usage-export/internal/models"
	"github.com/j-veylop/vault-usage-export/internal/portal"
	"github.com/j-veylop/vault-usage-export/internal/services"
	"github.com/j-veylop/vault-usage-export/internal/ui/tabs/export"
	"github.com/j-veylop/vault-usage-export/internal/ui/tabs/history"
	"github.com/j-veylop/vault-usage-export/internal/ui/tabs/info"
)

var verbose bool

func newRootCmd() *cobra.Command {
	var portalURL string

	rootCmd := &cobra.Command{
		Use:   "vdcexport",
		Short: "Export Veeam Data Cloud Vault storage usage as CSV",
		Long: `vdcexport exports the storage usage of Veeam Data Cloud Vault tenants
into a CSV report.

Run without a subcommand for the interactive terminal UI. Use "export" for
scripts. Credentials are read from VDC_AUTH_TOKEN or VDC_SESSION_COOKIE, from
the environment or a .env file in the current directory or
~/.config/vdc-export/.`,
		Example: `  # Interactive export, preset from a portal page
  vdcexport --url https://cloud.veeam.com/vault/tenant/2f1c...

  # One tenant, January to March, to stdout
  vdcexport export --tenant 2f1c... --from 2025-01 --to 2025-03 --stdout`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(portalURL)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().StringVar(&portalURL, "url", "", "portal page URL to preset environment and scope from")

	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// runTUI runs the Bubble Tea program until the user quits.
func runTUI(portalURL string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logFile, err := logger.SetupFile(cfg.LogPath, verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()

	var preset models.ExportRequest
	if portalURL != "" {
		pc, err := portal.ParseURL(portalURL)
		if err != nil {
			return err
		}
		cfg.SetEnvironment(pc.Environment)
		preset.Scope = pc.Scope()
	}

	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			logger.Warn("error closing services", "error", closeErr)
		}
	}()

	model := app.NewModel(svcManager)
	// Runs before the manager closes.
	defer model.Shutdown()

	state := model.GetState()
	exportTab := export.New(state)
	exportTab.Preset(preset)
	model.SetTabs([]app.Tab{
		exportTab,
		history.New(state),
		info.New(state, cfg),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		if _, ok := <-sigChan; ok {
			p.Send(tea.Quit())
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
