package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/vault-usage-export/internal/app"
	"github.com/j-veylop/vault-usage-export/internal/models"
	exportsvc "github.com/j-veylop/vault-usage-export/internal/services/export"
	"github.com/j-veylop/vault-usage-export/internal/ui/components"
	"github.com/j-veylop/vault-usage-export/internal/ui/styles"
)

const maxListedWarnings = 8

// View renders the export tab.
func (m *Model) View() string {
	sections := []string{
		m.renderTitle(),
		m.renderForm(),
		m.renderStatus(),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 100)
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Vault Usage Export")
	subtitle := styles.HelpStyle.Render("Storage usage of Veeam Data Cloud Vault tenants as CSV")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderForm() string {
	var rows []string

	titleIcon := lipgloss.NewStyle().Foreground(styles.Vault).Render("◈")
	rows = append(rows, fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Export Options")), "")

	rows = append(rows, m.renderModes())

	if m.Mode() == models.ScopeSingleTenant {
		rows = append(rows, m.renderField("Tenant ID", m.tenant.View(), m.focus == fieldTenant))
	}

	rows = append(rows, "", m.renderDateFilter())

	if m.errorMsg != "" {
		rows = append(rows, "", styles.ErrorTextStyle.Render("  "+m.errorMsg))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderModes() string {
	parts := make([]string, 0, len(scopeKinds))
	for i, kind := range scopeKinds {
		label := modeLabel(kind)
		if i == m.mode {
			parts = append(parts, styles.ModeSelectedStyle.Render("● "+label))
		} else {
			parts = append(parts, styles.ModeStyle.Render("○ "+label))
		}
	}
	return "  Mode  " + strings.Join(parts, "   ")
}

func (m *Model) renderField(label, value string, focused bool) string {
	labelStyle := lipgloss.NewStyle().Width(12).Foreground(styles.TextMuted)
	box := styles.BlurredBorderStyle
	if focused {
		box = styles.FocusedBorderStyle
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, "  ", labelStyle.Render(label), box.Render(value))
}

func (m *Model) renderDateFilter() string {
	check := "[ ]"
	if m.dateFilter {
		check = "[x]"
	}
	header := fmt.Sprintf("  %s Filter by month", check)
	if !m.dateFilter {
		return styles.ModeStyle.Render(header)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		styles.ModeSelectedStyle.Render(header),
		m.renderField("From", m.from.View(), m.focus == fieldFrom),
		m.renderField("To", m.to.View(), m.focus == fieldTo),
	)
}

func (m *Model) renderStatus() string {
	p := m.state.GetExport()

	switch {
	case p.Running:
		return m.renderRunning(p)
	case m.state.GetLastError() != "":
		return m.renderFailed(p)
	case m.state.GetLastResult() != nil:
		return m.renderResult(p, m.state.GetLastResult())
	default:
		return styles.HelpStyle.Render("  Press enter to export.")
	}
}

func (m *Model) renderRunning(p app.ExportProgress) string {
	var rows []string

	m.spinner.SetLabel(p.Status)
	rows = append(rows, m.spinner.ViewWithLabel())

	if c, t := m.progress.Counts(); t > 0 || c > 0 {
		rows = append(rows, "", m.progress.View())
	}

	rows = append(rows, m.renderWarnings(p.Warnings)...)
	rows = append(rows, "", styles.HelpStyle.Render(fmt.Sprintf("Running for %s", formatDuration(time.Since(p.StartedAt)))))

	return styles.ResultCardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderFailed(p app.ExportProgress) string {
	outcome := string(models.OutcomeFailed)
	style := styles.GetOutcomeStyle(outcome)

	rows := []string{
		style.Render(fmt.Sprintf("%s %s", styles.OutcomeSymbol(outcome), m.state.GetLastError())),
		"",
		styles.HelpStyle.Render("Press enter to retry."),
	}
	if rec := m.state.GetLastRecord(); rec != nil {
		rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf("Scope %s, range %s", rec.Scope, p.Request.DateRange.String())))
	}

	return styles.ResultCardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderResult(p app.ExportProgress, result *models.ExportResult) string {
	outcome := string(result.Outcome)
	style := styles.GetOutcomeStyle(outcome)

	var rows []string
	rows = append(rows,
		style.Render(fmt.Sprintf("%s %s", styles.OutcomeSymbol(outcome), result.Message())),
		"",
		m.renderKV("File", result.Filename),
	)
	if rec := m.state.GetLastRecord(); rec != nil {
		if rec.Path != "" {
			rows = append(rows, m.renderKV("Path", rec.Path))
		}
		rows = append(rows, m.renderKV("Duration", formatDuration(rec.Duration())))
	}
	rows = append(rows,
		m.renderKV("Tenants", fmt.Sprintf("%d", result.TenantCount)),
		m.renderKV("Rows", fmt.Sprintf("%d", len(result.Rows))),
		m.renderKV("Range", p.Request.DateRange.String()),
	)

	rows = append(rows, m.renderWarnings(result.Warnings)...)

	if !result.Summary {
		if totals := exportsvc.MonthlyTotals(result.Rows); len(totals) > 0 {
			chartWidth := max(m.cardWidth()-16, 20)
			rows = append(rows, "",
				styles.CardTitleStyle.Render("Monthly usage"),
				components.RenderTrendChart(totals, chartWidth, 6),
				"",
				components.RenderMonthlyBars(totals, chartWidth),
			)
		}
	}

	return styles.ResultCardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderKV(label, value string) string {
	labelStyle := lipgloss.NewStyle().Width(10).Foreground(styles.TextMuted)
	return labelStyle.Render(label) + " " + lipgloss.NewStyle().Foreground(styles.TextPrimary).Render(value)
}

func (m *Model) renderWarnings(warnings []string) []string {
	if len(warnings) == 0 {
		return nil
	}

	rows := []string{"", styles.WarningTextStyle.Render(fmt.Sprintf("Statistics failed for %d tenant(s):", len(warnings)))}
	for i, name := range warnings {
		if i == maxListedWarnings {
			rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf("  … and %d more", len(warnings)-maxListedWarnings)))
			break
		}
		rows = append(rows, "  • "+name)
	}
	return rows
}
