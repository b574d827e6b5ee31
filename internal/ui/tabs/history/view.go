package history

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/vault-usage-export/internal/models"
	"github.com/j-veylop/vault-usage-export/internal/ui/styles"
)

const (
	maxListedFailures = 10
	maxListedFiles    = 10
)

// View renders the history tab.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return styles.DocStyle.
			Width(m.width).
			Height(m.height).
			Render(styles.HelpStyle.Render("Loading export history..."))
	}

	sections := []string{m.renderHeader()}
	if len(m.records) == 0 {
		sections = append(sections, m.renderEmpty())
	} else {
		sections = append(sections, m.table.View(), "", m.renderDetail())
	}
	sections = append(sections, m.renderFiles())

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) cardWidth() int {
	return max(m.width-6, 40)
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("Export History")

	var success, warnings, failed int
	for _, rec := range m.records {
		switch rec.Outcome {
		case models.OutcomeSuccess:
			success++
		case models.OutcomeWarnings:
			warnings++
		case models.OutcomeFailed:
			failed++
		}
	}

	summary := fmt.Sprintf("%s %d   %s %d   %s %d",
		styles.SuccessTextStyle.Render(styles.OutcomeSymbol(string(models.OutcomeSuccess))), success,
		styles.WarningTextStyle.Render(styles.OutcomeSymbol(string(models.OutcomeWarnings))), warnings,
		styles.ErrorTextStyle.Render(styles.OutcomeSymbol(string(models.OutcomeFailed))), failed,
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", summary),
		"",
	)
}

func (m *Model) renderEmpty() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.HelpStyle.Render("No exports recorded yet."),
		styles.HelpStyle.Render("Run one from the Export tab and it will appear here."),
		"",
	)
}

func (m *Model) renderDetail() string {
	rec, ok := m.Selected()
	if !ok {
		return ""
	}

	outcome := string(rec.Outcome)
	width := m.cardWidth() - 6

	rows := []string{
		styles.GetOutcomeStyle(outcome).Render(fmt.Sprintf("%s %s", styles.OutcomeSymbol(outcome), outcome)),
		"",
		renderKV("Started", rec.StartedAt.Format("2006-01-02 15:04:05")+"  ("+humanize.Time(rec.StartedAt)+")"),
		renderKV("Env", rec.Environment),
		renderKV("Scope", rec.Scope),
		renderKV("Range", dateRange(&rec)),
	}
	if rec.Path != "" {
		rows = append(rows, renderKV("Path", truncate(rec.Path, width-11)))
	}
	if rec.Error != "" {
		rows = append(rows, "", styles.ErrorTextStyle.Render(truncate(rec.Error, width)))
	}

	if n := len(rec.FailedTenants); n > 0 {
		rows = append(rows, "", styles.WarningTextStyle.Render(fmt.Sprintf("Statistics failed for %d tenant(s):", n)))
		for i, name := range rec.FailedTenants {
			if i == maxListedFailures {
				rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf("  … and %d more", n-maxListedFailures)))
				break
			}
			rows = append(rows, "  • "+truncate(name, width-4))
		}
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderFiles() string {
	files := m.state.GetFiles()

	titleIcon := lipgloss.NewStyle().Foreground(styles.Vault).Render("◈")
	rows := []string{
		fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render(fmt.Sprintf("Output files (%d)", len(files)))),
		"",
	}

	if len(files) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No CSV exports in the output directory"))
	}

	nameWidth := max(m.cardWidth()-34, 20)
	for i, f := range files {
		if i == maxListedFiles {
			rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf("  … and %d more", len(files)-maxListedFiles)))
			break
		}
		rows = append(rows, renderFile(f, nameWidth))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func renderFile(f models.OutputFile, nameWidth int) string {
	name := lipgloss.NewStyle().Width(nameWidth).Foreground(styles.TextPrimary).Render(truncate(f.Name, nameWidth))
	size := lipgloss.NewStyle().Width(10).Align(lipgloss.Right).Foreground(styles.TextSecondary).Render(humanize.Bytes(uint64(max(f.Size, 0))))
	age := styles.HelpStyle.Render(humanize.Time(f.ModTime))

	return strings.Join([]string{"  " + name, size, "  " + age}, "")
}

func renderKV(label, value string) string {
	labelStyle := lipgloss.NewStyle().Width(10).Foreground(styles.TextMuted)
	return labelStyle.Render(label) + " " + lipgloss.NewStyle().Foreground(styles.TextPrimary).Render(value)
}
