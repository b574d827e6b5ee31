package info

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/vault-usage-export/internal/ui/styles"
	"github.com/j-veylop/vault-usage-export/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	sections := []string{
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderAboutCard(),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration and application information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 90)
}

// renderConfigCard renders the active configuration. Credentials are only
// reported as present or missing.
func (m *Model) renderConfigCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Configuration"), "")

	if m.config == nil {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	} else {
		cfg := m.config
		rows = append(rows,
			renderRow("Environment", string(cfg.Environment)),
			renderRow("API", cfg.BaseURL),
			renderRow("Credentials", credentials(cfg.AuthToken, cfg.SessionCookie)),
			renderRow("Timeout", cfg.RequestTimeout.String()),
			"",
			renderRow("Output Dir", cfg.OutputDir),
			renderRow("File Prefix", cfg.FilenamePrefix),
			renderRow("Database", cfg.DatabasePath),
			renderRow("Log File", cfg.LogPath),
			renderRow("Notifications", onOff(cfg.Notify)),
		)
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderAboutCard() string {
	rows := []string{
		styles.CardTitleStyle.Render("About " + version.Name),
		"",
		renderRow("Version", version.GetVersion()),
		renderRow("Build Date", version.GetDate()),
		renderRow("Git Commit", version.GetCommit()),
		renderRow("Go Version", runtime.Version()),
		renderRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
		"",
		fmt.Sprintf("Exports recorded: %s   CSV files: %s",
			styles.InfoTextStyle.Render(fmt.Sprintf("%d", len(m.state.GetHistory()))),
			styles.InfoTextStyle.Render(fmt.Sprintf("%d", len(m.state.GetFiles()))),
		),
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(16).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func credentials(token, cookie string) string {
	switch {
	case token != "" && cookie != "":
		return "bearer token, session cookie"
	case token != "":
		return "bearer token"
	case cookie != "":
		return "session cookie"
	default:
		return styles.WarningTextStyle.Render("none (set VDC_AUTH_TOKEN or VDC_SESSION_COOKIE)")
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
