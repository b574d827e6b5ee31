// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/vault-usage-export/internal/models"
	"github.com/j-veylop/vault-usage-export/internal/ui/styles"
)

// RenderLineChart creates a single-series ASCII line chart.
func RenderLineChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	// Ensure minimum dimensions
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	// asciigraph needs two points to draw a line
	if len(data) == 1 {
		data = []float64{data[0], data[0]}
	}

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(2),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Green),
	)
}

// RenderTrendChart plots monthly usage totals with the first and last month
// as axis labels.
func RenderTrendChart(totals []models.MonthlyTotal, width, height int) string {
	if len(totals) == 0 {
		return styles.HelpStyle.Render("No monthly usage in this export")
	}

	values := make([]float64, len(totals))
	for i, t := range totals {
		values[i] = t.Value
	}

	caption := fmt.Sprintf("Usage TB per month (%s – %s)", totals[0].Month, totals[len(totals)-1].Month)
	return RenderLineChart(values, width, height, caption)
}

// RenderMonthlyBars renders one bar per month using the exact decimal text
// of each total as its value label.
func RenderMonthlyBars(totals []models.MonthlyTotal, width int) string {
	if len(totals) == 0 {
		return ""
	}

	labelWidth := 0
	valueWidth := 0
	maxVal := 0.0
	for _, t := range totals {
		labelWidth = max(labelWidth, len(t.Month))
		valueWidth = max(valueWidth, len(t.UsageTB))
		maxVal = max(maxVal, t.Value)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	barWidth := max(width-labelWidth-valueWidth-4, 10)

	lines := make([]string, 0, len(totals))
	for _, t := range totals {
		barLen := max(int((t.Value/maxVal)*float64(barWidth)), 0)
		lines = append(lines, fmt.Sprintf("%-*s │%s %s",
			labelWidth, t.Month,
			lipgloss.NewStyle().Foreground(styles.Vault).Render(strings.Repeat("█", barLen)),
			styles.HelpStyle.Render(t.UsageTB),
		))
	}
	return strings.Join(lines, "\n")
}
