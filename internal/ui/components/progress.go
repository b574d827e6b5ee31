package components

import (
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/vault-usage-export/internal/services/aggregate"
	"github.com/j-veylop/vault-usage-export/internal/ui/styles"
)

// StatsProgress renders the per-tenant statistics fetch as an animated bar
// followed by the "Fetching stats: c/t (p%)" label.
type StatsProgress struct {
	progress  progress.Model
	completed int
	total     int
}

// NewStatsProgress creates a progress bar of the given width.
func NewStatsProgress(width int) StatsProgress {
	p := progress.New(
		progress.WithScaledGradient("#5A56E0", "#04B575"),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	return StatsProgress{progress: p}
}

// Update forwards animation frames to the underlying bar.
func (s StatsProgress) Update(msg tea.Msg) (StatsProgress, tea.Cmd) {
	model, cmd := s.progress.Update(msg)
	if p, ok := model.(progress.Model); ok {
		s.progress = p
	}
	return s, cmd
}

// Set records a new completed/total pair and animates towards it.
func (s *StatsProgress) Set(completed, total int) tea.Cmd {
	s.completed = completed
	s.total = total
	return s.progress.SetPercent(s.Percent())
}

// Reset clears the bar without animation.
func (s *StatsProgress) Reset() {
	s.completed = 0
	s.total = 0
	s.progress.SetPercent(0)
}

// Percent returns the completed fraction in [0, 1].
func (s StatsProgress) Percent() float64 {
	if s.total <= 0 {
		return 0
	}
	return float64(s.completed) / float64(s.total)
}

// Counts returns the last completed/total pair.
func (s StatsProgress) Counts() (completed, total int) {
	return s.completed, s.total
}

// SetWidth resizes the bar.
func (s *StatsProgress) SetWidth(width int) {
	s.progress.Width = max(width, 10)
}

// Label returns the status line for the current counts.
func (s StatsProgress) Label() string {
	return aggregate.ProgressMessage(s.completed, s.total)
}

// View renders the bar and its label.
func (s StatsProgress) View() string {
	return lipgloss.JoinHorizontal(lipgloss.Center,
		styles.ProgressBarStyle.Render(s.progress.View()),
		styles.ProgressPercentStyle.UnsetWidth().Render(s.Label()),
	)
}
