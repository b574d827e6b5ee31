// Package history provides the history tab listing past exports and the
// CSV files in the output directory.
package history

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/vault-usage-export/internal/app"
	"github.com/j-veylop/vault-usage-export/internal/models"
	"github.com/j-veylop/vault-usage-export/internal/ui/styles"
)

// keyMap defines the key bindings specific to the history tab.
type keyMap struct {
	Up   key.Binding
	Down key.Binding
}

// defaultKeyMap returns the default key bindings for the history tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous export"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next export"),
		),
	}
}

// Model represents the history tab state.
type Model struct {
	state   *app.State
	table   table.Model
	keys    keyMap
	records []models.ExportRecord
	width   int
	height  int
}

// New creates a new history model.
func New(state *app.State) *Model {
	t := table.New(
		table.WithColumns(columns(100)),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Subtle).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Primary)
	s.Selected = s.Selected.
		Foreground(styles.TextPrimary).
		Background(styles.BgAccent).
		Bold(true)
	t.SetStyles(s)

	m := &Model{
		state: state,
		table: t,
		keys:  defaultKeyMap(),
	}
	m.refreshRows()
	return m
}

// Init initializes the history tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the history tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.HistoryLoadedMsg, app.FilesLoadedMsg, app.ServiceEventMsg:
		m.refreshRows()

	case tea.KeyMsg:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	return m, nil
}

// refreshRows rebuilds the table from the shared state, keeping the cursor
// in range.
func (m *Model) refreshRows() {
	m.records = m.state.GetHistory()

	rows := make([]table.Row, 0, len(m.records))
	for i := range m.records {
		rows = append(rows, recordRow(&m.records[i]))
	}
	m.table.SetRows(rows)

	if len(rows) == 0 {
		return
	}
	// An empty table leaves the cursor at -1.
	switch cursor := m.table.Cursor(); {
	case cursor < 0:
		m.table.SetCursor(0)
	case cursor >= len(rows):
		m.table.SetCursor(len(rows) - 1)
	}
}

// Selected returns the record under the cursor.
func (m *Model) Selected() (models.ExportRecord, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.records) {
		return models.ExportRecord{}, false
	}
	return m.records[i], true
}

func recordRow(rec *models.ExportRecord) table.Row {
	outcome := string(rec.Outcome)

	file := rec.Filename
	if file == "" {
		file = "-"
	}

	return table.Row{
		styles.OutcomeSymbol(outcome),
		rec.StartedAt.Format("2006-01-02 15:04"),
		rec.Scope,
		dateRange(rec),
		fmt.Sprintf("%d", rec.TenantCount),
		fmt.Sprintf("%d", rec.RowCount),
		fmt.Sprintf("%d", len(rec.FailedTenants)),
		formatDuration(rec.Duration()),
		file,
	}
}

func dateRange(rec *models.ExportRecord) string {
	return models.DateRange{From: rec.DateFrom, To: rec.DateTo}.String()
}

// columns sizes the table to width; the file column takes what is left.
func columns(width int) []table.Column {
	cols := []table.Column{
		{Title: " ", Width: 1},
		{Title: "Started", Width: 16},
		{Title: "Scope", Width: 14},
		{Title: "Range", Width: 16},
		{Title: "Tenants", Width: 7},
		{Title: "Rows", Width: 6},
		{Title: "Failed", Width: 6},
		{Title: "Took", Width: 7},
	}

	used := 0
	for _, c := range cols {
		used += c.Width + 2
	}
	return append(cols, table.Column{Title: "File", Width: max(width-used, 12)})
}

// SetSize sets the available size for the history tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	m.table.SetColumns(columns(width - 10))
	m.table.SetHeight(max(height/2-4, 5))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Up,
		m.keys.Down,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Up, m.keys.Down},
	}
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(100 * time.Millisecond).String()
}

func truncate(s string, width int) string {
	return ansi.Truncate(s, width, "…")
}
