// Package export provides the export tab: scope and month range selection,
// live progress of a running export and a summary of the last result.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/vault-usage-export/internal/app"
	"github.com/j-veylop/vault-usage-export/internal/models"
	"github.com/j-veylop/vault-usage-export/internal/ui/components"
)

// field identifies which text input owns the keyboard.
type field int

const (
	fieldNone field = iota
	fieldTenant
	fieldFrom
	fieldTo
)

var scopeKinds = []models.ScopeKind{
	models.ScopeAllTenants,
	models.ScopeSingleTenant,
	models.ScopeSummaryOnly,
}

// keyMap defines the key bindings specific to the export tab.
type keyMap struct {
	Export     key.Binding
	CycleMode  key.Binding
	EditTenant key.Binding
	ToggleDate key.Binding
	EditFrom   key.Binding
	EditTo     key.Binding
	Cancel     key.Binding
}

// defaultKeyMap returns the default key bindings for the export tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Export: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "export"),
		),
		CycleMode: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "cycle mode"),
		),
		EditTenant: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "tenant id"),
		),
		ToggleDate: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "date filter"),
		),
		EditFrom: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "from month"),
		),
		EditTo: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "to month"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel edit"),
		),
	}
}

// Model represents the export tab state.
type Model struct {
	state    *app.State
	now      func() time.Time
	spinner  components.LoadingSpinner
	progress components.StatsProgress
	keys     keyMap
	viewport viewport.Model

	tenant textinput.Model
	from   textinput.Model
	to     textinput.Model

	// value of the focused input before editing, restored on cancel
	previous string
	errorMsg string

	mode       int
	focus      field
	dateFilter bool
	width      int
	height     int
}

// New creates a new export tab.
func New(state *app.State) *Model {
	return &Model{
		state:    state,
		now:      time.Now,
		spinner:  components.NewSpinner(""),
		progress: components.NewStatsProgress(40),
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		tenant:   newInput("tenant id", 64),
		from:     newInput("YYYY-MM", 7),
		to:       newInput("YYYY-MM", 7),
	}
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Prompt = ""
	ti.Width = max(limit, len(placeholder))
	return ti
}

// Preset selects the scope and month range of req, e.g. from a portal URL
// given on the command line.
func (m *Model) Preset(req models.ExportRequest) {
	for i, k := range scopeKinds {
		if k == req.Scope.Kind {
			m.mode = i
		}
	}
	m.tenant.SetValue(req.Scope.TenantID)
	if req.DateRange.Enabled() {
		m.dateFilter = true
		m.from.SetValue(req.DateRange.From)
		m.to.SetValue(req.DateRange.To)
	}
}

// Init initializes the export tab.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Init()
}

// CapturingInput reports whether a text input is being edited.
func (m *Model) CapturingInput() bool {
	return m.focus != fieldNone
}

// Mode returns the selected scope kind.
func (m *Model) Mode() models.ScopeKind {
	return scopeKinds[m.mode]
}

// Request builds the export request from the current selections.
func (m *Model) Request() models.ExportRequest {
	req := models.ExportRequest{}
	switch m.Mode() {
	case models.ScopeSingleTenant:
		req.Scope = models.SingleTenant(strings.TrimSpace(m.tenant.Value()))
	case models.ScopeSummaryOnly:
		req.Scope = models.SummaryOnly()
	default:
		req.Scope = models.AllTenants()
	}
	if m.dateFilter {
		req.DateRange = models.DateRange{
			From: strings.TrimSpace(m.from.Value()),
			To:   strings.TrimSpace(m.to.Value()),
		}
	}
	return req
}

// Update handles messages for the export tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.focus != fieldNone {
			return m, m.handleEditKey(msg)
		}
		cmds = append(cmds, m.handleKeyMsg(msg))

	case app.StartExportMsg:
		m.errorMsg = ""
		m.progress.Reset()
		cmds = append(cmds, m.spinner.Tick())

	case app.ExportUpdatedMsg:
		cmds = append(cmds, m.progress.Set(msg.Completed, msg.Total))

	case spinner.TickMsg:
		// The tick chain stops once the export settled.
		if m.state.IsExporting() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	default:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if m.state.IsExporting() {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}

	switch {
	case key.Matches(msg, m.keys.Export):
		return m.startExport()

	case key.Matches(msg, m.keys.CycleMode):
		m.mode = (m.mode + 1) % len(scopeKinds)
		m.errorMsg = ""

	case key.Matches(msg, m.keys.EditTenant):
		m.mode = indexOf(models.ScopeSingleTenant)
		return m.focusField(fieldTenant)

	case key.Matches(msg, m.keys.ToggleDate):
		m.toggleDateFilter()

	case key.Matches(msg, m.keys.EditFrom):
		if m.dateFilter {
			return m.focusField(fieldFrom)
		}

	case key.Matches(msg, m.keys.EditTo):
		if m.dateFilter {
			return m.focusField(fieldTo)
		}

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

// toggleDateFilter flips the month filter. Enabling it fills both bounds
// with the current month.
func (m *Model) toggleDateFilter() {
	m.dateFilter = !m.dateFilter
	if m.dateFilter {
		current := m.now().Format("2006-01")
		m.from.SetValue(current)
		m.to.SetValue(current)
	}
}

func (m *Model) startExport() tea.Cmd {
	req := m.Request()
	if req.Scope.Kind == models.ScopeSingleTenant && req.Scope.TenantID == "" {
		m.errorMsg = "Enter a tenant id first (press i)"
		return nil
	}
	if err := req.DateRange.Validate(); err != nil {
		m.errorMsg = err.Error()
		return nil
	}
	m.errorMsg = ""
	return func() tea.Msg {
		return app.StartExportMsg{Request: req}
	}
}

func (m *Model) input(f field) *textinput.Model {
	switch f {
	case fieldTenant:
		return &m.tenant
	case fieldFrom:
		return &m.from
	case fieldTo:
		return &m.to
	}
	return nil
}

func (m *Model) focusField(f field) tea.Cmd {
	in := m.input(f)
	m.focus = f
	m.previous = in.Value()
	in.CursorEnd()
	return in.Focus()
}

func (m *Model) blur() {
	if in := m.input(m.focus); in != nil {
		in.Blur()
	}
	m.focus = fieldNone
}

func (m *Model) handleEditKey(msg tea.KeyMsg) tea.Cmd {
	in := m.input(m.focus)

	switch msg.Type {
	case tea.KeyEnter:
		in.SetValue(strings.TrimSpace(in.Value()))
		m.blur()
		return nil
	case tea.KeyEsc:
		in.SetValue(m.previous)
		m.blur()
		return nil
	}

	var cmd tea.Cmd
	*in, cmd = in.Update(msg)
	return cmd
}

func indexOf(kind models.ScopeKind) int {
	for i, k := range scopeKinds {
		if k == kind {
			return i
		}
	}
	return 0
}

// SetSize sets the available size for the export tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.progress.SetWidth(min(max(width-40, 10), 60))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Export,
		m.keys.CycleMode,
		m.keys.EditTenant,
		m.keys.ToggleDate,
		m.keys.EditFrom,
		m.keys.EditTo,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Export, m.keys.CycleMode, m.keys.EditTenant},
		{m.keys.ToggleDate, m.keys.EditFrom, m.keys.EditTo},
		{m.keys.Cancel},
	}
}

func modeLabel(kind models.ScopeKind) string {
	switch kind {
	case models.ScopeSingleTenant:
		return "Single tenant"
	case models.ScopeSummaryOnly:
		return "Summary"
	default:
		return "All tenants"
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(100 * time.Millisecond).String()
}
