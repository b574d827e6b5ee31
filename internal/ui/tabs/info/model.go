// Package info provides the info tab showing configuration and build details.
package info

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/vault-usage-export/internal/app"
	"github.com/j-veylop/vault-usage-export/internal/config"
)

// Model is a read-only, scrollable page. cfg may be nil when the
// configuration failed to load.
type Model struct {
	state    *app.State
	config   *config.Config
	viewport viewport.Model
	width    int
	height   int
}

// New creates the info tab.
func New(state *app.State, cfg *config.Config) *Model {
	vp := viewport.New(0, 0)
	vp.MouseWheelEnabled = true
	return &Model{state: state, config: cfg, viewport: vp}
}

// Init implements app.Tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update scrolls the page. Data messages need no handling because View
// reads the shared state on every render.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg.(type) {
	case tea.KeyMsg, tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// SetSize implements app.Tab.
func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
	m.viewport.Width, m.viewport.Height = width, height
}

// ShortHelp lists the viewport's scroll bindings.
func (m *Model) ShortHelp() []key.Binding {
	km := m.viewport.KeyMap
	return []key.Binding{km.Up, km.Down, km.PageDown}
}

// FullHelp implements app.Tab.
func (m *Model) FullHelp() [][]key.Binding {
	km := m.viewport.KeyMap
	return [][]key.Binding{
		{km.Up, km.Down},
		{km.PageUp, km.PageDown},
	}
}
