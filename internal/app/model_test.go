package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/vault-usage-export/internal/models"
	"github.com/j-veylop/vault-usage-export/internal/services"
)

// stubTab records the messages it receives.
type stubTab struct {
	received  []tea.Msg
	capturing bool
}

func (s *stubTab) Init() tea.Cmd { return nil }

func (s *stubTab) Update(msg tea.Msg) (Tab, tea.Cmd) {
	s.received = append(s.received, msg)
	return s, nil
}

func (s *stubTab) View() string              { return "stub tab" }
func (s *stubTab) SetSize(_, _ int)          {}
func (s *stubTab) ShortHelp() []key.Binding  { return nil }
func (s *stubTab) FullHelp() [][]key.Binding { return nil }
func (s *stubTab) CapturingInput() bool      { return s.capturing }

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestNewModel(t *testing.T) {
	model := NewModel(nil)
	if model == nil {
		t.Fatal("NewModel returned nil")
	}
	if model.state == nil {
		t.Error("State should be initialized")
	}
	if model.activeTab != TabExport {
		t.Error("Default tab should be Export")
	}
	if len(model.tabs) != 3 {
		t.Errorf("Should have 3 tabs placeholder, got %d", len(model.tabs))
	}
}

func TestModel_Init(t *testing.T) {
	model := NewModel(nil)
	cmd := model.Init()
	if cmd == nil {
		t.Error("Init returned nil command")
	}
	if model.state.IsInitialLoading() {
		t.Error("Initial loading should end without services")
	}
}

func TestModel_Update_WindowSize(t *testing.T) {
	model := NewModel(nil)
	msg := tea.WindowSizeMsg{Width: 100, Height: 50}

	newModel, _ := model.Update(msg)

	m, ok := newModel.(*Model)
	if !ok {
		t.Fatal("Update returned wrong model type")
	}

	if m.width != 100 {
		t.Errorf("Width = %d, want 100", m.width)
	}
	if m.height != 50 {
		t.Errorf("Height = %d, want 50", m.height)
	}
	if !m.ready {
		t.Error("Model should be ready after WindowSizeMsg")
	}
}

func TestModel_Update_TabSwitch(t *testing.T) {
	model := NewModel(nil)
	model.ready = true
	model.width = 100
	model.height = 50

	newModel, _ := model.Update(TabSwitchMsg{Tab: TabHistory})
	m := newModel.(*Model)
	if m.activeTab != TabHistory {
		t.Errorf("ActiveTab = %v, want History", m.activeTab)
	}

	model.Update(runeKey('3'))
	if model.activeTab != TabInfo {
		t.Errorf("ActiveTab = %v, want Info", model.activeTab)
	}

	model.Update(tea.KeyMsg{Type: tea.KeyTab})
	if model.activeTab != TabExport {
		t.Errorf("ActiveTab after tab = %v, want Export", model.activeTab)
	}

	model.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if model.activeTab != TabInfo {
		t.Errorf("ActiveTab after shift+tab = %v, want Info", model.activeTab)
	}
}

func TestModel_QuitKeys(t *testing.T) {
	keys := []tea.KeyMsg{
		runeKey('q'),
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	}
	for _, k := range keys {
		t.Run(k.String(), func(t *testing.T) {
			model := NewModel(nil)
			cmd, handled := model.handleKeyMsg(k)
			if !handled || cmd == nil {
				t.Fatalf("%s should be handled with a command", k.String())
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Errorf("%s should quit", k.String())
			}
		})
	}
}

func TestModel_QuitCancelsContext(t *testing.T) {
	model := NewModel(nil)
	if err := model.ctx.Err(); err != nil {
		t.Fatalf("fresh model context already done: %v", err)
	}

	model.handleKeyMsg(runeKey('q'))

	select {
	case <-model.ctx.Done():
	default:
		t.Fatal("quitting should cancel the export context")
	}
	if !errors.Is(model.ctx.Err(), context.Canceled) {
		t.Errorf("ctx.Err() = %v, want context.Canceled", model.ctx.Err())
	}

	// A second shutdown from the program's exit path is harmless.
	model.Shutdown()
}

func TestModel_EscClosesHelpFirst(t *testing.T) {
	model := NewModel(nil)
	model.showHelp = true

	cmd, handled := model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyEsc})
	if !handled || cmd != nil {
		t.Error("Esc should close help without quitting")
	}
	if model.showHelp {
		t.Error("showHelp should be false")
	}
}

func TestModel_CapturingTabReceivesKeys(t *testing.T) {
	model := NewModel(nil)
	tab := &stubTab{capturing: true}
	model.SetTabs([]Tab{tab, nil, nil})

	_, cmd := model.Update(runeKey('q'))
	if cmd != nil {
		if _, ok := cmd().(tea.QuitMsg); ok {
			t.Fatal("q should not quit while a tab captures input")
		}
	}
	if len(tab.received) != 1 {
		t.Fatalf("tab received %d messages, want 1", len(tab.received))
	}

	cmd, _ = model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyCtrlC})
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should always quit")
	}
}

func TestModel_GlobalKeysNotForwarded(t *testing.T) {
	model := NewModel(nil)
	tab := &stubTab{}
	model.SetTabs([]Tab{tab, nil, nil})

	model.Update(runeKey('?'))
	if !model.showHelp {
		t.Error("? should toggle help")
	}
	if len(tab.received) != 0 {
		t.Errorf("tab should not receive consumed keys, got %v", tab.received)
	}

	model.Update(runeKey('m'))
	if len(tab.received) != 1 {
		t.Error("unbound keys should reach the tab")
	}
}

func TestModel_Update_Tick(t *testing.T) {
	model := NewModel(nil)
	msg := TickMsg{Time: time.Now()}

	_, cmd := model.Update(msg)
	if cmd == nil {
		t.Error("TickMsg should return a command (next tick)")
	}
}

func TestModel_View(t *testing.T) {
	model := NewModel(nil)

	view := model.View()
	if !strings.Contains(view, "Loading...") {
		t.Error("View should show Loading when not ready")
	}

	model.ready = true
	model.width = 80
	model.height = 24

	view = model.View()
	if !strings.Contains(view, "Export") {
		t.Error("View should show Export tab")
	}

	model.SetTabs([]Tab{&stubTab{}, nil, nil})
	if !strings.Contains(model.View(), "stub tab") {
		t.Error("View should render the active tab")
	}
}

func TestModel_Help(t *testing.T) {
	model := NewModel(nil)
	model.ready = true
	model.width = 80
	model.height = 24

	model.Update(ToggleHelpMsg{})
	if !model.showHelp {
		t.Error("showHelp should be true")
	}

	view := model.View()
	if !strings.Contains(view, "Keyboard Shortcuts") {
		t.Error("View should show help modal")
	}

	model.handleKeyMsg(runeKey('?'))
	if model.showHelp {
		t.Error("showHelp should be false after toggle")
	}
}

func TestModel_Notifications(t *testing.T) {
	model := NewModel(nil)

	model.Update(AddNotificationMsg{
		Message:  "Test Note",
		Type:     NotificationInfo,
		Duration: 0,
	})

	notifs := model.state.GetNotifications()
	if len(notifs) != 1 {
		t.Errorf("Expected 1 notification, got %d", len(notifs))
	}

	model.ready = true
	model.width = 80
	model.height = 24
	view := model.View()
	if !strings.Contains(view, "Test Note") {
		t.Error("View should show notification")
	}
}

func TestModel_StartExport_NoServices(t *testing.T) {
	model := NewModel(nil)

	cmds := model.handleStartExport(StartExportMsg{Request: models.ExportRequest{Scope: models.AllTenants()}})
	if len(cmds) != 1 {
		t.Fatalf("Expected 1 command, got %d", len(cmds))
	}
	msg, ok := cmds[0]().(AddNotificationMsg)
	if !ok || msg.Type != NotificationError {
		t.Errorf("Expected error notification, got %#v", cmds[0]())
	}
	if model.state.IsExporting() {
		t.Error("No export should be running")
	}
}

func TestModel_ExportEvents(t *testing.T) {
	model := NewModel(nil)
	model.state.BeginExport(models.ExportRequest{Scope: models.AllTenants()})

	model.handleServiceEvent(services.ExportStartedEvent{ID: "run-1"})
	model.handleServiceEvent(services.ExportStatusEvent{ID: "run-1", Message: "Found Org ID: org-1"})
	if cmd := model.handleServiceEvent(services.ExportProgressEvent{ID: "run-1", Completed: 1, Total: 2}); cmd == nil {
		t.Error("progress should notify tabs")
	}
	model.handleServiceEvent(services.ExportWarningEvent{ID: "run-1", TenantName: "Tenant B"})

	if cmd := model.handleServiceEvent(services.ExportProgressEvent{ID: "other", Completed: 2, Total: 2}); cmd != nil {
		t.Error("events of another run should be ignored")
	}

	p := model.state.GetExport()
	if p.Status != "Found Org ID: org-1" || p.Completed != 1 || p.Total != 2 {
		t.Errorf("progress = %+v", p)
	}
	if len(p.Warnings) != 1 || p.Warnings[0] != "Tenant B" {
		t.Errorf("Warnings = %v", p.Warnings)
	}

	result := &models.ExportResult{
		Filename:    "veeam_data_cloud_export_2025-03-07.csv",
		Warnings:    []string{"Tenant B"},
		TenantCount: 2,
		Outcome:     models.OutcomeWarnings,
	}
	rec := &models.ExportRecord{ID: "run-1", Outcome: models.OutcomeWarnings}
	model.Update(ExportDoneMsg{Result: result, Record: rec})

	if model.state.IsExporting() {
		t.Error("export should be settled")
	}
	if got := model.state.GetExport().Status; got != "Export complete with 1 error(s)." {
		t.Errorf("Status = %q", got)
	}
	if model.state.GetLastResult() != result {
		t.Error("last result not stored")
	}

	// Late events of a settled run are dropped.
	model.handleServiceEvent(services.ExportStatusEvent{ID: "run-1", Message: "late"})
	if got := model.state.GetExport().Status; got == "late" {
		t.Error("late status should be ignored")
	}
}

func TestModel_ExportDone_Notifications(t *testing.T) {
	tests := []struct {
		name string
		msg  ExportDoneMsg
		want NotificationType
	}{
		{
			name: "success",
			msg: ExportDoneMsg{
				Result: &models.ExportResult{TenantCount: 3, Outcome: models.OutcomeSuccess},
				Record: &models.ExportRecord{ID: "a"},
			},
			want: NotificationSuccess,
		},
		{
			name: "warnings",
			msg: ExportDoneMsg{
				Result: &models.ExportResult{Warnings: []string{"x"}, Outcome: models.OutcomeWarnings},
				Record: &models.ExportRecord{ID: "b"},
			},
			want: NotificationWarning,
		},
		{
			name: "failed",
			msg: ExportDoneMsg{
				Error:  errors.New("Could not fetch user data. Are you logged in?"),
				Record: &models.ExportRecord{ID: "c", Outcome: models.OutcomeFailed},
			},
			want: NotificationError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := NewModel(nil)
			model.state.BeginExport(models.ExportRequest{})

			cmds := model.handleExportDone(tt.msg)
			if len(cmds) == 0 {
				t.Fatal("Expected commands")
			}
			msg, ok := cmds[0]().(AddNotificationMsg)
			if !ok {
				t.Fatalf("Expected AddNotificationMsg, got %T", cmds[0]())
			}
			if msg.Type != tt.want {
				t.Errorf("Type = %v, want %v", msg.Type, tt.want)
			}
		})
	}
}

func TestModel_Update_Messages(t *testing.T) {
	model := NewModel(nil)

	model.Update(StartLoadingMsg{Resource: "history"})
	if !model.state.Loading.History {
		t.Error("Loading.History should be true")
	}

	model.Update(StopLoadingMsg{Resource: "history"})
	if model.state.Loading.History {
		t.Error("Loading.History should be false")
	}

	records := []models.ExportRecord{{ID: "a", Outcome: models.OutcomeSuccess}}
	model.Update(HistoryLoadedMsg{Records: records})
	if len(model.state.GetHistory()) != 1 {
		t.Error("History should be updated")
	}
	if model.state.IsInitialLoading() {
		t.Error("Initial loading should be false")
	}

	_, cmd := model.Update(HistoryLoadedMsg{Error: errors.New("db closed")})
	if cmd == nil {
		t.Error("History error should produce a notification")
	}
	if len(model.state.GetHistory()) != 1 {
		t.Error("History should be kept on error")
	}

	files := []models.OutputFile{{Name: "veeam_data_cloud_export_2025-03-07.csv"}}
	model.Update(FilesLoadedMsg{Files: files})
	if len(model.state.GetFiles()) != 1 {
		t.Error("Files should be updated")
	}

	model.handleServiceEvent(services.FilesChangedEvent{Files: nil})
	if len(model.state.GetFiles()) != 0 {
		t.Error("FilesChangedEvent should replace files")
	}

	// services is nil, so these only cover the switch
	model.Update(RefreshMsg{Resource: "all"})
	model.Update(RefreshMsg{Resource: "history"})
	model.Update(RefreshMsg{Resource: "files"})

	model.Update(AddNotificationMsg{Message: "test", Type: NotificationInfo})
	model.Update(RemoveNotificationMsg{ID: "nonexistent"})
	model.Update(ClearExpiredNotificationsMsg{})
}

func TestModel_HandleServiceEvent_Error(t *testing.T) {
	model := NewModel(nil)

	cmd := model.handleServiceEvent(services.ErrorEvent{Service: "outputs", Error: errors.New("watch failed")})
	if cmd == nil {
		t.Fatal("Error event should trigger notification command")
	}
	msg, ok := cmd().(AddNotificationMsg)
	if !ok || !strings.Contains(msg.Message, "[outputs] watch failed") {
		t.Errorf("unexpected notification %#v", cmd())
	}
}

func TestModel_HandleSpinnerTick(t *testing.T) {
	model := NewModel(nil)
	_, cmd := model.Update(spinner.TickMsg{})
	if cmd == nil {
		t.Error("Spinner tick should return command")
	}
}

func TestTabID_String(t *testing.T) {
	if TabExport.String() != "Export" {
		t.Error("TabExport.String() mismatch")
	}
	if TabHistory.String() != "History" {
		t.Error("TabHistory.String() mismatch")
	}
	if TabInfo.String() != "Info" {
		t.Error("TabInfo.String() mismatch")
	}
	if TabID(999).String() != "Unknown" {
		t.Error("Unknown tab string mismatch")
	}
}

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()
	if len(km.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(km.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}

func TestDefaultStyles(t *testing.T) {
	s := DefaultStyles()
	if got := s.TabBar.GetBorderBottom(); !got {
		t.Error("tab bar should draw a bottom border")
	}
}

func TestModel_NonKeyMessagesReachAllTabs(t *testing.T) {
	model := NewModel(nil)
	first, second := &stubTab{}, &stubTab{}
	model.SetTabs([]Tab{first, second, nil})

	model.Update(ExportUpdatedMsg{Completed: 1, Total: 2})
	if len(first.received) != 1 || len(second.received) != 1 {
		t.Errorf("received = %d/%d, want 1/1", len(first.received), len(second.received))
	}

	model.Update(runeKey('x'))
	if len(first.received) != 2 || len(second.received) != 1 {
		t.Errorf("keys should only reach the active tab, got %d/%d", len(first.received), len(second.received))
	}
}

func TestPlaceOver(t *testing.T) {
	tests := []struct {
		name string
		base string
		top  string
		x, y int
		want string
	}{
		{"inside", "abcdef\nghijkl", "XY", 2, 1, "abcdef\nghXYkl"},
		{"pads short line", "ab", "XY", 4, 0, "ab  XY"},
		{"grows base", "ab", "X\nY", 0, 1, "ab\nX\nY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := placeOver(tt.base, tt.top, tt.x, tt.y); got != tt.want {
				t.Errorf("placeOver() = %q, want %q", got, tt.want)
			}
		})
	}
}
