package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/vault-usage-export/internal/models"
	"github.com/j-veylop/vault-usage-export/internal/services"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is how long success and warning toasts stay.
	DefaultNotificationDuration = 5 * time.Second

	// LongNotificationDuration keeps errors on screen longer.
	LongNotificationDuration = 10 * time.Second

	// HistoryLimit is how many past exports the TUI shows.
	HistoryLimit = 50
)

// tickCmd schedules the next TickMsg, which expires stale notifications.
func tickCmd() tea.Cmd {
	return tea.Tick(DefaultTickInterval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// reloadCmd reads history and output files together.
func reloadCmd(mgr *services.Manager) tea.Cmd {
	return tea.Batch(
		loadHistoryCmd(mgr),
		loadFilesCmd(mgr),
	)
}

// loadHistoryCmd returns a command that reads recent exports.
func loadHistoryCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		records, err := mgr.History(HistoryLimit)
		return HistoryLoadedMsg{Records: records, Error: err}
	}
}

// loadFilesCmd returns a command that lists the output directory.
func loadFilesCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		return FilesLoadedMsg{Files: mgr.Files()}
	}
}

// runExportCmd returns a command that runs one export to completion or until
// ctx is cancelled. Progress arrives separately through the service
// subscription.
func runExportCmd(ctx context.Context, mgr *services.Manager, req models.ExportRequest) tea.Cmd {
	return func() tea.Msg {
		result, rec, err := mgr.RunExport(ctx, req, services.RunOptions{})
		return ExportDoneMsg{Result: result, Record: rec, Error: err}
	}
}

// subscribeToServicesCmd registers with the manager and hands the channel
// back to the root model.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd blocks for one event. A closed channel ends the loop.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// clearNotificationCmd drops notification id once delay has passed.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

func notifyCmd(t NotificationType, message string, d time.Duration) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{Type: t, Message: message, Duration: d}
	}
}

func notifySuccessCmd(message string) tea.Cmd {
	return notifyCmd(NotificationSuccess, message, DefaultNotificationDuration)
}

func notifyErrorCmd(message string) tea.Cmd {
	return notifyCmd(NotificationError, message, LongNotificationDuration)
}

func notifyWarningCmd(message string) tea.Cmd {
	return notifyCmd(NotificationWarning, message, DefaultNotificationDuration)
}
