package app

import (
	"time"

	"github.com/j-veylop/vault-usage-export/internal/models"
	"github.com/j-veylop/vault-usage-export/internal/services"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// HistoryLoadedMsg contains the recent exports read from the database.
type HistoryLoadedMsg struct {
	Error   error
	Records []models.ExportRecord
}

// FilesLoadedMsg contains the CSV files found in the output directory.
type FilesLoadedMsg struct {
	Files []models.OutputFile
}

// StartExportMsg asks the root model to run an export.
type StartExportMsg struct {
	Request models.ExportRequest
}

// ExportDoneMsg carries the outcome of an export run. Record is nil when
// the run was rejected before it started.
type ExportDoneMsg struct {
	Result *models.ExportResult
	Record *models.ExportRecord
	Error  error
}

// ExportUpdatedMsg tells tabs that the export progress in State changed.
type ExportUpdatedMsg struct {
	Completed int
	Total     int
}

// RefreshMsg requests a refresh of data.
type RefreshMsg struct {
	Resource string // "all", "history", "files"
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Message  string
	Type     NotificationType
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}
