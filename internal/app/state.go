// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/j-veylop/vault-usage-export/internal/models"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	maxNotifications = 10
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	CreatedAt time.Time
	ID        string
	Message   string
	Type      NotificationType
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// LoadingState tracks loading states for different resources.
type LoadingState struct {
	Initial bool
	History bool
}

// ExportProgress is a snapshot of the export currently running, or of the
// last one once it has settled.
type ExportProgress struct {
	StartedAt time.Time
	Request   models.ExportRequest
	ID        string
	Status    string
	Warnings  []string
	Completed int
	Total     int
	Running   bool
}

// State is the data shared by the root model and its tabs. Every accessor
// is safe for concurrent use.
type State struct {
	LastUpdated time.Time

	export     ExportProgress
	lastResult *models.ExportResult
	lastRecord *models.ExportRecord
	lastError  string
	settledID  string

	history []models.ExportRecord
	files   []models.OutputFile

	Loading LoadingState

	notifications   []Notification
	notificationSeq int

	mu sync.RWMutex
}

// NewState creates an empty state with the initial load pending.
func NewState() *State {
	return &State{
		notifications: make([]Notification, 0),
		Loading: LoadingState{
			Initial: true,
		},
	}
}

// SetLoading sets the loading state for a specific resource.
func (s *State) SetLoading(resource string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch resource {
	case "initial":
		s.Loading.Initial = loading
	case "history":
		s.Loading.History = loading
	}
}

// AnyLoading returns true if any resource is currently loading.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.Loading.Initial || s.Loading.History
}

// IsInitialLoading returns true if initial data is still loading.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial
}

// BeginExport marks an export as requested. It returns false when another
// export is still running.
func (s *State) BeginExport(req models.ExportRequest) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.export.Running {
		return false
	}
	s.export = ExportProgress{
		StartedAt: time.Now(),
		Request:   req,
		Status:    "Fetching data...",
		Running:   true,
	}
	s.lastError = ""
	return true
}

// AttachExportID binds the running export to the id the manager assigned.
// Events of an export that already settled are ignored.
func (s *State) AttachExportID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.export.Running || id == s.settledID {
		return
	}
	s.export.ID = id
}

// accepts reports whether an event for id belongs to the running export.
func (s *State) accepts(id string) bool {
	if !s.export.Running || id == s.settledID {
		return false
	}
	return s.export.ID == "" || s.export.ID == id
}

// SetExportStatus updates the status line of the running export.
func (s *State) SetExportStatus(id, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accepts(id) {
		s.export.Status = status
	}
}

// SetExportProgress records how many tenants' statistics have settled.
// It returns false when the update was stale.
func (s *State) SetExportProgress(id string, completed, total int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.accepts(id) {
		return false
	}
	s.export.Completed = completed
	s.export.Total = total
	return true
}

// AddExportWarning records a tenant whose statistics failed.
func (s *State) AddExportWarning(id, tenantName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accepts(id) {
		s.export.Warnings = append(s.export.Warnings, tenantName)
	}
}

// FinishExport settles the running export with its result.
func (s *State) FinishExport(result *models.ExportResult, rec *models.ExportRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.export.Running = false
	s.export.Status = result.Message()
	s.export.Warnings = append([]string(nil), result.Warnings...)
	if rec != nil {
		s.export.ID = rec.ID
		s.settledID = rec.ID
		recCopy := *rec
		s.lastRecord = &recCopy
	}
	s.lastResult = result
	s.lastError = ""
	s.LastUpdated = time.Now()
}

// FailExport settles the running export with a fatal error. rec is nil when
// the export never started.
func (s *State) FailExport(err error, rec *models.ExportRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.export.Running = false
	s.export.Status = err.Error()
	if rec != nil {
		s.export.ID = rec.ID
		s.settledID = rec.ID
		recCopy := *rec
		s.lastRecord = &recCopy
	}
	s.lastError = err.Error()
	s.LastUpdated = time.Now()
}

// IsExporting reports whether an export is in flight.
func (s *State) IsExporting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.export.Running
}

// GetExport returns a copy of the current export progress.
func (s *State) GetExport() ExportProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := s.export
	p.Warnings = append([]string(nil), s.export.Warnings...)
	return p
}

// GetLastResult returns the result of the last successful export.
func (s *State) GetLastResult() *models.ExportResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult
}

// GetLastRecord returns the history record of the last settled export.
func (s *State) GetLastRecord() *models.ExportRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRecord
}

// GetLastError returns the error of the last export, if it failed.
func (s *State) GetLastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// SetHistory replaces the export history list.
func (s *State) SetHistory(records []models.ExportRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = records
	s.LastUpdated = time.Now()
}

// GetHistory returns a copy of the export history, newest first.
func (s *State) GetHistory() []models.ExportRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]models.ExportRecord, len(s.history))
	copy(records, s.history)
	return records
}

// SetFiles replaces the list of CSV files in the output directory.
func (s *State) SetFiles(files []models.OutputFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = files
}

// GetFiles returns a copy of the output file list.
func (s *State) GetFiles() []models.OutputFile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := make([]models.OutputFile, len(s.files))
	copy(files, s.files)
	return files
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// ClearAllNotifications removes all notifications.
func (s *State) ClearAllNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = make([]Notification, 0)
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}

// TimeSinceUpdate returns the duration since the last update.
func (s *State) TimeSinceUpdate() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.LastUpdated.IsZero() {
		return 0
	}
	return time.Since(s.LastUpdated)
}
