// Package services provides service orchestration for the TUI and the CLI.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/google/uuid"

	"github.com/j-veylop/vault-usage-export/internal/config"
	"github.com/j-veylop/vault-usage-export/internal/db"
	"github.com/j-veylop/vault-usage-export/internal/logger"
	"github.com/j-veylop/vault-usage-export/internal/models"
	"github.com/j-veylop/vault-usage-export/internal/services/export"
	"github.com/j-veylop/vault-usage-export/internal/services/outputs"
	"github.com/j-veylop/vault-usage-export/internal/services/vdc"
)

// ErrExportRunning is returned when an export is requested while another one
// is still in flight.
var ErrExportRunning = errors.New("an export is already running")

type (
	// ExportStartedEvent is emitted when an export begins.
	ExportStartedEvent struct {
		ID      string
		Request models.ExportRequest
	}

	// ExportStatusEvent carries a status line of a running export.
	ExportStatusEvent struct {
		ID      string
		Message string
	}

	// ExportProgressEvent is emitted each time a tenant's statistics settle.
	ExportProgressEvent struct {
		ID        string
		Completed int
		Total     int
	}

	// ExportWarningEvent names a tenant whose statistics could not be fetched.
	ExportWarningEvent struct {
		ID         string
		TenantName string
	}

	// ExportFinishedEvent is emitted when an export produced a file.
	ExportFinishedEvent struct {
		Result *models.ExportResult
		Record models.ExportRecord
	}

	// ExportFailedEvent is emitted when an export stopped with a fatal error.
	ExportFailedEvent struct {
		Error  error
		Record models.ExportRecord
	}

	// FilesChangedEvent is emitted when the output directory changes.
	FilesChangedEvent struct {
		Files []models.OutputFile
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (ExportStartedEvent) isServiceEvent()  {}
func (ExportStatusEvent) isServiceEvent()   {}
func (ExportProgressEvent) isServiceEvent() {}
func (ExportWarningEvent) isServiceEvent()  {}
func (ExportFinishedEvent) isServiceEvent() {}
func (ExportFailedEvent) isServiceEvent()   {}
func (FilesChangedEvent) isServiceEvent()   {}
func (ErrorEvent) isServiceEvent()          {}

// RunOptions controls a single RunExport call.
type RunOptions struct {
	// Sink receives the export callbacks in addition to subscribers.
	Sink export.Sink
	// SkipWrite keeps the CSV in memory; the caller writes it elsewhere.
	SkipWrite bool
}

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	client      *vdc.Client
	exporter    *export.Exporter
	outputs     *outputs.Service
	database    *db.DB
	notify      func(title, body string) error
	stopChan    chan struct{}
	subscribers []chan<- ServiceEvent
	running     bool

	closeOnce sync.Once
	closeErr  error
}

// NewManager creates a new service manager.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		cfg:      cfg,
		stopChan: make(chan struct{}),
		notify: func(title, body string) error {
			return beeep.Notify(title, body, "")
		},
	}

	var err error
	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	m.outputs, err = outputs.New(cfg.OutputDir, cfg.FilenamePrefix)
	if err != nil {
		_ = m.database.Close()
		return nil, err
	}

	m.buildExporter()

	go m.routeEvents()

	return m, nil
}

// buildExporter (re)creates the API client and exporter from the config.
func (m *Manager) buildExporter() {
	m.client = vdc.New(vdc.Config{
		BaseURL:       m.cfg.BaseURL,
		AuthToken:     m.cfg.AuthToken,
		SessionCookie: m.cfg.SessionCookie,
		UserAgent:     m.cfg.UserAgent,
		Timeout:       m.cfg.RequestTimeout,
	})
	m.exporter = export.New(m.client, export.Options{FilenamePrefix: m.cfg.FilenamePrefix})
}

// UseEnvironment points subsequent exports at env.
func (m *Manager) UseEnvironment(env config.Environment) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if env == m.cfg.Environment {
		return
	}
	m.cfg.SetEnvironment(env)
	m.buildExporter()
	logger.Info("environment switched", "environment", string(env), "base_url", m.cfg.BaseURL)
}

// Environment returns the environment exports run against.
func (m *Manager) Environment() config.Environment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.Environment
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	for {
		select {
		case event := <-m.outputs.Events():
			m.handleOutputsEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleOutputsEvent(event outputs.Event) {
	switch event.Type {
	case outputs.EventFilesLoaded, outputs.EventFilesChanged:
		m.broadcast(FilesChangedEvent{Files: m.outputs.Files()})

	case outputs.EventError:
		m.broadcast(ErrorEvent{
			Service: "outputs",
			Error:   event.Error,
		})
	}
}

// RunExport runs one export, writes the CSV into the output directory and
// records the attempt in the history database. Fatal errors are recorded as
// failed exports and returned.
func (m *Manager) RunExport(ctx context.Context, req models.ExportRequest, opts RunOptions) (*models.ExportResult, *models.ExportRecord, error) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil, nil, ErrExportRunning
	}
	m.running = true
	exporter := m.exporter
	rec := &models.ExportRecord{
		ID:          uuid.NewString(),
		StartedAt:   time.Now(),
		Environment: string(m.cfg.Environment),
		Scope:       req.Scope.String(),
		DateFrom:    req.DateRange.From,
		DateTo:      req.DateRange.To,
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	m.broadcast(ExportStartedEvent{ID: rec.ID, Request: req})
	logger.Info("export started", "id", rec.ID, "scope", rec.Scope, "range", req.DateRange.String())

	sink := &eventSink{id: rec.ID, manager: m, next: opts.Sink}
	result, err := exporter.Export(ctx, req, sink)
	rec.FinishedAt = time.Now()

	if err == nil && !opts.SkipWrite {
		rec.Path, err = export.WriteFile(m.cfg.OutputDir, result.Filename, result.CSV)
	}

	if err != nil {
		rec.Outcome = models.OutcomeFailed
		rec.Error = err.Error()
		m.record(rec)
		m.broadcast(ExportFailedEvent{Error: err, Record: *rec})
		m.sendNotification("Export failed", err.Error())
		return nil, rec, err
	}

	rec.Filename = result.Filename
	rec.Outcome = result.Outcome
	rec.FailedTenants = result.Warnings
	rec.TenantCount = result.TenantCount
	rec.RowCount = len(result.Rows)
	m.record(rec)

	m.broadcast(ExportFinishedEvent{Result: result, Record: *rec})
	m.sendNotification(result.Message(), result.Filename)

	return result, rec, nil
}

// record stores rec in the history database. History is best effort.
func (m *Manager) record(rec *models.ExportRecord) {
	if err := m.database.InsertExport(rec); err != nil {
		logger.Error("failed to record export", "id", rec.ID, "error", err)
		m.broadcast(ErrorEvent{Service: "history", Error: err})
	}
}

func (m *Manager) sendNotification(title, body string) {
	if !m.cfg.Notify || m.notify == nil {
		return
	}
	if err := m.notify(title, body); err != nil {
		logger.Debug("desktop notification failed", "error", err)
	}
}

// History returns the most recent exports, newest first.
func (m *Manager) History(limit int) ([]models.ExportRecord, error) {
	if m.database == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return m.database.GetRecentExports(limit)
}

// Files returns the CSV files in the output directory, newest first.
func (m *Manager) Files() []models.OutputFile {
	return m.outputs.Files()
}

// OutputDir returns the directory exports are written to.
func (m *Manager) OutputDir() string {
	return m.outputs.Dir()
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
		}
	}
}

// Subscribe creates a channel for receiving service events. Events are
// dropped for a subscriber whose buffer is full.
func (m *Manager) Subscribe() chan ServiceEvent {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Close closes the manager and all its services. Later calls return the
// result of the first.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		m.closeErr = m.close()
	})
	return m.closeErr
}

func (m *Manager) close() error {
	if m.stopChan != nil {
		close(m.stopChan)
	}

	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	var errs []error

	if m.outputs != nil {
		if err := m.outputs.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if m.database != nil {
		if err := m.database.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// eventSink forwards export callbacks to subscribers and an optional sink.
type eventSink struct {
	manager *Manager
	next    export.Sink
	id      string
}

func (s *eventSink) OnStatus(msg string) {
	s.manager.broadcast(ExportStatusEvent{ID: s.id, Message: msg})
	if s.next != nil {
		s.next.OnStatus(msg)
	}
}

func (s *eventSink) OnProgress(completed, total int) {
	s.manager.broadcast(ExportProgressEvent{ID: s.id, Completed: completed, Total: total})
	if s.next != nil {
		s.next.OnProgress(completed, total)
	}
}

func (s *eventSink) OnWarning(tenantName string) {
	s.manager.broadcast(ExportWarningEvent{ID: s.id, TenantName: tenantName})
	if s.next != nil {
		s.next.OnWarning(tenantName)
	}
}

func (s *eventSink) OnDone(result *models.ExportResult) {
	if s.next != nil {
		s.next.OnDone(result)
	}
}
