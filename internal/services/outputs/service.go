// Package outputs tracks the CSV exports present in the output directory and
// reports changes made by this tool or anyone else.
package outputs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/vault-usage-export/internal/logger"
	"github.com/j-veylop/vault-usage-export/internal/models"
)

const debounceInterval = 100 * time.Millisecond

// Event represents an output directory event.
type Event struct {
	Error error
	Type  EventType
}

// EventType defines the type of output event.
type EventType int

const (
	EventFilesLoaded EventType = iota
	EventFilesChanged
	EventError
)

// Service lists the CSV files of one directory and watches it for changes.
type Service struct {
	mu            sync.RWMutex
	files         []models.OutputFile
	dir           string
	prefix        string
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
}

// New scans dir for CSV files starting with prefix and starts watching it.
// An empty prefix matches every CSV file.
func New(dir, prefix string) (*Service, error) {
	s := &Service{
		dir:       dir,
		prefix:    prefix,
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := s.Refresh(); err != nil {
		return nil, fmt.Errorf("failed to scan output directory: %w", err)
	}

	if err := s.startWatcher(); err != nil {
		return nil, fmt.Errorf("failed to start directory watcher: %w", err)
	}

	s.sendEvent(Event{Type: EventFilesLoaded})

	return s, nil
}

// Events returns the event channel for subscribing to directory changes.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Dir returns the watched directory.
func (s *Service) Dir() string {
	return s.dir
}

// Files returns the tracked files, newest first.
func (s *Service) Files() []models.OutputFile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := make([]models.OutputFile, len(s.files))
	copy(files, s.files)
	return files
}

// Refresh rescans the directory.
func (s *Service) Refresh() error {
	files, err := s.scan()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.files = files
	s.mu.Unlock()
	return nil
}

// Matches reports whether name is a file the service tracks.
func (s *Service) Matches(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if !strings.EqualFold(filepath.Ext(base), ".csv") {
		return false
	}
	return strings.HasPrefix(base, s.prefix)
}

func (s *Service) scan() ([]models.OutputFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var files []models.OutputFile
	for _, entry := range entries {
		if entry.IsDir() || !s.Matches(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info
			continue
		}
		files = append(files, models.OutputFile{
			ModTime: info.ModTime(),
			Name:    entry.Name(),
			Path:    filepath.Join(s.dir, entry.Name()),
			Size:    info.Size(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name > files[j].Name
		}
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

// startWatcher starts the file system watcher.
func (s *Service) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	if err := watcher.Add(s.dir); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go s.watchLoop()
	return nil
}

// watchLoop handles file system events with debouncing.
func (s *Service) watchLoop() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if !s.Matches(event.Name) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				s.mu.Lock()
				if s.debounceTimer != nil {
					s.debounceTimer.Stop()
				}
				s.debounceTimer = time.AfterFunc(debounceInterval, s.handleDirChange)
				s.mu.Unlock()
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

// handleDirChange rescans after a burst of events.
func (s *Service) handleDirChange() {
	if err := s.Refresh(); err != nil {
		s.sendEvent(Event{Type: EventError, Error: err})
		return
	}
	logger.Debug("output directory changed", "dir", s.dir)
	s.sendEvent(Event{Type: EventFilesChanged})
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the directory watcher.
func (s *Service) Close() error {
	close(s.stopChan)

	s.mu.Lock()
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.mu.Unlock()

	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
