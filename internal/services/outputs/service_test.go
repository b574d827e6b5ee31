package outputs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestService(t *testing.T, prefix string) (*Service, string) {
	t.Helper()

	dir := t.TempDir()
	svc, err := New(dir, prefix)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	t.Cleanup(func() {
		if err := svc.Close(); err != nil {
			t.Logf("Close() failed: %v", err)
		}
	})

	return svc, dir
}

// waitForEvent drains events until want arrives or the timeout expires.
func waitForEvent(t *testing.T, svc *Service, want EventType) {
	t.Helper()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-svc.Events():
			if ev.Type == want {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for event %d", want)
		}
	}
}

func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	svc, err := New(dir, "")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer func() { _ = svc.Close() }()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("output directory was not created: %v", err)
	}
	if svc.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", svc.Dir(), dir)
	}
}

func TestNew_ScansExistingFiles(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "veeam_data_cloud_export_2025-01-01.csv")
	newer := filepath.Join(dir, "veeam_data_cloud_summary_export_2025-02-01.csv")
	for _, p := range []string{older, newer, filepath.Join(dir, "notes.txt"), filepath.Join(dir, "other.csv")} {
		if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatal(err)
	}

	svc, err := New(dir, "veeam_data_cloud")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer func() { _ = svc.Close() }()

	files := svc.Files()
	if len(files) != 2 {
		t.Fatalf("Files() returned %d files, want 2", len(files))
	}
	if files[0].Path != newer {
		t.Errorf("newest file = %s, want %s", files[0].Path, newer)
	}
	if files[1].Name != filepath.Base(older) {
		t.Errorf("oldest file = %s, want %s", files[1].Name, filepath.Base(older))
	}
}

func TestMatches(t *testing.T) {
	svc := &Service{prefix: "veeam_data_cloud"}

	tests := []struct {
		name string
		want bool
	}{
		{"veeam_data_cloud_export_2025-03-07.csv", true},
		{"/tmp/out/veeam_data_cloud_export_2025-03-07.CSV", true},
		{".veeam_data_cloud_export_2025-03-07.csv.123.tmp", false},
		{".veeam_data_cloud_hidden.csv", false},
		{"report.csv", false},
		{"veeam_data_cloud_export.txt", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.Matches(tt.name); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestWatcher_DetectsNewFile(t *testing.T) {
	svc, dir := newTestService(t, "")
	waitForEvent(t, svc, EventFilesLoaded)

	path := filepath.Join(dir, "export.csv")
	if err := os.WriteFile(path, []byte("a,b\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	waitForEvent(t, svc, EventFilesChanged)

	files := svc.Files()
	if len(files) != 1 || files[0].Path != path {
		t.Fatalf("Files() = %v, want [%s]", files, path)
	}
	if files[0].Size != 4 {
		t.Errorf("Size = %d, want 4", files[0].Size)
	}
}

func TestWatcher_DetectsRemoval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.csv")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	svc, err := New(dir, "")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer func() { _ = svc.Close() }()
	waitForEvent(t, svc, EventFilesLoaded)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	waitForEvent(t, svc, EventFilesChanged)
	if len(svc.Files()) != 0 {
		t.Errorf("Files() = %v, want none", svc.Files())
	}
}

func TestSendEvent_DropsOldestWhenFull(t *testing.T) {
	svc := &Service{eventChan: make(chan Event, 1)}

	svc.sendEvent(Event{Type: EventFilesLoaded})
	svc.sendEvent(Event{Type: EventFilesChanged})

	if ev := <-svc.Events(); ev.Type != EventFilesChanged {
		t.Errorf("event = %v, want EventFilesChanged", ev.Type)
	}
}
