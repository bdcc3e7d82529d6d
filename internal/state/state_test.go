package state

import (
	"testing"

	"typing-server/internal/types"
)

func TestInitialState(t *testing.T) {
	Reset()

	snap := GetServerState(0)
	if snap.Watcher.Status != WatcherStopped {
		t.Errorf("Expected watcher status '%s', got '%s'", WatcherStopped, snap.Watcher.Status)
	}

	if snap.Text.LoadedAt != nil {
		t.Error("Expected no load time before the first load")
	}
}

func TestRecordTextLoad(t *testing.T) {
	Reset()
	SetTextPath("sample_text.txt")
	RecordTextLoad(types.SourceFallback)

	snap := GetServerState(3)
	if snap.Text.Path != "sample_text.txt" {
		t.Errorf("Expected path 'sample_text.txt', got '%s'", snap.Text.Path)
	}

	if snap.Text.Source != types.SourceFallback {
		t.Errorf("Expected source 'fallback', got '%s'", snap.Text.Source)
	}

	if snap.Text.LoadedAt == nil {
		t.Error("Expected a load time")
	}

	if snap.Clients != 3 {
		t.Errorf("Expected 3 clients, got %d", snap.Clients)
	}
}

func TestSetWatcherStatus(t *testing.T) {
	Reset()
	SetWatcherStatus(WatcherWatching, "watching /srv")

	status, message := GetWatcherStatus()
	if status != WatcherWatching {
		t.Errorf("Expected status '%s', got '%s'", WatcherWatching, status)
	}

	if message != "watching /srv" {
		t.Errorf("Expected message 'watching /srv', got '%s'", message)
	}
}
