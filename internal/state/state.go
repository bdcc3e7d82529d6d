package state

import (
	"sync"
	"time"

	"typing-server/internal/types"
)

// Watcher statuses
const (
	WatcherStopped  = "stopped"
	WatcherWatching = "watching"
	WatcherError    = "error"
)

// ServerState holds the global server state
type ServerState struct {
	TextPath       string
	TextSource     types.TextSource
	TextLoadedAt   time.Time
	WatcherStatus  string
	WatcherMessage string
	mutex          sync.RWMutex
}

// Snapshot is the JSON view of the server state
type Snapshot struct {
	Text struct {
		Path     string           `json:"path"`
		Source   types.TextSource `json:"source,omitempty"`
		LoadedAt *time.Time       `json:"loadedAt,omitempty"`
	} `json:"text"`
	Watcher struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"watcher"`
	Clients int  `json:"clients"`
	Results *int `json:"results,omitempty"` // stored practice runs; absent when storage is disabled
}

var globalState = &ServerState{
	WatcherStatus:  WatcherStopped,
	WatcherMessage: "not started",
}

// SetTextPath records the configured backing file path
func SetTextPath(path string) {
	globalState.mutex.Lock()
	defer globalState.mutex.Unlock()
	globalState.TextPath = path
}

// RecordTextLoad records the source of the latest text load
func RecordTextLoad(source types.TextSource) {
	globalState.mutex.Lock()
	defer globalState.mutex.Unlock()
	globalState.TextSource = source
	globalState.TextLoadedAt = time.Now()
}

// GetWatcherStatus returns the current watcher status
func GetWatcherStatus() (string, string) {
	globalState.mutex.RLock()
	defer globalState.mutex.RUnlock()
	return globalState.WatcherStatus, globalState.WatcherMessage
}

// SetWatcherStatus updates the watcher status
func SetWatcherStatus(status, message string) {
	globalState.mutex.Lock()
	defer globalState.mutex.Unlock()
	globalState.WatcherStatus = status
	globalState.WatcherMessage = message
}

// GetServerState returns the full server state
func GetServerState(clients int) Snapshot {
	globalState.mutex.RLock()
	defer globalState.mutex.RUnlock()

	var snap Snapshot
	snap.Text.Path = globalState.TextPath
	snap.Text.Source = globalState.TextSource
	if !globalState.TextLoadedAt.IsZero() {
		loadedAt := globalState.TextLoadedAt
		snap.Text.LoadedAt = &loadedAt
	}
	snap.Watcher.Status = globalState.WatcherStatus
	snap.Watcher.Message = globalState.WatcherMessage
	snap.Clients = clients
	return snap
}

// Reset restores the initial state
func Reset() {
	globalState.mutex.Lock()
	defer globalState.mutex.Unlock()
	globalState.TextPath = ""
	globalState.TextSource = ""
	globalState.TextLoadedAt = time.Time{}
	globalState.WatcherStatus = WatcherStopped
	globalState.WatcherMessage = "not started"
}
