package types

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// TextSource tells where a sample text came from
type TextSource string

const (
	SourceFile     TextSource = "file"
	SourceFallback TextSource = "fallback"
)

// TextResponse is the body of GET /api/text
type TextResponse struct {
	Text string `json:"text"`
}

// Response represents an API response
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ResultRequest is what the browser posts once a practice run is complete
type ResultRequest struct {
	CharsTyped int   `json:"charsTyped"`
	Errors     int   `json:"errors"`
	TextLength int   `json:"textLength"`
	DurationMs int64 `json:"durationMs"`
}

// Result is a stored practice run
type Result struct {
	ID         string     `json:"id"`
	CharsTyped int        `json:"charsTyped"`
	Errors     int        `json:"errors"`
	TextLength int        `json:"textLength"`
	Accuracy   int        `json:"accuracy"`
	DurationMs int64      `json:"durationMs"`
	Source     TextSource `json:"source,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string     `json:"type"` // "text" or "error"
	Text    string     `json:"text,omitempty"`
	Source  TextSource `json:"source,omitempty"`
	Message string     `json:"message,omitempty"`
}

// WSClientMessage represents a message from the WebSocket client
type WSClientMessage struct {
	Action string `json:"action"`
}

// WSClient represents a WebSocket client connection
type WSClient struct {
	Conn *websocket.Conn
	Mu   sync.Mutex
}
