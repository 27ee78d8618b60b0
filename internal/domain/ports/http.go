package ports

import (
	"context"
	"time"
)

// ClientNotifier pushes events to connected WebSocket clients
type ClientNotifier interface {
	NotifyClients(event UpdateEvent) error
}

// HTTPServer defines the interface for the HTTP server
type HTTPServer interface {
	ClientNotifier
	Start(ctx context.Context, port int, host string) error
	Stop(ctx context.Context) error
	IsRunning() bool
}

// UpdateEvent represents an event sent to WebSocket clients
type UpdateEvent struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// UpdateEventType constants
const (
	EventTypeConnected     = "connected"
	EventTypeContentChange = "content_change"
	EventTypeError         = "error"
)
