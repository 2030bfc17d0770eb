package ports

import (
	"context"
	"time"
)

// HTTPServer defines the interface for the HTTP server
type HTTPServer interface {
	EventNotifier
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsRunning() bool
}

// EventNotifier broadcasts conversion events to connected clients
type EventNotifier interface {
	NotifyClients(event UpdateEvent) error
}

// UpdateEvent represents an event sent to WebSocket clients
type UpdateEvent struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// UpdateEventType constants
const (
	EventTypeConnected           = "connected"
	EventTypeConversionCompleted = "conversion_completed"
	EventTypeConversionFailed    = "conversion_failed"
	EventTypeCleanup             = "cleanup"
)
