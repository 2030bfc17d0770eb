package http

import (
	"context"
	"sync"

	"github.com/fredcamaral/texdeck/internal/domain/ports"
)

// Connection is one registered event subscriber
type Connection struct {
	ID   string
	Send chan ports.UpdateEvent
}

// ConnectionManager fans conversion events out to websocket clients. Only
// the Run loop mutates the connection set and closes Send channels.
type ConnectionManager struct {
	connections map[string]*Connection
	broadcast   chan ports.UpdateEvent
	register    chan *Connection
	unregister  chan string
	closeAll    chan struct{}
	done        chan struct{}

	mu    sync.RWMutex
	count int
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*Connection),
		broadcast:   make(chan ports.UpdateEvent, 256),
		register:    make(chan *Connection),
		unregister:  make(chan string),
		closeAll:    make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx ends
func (cm *ConnectionManager) Run(ctx context.Context) {
	defer close(cm.done)
	defer cm.dropAll()

	for {
		select {
		case <-ctx.Done():
			return

		case conn := <-cm.register:
			cm.connections[conn.ID] = conn
			cm.setCount()

		case id := <-cm.unregister:
			cm.drop(id)

		case <-cm.closeAll:
			cm.dropAll()

		case event := <-cm.broadcast:
			for id, conn := range cm.connections {
				select {
				case conn.Send <- event:
				default:
					// slow client
					cm.drop(id)
				}
			}
		}
	}
}

func (cm *ConnectionManager) drop(id string) {
	if conn, ok := cm.connections[id]; ok {
		delete(cm.connections, id)
		cm.setCount()
		close(conn.Send)
	}
}

func (cm *ConnectionManager) dropAll() {
	for id := range cm.connections {
		cm.drop(id)
	}
}

func (cm *ConnectionManager) setCount() {
	cm.mu.Lock()
	cm.count = len(cm.connections)
	cm.mu.Unlock()
}

// RegisterConnection adds a connection. It reports false once the manager
// has stopped.
func (cm *ConnectionManager) RegisterConnection(conn *Connection) bool {
	select {
	case cm.register <- conn:
		return true
	case <-cm.done:
		return false
	}
}

// Unregister removes a connection
func (cm *ConnectionManager) Unregister(connID string) {
	select {
	case cm.unregister <- connID:
	case <-cm.done:
	}
}

// Broadcast queues an event for all connections
func (cm *ConnectionManager) Broadcast(event ports.UpdateEvent) {
	select {
	case cm.broadcast <- event:
	case <-cm.done:
	}
}

// CloseAll disconnects every client
func (cm *ConnectionManager) CloseAll() {
	select {
	case cm.closeAll <- struct{}{}:
	case <-cm.done:
	}
}

// Count returns the number of connected clients
func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.count
}
