package http

import (
	"context"
	"sync"

	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

// Connection represents a WebSocket connection
type Connection struct {
	ID   string
	Send chan ports.UpdateEvent
}

// ConnectionManager manages WebSocket connections
type ConnectionManager struct {
	connections map[string]*Connection
	broadcast   chan ports.UpdateEvent
	register    chan *Connection
	unregister  chan string
	onCount     func(int)
	mu          sync.RWMutex
	done        chan struct{}
	doneOnce    sync.Once
}

// NewConnectionManager creates a new connection manager. onCount, when not
// nil, is called with the number of open connections after every change.
func NewConnectionManager(onCount func(int)) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*Connection),
		broadcast:   make(chan ports.UpdateEvent, 256),
		register:    make(chan *Connection),
		unregister:  make(chan string),
		onCount:     onCount,
		done:        make(chan struct{}),
	}
}

// Run starts the connection manager main loop
func (cm *ConnectionManager) Run(ctx context.Context) {
	defer cm.doneOnce.Do(func() { close(cm.done) })

	for {
		select {
		case <-ctx.Done():
			return

		case conn := <-cm.register:
			cm.mu.Lock()
			cm.connections[conn.ID] = conn
			cm.mu.Unlock()
			cm.countChanged()

		case id := <-cm.unregister:
			cm.remove(id)

		case event := <-cm.broadcast:
			cm.deliver(event)
		}
	}
}

func (cm *ConnectionManager) deliver(event ports.UpdateEvent) {
	cm.mu.Lock()
	dropped := false
	for id, conn := range cm.connections {
		select {
		case conn.Send <- event:
		default:
			// Client too slow, close connection
			close(conn.Send)
			delete(cm.connections, id)
			dropped = true
		}
	}
	cm.mu.Unlock()

	if dropped {
		cm.countChanged()
	}
}

func (cm *ConnectionManager) remove(id string) {
	cm.mu.Lock()
	conn, ok := cm.connections[id]
	if ok {
		delete(cm.connections, id)
		close(conn.Send)
	}
	cm.mu.Unlock()

	if ok {
		cm.countChanged()
	}
}

func (cm *ConnectionManager) countChanged() {
	if cm.onCount != nil {
		cm.onCount(cm.Count())
	}
}

// RegisterConnection adds a new connection. It reports false once the
// manager has stopped.
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
		cm.remove(connID)
	}
}

// Broadcast sends an event to all connections
func (cm *ConnectionManager) Broadcast(event ports.UpdateEvent) {
	select {
	case cm.broadcast <- event:
	case <-cm.done:
		// Manager is shutting down
	}
}

// Count returns the number of open connections
func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// CloseAll closes all connections
func (cm *ConnectionManager) CloseAll() {
	cm.mu.Lock()
	for id, conn := range cm.connections {
		close(conn.Send)
		delete(cm.connections, id)
	}
	cm.mu.Unlock()

	cm.countChanged()
}
