package websocket

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/skillduels/backend/internal/domain"
)

// ConnectionManager handles active WebSocket connections thread-safely.
// It implements the duel service's Publisher interface: delivery is
// fire-and-forget and a departed connection is simply skipped.
type ConnectionManager struct {
	connections map[string]*websocket.Conn

	// writeMu ensures only one goroutine writes to a specific socket at a
	// time. conn.WriteJSON is not thread-safe.
	writeMu map[string]*sync.Mutex

	mu sync.RWMutex // Protects the maps themselves
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*websocket.Conn),
		writeMu:     make(map[string]*sync.Mutex),
	}
}

// AddConnection registers a new connection and initializes its write lock
func (cm *ConnectionManager) AddConnection(connID string, conn *websocket.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.connections[connID] = conn
	cm.writeMu[connID] = &sync.Mutex{}
}

// RemoveConnection closes and forgets a connection. Subsequent sends to
// this connection ID become no-ops.
func (cm *ConnectionManager) RemoveConnection(connID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if conn, exists := cm.connections[connID]; exists {
		conn.Close()
		delete(cm.connections, connID)
		delete(cm.writeMu, connID)
	}
}

// Send delivers a JSON message to one connection. Unknown connections are
// ignored; write errors are logged, never retried.
func (cm *ConnectionManager) Send(connID string, msg domain.ServerMessage) error {
	cm.mu.RLock()
	conn, exists := cm.connections[connID]
	mu, muExists := cm.writeMu[connID]
	cm.mu.RUnlock()

	if !exists || !muExists {
		return nil // connection departed, ignore
	}

	mu.Lock()
	defer mu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[WS] Failed to deliver %s to %s: %v", msg.Type, connID, err)
		return err
	}
	return nil
}

// Broadcast sends a message to all connected clients.
func (cm *ConnectionManager) Broadcast(msg domain.ServerMessage) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	for connID := range cm.connections {
		// One slow client must not block the broadcast.
		go func(id string) {
			cm.Send(id, msg)
		}(connID)
	}
}

func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}
