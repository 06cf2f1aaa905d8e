// Package hub provides the connection registry for push delivery.
package hub

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	// ErrNotConnected is returned when the user has no live connection.
	ErrNotConnected = errors.New("user not connected")
	// ErrBufferFull is returned when a connection's send buffer is full.
	ErrBufferFull = errors.New("send buffer full")
)

// Connection represents one live push channel bound to a user. The write
// pump owns the socket and drains Send; the registry is the only closer
// of Send.
type Connection struct {
	ID     string
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
	mu     sync.Mutex
}

// Registry maps a user id to at most one live connection. A later
// registration for the same user supersedes the earlier one. All sends
// to a Send channel happen under the registry lock, so a channel is
// never closed concurrently with a send.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Connection
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Connection)}
}

// NewConnection wraps a websocket connection. The connection is not
// registered until the client announces its identity.
func (r *Registry) NewConnection(ws *websocket.Conn, sendBuffer int) *Connection {
	return &Connection{
		ID:   uuid.New().String(),
		Conn: ws,
		Send: make(chan []byte, sendBuffer),
	}
}

// Register binds conn to userID, replacing any existing connection for
// that user. The superseded connection's send channel is closed, which
// terminates its write pump.
func (r *Registry) Register(userID string, conn *Connection) {
	conn.UserID = userID

	r.mu.Lock()
	defer r.mu.Unlock()
	if old := r.conns[userID]; old != nil && old != conn {
		close(old.Send)
	}
	r.conns[userID] = conn
}

// Lookup returns the live connection for userID, or nil.
func (r *Registry) Lookup(userID string) *Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conns[userID]
}

// Unregister removes the mapping only if conn is still the registered
// connection for its user. A stale disconnect after supersession is a
// no-op, so it cannot evict the newer connection.
func (r *Registry) Unregister(conn *Connection) {
	if conn.UserID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.conns[conn.UserID]; ok && current == conn {
		delete(r.conns, conn.UserID)
		close(conn.Send)
	}
}

// Deliver enqueues data on the user's live connection without blocking.
// Returns ErrNotConnected when the user is offline and ErrBufferFull when
// the connection cannot keep up.
func (r *Registry) Deliver(userID string, data []byte) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn := r.conns[userID]
	if conn == nil {
		return ErrNotConnected
	}
	select {
	case conn.Send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// Count returns the number of connected users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// WriteMessage writes a frame to the socket with proper locking.
func (c *Connection) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

// SetWriteDeadline sets the write deadline for the connection.
func (c *Connection) SetWriteDeadline(t time.Time) error {
	return c.Conn.SetWriteDeadline(t)
}

// SetReadDeadline sets the read deadline for the connection.
func (c *Connection) SetReadDeadline(t time.Time) error {
	return c.Conn.SetReadDeadline(t)
}

// Close closes the underlying socket.
func (c *Connection) Close() error {
	return c.Conn.Close()
}
