// internal/app/system/realtime/conn.go
package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// DefaultQueueSize is the per-connection send buffer.
const DefaultQueueSize = 256

// Conn is one client connection as the registry sees it. The transport (a
// WebSocket in production) drains Queue.
type Conn struct {
	ID     string
	UserID string

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// NewConn returns a connection for userID with a queue of the given size.
func NewConn(userID string, queueSize int) *Conn {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Conn{
		ID:     uuid.NewString(),
		UserID: userID,
		send:   make(chan []byte, queueSize),
	}
}

// Queue is closed when the registry removes the connection.
func (c *Conn) Queue() <-chan []byte { return c.send }

func (c *Conn) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
