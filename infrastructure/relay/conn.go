package relay

import (
	"context"
	"sync"
)

// Conn is one ordered, bidirectional stream of frames between a peer and the relay.
// Send and Recv may be used from two different goroutines.
type Conn interface {
	Send(f Frame) error
	Recv() (Frame, error)
	Close() error
}

// Dialer opens a stream to the relay.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// lockedConn serialises concurrent writers on a Conn.
type lockedConn struct {
	Conn
	mu sync.Mutex
}

func (c *lockedConn) Send(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.Send(f)
}
