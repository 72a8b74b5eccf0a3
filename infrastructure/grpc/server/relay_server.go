package server

import (
	"io"
	"log/slog"
	"sync"
	"tempest-share/errors"
	"tempest-share/infrastructure/grpc/relayrpc"
	"tempest-share/infrastructure/relay"

	"google.golang.org/grpc"
)

// RelayServer exposes a relay.Hub over a gRPC bidirectional stream.
type RelayServer struct {
	log *slog.Logger
	hub *relay.Hub
}

var _ relayrpc.RelayServer = (*RelayServer)(nil)

func NewRelayServer(log *slog.Logger, hub *relay.Hub) *RelayServer {
	return &RelayServer{log: log, hub: hub}
}

// Connect serves one peer until its stream ends or the hub drops it.
func (s *RelayServer) Connect(stream grpc.ServerStream) error {
	conn := newServerConn(stream)
	defer conn.Close()

	if err := s.hub.Serve(stream.Context(), conn); err != nil {
		s.log.Debug("Relay stream ended", "error", err)
		return errors.ToGRPCStatus(err)
	}
	return nil
}

// serverConn adapts a server stream to relay.Conn. Reads happen on their own goroutine
// so that Close can release a pending Recv, and nothing is sent once the handler is done.
type serverConn struct {
	stream   grpc.ServerStream
	incoming chan relay.Frame
	done     chan struct{}
	once     sync.Once
	start    sync.Once

	mu      sync.Mutex
	closed  bool
	readErr error
}

func newServerConn(stream grpc.ServerStream) *serverConn {
	return &serverConn{
		stream:   stream,
		incoming: make(chan relay.Frame),
		done:     make(chan struct{}),
	}
}

func (c *serverConn) Send(f relay.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return io.ErrClosedPipe
	}
	return c.stream.SendMsg(&f)
}

func (c *serverConn) Recv() (relay.Frame, error) {
	c.start.Do(func() { go c.read() })
	select {
	case f, ok := <-c.incoming:
		if !ok {
			c.mu.Lock()
			defer c.mu.Unlock()
			return relay.Frame{}, c.readErr
		}
		return f, nil
	case <-c.done:
		return relay.Frame{}, io.EOF
	}
}

func (c *serverConn) read() {
	for {
		var f relay.Frame
		if err := c.stream.RecvMsg(&f); err != nil {
			c.mu.Lock()
			c.readErr = err
			c.mu.Unlock()
			close(c.incoming)
			return
		}
		select {
		case c.incoming <- f:
		case <-c.done:
			return
		}
	}
}

func (c *serverConn) Close() error {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.done)
	})
	return nil
}
