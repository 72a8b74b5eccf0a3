package client

import (
	"context"
	"fmt"
	"io"
	"sync"
	"tempest-share/errors"
	"tempest-share/infrastructure/grpc/relayrpc"
	"tempest-share/infrastructure/relay"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const drainTimeout = 5 * time.Second

// RelayDialer opens relay streams over one shared gRPC connection.
type RelayDialer struct {
	conn *grpc.ClientConn
}

var _ relay.Dialer = (*RelayDialer)(nil)

func NewRelayDialer(address string) (*RelayDialer, error) {
	conn, err := grpc.NewClient(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(relayrpc.Subtype)))
	if err != nil {
		return nil, fmt.Errorf("could not connect to relay at %s: %w", address, err)
	}
	return &RelayDialer{conn: conn}, nil
}

// Dial starts a Connect stream. The stream outlives ctx: only closing the returned Conn ends it.
func (d *RelayDialer) Dial(ctx context.Context) (relay.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stream, err := d.conn.NewStream(ctx, &relayrpc.ServiceDesc.Streams[0], relayrpc.ConnectMethod)
	if err != nil {
		cancel()
		return nil, errors.FromGRPCStatus(err)
	}
	c := &clientConn{
		stream:   stream,
		cancel:   cancel,
		incoming: make(chan relay.Frame),
		closing:  make(chan struct{}),
		drained:  make(chan struct{}),
	}
	go c.read()
	return c, nil
}

func (d *RelayDialer) Close() error {
	return d.conn.Close()
}

// clientConn adapts a client stream to relay.Conn. A single goroutine reads the stream
// until the relay ends it, so Close can wait for frames already sent to be delivered.
type clientConn struct {
	stream   grpc.ClientStream
	cancel   context.CancelFunc
	incoming chan relay.Frame
	closing  chan struct{}
	drained  chan struct{}
	once     sync.Once
	sendMu   sync.Mutex

	mu      sync.Mutex
	readErr error
}

func (c *clientConn) Send(f relay.Frame) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if err := c.stream.SendMsg(&f); err != nil {
		return errors.FromGRPCStatus(err)
	}
	return nil
}

func (c *clientConn) Recv() (relay.Frame, error) {
	select {
	case f, ok := <-c.incoming:
		if !ok {
			c.mu.Lock()
			defer c.mu.Unlock()
			return relay.Frame{}, c.readErr
		}
		return f, nil
	case <-c.closing:
		return relay.Frame{}, io.EOF
	}
}

// read pumps the stream. Once the conn is closing, frames are dropped until the relay ends the stream.
func (c *clientConn) read() {
	defer close(c.drained)
	for {
		var f relay.Frame
		if err := c.stream.RecvMsg(&f); err != nil {
			c.mu.Lock()
			c.readErr = errors.FromGRPCStatus(err)
			c.mu.Unlock()
			close(c.incoming)
			return
		}
		select {
		case c.incoming <- f:
		case <-c.closing:
		}
	}
}

// Close half-closes the stream and waits for the relay to end it, at most drainTimeout.
// Cancelling right away would drop the frames gRPC has not written yet.
func (c *clientConn) Close() error {
	c.once.Do(func() {
		close(c.closing)
		defer c.cancel()
		c.sendMu.Lock()
		err := c.stream.CloseSend()
		c.sendMu.Unlock()
		if err != nil {
			return
		}
		select {
		case <-c.drained:
		case <-time.After(drainTimeout):
		}
	})
	return nil
}
