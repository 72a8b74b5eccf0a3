package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"tempest-share/errors"
	"tempest-share/transport"
)

// Client reaches peers through a relay. It implements transport.Adapter over any Dialer.
type Client struct {
	log    *slog.Logger
	dialer Dialer
}

func NewClient(log *slog.Logger, dialer Dialer) *Client {
	return &Client{log: log, dialer: dialer}
}

// CreateEndpoint claims code on the relay. READY turns into EndpointReady,
// a refused claim into EndpointFailed wrapping errors.ErrCodeUnavailable.
func (c *Client) CreateEndpoint(ctx context.Context, code string, sink transport.Sink) (transport.Endpoint, error) {
	conn, err := c.dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to reach the relay: %w", err)
	}
	lc := &lockedConn{Conn: conn}
	if err := lc.Send(Frame{Op: OpHost, Code: code}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("unable to claim %q: %w", code, err)
	}

	ep := &hostEndpoint{log: c.log, code: code, conn: lc, box: transport.NewMailbox()}
	ep.box.Start(sink)
	go ep.loop()
	return ep, nil
}

// ConnectTo joins the host of code. A code nobody holds ends in ChannelFailed
// wrapping errors.ErrPeerUnavailable.
func (c *Client) ConnectTo(ctx context.Context, code string, sink transport.Sink) (transport.Channel, error) {
	conn, err := c.dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to reach the relay: %w", err)
	}
	lc := &lockedConn{Conn: conn}
	if err := lc.Send(Frame{Op: OpJoin, Code: code}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("unable to join %q: %w", code, err)
	}

	ch := &guestChannel{log: c.log, code: code, conn: lc, box: transport.NewMailbox()}
	ch.box.Start(sink)
	go ch.loop()
	return ch, nil
}

type hostEndpoint struct {
	log       *slog.Logger
	code      string
	id        atomic.Value
	conn      *lockedConn
	box       *transport.Mailbox
	destroyed atomic.Bool

	mu      sync.Mutex
	current *hostChannel
}

// ID is the claimed code, empty until the relay confirmed it.
func (e *hostEndpoint) ID() string {
	if id, ok := e.id.Load().(string); ok {
		return id
	}
	return ""
}

// Destroy closes the stream, which releases the code on the relay.
func (e *hostEndpoint) Destroy() error {
	if e.destroyed.Swap(true) {
		return nil
	}
	e.box.Close()
	if ch := e.swap(nil); ch != nil {
		ch.box.Close()
		ch.closed.Store(true)
	}
	return e.conn.Close()
}

func (e *hostEndpoint) loop() {
	for {
		f, err := e.conn.Recv()
		if err != nil {
			if e.destroyed.Load() {
				return
			}
			e.log.Info("Lost the relay", "code", e.code, "error", err)
			if ch := e.swap(nil); ch != nil {
				ch.box.Finish(transport.ChannelClosed{})
			}
			e.box.Finish(transport.EndpointDisconnected{})
			return
		}

		switch f.Op {
		case OpReady:
			e.id.Store(f.Code)
			e.log.Debug("Endpoint ready", "code", f.Code, "peer", f.Peer)
			e.box.Push(transport.EndpointReady{ID: f.Code})
		case OpError:
			e.box.Finish(transport.EndpointFailed{Err: fmt.Errorf("relay refused %q: %w", e.code, errors.FromKind(f.Kind))})
			e.destroyed.Store(true)
			_ = e.conn.Close()
			return
		case OpConnected:
			ch := &hostChannel{endpoint: e, peer: f.Peer, box: transport.NewMailbox()}
			ch.box.Push(transport.ChannelOpened{})
			if previous := e.swap(ch); previous != nil {
				previous.box.Finish(transport.ChannelClosed{})
			}
			e.box.Push(transport.IncomingConnection{Channel: ch, Attach: ch.box.Start})
		case OpData:
			if ch := e.active(); ch != nil {
				ch.box.Push(transport.DataReceived{Payload: f.Payload})
			}
		case OpClose:
			if ch := e.swap(nil); ch != nil {
				ch.closed.Store(true)
				ch.box.Finish(transport.ChannelClosed{})
			}
		default:
			e.log.Warn("Unexpected frame from relay", "code", e.code, "op", f.Op)
		}
	}
}

func (e *hostEndpoint) active() *hostChannel {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

func (e *hostEndpoint) swap(ch *hostChannel) *hostChannel {
	e.mu.Lock()
	defer e.mu.Unlock()
	previous := e.current
	e.current = ch
	return previous
}

// release forgets ch if it is still the active channel.
func (e *hostEndpoint) release(ch *hostChannel) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != ch {
		return false
	}
	e.current = nil
	return true
}

// hostChannel is the host side of a pairing. It shares the endpoint stream.
type hostChannel struct {
	endpoint *hostEndpoint
	peer     string
	box      *transport.Mailbox
	closed   atomic.Bool
}

func (c *hostChannel) Send(data []byte) error {
	if c.closed.Load() {
		return fmt.Errorf("channel with %s: %w", c.peer, errors.ErrChannelDisconnected)
	}
	if err := c.endpoint.conn.Send(Frame{Op: OpData, Payload: data}); err != nil {
		return fmt.Errorf("channel with %s: %v: %w", c.peer, err, errors.ErrChannelDisconnected)
	}
	return nil
}

// Close ends the pairing. The endpoint keeps its code.
func (c *hostChannel) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.box.Close()
	if !c.endpoint.release(c) || c.endpoint.destroyed.Load() {
		return nil
	}
	return c.endpoint.conn.Send(Frame{Op: OpClose})
}

// guestChannel owns its own stream to the relay.
type guestChannel struct {
	log    *slog.Logger
	code   string
	conn   *lockedConn
	box    *transport.Mailbox
	closed atomic.Bool
}

func (c *guestChannel) Send(data []byte) error {
	if c.closed.Load() {
		return fmt.Errorf("channel to %q: %w", c.code, errors.ErrChannelDisconnected)
	}
	if err := c.conn.Send(Frame{Op: OpData, Payload: data}); err != nil {
		return fmt.Errorf("channel to %q: %v: %w", c.code, err, errors.ErrChannelDisconnected)
	}
	return nil
}

func (c *guestChannel) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.box.Close()
	_ = c.conn.Send(Frame{Op: OpClose})
	return c.conn.Close()
}

func (c *guestChannel) loop() {
	for {
		f, err := c.conn.Recv()
		if err != nil {
			if !c.closed.Swap(true) {
				c.log.Info("Channel ended", "code", c.code, "error", err)
				c.box.Finish(transport.ChannelClosed{})
				_ = c.conn.Close()
			}
			return
		}

		switch f.Op {
		case OpOpen:
			c.box.Push(transport.ChannelOpened{})
		case OpData:
			c.box.Push(transport.DataReceived{Payload: f.Payload})
		case OpError:
			c.closed.Store(true)
			c.box.Finish(transport.ChannelFailed{Err: fmt.Errorf("relay refused %q: %w", c.code, errors.FromKind(f.Kind))})
			_ = c.conn.Close()
			return
		case OpClose:
			c.closed.Store(true)
			c.box.Finish(transport.ChannelClosed{})
			_ = c.conn.Close()
			return
		default:
			c.log.Warn("Unexpected frame from relay", "code", c.code, "op", f.Op)
		}
	}
}
