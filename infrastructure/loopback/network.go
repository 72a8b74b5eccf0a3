// Package loopback is an in-process peer network. Codes are claimed in a shared
// registry and channels are pairs of ordered mailboxes, so nothing leaves the process.
package loopback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"tempest-share/errors"
	"tempest-share/transport"

	"github.com/google/uuid"
)

type Network struct {
	mu        sync.Mutex
	log       *slog.Logger
	endpoints map[string]*endpoint
}

func NewNetwork(log *slog.Logger) *Network {
	return &Network{log: log, endpoints: make(map[string]*endpoint)}
}

// CreateEndpoint claims code. EndpointReady follows on sink.
func (n *Network) CreateEndpoint(ctx context.Context, code string, sink transport.Sink) (transport.Endpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.endpoints[code]; ok {
		return nil, fmt.Errorf("code %q already claimed: %w", code, errors.ErrCodeUnavailable)
	}
	ep := &endpoint{net: n, code: code, box: transport.NewMailbox(), pipes: make(map[*pipe]struct{})}
	n.endpoints[code] = ep
	ep.box.Start(sink)
	ep.box.Push(transport.EndpointReady{ID: code})
	n.log.Debug("Endpoint created", "code", code)
	return ep, nil
}

// ConnectTo opens a channel to the endpoint holding code.
// An unknown code is reported as ChannelFailed, the way a remote lookup would fail.
func (n *Network) ConnectTo(ctx context.Context, code string, sink transport.Sink) (transport.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := &pipe{id: uuid.NewString()}
	guest := &end{pipe: p, box: transport.NewMailbox()}
	host := &end{pipe: p, box: transport.NewMailbox()}
	guest.peer, host.peer = host, guest
	p.guest, p.host = guest, host
	guest.box.Start(sink)

	n.mu.Lock()
	ep, ok := n.endpoints[code]
	n.mu.Unlock()

	if !ok || !ep.accept(p) {
		p.closed = true
		guest.box.Finish(transport.ChannelFailed{Err: fmt.Errorf("no peer behind code %q: %w", code, errors.ErrPeerUnavailable)})
		return guest, nil
	}
	n.log.Debug("Peer connecting", "code", code, "peer", p.id)
	ep.box.Push(transport.IncomingConnection{Channel: host, Attach: host.attach})
	return guest, nil
}

// Drop simulates the endpoint holding code losing the rendezvous service.
func (n *Network) Drop(code string) {
	n.mu.Lock()
	ep, ok := n.endpoints[code]
	n.mu.Unlock()
	if ok {
		ep.box.Push(transport.EndpointDisconnected{})
	}
}

// Codes returns the codes currently claimed.
func (n *Network) Codes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	codes := make([]string, 0, len(n.endpoints))
	for code := range n.endpoints {
		codes = append(codes, code)
	}
	return codes
}

func (n *Network) release(ep *endpoint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.endpoints[ep.code] == ep {
		delete(n.endpoints, ep.code)
	}
}

type endpoint struct {
	net       *Network
	code      string
	box       *transport.Mailbox
	mu        sync.Mutex
	pipes     map[*pipe]struct{}
	destroyed bool
}

func (e *endpoint) ID() string {
	return e.code
}

// Destroy releases the code and closes every channel accepted by the endpoint.
func (e *endpoint) Destroy() error {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return nil
	}
	e.destroyed = true
	pipes := e.pipes
	e.pipes = nil
	e.mu.Unlock()

	e.net.release(e)
	e.box.Close()
	for p := range pipes {
		_ = p.host.Close()
	}
	e.net.log.Debug("Endpoint destroyed", "code", e.code)
	return nil
}

func (e *endpoint) accept(p *pipe) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return false
	}
	e.pipes[p] = struct{}{}
	p.owner = e
	return true
}

func (e *endpoint) forget(p *pipe) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.pipes, p)
}

// pipe is one channel between a guest and the host endpoint.
type pipe struct {
	id     string
	mu     sync.Mutex
	open   bool
	closed bool
	guest  *end
	host   *end
	owner  *endpoint
}

type end struct {
	pipe *pipe
	peer *end
	box  *transport.Mailbox
}

// attach starts the host side. Both sides see ChannelOpened.
func (e *end) attach(sink transport.Sink) {
	p := e.pipe
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.open {
		return
	}
	p.open = true
	e.box.Start(sink)
	e.box.Push(transport.ChannelOpened{})
	e.peer.box.Push(transport.ChannelOpened{})
}

func (e *end) Send(data []byte) error {
	p := e.pipe
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("channel %s: %w", p.id, errors.ErrChannelDisconnected)
	}
	if !p.open {
		return fmt.Errorf("channel %s is not open yet", p.id)
	}
	payload := make([]byte, len(data))
	copy(payload, data)
	e.peer.box.Push(transport.DataReceived{Payload: payload})
	return nil
}

// Close stops the local side at once and notifies the other side with ChannelClosed.
func (e *end) Close() error {
	p := e.pipe
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		e.box.Close()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	e.box.Close()
	e.peer.box.Finish(transport.ChannelClosed{})
	if p.owner != nil {
		p.owner.forget(p)
	}
	return nil
}
