package relay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"tempest-share/errors"

	"github.com/google/uuid"
)

// room pairs the host holding a code with at most one guest.
type room struct {
	code  string
	host  *member
	mu    sync.Mutex
	guest *member
}

type member struct {
	id   string
	conn *lockedConn
}

// Hub keeps the rooms of the relay. Front-ends hand every accepted stream to Serve.
type Hub struct {
	log   *slog.Logger
	stats *Stats
	mu    sync.Mutex
	rooms map[string]*room
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{log: log, stats: &Stats{}, rooms: make(map[string]*room)}
}

func (h *Hub) Stats() *Stats {
	return h.stats
}

// Serve handles one stream until it ends. The first frame decides its role:
// HOST claims a code, JOIN pairs with the host of a code.
func (h *Hub) Serve(ctx context.Context, conn Conn) error {
	h.stats.conns.Add(1)
	defer h.stats.conns.Add(-1)

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	m := &member{id: uuid.NewString(), conn: &lockedConn{Conn: conn}}
	first, err := conn.Recv()
	if err != nil {
		return err
	}
	if err := first.Validate(); err != nil {
		_ = m.conn.Send(errorFrame(err))
		return err
	}

	switch first.Op {
	case OpHost:
		return h.host(ctx, m, first.Code)
	case OpJoin:
		return h.join(ctx, m, first.Code)
	default:
		err := fmt.Errorf("stream must start with HOST or JOIN, got %s: %w", first.Op, errors.ErrMalformedMessage)
		_ = m.conn.Send(errorFrame(err))
		return err
	}
}

// Rooms returns the codes currently held.
func (h *Hub) Rooms() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	codes := make([]string, 0, len(h.rooms))
	for code := range h.rooms {
		codes = append(codes, code)
	}
	return codes
}

func (h *Hub) host(ctx context.Context, m *member, code string) error {
	r, ok := h.claim(code, m)
	if !ok {
		h.stats.refused.Add(1)
		h.log.Info("Code already claimed", "code", code, "peer", m.id)
		return m.conn.Send(errorFrame(fmt.Errorf("code %q: %w", code, errors.ErrCodeUnavailable)))
	}
	defer h.release(r)

	h.log.Info("Code claimed", "code", code, "peer", m.id)
	if err := m.conn.Send(Frame{Op: OpReady, Code: code, Peer: m.id}); err != nil {
		return err
	}

	for {
		f, err := m.conn.Recv()
		if err != nil {
			h.log.Info("Host left", "code", code, "peer", m.id, "error", err)
			r.dropGuest(nil)
			return ignoreEOF(ctx, err)
		}
		switch f.Op {
		case OpData:
			if g := r.currentGuest(); g != nil {
				h.forward(g, f)
			}
		case OpClose:
			r.dropGuest(nil)
		default:
			h.log.Warn("Unexpected frame from host", "code", code, "op", f.Op)
		}
	}
}

func (h *Hub) join(ctx context.Context, m *member, code string) error {
	r := h.lookup(code)
	if r == nil || !r.setGuest(m) {
		h.stats.refused.Add(1)
		h.log.Info("Nobody to join", "code", code, "peer", m.id)
		return m.conn.Send(errorFrame(fmt.Errorf("code %q: %w", code, errors.ErrPeerUnavailable)))
	}
	defer r.dropGuest(m)

	h.log.Info("Guest joined", "code", code, "peer", m.id)
	// The host only sends DATA once it got CONNECTED, so OPEN always reaches the guest first.
	if err := m.conn.Send(Frame{Op: OpOpen, Peer: r.host.id}); err != nil {
		return err
	}
	if err := r.host.conn.Send(Frame{Op: OpConnected, Peer: m.id}); err != nil {
		return err
	}

	for {
		f, err := m.conn.Recv()
		if err != nil {
			h.log.Info("Guest left", "code", code, "peer", m.id, "error", err)
			return ignoreEOF(ctx, err)
		}
		switch f.Op {
		case OpData:
			if r.currentGuest() != m {
				return nil
			}
			h.forward(r.host, f)
		case OpClose:
			return nil
		default:
			h.log.Warn("Unexpected frame from guest", "code", code, "op", f.Op)
		}
	}
}

func (h *Hub) forward(to *member, f Frame) {
	if err := to.conn.Send(Frame{Op: OpData, Payload: f.Payload}); err != nil {
		h.log.Debug("Unable to forward frame", "peer", to.id, "error", err)
		return
	}
	h.stats.forwarded(len(f.Payload))
}

func (h *Hub) claim(code string, m *member) (*room, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[code]; ok {
		return nil, false
	}
	r := &room{code: code, host: m}
	h.rooms[code] = r
	h.stats.roomOpened()
	return r, true
}

func (h *Hub) lookup(code string) *room {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms[code]
}

func (h *Hub) release(r *room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[r.code] == r {
		delete(h.rooms, r.code)
		h.stats.roomClosed()
		h.log.Info("Code released", "code", r.code)
	}
}

func (r *room) setGuest(m *member) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.guest != nil {
		return false
	}
	r.guest = m
	return true
}

func (r *room) currentGuest() *member {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.guest
}

// dropGuest ends the pairing and tells the other side with CLOSE.
// With a nil member the current guest is dropped on behalf of the host.
func (r *room) dropGuest(m *member) {
	r.mu.Lock()
	g := r.guest
	if g == nil || (m != nil && g != m) {
		r.mu.Unlock()
		return
	}
	r.guest = nil
	r.mu.Unlock()

	if m == nil {
		_ = g.conn.Send(Frame{Op: OpClose})
		_ = g.conn.Close()
		return
	}
	_ = r.host.conn.Send(Frame{Op: OpClose})
}

func ignoreEOF(ctx context.Context, err error) error {
	if err == io.EOF || ctx.Err() != nil || errors.Is(err, errors.ErrChannelDisconnected) {
		return nil
	}
	return err
}
