// Package ws carries relay frames over WebSocket binary messages.
package ws

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"tempest-share/infrastructure/relay"
	"time"

	"github.com/gorilla/websocket"
)

const (
	bufferSize = 65536
	writeWait  = 10 * time.Second
)

// Handler upgrades HTTP requests and hands the socket to the hub.
type Handler struct {
	log      *slog.Logger
	hub      *relay.Hub
	upgrader websocket.Upgrader
}

func NewHandler(log *slog.Logger, hub *relay.Hub) *Handler {
	return &Handler{
		log: log,
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  bufferSize,
			WriteBufferSize: bufferSize,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Unable to upgrade connection", "remote", r.RemoteAddr, "error", err)
		return
	}
	conn := newConn(socket)
	defer conn.Close()

	if err := h.hub.Serve(r.Context(), conn); err != nil {
		h.log.Debug("Relay socket ended", "remote", r.RemoteAddr, "error", err)
	}
}

// Dialer opens relay streams to a WebSocket URL such as ws://host:port/relay.
type Dialer struct {
	url    string
	dialer *websocket.Dialer
}

var _ relay.Dialer = (*Dialer)(nil)

func NewDialer(url string) *Dialer {
	dialer := *websocket.DefaultDialer
	dialer.ReadBufferSize = bufferSize
	dialer.WriteBufferSize = bufferSize
	return &Dialer{url: url, dialer: &dialer}
}

func (d *Dialer) Dial(ctx context.Context) (relay.Conn, error) {
	socket, _, err := d.dialer.DialContext(ctx, d.url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not connect to relay at %s: %w", d.url, err)
	}
	return newConn(socket), nil
}

// conn is a relay.Conn over one socket. One frame per binary message.
type conn struct {
	socket *websocket.Conn
	mu     sync.Mutex
	once   sync.Once
}

func newConn(socket *websocket.Conn) *conn {
	return &conn{socket: socket}
}

func (c *conn) Send(f relay.Frame) error {
	data, err := relay.EncodeFrame(f)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
	return c.socket.WriteMessage(websocket.BinaryMessage, data)
}

func (c *conn) Recv() (relay.Frame, error) {
	for {
		kind, data, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return relay.Frame{}, io.EOF
			}
			return relay.Frame{}, err
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		return relay.DecodeFrame(data)
	}
}

// Close says goodbye when possible, then drops the socket.
func (c *conn) Close() error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		_ = c.socket.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.mu.Unlock()
		err = c.socket.Close()
	})
	return err
}
