package relay

import (
	"context"
	"fmt"
	"io"
	"sync"
)

const pipeBuffer = 1024

// pipeConn is one end of an in-process stream. Frames already queued are still
// delivered after the pipe is closed.
type pipeConn struct {
	in   <-chan Frame
	out  chan<- Frame
	done chan struct{}
	once *sync.Once
}

// Pipe returns the two ends of an in-process stream.
func Pipe() (Conn, Conn) {
	ab, ba := make(chan Frame, pipeBuffer), make(chan Frame, pipeBuffer)
	done, once := make(chan struct{}), &sync.Once{}
	return &pipeConn{in: ba, out: ab, done: done, once: once},
		&pipeConn{in: ab, out: ba, done: done, once: once}
}

func (p *pipeConn) Send(f Frame) error {
	select {
	case <-p.done:
		return io.ErrClosedPipe
	default:
	}
	select {
	case p.out <- f:
		return nil
	case <-p.done:
		return io.ErrClosedPipe
	}
}

func (p *pipeConn) Recv() (Frame, error) {
	select {
	case f := <-p.in:
		return f, nil
	default:
	}
	select {
	case f := <-p.in:
		return f, nil
	case <-p.done:
		select {
		case f := <-p.in:
			return f, nil
		default:
			return Frame{}, io.EOF
		}
	}
}

func (p *pipeConn) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}

// LocalDialer connects to a Hub running in the same process.
type LocalDialer struct {
	ctx context.Context
	hub *Hub
}

// NewLocalDialer serves every dialed stream on hub until ctx is done.
func NewLocalDialer(ctx context.Context, hub *Hub) *LocalDialer {
	return &LocalDialer{ctx: ctx, hub: hub}
}

func (d *LocalDialer) Dial(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := d.ctx.Err(); err != nil {
		return nil, fmt.Errorf("local relay stopped: %w", err)
	}
	client, server := Pipe()
	go func() {
		defer server.Close()
		if err := d.hub.Serve(d.ctx, server); err != nil {
			d.hub.log.Debug("Local stream ended", "error", err)
		}
	}()
	return client, nil
}
