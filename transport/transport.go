//go:generate go run go.uber.org/mock/mockgen -source=transport.go -destination=../mocks/mock_transport.go -package=mocks

// Package transport describes the peer connection service the session controller relies on:
// rendezvous by code, accepted connections, and an ordered channel carrying framed messages.
package transport

import (
	"context"
)

// Adapter creates both sides of a channel.
// Implementations deliver every event of one endpoint or channel to its sink in order,
// one at a time, and stop delivering once Destroy or Close has been called.
// Publish may be called from any goroutine but never from inside an Adapter method.
type Adapter interface {
	// CreateEndpoint claims code for a sender.
	// It fails with errors.ErrCodeUnavailable when a live endpoint already holds it.
	CreateEndpoint(ctx context.Context, code string, sink Sink) (Endpoint, error)
	// ConnectTo opens a channel towards the endpoint holding code.
	// When the code does not resolve, ChannelFailed carries errors.ErrPeerUnavailable.
	ConnectTo(ctx context.Context, code string, sink Sink) (Channel, error)
}

type Endpoint interface {
	ID() string
	Destroy() error
}

// Channel is an ordered, lossless, message oriented pipe.
type Channel interface {
	Send(data []byte) error
	Close() error
}

type Sink interface {
	Publish(ev Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ev Event)

func (f SinkFunc) Publish(ev Event) { f(ev) }

// Event is anything an adapter reports about an endpoint or a channel.
type Event interface {
	isTransportEvent()
}

type EndpointReady struct{ ID string }

// IncomingConnection hands over a channel opened by a remote peer.
// The channel is not open yet, ChannelOpened follows on the sink it was attached with.
type IncomingConnection struct {
	Channel Channel
	Attach  func(sink Sink)
}

type EndpointFailed struct{ Err error }

// EndpointDisconnected means the endpoint lost the rendezvous service.
type EndpointDisconnected struct{}

type ChannelOpened struct{}

type DataReceived struct{ Payload []byte }

type ChannelClosed struct{}

type ChannelFailed struct{ Err error }

func (EndpointReady) isTransportEvent()        {}
func (IncomingConnection) isTransportEvent()   {}
func (EndpointFailed) isTransportEvent()       {}
func (EndpointDisconnected) isTransportEvent() {}
func (ChannelOpened) isTransportEvent()        {}
func (DataReceived) isTransportEvent()         {}
func (ChannelClosed) isTransportEvent()        {}
func (ChannelFailed) isTransportEvent()        {}
