// Package relayrpc describes the relay as a gRPC service.
// Frames travel as msgpack rather than protobuf, so the service descriptor is declared by hand
// and a msgpack codec is registered under the "msgpack" content subtype.
package relayrpc

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	ServiceName = "tempest.relay.Relay"
	// ConnectMethod is the full name of the bidirectional stream.
	ConnectMethod = "/" + ServiceName + "/Connect"
	// Subtype is the content subtype both sides must use.
	Subtype = "msgpack"
)

func init() {
	encoding.RegisterCodec(Codec{})
}

// Codec marshals gRPC messages with msgpack.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("msgpack marshal %T: %w", v, err)
	}
	return data, nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("msgpack unmarshal %T: %w", v, err)
	}
	return nil
}

func (Codec) Name() string {
	return Subtype
}

// RelayServer is implemented by the server side of the Connect stream.
type RelayServer interface {
	Connect(stream grpc.ServerStream) error
}

func RegisterRelayServer(s grpc.ServiceRegistrar, srv RelayServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func connectHandler(srv any, stream grpc.ServerStream) error {
	return srv.(RelayServer).Connect(stream)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RelayServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Connect",
			Handler:       connectHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "tempest/relay",
}
