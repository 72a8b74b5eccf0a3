package relayrpc

import (
	"tempest-share/infrastructure/relay"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

func TestCodec_IsRegistered(t *testing.T) {
	req := require.New(t)
	req.NotNil(encoding.GetCodec(Subtype))
}

func TestCodec_Frame(t *testing.T) {
	req := require.New(t)
	codec := Codec{}

	// Given a DATA frame
	data, err := codec.Marshal(&relay.Frame{Op: relay.OpData, Payload: []byte{1, 2, 3}})
	req.NoError(err)

	// When it is decoded back
	var f relay.Frame
	req.NoError(codec.Unmarshal(data, &f))

	// Then nothing was lost
	req.Equal(relay.Frame{Op: relay.OpData, Payload: []byte{1, 2, 3}}, f)
}

func TestCodec_RejectsGarbage(t *testing.T) {
	var f relay.Frame
	require.Error(t, Codec{}.Unmarshal([]byte{0xc1}, &f))
}
