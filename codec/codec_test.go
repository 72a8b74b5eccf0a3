package codec

import (
	"bytes"
	"tempest-share/domain"
	"tempest-share/errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestEncodeDecode_PreservesMessages(t *testing.T) {
	binary := []byte{0x00, 0xff, 0xc0, 0x0a, 0x0d, 0xe2, 0x82}
	full := bytes.Repeat([]byte{0x42}, domain.ChunkSize)

	tests := []struct {
		description string
		msg         domain.Message
	}{
		{"metadata", domain.NewMetadataMessage(domain.FileMetadata{Name: "report.pdf", Size: 150000, MimeType: "application/pdf"})},
		{"metadata of an empty file without type", domain.NewMetadataMessage(domain.FileMetadata{Name: "empty.bin"})},
		{"chunk with bytes that are not valid text", domain.NewChunkMessage(binary)},
		{"single byte chunk", domain.NewChunkMessage([]byte{0x01})},
		{"full size chunk", domain.NewChunkMessage(full)},
		{"end", domain.NewEndMessage()},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			req := require.New(t)

			data, err := Encode(tt.msg)
			req.NoError(err)

			got, err := Decode(data)
			req.NoError(err)
			req.Equal(tt.msg, got)
		})
	}
}

func TestEncode_RejectsInvalidMessages(t *testing.T) {
	tests := []struct {
		description string
		msg         domain.Message
	}{
		{"metadata without payload", domain.Message{Type: domain.METADATA}},
		{"metadata without name", domain.NewMetadataMessage(domain.FileMetadata{Size: 3})},
		{"empty chunk", domain.NewChunkMessage(nil)},
		{"oversized chunk", domain.NewChunkMessage(make([]byte, domain.ChunkSize+1))},
		{"unknown type", domain.Message{Type: "PING"}},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			_, err := Encode(tt.msg)
			require.ErrorIs(t, err, errors.ErrMalformedMessage)
		})
	}
}

func TestDecode_RejectsMalformedFrames(t *testing.T) {
	mustMarshal := func(v any) []byte {
		data, err := msgpack.Marshal(v)
		require.NoError(t, err)
		return data
	}

	tests := []struct {
		description string
		data        []byte
	}{
		{"garbage bytes", []byte{0xde, 0xad, 0xbe, 0xef}},
		{"empty input", nil},
		{"not a map", mustMarshal([]string{"CHUNK"})},
		{"unknown tag", mustMarshal(map[string]any{"type": "HELLO"})},
		{"missing tag", mustMarshal(map[string]any{"payload": []byte{1}})},
		{"chunk without payload", mustMarshal(map[string]any{"type": "CHUNK"})},
		{"chunk with nil payload", mustMarshal(map[string]any{"type": "CHUNK", "payload": nil})},
		{"chunk with text payload", mustMarshal(map[string]any{"type": "CHUNK", "payload": "hello"})},
		{"chunk with numeric payload", mustMarshal(map[string]any{"type": "CHUNK", "payload": 12})},
		{"chunk with empty payload", mustMarshal(map[string]any{"type": "CHUNK", "payload": []byte{}})},
		{"chunk over the size limit", mustMarshal(map[string]any{"type": "CHUNK", "payload": make([]byte, domain.ChunkSize+1)})},
		{"metadata without payload", mustMarshal(map[string]any{"type": "METADATA"})},
		{"metadata with binary payload", mustMarshal(map[string]any{"type": "METADATA", "payload": []byte{1, 2}})},
		{"metadata without size", mustMarshal(map[string]any{"type": "METADATA", "payload": map[string]any{"fileName": "a.txt"}})},
		{"metadata with negative size", mustMarshal(map[string]any{"type": "METADATA", "payload": map[string]any{"fileName": "a.txt", "fileSize": -1}})},
		{"metadata without name", mustMarshal(map[string]any{"type": "METADATA", "payload": map[string]any{"fileSize": 10}})},
		{"end with payload", mustMarshal(map[string]any{"type": "END", "payload": []byte{1}})},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			req := require.New(t)

			req.NotPanics(func() {
				_, err := Decode(tt.data)
				req.ErrorIs(err, errors.ErrMalformedMessage)
			})
		})
	}
}

func TestDecode_AcceptsEndWithNilPayload(t *testing.T) {
	req := require.New(t)

	// Given an END frame whose payload is explicitly nil
	data, err := msgpack.Marshal(map[string]any{"type": "END", "payload": nil})
	req.NoError(err)

	// When it is decoded
	msg, err := Decode(data)

	// Then it is a plain END
	req.NoError(err)
	req.Equal(domain.NewEndMessage(), msg)
}

func TestChunking_RoundTrip(t *testing.T) {
	req := require.New(t)

	// Given a file split the way the sender splits it
	file := make([]byte, 150000)
	for i := range file {
		file[i] = byte(i * 7)
	}
	var frames [][]byte
	for offset := 0; offset < len(file); offset += domain.ChunkSize {
		end := min(offset+domain.ChunkSize, len(file))
		data, err := Encode(domain.NewChunkMessage(file[offset:end]))
		req.NoError(err)
		frames = append(frames, data)
	}

	// When every frame is decoded in order
	var rebuilt []byte
	var sizes []int
	for _, data := range frames {
		msg, err := Decode(data)
		req.NoError(err)
		sizes = append(sizes, len(msg.Chunk))
		rebuilt = append(rebuilt, msg.Chunk...)
	}

	// Then the bytes are identical
	req.Equal([]int{65536, 65536, 18928}, sizes)
	req.Equal(file, rebuilt)
}
