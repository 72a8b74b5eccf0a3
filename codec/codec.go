// Package codec encodes and decodes the three protocol messages as MessagePack frames.
// It is stateless: every call works on exactly one frame.
package codec

import (
	"fmt"
	"tempest-share/domain"
	"tempest-share/errors"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

type frame struct {
	Type    string             `msgpack:"type"`
	Payload msgpack.RawMessage `msgpack:"payload,omitempty"`
}

// Encode turns a message into a single frame. Chunks are written as MessagePack bin
// so that the bytes go through untouched.
func Encode(msg domain.Message) ([]byte, error) {
	f := frame{Type: string(msg.Type)}

	switch msg.Type {
	case domain.METADATA:
		if msg.Metadata == nil {
			return nil, fmt.Errorf("METADATA without metadata: %w", errors.ErrMalformedMessage)
		}
		size := int64(msg.Metadata.Size)
		p := metadataPayload{FileName: msg.Metadata.Name, FileSize: &size, FileType: msg.Metadata.MimeType}
		if err := validateMetadata(p); err != nil {
			return nil, err
		}
		raw, err := msgpack.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("unable to encode METADATA payload: %w", err)
		}
		f.Payload = raw
	case domain.CHUNK:
		if err := checkChunkLen(len(msg.Chunk)); err != nil {
			return nil, err
		}
		raw, err := msgpack.Marshal(msg.Chunk)
		if err != nil {
			return nil, fmt.Errorf("unable to encode CHUNK payload: %w", err)
		}
		f.Payload = raw
	case domain.END:
	default:
		return nil, fmt.Errorf("unknown message type %q: %w", msg.Type, errors.ErrMalformedMessage)
	}

	data, err := msgpack.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("unable to encode %s frame: %w", msg.Type, err)
	}
	return data, nil
}

// Decode parses one frame. Anything that is not exactly one of the three shapes
// is reported as errors.ErrMalformedMessage.
func Decode(data []byte) (domain.Message, error) {
	var f frame
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return domain.Message{}, fmt.Errorf("undecodable frame: %v: %w", err, errors.ErrMalformedMessage)
	}

	switch domain.MessageType(f.Type) {
	case domain.METADATA:
		return decodeMetadata(f.Payload)
	case domain.CHUNK:
		return decodeChunk(f.Payload)
	case domain.END:
		if len(f.Payload) > 0 && !(len(f.Payload) == 1 && f.Payload[0] == msgpcode.Nil) {
			return domain.Message{}, fmt.Errorf("END carries a payload: %w", errors.ErrMalformedMessage)
		}
		return domain.NewEndMessage(), nil
	default:
		return domain.Message{}, fmt.Errorf("unknown message type %q: %w", f.Type, errors.ErrMalformedMessage)
	}
}

func decodeMetadata(raw msgpack.RawMessage) (domain.Message, error) {
	if len(raw) == 0 {
		return domain.Message{}, fmt.Errorf("METADATA without payload: %w", errors.ErrMalformedMessage)
	}
	var p metadataPayload
	if err := msgpack.Unmarshal(raw, &p); err != nil {
		return domain.Message{}, fmt.Errorf("undecodable METADATA payload: %v: %w", err, errors.ErrMalformedMessage)
	}
	if err := validateMetadata(p); err != nil {
		return domain.Message{}, err
	}
	return domain.NewMetadataMessage(domain.FileMetadata{
		Name:     p.FileName,
		Size:     uint64(*p.FileSize),
		MimeType: p.FileType,
	}), nil
}

func decodeChunk(raw msgpack.RawMessage) (domain.Message, error) {
	if len(raw) == 0 {
		return domain.Message{}, fmt.Errorf("CHUNK without payload: %w", errors.ErrMalformedMessage)
	}
	switch raw[0] {
	case msgpcode.Bin8, msgpcode.Bin16, msgpcode.Bin32:
	default:
		return domain.Message{}, fmt.Errorf("CHUNK payload is not binary (0x%02x): %w", raw[0], errors.ErrMalformedMessage)
	}
	var chunk []byte
	if err := msgpack.Unmarshal(raw, &chunk); err != nil {
		return domain.Message{}, fmt.Errorf("undecodable CHUNK payload: %v: %w", err, errors.ErrMalformedMessage)
	}
	if err := checkChunkLen(len(chunk)); err != nil {
		return domain.Message{}, err
	}
	return domain.NewChunkMessage(chunk), nil
}

func checkChunkLen(n int) error {
	if n < 1 || n > domain.ChunkSize {
		return fmt.Errorf("chunk of %d bytes outside [1, %d]: %w", n, domain.ChunkSize, errors.ErrMalformedMessage)
	}
	return nil
}
