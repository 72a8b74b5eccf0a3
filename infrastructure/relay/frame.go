// Package relay is a rendezvous and forwarding service for peers that cannot reach each other directly.
// A host claims a code, a guest joins it, and DATA frames are forwarded in order between them.
// Nothing is stored: bytes only transit.
package relay

import (
	"fmt"
	"tempest-share/errors"

	"github.com/go-playground/validator/v10"
	"github.com/vmihailenco/msgpack/v5"
)

type Op string

const (
	OpHost      Op = "HOST"
	OpJoin      Op = "JOIN"
	OpReady     Op = "READY"
	OpOpen      Op = "OPEN"
	OpConnected Op = "CONNECTED"
	OpData      Op = "DATA"
	OpClose     Op = "CLOSE"
	OpError     Op = "ERROR"
)

const maxCodeLen = 64

var validate = validator.New()

// Frame is the unit exchanged with the relay.
// Code is set on HOST, JOIN and READY, Payload on DATA, Kind on ERROR.
type Frame struct {
	Op      Op     `msgpack:"op" validate:"required,oneof=HOST JOIN READY OPEN CONNECTED DATA CLOSE ERROR"`
	Code    string `msgpack:"code,omitempty" validate:"required_if=Op HOST,required_if=Op JOIN,max=64"`
	Peer    string `msgpack:"peer,omitempty"`
	Payload []byte `msgpack:"payload,omitempty"`
	Kind    string `msgpack:"kind,omitempty"`
}

func (f Frame) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("invalid %s frame: %v: %w", f.Op, err, errors.ErrMalformedMessage)
	}
	return nil
}

func EncodeFrame(f Frame) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return msgpack.Marshal(f)
}

func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("undecodable relay frame: %v: %w", err, errors.ErrMalformedMessage)
	}
	return f, f.Validate()
}

func errorFrame(err error) Frame {
	return Frame{Op: OpError, Kind: errors.Kind(err)}
}
