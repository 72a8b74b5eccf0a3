package services

import (
	"fmt"
	"log/slog"
	"tempest-share/codec"
	"tempest-share/domain"
	"tempest-share/errors"
	"tempest-share/transport"
)

// ReadRequest asks for the next slice of the shared file.
type ReadRequest struct {
	Offset uint64
	Length int
}

// Step is what the sender expects after each emission.
// Next is nil once END has been sent.
type Step struct {
	Progress float64
	Next     *ReadRequest
	Done     bool
}

// Sender writes one file on an open channel as METADATA, CHUNK*, END.
// It never reads the file itself: each Step names the next slice and Deliver
// receives it, so there is at most one read in flight.
type Sender struct {
	log     *slog.Logger
	channel transport.Channel
	meta    domain.FileMetadata
	offset  uint64
	started bool
}

func NewSender(log *slog.Logger, channel transport.Channel, meta domain.FileMetadata) *Sender {
	return &Sender{log: log, channel: channel, meta: meta}
}

// Begin emits METADATA. An empty file is finished right away.
func (s *Sender) Begin() (Step, error) {
	if s.started {
		return Step{}, fmt.Errorf("sending of %s already started", s.meta.Name)
	}
	s.started = true

	if err := s.emit(domain.NewMetadataMessage(s.meta)); err != nil {
		return Step{}, err
	}
	s.log.Info("Metadata sent", "file", s.meta.Name, "size", s.meta.Size, "type", s.meta.MimeType)

	if s.meta.Size == 0 {
		if err := s.emit(domain.NewEndMessage()); err != nil {
			return Step{}, err
		}
		return Step{Progress: domain.Progress(0, 0), Done: true}, nil
	}
	return Step{Progress: 0, Next: s.next()}, nil
}

// Deliver emits the slice read for the last Step as one CHUNK.
// After the final chunk the progress is exactly 100 and END follows.
func (s *Sender) Deliver(chunk []byte) (Step, error) {
	want := s.next()
	if !s.started || want == nil {
		return Step{}, fmt.Errorf("unexpected slice of %d bytes for %s", len(chunk), s.meta.Name)
	}
	if len(chunk) != want.Length {
		return Step{}, fmt.Errorf("short read at offset %d: got %d bytes, want %d: %w",
			want.Offset, len(chunk), want.Length, errors.ErrReadFailure)
	}

	if err := s.emit(domain.NewChunkMessage(chunk)); err != nil {
		return Step{}, err
	}
	s.offset += uint64(len(chunk))
	progress := domain.Progress(s.offset, s.meta.Size)
	s.log.Debug("Chunk sent", "offset", want.Offset, "length", len(chunk), "progress", progress)

	if s.offset < s.meta.Size {
		return Step{Progress: progress, Next: s.next()}, nil
	}
	if err := s.emit(domain.NewEndMessage()); err != nil {
		return Step{}, err
	}
	s.log.Info("File sent", "file", s.meta.Name, "size", s.meta.Size)
	return Step{Progress: progress, Done: true}, nil
}

// Sent returns how many file bytes went out.
func (s *Sender) Sent() uint64 {
	return s.offset
}

func (s *Sender) next() *ReadRequest {
	if s.offset >= s.meta.Size {
		return nil
	}
	return &ReadRequest{
		Offset: s.offset,
		Length: int(min(uint64(domain.ChunkSize), s.meta.Size-s.offset)),
	}
}

func (s *Sender) emit(msg domain.Message) error {
	data, err := codec.Encode(msg)
	if err != nil {
		return err
	}
	if err := s.channel.Send(data); err != nil {
		return fmt.Errorf("unable to send %s: %w", msg.Type, err)
	}
	return nil
}
