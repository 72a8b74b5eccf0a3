package services

import (
	"fmt"
	"log/slog"
	"tempest-share/contract"
	"tempest-share/domain"
	"tempest-share/errors"
)

// Update is what the receiver reports after each message.
// File is only set once END has been received and the chunks assembled.
type Update struct {
	Progress float64
	File     *domain.SharedFile
}

// Receiver rebuilds one file from METADATA, CHUNK*, END.
// It owns the chunk buffer until the file is assembled or released.
type Receiver struct {
	log       *slog.Logger
	assembler contract.Assembler
	meta      *domain.FileMetadata
	chunks    [][]byte
	received  uint64
	ended     bool
}

func NewReceiver(log *slog.Logger, assembler contract.Assembler) *Receiver {
	return &Receiver{log: log, assembler: assembler}
}

// Process applies one decoded message. Any message out of the
// METADATA, CHUNK*, END order fails with errors.ErrMalformedMessage.
func (r *Receiver) Process(msg domain.Message) (Update, error) {
	if r.ended {
		return Update{}, fmt.Errorf("%s after END: %w", msg.Type, errors.ErrMalformedMessage)
	}

	switch msg.Type {
	case domain.METADATA:
		if r.meta != nil {
			return Update{}, fmt.Errorf("duplicate METADATA: %w", errors.ErrMalformedMessage)
		}
		meta := *msg.Metadata
		r.meta = &meta
		r.log.Info("Metadata received", "file", meta.Name, "size", meta.Size, "type", meta.MimeType)
		return Update{Progress: 0}, nil

	case domain.CHUNK:
		if r.meta == nil {
			return Update{}, fmt.Errorf("CHUNK before METADATA: %w", errors.ErrMalformedMessage)
		}
		if r.received+uint64(len(msg.Chunk)) > r.meta.Size {
			return Update{}, fmt.Errorf("received more than the %d bytes announced: %w", r.meta.Size, errors.ErrMalformedMessage)
		}
		r.chunks = append(r.chunks, msg.Chunk)
		r.received += uint64(len(msg.Chunk))
		progress := domain.Progress(r.received, r.meta.Size)
		r.log.Debug("Chunk received", "length", len(msg.Chunk), "received", r.received, "progress", progress)
		return Update{Progress: progress}, nil

	case domain.END:
		if r.meta == nil {
			return Update{}, fmt.Errorf("END before METADATA: %w", errors.ErrMalformedMessage)
		}
		if r.received != r.meta.Size {
			return Update{}, fmt.Errorf("END after %d of %d bytes: %w", r.received, r.meta.Size, errors.ErrMalformedMessage)
		}
		r.ended = true
		file, err := r.Assemble()
		if err != nil {
			return Update{}, err
		}
		return Update{Progress: domain.Progress(r.received, r.meta.Size), File: &file}, nil

	default:
		return Update{}, fmt.Errorf("unknown message type %q: %w", msg.Type, errors.ErrMalformedMessage)
	}
}

// Assemble joins the chunks in arrival order and hands them to the assembler.
// The chunk buffer is dropped whatever the outcome.
func (r *Receiver) Assemble() (domain.SharedFile, error) {
	if r.meta == nil {
		return domain.SharedFile{}, fmt.Errorf("nothing to assemble: %w", errors.ErrMalformedMessage)
	}
	defer r.Release()

	handle, err := r.assembler.Assemble(*r.meta, r.chunks)
	if err != nil {
		return domain.SharedFile{}, fmt.Errorf("unable to assemble %s: %w", r.meta.Name, err)
	}
	r.log.Info("File assembled", "file", r.meta.Name, "size", r.meta.Size, "chunks", len(r.chunks))
	return domain.SharedFile{
		FileName: r.meta.Name,
		FileSize: r.meta.Size,
		FileType: r.meta.MimeType,
		Handle:   handle,
	}, nil
}

// Release discards the buffered chunks.
func (r *Receiver) Release() {
	r.chunks = nil
}

// Received returns the running byte counter.
func (r *Receiver) Received() uint64 {
	return r.received
}
