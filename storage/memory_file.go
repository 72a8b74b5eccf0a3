package storage

import (
	"context"
	"fmt"
	"tempest-share/domain"
	"tempest-share/domain/mimetypes"
	"tempest-share/errors"
)

// MemoryFile serves an in-memory byte slice as a shared file.
type MemoryFile struct {
	meta    domain.FileMetadata
	content []byte
}

// NewMemoryFile wraps content. An empty mimeType is sniffed from the content.
func NewMemoryFile(name, mimeType string, content []byte) *MemoryFile {
	if mimeType == "" {
		mimeType = mimetypes.Detect(content[:min(len(content), sniffLen)])
	}
	return &MemoryFile{
		meta:    domain.FileMetadata{Name: name, Size: uint64(len(content)), MimeType: mimeType},
		content: content,
	}
}

func (f *MemoryFile) Metadata() domain.FileMetadata {
	return f.meta
}

func (f *MemoryFile) ReadSlice(ctx context.Context, offset uint64, length int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset > uint64(len(f.content)) {
		return nil, fmt.Errorf("offset %d beyond %d bytes: %w", offset, len(f.content), errors.ErrReadFailure)
	}
	end := min(offset+uint64(length), uint64(len(f.content)))
	out := make([]byte, end-offset)
	copy(out, f.content[offset:end])
	return out, nil
}
