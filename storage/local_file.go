package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"tempest-share/domain"
	"tempest-share/domain/mimetypes"
	"tempest-share/errors"
)

const sniffLen = 512

// LocalFile is a file on disk offered for sharing.
type LocalFile struct {
	file *os.File
	meta domain.FileMetadata
}

// OpenLocalFile checks that path is a regular file, sniffs its type and keeps it open for slice reads.
// A maxSizeMb of zero disables the size limit.
func OpenLocalFile(path string, maxSizeMb int) (*LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("file not found at %s: %v: %w", path, err, errors.ErrReadFailure)
	}
	if info.IsDir() || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("entry %s is not a file: %w", path, errors.ErrReadFailure)
	}
	size := uint64(info.Size())
	if maxSizeMb > 0 && size > uint64(maxSizeMb)*domain.MB {
		return nil, fmt.Errorf("file is too large: %d bytes (limit is %d MB): %w", size, maxSizeMb, errors.ErrReadFailure)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("access denied to %s: %v: %w", path, err, errors.ErrReadFailure)
	}

	sniffBuf := make([]byte, sniffLen)
	n, err := file.ReadAt(sniffBuf, 0)
	if err != nil && err != io.EOF {
		_ = file.Close()
		return nil, fmt.Errorf("unable to sniff %s: %v: %w", path, err, errors.ErrReadFailure)
	}

	return &LocalFile{
		file: file,
		meta: domain.FileMetadata{
			Name:     filepath.Base(path),
			Size:     size,
			MimeType: mimetypes.Detect(sniffBuf[:n]),
		},
	}, nil
}

func (f *LocalFile) Metadata() domain.FileMetadata {
	return f.meta
}

// ReadSlice reads length bytes at offset. The slice is shorter only at the end of the file.
func (f *LocalFile) ReadSlice(ctx context.Context, offset uint64, length int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := make([]byte, length)
	n, err := f.file.ReadAt(buf, int64(offset))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("unable to read %s at offset %d: %v: %w", f.meta.Name, offset, err, errors.ErrReadFailure)
	}
	return buf[:n], nil
}

func (f *LocalFile) Close() error {
	return f.file.Close()
}
