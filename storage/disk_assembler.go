package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"tempest-share/domain"
)

const maxNameAttempts = 1000

// DiskAssembler writes received files into a directory.
// An existing file is never overwritten: report.pdf becomes report_1.pdf, report_2.pdf and so on.
type DiskAssembler struct {
	dir string
	log *slog.Logger
}

func NewDiskAssembler(log *slog.Logger, dir string) (*DiskAssembler, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create output directory %s: %w", dir, err)
	}
	return &DiskAssembler{dir: dir, log: log}, nil
}

// Assemble writes the chunks in order to a temporary file and moves it to its final name.
// The handle is the final path.
func (a *DiskAssembler) Assemble(meta domain.FileMetadata, chunks [][]byte) (domain.Handle, error) {
	tmp, err := os.CreateTemp(a.dir, ".tempest-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for %s: %w", meta.Name, err)
	}
	defer os.Remove(tmp.Name())

	var written uint64
	for _, chunk := range chunks {
		n, err := tmp.Write(chunk)
		if err != nil {
			_ = tmp.Close()
			return "", fmt.Errorf("failed to write chunk for %s: %w", meta.Name, err)
		}
		written += uint64(n)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file for %s: %w", meta.Name, err)
	}
	if written != meta.Size {
		return "", fmt.Errorf("size mismatch for %s: wrote %d bytes, want %d", meta.Name, written, meta.Size)
	}

	path, err := a.place(tmp.Name(), safeName(meta.Name))
	if err != nil {
		return "", err
	}
	a.log.Info("File written", "path", path, "size", written)
	return domain.Handle(path), nil
}

// Release keeps the file: once written it belongs to the user.
func (a *DiskAssembler) Release(handle domain.Handle) error {
	a.log.Debug("Releasing assembled file", "path", handle)
	return nil
}

// place links the temporary file under the first free name.
func (a *DiskAssembler) place(tmpPath, name string) (string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for i := 0; i < maxNameAttempts; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
		}
		path := filepath.Join(a.dir, candidate)
		err := os.Link(tmpPath, path)
		if err == nil {
			return path, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("unable to move %s to %s: %w", tmpPath, path, err)
		}
	}
	return "", fmt.Errorf("no free name for %s in %s", name, a.dir)
}

// safeName drops any directory part sent by the peer.
func safeName(name string) string {
	name = filepath.Base(filepath.Clean("/" + strings.ReplaceAll(name, `\`, "/")))
	if name == "/" || name == "." || name == "" {
		return "received.bin"
	}
	return name
}
