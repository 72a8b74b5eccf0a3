package storage

import (
	"bytes"
	"fmt"
	"sync"
	"tempest-share/domain"

	"github.com/google/uuid"
)

// MemoryAssembler keeps assembled files in memory, keyed by a random handle.
type MemoryAssembler struct {
	mu    sync.RWMutex
	files map[domain.Handle][]byte
}

func NewMemoryAssembler() *MemoryAssembler {
	return &MemoryAssembler{files: make(map[domain.Handle][]byte)}
}

func (a *MemoryAssembler) Assemble(meta domain.FileMetadata, chunks [][]byte) (domain.Handle, error) {
	content := bytes.Join(chunks, nil)
	if uint64(len(content)) != meta.Size {
		return "", fmt.Errorf("size mismatch for %s: got %d bytes, want %d", meta.Name, len(content), meta.Size)
	}
	handle := domain.Handle("memory://" + uuid.NewString() + "/" + meta.Name)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.files[handle] = content
	return handle, nil
}

func (a *MemoryAssembler) Release(handle domain.Handle) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.files, handle)
	return nil
}

// Bytes returns the content behind handle.
func (a *MemoryAssembler) Bytes(handle domain.Handle) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	content, ok := a.files[handle]
	return content, ok
}

// Len returns how many files are held.
func (a *MemoryAssembler) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.files)
}
