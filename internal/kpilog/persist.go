package kpilog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound is returned by a Persister when no blob exists under a key.
var ErrNotFound = errors.New("kpilog: key not found")

// Persister stores the serialized store as a single blob under a fixed key.
type Persister interface {
	Read(key string) ([]byte, error)
	Write(key string, blob []byte) error
	Close() error
}

// MemoryPersister keeps blobs in memory.
type MemoryPersister struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewMemoryPersister creates an empty MemoryPersister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{blobs: make(map[string][]byte)}
}

func (m *MemoryPersister) Read(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	blob, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, nil
}

func (m *MemoryPersister) Write(key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(blob))
	copy(stored, blob)
	m.blobs[key] = stored
	return nil
}

func (m *MemoryPersister) Close() error { return nil }

// FilePersister writes each key to <Dir>/<key>.json.
type FilePersister struct {
	Dir string
}

// NewFilePersister creates the directory if needed.
func NewFilePersister(dir string) (*FilePersister, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FilePersister{Dir: dir}, nil
}

func (f *FilePersister) path(key string) string {
	return filepath.Join(f.Dir, fmt.Sprintf("%s.json", key))
}

func (f *FilePersister) Read(key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}
	return data, nil
}

// Write replaces the file atomically via a temp file and rename.
func (f *FilePersister) Write(key string, blob []byte) error {
	path := f.path(key)
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp store file: %w", err)
	}

	if _, err := file.Write(blob); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write store file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename store file: %w", err)
	}
	return nil
}

func (f *FilePersister) Close() error { return nil }
