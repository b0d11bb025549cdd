package kpilog

import (
	"fmt"
	"path/filepath"
)

// OpenBackend opens the persister named by backend ("file", "sqlite", "badger"
// or "memory") rooted at dir.
func OpenBackend(backend, dir string) (Persister, error) {
	switch backend {
	case "", "file":
		return NewFilePersister(dir)
	case "sqlite":
		return OpenSQLite(filepath.Join(dir, "chemkpi.db"))
	case "badger":
		return OpenBadger(filepath.Join(dir, "badger"))
	case "memory":
		return NewMemoryPersister(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
