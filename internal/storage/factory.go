package storage

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// NewStore picks a backend: "fs" (default) archives under dataDir,
// "sqlite" archives in a single database file there.
func NewStore(kind, dataDir string) (Store, error) {
	switch kind {
	case "", "fs":
		return NewFSStore(dataDir), nil
	case "sqlite":
		return NewSQLiteStore(filepath.Join(dataDir, "runs.db")), nil
	default:
		return nil, fmt.Errorf("storage: unsupported backend %q", kind)
	}
}

// NewRunID produces a sortable unique run identifier.
func NewRunID(network string) string {
	return fmt.Sprintf("%s_%d_%s", network, time.Now().Unix(), uuid.NewString()[:8])
}
