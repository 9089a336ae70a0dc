// Package blob defines the artifact blob store collaborator and ships a
// filesystem implementation plus an in-memory one for tests and the CLI.
package blob

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Download for a path with no stored object.
var ErrNotFound = errors.New("blob not found")

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Store is the artifact blob store. Objects are immutable per path in
// practice: the export pipeline only ever writes deterministic content to a
// content-addressed path, so a concurrent overwrite is byte-identical.
type Store interface {
	Download(ctx context.Context, path string) ([]byte, error)
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Delete(ctx context.Context, path string) error
}
