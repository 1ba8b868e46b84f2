// Package filestore persists uploaded files under their stored names.
package filestore

import (
	"context"
	"io"
)

// FileStore keeps the raw uploads. Names are flat, no directories.
type FileStore interface {
	// Save writes r under name. size may be -1 when unknown.
	Save(ctx context.Context, name string, r io.Reader, size int64) error
	// LocalPath makes the file available on the local filesystem for
	// extraction. release must be called once the path is no longer used.
	LocalPath(ctx context.Context, name string) (path string, release func(), err error)
	// Delete removes the file. A missing file is not an error.
	Delete(ctx context.Context, name string) error
	HealthCheck(ctx context.Context) error
}
