// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local is a data source that streams a file from the local disk. The file
// is opened for sequential reading, never slurped whole.
type Local struct{ path string }

// NewLocal returns a Local source bound to path. The path is not touched
// until Open is called.
func NewLocal(path string) *Local { return &Local{path: path} }

// Open opens the configured path for reading.
//
// A canceled or expired context returns the context error without touching
// the filesystem. Filesystem errors are wrapped with the path while keeping
// errors.Is checks intact (e.g. errors.Is(err, os.ErrNotExist),
// errors.Is(err, os.ErrPermission)).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// Path returns the configured filesystem path.
func (l *Local) Path() string { return l.path }
