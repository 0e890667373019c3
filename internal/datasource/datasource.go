// Package datasource abstracts over the origins a load can read from: a
// local file, an http(s) URL, or the process's standard input. Each origin
// is resolved exactly once into an io.ReadCloser; downstream stages only
// ever see a forward-only byte stream and never learn where it came from.
package datasource

import (
	"context"
	"io"
	"os"
	"strings"
)

// Source is the contract every origin implements. Open may block (e.g. a
// remote fetch) and must honor ctx cancellation.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Stdin wraps the process's standard input. The stream is conceptually
// unbounded; it ends when the caller's input does.
type Stdin struct{}

// Open returns stdin behind a NopCloser so the pipeline can treat every
// source uniformly without closing the process's fd.
func (Stdin) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(os.Stdin), nil
}

// IsURL reports whether spec names a remote origin.
func IsURL(spec string) bool {
	return strings.HasPrefix(spec, "http://") || strings.HasPrefix(spec, "https://")
}
