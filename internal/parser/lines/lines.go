// Package lines turns a raw source byte stream into the lazy, single-pass
// line sequence the load pipeline consumes: skip a header prefix, then pull
// bounded batches until the stream runs out.
//
// Memory stays bounded; nothing is buffered beyond the scanner's window and
// the batch currently being assembled. Input is decoded as UTF-8 with a
// BOM-aware transformer so files exported by spreadsheet tools do not leak
// a BOM into the first record.
package lines

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	initialBuf = 64 * 1024
	// maxLine caps a single record; anything longer is a stream error
	// rather than an OOM.
	maxLine = 16 * 1024 * 1024
)

// Stream is a forward-only line reader. Not safe for concurrent use; the
// driver advances it from a single goroutine.
type Stream struct {
	sc  *bufio.Scanner
	err error
}

// New wraps r in a BOM-stripping UTF-8 decoder and returns a line stream
// over it.
func New(r io.Reader) *Stream {
	dec := unicode.UTF8.NewDecoder()
	sc := bufio.NewScanner(transform.NewReader(r, unicode.BOMOverride(dec)))
	sc.Buffer(make([]byte, initialBuf), maxLine)
	return &Stream{sc: sc}
}

// Next returns the next line. ok is false when the stream is exhausted or
// failed; the two are told apart via Err.
func (s *Stream) Next(ctx context.Context) (line string, ok bool) {
	if s.err != nil {
		return "", false
	}
	select {
	case <-ctx.Done():
		s.err = ctx.Err()
		return "", false
	default:
	}
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			s.err = fmt.Errorf("read line: %w", err)
		}
		return "", false
	}
	return s.sc.Text(), true
}

// Skip consumes up to n leading lines. It returns the number actually
// consumed; fewer than n means the stream ended inside the header, which
// makes the whole load a no-op rather than an error.
func (s *Stream) Skip(ctx context.Context, n int) (int, error) {
	for i := 0; i < n; i++ {
		if _, ok := s.Next(ctx); !ok {
			return i, s.Err()
		}
	}
	return n, nil
}

// ReadBatch pulls up to size lines. An empty batch with a nil error means
// the stream is exhausted.
func (s *Stream) ReadBatch(ctx context.Context, size int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("batch size must be > 0")
	}
	batch := make([]string, 0, size)
	for len(batch) < size {
		line, ok := s.Next(ctx)
		if !ok {
			break
		}
		batch = append(batch, line)
	}
	return batch, s.Err()
}

// Err reports the first I/O or cancellation error hit while reading. EOF is
// not an error.
func (s *Stream) Err() error { return s.err }
