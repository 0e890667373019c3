// Package transformer renders a batch of raw input lines into the VALUES
// body of one bulk insert statement.
//
// Each line is trimmed, blank lines are dropped, and the survivors are
// wrapped into parenthesized tuples ("1,a" -> "(1,a)"). No field-level
// quoting or coercion happens here; the trimmed text passes through
// verbatim. Work fans out across a bounded worker pool and the fragments
// are folded in completion order, so fragment order within a batch is
// unspecified. Target rows are unordered set members, which makes that a
// property of the design rather than a defect.
package transformer

import (
	"context"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Values builds the comma-joined value list for one batch using up to
// workers goroutines. It returns the joined list and the number of
// fragments it contains; a zero count means every line was blank and the
// batch must be skipped without a dispatch.
func Values(ctx context.Context, batch []string, workers int) (string, int, error) {
	if len(batch) == 0 {
		return "", 0, nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(batch) {
		workers = len(batch)
	}

	var (
		mu        sync.Mutex
		fragments = make([]string, 0, len(batch))
	)

	g, ctx := errgroup.WithContext(ctx)
	idx := make(chan int)

	g.Go(func() error {
		defer close(idx)
		for i := range batch {
			select {
			case idx <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range idx {
				trimmed := strings.TrimSpace(batch[i])
				if trimmed == "" {
					continue
				}
				frag := "(" + trimmed + ")"
				mu.Lock()
				fragments = append(fragments, frag)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return "", 0, err
	}
	return strings.Join(fragments, ", "), len(fragments), nil
}
