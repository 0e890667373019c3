// Package load drives one end-to-end load: resolve the target table
// reference, stream the source line by line, group lines into bounded
// batches, render each batch into a bulk insert statement, and dispatch the
// statements sequentially against the query endpoint.
//
// Dispatch failures are per-batch and non-fatal; the load carries on and
// reports them in the Summary. Setup failures (source open, schema parse,
// schema resolve) and stream I/O failures are fatal.
package load

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dustin/go-humanize"

	"bendload/internal/datasource"
	"bendload/internal/metrics"
	"bendload/internal/parser/lines"
	"bendload/internal/queryapi"
	"bendload/internal/schema"
	"bendload/internal/transformer"
)

// DefaultBatchSize caps how many lines one insert statement may carry.
const DefaultBatchSize = 100_000

// Executor dispatches one statement to the query endpoint.
type Executor interface {
	Execute(ctx context.Context, stmt string) (*queryapi.Result, error)
}

// Recorder persists per-batch outcomes. journal.Journal implements it; a
// nil Recorder disables journaling.
type Recorder interface {
	Begin(ctx context.Context, table, source string) (string, error)
	RecordBatch(ctx context.Context, seq int64, lineCount int, stmt string, dispatchErr error) error
	Finish(ctx context.Context, batches, failed int64) error
}

// Options describes one load request. It is read-only throughout the run.
type Options struct {
	// Job labels metrics and log lines. Defaults to "load".
	Job string

	// Source is the resolved input origin.
	Source datasource.Source
	// SourceName names the origin for logs and the journal ("-" for stdin).
	SourceName string

	// Exec is the shared query endpoint client.
	Exec Executor

	// Table is the required target table name.
	Table string
	// SchemaSpec is the optional schema string ("a:uint8,b:uint64"); empty
	// means the table must already exist.
	SchemaSpec string

	// SkipHeadLines discards this many leading lines before any record
	// counts as data.
	SkipHeadLines int
	// BatchSize bounds lines per insert statement. 0 means DefaultBatchSize.
	BatchSize int
	// Workers bounds the per-batch transform pool. 0 means GOMAXPROCS.
	Workers int

	// Recorder is the optional batch-outcome journal.
	Recorder Recorder
}

// Outcome is the result of dispatching one batch.
type Outcome struct {
	Seq   int64
	Lines int
	Err   error
}

// Summary is the terminal result of a completed load. Failed > 0 with a
// nil Run error means the load completed with errors.
type Summary struct {
	LoadID   string
	TableRef string
	Lines    int64 // data lines pulled from the source after header skip
	Blank    int64 // lines dropped as blank after trimming
	Inserted int64 // lines carried by acknowledged batches
	Batches  int64 // batches dispatched
	Failed   int64 // batches that failed at the endpoint
	Elapsed  time.Duration
	Outcomes []Outcome // per-batch dispatch results, in dispatch order
}

// Run executes one load. The returned Summary is valid whenever the error
// is nil, including no-op loads (header skip past EOF, empty input) and
// loads with failed batches.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	if opts.Table == "" {
		return nil, fmt.Errorf("load: table is required")
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("load: source is required")
	}
	if opts.Exec == nil {
		return nil, fmt.Errorf("load: query executor is required")
	}
	job := opts.Job
	if job == "" {
		job = "load"
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if opts.SkipHeadLines < 0 {
		return nil, fmt.Errorf("load: skip-head-lines must not be negative")
	}

	start := time.Now()
	sum := &Summary{}

	// Schema parse runs before any network call; resolve runs exactly once
	// before the batch loop.
	var sch *schema.Schema
	if opts.SchemaSpec != "" {
		parsed, err := schema.Parse(opts.SchemaSpec)
		if err != nil {
			return nil, err
		}
		sch = parsed
	}

	resolveStart := time.Now()
	tableRef, err := schema.Resolve(ctx, opts.Exec, opts.Table, sch)
	metrics.RecordStep(job, "resolve_schema", err, time.Since(resolveStart))
	if err != nil {
		return nil, err
	}
	sum.TableRef = tableRef

	rc, err := opts.Source.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	if opts.Recorder != nil {
		id, err := opts.Recorder.Begin(ctx, opts.Table, opts.SourceName)
		if err != nil {
			return nil, err
		}
		sum.LoadID = id
	}

	stream := lines.New(rc)
	skipped, err := stream.Skip(ctx, opts.SkipHeadLines)
	if err != nil {
		return nil, err
	}
	metrics.RecordLines(job, "skipped_header", int64(skipped))
	if skipped < opts.SkipHeadLines {
		// Header skip ran past the end of the input: a successful no-op.
		return finish(ctx, opts, sum, start)
	}

	lastFlush := time.Now()
	var lastInserted int64

	for {
		batch, err := stream.ReadBatch(ctx, batchSize)
		if err != nil {
			return sum, err
		}
		if len(batch) == 0 {
			break
		}
		sum.Lines += int64(len(batch))
		metrics.RecordLines(job, "read", int64(len(batch)))

		values, count, err := transformer.Values(ctx, batch, opts.Workers)
		if err != nil {
			return sum, err
		}
		sum.Blank += int64(len(batch) - count)
		metrics.RecordLines(job, "dropped_blank", int64(len(batch)-count))
		if count == 0 {
			// Every line was blank; nothing to dispatch, no diagnostic.
			continue
		}

		stmt := "INSERT INTO " + tableRef + " VALUES " + values + ";"

		seq := sum.Batches + 1
		dispatchStart := time.Now()
		_, dispatchErr := opts.Exec.Execute(ctx, stmt)
		elapsed := time.Since(dispatchStart)

		sum.Batches++
		sum.Outcomes = append(sum.Outcomes, Outcome{Seq: seq, Lines: count, Err: dispatchErr})
		metrics.RecordStep(job, "dispatch", dispatchErr, elapsed)
		metrics.RecordBatch(job, dispatchErr)

		if opts.Recorder != nil {
			if jerr := opts.Recorder.RecordBatch(ctx, seq, count, stmt, dispatchErr); jerr != nil {
				log.Printf("journal: %v", jerr)
			}
		}

		if dispatchErr != nil {
			sum.Failed++
			log.Printf("cannot insert data into %s, error: %v", opts.Table, dispatchErr)
			continue
		}

		sum.Inserted += int64(count)
		metrics.RecordLines(job, "inserted", int64(count))

		// Progress line per acknowledged batch.
		now := time.Now()
		sinceLast := now.Sub(lastFlush)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(sum.Inserted-lastInserted) / sinceLast.Seconds()
		}
		log.Printf(
			"batch #%d: rps=%.0f inserted=%d total_inserted=%s elapsed=%s since_last=%s",
			seq,
			rps,
			count,
			humanize.Comma(sum.Inserted),
			now.Sub(start).Truncate(time.Millisecond),
			sinceLast.Truncate(time.Millisecond),
		)
		lastFlush = now
		lastInserted = sum.Inserted
	}

	return finish(ctx, opts, sum, start)
}

// finish stamps the summary, closes out the journal, and emits the
// terminal log line.
func finish(ctx context.Context, opts Options, sum *Summary, start time.Time) (*Summary, error) {
	sum.Elapsed = time.Since(start)
	if opts.Recorder != nil {
		if err := opts.Recorder.Finish(ctx, sum.Batches, sum.Failed); err != nil {
			log.Printf("journal: %v", err)
		}
	}
	log.Printf(
		"load complete: table=%s batches=%d failed=%d inserted=%s elapsed=%s",
		opts.Table,
		sum.Batches,
		sum.Failed,
		humanize.Comma(sum.Inserted),
		sum.Elapsed.Truncate(time.Millisecond),
	)
	return sum, nil
}
