// Package config defines the resolved load request the pipeline executes.
// It is intentionally small, explicit, and dependency-free: values arrive
// from flags and the environment at the CLI edge, are validated once, and
// are read-only from then on.
package config

// Load is the immutable descriptor of one load request.
type Load struct {
	// Job labels metrics and log lines for this run.
	Job string

	// Source is the input origin: a local path, an http(s) URL, or empty
	// (or "-") for standard input.
	Source string

	// Endpoint is the query service URL statements are POSTed to.
	Endpoint string

	// Table is the required target table name.
	Table string

	// Schema optionally declares the target table as comma-separated
	// name:type pairs, e.g. "a:uint8,b:uint64". Empty means the table must
	// already exist.
	Schema string

	// SkipHeadLines discards this many leading lines before data.
	SkipHeadLines int

	// BatchSize caps lines per insert statement; 0 selects the default.
	BatchSize int

	// Workers bounds the per-batch transform pool; 0 selects GOMAXPROCS.
	Workers int

	// Journal optionally names a SQLite file recording batch outcomes.
	Journal string
}

// Stdin reports whether the request reads from standard input.
func (l Load) Stdin() bool { return l.Source == "" || l.Source == "-" }
