package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"bendload/internal/config"
	"bendload/internal/datasource"
	"bendload/internal/datasource/file"
	"bendload/internal/datasource/httpds"
	"bendload/internal/journal"
	"bendload/internal/load"
	"bendload/internal/metrics"
	"bendload/internal/metrics/datadog"
	"bendload/internal/metrics/prompush"
	"bendload/internal/queryapi"
)

// main delegates to run so deferred cleanup (journal close, metrics
// flush) still executes on failure; os.Exit would skip it.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run resolves the load request from flags and environment, optionally
// initializes a metrics backend and the batch journal, and executes the
// streaming load.
func run() error {
	// A local .env can supply BENDLOAD_* defaults; absence is fine.
	_ = godotenv.Load()

	var (
		cfg               config.Load
		metricsBackendFlg string
		pushGatewayURLFlg string
		dogstatsdAddrFlg  string
		validate          bool
	)

	flag.StringVar(&cfg.Source, "source", "", "input: local path or http(s) URL; empty or '-' reads stdin")
	flag.StringVar(&cfg.Table, "table", "", "target table name (required)")
	flag.StringVar(&cfg.Schema, "schema", "", "optional table schema, e.g. a:uint8,b:uint64")
	flag.IntVar(&cfg.SkipHeadLines, "skip-head-lines", 0, "leading lines to discard before data")
	flag.IntVar(&cfg.BatchSize, "batch-size", load.DefaultBatchSize, "max lines per insert statement")
	flag.IntVar(&cfg.Workers, "workers", 0, "transform workers per batch (0 = GOMAXPROCS)")
	flag.StringVar(&cfg.Endpoint, "endpoint", os.Getenv("BENDLOAD_ENDPOINT"), "query endpoint URL (env BENDLOAD_ENDPOINT)")
	flag.StringVar(&cfg.Journal, "journal", "", "optional SQLite file recording per-batch outcomes")
	flag.StringVar(&cfg.Job, "job", "bendload", "job label for metrics and logs")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend (pushgateway, datadog, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&dogstatsdAddrFlg, "dogstatsd-addr", "", "DogStatsD address (overrides env DOGSTATSD_ADDR)")
	flag.BoolVar(&validate, "validate", false, "validate the request and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")
	flag.Parse()

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasError(issues) {
		return fmt.Errorf("load request is invalid")
	}
	if validate {
		log.Printf("load request is valid")
		return nil
	}

	initMetrics(metricsBackendFlg, pushGatewayURLFlg, dogstatsdAddrFlg, cfg.Job, *verbose)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}()

	ctx := context.Background()

	// The dispatch client sends each statement exactly once; retries stay
	// off so a failed batch is reported, not replayed.
	exec := queryapi.New(httpds.NewClient(httpds.Config{
		Timeout:    5 * time.Minute,
		MaxRetries: 0,
	}), cfg.Endpoint)

	src, name := resolveSource(cfg)

	opts := load.Options{
		Job:           cfg.Job,
		Source:        src,
		SourceName:    name,
		Exec:          exec,
		Table:         cfg.Table,
		SchemaSpec:    cfg.Schema,
		SkipHeadLines: cfg.SkipHeadLines,
		BatchSize:     cfg.BatchSize,
		Workers:       cfg.Workers,
	}

	if cfg.Journal != "" {
		j, closeFn, err := journal.Open(ctx, cfg.Journal)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer closeFn()
		opts.Recorder = j
	}

	if *verbose {
		log.Printf("load: source=%s table=%s schema=%q batch_size=%d skip=%d",
			name, cfg.Table, cfg.Schema, cfg.BatchSize, cfg.SkipHeadLines)
	}

	sum, err := load.Run(ctx, opts)
	if err != nil {
		return fmt.Errorf("load did not complete: %w", err)
	}
	if sum.Failed > 0 {
		log.Printf("load completed with errors: %d of %d batches failed", sum.Failed, sum.Batches)
	}
	return nil
}

// resolveSource maps the request's source spec onto a datasource. Remote
// fetches get a retrying client; a dropped connection mid-download is not
// worth failing the whole load over before any data flowed.
func resolveSource(cfg config.Load) (datasource.Source, string) {
	switch {
	case cfg.Stdin():
		return datasource.Stdin{}, "-"
	case datasource.IsURL(cfg.Source):
		fetch := httpds.NewClient(httpds.Config{MaxRetries: 3})
		return httpds.NewRemote(fetch, cfg.Source), cfg.Source
	default:
		return file.NewLocal(cfg.Source), cfg.Source
	}
}

// initMetrics wires the selected metrics backend: flag → env → none.
func initMetrics(backendFlg, gatewayFlg, dogstatsdFlg, job string, verbose bool) {
	backendName := backendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}

	switch backendName {
	case "pushgateway":
		gwURL := gatewayFlg
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(job, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init pushgateway backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=pushgateway url=%s job=%s", gwURL, job)
		metrics.SetBackend(b)

	case "datadog":
		addr := dogstatsdFlg
		if addr == "" {
			addr = os.Getenv("DOGSTATSD_ADDR")
		}
		if addr == "" {
			addr = "127.0.0.1:8125"
		}
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  "bendload.",
			GlobalTags: []string{"job:" + job},
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=datadog addr=%s job=%s", addr, job)
		metrics.SetBackend(b)

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled")
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
}
