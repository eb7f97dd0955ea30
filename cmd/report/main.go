// Command report runs the full analysis pass: it stages every source
// file as normalized parquet, then writes per-file Excel tables, JSON
// reports with ranked key candidates, and optionally exports the
// cleaned tables to a database.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"tabular/internal/config"
	"tabular/internal/metrics"
	"tabular/internal/metrics/datadog"

	// register all backends with the storage factory.
	// config selects which to use but support for all is built in.
	_ "tabular/internal/storage/all"
)

// runner executes the analysis pass over a loaded configuration.
type runner interface {
	Run(ctx context.Context, cfg config.Config) error
}

// appDeps are the seams runMain needs; production wiring lives in
// main, tests inject fakes.
type appDeps struct {
	loadConfig  func(path string) (config.Config, error)
	initMetrics func(ctx context.Context, jobName, backendName, tagsCSV string) (func(), error)
	newRunner   func(logger *log.Logger) runner
}

func main() {
	deps := appDeps{
		loadConfig:  config.Load,
		initMetrics: initMetrics,
		newRunner: func(logger *log.Logger) runner {
			return &pipeline{Logger: logger}
		},
	}
	os.Exit(runMain(context.Background(), os.Args[1:], os.Stdout, os.Stderr, deps))
}

// runMain is the testable CLI body. Usage errors exit with code 2,
// runtime errors with 1.
func runMain(ctx context.Context, args []string, stdout, stderr io.Writer, deps appDeps) int {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		cfgPath           string
		metricsBackendFlg string
	)
	fs.StringVar(&cfgPath, "config", "tabular.json", "run config JSON path")
	fs.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use (none, datadog); overrides config")
	verbose := fs.Bool("v", false, "enable verbose logs")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(cfgPath) == "" {
		fmt.Fprintln(stderr, "usage: report -config <path> [-metrics-backend none|datadog] [-v]")
		return 2
	}

	cfg, err := deps.loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "validate config: %v\n", err)
		return 1
	}

	// Decide metrics backend: flag → config → none.
	backendName := metricsBackendFlg
	if backendName == "" {
		backendName = cfg.Metrics.Backend
	}
	cleanup, err := deps.initMetrics(ctx, "tabular", backendName, cfg.Metrics.Tags)
	if err != nil {
		fmt.Fprintf(stderr, "init metrics: %v\n", err)
		return 1
	}
	defer cleanup()

	logger := log.New(stderr, "", log.LstdFlags)
	if !*verbose {
		logger.SetOutput(io.Discard)
	}

	start := time.Now()
	if err := deps.newRunner(logger).Run(ctx, cfg); err != nil {
		fmt.Fprintf(stderr, "run: %v\n", err)
		return 1
	}
	logger.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))

	fmt.Fprintln(stdout, "ok")
	return 0
}

// metricsBackend is the shutdown surface initMetrics needs from a
// constructed backend.
type metricsBackend interface {
	metrics.Backend
	Close() error
}

// Seams for initMetrics tests.
var (
	newDatadogBackend = func(ctx context.Context, opts datadog.Options) (metricsBackend, error) {
		return datadog.NewBackend(ctx, opts)
	}
	setMetricsBackend = func(b metrics.Backend) { metrics.SetBackend(b) }
	logPrintf         = log.Printf
)

// initMetrics wires the selected metrics backend into the global
// metrics package and returns its shutdown function. The returned
// cleanup is always non-nil and safe to call.
func initMetrics(ctx context.Context, jobName, backendName, tagsCSV string) (func(), error) {
	switch backendName {
	case "", "none":
		// metrics disabled; nop backend remains
		return func() {}, nil

	case "datadog", "dd":
		tags := datadog.ParseTagsCSV(tagsCSV)
		if extra := datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS")); len(extra) > 0 {
			tags = append(tags, extra...)
		}
		b, err := newDatadogBackend(ctx, datadog.Options{
			JobName:    jobName,
			Tags:       tags,
			FlushEvery: 60 * time.Second,
		})
		if err != nil {
			return func() {}, fmt.Errorf("datadog backend: %w", err)
		}
		setMetricsBackend(b)
		return func() {
			// Close stops the periodic flush loop, then flushes once more.
			if err := b.Close(); err != nil {
				logPrintf("metrics: datadog close error: %v", err)
			}
		}, nil

	default:
		return func() {}, fmt.Errorf("unknown metrics backend %q (none|datadog)", backendName)
	}
}
