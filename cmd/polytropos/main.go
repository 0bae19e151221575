// Command polytropos runs a batch task over a collection of composite
// documents: translation across a stage boundary, then in-place evolution.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"polytropos/internal/blob"
	"polytropos/internal/ledger"
	"polytropos/internal/observability"
	"polytropos/internal/runner"
	_ "polytropos/pkg/evolve/changes" // register built-in change kinds
	_ "polytropos/pkg/evolve/filters" // register built-in filter kinds
)

var exitFunc = os.Exit

func main() {
	exitFunc(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("polytropos", flag.ContinueOnError)
	taskPath := fs.String("task", "", "path to the YAML task specification (required)")
	inDir := fs.String("in", "", "source document location (required)")
	outDir := fs.String("out", "", "target document location (required)")
	workers := fs.Int("workers", 0, "worker pool width (default GOMAXPROCS)")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address (optional)")
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *taskPath == "" || *inDir == "" || *outDir == "" {
		fmt.Fprintln(os.Stderr, "polytropos: -task, -in, and -out are required")
		fs.Usage()
		return 2
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	task, err := runner.LoadTask(*taskPath)
	if err != nil {
		logger.Error("load task", "error", err)
		return 1
	}
	source, err := blob.OpenAt(ctx, *inDir)
	if err != nil {
		logger.Error("open source store", "error", err)
		return 1
	}
	target, err := blob.OpenAt(ctx, *outDir)
	if err != nil {
		logger.Error("open target store", "error", err)
		return 1
	}
	led, err := ledger.Open(ctx)
	if err != nil {
		logger.Error("open ledger", "error", err)
		return 1
	}
	defer func() { _ = led.Close() }()

	var metrics observability.MetricsRecorder = observability.NewExpvarMetricsRecorder("polytropos")
	if *metricsAddr != "" {
		prom, err := observability.NewPrometheusMetricsRecorder(nil)
		if err != nil {
			logger.Error("register metrics", "error", err)
			return 1
		}
		metrics = prom
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil { // #nosec G114 -- short-lived batch sidecar endpoint
				logger.Error("metrics endpoint", "error", err)
			}
		}()
	}

	r := &runner.Runner{
		Source:  source,
		Target:  target,
		Workers: *workers,
		Logger:  logger,
		Metrics: metrics,
		Ledger:  led,
	}
	report, err := r.Run(ctx, task)
	if err != nil {
		logger.Error("run aborted", "error", err)
		return 1
	}
	if len(report.Failures) > 0 {
		logger.Error("run completed with failures", "failed", len(report.Failures), "total", report.Total)
		return 1
	}
	return 0
}
