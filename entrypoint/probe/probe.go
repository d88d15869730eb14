// Package probe wires configuration, the HTTP checker, and the retry loop to
// run one fleet participant until its dependency is healthy.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gurre/collatz-backoff-go/adaptor/configloader"
	"github.com/gurre/collatz-backoff-go/adaptor/httpprobe"
	"github.com/gurre/collatz-backoff-go/adaptor/logfile"
	"github.com/gurre/collatz-backoff-go/adaptor/metrics"
	"github.com/gurre/collatz-backoff-go/adaptor/s3upload"
	"github.com/gurre/collatz-backoff-go/logic/backoff"
	"github.com/gurre/collatz-backoff-go/logic/ordinal"
	"github.com/gurre/collatz-backoff-go/logic/report"
	"github.com/gurre/collatz-backoff-go/orchestration/prober"
	"github.com/gurre/collatz-backoff-go/state/config"
)

const (
	logMaxBytes     = 16 * 1024 * 1024
	logKeep         = 4
	metricsShutdown = 5 * time.Second
)

// Run loads the config at configPath (empty means environment only), probes
// until the target answers or retries run out, prints the JSON outcome to
// stdout, and publishes it when a report destination is configured. It stops
// early on SIGTERM/SIGINT.
//
//	outcome, err := probe.Run(ctx, "/etc/collatz-probe/probe.yml")
func Run(ctx context.Context, configPath string) (report.ProbeOutcome, error) {
	cfg, err := configloader.LoadProbe(configPath, os.Getenv)
	if err != nil {
		return report.ProbeOutcome{Status: report.Failed}, fmt.Errorf("probe: load config: %w", err)
	}

	var logOut io.Writer = os.Stderr
	if cfg.LogDir != "" {
		lw, err := logfile.Open(filepath.Join(cfg.LogDir, cfg.ProgramName+".log"), logMaxBytes, logKeep)
		if err != nil {
			return report.ProbeOutcome{Status: report.Failed}, fmt.Errorf("probe: open log file: %w", err)
		}
		defer func() { _ = lw.Close() }()
		logOut = io.MultiWriter(os.Stderr, lw)
	}
	logger := slog.New(slog.NewTextHandler(logOut, nil))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	checker := httpprobe.NewClient(cfg.ProbeTimeout, nil, logger)
	return run(ctx, cfg, checker, os.Stdout, logger)
}

// run is Run after config and logging are settled.
func run(ctx context.Context, cfg config.Probe, checker prober.Checker, stdout io.Writer, logger *slog.Logger) (report.ProbeOutcome, error) {
	schedule, err := backoff.New(cfg.Backoff)
	if err != nil {
		return report.ProbeOutcome{Status: report.Failed, PodName: cfg.PodName}, fmt.Errorf("probe: %w", err)
	}

	id, parsed := ordinal.Parse(cfg.PodName)
	if !parsed {
		logger.Warn("pod name has no ordinal suffix, using hash", "pod", cfg.PodName, "id", id)
	}
	if uint64(id) >= schedule.Slots() {
		logger.Warn("id exceeds slot count, collisions possible", "id", id, "slots", schedule.Slots())
	}
	if !cfg.Backoff.PowerOfTwo() {
		logger.Warn("slot count is not a power of two, some steps may fall back to identity", "slots", cfg.Backoff.Slots)
	}

	p := prober.New(schedule, checker, prober.Settings{
		PodName:    cfg.PodName,
		TargetURL:  cfg.TargetURL,
		ID:         id,
		MaxRetries: cfg.MaxRetries,
		HybridProb: cfg.HybridProb,
		HybridSeed: cfg.HybridSeed,
	}, logger)

	if cfg.MetricsAddr != "" {
		m := metrics.NewProbe()
		p.WithRecorder(m)
		stop := serveMetrics(cfg.MetricsAddr, m.Handler(), logger)
		defer stop()
	}

	outcome, runErr := p.Run(ctx)

	payload := report.Probe(outcome)
	if _, err := fmt.Fprintf(stdout, "%s\n", payload); err != nil {
		logger.Error("failed to write outcome", "error", err)
	}

	if cfg.Report.S3URI != "" {
		// The run context may already be cancelled; the report still goes out.
		if err := s3upload.Publish(context.WithoutCancel(ctx), cfg.Report, payload, logger); err != nil {
			logger.Error("failed to publish outcome", "error", err)
		}
	}

	if runErr != nil {
		return outcome, fmt.Errorf("probe: %w", runErr)
	}
	return outcome, nil
}

// serveMetrics serves h at /metrics on addr in the background. The returned
// func shuts the server down.
func serveMetrics(addr string, h http.Handler, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdown)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
