// Package bench wires the collision benchmark: it runs the selected jitter
// modes over a simulated fleet, prints per-step collision summaries, and
// optionally writes or publishes a JSON report.
package bench

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gurre/collatz-backoff-go/adaptor/s3upload"
	"github.com/gurre/collatz-backoff-go/logic/backoff"
	"github.com/gurre/collatz-backoff-go/logic/collision"
	"github.com/gurre/collatz-backoff-go/logic/report"
	"github.com/gurre/collatz-backoff-go/state/config"
)

// Options holds the benchmark CLI arguments.
type Options struct {
	Slots      int64
	Replicas   int
	Steps      int
	Seed       uint64
	RNGSeed    uint64
	Mode       string
	HybridProb float64
	// JSONPath writes the report to a file when set.
	JSONPath string
	// Report publishes the report when Report.S3URI is set.
	Report config.Report
}

// DefaultOptions returns the benchmark defaults.
//
//	opts := bench.DefaultOptions()
//	opts.Replicas = 512
func DefaultOptions() Options {
	return Options{
		Slots:      1024,
		Replicas:   128,
		Steps:      20,
		Seed:       27,
		RNGSeed:    1337,
		Mode:       string(collision.ModeAll),
		HybridProb: 0.1,
	}
}

// Run executes the benchmark and prints summaries to stdout.
//
//	err := bench.Run(ctx, opts, os.Stdout)
func Run(ctx context.Context, opts Options, stdout io.Writer) error {
	logger := slog.Default()

	mode, err := collision.ParseMode(opts.Mode)
	if err != nil {
		return fmt.Errorf("bench: %w", err)
	}
	if opts.Replicas < 0 || opts.Steps < 0 {
		return fmt.Errorf("bench: replicas and steps must be >= 0, got %d and %d", opts.Replicas, opts.Steps)
	}
	if opts.HybridProb < 0 || opts.HybridProb > 1 {
		return fmt.Errorf("bench: hybrid-prob must be in [0, 1], got %v", opts.HybridProb)
	}

	cfg := backoff.DefaultConfig()
	cfg.Slots = opts.Slots
	cfg.Seed = opts.Seed
	schedule, err := backoff.New(cfg)
	if err != nil {
		return fmt.Errorf("bench: %w", err)
	}

	fmt.Fprintln(stdout, "Benchmark: collision counts per retry step")
	fmt.Fprintf(stdout, "slots=%d replicas=%d steps=%d\n\n", opts.Slots, opts.Replicas, opts.Steps)

	out := report.Bench{
		Slots:      opts.Slots,
		Replicas:   opts.Replicas,
		Steps:      opts.Steps,
		Seed:       opts.Seed,
		RNGSeed:    opts.RNGSeed,
		HybridProb: opts.HybridProb,
	}
	emit := func(sum collision.Summary) {
		fmt.Fprintln(stdout, sum.String())
		out.Summaries = append(out.Summaries, sum)
	}

	if mode.Includes(collision.ModeCollatz) {
		counts, err := collision.Collatz(schedule, opts.Replicas, opts.Steps)
		if err != nil {
			return fmt.Errorf("bench: %w", err)
		}
		emit(collision.Summarize("collatz", counts))
	}
	if mode.Includes(collision.ModeRandom) {
		counts := collision.Random(collision.NewRand(opts.RNGSeed), schedule.Slots(), opts.Replicas, opts.Steps)
		emit(collision.Summarize("random", counts))
	}
	if mode.Includes(collision.ModeHybrid) {
		counts, err := collision.Hybrid(schedule, collision.NewRand(opts.RNGSeed), opts.HybridProb, opts.Replicas, opts.Steps)
		if err != nil {
			return fmt.Errorf("bench: %w", err)
		}
		emit(collision.Summarize(fmt.Sprintf("hybrid p=%.2f", opts.HybridProb), counts))
	}

	if opts.JSONPath == "" && opts.Report.S3URI == "" {
		return nil
	}

	payload, err := report.Benchmark(out)
	if err != nil {
		return fmt.Errorf("bench: marshal report: %w", err)
	}
	if opts.JSONPath != "" {
		if err := os.WriteFile(opts.JSONPath, payload, 0o644); err != nil {
			return fmt.Errorf("bench: write report: %w", err)
		}
		logger.Info("report written", "path", opts.JSONPath)
	}
	if opts.Report.S3URI != "" {
		if err := s3upload.Publish(ctx, opts.Report, payload, logger); err != nil {
			return fmt.Errorf("bench: %w", err)
		}
	}
	return nil
}
