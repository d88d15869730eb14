// Command collatz-bench compares per-step jitter slot collisions of the
// Collatz schedule against uniform random jitter and a hybrid of the two.
//
// Usage:
//
//	collatz-bench [flags]
//
// Flags:
//
//	-slots         Slot count M (default: 1024)
//	-replicas      Simulated fleet size (default: 128)
//	-steps         Retry steps to simulate (default: 20)
//	-seed          Collatz seed (default: 27)
//	-rng-seed      Seed for random and hybrid modes (default: 1337)
//	-mode          collatz, random, hybrid, or all (default: all)
//	-hybrid-prob   Per-replica chance of random jitter in hybrid mode (default: 0.1)
//	-json          Write the JSON report to this path
//	-s3-uri        Publish the JSON report to s3://bucket/key
//	-region        AWS region for -s3-uri
//	-endpoint      S3-compatible endpoint for -s3-uri
//	-path-style    Address the bucket by path
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/gurre/collatz-backoff-go/entrypoint/bench"
)

func main() {
	opts := bench.DefaultOptions()

	flag.Int64Var(&opts.Slots, "slots", opts.Slots, "Slot count M")
	flag.IntVar(&opts.Replicas, "replicas", opts.Replicas, "Simulated fleet size")
	flag.IntVar(&opts.Steps, "steps", opts.Steps, "Retry steps to simulate")
	flag.Uint64Var(&opts.Seed, "seed", opts.Seed, "Collatz seed")
	flag.Uint64Var(&opts.RNGSeed, "rng-seed", opts.RNGSeed, "Seed for random and hybrid modes")
	flag.StringVar(&opts.Mode, "mode", opts.Mode, "collatz, random, hybrid, or all")
	flag.Float64Var(&opts.HybridProb, "hybrid-prob", opts.HybridProb, "Probability of random jitter in hybrid mode")
	flag.StringVar(&opts.JSONPath, "json", "", "Write the JSON report to this path")
	flag.StringVar(&opts.Report.S3URI, "s3-uri", "", "Publish the JSON report to s3://bucket/key")
	flag.StringVar(&opts.Report.Region, "region", "", "AWS region for -s3-uri")
	flag.StringVar(&opts.Report.Endpoint, "endpoint", "", "S3-compatible endpoint for -s3-uri")
	flag.BoolVar(&opts.Report.UsePathStyle, "path-style", false, "Address the bucket by path")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: collatz-bench [flags]\n\nBenchmarks jitter slot collisions per retry step.\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := bench.Run(context.Background(), opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "collatz-bench: %s\n", err)
		os.Exit(1)
	}
}
