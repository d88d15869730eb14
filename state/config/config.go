// Package config defines the probe's configuration structs and their defaults.
// These are pure data types with no I/O; loading is handled by adaptor/configloader.
package config

import (
	"time"

	"github.com/gurre/collatz-backoff-go/logic/backoff"
)

// Probe holds the retry-probe configuration for one fleet participant.
// Fields are aligned from largest to smallest for memory efficiency.
type Probe struct {
	// Backoff is the fleet-wide schedule. It must be identical on every
	// participant.
	Backoff backoff.Config

	// Report configures where the final outcome is published.
	Report Report

	// ProgramName is used as the log file name.
	ProgramName string
	// PodName identifies this participant; its ordinal becomes the id.
	PodName string
	// TargetURL is the health endpoint probed on every attempt.
	TargetURL string
	// LogDir enables a rotating log file when non-empty.
	LogDir string
	// MetricsAddr serves Prometheus metrics on this address when non-empty.
	MetricsAddr string

	// ProbeTimeout bounds a single health check.
	ProbeTimeout time.Duration

	// MaxRetries is the number of probe attempts before giving up.
	MaxRetries int
	// HybridProb is the per-attempt probability of using a random slot
	// instead of the scheduled one. Zero disables the hybrid mode.
	HybridProb float64
	// HybridSeed seeds the hybrid mode's generator.
	HybridSeed uint64
}

// Report configures JSON report publishing to S3 or an S3-compatible store.
type Report struct {
	// S3URI is the destination, s3://bucket/key. Empty disables publishing.
	S3URI string
	// Region overrides the AWS region for the upload.
	Region string
	// Endpoint overrides the S3 endpoint (e.g. a MinIO URL).
	Endpoint string
	// AccessKeyID and SecretAccessKey select static credentials; when empty
	// the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
	// UsePathStyle addresses buckets by path, required by most S3-compatible
	// stores.
	UsePathStyle bool
}

// Default returns a Probe config with the documented defaults.
//
//	cfg := config.Default()
//	cfg.TargetURL = "http://localhost:8080/healthz"
func Default() Probe {
	return Probe{
		Backoff:      backoff.DefaultConfig(),
		ProgramName:  "collatz-probe",
		PodName:      "collatz-demo-0",
		TargetURL:    "http://collatz-backoff-svc:8080/healthz",
		ProbeTimeout: time.Second,
		MaxRetries:   50,
		HybridProb:   0,
		HybridSeed:   1337,
	}
}
