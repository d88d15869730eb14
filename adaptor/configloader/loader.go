// Package configloader loads probe configuration from an optional YAML file
// and the process environment.
//
// Precedence, lowest to highest: config.Default(), the YAML file, environment
// variables. A blank or unparseable environment value leaves the lower layer's
// value in place, so a typo in one variable never takes a participant out of
// the fleet.
package configloader

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gurre/collatz-backoff-go/state/config"
)

// Environment variable names.
const (
	EnvPodName      = "POD_NAME"
	EnvTargetURL    = "TARGET_URL"
	EnvBaseSeconds  = "BACKOFF_BASE_SECONDS"
	EnvSlotMillis   = "BACKOFF_SLOT_MS"
	EnvSlots        = "BACKOFF_SLOTS_M"
	EnvSeed         = "COLLATZ_SEED"
	EnvCapSeconds   = "BACKOFF_CAP_SECONDS"
	EnvMaxRetries   = "MAX_RETRIES"
	EnvProbeTimeout = "PROBE_TIMEOUT"
	EnvHybridProb   = "HYBRID_RNG_PROB"
	EnvHybridSeed   = "HYBRID_RNG_SEED"
	EnvLogDir       = "LOG_DIR"
	EnvMetricsAddr  = "METRICS_ADDR"
	EnvReportS3URI  = "REPORT_S3_URI"
)

// rawBackoff mirrors the backoff section of the YAML file.
type rawBackoff struct {
	BaseSeconds *float64 `yaml:"base_seconds"`
	SlotMillis  *int64   `yaml:"slot_ms"`
	Slots       *int64   `yaml:"slots_m"`
	Seed        *uint64  `yaml:"collatz_seed"`
	CapSeconds  *float64 `yaml:"cap_seconds"`
}

// rawReport mirrors the report section of the YAML file.
type rawReport struct {
	S3URI           string `yaml:"s3_uri"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    *bool  `yaml:"use_path_style"`
}

// rawConfig mirrors the YAML structure of the probe config file.
type rawConfig struct {
	ProgramName         string     `yaml:"program_name"`
	PodName             string     `yaml:"pod_name"`
	TargetURL           string     `yaml:"target_url"`
	LogDir              string     `yaml:"log_dir"`
	MetricsAddr         string     `yaml:"metrics_addr"`
	ProbeTimeoutSeconds *float64   `yaml:"probe_timeout_seconds"`
	MaxRetries          *int       `yaml:"max_retries"`
	HybridProb          *float64   `yaml:"hybrid_rng_prob"`
	HybridSeed          *uint64    `yaml:"hybrid_rng_seed"`
	Backoff             rawBackoff `yaml:"backoff"`
	Report              rawReport  `yaml:"report"`
}

// LoadProbe loads the config file at path (skipped when path is empty or the
// file does not exist) and overlays environment values read through getenv.
//
//	cfg, err := configloader.LoadProbe("/etc/collatz-probe/probe.yml", os.Getenv)
func LoadProbe(path string, getenv func(string) string) (config.Probe, error) {
	cfg := config.Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Use defaults if file doesn't exist
		case err != nil:
			return config.Probe{}, fmt.Errorf("configloader: %w", err)
		default:
			if err := applyYAML(&cfg, data); err != nil {
				return config.Probe{}, fmt.Errorf("configloader: parse %s: %w", path, err)
			}
		}
	}

	if getenv != nil {
		ApplyEnv(&cfg, getenv)
	}
	return cfg, nil
}

func applyYAML(cfg *config.Probe, data []byte) error {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.ProgramName != "" {
		cfg.ProgramName = raw.ProgramName
	}
	if raw.PodName != "" {
		cfg.PodName = raw.PodName
	}
	if raw.TargetURL != "" {
		cfg.TargetURL = raw.TargetURL
	}
	if raw.LogDir != "" {
		cfg.LogDir = raw.LogDir
	}
	if raw.MetricsAddr != "" {
		cfg.MetricsAddr = raw.MetricsAddr
	}
	if raw.ProbeTimeoutSeconds != nil {
		cfg.ProbeTimeout = seconds(*raw.ProbeTimeoutSeconds)
	}
	if raw.MaxRetries != nil {
		cfg.MaxRetries = *raw.MaxRetries
	}
	if raw.HybridProb != nil {
		cfg.HybridProb = *raw.HybridProb
	}
	if raw.HybridSeed != nil {
		cfg.HybridSeed = *raw.HybridSeed
	}

	b := raw.Backoff
	if b.BaseSeconds != nil {
		cfg.Backoff.BaseSeconds = *b.BaseSeconds
	}
	if b.SlotMillis != nil {
		cfg.Backoff.SlotMillis = *b.SlotMillis
	}
	if b.Slots != nil {
		cfg.Backoff.Slots = *b.Slots
	}
	if b.Seed != nil {
		cfg.Backoff.Seed = *b.Seed
	}
	if b.CapSeconds != nil {
		cfg.Backoff.CapSeconds = *b.CapSeconds
	}

	r := raw.Report
	if r.S3URI != "" {
		cfg.Report.S3URI = r.S3URI
	}
	if r.Region != "" {
		cfg.Report.Region = r.Region
	}
	if r.Endpoint != "" {
		cfg.Report.Endpoint = r.Endpoint
	}
	if r.AccessKeyID != "" {
		cfg.Report.AccessKeyID = r.AccessKeyID
	}
	if r.SecretAccessKey != "" {
		cfg.Report.SecretAccessKey = r.SecretAccessKey
	}
	if r.UsePathStyle != nil {
		cfg.Report.UsePathStyle = *r.UsePathStyle
	}
	return nil
}

// ApplyEnv overlays environment values onto cfg. Blank and unparseable values
// are ignored.
func ApplyEnv(cfg *config.Probe, getenv func(string) string) {
	lookup := func(key string) (string, bool) {
		v := strings.TrimSpace(getenv(key))
		return v, v != ""
	}

	if v, ok := lookup(EnvPodName); ok {
		cfg.PodName = v
	}
	if v, ok := lookup(EnvTargetURL); ok {
		cfg.TargetURL = v
	}
	if v, ok := lookup(EnvLogDir); ok {
		cfg.LogDir = v
	}
	if v, ok := lookup(EnvMetricsAddr); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := lookup(EnvReportS3URI); ok {
		cfg.Report.S3URI = v
	}

	envFloat(lookup, EnvBaseSeconds, &cfg.Backoff.BaseSeconds)
	envFloat(lookup, EnvCapSeconds, &cfg.Backoff.CapSeconds)
	envFloat(lookup, EnvHybridProb, &cfg.HybridProb)
	envInt(lookup, EnvSlotMillis, &cfg.Backoff.SlotMillis)
	envInt(lookup, EnvSlots, &cfg.Backoff.Slots)
	envUint(lookup, EnvSeed, &cfg.Backoff.Seed)
	envUint(lookup, EnvHybridSeed, &cfg.HybridSeed)

	var retries int64
	if envInt(lookup, EnvMaxRetries, &retries) {
		cfg.MaxRetries = int(retries)
	}
	var timeout float64
	if envFloat(lookup, EnvProbeTimeout, &timeout) {
		cfg.ProbeTimeout = seconds(timeout)
	}
}

func envFloat(lookup func(string) (string, bool), key string, dst *float64) bool {
	v, ok := lookup(key)
	if !ok {
		return false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return false
	}
	*dst = f
	return true
}

func envInt(lookup func(string) (string, bool), key string, dst *int64) bool {
	v, ok := lookup(key)
	if !ok {
		return false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return false
	}
	*dst = n
	return true
}

func envUint(lookup func(string) (string, bool), key string, dst *uint64) bool {
	v, ok := lookup(key)
	if !ok {
		return false
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return false
	}
	*dst = n
	return true
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
