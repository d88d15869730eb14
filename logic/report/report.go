// Package report defines the JSON payloads emitted by the probe and the
// collision benchmark, for log shipping and for comparing runs across fleets.
package report

import (
	json "github.com/goccy/go-json"

	"github.com/gurre/collatz-backoff-go/logic/collision"
)

// Status is the terminal outcome of a probe run.
type Status int

const (
	Reached   Status = 0
	Exhausted Status = 1
	Cancelled Status = 2
	Failed    Status = 3
)

// String returns the lowercase status name used in logs.
func (s Status) String() string {
	switch s {
	case Reached:
		return "reached"
	case Exhausted:
		return "exhausted"
	case Cancelled:
		return "cancelled"
	default:
		return "failed"
	}
}

// ProbeOutcome summarizes one participant's retry run.
type ProbeOutcome struct {
	Status          Status `json:"status"`
	StatusName      string `json:"status_name"`
	PodName         string `json:"pod_name"`
	Target          string `json:"target"`
	Message         string `json:"message"`
	ID              int64  `json:"id"`
	Attempts        int    `json:"attempts"`
	TotalWaitMicros int64  `json:"total_wait_micros"`
	DegradedSteps   int    `json:"degraded_steps"`
}

// Bench holds the parameters and summaries of one benchmark invocation.
type Bench struct {
	Slots      int64               `json:"slots"`
	Replicas   int                 `json:"replicas"`
	Steps      int                 `json:"steps"`
	Seed       uint64              `json:"seed"`
	RNGSeed    uint64              `json:"rng_seed"`
	HybridProb float64             `json:"hybrid_prob"`
	Summaries  []collision.Summary `json:"summaries"`
}

// Probe marshals a ProbeOutcome. StatusName is filled from Status.
//
//	payload := report.Probe(report.ProbeOutcome{Status: report.Reached, Attempts: 3})
func Probe(o ProbeOutcome) []byte {
	o.StatusName = o.Status.String()
	data, err := json.Marshal(o)
	if err != nil {
		// Fallback to minimal JSON on marshal failure (should not happen)
		return []byte(`{"status":3,"status_name":"failed","message":"marshal error"}`)
	}
	return data
}

// Benchmark marshals a Bench report, indented for humans.
func Benchmark(b Bench) ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}
