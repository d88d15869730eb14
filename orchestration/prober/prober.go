// Package prober implements the retry loop that probes a dependency until it
// becomes healthy, waiting between attempts on the participant's slot of the
// fleet-wide backoff schedule.
package prober

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/gurre/collatz-backoff-go/logic/backoff"
	"github.com/gurre/collatz-backoff-go/logic/collision"
	"github.com/gurre/collatz-backoff-go/logic/report"
)

// ErrExhausted is returned when every attempt failed.
var ErrExhausted = errors.New("prober: retries exhausted")

// Checker performs a single health check against url.
type Checker interface {
	Check(ctx context.Context, url string) error
}

// Recorder receives retry events, typically to export them as metrics.
type Recorder interface {
	ObserveAttempt(healthy bool)
	ObserveWait(mode string, d time.Duration)
	ObserveDegraded()
}

type nopRecorder struct{}

func (nopRecorder) ObserveAttempt(bool) {}
func (nopRecorder) ObserveWait(string, time.Duration) {}
func (nopRecorder) ObserveDegraded() {}

// Settings identifies the participant and bounds the loop.
type Settings struct {
	PodName    string
	TargetURL  string
	ID         int64
	MaxRetries int
	// HybridProb is the chance per attempt of replacing the scheduled slot
	// with a uniform draw. Zero keeps the schedule pure.
	HybridProb float64
	HybridSeed uint64
}

// Prober runs the retry loop for one participant.
type Prober struct {
	schedule *backoff.Schedule
	checker  Checker
	settings Settings
	rng      *rand.Rand
	recorder Recorder
	logger   *slog.Logger

	// sleep waits d or until ctx is done. Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a prober. The schedule must be the one shared by the fleet.
//
//	p := prober.New(schedule, httpprobe.NewClient(time.Second, nil, logger), prober.Settings{
//		PodName: "web-3", TargetURL: "http://svc/healthz", ID: 3, MaxRetries: 50,
//	}, logger)
func New(schedule *backoff.Schedule, checker Checker, settings Settings, logger *slog.Logger) *Prober {
	return &Prober{
		schedule: schedule,
		checker:  checker,
		settings: settings,
		rng:      collision.NewRand(settings.HybridSeed),
		recorder: nopRecorder{},
		logger:   logger,
		sleep:    sleepContext,
	}
}

// WithRecorder sets the receiver of retry events and returns p.
func (p *Prober) WithRecorder(r Recorder) *Prober {
	p.recorder = r
	return p
}

// Run probes until the target is healthy, the attempts run out, or ctx is
// cancelled. The returned outcome is always populated, including on error.
func (p *Prober) Run(ctx context.Context) (report.ProbeOutcome, error) {
	s := p.settings
	out := report.ProbeOutcome{
		PodName: s.PodName,
		Target:  s.TargetURL,
		ID:      s.ID,
	}

	if s.MaxRetries <= 0 {
		out.Status = report.Failed
		out.Message = "max retries must be positive"
		return out, fmt.Errorf("prober: max retries %d: %w", s.MaxRetries, backoff.ErrInvalidArgument)
	}

	p.logger.Info("starting probe",
		"pod", s.PodName, "id", s.ID, "target", s.TargetURL,
		"slots", p.schedule.Slots(), "maxRetries", s.MaxRetries)

	var lastErr error
	for k := range s.MaxRetries {
		out.Attempts = k + 1

		lastErr = p.checker.Check(ctx, s.TargetURL)
		p.recorder.ObserveAttempt(lastErr == nil)
		if lastErr == nil {
			out.Status = report.Reached
			out.Message = fmt.Sprintf("reached %s after %d attempt(s)", s.TargetURL, out.Attempts)
			p.logger.Info("target reached", "pod", s.PodName, "id", s.ID, "attempts", out.Attempts)
			return out, nil
		}
		if ctx.Err() != nil {
			return p.cancelled(out, ctx.Err())
		}
		if k == s.MaxRetries-1 {
			break
		}

		wait, degraded, mode, err := p.waitFor(k)
		if err != nil {
			out.Status = report.Failed
			out.Message = err.Error()
			return out, err
		}
		if degraded {
			out.DegradedSteps++
			p.recorder.ObserveDegraded()
		}
		p.recorder.ObserveWait(mode, backoff.Micros(wait))

		p.logger.Info("retry",
			"pod", s.PodName, "id", s.ID, "k", k,
			"wait", backoff.Micros(wait), "base", backoff.Micros(p.schedule.BaseMicros(k)),
			"mode", mode, "error", lastErr)

		if err := p.sleep(ctx, backoff.Micros(wait)); err != nil {
			return p.cancelled(out, err)
		}
		out.TotalWaitMicros += wait
	}

	out.Status = report.Exhausted
	out.Message = fmt.Sprintf("gave up on %s after %d attempts: %v", s.TargetURL, out.Attempts, lastErr)
	p.logger.Error("retries exhausted", "pod", s.PodName, "id", s.ID, "attempts", out.Attempts, "error", lastErr)
	return out, fmt.Errorf("%w: %v", ErrExhausted, lastErr)
}

// waitFor picks the wait for step k, drawing a random slot when the hybrid
// coin comes up.
func (p *Prober) waitFor(k int) (us int64, degraded bool, mode string, err error) {
	params, err := p.schedule.AffineParams(k)
	if err != nil {
		return 0, false, "", fmt.Errorf("prober: step %d: %w", k, err)
	}
	if params.Degraded {
		p.logger.Warn("multiplier not coprime with slot count, using identity",
			"k", k, "slots", p.schedule.Slots())
	}

	if p.settings.HybridProb > 0 && p.rng.Float64() < p.settings.HybridProb {
		us, err = p.schedule.WaitMicrosForSlot(p.rng.Uint64N(p.schedule.Slots()), k)
		mode = "random"
	} else {
		us, err = p.schedule.WaitMicros(p.settings.ID, k)
		mode = "collatz"
	}
	if err != nil {
		return 0, false, "", fmt.Errorf("prober: step %d: %w", k, err)
	}
	return us, params.Degraded, mode, nil
}

func (p *Prober) cancelled(out report.ProbeOutcome, err error) (report.ProbeOutcome, error) {
	out.Status = report.Cancelled
	out.Message = err.Error()
	p.logger.Info("probe cancelled", "pod", p.settings.PodName, "attempts", out.Attempts)
	return out, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
