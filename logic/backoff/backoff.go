// Package backoff computes deterministic, collision-resistant retry delays for
// a fleet of participants that share a seed but never communicate.
//
// The delay for participant id at retry step k is
//
//	min(cap, base*2^k + slot(id, k)*slotWidth)
//
// where slot(id, k) = (a_k*id + b_k) mod M and (a_k, b_k) come from the
// Collatz-seeded permutation in logic/affine. Because the permutation is a
// bijection on [0, M), ids 0..n-1 with n <= M occupy distinct slots at every
// step. With more than M participants collisions are unavoidable and are not
// treated as errors.
//
// Design constraints:
//   - Pure computation, no IO or side effects (logic layer).
//   - Integer microseconds are the unit of truth; seconds and durations are
//     derived from them so equality checks never see float drift.
//   - Exponential growth saturates at the cap instead of overflowing, so any
//     non-negative k is valid.
//
// A Schedule is immutable once built and safe for concurrent use.
package backoff

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"time"

	"github.com/gurre/collatz-backoff-go/logic/affine"
)

const microsPerSecond = 1_000_000

var (
	// ErrInvalidConfig is returned when a Config violates its bounds.
	ErrInvalidConfig = errors.New("backoff: invalid config")
	// ErrInvalidArgument is returned for a negative id or retry step.
	ErrInvalidArgument = errors.New("backoff: invalid argument")
)

// Config holds the fleet-wide schedule parameters. Every participant in a
// fleet must use the same Config for the collision guarantee to hold.
type Config struct {
	// BaseSeconds is the exponential base delay at step 0.
	BaseSeconds float64
	// CapSeconds is the hard upper bound on any wait.
	CapSeconds float64
	// SlotMillis is the width of one jitter slot in milliseconds.
	SlotMillis int64
	// Slots is the modulus M: the number of distinct slots and the fleet size
	// up to which offsets are collision-free. Powers of two are recommended.
	Slots int64
	// Seed drives the per-step permutation. Rotate it to change the
	// permutation family across deploys.
	Seed uint64
}

// DefaultConfig returns the defaults used by deployed fleets.
//
//	cfg := backoff.DefaultConfig()
//	cfg.Slots = 256
func DefaultConfig() Config {
	return Config{
		BaseSeconds: 0.05,
		CapSeconds:  10.0,
		SlotMillis:  1,
		Slots:       1024,
		Seed:        27,
	}
}

// Validate reports the first bound the config violates, wrapped in
// ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case !(c.BaseSeconds > 0) || math.IsInf(c.BaseSeconds, 0):
		return fmt.Errorf("%w: base_seconds must be > 0 and finite, got %v", ErrInvalidConfig, c.BaseSeconds)
	case c.SlotMillis <= 0:
		return fmt.Errorf("%w: slot_ms must be > 0, got %d", ErrInvalidConfig, c.SlotMillis)
	case c.Slots <= 1:
		return fmt.Errorf("%w: slots_M must be > 1, got %d", ErrInvalidConfig, c.Slots)
	case !(c.CapSeconds > 0) || math.IsInf(c.CapSeconds, 0):
		return fmt.Errorf("%w: cap_seconds must be > 0 and finite, got %v", ErrInvalidConfig, c.CapSeconds)
	}
	return nil
}

// PowerOfTwo reports whether Slots is a power of two, the configuration under
// which no step ever takes the degraded fallback.
func (c Config) PowerOfTwo() bool {
	return c.Slots > 0 && c.Slots&(c.Slots-1) == 0
}

// Schedule computes waits for a validated Config.
type Schedule struct {
	cfg       Config
	m         uint64
	slotWidth uint64 // microseconds per slot
	capMicros int64
}

// New validates cfg and builds a Schedule.
//
//	s, err := backoff.New(backoff.DefaultConfig())
//	wait, err := s.Wait(ordinal, attempt)
func New(cfg Config) (*Schedule, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Schedule{
		cfg:       cfg,
		m:         uint64(cfg.Slots),
		slotWidth: saturatingMul(uint64(cfg.SlotMillis), 1000),
		capMicros: roundMicros(cfg.CapSeconds * microsPerSecond),
	}, nil
}

// Config returns the configuration the schedule was built from.
func (s *Schedule) Config() Config { return s.cfg }

// Slots returns the modulus M.
func (s *Schedule) Slots() uint64 { return s.m }

// CapMicros returns the cap in whole microseconds.
func (s *Schedule) CapMicros() int64 { return s.capMicros }

// AffineParams returns the permutation for retry step k. Exposed for
// introspection; callers that only need a wait should use WaitMicros.
func (s *Schedule) AffineParams(k int) (affine.Params, error) {
	if k < 0 {
		return affine.Params{}, fmt.Errorf("%w: retry step %d is negative", ErrInvalidArgument, k)
	}
	return affine.ForStep(s.cfg.Seed, k, s.m), nil
}

// OffsetSlot returns the jitter slot in [0, M) for participant id at step k.
//
//	slot, err := s.OffsetSlot(7, 0)
func (s *Schedule) OffsetSlot(id int64, k int) (uint64, error) {
	if id < 0 {
		return 0, fmt.Errorf("%w: id %d is negative", ErrInvalidArgument, id)
	}
	p, err := s.AffineParams(k)
	if err != nil {
		return 0, err
	}
	return p.Apply(uint64(id), s.m), nil
}

// WaitMicros returns the wait for participant id at step k in whole
// microseconds, never more than the cap.
func (s *Schedule) WaitMicros(id int64, k int) (int64, error) {
	slot, err := s.OffsetSlot(id, k)
	if err != nil {
		return 0, err
	}
	return s.compose(slot, k), nil
}

// WaitMicrosForSlot composes the exponential base for step k with an
// externally chosen slot, capped like WaitMicros. Slots outside [0, M) are
// reduced mod M.
func (s *Schedule) WaitMicrosForSlot(slot uint64, k int) (int64, error) {
	if k < 0 {
		return 0, fmt.Errorf("%w: retry step %d is negative", ErrInvalidArgument, k)
	}
	return s.compose(slot%s.m, k), nil
}

// WaitSeconds is WaitMicros expressed in seconds. It is derived from the
// integer result, so WaitSeconds == WaitMicros / 1e6 exactly.
func (s *Schedule) WaitSeconds(id int64, k int) (float64, error) {
	us, err := s.WaitMicros(id, k)
	if err != nil {
		return 0, err
	}
	return float64(us) / microsPerSecond, nil
}

// Wait is WaitMicros as a time.Duration, saturating at the largest Duration.
func (s *Schedule) Wait(id int64, k int) (time.Duration, error) {
	us, err := s.WaitMicros(id, k)
	if err != nil {
		return 0, err
	}
	return Micros(us), nil
}

// BaseMicros returns the uncapped exponential term round(base*2^k*1e6),
// saturating at math.MaxInt64.
func (s *Schedule) BaseMicros(k int) int64 {
	// Ldexp is exact scaling by 2^k, matching base * 2**k.
	return roundMicros(math.Ldexp(s.cfg.BaseSeconds, k) * microsPerSecond)
}

func (s *Schedule) compose(slot uint64, k int) int64 {
	base := s.BaseMicros(k)
	if base >= s.capMicros {
		return s.capMicros
	}
	jitter := saturatingMul(slot, s.slotWidth)
	headroom := uint64(s.capMicros - base)
	if jitter >= headroom {
		return s.capMicros
	}
	return base + int64(jitter)
}

// Micros converts whole microseconds to a Duration, saturating instead of
// overflowing.
func Micros(us int64) time.Duration {
	if us > math.MaxInt64/int64(time.Microsecond) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(us) * time.Microsecond
}

// roundMicros rounds half to even and clamps to [0, MaxInt64]. Half-to-even
// keeps results bit-compatible with other implementations of the schedule.
func roundMicros(v float64) int64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	// float64(MaxInt64) rounds up to 2^63.
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(math.RoundToEven(v))
}

func saturatingMul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}
