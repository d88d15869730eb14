// Package collision measures how many participants share a jitter slot at
// each retry step, comparing the Collatz-seeded schedule against uniform
// random jitter and a hybrid of the two.
//
// All randomness comes from a PCG generator seeded by the caller, so every
// run is reproducible.
package collision

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/gurre/collatz-backoff-go/logic/backoff"
)

// Mode selects which jitter source a run uses.
type Mode string

const (
	ModeCollatz Mode = "collatz"
	ModeRandom  Mode = "random"
	ModeHybrid  Mode = "hybrid"
	ModeAll     Mode = "all"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeCollatz, ModeRandom, ModeHybrid, ModeAll:
		return m, nil
	}
	return "", fmt.Errorf("collision: unknown mode %q", s)
}

// Includes reports whether running m covers mode o.
func (m Mode) Includes(o Mode) bool { return m == ModeAll || m == o }

// NewRand returns the deterministic generator used for random and hybrid runs.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

// Count returns the number of entries that repeat an earlier value:
// len(slots) minus the number of distinct values.
func Count(slots []uint64) int {
	seen := make(map[uint64]struct{}, len(slots))
	for _, s := range slots {
		seen[s] = struct{}{}
	}
	return len(slots) - len(seen)
}

// Collatz returns per-step collision counts for ids [0, replicas) under the
// schedule's permutation.
func Collatz(s *backoff.Schedule, replicas, steps int) ([]int, error) {
	counts := make([]int, steps)
	slots := make([]uint64, replicas)
	for k := range steps {
		for id := range replicas {
			slot, err := s.OffsetSlot(int64(id), k)
			if err != nil {
				return nil, fmt.Errorf("collision: step %d: %w", k, err)
			}
			slots[id] = slot
		}
		counts[k] = Count(slots)
	}
	return counts, nil
}

// Random returns per-step collision counts when every replica draws a uniform
// slot in [0, slots).
func Random(rng *rand.Rand, slots uint64, replicas, steps int) []int {
	counts := make([]int, steps)
	drawn := make([]uint64, replicas)
	for k := range steps {
		for i := range drawn {
			drawn[i] = rng.Uint64N(slots)
		}
		counts[k] = Count(drawn)
	}
	return counts
}

// Hybrid returns per-step collision counts when each replica independently
// uses a random slot with probability prob and the schedule's slot otherwise.
func Hybrid(s *backoff.Schedule, rng *rand.Rand, prob float64, replicas, steps int) ([]int, error) {
	counts := make([]int, steps)
	slots := make([]uint64, replicas)
	for k := range steps {
		for id := range replicas {
			if rng.Float64() < prob {
				slots[id] = rng.Uint64N(s.Slots())
				continue
			}
			slot, err := s.OffsetSlot(int64(id), k)
			if err != nil {
				return nil, fmt.Errorf("collision: step %d: %w", k, err)
			}
			slots[id] = slot
		}
		counts[k] = Count(slots)
	}
	return counts, nil
}

// Summary condenses per-step counts into a histogram and the worst step.
type Summary struct {
	Label string `json:"label"`
	// Histogram maps a collision count to the number of steps that had it.
	Histogram map[int]int `json:"histogram"`
	Worst     int         `json:"worst"`
	PerStep   []int       `json:"per_step"`
}

// Summarize builds a Summary for one run.
func Summarize(label string, counts []int) Summary {
	sum := Summary{Label: label, Histogram: make(map[int]int), PerStep: counts}
	for _, c := range counts {
		sum.Histogram[c]++
		sum.Worst = max(sum.Worst, c)
	}
	return sum
}

// String renders the summary the way the benchmark CLI prints it.
func (s Summary) String() string {
	keys := make([]int, 0, len(s.Histogram))
	for k := range s.Histogram {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	hist := "{"
	for i, k := range keys {
		if i > 0 {
			hist += ", "
		}
		hist += fmt.Sprintf("%d: %d", k, s.Histogram[k])
	}
	hist += "}"
	return fmt.Sprintf("%s collisions per step: %s\n%s worst-step collisions: %d", s.Label, hist, s.Label, s.Worst)
}
