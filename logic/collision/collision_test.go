package collision

import (
	"slices"
	"testing"

	"github.com/gurre/collatz-backoff-go/logic/backoff"
)

func schedule(t *testing.T, slots int64, seed uint64) *backoff.Schedule {
	t.Helper()
	cfg := backoff.DefaultConfig()
	cfg.Slots = slots
	cfg.Seed = seed
	s, err := backoff.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// TestCount covers the distinct-value arithmetic the whole benchmark rests on.
func TestCount(t *testing.T) {
	tests := []struct {
		in   []uint64
		want int
	}{
		{nil, 0},
		{[]uint64{1, 2, 3}, 0},
		{[]uint64{1, 1, 1}, 2},
		{[]uint64{4, 5, 4, 5, 6}, 2},
	}
	for _, tt := range tests {
		if got := Count(tt.in); got != tt.want {
			t.Errorf("Count(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// TestCollatz_ZeroWithinCapacity verifies the headline claim: 128 replicas
// over 1024 slots never collide at any step.
func TestCollatz_ZeroWithinCapacity(t *testing.T) {
	counts, err := Collatz(schedule(t, 1024, 27), 128, 20)
	if err != nil {
		t.Fatal(err)
	}
	for k, c := range counts {
		if c != 0 {
			t.Fatalf("step %d: %d collisions", k, c)
		}
	}
	if sum := Summarize("collatz", counts); sum.Worst != 0 || sum.Histogram[0] != 20 {
		t.Fatalf("summary = %+v", sum)
	}
}

// TestCollatz_OverCapacity verifies that exceeding the slot count produces
// exactly replicas - M collisions, since the permutation still fills every slot.
func TestCollatz_OverCapacity(t *testing.T) {
	counts, err := Collatz(schedule(t, 16, 27), 32, 5)
	if err != nil {
		t.Fatal(err)
	}
	for k, c := range counts {
		if c != 16 {
			t.Fatalf("step %d: %d collisions, want 16", k, c)
		}
	}
}

// TestRandom_Reproducible verifies the same RNG seed reproduces the same run,
// and that random jitter does collide at this density.
func TestRandom_Reproducible(t *testing.T) {
	a := Random(NewRand(1337), 1024, 128, 20)
	b := Random(NewRand(1337), 1024, 128, 20)
	if !slices.Equal(a, b) {
		t.Fatalf("runs differ: %v vs %v", a, b)
	}
	if Summarize("random", a).Worst == 0 {
		t.Fatal("128 uniform draws over 1024 slots for 20 steps should collide at least once")
	}
}

// TestHybrid_Extremes checks that prob 0 matches the pure schedule and that
// the hybrid run is reproducible for a fixed seed.
func TestHybrid_Extremes(t *testing.T) {
	s := schedule(t, 1024, 27)

	zero, err := Hybrid(s, NewRand(1), 0, 128, 10)
	if err != nil {
		t.Fatal(err)
	}
	pure, _ := Collatz(s, 128, 10)
	if !slices.Equal(zero, pure) {
		t.Fatalf("prob 0: %v, pure: %v", zero, pure)
	}

	h1, _ := Hybrid(s, NewRand(9), 0.3, 128, 10)
	h2, _ := Hybrid(s, NewRand(9), 0.3, 128, 10)
	if !slices.Equal(h1, h2) {
		t.Fatalf("hybrid runs differ: %v vs %v", h1, h2)
	}
}

// TestParseMode rejects unknown names and accepts the four known ones.
func TestParseMode(t *testing.T) {
	for _, s := range []string{"collatz", "random", "hybrid", "all"} {
		if _, err := ParseMode(s); err != nil {
			t.Errorf("ParseMode(%q): %v", s, err)
		}
	}
	if _, err := ParseMode("gaussian"); err == nil {
		t.Error("ParseMode(gaussian) should fail")
	}
	if !ModeAll.Includes(ModeHybrid) || ModeCollatz.Includes(ModeRandom) {
		t.Error("Includes is wrong")
	}
}

// TestSummaryString pins the printed format, with histogram keys sorted.
func TestSummaryString(t *testing.T) {
	got := Summarize("random", []int{2, 0, 2, 1}).String()
	want := "random collisions per step: {0: 1, 1: 1, 2: 2}\nrandom worst-step collisions: 2"
	if got != want {
		t.Fatalf("String() =\n%s\nwant\n%s", got, want)
	}
}
