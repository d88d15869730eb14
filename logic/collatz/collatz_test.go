package collatz

import (
	"math"
	"math/big"
	"testing"
)

// TestStep covers both branches of the shortcut map, including the odd branch
// halving 3n+1 in the same step.
func TestStep(t *testing.T) {
	tests := []struct {
		in, want uint64
	}{
		{0, 0},
		{1, 2},
		{2, 1},
		{6, 3},
		{27, 41},
		{41, 62},
		{62, 31},
	}
	for _, tt := range tests {
		got, ok := Step(tt.in)
		if !ok {
			t.Fatalf("Step(%d) reported overflow", tt.in)
		}
		if got != tt.want {
			t.Errorf("Step(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// TestStep_Overflow verifies that an odd input whose 3n+1 exceeds uint64 is
// reported instead of silently wrapping.
func TestStep_Overflow(t *testing.T) {
	// maxOddInput is even, so its odd neighbours bracket the overflow boundary.
	if _, ok := Step(maxOddInput - 1); !ok {
		t.Fatal("Step(maxOddInput-1) should fit")
	}
	if _, ok := Step(maxOddInput + 1); ok {
		t.Fatal("Step(maxOddInput+1) should overflow")
	}
	if _, ok := Step(math.MaxUint64); ok {
		t.Fatal("Step(MaxUint64) should overflow")
	}
	if _, ok := Step(math.MaxUint64 - 1); !ok {
		t.Fatal("even inputs never overflow")
	}
}

// TestIterate_ZeroSteps verifies that Iterate(seed, 0) returns the seed
// untouched, for small and large seeds alike.
func TestIterate_ZeroSteps(t *testing.T) {
	for _, seed := range []uint64{0, 1, 27, math.MaxUint64} {
		got := Iterate(seed, 0)
		if got.Cmp(new(big.Int).SetUint64(seed)) != 0 {
			t.Errorf("Iterate(%d, 0) = %s", seed, got)
		}
	}
}

// TestIterate_KnownSequence pins the trajectory of seed 27 so the values that
// feed permutation parameters stay bit-compatible.
func TestIterate_KnownSequence(t *testing.T) {
	want := []int64{27, 41, 62, 31, 47, 71, 107, 161, 242, 121}
	for k, w := range want {
		if got := Iterate(27, k); got.Int64() != w {
			t.Errorf("Iterate(27, %d) = %s, want %d", k, got, w)
		}
	}
}

// TestIterate_ZeroSeedIsFixed documents the degenerate seed: 0 maps to itself
// forever and is valid input.
func TestIterate_ZeroSeedIsFixed(t *testing.T) {
	for _, k := range []int{0, 1, 2, 17, 1000} {
		if got := Iterate(0, k); got.Sign() != 0 {
			t.Errorf("Iterate(0, %d) = %s, want 0", k, got)
		}
	}
}

// TestIterate_TerminalCycleMatchesStepping verifies the 1 <-> 2 short-circuit
// against plain stepping, including step counts that end on each side.
func TestIterate_TerminalCycleMatchesStepping(t *testing.T) {
	for _, seed := range []uint64{1, 2, 4, 8, 5, 27} {
		for k := 0; k < 200; k++ {
			want := seed
			for range k {
				want, _ = Step(want)
			}
			if got := Iterate(seed, k); got.Uint64() != want || !got.IsUint64() {
				t.Fatalf("Iterate(%d, %d) = %s, want %d", seed, k, got, want)
			}
		}
	}
}

// TestIterate_PromotesToBig verifies exactness past uint64: for n = 2^64-1,
// (3n+1)/2 = 3*2^63 - 1.
func TestIterate_PromotesToBig(t *testing.T) {
	got := Iterate(math.MaxUint64, 1)

	want := new(big.Int).Lsh(big.NewInt(3), 63)
	want.Sub(want, big.NewInt(1))
	if got.Cmp(want) != 0 {
		t.Fatalf("Iterate(MaxUint64, 1) = %s, want %s", got, want)
	}

	if _, ok := IterateUint64(math.MaxUint64, 1); ok {
		t.Fatal("IterateUint64 should report overflow")
	}
}

// TestIterate_BigContinuesSequence checks that after promotion the remaining
// steps are applied in arbitrary precision rather than dropped.
func TestIterate_BigContinuesSequence(t *testing.T) {
	const seed = math.MaxUint64
	const k = 12

	want := new(big.Int).SetUint64(seed)
	for range k {
		StepBig(want, want)
	}
	if got := Iterate(seed, k); got.Cmp(want) != 0 {
		t.Fatalf("Iterate(%d, %d) = %s, want %s", uint64(seed), k, got, want)
	}
}

// TestIterateUint64_AgreesWithIterate checks the allocation-free path against
// the general one over a spread of seeds.
func TestIterateUint64_AgreesWithIterate(t *testing.T) {
	for seed := uint64(0); seed < 3000; seed += 7 {
		for _, k := range []int{0, 1, 5, 51} {
			small, ok := IterateUint64(seed, k)
			if !ok {
				t.Fatalf("IterateUint64(%d, %d) overflowed", seed, k)
			}
			if general := Iterate(seed, k); !general.IsUint64() || general.Uint64() != small {
				t.Fatalf("seed=%d k=%d: uint64 path %d, big path %s", seed, k, small, general)
			}
		}
	}
}

// BenchmarkIterateUint64 measures the hot path used for every schedule query.
func BenchmarkIterateUint64(b *testing.B) {
	for range b.N {
		IterateUint64(27, 12)
	}
}
