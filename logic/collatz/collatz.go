// Package collatz implements the shortcut Collatz map used to seed per-step
// backoff permutations.
//
// The map is n/2 for even n and (3n+1)/2 for odd n. It is used purely as a
// cheap deterministic decorrelator: nothing here depends on convergence, and
// the sequence carries no statistical guarantee.
//
// Iteration runs in uint64 and continues in math/big once a step would
// overflow, so results are exact for every seed.
package collatz

import (
	"math"
	"math/big"
)

// maxOddInput is the largest odd n for which 3n+1 fits in a uint64.
const maxOddInput = (math.MaxUint64 - 1) / 3

var (
	bigOne   = big.NewInt(1)
	bigThree = big.NewInt(3)
)

// Step applies one shortcut Collatz step. ok is false when the result does not
// fit in a uint64; use StepBig in that case.
//
//	collatz.Step(27) // 41, true
func Step(n uint64) (next uint64, ok bool) {
	if n%2 == 0 {
		return n / 2, true
	}
	if n > maxOddInput {
		return 0, false
	}
	return (3*n + 1) / 2, true
}

// StepBig applies one shortcut Collatz step in arbitrary precision, writing the
// result into z and returning it.
func StepBig(z, n *big.Int) *big.Int {
	if n.Bit(0) == 0 {
		return z.Rsh(n, 1)
	}
	z.Mul(n, bigThree)
	z.Add(z, bigOne)
	return z.Rsh(z, 1)
}

// Iterate applies Step k times starting from seed. Iterate(seed, 0) is seed.
// Non-positive k performs no steps.
//
//	collatz.Iterate(27, 1) // 41
func Iterate(seed uint64, k int) *big.Int {
	n, rest, ok := iterateSmall(seed, k)
	if ok {
		return new(big.Int).SetUint64(n)
	}
	z := new(big.Int).SetUint64(n)
	for ; rest > 0; rest-- {
		StepBig(z, z)
	}
	return z
}

// IterateUint64 is Iterate without allocation. ok is false when some
// intermediate value outgrew uint64; the caller must fall back to Iterate.
func IterateUint64(seed uint64, k int) (n uint64, ok bool) {
	n, _, ok = iterateSmall(seed, k)
	return n, ok
}

// iterateSmall steps in uint64 until done or overflow. On overflow it returns
// the last representable value and the number of steps still owed.
func iterateSmall(seed uint64, k int) (n uint64, rest int, ok bool) {
	n = seed
	for rest = k; rest > 0; rest-- {
		if n <= 2 {
			return settle(n, rest), 0, true
		}
		next, fits := Step(n)
		if !fits {
			return n, rest, false
		}
		n = next
	}
	return n, 0, true
}

// settle resolves the remaining steps for values already in a terminal cycle:
// 0 is a fixed point and 1 -> 2 -> 1 alternates.
func settle(n uint64, rest int) uint64 {
	if n == 0 || rest%2 == 0 {
		return n
	}
	return 3 - n
}
