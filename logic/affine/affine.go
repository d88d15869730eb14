// Package affine derives the per-step affine permutation x -> (a*x + b) mod M
// that scatters participant ids across jitter slots.
//
// The map is a bijection on [0, M) iff gcd(a, M) = 1. The multiplier is forced
// odd, which is sufficient when M is a power of two (the recommended setup).
// For other moduli a non-invertible multiplier is replaced by 1, which keeps
// the map bijective at the cost of weaker scattering for that step.
package affine

import (
	"math/big"
	"math/bits"

	"github.com/gurre/collatz-backoff-go/logic/collatz"
)

// offsetShift is the right shift applied to the seed value before reducing it
// into the additive term. It is fixed for compatibility with deployed fleets.
const offsetShift = 3

// Params is the affine permutation for one retry step.
type Params struct {
	// A is the multiplier in [1, M), always invertible mod M.
	A uint64
	// B is the additive term in [0, M).
	B uint64
	// Degraded reports that the derived multiplier shared a factor with M and
	// was replaced by 1.
	Degraded bool
}

// ForStep derives the permutation for retry step k from the fleet seed and
// modulus m. Step k consumes k+1 seed iterations, so step 0 already differs
// from the raw seed. m must be at least 2; k must be non-negative.
//
//	p := affine.ForStep(27, 0, 64) // {A: 41, B: 5}
func ForStep(seed uint64, k int, m uint64) Params {
	if n, ok := collatz.IterateUint64(seed, k+1); ok {
		return FromValue(n, m)
	}
	return FromBig(collatz.Iterate(seed, k+1), m)
}

// FromValue derives permutation parameters from a seed value that fits in a
// uint64.
func FromValue(n, m uint64) Params {
	return finish((n|1)%m, (n>>offsetShift)%m, m)
}

// FromBig derives permutation parameters from an arbitrary-precision seed
// value. It agrees with FromValue wherever both apply.
func FromBig(n *big.Int, m uint64) Params {
	mod := new(big.Int).SetUint64(m)

	a := new(big.Int).SetBit(n, 0, 1)
	a.Mod(a, mod)

	b := new(big.Int).Rsh(n, offsetShift)
	b.Mod(b, mod)

	return finish(a.Uint64(), b.Uint64(), m)
}

func finish(a, b, m uint64) Params {
	if a == 0 {
		a = 1
	}
	p := Params{A: a, B: b}
	if gcd(a, m) != 1 {
		p.A = 1
		p.Degraded = true
	}
	return p
}

// Apply maps x to (A*x + B) mod m without intermediate overflow.
//
//	affine.Params{A: 41, B: 5}.Apply(7, 64) // 36
func (p Params) Apply(x, m uint64) uint64 {
	hi, lo := bits.Mul64(p.A, x%m)
	lo, carry := bits.Add64(lo, p.B, 0)
	return bits.Rem64(hi+carry, lo, m)
}

// Inverse returns the multiplicative inverse of A mod m, used to map a slot
// back to the id that occupies it.
func (p Params) Inverse(m uint64) uint64 {
	inv := new(big.Int).ModInverse(
		new(big.Int).SetUint64(p.A),
		new(big.Int).SetUint64(m),
	)
	if inv == nil {
		return 0
	}
	return inv.Uint64()
}

// Preimage returns the unique x in [0, m) with Apply(x, m) == slot.
func (p Params) Preimage(slot, m uint64) uint64 {
	inv := p.Inverse(m)
	s, b := slot%m, p.B%m
	d := s - b
	if s < b {
		d = s + (m - b)
	}
	hi, lo := bits.Mul64(inv, d)
	return bits.Rem64(hi, lo, m)
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
