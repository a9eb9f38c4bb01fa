package heappool

import "math/bits"

// Rational ...
type Rational struct {
	Nominator   uint64
	Denominator uint64
}

// NewRational ...
func NewRational(nominator uint64, denominator uint64) Rational {
	return Rational{
		Nominator:   nominator,
		Denominator: denominator,
	}
}

// MulUint64 returns v * r rounded down. The intermediate product is 128 bits wide.
func (r Rational) MulUint64(v uint64) uint64 {
	hi, lo := bits.Mul64(v, r.Nominator)
	if hi >= r.Denominator {
		panic("rational product overflows uint64")
	}
	q, _ := bits.Div64(hi, lo, r.Denominator)
	return q
}

// sharedLadder is the sequence of fractions of the shared allocator ceiling tried when
// sizing a new shared allocator.
var sharedLadder = []Rational{
	NewRational(1, 2),
	NewRational(1, 4),
	NewRational(1, 8),
}
