package kernel

import (
	"math"
	"math/big"
	"math/bits"
)

// HighPrecision is a signed 128-bit fixed-point number in Q64.64 format:
// the high 64 bits hold the integer part, the low 64 bits hold the
// fractional part. The pair (hi, lo) is the standard two's-complement split
// of a 128-bit signed integer across two uint64 limbs, so the represented
// rational value is always hi + lo/2^64 regardless of sign.
type HighPrecision struct {
	hi int64
	lo uint64
}

// HighPrecisionZero is the additive identity.
var HighPrecisionZero = HighPrecision{}

// HighPrecisionFromInt builds a HighPrecision with an empty fractional part.
func HighPrecisionFromInt(v int64) HighPrecision {
	return HighPrecision{hi: v}
}

// HighPrecisionFromDouble builds a HighPrecision from an IEEE-754 double,
// truncating the fractional part at 2^-64.
func HighPrecisionFromDouble(d float64) HighPrecision {
	ip := math.Floor(d)
	frac := d - ip
	scaled := frac * twoPow64
	if scaled >= twoPow64 {
		scaled = twoPow64 - 1
	}
	if scaled < 0 {
		scaled = 0
	}
	return HighPrecision{hi: int64(ip), lo: uint64(scaled)}
}

const twoPow64 = 18446744073709551616.0 // 2^64, exactly representable as float64

// ToInt returns the integer part, shifted right by 64 bits.
func (h HighPrecision) ToInt() int64 {
	return h.hi
}

// ToDouble returns an IEEE-754 approximation of the value; precision is lost
// below roughly 1e-19.
func (h HighPrecision) ToDouble() float64 {
	return float64(h.hi) + float64(h.lo)/twoPow64
}

// IsZero reports whether the value is the additive identity.
func (h HighPrecision) IsZero() bool {
	return h.hi == 0 && h.lo == 0
}

// IsNegative reports whether the value is strictly negative.
func (h HighPrecision) IsNegative() bool {
	return h.hi < 0
}

// Neg returns the two's-complement negation of h.
func (h HighPrecision) Neg() HighPrecision {
	lo := ^h.lo
	hi := ^h.hi
	var c uint64
	lo, c = bits.Add64(lo, 1, 0)
	hi += int64(c)
	return HighPrecision{hi: hi, lo: lo}
}

// Add returns h + other, with two's-complement wraparound on overflow.
func (h HighPrecision) Add(other HighPrecision) HighPrecision {
	lo, carry := bits.Add64(h.lo, other.lo, 0)
	hi := h.hi + other.hi + int64(carry)
	return HighPrecision{hi: hi, lo: lo}
}

// Sub returns h - other, with two's-complement wraparound on overflow.
func (h HighPrecision) Sub(other HighPrecision) HighPrecision {
	lo, borrow := bits.Sub64(h.lo, other.lo, 0)
	hi := h.hi - other.hi - int64(borrow)
	return HighPrecision{hi: hi, lo: lo}
}

// Compare returns -1, 0, or 1 as h is less than, equal to, or greater than
// other. It is a total order over the full signed 128-bit range.
func (h HighPrecision) Compare(other HighPrecision) int {
	if h.hi != other.hi {
		if h.hi < other.hi {
			return -1
		}
		return 1
	}
	switch {
	case h.lo < other.lo:
		return -1
	case h.lo > other.lo:
		return 1
	default:
		return 0
	}
}

// Mul returns h * other, computed via a schoolbook 128x128->256 bit
// unsigned multiply of the magnitudes (using math/bits 64x64->128 primitives)
// followed by sign correction and a rescale back to Q64.64. The middle two
// 64-bit limbs of the 256-bit product are kept; the low limb (below Q64.64
// precision) and the high limb (expected to be all sign-extension bits for
// values in the kernel's operating range) are discarded.
func (h HighPrecision) Mul(other HighPrecision) HighPrecision {
	aMag, aNeg := h.magnitude()
	bMag, bNeg := other.magnitude()

	w3, w2, w1, _ := mul128(aMag.hi, aMag.lo, bMag.hi, bMag.lo)

	if aNeg != bNeg {
		w3, w2, w1, _ = negate256(w3, w2, w1, 0)
	}

	return HighPrecision{hi: int64(w2), lo: w1}
}

// magnitude returns the unsigned absolute value of h (as raw hi/lo limbs)
// and whether h was negative.
func (h HighPrecision) magnitude() (HighPrecision, bool) {
	if h.IsNegative() {
		return h.Neg(), true
	}
	return h, false
}

// mul128 computes the 256-bit unsigned product of two 128-bit unsigned
// magnitudes, each given as (hi, lo) limb pairs, returning limbs from most
// to least significant.
func mul128(ah, al, bh, bl uint64) (w3, w2, w1, w0 uint64) {
	hi0, lo0 := bits.Mul64(al, bl)
	hi1, lo1 := bits.Mul64(al, bh)
	hi2, lo2 := bits.Mul64(ah, bl)
	hi3, lo3 := bits.Mul64(ah, bh)

	w0 = lo0

	var c1, c2 uint64
	w1, c1 = bits.Add64(hi0, lo1, 0)
	w1, c2 = bits.Add64(w1, lo2, 0)
	carry1 := c1 + c2

	var c3, c4, c5 uint64
	w2, c3 = bits.Add64(hi1, hi2, 0)
	w2, c4 = bits.Add64(w2, lo3, 0)
	w2, c5 = bits.Add64(w2, carry1, 0)
	carry2 := c3 + c4 + c5

	w3 = hi3 + carry2
	return w3, w2, w1, w0
}

// negate256 returns the two's-complement negation of a 256-bit value given
// as four limbs, most to least significant.
func negate256(w3, w2, w1, w0 uint64) (uint64, uint64, uint64, uint64) {
	w0, w1, w2, w3 = ^w0, ^w1, ^w2, ^w3
	var c uint64
	w0, c = bits.Add64(w0, 1, 0)
	w1, c = bits.Add64(w1, 0, c)
	w2, c = bits.Add64(w2, 0, c)
	w3, _ = bits.Add64(w3, 0, c)
	return w3, w2, w1, w0
}

// Div returns h / other, truncated toward zero, matching the Q64.64
// semantics Mul and Add/Sub use. Division requires a 256-bit intermediate
// numerator (h scaled up by 2^64) that is awkward and error-prone to get
// right with hand-rolled limb arithmetic; unlike Mul, a manual math/bits
// routine since it is the operation actually exercised in the kernel's hot
// scheduling path, Div leans on math/big for the truncating 256-bit/128-bit
// division itself and only uses hand-rolled splitting to get back into the
// hi/lo representation.
func (h HighPrecision) Div(other HighPrecision) (HighPrecision, error) {
	if other.IsZero() {
		return HighPrecision{}, ErrArithmetic
	}

	num := new(big.Int).Lsh(h.toBigInt(), 64)
	den := other.toBigInt()
	q := new(big.Int).Quo(num, den) // truncates toward zero, like Go's /

	return fromSigned128BigInt(q), nil
}

func (h HighPrecision) toBigInt() *big.Int {
	v := new(big.Int).Lsh(big.NewInt(h.hi), 64)
	v.Add(v, new(big.Int).SetUint64(h.lo))
	return v
}

// fromSigned128BigInt splits an arbitrary-sign big.Int into the (hi, lo)
// representation, where lo is always the non-negative remainder of
// Euclidean division by 2^64 (matching the hi*2^64+lo convention used
// throughout this type, for both positive and negative values).
func fromSigned128BigInt(v *big.Int) HighPrecision {
	mod := new(big.Int).Lsh(big.NewInt(1), 64)
	q, m := new(big.Int), new(big.Int)
	q.DivMod(v, mod, m)
	return HighPrecision{hi: q.Int64(), lo: m.Uint64()}
}
