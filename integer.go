package mpack

import (
	"math"
	"math/big"
	"strconv"
)

// Integer is the integer variant.  It stores a sign and a 64-bit
// magnitude, which covers every value of both the signed and the unsigned
// 64-bit wire families: [-(2^64-1), 2^64-1].
//
// The zero value is 0.  Integer is comparable, and == agrees with Equal.
type Integer struct {
	neg bool
	mag uint64
}

// Int returns the Integer for a signed 64-bit value.
func Int(v int64) Integer {
	if v < 0 {
		// Two's complement negation is exact for MinInt64 once viewed unsigned.
		return Integer{neg: true, mag: uint64(-(v + 1)) + 1}
	}
	return Integer{mag: uint64(v)}
}

// Uint returns the Integer for an unsigned 64-bit value.
func Uint(v uint64) Integer {
	return Integer{mag: v}
}

var (
	bigMaxMagnitude = new(big.Int).SetUint64(math.MaxUint64)
	bigMinMagnitude = new(big.Int).Neg(bigMaxMagnitude)
)

// IntegerFromBig converts b, failing with ERR_OUT_OF_RANGE when |b| does
// not fit in 64 bits.
func IntegerFromBig(b *big.Int) (Integer, error) {
	if b.Cmp(bigMaxMagnitude) > 0 || b.Cmp(bigMinMagnitude) < 0 {
		return Integer{}, newErr(ErrOutOfRange, "integer magnitude exceeds 64 bits: "+b.String())
	}
	abs := new(big.Int).Abs(b)
	return Integer{neg: b.Sign() < 0, mag: abs.Uint64()}, nil
}

// Sign returns -1, 0 or +1.
func (i Integer) Sign() int {
	switch {
	case i.mag == 0:
		return 0
	case i.neg:
		return -1
	}
	return 1
}

// Int64 returns the value as int64 and whether it fits.
func (i Integer) Int64() (int64, bool) {
	if i.neg {
		if i.mag > 1<<63 {
			return 0, false
		}
		return -int64(i.mag-1) - 1, true
	}
	if i.mag > math.MaxInt64 {
		return 0, false
	}
	return int64(i.mag), true
}

// Uint64 returns the value as uint64 and whether it fits.
func (i Integer) Uint64() (uint64, bool) {
	if i.neg && i.mag != 0 {
		return 0, false
	}
	return i.mag, true
}

// Big returns the value as a new big.Int.
func (i Integer) Big() *big.Int {
	b := new(big.Int).SetUint64(i.mag)
	if i.neg {
		b.Neg(b)
	}
	return b
}

func (i Integer) String() string {
	if i.neg && i.mag != 0 {
		return "-" + strconv.FormatUint(i.mag, 10)
	}
	return strconv.FormatUint(i.mag, 10)
}
