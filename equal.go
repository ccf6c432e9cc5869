package mpack

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Equal reports whether a and b are the same variant with recursively
// equal payloads.  Floats compare by bit pattern, so NaN equals an
// identical NaN and 0.0 differs from -0.0.  Maps compare as unordered
// key sets.
func Equal(a, b Value) bool {
	if KindOf(a) != KindOf(b) {
		return false
	}
	switch x := a.(type) {
	case nil, Nil:
		return true
	case Bool:
		return x == b.(Bool)
	case Integer:
		return x == b.(Integer)
	case Float:
		return math.Float64bits(float64(x)) == math.Float64bits(float64(b.(Float)))
	case String:
		return x == b.(String)
	case Bytes:
		return bytes.Equal(x, b.(Bytes))
	case Array:
		y := b.(Array)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Map:
		y := b.(*Map)
		if x.Len() != y.Len() {
			return false
		}
		if x.Len() == 0 {
			return true
		}
		for _, e := range x.entries {
			other, ok := y.Get(e.Key)
			if !ok || !Equal(e.Value, other) {
				return false
			}
		}
		return true
	}
	return false
}

// Hash returns a 64-bit hash of v consistent with Equal.  A map's
// contribution is the wrapping sum of its per-entry hashes, which makes
// it independent of insertion order.
func Hash(v Value) uint64 {
	d := xxhash.New()
	writeHash(d, v)
	return d.Sum64()
}

func writeHash(d *xxhash.Digest, v Value) {
	var scratch [9]byte
	scratch[0] = byte(KindOf(v))
	switch x := v.(type) {
	case nil, Nil:
		d.Write(scratch[:1])
	case Bool:
		if x {
			scratch[1] = 1
		}
		d.Write(scratch[:2])
	case Integer:
		if x.neg && x.mag != 0 {
			scratch[0] |= 0x80
		}
		binary.BigEndian.PutUint64(scratch[1:], x.mag)
		d.Write(scratch[:9])
	case Float:
		binary.BigEndian.PutUint64(scratch[1:], math.Float64bits(float64(x)))
		d.Write(scratch[:9])
	case String:
		binary.BigEndian.PutUint64(scratch[1:], uint64(len(x)))
		d.Write(scratch[:9])
		d.WriteString(string(x))
	case Bytes:
		binary.BigEndian.PutUint64(scratch[1:], uint64(len(x)))
		d.Write(scratch[:9])
		d.Write(x)
	case Array:
		binary.BigEndian.PutUint64(scratch[1:], uint64(len(x)))
		d.Write(scratch[:9])
		for _, item := range x {
			writeHash(d, item)
		}
	case *Map:
		var sum uint64
		var pair [16]byte
		x.Range(func(key, value Value) bool {
			binary.BigEndian.PutUint64(pair[:8], Hash(key))
			binary.BigEndian.PutUint64(pair[8:], Hash(value))
			sum += xxhash.Sum64(pair[:])
			return true
		})
		binary.BigEndian.PutUint64(scratch[1:], uint64(x.Len()))
		d.Write(scratch[:9])
		binary.BigEndian.PutUint64(scratch[1:], sum)
		d.Write(scratch[1:9])
	}
}
