package mpack

import (
	"encoding/hex"
	"math"
	"strconv"
	"strings"
)

// Format renders v in a compact diagnostic notation:
//
//	nil  true  -5  1.5  "text"  h'00ff'  [1, 2]  {"k": 1}
//
// Floats always carry a decimal point or exponent so they stay
// distinguishable from integers.
func Format(v Value) string {
	var b strings.Builder
	formatTo(&b, v)
	return b.String()
}

// Diagnose decodes the single value in data and returns its notation.
func Diagnose(data []byte) (string, error) {
	v, err := Unmarshal(data)
	if err != nil {
		return "", err
	}
	return Format(v), nil
}

// DiagnoseFirst returns the notation for the first value in data along
// with the unconsumed remainder.
func DiagnoseFirst(data []byte) (string, []byte, error) {
	v, rest, err := UnmarshalFirst(data)
	if err != nil {
		return "", data, err
	}
	return Format(v), rest, nil
}

func formatTo(b *strings.Builder, v Value) {
	switch val := v.(type) {
	case nil, Nil:
		b.WriteString("nil")
	case Bool:
		b.WriteString(strconv.FormatBool(bool(val)))
	case Integer:
		b.WriteString(val.String())
	case Float:
		b.WriteString(formatFloat(float64(val)))
	case String:
		b.WriteString(strconv.Quote(string(val)))
	case Bytes:
		b.WriteString("h'")
		b.WriteString(hex.EncodeToString(val))
		b.WriteByte('\'')
	case Array:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteString(", ")
			}
			formatTo(b, item)
		}
		b.WriteByte(']')
	case *Map:
		b.WriteByte('{')
		first := true
		val.Range(func(key, value Value) bool {
			if !first {
				b.WriteString(", ")
			}
			first = false
			formatTo(b, key)
			b.WriteString(": ")
			formatTo(b, value)
			return true
		})
		b.WriteByte('}')
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
