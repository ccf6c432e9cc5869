package mpack_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/map-protocol/mpack"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		value mpack.Value
		want  string
	}{
		{nil, "nil"},
		{mpack.Bool(true), "true"},
		{mpack.Int(-5), "-5"},
		{mpack.Uint(math.MaxUint64), "18446744073709551615"},
		{mpack.Float(2), "2.0"},
		{mpack.Float(1e300), "1e+300"},
		{mpack.Float(math.NaN()), "NaN"},
		{mpack.Float(math.Inf(-1)), "-Infinity"},
		{mpack.String("a\"b"), `"a\"b"`},
		{mpack.Bytes{0x00, 0xFF}, "h'00ff'"},
		{mpack.Array{mpack.Int(1), mpack.Array{}}, "[1, []]"},
		{mpack.NewMap(entry(mpack.String("k"), mpack.Nil{}), entry(mpack.Int(1), mpack.Bool(false))), `{"k": nil, 1: false}`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, mpack.Format(tc.value))
	}
}

func TestDiagnoseFirst(t *testing.T) {
	notation, rest, err := mpack.DiagnoseFirst(mustHex(t, "a5 68 65 6c 6c 6f 2a"))
	require.NoError(t, err)
	assert.Equal(t, `"hello"`, notation)
	require.Len(t, rest, 1)

	notation, rest, err = mpack.DiagnoseFirst(rest)
	require.NoError(t, err)
	assert.Equal(t, "42", notation)
	assert.Empty(t, rest)

	_, err = mpack.Diagnose(mustHex(t, "2a 2a"))
	assert.Equal(t, mpack.ErrTrailingBytes, mpack.Code(err))
}
