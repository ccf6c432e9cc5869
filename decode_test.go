package mpack_test

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/map-protocol/mpack"
)

func TestDecodeVectors(t *testing.T) {
	// Every canonical encoding must decode back to its value.
	for _, vec := range encodeVectors {
		t.Run("canonical_"+vec.name, func(t *testing.T) {
			got, err := mpack.Unmarshal(mustHex(t, vec.wire))
			require.NoError(t, err)
			assert.True(t, mpack.Equal(vec.value, got), "got %s", mpack.Format(got))
		})
	}

	// Non-canonical but valid encodings.
	decodeOnly := []wireVector{
		{"uint8", mpack.Int(255), "cc ff"},
		{"uint8_small", mpack.Int(1), "cc 01"},
		{"uint16", mpack.Int(65535), "cd ff ff"},
		{"uint32", mpack.Int(math.MaxUint32), "ce ff ff ff ff"},
		{"uint64_max", mpack.Uint(math.MaxUint64), "cf ff ff ff ff ff ff ff ff"},
		{"uint64_2p63", mpack.Uint(1 << 63), "cf 80 00 00 00 00 00 00 00"},
		{"int8_positive", mpack.Int(5), "d0 05"},
		{"int16_negative", mpack.Int(-2), "d1 ff fe"},
		{"int32_negative", mpack.Int(-1), "d2 ff ff ff ff"},
		{"int64_negative", mpack.Int(-1), "d3 ff ff ff ff ff ff ff ff"},
		{"float32", mpack.Float(1.5), "ca 3f c0 00 00"},
		{"float32_neg", mpack.Float(-0.25), "ca be 80 00 00"},
		{"str8", mpack.String("abc"), "d9 03 61 62 63"},
		{"str16", mpack.String("abc"), "da 00 03 61 62 63"},
		{"str32", mpack.String("abc"), "db 00 00 00 03 61 62 63"},
		{"str8_empty", mpack.String(""), "d9 00"},
		{"bin16", mpack.Bytes{0x01, 0x02}, "c5 00 02 01 02"},
		{"bin32", mpack.Bytes{0x01, 0x02}, "c6 00 00 00 02 01 02"},
		{"array16", mpack.Array{mpack.Int(1), mpack.Int(2)}, "dc 00 02 01 02"},
		{"array32", mpack.Array{mpack.Int(1), mpack.Int(2)}, "dd 00 00 00 02 01 02"},
		{"map16", mpack.NewMap(entry(mpack.String("a"), mpack.Int(1))), "de 00 01 a1 61 01"},
		{"map32", mpack.NewMap(entry(mpack.String("a"), mpack.Int(1))), "df 00 00 00 01 a1 61 01"},
		{
			"map_unordered",
			mpack.NewMap(entry(mpack.Int(1), mpack.Nil{}), entry(mpack.Int(2), mpack.Bool(true))),
			"82 02 c3 01 c0",
		},
	}
	for _, vec := range decodeOnly {
		t.Run(vec.name, func(t *testing.T) {
			got, err := mpack.Unmarshal(mustHex(t, vec.wire))
			require.NoError(t, err)
			assert.True(t, mpack.Equal(vec.value, got), "got %s", mpack.Format(got))
		})
	}
}

func TestDecodeUnsignedWidening(t *testing.T) {
	got, err := mpack.Unmarshal(mustHex(t, "cf ff ff ff ff ff ff ff ff"))
	require.NoError(t, err)
	i, ok := got.(mpack.Integer)
	require.True(t, ok)
	u, ok := i.Uint64()
	require.True(t, ok)
	assert.Equal(t, uint64(math.MaxUint64), u)
	assert.Equal(t, 1, i.Sign())
}

func TestDecodeTruncated(t *testing.T) {
	inputs := []string{
		"",
		"d1", "d1 01", "d0", "d2 00 00 00", "d3 00",
		"cc", "cd 00", "ce 00 00 00", "cf 00 00 00 00 00 00 00",
		"ca 3f c0", "cb",
		"a3 61", "d9", "d9 02 61", "da 00", "db 00 00 00 05 61",
		"c4", "c4 03 01", "c5 00", "c6 00 00 00 01",
		"91", "dc 00", "dc 00 02 01", "dd 00 00",
		"81", "81 a1 61", "de 00 01", "df 00 00 00 02 01 01",
		"92 01 d1 01",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got, err := mpack.Unmarshal(mustHex(t, in))
			assert.Nil(t, got, "failed decode must not return a partial value")
			assert.Equal(t, mpack.ErrTruncated, mpack.Code(err), "err = %v", err)
		})
	}
}

func TestDecodeTruncatedLargePayload(t *testing.T) {
	// Declares 1 MiB, supplies 4 bytes.  The one-byte reader hides Len so
	// the incremental read path is exercised.
	data := mustHex(t, "c6 00 10 00 00 01 02 03 04")
	_, err := mpack.Decode(iotest.OneByteReader(bytes.NewReader(data)))
	assert.Equal(t, mpack.ErrTruncated, mpack.Code(err))

	_, err = mpack.Unmarshal(data)
	assert.Equal(t, mpack.ErrTruncated, mpack.Code(err))
}

func TestDecodeLargePayloadIncremental(t *testing.T) {
	payload := bytes.Repeat([]byte{0x5A}, 70000)
	encoded, err := mpack.Marshal(mpack.Bytes(payload))
	require.NoError(t, err)

	got, err := mpack.Decode(iotest.HalfReader(bytes.NewReader(encoded)))
	require.NoError(t, err)
	assert.Equal(t, mpack.Bytes(payload), got)
}

func TestDecodeInvalidUTF8(t *testing.T) {
	for _, in := range []string{"a1 ff", "d9 01 ff", "92 a1 61 a2 c3 28"} {
		got, err := mpack.Unmarshal(mustHex(t, in))
		assert.Nil(t, got)
		assert.Equal(t, mpack.ErrInvalidUTF8, mpack.Code(err), "input %s", in)
	}
}

func TestDecodeReservedTags(t *testing.T) {
	for _, tag := range []byte{0xC1, 0xC7, 0xC8, 0xC9, 0xD4, 0xD5, 0xD6, 0xD7, 0xD8} {
		got, err := mpack.Unmarshal([]byte{tag, 0x00, 0x00})
		assert.Nil(t, got)
		assert.Equal(t, mpack.ErrUnsupportedTag, mpack.Code(err), "tag %#x", tag)
	}

	got, err := mpack.Unmarshal(mustHex(t, "92 01 c1"))
	assert.Nil(t, got)
	assert.Equal(t, mpack.ErrUnsupportedTag, mpack.Code(err))
}

func TestDecodeEveryTagClassified(t *testing.T) {
	// Each single-byte input either decodes, is truncated, or is reserved.
	for tag := 0; tag <= 0xFF; tag++ {
		_, err := mpack.Unmarshal([]byte{byte(tag)})
		if err == nil {
			continue
		}
		code := mpack.Code(err)
		assert.Contains(t, []string{mpack.ErrTruncated, mpack.ErrUnsupportedTag}, code, "tag %#x", tag)
	}
}

func TestDecodeDuplicateKeys(t *testing.T) {
	got, err := mpack.Unmarshal(mustHex(t, "82 a1 61 01 a1 61 02"))
	require.NoError(t, err)
	m, ok := got.(*mpack.Map)
	require.True(t, ok)
	require.Equal(t, 1, m.Len())
	v, ok := m.Get(mpack.String("a"))
	require.True(t, ok)
	assert.Equal(t, mpack.Int(2), v)

	// Integer keys decoded from different widths are the same key.
	got, err = mpack.Unmarshal(mustHex(t, "82 05 a1 78 cc 05 a1 79"))
	require.NoError(t, err)
	m = got.(*mpack.Map)
	require.Equal(t, 1, m.Len())
	v, _ = m.Get(mpack.Int(5))
	assert.Equal(t, mpack.String("y"), v)
}

func TestDecodeNestedMapKey(t *testing.T) {
	key := mpack.NewMap(entry(mpack.String("k"), mpack.Array{mpack.Int(1)}))
	m := mpack.NewMap(entry(key, mpack.String("v")))
	encoded, err := mpack.Marshal(m)
	require.NoError(t, err)

	got, err := mpack.Unmarshal(encoded)
	require.NoError(t, err)
	v, ok := got.(*mpack.Map).Get(key)
	require.True(t, ok)
	assert.Equal(t, mpack.String("v"), v)
}

func TestDecodeTrailingBytes(t *testing.T) {
	_, err := mpack.Unmarshal(mustHex(t, "01 02"))
	assert.Equal(t, mpack.ErrTrailingBytes, mpack.Code(err))

	v, rest, err := mpack.UnmarshalFirst(mustHex(t, "01 02"))
	require.NoError(t, err)
	assert.Equal(t, mpack.Int(1), v)
	assert.Equal(t, []byte{0x02}, rest)
}

func TestDecodeLeavesSourcePositioned(t *testing.T) {
	data := mustHex(t, "92 01 a1 61 c3 ff")
	r := bytes.NewReader(data)
	v, err := mpack.Decode(r)
	require.NoError(t, err)
	assert.True(t, mpack.Equal(mpack.Array{mpack.Int(1), mpack.String("a")}, v))
	assert.Equal(t, 2, r.Len())

	// Same through a reader without ReadByte or Len.
	plain := iotest.OneByteReader(bytes.NewReader(data))
	_, err = mpack.Decode(plain)
	require.NoError(t, err)
	rest, err := io.ReadAll(plain)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xC3, 0xFF}, rest)
}

func TestDecodeSourceError(t *testing.T) {
	sourceErr := errors.New("connection reset")

	_, err := mpack.Decode(iotest.ErrReader(sourceErr))
	assert.Equal(t, mpack.ErrSource, mpack.Code(err))
	assert.ErrorIs(t, err, sourceErr)

	// Fails after the tag byte has been read.
	r := io.MultiReader(bytes.NewReader([]byte{0xD1}), iotest.ErrReader(sourceErr))
	_, err = mpack.Decode(r)
	assert.Equal(t, mpack.ErrSource, mpack.Code(err))
	assert.ErrorIs(t, err, sourceErr)
}

func TestErrorMatching(t *testing.T) {
	_, err := mpack.Unmarshal([]byte{0xD1})
	assert.ErrorIs(t, err, &mpack.Error{Code: mpack.ErrTruncated})
	assert.NotErrorIs(t, err, &mpack.Error{Code: mpack.ErrSource})
	assert.NotErrorIs(t, err, io.EOF)
	assert.Equal(t, "", mpack.Code(errors.New("other")))
	assert.Equal(t, "", mpack.Code(nil))
}

func BenchmarkUnmarshal(b *testing.B) {
	data, err := mpack.Marshal(sampleDocument())
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		mpack.Unmarshal(data)
	}
}
