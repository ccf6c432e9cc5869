package mpack_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/map-protocol/mpack"
)

func TestMarshalCanonicalSortsKeys(t *testing.T) {
	forward := mpack.NewMap(
		entry(mpack.String("b"), mpack.Int(2)),
		entry(mpack.String("a"), mpack.NewMap(
			entry(mpack.Int(10), mpack.Nil{}),
			entry(mpack.Int(1), mpack.Nil{}),
		)),
	)
	backward := mpack.NewMap(
		entry(mpack.String("a"), mpack.NewMap(
			entry(mpack.Int(1), mpack.Nil{}),
			entry(mpack.Int(10), mpack.Nil{}),
		)),
		entry(mpack.String("b"), mpack.Int(2)),
	)

	plainForward, err := mpack.Marshal(forward)
	require.NoError(t, err)
	plainBackward, err := mpack.Marshal(backward)
	require.NoError(t, err)
	assert.NotEqual(t, plainForward, plainBackward)

	canonForward, err := mpack.MarshalCanonical(forward)
	require.NoError(t, err)
	canonBackward, err := mpack.MarshalCanonical(backward)
	require.NoError(t, err)
	assert.Equal(t, canonForward, canonBackward)
	assert.Equal(t, mustHex(t, "82 a1 61 82 01 c0 0a c0 a1 62 02"), canonForward)
}

func TestDigest(t *testing.T) {
	d1, err := mpack.Digest(sampleDocument())
	require.NoError(t, err)
	d2, err := mpack.Digest(sampleDocument())
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
	assert.True(t, strings.HasPrefix(d1, mpack.DigestPrefix))
	assert.Len(t, d1, len(mpack.DigestPrefix)+64)

	other, err := mpack.Digest(mpack.String("deploy"))
	require.NoError(t, err)
	assert.NotEqual(t, d1, other)

	sum, err := mpack.ParseDigest(d1)
	require.NoError(t, err)
	assert.NotEqual(t, [32]byte{}, sum)
}

func TestDigestBytesIgnoresWireChoices(t *testing.T) {
	want, err := mpack.Digest(mpack.NewMap(
		entry(mpack.String("a"), mpack.Int(5)),
		entry(mpack.String("b"), mpack.Float(1.5)),
	))
	require.NoError(t, err)

	// Reordered entries, a widened integer, str8 keys and a float32.
	got, err := mpack.DigestBytes(mustHex(t, "de 00 02 d9 01 62 ca 3f c0 00 00 d9 01 61 cc 05"))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = mpack.DigestBytes(mustHex(t, "01 01"))
	assert.Equal(t, mpack.ErrTrailingBytes, mpack.Code(err))
}

func TestParseDigestRejects(t *testing.T) {
	for _, in := range []string{"", "sha256:00", mpack.DigestPrefix + "zz", mpack.DigestPrefix + "abcd"} {
		_, err := mpack.ParseDigest(in)
		assert.Equal(t, mpack.ErrType, mpack.Code(err), "input %q", in)
	}
}
