package mpack

import (
	"bytes"
	"encoding/hex"
	"strings"

	"github.com/zeebo/blake3"
)

// DigestPrefix introduces every digest string.
const DigestPrefix = "mpk1:"

// MarshalCanonical encodes v like Marshal but emits map entries in
// ascending order of their encoded key bytes, at every nesting level.
// Equal values always produce identical canonical bytes.
func MarshalCanonical(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeTo(&buf, v, true); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Digest computes a content identifier for v:
// "mpk1:" + hex_lower(blake3-256(MarshalCanonical(v))).
func Digest(v Value) (string, error) {
	canon, err := MarshalCanonical(v)
	if err != nil {
		return "", err
	}
	return formatDigest(blake3.Sum256(canon)), nil
}

// DigestBytes decodes the single value in data and returns its Digest.
// Any valid encoding of a value yields the same digest as the value
// itself, regardless of map order or integer width on the wire.
func DigestBytes(data []byte) (string, error) {
	v, err := Unmarshal(data)
	if err != nil {
		return "", err
	}
	return Digest(v)
}

// ParseDigest validates a digest string and returns the raw 32 bytes.
func ParseDigest(s string) ([32]byte, error) {
	var sum [32]byte
	if !strings.HasPrefix(s, DigestPrefix) {
		return sum, newErr(ErrType, "digest missing "+DigestPrefix+" prefix")
	}
	raw, err := hex.DecodeString(s[len(DigestPrefix):])
	if err != nil {
		return sum, wrapErr(ErrType, "digest is not hex", err)
	}
	if len(raw) != len(sum) {
		return sum, newErr(ErrType, "digest is not 32 bytes")
	}
	copy(sum[:], raw)
	return sum, nil
}

func formatDigest(sum [32]byte) string {
	return DigestPrefix + hex.EncodeToString(sum[:])
}
