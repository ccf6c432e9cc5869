package mpack

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"sort"
	"unicode/utf8"
)

// Marshal encodes v and returns the bytes.
func Marshal(v Value) ([]byte, error) {
	return AppendValue(nil, v)
}

// AppendValue appends the encoding of v to dst.  On error dst is returned
// unchanged.
func AppendValue(dst []byte, v Value) ([]byte, error) {
	buf := bytes.NewBuffer(dst)
	if err := encodeTo(buf, v, false); err != nil {
		return dst, err
	}
	return buf.Bytes(), nil
}

// Encode writes the encoding of v to w.  The value is fully encoded before
// anything is written, so an encoding error leaves w untouched; a failed or
// short write is reported as ERR_SINK.
func Encode(w io.Writer, v Value) error {
	return encodeToWriter(w, v, false)
}

func encodeToWriter(w io.Writer, v Value, canonical bool) error {
	buf := getBuffer()
	defer putBuffer(buf)
	if err := encodeTo(buf, v, canonical); err != nil {
		return err
	}
	return writeAll(w, buf.Bytes())
}

func writeAll(w io.Writer, p []byte) error {
	n, err := w.Write(p)
	if err != nil {
		return wrapErr(ErrSink, "write failed", err)
	}
	if n != len(p) {
		return wrapErr(ErrSink, "short write", io.ErrShortWrite)
	}
	return nil
}

// encodeTo appends the encoding of v to buf.  With canonical set, map
// entries are emitted in ascending order of their encoded key bytes
// instead of iteration order.
//
// Recursion depth equals the nesting depth of v.
func encodeTo(buf *bytes.Buffer, v Value, canonical bool) error {
	switch val := v.(type) {

	case nil, Nil:
		buf.WriteByte(tagNil)

	case Bool:
		if val {
			buf.WriteByte(tagTrue)
		} else {
			buf.WriteByte(tagFalse)
		}

	case Integer:
		return writeInteger(buf, val)

	case Float:
		buf.WriteByte(tagFloat64)
		writeU64BE(buf, math.Float64bits(float64(val)))

	case String:
		if !utf8.ValidString(string(val)) {
			return newErr(ErrInvalidUTF8, "string is not valid UTF-8")
		}
		if err := writeStrHeader(buf, len(val)); err != nil {
			return err
		}
		buf.WriteString(string(val))

	case Bytes:
		if err := writeBinHeader(buf, len(val)); err != nil {
			return err
		}
		buf.Write(val)

	case Array:
		if err := writeCountHeader(buf, len(val), tagFixArrayMin, tagArray16, tagArray32); err != nil {
			return err
		}
		for _, item := range val {
			if err := encodeTo(buf, item, canonical); err != nil {
				return err
			}
		}

	case *Map:
		if err := writeCountHeader(buf, val.Len(), tagFixMapMin, tagMap16, tagMap32); err != nil {
			return err
		}
		if canonical {
			return writeCanonicalEntries(buf, val)
		}
		for _, e := range val.Entries() {
			if err := encodeTo(buf, e.Key, canonical); err != nil {
				return err
			}
			if err := encodeTo(buf, e.Value, canonical); err != nil {
				return err
			}
		}

	default:
		return newErr(ErrType, "unsupported value type")
	}
	return nil
}

// writeCanonicalEntries sorts entries by the unsigned-octet order of their
// canonical key encodings.  Keys are unique under Equal and the canonical
// encoding is injective, so the order is total.
func writeCanonicalEntries(buf *bytes.Buffer, m *Map) error {
	type kv struct {
		keyBytes []byte
		val      Value
	}
	entries := m.Entries()
	items := make([]kv, len(entries))
	for i, e := range entries {
		var kb bytes.Buffer
		if err := encodeTo(&kb, e.Key, true); err != nil {
			return err
		}
		items[i] = kv{keyBytes: kb.Bytes(), val: e.Value}
	}
	sort.Slice(items, func(i, j int) bool {
		return bytes.Compare(items[i].keyBytes, items[j].keyBytes) < 0
	})
	for _, item := range items {
		buf.Write(item.keyBytes)
		if err := encodeTo(buf, item.val, true); err != nil {
			return err
		}
	}
	return nil
}

// writeInteger emits the narrowest family that holds i exactly: positive
// fixint, negative fixint, then int8/16/32/64.
func writeInteger(buf *bytes.Buffer, i Integer) error {
	v, ok := i.Int64()
	if !ok {
		return newErr(ErrOutOfRange, "integer "+i.String()+" outside the signed 64-bit range")
	}
	switch {
	case v >= 0 && v <= maxFixPosInt:
		buf.WriteByte(byte(v))
	case v < 0 && v >= minFixNegInt:
		buf.WriteByte(byte(int8(v)))
	case v >= math.MinInt8 && v <= math.MaxInt8:
		buf.WriteByte(tagInt8)
		buf.WriteByte(byte(int8(v)))
	case v >= math.MinInt16 && v <= math.MaxInt16:
		buf.WriteByte(tagInt16)
		writeU16BE(buf, uint16(int16(v)))
	case v >= math.MinInt32 && v <= math.MaxInt32:
		buf.WriteByte(tagInt32)
		writeU32BE(buf, uint32(int32(v)))
	default:
		buf.WriteByte(tagInt64)
		writeU64BE(buf, uint64(v))
	}
	return nil
}

func writeStrHeader(buf *bytes.Buffer, n int) error {
	switch {
	case n <= maxFixStrLen:
		buf.WriteByte(tagFixStrMin | byte(n))
	case n <= maxUint8Len:
		buf.WriteByte(tagStr8)
		buf.WriteByte(byte(n))
	case n <= maxUint16Len:
		buf.WriteByte(tagStr16)
		writeU16BE(buf, uint16(n))
	case uint64(n) <= maxUint32Len:
		buf.WriteByte(tagStr32)
		writeU32BE(buf, uint32(n))
	default:
		return newErr(ErrOutOfRange, "string length exceeds 32 bits")
	}
	return nil
}

func writeBinHeader(buf *bytes.Buffer, n int) error {
	switch {
	case n <= maxUint8Len:
		buf.WriteByte(tagBin8)
		buf.WriteByte(byte(n))
	case n <= maxUint16Len:
		buf.WriteByte(tagBin16)
		writeU16BE(buf, uint16(n))
	case uint64(n) <= maxUint32Len:
		buf.WriteByte(tagBin32)
		writeU32BE(buf, uint32(n))
	default:
		return newErr(ErrOutOfRange, "byte string length exceeds 32 bits")
	}
	return nil
}

// writeCountHeader writes an array or map header.  The 32-bit tier always
// carries a 4-byte count.
func writeCountHeader(buf *bytes.Buffer, n int, fixTag, tag16, tag32 byte) error {
	switch {
	case n <= maxFixCount:
		buf.WriteByte(fixTag | byte(n))
	case n <= maxUint16Len:
		buf.WriteByte(tag16)
		writeU16BE(buf, uint16(n))
	case uint64(n) <= maxUint32Len:
		buf.WriteByte(tag32)
		writeU32BE(buf, uint32(n))
	default:
		return newErr(ErrOutOfRange, "element count exceeds 32 bits")
	}
	return nil
}

func writeU16BE(buf *bytes.Buffer, n uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], n)
	buf.Write(b[:])
}

func writeU32BE(buf *bytes.Buffer, n uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], n)
	buf.Write(b[:])
}

func writeU64BE(buf *bytes.Buffer, n uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	buf.Write(b[:])
}
