package mpack

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Unmarshal decodes exactly one value from data.  Bytes left over after
// the value are reported as ERR_TRAILING_BYTES.
func Unmarshal(data []byte) (Value, error) {
	v, rest, err := UnmarshalFirst(data)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, newErr(ErrTrailingBytes, "trailing bytes after value")
	}
	return v, nil
}

// UnmarshalFirst decodes the first value in data and returns it with the
// unconsumed remainder.  Use it to walk a concatenated sequence of values.
func UnmarshalFirst(data []byte) (Value, []byte, error) {
	r := bytes.NewReader(data)
	v, err := Decode(r)
	if err != nil {
		return nil, data, err
	}
	return v, data[len(data)-r.Len():], nil
}

// Decode reads one complete value from r.  It reads exactly the bytes the
// value occupies, so r is left positioned just after it.  An empty source
// is ERR_TRUNCATED.
func Decode(r io.Reader) (Value, error) {
	d := &valueReader{r: r}
	return d.decodeValue()
}

// valueReader pulls tag bytes and payloads off a source.  It never reads
// ahead of the value being decoded.
type valueReader struct {
	r       io.Reader
	scratch [8]byte
}

// readTag reads one byte.  A clean end of stream comes back as bare
// io.EOF so stream callers can stop at a value boundary.
func (d *valueReader) readTag() (byte, error) {
	if br, ok := d.r.(io.ByteReader); ok {
		return br.ReadByte()
	}
	if _, err := io.ReadFull(d.r, d.scratch[:1]); err != nil {
		return 0, err
	}
	return d.scratch[0], nil
}

func (d *valueReader) sourceErr(err error, what string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return newErr(ErrTruncated, "truncated "+what)
	}
	return wrapErr(ErrSource, "reading "+what, err)
}

// readFixed fills scratch[:n] for a fixed-width field (n ≤ 8).
func (d *valueReader) readFixed(n int, what string) ([]byte, error) {
	if _, err := io.ReadFull(d.r, d.scratch[:n]); err != nil {
		return nil, d.sourceErr(err, what)
	}
	return d.scratch[:n], nil
}

func (d *valueReader) readU8(what string) (uint64, error) {
	b, err := d.readFixed(1, what)
	if err != nil {
		return 0, err
	}
	return uint64(b[0]), nil
}

func (d *valueReader) readU16(what string) (uint64, error) {
	b, err := d.readFixed(2, what)
	if err != nil {
		return 0, err
	}
	return uint64(binary.BigEndian.Uint16(b)), nil
}

func (d *valueReader) readU32(what string) (uint64, error) {
	b, err := d.readFixed(4, what)
	if err != nil {
		return 0, err
	}
	return uint64(binary.BigEndian.Uint32(b)), nil
}

func (d *valueReader) readU64(what string) (uint64, error) {
	b, err := d.readFixed(8, what)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// readPayload reads an n-byte payload.  Sources that know their remaining
// length fail fast; large payloads are read incrementally so a forged
// length cannot force a large allocation before truncation is detected.
func (d *valueReader) readPayload(n uint64, what string) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	if lr, ok := d.r.(interface{ Len() int }); ok && uint64(lr.Len()) < n {
		return nil, newErr(ErrTruncated, "truncated "+what)
	}
	if n < chunkedReadMin {
		p := make([]byte, n)
		if _, err := io.ReadFull(d.r, p); err != nil {
			return nil, d.sourceErr(err, what)
		}
		return p, nil
	}
	var buf bytes.Buffer
	copied, err := io.CopyN(&buf, d.r, int64(n))
	if err != nil || uint64(copied) != n {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, d.sourceErr(err, what)
	}
	return buf.Bytes(), nil
}

func (d *valueReader) decodeValue() (Value, error) {
	tag, err := d.readTag()
	if err != nil {
		return nil, d.sourceErr(err, "tag")
	}
	return d.decodeTagged(tag)
}

// decodeTagged decodes the value introduced by tag.  On error the returned
// Value is always nil; no partially built composite escapes.
func (d *valueReader) decodeTagged(tag byte) (Value, error) {
	switch {
	case tag <= tagPosFixIntMax:
		return Uint(uint64(tag)), nil
	case tag >= tagNegFixIntMin:
		return Int(int64(int8(tag))), nil
	case tag <= tagFixMapMax:
		return d.decodeMap(uint64(tag & fixCountMask))
	case tag <= tagFixArrayMax:
		return d.decodeArray(uint64(tag & fixCountMask))
	case tag <= tagFixStrMax:
		return d.decodeString(uint64(tag & fixStrLenMask))
	case isReservedTag(tag):
		return nil, newErr(ErrUnsupportedTag, "unsupported tag 0x"+hexByte(tag))
	}

	switch tag {
	case tagNil:
		return Nil{}, nil
	case tagFalse:
		return Bool(false), nil
	case tagTrue:
		return Bool(true), nil

	case tagBin8, tagBin16, tagBin32:
		n, err := d.readLength(tag-tagBin8, "byte string length")
		if err != nil {
			return nil, err
		}
		p, err := d.readPayload(n, "byte string payload")
		if err != nil {
			return nil, err
		}
		return Bytes(p), nil

	case tagFloat32:
		bits, err := d.readU32("float32 payload")
		if err != nil {
			return nil, err
		}
		return Float(math.Float32frombits(uint32(bits))), nil
	case tagFloat64:
		bits, err := d.readU64("float64 payload")
		if err != nil {
			return nil, err
		}
		return Float(math.Float64frombits(bits)), nil

	case tagUint8:
		n, err := d.readU8("uint8 payload")
		if err != nil {
			return nil, err
		}
		return Uint(n), nil
	case tagUint16:
		n, err := d.readU16("uint16 payload")
		if err != nil {
			return nil, err
		}
		return Uint(n), nil
	case tagUint32:
		n, err := d.readU32("uint32 payload")
		if err != nil {
			return nil, err
		}
		return Uint(n), nil
	case tagUint64:
		n, err := d.readU64("uint64 payload")
		if err != nil {
			return nil, err
		}
		return Uint(n), nil

	case tagInt8:
		n, err := d.readU8("int8 payload")
		if err != nil {
			return nil, err
		}
		return Int(int64(int8(n))), nil
	case tagInt16:
		n, err := d.readU16("int16 payload")
		if err != nil {
			return nil, err
		}
		return Int(int64(int16(n))), nil
	case tagInt32:
		n, err := d.readU32("int32 payload")
		if err != nil {
			return nil, err
		}
		return Int(int64(int32(n))), nil
	case tagInt64:
		n, err := d.readU64("int64 payload")
		if err != nil {
			return nil, err
		}
		return Int(int64(n)), nil

	case tagStr8, tagStr16, tagStr32:
		n, err := d.readLength(tag-tagStr8, "string length")
		if err != nil {
			return nil, err
		}
		return d.decodeString(n)

	case tagArray16, tagArray32:
		n, err := d.readLength(tag-tagArray16+1, "array count")
		if err != nil {
			return nil, err
		}
		return d.decodeArray(n)

	case tagMap16, tagMap32:
		n, err := d.readLength(tag-tagMap16+1, "map count")
		if err != nil {
			return nil, err
		}
		return d.decodeMap(n)
	}

	return nil, newErr(ErrUnsupportedTag, "unsupported tag 0x"+hexByte(tag))
}

// readLength reads a big-endian length field; width 0, 1, 2 selects 8, 16
// or 32 bits.
func (d *valueReader) readLength(width byte, what string) (uint64, error) {
	switch width {
	case 0:
		return d.readU8(what)
	case 1:
		return d.readU16(what)
	default:
		return d.readU32(what)
	}
}

func (d *valueReader) decodeString(n uint64) (Value, error) {
	p, err := d.readPayload(n, "string payload")
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(p) {
		return nil, newErr(ErrInvalidUTF8, "string payload is not valid UTF-8")
	}
	return String(p), nil
}

func (d *valueReader) decodeArray(count uint64) (Value, error) {
	arr := make(Array, 0, min(count, maxPrealloc))
	for i := uint64(0); i < count; i++ {
		item, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		arr = append(arr, item)
	}
	return arr, nil
}

// decodeMap inserts entries in stream order; a repeated key keeps the
// value of its last occurrence.
func (d *valueReader) decodeMap(count uint64) (Value, error) {
	m := &Map{
		entries: make([]MapEntry, 0, min(count, maxPrealloc)),
		index:   make(map[uint64][]int, min(count, maxPrealloc)),
	}
	for i := uint64(0); i < count; i++ {
		k, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		v, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		m.Set(k, v)
	}
	return m, nil
}

func hexByte(b byte) string {
	const digits = "0123456789ABCDEF"
	return string([]byte{digits[b>>4], digits[b&0x0F]})
}
