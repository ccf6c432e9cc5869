package mpack

import (
	"bytes"
	"io"
	"sync"
)

// Buffers larger than this are dropped rather than pooled.
const maxPooledBuffer = 1 << 20

var bufferPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() > maxPooledBuffer {
		return
	}
	bufferPool.Put(buf)
}

// Encoder writes a sequence of values to a stream.  It is not safe for
// concurrent use.
type Encoder struct {
	w         io.Writer
	canonical bool
}

// NewEncoder returns an Encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// SetCanonical makes subsequent Encode calls emit map entries in canonical
// key order (see MarshalCanonical).
func (e *Encoder) SetCanonical(canonical bool) {
	e.canonical = canonical
}

// Encode writes one value.  Nothing is written if encoding fails.
func (e *Encoder) Encode(v Value) error {
	return encodeToWriter(e.w, v, e.canonical)
}

// Decoder reads a sequence of values from a stream.  It is not safe for
// concurrent use.
type Decoder struct {
	d valueReader
}

// NewDecoder returns a Decoder that reads from r.  The Decoder does not
// buffer: each Decode consumes exactly the bytes of one value, so r may be
// handed to other readers between calls.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{d: valueReader{r: r}}
}

// Decode reads the next value.  It returns io.EOF, unwrapped, when the
// stream ends cleanly before a value starts; a stream ending inside a
// value is ERR_TRUNCATED.
func (dec *Decoder) Decode() (Value, error) {
	tag, err := dec.d.readTag()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, dec.d.sourceErr(err, "tag")
	}
	return dec.d.decodeTagged(tag)
}
