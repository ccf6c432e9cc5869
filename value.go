// Package mpack implements a compact binary codec for a small tagged value
// model, using the MessagePack wire layout for nil, booleans, integers,
// floats, strings, byte strings, arrays and maps.
//
// Encoding always picks the narrowest tag family that holds a value
// exactly.  Decoding accepts every non-extension tag of the format,
// widening float32 to float64 and unsigned integers into Integer without
// loss.  Extension tags (0xC1, 0xC7–0xC9, 0xD4–0xD8) are rejected.
//
// The codec keeps no state between calls.  Encode writes to an io.Writer
// and Decode reads exactly one value from an io.Reader; Marshal and
// Unmarshal are the byte-slice equivalents.
package mpack

// Kind identifies the variant of a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInteger
	KindFloat
	KindString
	KindBytes
	KindArray
	KindMap
)

var kindNames = [...]string{
	KindNil:     "nil",
	KindBool:    "bool",
	KindInteger: "integer",
	KindFloat:   "float",
	KindString:  "string",
	KindBytes:   "bytes",
	KindArray:   "array",
	KindMap:     "map",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is a model value.  Concrete types:
//
//   - Nil
//   - Bool
//   - Integer
//   - Float   (float64; float32 on the wire is widened)
//   - String  (must be valid UTF-8)
//   - Bytes
//   - Array
//   - *Map
//
// A nil Value interface is treated as Nil.
type Value interface {
	Kind() Kind
	mpackValue() // sealed marker
}

// Nil is the unit value.
type Nil struct{}

// Bool is a boolean value.
type Bool bool

// Float is a 64-bit IEEE-754 value.
type Float float64

// String is UTF-8 text.
type String string

// Bytes is an opaque byte sequence.
type Bytes []byte

// Array is an ordered sequence of Values.
type Array []Value

func (Nil) Kind() Kind     { return KindNil }
func (Bool) Kind() Kind    { return KindBool }
func (Integer) Kind() Kind { return KindInteger }
func (Float) Kind() Kind   { return KindFloat }
func (String) Kind() Kind  { return KindString }
func (Bytes) Kind() Kind   { return KindBytes }
func (Array) Kind() Kind   { return KindArray }
func (*Map) Kind() Kind    { return KindMap }

func (Nil) mpackValue()     {}
func (Bool) mpackValue()    {}
func (Integer) mpackValue() {}
func (Float) mpackValue()   {}
func (String) mpackValue()  {}
func (Bytes) mpackValue()   {}
func (Array) mpackValue()   {}
func (*Map) mpackValue()    {}

// KindOf returns the kind of v, treating a nil interface as KindNil.
func KindOf(v Value) Kind {
	if v == nil {
		return KindNil
	}
	return v.Kind()
}

// MapEntry is one key/value pair of a Map.
type MapEntry struct {
	Key   Value
	Value Value
}

// Map is a collection of Value→Value pairs with unique keys.  Keys are
// compared with Equal, so composite values (including other maps) are
// valid keys.  Iteration follows insertion order; replacing the value of
// an existing key keeps its position.
//
// The zero Map is empty and ready to use.
type Map struct {
	entries []MapEntry
	index   map[uint64][]int // Hash(key) → positions in entries
}

// NewMap builds a Map from entries.  When a key repeats, the later entry's
// value replaces the earlier one.
func NewMap(entries ...MapEntry) *Map {
	m := &Map{}
	if len(entries) > 0 {
		m.entries = make([]MapEntry, 0, len(entries))
		m.index = make(map[uint64][]int, len(entries))
	}
	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}
	return m
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

func (m *Map) find(key Value, h uint64) int {
	for _, i := range m.index[h] {
		if Equal(m.entries[i].Key, key) {
			return i
		}
	}
	return -1
}

// Set inserts key or replaces its value.
func (m *Map) Set(key, value Value) {
	h := Hash(key)
	if i := m.find(key, h); i >= 0 {
		m.entries[i].Value = value
		return
	}
	if m.index == nil {
		m.index = make(map[uint64][]int)
	}
	m.index[h] = append(m.index[h], len(m.entries))
	m.entries = append(m.entries, MapEntry{Key: key, Value: value})
}

// Get returns the value stored under key.
func (m *Map) Get(key Value) (Value, bool) {
	if m.Len() == 0 {
		return nil, false
	}
	if i := m.find(key, Hash(key)); i >= 0 {
		return m.entries[i].Value, true
	}
	return nil, false
}

// Has reports whether key is present.
func (m *Map) Has(key Value) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes key and reports whether it was present.
func (m *Map) Delete(key Value) bool {
	if m.Len() == 0 {
		return false
	}
	i := m.find(key, Hash(key))
	if i < 0 {
		return false
	}
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	m.reindex()
	return true
}

func (m *Map) reindex() {
	m.index = make(map[uint64][]int, len(m.entries))
	for i, e := range m.entries {
		h := Hash(e.Key)
		m.index[h] = append(m.index[h], i)
	}
}

// Entries returns a copy of the entries in iteration order.
func (m *Map) Entries() []MapEntry {
	if m.Len() == 0 {
		return nil
	}
	out := make([]MapEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Range calls fn for each entry in iteration order until fn returns false.
func (m *Map) Range(fn func(key, value Value) bool) {
	if m == nil {
		return
	}
	for _, e := range m.entries {
		if !fn(e.Key, e.Value) {
			return
		}
	}
}
