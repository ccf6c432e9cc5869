package mpack

import (
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map
// keys and the smallest integer and float encodings.
var cborEncMode cbor.EncMode

var cborDecMode cbor.DecMode

func init() {
	var err error
	cborEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("mpack: CBOR encoder initialization failed: " + err.Error())
	}
	// The default map type for any-typed targets is map[any]any, which
	// keeps non-string keys.
	cborDecMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("mpack: CBOR decoder initialization failed: " + err.Error())
	}
}

// FromCBOR converts one CBOR data item into a Value.  Tagged items and
// simple values other than true/false/null/undefined have no counterpart
// and fail with ERR_TYPE; undefined maps to Nil.
func FromCBOR(data []byte) (Value, error) {
	var native any
	if err := cborDecMode.Unmarshal(data, &native); err != nil {
		return nil, wrapErr(ErrType, "CBOR decode", err)
	}
	return fromNative(native)
}

// ToCBOR renders v as deterministic CBOR.  Array and Map values cannot be
// used as keys there and fail with ERR_TYPE.
func ToCBOR(v Value) ([]byte, error) {
	native, err := toCBORNative(v)
	if err != nil {
		return nil, err
	}
	out, err := cborEncMode.Marshal(native)
	if err != nil {
		return nil, wrapErr(ErrType, "CBOR encode", err)
	}
	return out, nil
}

func fromNative(x any) (Value, error) {
	switch n := x.(type) {
	case nil:
		return Nil{}, nil
	case bool:
		return Bool(n), nil
	case int:
		return Int(int64(n)), nil
	case int64:
		return Int(n), nil
	case uint64:
		return Uint(n), nil
	case big.Int:
		return IntegerFromBig(&n)
	case *big.Int:
		return IntegerFromBig(n)
	case float32:
		return Float(float64(n)), nil
	case float64:
		return Float(n), nil
	case string:
		return String(n), nil
	case []byte:
		return Bytes(n), nil
	case cbor.ByteString:
		return Bytes(n), nil
	case []any:
		arr := make(Array, len(n))
		for i, item := range n {
			v, err := fromNative(item)
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return arr, nil
	case map[any]any:
		m := &Map{}
		for k, item := range n {
			key, err := fromNative(k)
			if err != nil {
				return nil, err
			}
			val, err := fromNative(item)
			if err != nil {
				return nil, err
			}
			m.Set(key, val)
		}
		return m, nil
	case map[string]any:
		m := &Map{}
		for k, item := range n {
			val, err := fromNative(item)
			if err != nil {
				return nil, err
			}
			m.Set(String(k), val)
		}
		return m, nil
	}
	return nil, newErr(ErrType, "no value counterpart for CBOR item")
}

func integerToNative(i Integer) any {
	if v, ok := i.Int64(); ok {
		return v
	}
	if v, ok := i.Uint64(); ok {
		return v
	}
	return i.Big()
}

func toCBORNative(v Value) (any, error) {
	switch val := v.(type) {
	case nil, Nil:
		return nil, nil
	case Bool:
		return bool(val), nil
	case Integer:
		return integerToNative(val), nil
	case Float:
		return float64(val), nil
	case String:
		return string(val), nil
	case Bytes:
		return []byte(val), nil
	case Array:
		out := make([]any, len(val))
		for i, item := range val {
			n, err := toCBORNative(item)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case *Map:
		out := make(map[any]any, val.Len())
		for _, e := range val.Entries() {
			key, err := toCBORKey(e.Key)
			if err != nil {
				return nil, err
			}
			item, err := toCBORNative(e.Value)
			if err != nil {
				return nil, err
			}
			out[key] = item
		}
		return out, nil
	}
	return nil, newErr(ErrType, "unsupported value type")
}

// toCBORKey maps a key onto a hashable Go value.
func toCBORKey(k Value) (any, error) {
	switch key := k.(type) {
	case Bytes:
		return cbor.ByteString(key), nil
	case Integer:
		if b, ok := integerToNative(key).(*big.Int); ok {
			// *big.Int keys would compare by pointer.
			return nil, newErr(ErrType, "CBOR map key out of 64-bit range: "+b.String())
		}
		return integerToNative(key), nil
	case Array, *Map:
		return nil, newErr(ErrType, "CBOR map key cannot be "+KindOf(k).String())
	}
	return toCBORNative(k)
}
