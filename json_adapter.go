package mpack

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// FromJSON converts one JSON document into a Value.
//
//   - null → Nil, true/false → Bool
//   - numbers without '.', 'e' or 'E' → Integer (ERR_OUT_OF_RANGE beyond 64-bit magnitude)
//   - other numbers → Float
//   - strings → String, arrays → Array, objects → *Map with String keys
//
// A repeated object key keeps its last value, matching the decoder.
func FromJSON(raw []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	val, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}

	// Exactly one root value.
	if _, err := dec.Token(); err != io.EOF {
		return nil, newErr(ErrType, "trailing JSON content")
	}
	return val, nil
}

func jsonSyntaxErr(err error) error {
	if err == io.EOF {
		return newErr(ErrType, "unexpected end of JSON")
	}
	return wrapErr(ErrType, "JSON parse error", err)
}

func decodeJSONValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, jsonSyntaxErr(err)
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return decodeJSONObject(dec)
		case '[':
			return decodeJSONArray(dec)
		}
		return nil, newErr(ErrType, "unexpected delimiter "+v.String())
	case string:
		return String(v), nil
	case bool:
		return Bool(v), nil
	case json.Number:
		return convertJSONNumber(v)
	case nil:
		return Nil{}, nil
	}
	return nil, newErr(ErrType, "unexpected JSON token")
}

// decodeJSONObject decodes an object whose '{' was already consumed.
func decodeJSONObject(dec *json.Decoder) (Value, error) {
	m := &Map{}
	for dec.More() {
		kTok, err := dec.Token()
		if err != nil {
			return nil, jsonSyntaxErr(err)
		}
		key, ok := kTok.(string)
		if !ok {
			return nil, newErr(ErrType, "JSON key is not a string")
		}
		val, err := decodeJSONValue(dec)
		if err != nil {
			return nil, err
		}
		m.Set(String(key), val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, jsonSyntaxErr(err)
	}
	return m, nil
}

// decodeJSONArray decodes an array whose '[' was already consumed.
func decodeJSONArray(dec *json.Decoder) (Value, error) {
	arr := Array{}
	for dec.More() {
		val, err := decodeJSONValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, jsonSyntaxErr(err)
	}
	return arr, nil
}

// convertJSONNumber inspects the literal token, so "1.0" stays a Float
// even though its value is integral.
func convertJSONNumber(n json.Number) (Value, error) {
	s := n.String()
	if strings.ContainsAny(s, ".eE") {
		f, err := n.Float64()
		if err != nil {
			return nil, wrapErr(ErrOutOfRange, "float out of range: "+s, err)
		}
		return Float(f), nil
	}
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, newErr(ErrType, "malformed JSON number: "+s)
	}
	return IntegerFromBig(b)
}

// ToJSON renders v as JSON.  Bytes become base64 strings; map keys must be
// Strings and NaN or infinite Floats are rejected, both with ERR_TYPE.
// Object members keep the map's iteration order.
func ToJSON(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case nil, Nil:
		buf.WriteString("null")
	case Bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Integer:
		buf.WriteString(val.String())
	case Float:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return newErr(ErrType, "JSON cannot represent "+strconv.FormatFloat(f, 'g', -1, 64))
		}
		out, err := json.Marshal(f)
		if err != nil {
			return wrapErr(ErrType, "float", err)
		}
		buf.Write(out)
	case String:
		return writeJSONString(buf, string(val))
	case Bytes:
		return writeJSONString(buf, base64.StdEncoding.EncodeToString(val))
	case Array:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *Map:
		buf.WriteByte('{')
		for i, e := range val.Entries() {
			key, ok := e.Key.(String)
			if !ok {
				return newErr(ErrType, "JSON object key must be a string, got "+KindOf(e.Key).String())
			}
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONString(buf, string(key)); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeJSON(buf, e.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return newErr(ErrType, "unsupported value type")
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	out, err := json.Marshal(s)
	if err != nil {
		return wrapErr(ErrType, "string", err)
	}
	buf.Write(out)
	return nil
}
