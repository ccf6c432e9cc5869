package mpack

import (
	"strconv"
	"strings"
)

// Lookup resolves an RFC 6901 pointer against root.  Map steps match
// String keys; Array steps take a decimal index without leading zeros.
// The empty pointer selects root.  A malformed pointer is ERR_POINTER; a
// well-formed pointer that leads nowhere returns ok == false.
func Lookup(root Value, pointer string) (v Value, ok bool, err error) {
	tokens, err := parsePointer(pointer)
	if err != nil {
		return nil, false, err
	}
	v, ok = walk(root, tokens)
	return v, ok, nil
}

func walk(cur Value, tokens []string) (Value, bool) {
	for _, tok := range tokens {
		switch c := cur.(type) {
		case *Map:
			next, found := c.Get(String(tok))
			if !found {
				return nil, false
			}
			cur = next
		case Array:
			idx, ok := arrayIndex(tok)
			if !ok || idx >= len(c) {
				return nil, false
			}
			cur = c[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

func arrayIndex(tok string) (int, bool) {
	if tok == "" || (len(tok) > 1 && tok[0] == '0') {
		return 0, false
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Project builds a Map holding only the fields selected by pointers.
//
// Rules:
//
//	(a) every pointer must parse, and no pointer may repeat
//	(b) if no pointer matches, the result is an empty Map
//	(c) if some match and some don't, the projection fails
//	(d) a pointer subsumed by a shorter matched pointer is ignored
//	(e) the empty pointer selects the whole root
//	(f) only Map levels may be traversed; siblings are omitted and the
//	    minimal enclosing structure is rebuilt
func Project(root Value, pointers []string) (Value, error) {
	rootMap, ok := root.(*Map)
	if !ok {
		return nil, newErr(ErrPointer, "projection root must be a map")
	}

	seen := make(map[string]bool, len(pointers))
	for _, p := range pointers {
		if seen[p] {
			return nil, newErr(ErrPointer, "duplicate pointers")
		}
		seen[p] = true
	}

	parsed := make([][]string, len(pointers))
	for i, ptr := range pointers {
		tokens, err := parsePointer(ptr)
		if err != nil {
			return nil, err
		}
		parsed[i] = tokens
	}

	var matched [][]string
	anyMatch, anyUnmatched, wholeRoot := false, false, false
	for i, tokens := range parsed {
		if pointers[i] == "" {
			anyMatch, wholeRoot = true, true
			continue
		}
		cur := Value(rootMap)
		found := true
		for _, tok := range tokens {
			if _, isArray := cur.(Array); isArray {
				return nil, newErr(ErrPointer, "projection cannot traverse an array")
			}
			m, isMap := cur.(*Map)
			if !isMap {
				found = false
				break
			}
			next, ok := m.Get(String(tok))
			if !ok {
				found = false
				break
			}
			cur = next
		}
		if found {
			anyMatch = true
			matched = append(matched, tokens)
		} else {
			anyUnmatched = true
		}
	}

	if !anyMatch {
		return &Map{}, nil
	}
	if anyUnmatched {
		return nil, newErr(ErrPointer, "unmatched pointer in set")
	}
	if wholeRoot {
		return rootMap, nil
	}

	projected := &Map{}
	for _, tokens := range matched {
		if subsumed(tokens, matched) {
			continue
		}
		leaf, _ := walk(rootMap, tokens)
		target := projected
		for i, tok := range tokens {
			key := String(tok)
			if i == len(tokens)-1 {
				target.Set(key, leaf)
				break
			}
			existing, ok := target.Get(key)
			if !ok {
				child := &Map{}
				target.Set(key, child)
				target = child
				continue
			}
			child, isMap := existing.(*Map)
			if !isMap {
				return nil, newErr(ErrPointer, "projection path conflict")
			}
			target = child
		}
	}
	return projected, nil
}

func subsumed(tokens []string, all [][]string) bool {
	for _, other := range all {
		if tokensPrefix(other, tokens) {
			return true
		}
	}
	return false
}

// parsePointer splits an RFC 6901 pointer into unescaped reference tokens.
// "" yields no tokens.
func parsePointer(ptr string) ([]string, error) {
	if ptr == "" {
		return nil, nil
	}
	if !strings.HasPrefix(ptr, "/") {
		return nil, newErr(ErrPointer, "pointer must start with '/'")
	}
	parts := strings.Split(ptr[1:], "/")
	tokens := make([]string, len(parts))
	for i, raw := range parts {
		// ~01 must decode to "~1", so walk byte by byte.
		var b strings.Builder
		for j := 0; j < len(raw); {
			if raw[j] != '~' {
				b.WriteByte(raw[j])
				j++
				continue
			}
			if j+1 >= len(raw) {
				return nil, newErr(ErrPointer, "dangling ~ in pointer")
			}
			switch raw[j+1] {
			case '0':
				b.WriteByte('~')
			case '1':
				b.WriteByte('/')
			default:
				return nil, newErr(ErrPointer, "bad tilde escape in pointer")
			}
			j += 2
		}
		tokens[i] = b.String()
	}
	return tokens, nil
}

// tokensPrefix reports whether a is a strict prefix of b.
func tokensPrefix(a, b []string) bool {
	if len(a) >= len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
