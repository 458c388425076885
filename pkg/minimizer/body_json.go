package minimizer

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// jsonKind identifies the shape of a parsed JSON value node.
type jsonKind int

const (
	jsonScalar jsonKind = iota
	jsonObject
	jsonArray
)

// jsonValue is one node of a parsed JSON document. Object and array
// children are held as pointers so that a candidate can be detached and
// reattached without disturbing sibling identity or forcing any index
// renumbering elsewhere in the tree.
type jsonValue struct {
	kind   jsonKind
	scalar json.RawMessage
	fields []*jsonField // valid when kind == jsonObject
	elems  []*jsonElem  // valid when kind == jsonArray
}

type jsonField struct {
	key     string
	value   *jsonValue
	removed bool
}

type jsonElem struct {
	value   *jsonValue
	removed bool
}

// isEmpty reports whether this value counts as "already absent" under
// treat_empty_as_absent: an empty string, empty array, or empty object.
func (v *jsonValue) isEmpty() bool {
	switch v.kind {
	case jsonObject:
		return len(liveFields(v.fields)) == 0
	case jsonArray:
		return len(liveElems(v.elems)) == 0
	default:
		var s string
		if err := json.Unmarshal(v.scalar, &s); err == nil {
			return s == ""
		}
		return false
	}
}

func liveFields(fields []*jsonField) []*jsonField {
	out := make([]*jsonField, 0, len(fields))
	for _, f := range fields {
		if !f.removed {
			out = append(out, f)
		}
	}
	return out
}

func liveElems(elems []*jsonElem) []*jsonElem {
	out := make([]*jsonElem, 0, len(elems))
	for _, e := range elems {
		if !e.removed {
			out = append(out, e)
		}
	}
	return out
}

// parseJSON decodes text into an order-preserving jsonValue tree. Decoding
// walks raw tokens rather than unmarshaling into a map, since a Go map
// would discard the field order the final re-serialization must preserve.
func parseJSON(text string) (*jsonValue, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	return decodeJSONValue(dec)
}

func decodeJSONValue(dec *json.Decoder) (*jsonValue, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeJSONToken(dec, tok)
}

func decodeJSONToken(dec *json.Decoder, tok json.Token) (*jsonValue, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := &jsonValue{kind: jsonObject}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("minimizer: expected object key, got %v", keyTok)
				}
				child, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				obj.fields = append(obj.fields, &jsonField{key: key, value: child})
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return obj, nil
		case '[':
			arr := &jsonValue{kind: jsonArray}
			for dec.More() {
				child, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				arr.elems = append(arr.elems, &jsonElem{value: child})
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("minimizer: unexpected delimiter %v", t)
		}
	default:
		raw, err := json.Marshal(tok)
		if err != nil {
			return nil, err
		}
		return &jsonValue{kind: jsonScalar, scalar: raw}, nil
	}
}

// serializeJSON re-encodes the tree, skipping any field/element currently
// marked removed, preserving the order of everything that remains.
func serializeJSON(v *jsonValue) string {
	var buf bytes.Buffer
	writeJSONValue(&buf, v)
	return buf.String()
}

func writeJSONValue(buf *bytes.Buffer, v *jsonValue) {
	switch v.kind {
	case jsonObject:
		buf.WriteByte('{')
		first := true
		for _, f := range v.fields {
			if f.removed {
				continue
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			keyBytes, _ := json.Marshal(f.key)
			buf.Write(keyBytes)
			buf.WriteByte(':')
			writeJSONValue(buf, f.value)
		}
		buf.WriteByte('}')
	case jsonArray:
		buf.WriteByte('[')
		first := true
		for _, e := range v.elems {
			if e.removed {
				continue
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			writeJSONValue(buf, e.value)
		}
		buf.WriteByte(']')
	default:
		buf.Write(v.scalar)
	}
}

// jsonCandidate is one removable field or array element, together with the
// top-level key its path starts at (used for protected_keys/only_keys
// filtering).
type jsonCandidate struct {
	topLevelKey string
	node        candidateNode
}

// candidateNode is the shared shape of a jsonField and a jsonElem: it can
// be toggled removed for a trial probe and queried for emptiness.
type candidateNode interface {
	setRemoved(bool)
	isRemoved() bool
	value() *jsonValue
}

func (f *jsonField) setRemoved(r bool)  { f.removed = r }
func (f *jsonField) isRemoved() bool    { return f.removed }
func (f *jsonField) value() *jsonValue  { return f.value }

func (e *jsonElem) setRemoved(r bool) { e.removed = r }
func (e *jsonElem) isRemoved() bool   { return e.removed }
func (e *jsonElem) value() *jsonValue { return e.value }

// enumerateJSONCandidates walks the tree pre-order (parent before
// children), the same order the greedy reducer probes headers in.
// Every field of every object and every element of every array at any
// depth is a candidate, per spec §4.4.4: "every leaf-path ... is a
// candidate" is read here as every node reachable from the root, not only
// terminal scalars, so that whole sub-objects/arrays can be dropped in one
// probe when nothing beneath them matters.
func enumerateJSONCandidates(root *jsonValue) []jsonCandidate {
	var out []jsonCandidate
	var walk func(v *jsonValue, topLevel string, isRoot bool)
	walk = func(v *jsonValue, topLevel string, isRoot bool) {
		switch v.kind {
		case jsonObject:
			for _, f := range v.fields {
				key := topLevel
				if isRoot {
					key = f.key
				}
				out = append(out, jsonCandidate{topLevelKey: key, node: f})
				walk(f.value, key, false)
			}
		case jsonArray:
			for i, e := range v.elems {
				key := topLevel
				if isRoot {
					key = fmt.Sprintf("%d", i)
				}
				out = append(out, jsonCandidate{topLevelKey: key, node: e})
				walk(e.value, key, false)
			}
		}
	}
	walk(root, "", true)
	return out
}
