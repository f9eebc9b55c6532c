package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"
)

// Record is an insertion-ordered string-keyed map.
//
// Validated CTIM entities are Records so that serialization keeps the
// bookkeeping keys (type, schema_version, source, ...) in front of user
// fields. Values are plain Go values: string, int, bool, float64, nil,
// []any, map[string]any, or *Record.
//
// The zero value is ready to use.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord returns an empty Record.
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// RecordOf builds a Record from alternating key/value arguments.
// Panics on an odd argument count or a non-string key; use only for literals.
func RecordOf(kv ...any) *Record {
	if len(kv)%2 != 0 {
		panic("ir.RecordOf: odd number of arguments")
	}
	r := NewRecord()
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("ir.RecordOf: key %d is %T, not string", i/2, kv[i]))
		}
		r.Set(k, kv[i+1])
	}
	return r
}

// Set stores v under k. New keys are appended; existing keys keep their position.
func (r *Record) Set(k string, v any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[k]; !ok {
		r.keys = append(r.keys, k)
	}
	r.values[k] = v
}

// SetDefault stores v under k only when k is absent.
func (r *Record) SetDefault(k string, v any) {
	if !r.Has(k) {
		r.Set(k, v)
	}
}

// Get returns the value stored under k.
func (r *Record) Get(k string) (any, bool) {
	if r == nil || r.values == nil {
		return nil, false
	}
	v, ok := r.values[k]
	return v, ok
}

// Value returns the value stored under k, or nil.
func (r *Record) Value(k string) any {
	v, _ := r.Get(k)
	return v
}

// String returns the value under k when it is a string, otherwise "".
func (r *Record) String(k string) string {
	s, _ := r.Value(k).(string)
	return s
}

// Has reports whether k is present.
func (r *Record) Has(k string) bool {
	_, ok := r.Get(k)
	return ok
}

// Delete removes k and returns the removed value.
func (r *Record) Delete(k string) (any, bool) {
	v, ok := r.Get(k)
	if !ok {
		return nil, false
	}
	delete(r.values, k)
	r.keys = slices.DeleteFunc(r.keys, func(s string) bool { return s == k })
	return v, true
}

// Append adds v to the []any list under k, creating the list if absent.
func (r *Record) Append(k string, v any) {
	list, _ := r.Value(k).([]any)
	r.Set(k, append(list, v))
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.keys)
}

// Len returns the number of keys.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// MoveToFront reorders the Record so that the given keys, when present,
// lead in the given order. Remaining keys keep their relative order.
func (r *Record) MoveToFront(first ...string) {
	ordered := make([]string, 0, len(r.keys))
	seen := make(map[string]bool, len(first))
	for _, k := range first {
		if r.Has(k) && !seen[k] {
			ordered = append(ordered, k)
			seen[k] = true
		}
	}
	for _, k := range r.keys {
		if !seen[k] {
			ordered = append(ordered, k)
		}
	}
	r.keys = ordered
}

// Clone returns a deep copy. Nested Records, slices and maps are copied.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := &Record{keys: slices.Clone(r.keys), values: make(map[string]any, len(r.values))}
	for k, v := range r.values {
		out.values[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case *Record:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = cloneValue(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = cloneValue(elem)
		}
		return out
	default:
		return v
	}
}

// Map converts the Record, recursively, into plain map[string]any values.
func (r *Record) Map() map[string]any {
	if r == nil {
		return nil
	}
	out := make(map[string]any, len(r.keys))
	for _, k := range r.keys {
		out[k] = plainValue(r.values[k])
	}
	return out
}

func plainValue(v any) any {
	switch val := v.(type) {
	case *Record:
		return val.Map()
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = plainValue(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = plainValue(elem)
		}
		return out
	default:
		return v
	}
}

// MarshalJSON encodes the Record as a JSON object in insertion order.
// HTML characters are not escaped.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := encodeNoEscape(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := encodeNoEscape(r.values[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON decodes a JSON object, keeping key order. Nested objects
// become *Record; numbers become int when integral, float64 otherwise.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeOrdered(dec)
	if err != nil {
		return err
	}
	rec, ok := v.(*Record)
	if !ok {
		return fmt.Errorf("ir: expected JSON object, got %T", v)
	}
	*r = *rec
	return nil
}

func decodeOrdered(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			rec := NewRecord()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("ir: object key is %T", keyTok)
				}
				val, err := decodeOrdered(dec)
				if err != nil {
					return nil, fmt.Errorf("key %q: %w", key, err)
				}
				rec.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return rec, nil
		case '[':
			list := []any{}
			for dec.More() {
				val, err := decodeOrdered(dec)
				if err != nil {
					return nil, fmt.Errorf("[%d]: %w", len(list), err)
				}
				list = append(list, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		}
		return nil, fmt.Errorf("ir: unexpected delimiter %q", t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), nil
		}
		return t.Float64()
	default:
		// string, bool, nil
		return t, nil
	}
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
func (r *Record) SortedKeys() []string {
	keys := r.Keys()
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings by UTF-16 code units.
// Go's native string comparison uses UTF-8 bytes, which orders
// supplementary-plane characters differently.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	for i := 0; i < min(len(a16), len(b16)); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}
