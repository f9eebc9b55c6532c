package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/ir"
)

// Type deserializes and validates one field value.
type Type interface {
	// Deserialize returns the coerced value, or an error that is an
	// *InvalidError (message list) or a *ValidationError (nested messages).
	Deserialize(v any) (any, error)
	// Describe summarizes the type and its constraints for humans.
	Describe() string
}

// String accepts non-blank strings, optionally bounded in length (counted
// in code points) or restricted to a set of choices.
type String struct {
	MaxLength int
	Choices   []string
}

func (t String) Deserialize(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, Invalid(MsgString)
	}
	if err := t.validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (t String) validate(s string) error {
	if s == "" {
		return Invalid(MsgBlank)
	}
	if t.MaxLength > 0 && utf8.RuneCountInString(s) > t.MaxLength {
		return Invalid(fmt.Sprintf("Must be at most %d characters long.", t.MaxLength))
	}
	if t.Choices != nil && !slices.Contains(t.Choices, s) {
		return Invalid(choicesMessage(quoteAll(t.Choices)))
	}
	return nil
}

func (t String) Describe() string {
	switch {
	case t.Choices != nil:
		return "string, one of " + strings.Join(quoteAll(t.Choices), ", ")
	case t.MaxLength > 0:
		return fmt.Sprintf("string, at most %d characters", t.MaxLength)
	}
	return "string"
}

// Integer accepts integral numbers. Bounds and choices are optional; build
// them with AtLeast, AtMost and OneOf.
type Integer struct {
	min, max *int
	choices  []int
}

// AtLeast returns a copy of t with a lower bound.
func (t Integer) AtLeast(n int) Integer {
	t.min = &n
	return t
}

// AtMost returns a copy of t with an upper bound.
func (t Integer) AtMost(n int) Integer {
	t.max = &n
	return t
}

// OneOf returns a copy of t restricted to choices.
func (t Integer) OneOf(choices ...int) Integer {
	t.choices = choices
	return t
}

// Deserialize rejects fractional numbers such as 1.5 rather than truncating
// them to 1, unlike a non-strict marshmallow Integer.
func (t Integer) Deserialize(v any) (any, error) {
	n, ok := ToInt(v)
	if !ok {
		return nil, Invalid(MsgInteger)
	}
	if t.min != nil && n < *t.min {
		return nil, Invalid(fmt.Sprintf("Must be greater than or equal to %d.", *t.min))
	}
	if t.max != nil && n > *t.max {
		return nil, Invalid(fmt.Sprintf("Must be less than or equal to %d.", *t.max))
	}
	if t.choices != nil && !slices.Contains(t.choices, n) {
		strs := make([]string, len(t.choices))
		for i, c := range t.choices {
			strs[i] = strconv.Itoa(c)
		}
		return nil, Invalid(choicesMessage(strs))
	}
	return n, nil
}

func (t Integer) Describe() string {
	var parts []string
	if t.choices != nil {
		strs := make([]string, len(t.choices))
		for i, c := range t.choices {
			strs[i] = strconv.Itoa(c)
		}
		parts = append(parts, "one of "+strings.Join(strs, ", "))
	}
	if t.min != nil {
		parts = append(parts, fmt.Sprintf(">= %d", *t.min))
	}
	if t.max != nil {
		parts = append(parts, fmt.Sprintf("<= %d", *t.max))
	}
	if len(parts) == 0 {
		return "integer"
	}
	return "integer, " + strings.Join(parts, ", ")
}

// ToInt converts the numeric representations produced by Go code and the
// JSON, YAML and CUE decoders into an int. Booleans, fractional numbers and
// non-numeric strings are rejected.
func ToInt(v any) (int, bool) {
	switch n := v.(type) {
	case bool:
		return 0, false
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

func floatToInt(f float64) (int, bool) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return 0, false
	}
	return int(f), true
}

// Boolean accepts booleans and the usual textual and numeric spellings.
type Boolean struct{}

var (
	truthy = map[string]bool{"t": true, "true": true, "on": true, "y": true, "yes": true, "1": true}
	falsy  = map[string]bool{"f": true, "false": true, "off": true, "n": true, "no": true, "0": true}
)

func (Boolean) Deserialize(v any) (any, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		s := strings.ToLower(b)
		if truthy[s] {
			return true, nil
		}
		if falsy[s] {
			return false, nil
		}
	default:
		if n, ok := ToInt(v); ok {
			switch n {
			case 1:
				return true, nil
			case 0:
				return false, nil
			}
		}
	}
	return nil, Invalid(MsgBoolean)
}

func (Boolean) Describe() string { return "boolean" }

// Raw accepts any value unchanged.
type Raw struct{}

func (Raw) Deserialize(v any) (any, error) { return v, nil }
func (Raw) Describe() string               { return "any" }

// List accepts a slice and deserializes each element with Of. Element
// errors are keyed by index.
type List struct {
	Of Type
}

func (t List) Deserialize(v any) (any, error) {
	elems, ok := AsSlice(v)
	if !ok {
		return nil, Invalid(MsgList)
	}
	out := make([]any, 0, len(elems))
	msgs := Messages{}
	for i, elem := range elems {
		if elem == nil {
			msgs[strconv.Itoa(i)] = []string{MsgNull}
			continue
		}
		val, err := t.Of.Deserialize(elem)
		if err != nil {
			msgs[strconv.Itoa(i)] = detail(err)
			continue
		}
		out = append(out, val)
	}
	if len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}
	return out, nil
}

func (t List) Describe() string { return "list of " + t.Of.Describe() }

// AsSlice returns the elements of any slice or array value. Strings and
// byte slices are not lists.
func AsSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case nil, string, []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Mapping accepts a string-keyed map and deserializes its values.
type Mapping struct {
	Keys   Type
	Values Type
}

func (t Mapping) Deserialize(v any) (any, error) {
	m, ok := AsMap(v)
	if !ok {
		return nil, Invalid(MsgMapping)
	}
	keys := t.Keys
	if keys == nil {
		keys = String{}
	}
	values := t.Values
	if values == nil {
		values = Raw{}
	}
	out := make(map[string]any, len(m))
	msgs := Messages{}
	for k, val := range m {
		if _, err := keys.Deserialize(k); err != nil {
			msgs[k] = Messages{"key": detail(err)}
			continue
		}
		dv, err := values.Deserialize(val)
		if err != nil {
			msgs[k] = Messages{"value": detail(err)}
			continue
		}
		out[k] = dv
	}
	if len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}
	return out, nil
}

func (Mapping) Describe() string { return "mapping" }

// AsMap returns v as a map[string]any when it is a string-keyed map or an
// *ir.Record.
func AsMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case *ir.Record:
		if m == nil {
			return nil, false
		}
		out := make(map[string]any, m.Len())
		for _, k := range m.Keys() {
			out[k] = m.Value(k)
		}
		return out, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	}
	return nil, false
}

// Nested loads a map through another schema.
type Nested struct {
	Schema *Schema
}

func (t Nested) Deserialize(v any) (any, error) {
	m, ok := AsMap(v)
	if !ok {
		return nil, Invalid(MsgInputType)
	}
	return t.Schema.Load(m)
}

func (t Nested) Describe() string { return t.Schema.Name }

// DateTime accepts ISO 8601 strings and time.Time values and produces a UTC
// timestamp with millisecond precision and a Z suffix, e.g.
// 2019-03-01T22:26:29.229Z. Values without a zone are taken as UTC.
type DateTime struct{}

// DateTimeLayout is the output layout of DateTime.
const DateTimeLayout = "2006-01-02T15:04:05.000Z"

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
}

func (DateTime) Deserialize(v any) (any, error) {
	t, err := ParseDateTime(v)
	if err != nil {
		return nil, err
	}
	return FormatDateTime(t), nil
}

func (DateTime) Describe() string { return "datetime" }

// ParseDateTime parses the representations accepted by DateTime.
func ParseDateTime(v any) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		return val, nil
	case string:
		s := strings.Replace(strings.TrimSpace(val), " ", "T", 1)
		for _, layout := range dateTimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, Invalid(MsgDateTime)
}

// FormatDateTime renders t in DateTimeLayout.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format(DateTimeLayout)
}

func quoteAll(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = quote(s)
	}
	return out
}

// quote renders s the way choice messages show strings: single quotes,
// or double quotes when s itself contains a single quote.
func quote(s string) string {
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

func choicesMessage(items []string) string {
	return "Must be one of: " + strings.Join(items, ", ") + "."
}
