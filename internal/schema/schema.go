// Package schema validates loosely typed field maps against declared
// rulesets and produces ordered records.
//
// Loading collects every violation before failing. Messages are keyed by
// field name, list elements by their decimal index, and cross-field checks
// report under "_schema". Checks only run when every field is individually
// valid.
package schema

import (
	"slices"
	"strconv"

	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/ir"
)

// Field declares one named field of a Schema.
type Field struct {
	Name     string
	Type     Type
	Required bool
}

// Check is a cross-field validation run on a fully valid record.
type Check func(r *ir.Record) error

// Schema is an ordered set of fields plus optional cross-field checks and
// a post-load transformation.
type Schema struct {
	Name     string
	Fields   []Field
	Checks   []Check
	PostLoad func(r *ir.Record)
}

// Field returns the declared field with the given name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns the declared field names in declaration order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Verify reports declaration mistakes: a missing name, unnamed or untyped
// fields, and duplicate field names.
func (s *Schema) Verify() error {
	if s == nil {
		return &SchemaError{Message: "schema is nil"}
	}
	if s.Name == "" {
		return &SchemaError{Message: "schema has no name"}
	}
	seen := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		if f.Name == "" {
			return &SchemaError{Name: s.Name, Message: "field " + strconv.Itoa(i) + " has no name"}
		}
		if f.Type == nil {
			return &SchemaError{Name: s.Name, Message: "field " + f.Name + " has no type"}
		}
		if seen[f.Name] {
			return &SchemaError{Name: s.Name, Message: "duplicate field " + f.Name}
		}
		seen[f.Name] = true
	}
	return nil
}

// Load validates data and returns the accepted fields as a Record ordered
// by declaration. On failure the error is a *ValidationError holding every
// violation.
func (s *Schema) Load(data map[string]any) (*ir.Record, error) {
	rec := ir.NewRecord()
	msgs := Messages{}

	for _, f := range s.Fields {
		v, present := data[f.Name]
		if !present {
			if f.Required {
				msgs[f.Name] = []string{MsgRequired}
			}
			continue
		}
		if v == nil {
			msgs[f.Name] = []string{MsgNull}
			continue
		}
		val, err := f.Type.Deserialize(v)
		if err != nil {
			msgs[f.Name] = detail(err)
			continue
		}
		rec.Set(f.Name, val)
	}

	var unknown []string
	for k := range data {
		if _, ok := s.Field(k); !ok {
			unknown = append(unknown, k)
		}
	}
	slices.Sort(unknown)
	for _, k := range unknown {
		msgs[k] = []string{MsgUnknownField}
	}

	if len(msgs) == 0 {
		for _, check := range s.Checks {
			if err := check(rec); err != nil {
				existing, _ := msgs[SchemaKey].([]string)
				msgs[SchemaKey] = append(existing, messagesOf(err)...)
			}
		}
	}

	if len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}
	if s.PostLoad != nil {
		s.PostLoad(rec)
	}
	return rec, nil
}

// Deserialize lets a Schema be used directly as a field Type.
func (s *Schema) Deserialize(v any) (any, error) {
	return Nested{Schema: s}.Deserialize(v)
}

// Describe returns the schema name.
func (s *Schema) Describe() string { return s.Name }

func messagesOf(err error) []string {
	switch d := detail(err).(type) {
	case []string:
		return d
	default:
		return []string{err.Error()}
	}
}
