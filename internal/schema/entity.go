package schema

import (
	"reflect"
	"strings"

	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/ir"
)

// Entity is a constructed value that an EntityField may embed or reference.
type Entity interface {
	// Type returns the snake_case kind tag.
	Type() string
	// JSON returns the validated record.
	JSON() *ir.Record
	// ID returns the identifier, or "" for entities that have none.
	ID() string
}

// EntityField accepts a constructed Entity. In embed mode it yields a copy
// of the entity's record; in reference mode it yields the entity's id.
type EntityField struct {
	// TypeName appears in "Not a valid CTIM <TypeName>." messages.
	TypeName string
	// Accept reports whether e is of an acceptable kind.
	Accept func(e Entity) bool
	// Ref selects reference mode.
	Ref bool
	// Load, when set, lets embed mode accept a plain map by building the
	// entity from it. Nested violations are reported under the field.
	Load func(m map[string]any) (Entity, error)
}

func (t EntityField) Deserialize(v any) (any, error) {
	if e, ok := v.(Entity); ok && !isNil(e) {
		if t.Accept == nil || t.Accept(e) {
			if !t.Ref {
				return e.JSON().Clone(), nil
			}
			if id := e.ID(); id != "" {
				return id, nil
			}
		}
		return nil, t.invalid()
	}
	if t.Ref {
		if s, ok := v.(string); ok {
			if s == "" {
				return nil, Invalid(MsgBlank)
			}
			return s, nil
		}
		return nil, t.invalid()
	}
	if t.Load != nil {
		if m, ok := AsMap(v); ok {
			e, err := t.Load(m)
			if err != nil {
				return nil, err
			}
			return e.JSON(), nil
		}
	}
	return nil, t.invalid()
}

func (t EntityField) invalid() error {
	return Invalid(t.Message())
}

// Message returns the rejection message of t.
func (t EntityField) Message() string {
	return "Not a valid CTIM " + t.TypeName + "."
}

func (t EntityField) Describe() string {
	if t.Ref {
		return t.TypeName + " (id)"
	}
	return t.TypeName
}

func isNil(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Variant is one alternative of a Union, selected by its Tag.
type Variant struct {
	Tag   string
	Field EntityField
}

// Union accepts an entity of any variant kind, or a map whose discriminator
// key names a variant.
type Union struct {
	Name          string
	Discriminator string
	Variants      []Variant
}

// Tags returns the variant tags in declaration order.
func (t Union) Tags() []string {
	tags := make([]string, len(t.Variants))
	for i, v := range t.Variants {
		tags[i] = v.Tag
	}
	return tags
}

func (t Union) Deserialize(v any) (any, error) {
	if e, ok := v.(Entity); ok && !isNil(e) {
		for _, variant := range t.Variants {
			if variant.Field.Accept(e) {
				return variant.Field.Deserialize(e)
			}
		}
		return nil, t.invalid()
	}
	m, ok := AsMap(v)
	if !ok {
		return nil, t.invalid()
	}
	raw, present := m[t.Discriminator]
	if !present {
		return nil, &ValidationError{Messages: Messages{t.Discriminator: []string{MsgRequired}}}
	}
	tag, _ := raw.(string)
	for _, variant := range t.Variants {
		if variant.Tag == tag {
			return variant.Field.Deserialize(m)
		}
	}
	return nil, &ValidationError{Messages: Messages{
		t.Discriminator: []string{choicesMessage(quoteAll(t.Tags()))},
	}}
}

func (t Union) invalid() error {
	msgs := make([]string, len(t.Variants))
	for i, variant := range t.Variants {
		msgs[i] = variant.Field.Message()
	}
	return Invalid(msgs...)
}

func (t Union) Describe() string {
	return t.Name + " (" + t.Discriminator + ": " + strings.Join(t.Tags(), " | ") + ")"
}
