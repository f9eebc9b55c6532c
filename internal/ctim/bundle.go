package ctim

import (
	"context"
	"errors"
	"log/slog"

	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/schema"
)

// Bundle is a bundle entity that collects other primary entities.
type Bundle struct {
	*Entity
}

// NewBundle builds a bundle. Member lists may be given up front as fields
// or appended afterwards with Add.
func NewBundle(ctx context.Context, fields Fields) (*Bundle, error) {
	e, err := New(ctx, KindBundle, fields)
	if err != nil {
		return nil, err
	}
	return &Bundle{Entity: e}, nil
}

// Members are the kinds a bundle collects.
var Members = []Kind{KindIndicator, KindJudgement, KindRelationship, KindSighting, KindVerdict}

// MemberKey returns the bundle field that holds kind: "<kind>s" when
// embedding, "<kind>_refs" when referencing.
func MemberKey(kind Kind, asReference bool) string {
	if asReference {
		return string(kind) + "_refs"
	}
	return string(kind) + "s"
}

// Add appends e to the member list for its kind, embedding its record or,
// with asReference, its id. The bundle itself is not revalidated.
func (b *Bundle) Add(e *Entity, asReference bool) error {
	kind := e.Kind()
	for _, member := range Members {
		if member == kind {
			return b.add(kind, e, asReference)
		}
	}
	return &schema.ValidationError{Messages: schema.Messages{
		schema.SchemaKey: []string{"Not a valid CTIM Bundle member."},
	}}
}

func (b *Bundle) AddIndicator(e *Entity, asReference bool) error {
	return b.add(KindIndicator, e, asReference)
}

func (b *Bundle) AddJudgement(e *Entity, asReference bool) error {
	return b.add(KindJudgement, e, asReference)
}

func (b *Bundle) AddRelationship(e *Entity, asReference bool) error {
	return b.add(KindRelationship, e, asReference)
}

func (b *Bundle) AddSighting(e *Entity, asReference bool) error {
	return b.add(KindSighting, e, asReference)
}

func (b *Bundle) AddVerdict(e *Entity, asReference bool) error {
	return b.add(KindVerdict, e, asReference)
}

func (b *Bundle) add(kind Kind, e *Entity, asReference bool) error {
	field := embedded(kind)
	if asReference {
		field = referenced(kind)
	}
	key := MemberKey(kind, asReference)

	v, err := field.Deserialize(e)
	if err != nil {
		var ierr *schema.InvalidError
		if errors.As(err, &ierr) {
			return &schema.ValidationError{Messages: schema.Messages{key: ierr.Messages}}
		}
		return err
	}
	b.json.Append(key, v)
	slog.Debug("bundle member added", "bundle", b.ID(), "key", key, "member", e.ID())
	return nil
}

// Count returns the number of entries under a member key.
func (b *Bundle) Count(key string) int {
	list, _ := b.json.Value(key).([]any)
	return len(list)
}
