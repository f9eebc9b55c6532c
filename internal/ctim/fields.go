package ctim

import (
	"slices"

	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/ir"
	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/schema"
)

func ofKind(kinds ...Kind) func(schema.Entity) bool {
	return func(e schema.Entity) bool {
		ent, ok := e.(*Entity)
		return ok && ent != nil && slices.Contains(kinds, ent.Kind())
	}
}

func identified(e schema.Entity) bool {
	ent, ok := e.(*Entity)
	return ok && ent != nil && ent.def.Identified()
}

// embedded accepts an entity of kind, or a map rehydrated as one.
func embedded(kind Kind) schema.EntityField {
	return schema.EntityField{
		TypeName: kind.Name(),
		Accept:   ofKind(kind),
		Load: func(m map[string]any) (schema.Entity, error) {
			return Rehydrate(kind, m)
		},
	}
}

// referenced accepts an entity of kind, or an id string, and yields the id.
func referenced(kind Kind) schema.EntityField {
	return schema.EntityField{
		TypeName: kind.Name(),
		Accept:   ofKind(kind),
		Ref:      true,
	}
}

// anyEntityRef accepts any identified primary entity, or an id string.
var anyEntityRef = schema.EntityField{
	TypeName: "Entity",
	Accept:   identified,
	Ref:      true,
}

func listOf(t schema.Type) schema.List {
	return schema.List{Of: t}
}

var (
	nonBlank         = schema.String{}
	description      = schema.String{MaxLength: DescriptionMaxLength}
	shortDescription = schema.String{MaxLength: ShortDescriptionMaxLength}
	language         = schema.String{MaxLength: LanguageMaxLength}
	title            = schema.String{MaxLength: TitleMaxLength}
	tlp              = schema.String{Choices: TLPChoices}
	confidence       = schema.String{Choices: ConfidenceChoices}
	severity         = schema.String{Choices: SeverityChoices}
	revision         = schema.Integer{}.AtLeast(RevisionMinValue)
	disposition      = schema.Integer{}.OneOf(Dispositions...)
	dispositionName  = schema.String{Choices: DispositionNames}
)

// provenanceFields closes every identified primary schema.
func provenanceFields() []schema.Field {
	return []schema.Field{
		{Name: "source", Type: schema.String{MaxLength: SourceMaxLength}},
		{Name: "source_uri", Type: nonBlank},
		{Name: "external_id_salt_values", Type: listOf(nonBlank)},
		{Name: "external_ids", Type: listOf(nonBlank)},
	}
}

// checkDisposition requires disposition_name to match disposition.
func checkDisposition(r *ir.Record) error {
	if !r.Has("disposition") || !r.Has("disposition_name") {
		return nil
	}
	n, _ := schema.ToInt(r.Value("disposition"))
	want := DispositionMap[n]
	if want != r.String("disposition_name") {
		return schema.Invalid("Not a consistent disposition name for the specified " +
			"disposition number. Must be '" + want + "'.")
	}
	return nil
}

// checkTimePeriod requires start_time to come no later than end_time.
// Both are normalized to the same layout, so string order is time order.
func checkTimePeriod(r *ir.Record) error {
	if !r.Has("start_time") || !r.Has("end_time") {
		return nil
	}
	if r.String("start_time") > r.String("end_time") {
		return schema.Invalid("Not a valid period of time: start must come before end.")
	}
	return nil
}
