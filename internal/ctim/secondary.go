package ctim

import (
	"strings"

	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/ir"
	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/schema"
)

// https://github.com/threatgrid/ctim/blob/master/doc/structures/sighting.md#columndefinition-object
var columnDefinitionSchema = &schema.Schema{
	Name: "ColumnDefinition",
	Fields: []schema.Field{
		{Name: "name", Type: nonBlank, Required: true},
		{Name: "type", Type: schema.String{Choices: ColumnTypeChoices}, Required: true},
		{Name: "description", Type: description},
		{Name: "required", Type: schema.Boolean{}},
		{Name: "short_description", Type: shortDescription},
	},
}

var compositeIndicatorExpressionSchema = &schema.Schema{
	Name: "CompositeIndicatorExpression",
	Fields: []schema.Field{
		{Name: "indicator_ids", Type: listOf(nonBlank), Required: true},
		{Name: "operator", Type: schema.String{Choices: BooleanOperatorChoices}, Required: true},
	},
}

var externalReferenceSchema = &schema.Schema{
	Name: "ExternalReference",
	Fields: []schema.Field{
		{Name: "source_name", Type: schema.String{MaxLength: SourceNameMaxLength}, Required: true},
		{Name: "description", Type: description},
		{Name: "external_id", Type: nonBlank},
		{Name: "hashes", Type: listOf(nonBlank)},
		{Name: "url", Type: nonBlank},
	},
}

// The type of an identity specification is a sensor name, but any
// non-blank value is accepted.
var identitySpecificationSchema = &schema.Schema{
	Name: "IdentitySpecification",
	Fields: []schema.Field{
		{Name: "observables", Type: listOf(embedded(KindObservable)), Required: true},
		{Name: "observed_time", Type: embedded(KindObservedTime), Required: true},
		{Name: "type", Type: nonBlank, Required: true},
		{Name: "os", Type: nonBlank},
	},
}

var judgementSpecificationSchema = &schema.Schema{
	Name: "JudgementSpecification",
	Fields: []schema.Field{
		{Name: "judgements", Type: listOf(nonBlank), Required: true},
		{Name: "required_judgements", Type: listOf(embedded(KindRelatedJudgement)), Required: true},
	},
}

var killChainPhaseSchema = &schema.Schema{
	Name: "KillChainPhase",
	Fields: []schema.Field{
		{Name: "kill_chain_name", Type: nonBlank, Required: true},
		{Name: "phase_name", Type: nonBlank, Required: true},
	},
	PostLoad: normalizeKillChainPhase,
}

var phaseSeparators = strings.NewReplacer("_", " ", "-", " ")

// normalizeKillChainPhase lower-cases both names and joins their words
// with single hyphens: "Command_and Control" becomes "command-and-control".
func normalizeKillChainPhase(r *ir.Record) {
	for _, field := range []string{"kill_chain_name", "phase_name"} {
		if v := r.String(field); v != "" {
			words := strings.Fields(phaseSeparators.Replace(v))
			r.Set(field, strings.ToLower(strings.Join(words, "-")))
		}
	}
}

var observableSchema = &schema.Schema{
	Name: "Observable",
	Fields: []schema.Field{
		{Name: "type", Type: schema.String{Choices: ObservableTypeChoices}, Required: true},
		{Name: "value", Type: nonBlank, Required: true},
	},
}

var observedRelationSchema = &schema.Schema{
	Name: "ObservedRelation",
	Fields: []schema.Field{
		{Name: "origin", Type: nonBlank, Required: true},
		{Name: "related", Type: embedded(KindObservable), Required: true},
		{Name: "relation", Type: nonBlank, Required: true},
		{Name: "source", Type: embedded(KindObservable), Required: true},
		{Name: "origin_uri", Type: nonBlank},
		{Name: "relation_info", Type: schema.Mapping{Keys: schema.String{}, Values: schema.Raw{}}},
	},
}

var observedTimeSchema = &schema.Schema{
	Name: "ObservedTime",
	Fields: []schema.Field{
		{Name: "start_time", Type: schema.DateTime{}, Required: true},
		{Name: "end_time", Type: schema.DateTime{}},
	},
	Checks: []schema.Check{checkTimePeriod},
}

var openIOCSpecificationSchema = &schema.Schema{
	Name: "OpenIOCSpecification",
	Fields: []schema.Field{
		{Name: "open_IOC", Type: nonBlank, Required: true},
	},
}

var relatedJudgementSchema = &schema.Schema{
	Name: "RelatedJudgement",
	Fields: []schema.Field{
		{Name: "judgement_id", Type: nonBlank, Required: true},
		{Name: "confidence", Type: confidence},
		{Name: "relationship", Type: nonBlank},
		{Name: "source", Type: nonBlank},
	},
}

var sensorCoordinatesSchema = &schema.Schema{
	Name: "SensorCoordinates",
	Fields: []schema.Field{
		{Name: "observables", Type: listOf(embedded(KindObservable)), Required: true},
		{Name: "type", Type: nonBlank, Required: true},
		{Name: "os", Type: nonBlank},
	},
}

var sightingDataTableSchema = &schema.Schema{
	Name: "SightingDataTable",
	Fields: []schema.Field{
		{Name: "columns", Type: listOf(embedded(KindColumnDefinition)), Required: true},
		{Name: "rows", Type: listOf(listOf(schema.Raw{})), Required: true},
		{Name: "row_count", Type: schema.Integer{}.AtLeast(CountMinValue)},
	},
}

var siocSpecificationSchema = &schema.Schema{
	Name: "SIOCSpecification",
	Fields: []schema.Field{
		{Name: "SIOC", Type: nonBlank, Required: true},
	},
}

var snortSpecificationSchema = &schema.Schema{
	Name: "SnortSpecification",
	Fields: []schema.Field{
		{Name: "snort_sig", Type: nonBlank, Required: true},
	},
}

var threatBrainSpecificationSchema = &schema.Schema{
	Name: "ThreatBrainSpecification",
	Fields: []schema.Field{
		{Name: "variables", Type: listOf(nonBlank), Required: true},
		{Name: "query", Type: nonBlank},
	},
}

var validTimeSchema = &schema.Schema{
	Name: "ValidTime",
	Fields: []schema.Field{
		{Name: "start_time", Type: schema.DateTime{}},
		{Name: "end_time", Type: schema.DateTime{}},
	},
	Checks: []schema.Check{checkTimePeriod},
}

// specification is the indicator's polymorphic specification field.
var specification = schema.Union{
	Name:          "Specification",
	Discriminator: "type",
	Variants: []schema.Variant{
		{Tag: "Judgement", Field: embedded(KindJudgementSpecification)},
		{Tag: "ThreatBrain", Field: embedded(KindThreatBrainSpecification)},
		{Tag: "Snort", Field: embedded(KindSnortSpecification)},
		{Tag: "SIOC", Field: embedded(KindSIOCSpecification)},
		{Tag: "OpenIOC", Field: embedded(KindOpenIOCSpecification)},
	},
}

func secondaryDefinitions() []Definition {
	return []Definition{
		{Kind: KindColumnDefinition, Schema: columnDefinitionSchema},
		{Kind: KindCompositeIndicatorExpression, Schema: compositeIndicatorExpressionSchema},
		{Kind: KindExternalReference, Schema: externalReferenceSchema},
		{Kind: KindIdentitySpecification, Schema: identitySpecificationSchema},
		{Kind: KindJudgementSpecification, Schema: judgementSpecificationSchema, Tag: "Judgement"},
		{Kind: KindKillChainPhase, Schema: killChainPhaseSchema},
		{Kind: KindObservable, Schema: observableSchema},
		{Kind: KindObservedRelation, Schema: observedRelationSchema},
		{Kind: KindObservedTime, Schema: observedTimeSchema},
		{Kind: KindOpenIOCSpecification, Schema: openIOCSpecificationSchema, Tag: "OpenIOC"},
		{Kind: KindRelatedJudgement, Schema: relatedJudgementSchema},
		{Kind: KindSensorCoordinates, Schema: sensorCoordinatesSchema},
		{Kind: KindSightingDataTable, Schema: sightingDataTableSchema},
		{Kind: KindSIOCSpecification, Schema: siocSpecificationSchema, Tag: "SIOC"},
		{Kind: KindSnortSpecification, Schema: snortSpecificationSchema, Tag: "Snort"},
		{Kind: KindThreatBrainSpecification, Schema: threatBrainSpecificationSchema, Tag: "ThreatBrain"},
		{Kind: KindValidTime, Schema: validTimeSchema},
	}
}
