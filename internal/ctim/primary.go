package ctim

import (
	"slices"
	"strconv"

	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/ir"
	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/schema"
)

// https://github.com/threatgrid/ctim/blob/master/doc/structures/bundle.md
var bundleSchema = &schema.Schema{
	Name: "Bundle",
	Fields: slices.Concat([]schema.Field{
		{Name: "valid_time", Type: embedded(KindValidTime)},
		{Name: "description", Type: description},
		{Name: "external_references", Type: listOf(embedded(KindExternalReference))},
		{Name: "indicator_refs", Type: listOf(referenced(KindIndicator))},
		{Name: "indicators", Type: listOf(embedded(KindIndicator))},
		{Name: "judgement_refs", Type: listOf(referenced(KindJudgement))},
		{Name: "judgements", Type: listOf(embedded(KindJudgement))},
		{Name: "language", Type: language},
		{Name: "relationship_refs", Type: listOf(referenced(KindRelationship))},
		{Name: "relationships", Type: listOf(embedded(KindRelationship))},
		{Name: "revision", Type: revision},
		{Name: "short_description", Type: shortDescription},
		{Name: "sighting_refs", Type: listOf(referenced(KindSighting))},
		{Name: "sightings", Type: listOf(embedded(KindSighting))},
		{Name: "timestamp", Type: schema.DateTime{}},
		{Name: "title", Type: title},
		{Name: "tlp", Type: tlp},
		{Name: "verdict_refs", Type: listOf(referenced(KindVerdict))},
		{Name: "verdicts", Type: listOf(embedded(KindVerdict))},
	}, provenanceFields()),
}

// https://github.com/threatgrid/ctim/blob/master/doc/structures/indicator.md
var indicatorSchema = &schema.Schema{
	Name: "Indicator",
	Fields: slices.Concat([]schema.Field{
		{Name: "producer", Type: schema.String{MaxLength: ProducerMaxLength}, Required: true},
		{Name: "valid_time", Type: embedded(KindValidTime), Required: true},
		{Name: "composite_indicator_expression", Type: embedded(KindCompositeIndicatorExpression)},
		{Name: "confidence", Type: confidence},
		{Name: "description", Type: description},
		{Name: "external_references", Type: listOf(embedded(KindExternalReference))},
		{Name: "indicator_type", Type: listOf(schema.String{Choices: IndicatorTypeChoices})},
		{Name: "kill_chain_phases", Type: listOf(embedded(KindKillChainPhase))},
		{Name: "language", Type: language},
		{Name: "likely_impact", Type: schema.String{MaxLength: LikelyImpactMaxLength}},
		{Name: "negate", Type: schema.Boolean{}},
		{Name: "revision", Type: revision},
		{Name: "severity", Type: severity},
		{Name: "short_description", Type: shortDescription},
		{Name: "specification", Type: specification},
		{Name: "tags", Type: listOf(schema.String{MaxLength: TagMaxLength})},
		{Name: "test_mechanisms", Type: listOf(schema.String{MaxLength: TestMechanismMaxLength})},
		{Name: "timestamp", Type: schema.DateTime{}},
		{Name: "title", Type: title},
		{Name: "tlp", Type: tlp},
	}, provenanceFields()),
}

// https://github.com/threatgrid/ctim/blob/master/doc/structures/judgement.md
var judgementSchema = &schema.Schema{
	Name: "Judgement",
	Fields: slices.Concat([]schema.Field{
		{Name: "confidence", Type: confidence, Required: true},
		{Name: "disposition", Type: disposition, Required: true},
		{Name: "disposition_name", Type: dispositionName, Required: true},
		{Name: "observable", Type: embedded(KindObservable), Required: true},
		{Name: "priority", Type: schema.Integer{}.AtLeast(PriorityMinValue).AtMost(PriorityMaxValue), Required: true},
		{Name: "severity", Type: severity, Required: true},
		{Name: "valid_time", Type: embedded(KindValidTime), Required: true},
		{Name: "external_references", Type: listOf(embedded(KindExternalReference))},
		{Name: "language", Type: language},
		{Name: "reason", Type: schema.String{MaxLength: ReasonMaxLength}},
		{Name: "reason_uri", Type: nonBlank},
		{Name: "revision", Type: revision},
		{Name: "timestamp", Type: schema.DateTime{}},
		{Name: "tlp", Type: tlp},
	}, provenanceFields()),
	Checks: []schema.Check{checkDisposition},
}

// https://github.com/threatgrid/ctim/blob/master/doc/structures/relationship.md
//
// relationship_type is not restricted to RelationshipTypeChoices.
var relationshipSchema = &schema.Schema{
	Name: "Relationship",
	Fields: slices.Concat([]schema.Field{
		{Name: "relationship_type", Type: nonBlank, Required: true},
		{Name: "source_ref", Type: anyEntityRef, Required: true},
		{Name: "target_ref", Type: anyEntityRef, Required: true},
		{Name: "description", Type: description},
		{Name: "external_references", Type: listOf(embedded(KindExternalReference))},
		{Name: "language", Type: language},
		{Name: "revision", Type: revision},
		{Name: "short_description", Type: shortDescription},
		{Name: "timestamp", Type: schema.DateTime{}},
		{Name: "title", Type: title},
		{Name: "tlp", Type: tlp},
	}, provenanceFields()),
}

// https://github.com/threatgrid/ctim/blob/master/doc/structures/sighting.md
//
// resolution and sensor accept any non-blank value.
var sightingSchema = &schema.Schema{
	Name: "Sighting",
	Fields: slices.Concat([]schema.Field{
		{Name: "confidence", Type: confidence, Required: true},
		{Name: "count", Type: schema.Integer{}.AtLeast(CountMinValue), Required: true},
		{Name: "observed_time", Type: embedded(KindObservedTime), Required: true},
		{Name: "data", Type: embedded(KindSightingDataTable)},
		{Name: "description", Type: description},
		{Name: "external_references", Type: listOf(embedded(KindExternalReference))},
		{Name: "internal", Type: schema.Boolean{}},
		{Name: "language", Type: language},
		{Name: "observables", Type: listOf(embedded(KindObservable))},
		{Name: "relations", Type: listOf(embedded(KindObservedRelation))},
		{Name: "resolution", Type: nonBlank},
		{Name: "revision", Type: revision},
		{Name: "sensor", Type: nonBlank},
		{Name: "sensor_coordinates", Type: listOf(embedded(KindSensorCoordinates))},
		{Name: "severity", Type: severity},
		{Name: "short_description", Type: shortDescription},
		{Name: "targets", Type: listOf(embedded(KindIdentitySpecification))},
		{Name: "timestamp", Type: schema.DateTime{}},
		{Name: "title", Type: title},
		{Name: "tlp", Type: tlp},
	}, provenanceFields()),
}

// https://github.com/threatgrid/ctim/blob/master/doc/structures/verdict.md
var verdictSchema = &schema.Schema{
	Name: "Verdict",
	Fields: []schema.Field{
		{Name: "disposition", Type: disposition, Required: true},
		{Name: "observable", Type: embedded(KindObservable), Required: true},
		{Name: "valid_time", Type: embedded(KindValidTime), Required: true},
		{Name: "disposition_name", Type: dispositionName},
	},
	Checks: []schema.Check{checkDisposition},
}

func typeOnlySeeds(kind Kind) func(*ir.Record) [][]string {
	return func(*ir.Record) [][]string {
		return [][]string{{string(kind)}}
	}
}

func indicatorSeeds(r *ir.Record) [][]string {
	return [][]string{{string(KindIndicator), r.String("title"), r.String("producer")}}
}

func judgementSeeds(r *ir.Record) [][]string {
	observable, _ := r.Value("observable").(*ir.Record)
	n, _ := schema.ToInt(r.Value("disposition"))
	return [][]string{{
		string(KindJudgement),
		r.String("source"),
		observable.String("value"),
		strconv.Itoa(n),
		datePart(r.String("timestamp")),
	}}
}

func sightingSeeds(r *ir.Record) [][]string {
	date := datePart(r.String("timestamp"))
	observables, _ := r.Value("observables").([]any)
	if len(observables) == 0 {
		return [][]string{{string(KindSighting), r.String("title"), date}}
	}
	seeds := make([][]string, 0, len(observables))
	for _, o := range observables {
		observable, _ := o.(*ir.Record)
		seeds = append(seeds, []string{string(KindSighting), r.String("title"), date, observable.String("value")})
	}
	return seeds
}

func primaryDefinitions() []Definition {
	return []Definition{
		{Kind: KindBundle, Class: Primary, Schema: bundleSchema, Seeds: typeOnlySeeds(KindBundle)},
		{Kind: KindIndicator, Class: Primary, Schema: indicatorSchema, Seeds: indicatorSeeds},
		{Kind: KindJudgement, Class: Primary, Schema: judgementSchema, Seeds: judgementSeeds},
		{Kind: KindRelationship, Class: Primary, Schema: relationshipSchema, Seeds: typeOnlySeeds(KindRelationship)},
		{Kind: KindSighting, Class: Primary, Schema: sightingSchema, Seeds: sightingSeeds},
		{Kind: KindVerdict, Class: Primary, Schema: verdictSchema, Anonymous: true, Attached: []string{"judgement_id"}},
	}
}

func init() {
	mustRegister(secondaryDefinitions()...)
	mustRegister(primaryDefinitions()...)
}
