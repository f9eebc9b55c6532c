package ctim

import (
	"context"

	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/schema"
)

func NewIndicator(ctx context.Context, fields Fields) (*Entity, error) {
	return New(ctx, KindIndicator, fields)
}

func NewJudgement(ctx context.Context, fields Fields) (*Entity, error) {
	return New(ctx, KindJudgement, fields)
}

func NewRelationship(ctx context.Context, fields Fields) (*Entity, error) {
	return New(ctx, KindRelationship, fields)
}

func NewSighting(ctx context.Context, fields Fields) (*Entity, error) {
	return New(ctx, KindSighting, fields)
}

func NewVerdict(ctx context.Context, fields Fields) (*Entity, error) {
	return New(ctx, KindVerdict, fields)
}

// NewVerdictFromJudgement derives a verdict from a judgement's disposition,
// observable and valid time, and records the judgement's id under
// judgement_id.
func NewVerdictFromJudgement(ctx context.Context, judgement *Entity) (*Entity, error) {
	v, err := referenced(KindJudgement).Deserialize(judgement)
	if err != nil {
		return nil, &schema.ValidationError{Messages: schema.Messages{"judgement": []string{err.Error()}}}
	}

	fields := Fields{
		"disposition": judgement.Get("disposition"),
		"observable":  judgement.Get("observable"),
		"valid_time":  judgement.Get("valid_time"),
	}
	if name := judgement.Get("disposition_name"); name != nil {
		fields["disposition_name"] = name
	}

	verdict, err := New(ctx, KindVerdict, fields)
	if err != nil {
		return nil, err
	}
	verdict.json.Set("judgement_id", v)
	return verdict, nil
}

// Secondary constructors. They need no context: secondaries carry no
// provenance or identifiers.

func newSecondary(kind Kind, fields Fields) (*Entity, error) {
	return New(context.Background(), kind, fields)
}

func NewColumnDefinition(fields Fields) (*Entity, error) {
	return newSecondary(KindColumnDefinition, fields)
}

func NewCompositeIndicatorExpression(fields Fields) (*Entity, error) {
	return newSecondary(KindCompositeIndicatorExpression, fields)
}

func NewExternalReference(fields Fields) (*Entity, error) {
	return newSecondary(KindExternalReference, fields)
}

func NewIdentitySpecification(fields Fields) (*Entity, error) {
	return newSecondary(KindIdentitySpecification, fields)
}

func NewJudgementSpecification(fields Fields) (*Entity, error) {
	return newSecondary(KindJudgementSpecification, fields)
}

func NewKillChainPhase(fields Fields) (*Entity, error) {
	return newSecondary(KindKillChainPhase, fields)
}

func NewObservable(fields Fields) (*Entity, error) {
	return newSecondary(KindObservable, fields)
}

func NewObservedRelation(fields Fields) (*Entity, error) {
	return newSecondary(KindObservedRelation, fields)
}

func NewObservedTime(fields Fields) (*Entity, error) {
	return newSecondary(KindObservedTime, fields)
}

func NewOpenIOCSpecification(fields Fields) (*Entity, error) {
	return newSecondary(KindOpenIOCSpecification, fields)
}

func NewRelatedJudgement(fields Fields) (*Entity, error) {
	return newSecondary(KindRelatedJudgement, fields)
}

func NewSensorCoordinates(fields Fields) (*Entity, error) {
	return newSecondary(KindSensorCoordinates, fields)
}

func NewSightingDataTable(fields Fields) (*Entity, error) {
	return newSecondary(KindSightingDataTable, fields)
}

func NewSIOCSpecification(fields Fields) (*Entity, error) {
	return newSecondary(KindSIOCSpecification, fields)
}

func NewSnortSpecification(fields Fields) (*Entity, error) {
	return newSecondary(KindSnortSpecification, fields)
}

func NewThreatBrainSpecification(fields Fields) (*Entity, error) {
	return newSecondary(KindThreatBrainSpecification, fields)
}

func NewValidTime(fields Fields) (*Entity, error) {
	return newSecondary(KindValidTime, fields)
}

// Must panics on err. Use only in tests or with literal inputs.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
