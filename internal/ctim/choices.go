package ctim

import (
	"slices"
	"strconv"
)

// Choices returns every named choice list, keyed by the field it applies
// to. Lists marked informational in constants.go are included.
func Choices() map[string][]string {
	dispositions := make([]string, len(Dispositions))
	for i, d := range Dispositions {
		dispositions[i] = strconv.Itoa(d)
	}
	return map[string][]string{
		"boolean_operator":      slices.Clone(BooleanOperatorChoices),
		"column_type":           slices.Clone(ColumnTypeChoices),
		"confidence":            slices.Clone(ConfidenceChoices),
		"disposition":           dispositions,
		"disposition_name":      slices.Clone(DispositionNames),
		"indicator_type":        slices.Clone(IndicatorTypeChoices),
		"kill_chain_phase_name": slices.Clone(KillChainPhaseNameChoices),
		"observable_relation":   slices.Clone(ObservableRelationChoices),
		"observable_type":       slices.Clone(ObservableTypeChoices),
		"relationship_type":     slices.Clone(RelationshipTypeChoices),
		"resolution":            slices.Clone(ResolutionChoices),
		"sensor":                slices.Clone(SensorChoices),
		"severity":              slices.Clone(SeverityChoices),
		"specification_type":    slices.Clone(SpecificationTypeChoices),
		"tlp":                   slices.Clone(TLPChoices),
	}
}
