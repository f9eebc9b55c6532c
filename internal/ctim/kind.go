package ctim

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/ir"
	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/schema"
)

// Kind is the snake_case type tag of an entity.
type Kind string

// Primary kinds.
const (
	KindBundle       Kind = "bundle"
	KindIndicator    Kind = "indicator"
	KindJudgement    Kind = "judgement"
	KindRelationship Kind = "relationship"
	KindSighting     Kind = "sighting"
	KindVerdict      Kind = "verdict"
)

// Secondary kinds.
const (
	KindColumnDefinition             Kind = "column_definition"
	KindCompositeIndicatorExpression Kind = "composite_indicator_expression"
	KindExternalReference            Kind = "external_reference"
	KindIdentitySpecification        Kind = "identity_specification"
	KindJudgementSpecification       Kind = "judgement_specification"
	KindKillChainPhase               Kind = "kill_chain_phase"
	KindObservable                   Kind = "observable"
	KindObservedRelation             Kind = "observed_relation"
	KindObservedTime                 Kind = "observed_time"
	KindOpenIOCSpecification         Kind = "open_ioc_specification"
	KindRelatedJudgement             Kind = "related_judgement"
	KindSensorCoordinates            Kind = "sensor_coordinates"
	KindSightingDataTable            Kind = "sighting_data_table"
	KindSIOCSpecification            Kind = "sioc_specification"
	KindSnortSpecification           Kind = "snort_specification"
	KindThreatBrainSpecification     Kind = "threat_brain_specification"
	KindValidTime                    Kind = "valid_time"
)

var kindNames = map[Kind]string{
	KindBundle:                       "Bundle",
	KindIndicator:                    "Indicator",
	KindJudgement:                    "Judgement",
	KindRelationship:                 "Relationship",
	KindSighting:                     "Sighting",
	KindVerdict:                      "Verdict",
	KindColumnDefinition:             "ColumnDefinition",
	KindCompositeIndicatorExpression: "CompositeIndicatorExpression",
	KindExternalReference:            "ExternalReference",
	KindIdentitySpecification:        "IdentitySpecification",
	KindJudgementSpecification:       "JudgementSpecification",
	KindKillChainPhase:               "KillChainPhase",
	KindObservable:                   "Observable",
	KindObservedRelation:             "ObservedRelation",
	KindObservedTime:                 "ObservedTime",
	KindOpenIOCSpecification:         "OpenIOCSpecification",
	KindRelatedJudgement:             "RelatedJudgement",
	KindSensorCoordinates:            "SensorCoordinates",
	KindSightingDataTable:            "SightingDataTable",
	KindSIOCSpecification:            "SIOCSpecification",
	KindSnortSpecification:           "SnortSpecification",
	KindThreatBrainSpecification:     "ThreatBrainSpecification",
	KindValidTime:                    "ValidTime",
}

// Name returns the CamelCase name used in messages, e.g. "ValidTime".
// Kinds registered at runtime fall back to their registered name.
func (k Kind) Name() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	if def, err := Lookup(k); err == nil && def.Name != "" {
		return def.Name
	}
	return string(k)
}

// Class separates entities that gain bookkeeping fields from plain value
// objects.
type Class int

const (
	Secondary Class = iota
	Primary
)

func (c Class) String() string {
	if c == Primary {
		return "primary"
	}
	return "secondary"
}

// Definition describes one entity kind.
type Definition struct {
	Kind   Kind
	Name   string
	Class  Class
	Schema *schema.Schema

	// Seeds returns one seed tuple per deterministic external id. Required
	// for primaries unless Anonymous is set.
	Seeds func(r *ir.Record) [][]string

	// Anonymous primaries receive only a leading type tag: no schema
	// version, provenance or identifiers.
	Anonymous bool

	// Tag, when set on a secondary, is stamped as a leading "type" key.
	Tag string

	// Attached lists keys set after construction that are not schema
	// fields, e.g. a verdict's judgement_id. Rehydration keeps them.
	Attached []string
}

// Identified reports whether entities of this kind carry an id and
// external ids.
func (d *Definition) Identified() bool {
	return d.Class == Primary && !d.Anonymous
}

// TypeTag returns the value of the leading "type" key, or "" when the kind
// stamps none.
func (d *Definition) TypeTag() string {
	switch {
	case d.Class == Primary:
		return string(d.Kind)
	default:
		return d.Tag
	}
}

// bookkeepingOrder is the leading key order of identified primaries.
var bookkeepingOrder = []string{"type", "schema_version", "source", "source_uri", "id", "external_ids"}

// stampedKeys returns the keys the engine adds that the schema does not
// declare.
func (d *Definition) stampedKeys() []string {
	var keys []string
	switch {
	case d.Identified():
		keys = []string{"type", "schema_version", "id"}
	case d.TypeTag() != "":
		keys = []string{"type"}
	}
	return append(keys, d.Attached...)
}

var (
	registryMu sync.RWMutex
	registry   = map[Kind]*Definition{}
)

// Register adds a kind. It fails with a *schema.SchemaError when the
// definition has no kind or schema, when the schema is malformed, when an
// identified primary has no seed function, or when the kind is taken.
func Register(def Definition) error {
	if def.Kind == "" {
		return &schema.SchemaError{Name: def.Name, Message: "kind is required"}
	}
	if def.Schema == nil {
		return &schema.SchemaError{
			Name:    string(def.Kind),
			Message: "a schema is required to construct entities of this kind",
		}
	}
	if err := def.Schema.Verify(); err != nil {
		return err
	}
	if def.Identified() && def.Seeds == nil {
		return &schema.SchemaError{Name: string(def.Kind), Message: "primary kinds need a seed function"}
	}
	if def.Class == Primary && def.Tag != "" {
		return &schema.SchemaError{Name: string(def.Kind), Message: "primary kinds are tagged with their kind"}
	}
	if def.Name == "" {
		def.Name = def.Kind.Name()
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[def.Kind]; ok {
		return &schema.SchemaError{Name: string(def.Kind), Message: "kind already registered"}
	}
	registry[def.Kind] = &def
	return nil
}

func mustRegister(defs ...Definition) {
	for _, def := range defs {
		if err := Register(def); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the definition of kind.
func Lookup(kind Kind) (*Definition, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	def, ok := registry[kind]
	if !ok {
		return nil, &schema.SchemaError{Name: string(kind), Message: "unknown entity kind"}
	}
	return def, nil
}

// Kinds returns every registered kind, primaries first, each group sorted.
func Kinds() []Kind {
	registryMu.RLock()
	defer registryMu.RUnlock()
	kinds := make([]Kind, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	slices.SortFunc(kinds, func(a, b Kind) int {
		ca, cb := registry[a].Class, registry[b].Class
		if ca != cb {
			return int(cb) - int(ca)
		}
		return strings.Compare(string(a), string(b))
	})
	return kinds
}

// kindForTag maps a leading "type" value to its kind.
func kindForTag(tag string) (Kind, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	for k, def := range registry {
		if def.TypeTag() == tag {
			return k, nil
		}
	}
	return "", fmt.Errorf("no entity kind is tagged %q", tag)
}
