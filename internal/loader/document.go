package loader

import (
	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/session"
)

// AddMode controls how a built entity joins the bundle.
type AddMode string

const (
	AddEmbed     AddMode = "embed"
	AddReference AddMode = "reference"
	AddNone      AddMode = "none"
)

// RefKey marks a reference to a previously built entity: {"$ref": "name"}.
const RefKey = "$ref"

// Document describes one bundle and the entities to build into it.
type Document struct {
	// Session, when present, overrides the session components it sets.
	Session *session.Session `json:"session,omitempty" yaml:"session,omitempty"`
	// Bundle holds the bundle's own fields.
	Bundle   map[string]any `json:"bundle,omitempty" yaml:"bundle,omitempty"`
	Entities []EntitySpec   `json:"entities" yaml:"entities"`
}

// EntitySpec describes one entity.
type EntitySpec struct {
	// Name makes the entity addressable by later $ref values.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Kind is the snake_case entity kind, e.g. "judgement".
	Kind string `json:"kind" yaml:"kind"`
	// Add defaults to embed for bundle members and none for other kinds.
	Add    AddMode        `json:"add,omitempty" yaml:"add,omitempty"`
	Fields map[string]any `json:"fields,omitempty" yaml:"fields,omitempty"`
	// FromJudgement derives a verdict from the named judgement. Only valid
	// with kind verdict and no fields.
	FromJudgement string `json:"from_judgement,omitempty" yaml:"from_judgement,omitempty"`
}

// label names the entity in error messages.
func (s EntitySpec) label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Kind
}
