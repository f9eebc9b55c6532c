package ctim

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/identity"
	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/ir"
	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/schema"
	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/session"
)

// Fields is the loosely typed input of a constructor.
type Fields = map[string]any

// Entity is a validated CTIM value. Its record must be treated as
// read-only; only Bundle mutates its own record.
type Entity struct {
	def  *Definition
	json *ir.Record
}

// New validates fields against the kind's schema and builds the entity.
//
// Identified primaries read the session and the id generator from ctx
// (see session.WithSession and identity.WithGenerator) and gain, in order,
// type, schema_version, source, source_uri, id and external_ids.
func New(ctx context.Context, kind Kind, fields Fields) (*Entity, error) {
	def, err := Lookup(kind)
	if err != nil {
		return nil, err
	}
	rec, err := def.Schema.Load(fields)
	if err != nil {
		return nil, err
	}

	e := &Entity{def: def, json: rec}
	switch {
	case def.Identified():
		e.initialize(ctx)
	case def.TypeTag() != "":
		rec.Set("type", def.TypeTag())
		rec.MoveToFront("type")
	}

	if def.Class == Primary {
		slog.Debug("entity constructed", "type", kind, "id", e.ID())
	}
	return e, nil
}

func (e *Entity) initialize(ctx context.Context) {
	s := session.FromContext(ctx)
	gen := identity.GeneratorFromContext(ctx)
	r := e.json
	kind := string(e.def.Kind)

	r.Set("type", kind)
	r.Set("schema_version", SchemaVersion)
	r.SetDefault("source", s.Source)
	r.SetDefault("source_uri", s.SourceURI)

	// Salts shape the deterministic ids but are not part of the document.
	rawSalts, _ := r.Delete("external_id_salt_values")
	salts := toStrings(rawSalts)

	r.Set("id", identity.TransientID(s.ExternalIDPrefix, kind, gen))

	generated := identity.ExternalIDs(s.ExternalIDPrefix, kind, e.def.Seeds(r), salts)
	supplied, _ := r.Value("external_ids").([]any)
	externalIDs := make([]any, 0, len(generated)+len(supplied))
	for _, id := range generated {
		externalIDs = append(externalIDs, id)
	}
	r.Set("external_ids", append(externalIDs, supplied...))

	r.MoveToFront(bookkeepingOrder...)
}

// Rehydrate validates an already serialized entity of the given kind.
// Bookkeeping keys (type, schema_version, id, ...) are checked and kept
// as given rather than regenerated; salt values are dropped.
func Rehydrate(kind Kind, data map[string]any) (*Entity, error) {
	def, err := Lookup(kind)
	if err != nil {
		return nil, err
	}

	data = maps.Clone(data)
	msgs := schema.Messages{}
	stamped := ir.NewRecord()
	for _, key := range def.stampedKeys() {
		v, ok := data[key]
		if !ok {
			continue
		}
		delete(data, key)
		s, isString := v.(string)
		switch {
		case !isString:
			msgs[key] = []string{schema.MsgString}
		case s == "":
			msgs[key] = []string{schema.MsgBlank}
		case key == "type" && s != def.TypeTag():
			msgs[key] = []string{fmt.Sprintf("Must be one of: '%s'.", def.TypeTag())}
		default:
			stamped.Set(key, s)
		}
	}

	rec, err := def.Schema.Load(data)
	if err != nil {
		verr, ok := err.(*schema.ValidationError)
		if !ok {
			return nil, err
		}
		maps.Copy(msgs, verr.Messages)
	}
	if len(msgs) > 0 {
		return nil, &schema.ValidationError{Messages: msgs}
	}

	if tag := def.TypeTag(); tag != "" {
		stamped.SetDefault("type", tag)
	}
	if def.Identified() {
		stamped.SetDefault("schema_version", SchemaVersion)
		rec.Delete("external_id_salt_values")
	}
	for _, key := range stamped.Keys() {
		rec.Set(key, stamped.Value(key))
	}
	rec.MoveToFront(bookkeepingOrder...)
	return &Entity{def: def, json: rec}, nil
}

// Decode parses a serialized entity and rehydrates it. The kind is taken
// from the leading "type" key, so only primaries and tagged secondaries
// can be decoded.
func Decode(data []byte) (*Entity, error) {
	var rec ir.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode entity: %w", err)
	}
	tag := rec.String("type")
	if tag == "" {
		return nil, fmt.Errorf("decode entity: missing \"type\"")
	}
	kind, err := kindForTag(tag)
	if err != nil {
		return nil, fmt.Errorf("decode entity: %w", err)
	}
	return Rehydrate(kind, rec.Map())
}

// Kind returns the entity kind.
func (e *Entity) Kind() Kind {
	if e == nil {
		return ""
	}
	return e.def.Kind
}

// Type returns the kind tag as a string.
func (e *Entity) Type() string {
	return string(e.Kind())
}

// Definition returns the kind definition.
func (e *Entity) Definition() *Definition {
	return e.def
}

// JSON returns the validated record.
func (e *Entity) JSON() *ir.Record {
	if e == nil {
		return nil
	}
	return e.json
}

// ID returns the transient id, or "" for kinds without identifiers.
func (e *Entity) ID() string {
	if e == nil {
		return ""
	}
	return e.json.String("id")
}

// ExternalIDs returns the external ids, generated ones first.
func (e *Entity) ExternalIDs() []string {
	return toStrings(e.json.Value("external_ids"))
}

// Get returns a field value, or nil when the field is absent.
func (e *Entity) Get(field string) any {
	return e.json.Value(field)
}

// MarshalJSON encodes the record with its key order.
func (e *Entity) MarshalJSON() ([]byte, error) {
	return e.json.MarshalJSON()
}

func (e *Entity) String() string {
	if id := e.ID(); id != "" {
		return fmt.Sprintf("%s(%s)", e.def.Name, id)
	}
	return e.def.Name
}

func toStrings(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, elem := range list {
		if s, ok := elem.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// datePart returns the date portion of an ISO timestamp, or "".
func datePart(ts string) string {
	date, _, _ := strings.Cut(ts, "T")
	return date
}
