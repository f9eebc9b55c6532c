package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/ctim"
	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/schema"
	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/session"
)

// Result is a built document.
type Result struct {
	Bundle *ctim.Bundle
	// Entities holds every built entity in document order.
	Entities []*ctim.Entity
	// Named indexes Entities by name.
	Named map[string]*ctim.Entity
}

// EntityError is the failure of one document entry. Index is -1 for the
// document's session and bundle.
type EntityError struct {
	Index int
	Name  string
	Code  string
	Err   error
}

func (e *EntityError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s: %v", e.Name, e.Code, e.Err)
	}
	return fmt.Sprintf("entities[%d] (%s): %s: %v", e.Index, e.Name, e.Code, e.Err)
}

func (e *EntityError) Unwrap() error { return e.Err }

// BuildError collects every entry that failed to build.
type BuildError struct {
	Errors []*EntityError
}

func (e *BuildError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		parts[i] = err.Error()
	}
	noun := "entries"
	if len(e.Errors) == 1 {
		noun = "entry"
	}
	return fmt.Sprintf("%d %s failed to build:\n  %s", len(e.Errors), noun, strings.Join(parts, "\n  "))
}

func (e *BuildError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

// Build constructs the bundle, then each entity in document order, adding
// it to the bundle as its add mode says. Entity failures do not stop the
// build; they are returned together as a *BuildError. A failing session or
// bundle stops the build immediately.
func Build(ctx context.Context, doc *Document) (*Result, error) {
	ctx, err := withDocumentSession(ctx, doc.Session)
	if err != nil {
		return nil, &BuildError{Errors: []*EntityError{{Index: -1, Name: "session", Code: ErrCodeSession, Err: err}}}
	}

	b := &builder{named: map[string]*ctim.Entity{}, failed: map[string]bool{}}
	bundleFields, err := b.resolve(doc.Bundle)
	if err == nil {
		b.bundle, err = ctim.NewBundle(ctx, bundleFields)
	}
	if err != nil {
		return nil, &BuildError{Errors: []*EntityError{{Index: -1, Name: "bundle", Code: codeOf(err), Err: err}}}
	}

	var errs []*EntityError
	for i, spec := range doc.Entities {
		if err := b.entity(ctx, spec); err != nil {
			errs = append(errs, &EntityError{Index: i, Name: spec.label(), Code: codeOf(err), Err: err})
			if spec.Name != "" {
				b.failed[spec.Name] = true
			}
		}
	}
	if len(errs) > 0 {
		return nil, &BuildError{Errors: errs}
	}

	slog.Info("bundle built", "bundle", b.bundle.ID(), "entities", len(b.built))
	return &Result{Bundle: b.bundle, Entities: b.built, Named: b.named}, nil
}

func withDocumentSession(ctx context.Context, override *session.Session) (context.Context, error) {
	if override == nil {
		return ctx, nil
	}
	s := session.FromContext(ctx)
	if override.ExternalIDPrefix != "" {
		s.ExternalIDPrefix = override.ExternalIDPrefix
	}
	if override.Source != "" {
		s.Source = override.Source
	}
	if override.SourceURI != "" {
		s.SourceURI = override.SourceURI
	}
	return session.WithSession(ctx, s)
}

type builder struct {
	bundle *ctim.Bundle
	built  []*ctim.Entity
	named  map[string]*ctim.Entity
	failed map[string]bool
}

// codedError carries a loader error code through the build.
type codedError struct {
	code string
	msg  string
}

func (e *codedError) Error() string { return e.msg }

func coded(code, format string, args ...any) error {
	return &codedError{code: code, msg: fmt.Sprintf(format, args...)}
}

func codeOf(err error) string {
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.code
	}
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		return ErrCodeInvalid
	}
	return ErrCodeGeneric
}

func (b *builder) entity(ctx context.Context, spec EntitySpec) error {
	if spec.Name != "" {
		if _, ok := b.named[spec.Name]; ok || b.failed[spec.Name] {
			return coded(ErrCodeDuplicateName, "name %q is already used", spec.Name)
		}
	}

	kind := ctim.Kind(spec.Kind)
	if _, err := ctim.Lookup(kind); err != nil {
		return coded(ErrCodeUnknownKind, "unknown entity kind %q", spec.Kind)
	}
	if kind == ctim.KindBundle {
		return coded(ErrCodeUnknownKind, "bundles cannot be nested; use the document's bundle section")
	}

	member := slices.Contains(ctim.Members, kind)
	mode := spec.Add
	switch mode {
	case "":
		mode = AddNone
		if member {
			mode = AddEmbed
		}
	case AddEmbed, AddReference, AddNone:
	default:
		return coded(ErrCodeInvalidAdd, "add must be one of %q, %q or %q, not %q", AddEmbed, AddReference, AddNone, mode)
	}

	e, err := b.construct(ctx, kind, spec)
	if err != nil {
		return err
	}
	if mode != AddNone {
		if err := b.bundle.Add(e, mode == AddReference); err != nil {
			return err
		}
	}

	b.built = append(b.built, e)
	if spec.Name != "" {
		b.named[spec.Name] = e
	}
	slog.Debug("document entity built", "name", spec.Name, "kind", kind, "add", mode)
	return nil
}

func (b *builder) construct(ctx context.Context, kind ctim.Kind, spec EntitySpec) (*ctim.Entity, error) {
	if spec.FromJudgement == "" {
		fields, err := b.resolve(spec.Fields)
		if err != nil {
			return nil, err
		}
		return ctim.New(ctx, kind, fields)
	}

	if kind != ctim.KindVerdict {
		return nil, coded(ErrCodeDerivation, "from_judgement is only valid for verdicts")
	}
	if len(spec.Fields) > 0 {
		return nil, coded(ErrCodeDerivation, "from_judgement cannot be combined with fields")
	}
	j, err := b.lookup(spec.FromJudgement)
	if err != nil {
		return nil, err
	}
	return ctim.NewVerdictFromJudgement(ctx, j)
}

func (b *builder) lookup(name string) (*ctim.Entity, error) {
	if e, ok := b.named[name]; ok {
		return e, nil
	}
	if b.failed[name] {
		return nil, coded(ErrCodeUnresolved, "%q failed to build", name)
	}
	return nil, coded(ErrCodeUnresolved, "no entity named %q is defined before this one", name)
}

// resolve returns a copy of fields with every {"$ref": name} replaced by the
// named entity.
func (b *builder) resolve(fields map[string]any) (map[string]any, error) {
	if fields == nil {
		return nil, nil
	}
	v, err := b.resolveValue(fields)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, coded(ErrCodeInvalid, "fields must be a mapping, not a %s", RefKey)
	}
	return m, nil
}

func (b *builder) resolveValue(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		if name, ok := refName(val); ok {
			return b.lookup(name)
		}
		out := make(map[string]any, len(val))
		for k, elem := range val {
			r, err := b.resolveValue(elem)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			r, err := b.resolveValue(elem)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	}
	return v, nil
}

func refName(m map[string]any) (string, bool) {
	if len(m) != 1 {
		return "", false
	}
	name, ok := m[RefKey].(string)
	return name, ok
}
