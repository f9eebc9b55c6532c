// Package session holds the configuration that stamps provenance onto every
// primary entity: the external id prefix, the source name and the source URI.
//
// A process-wide current session exists for convenience. Callers that need
// isolation carry a Session explicitly in a context.Context; constructors
// read it with FromContext, which falls back to the process-wide value.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/schema"
)

// Defaults.
const (
	DefaultExternalIDPrefix = "ctim-bundle-builder"
	DefaultSource           = "CTIM Bundle Builder"
	DefaultSourceURI        = "https://github.com/CiscoSecurity/tr-05-ctim-bundle-builder"

	sourceMaxLength = 2048
)

// Session is an immutable provenance triple.
type Session struct {
	ExternalIDPrefix string `json:"external_id_prefix" yaml:"external_id_prefix"`
	Source           string `json:"source" yaml:"source"`
	SourceURI        string `json:"source_uri" yaml:"source_uri"`
}

var sessionSchema = &schema.Schema{
	Name: "Session",
	Fields: []schema.Field{
		{Name: "external_id_prefix", Type: schema.String{}, Required: true},
		{Name: "source", Type: schema.String{MaxLength: sourceMaxLength}, Required: true},
		{Name: "source_uri", Type: schema.String{}, Required: true},
	},
}

var (
	mu      sync.RWMutex
	current = Default()
)

// Default returns the built-in session.
func Default() Session {
	return Session{
		ExternalIDPrefix: DefaultExternalIDPrefix,
		Source:           DefaultSource,
		SourceURI:        DefaultSourceURI,
	}
}

// New validates and returns a session.
func New(externalIDPrefix, source, sourceURI string) (Session, error) {
	s := Session{ExternalIDPrefix: externalIDPrefix, Source: source, SourceURI: sourceURI}
	if err := s.Validate(); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Validate checks that every component is non-blank and that the source
// fits in 2048 characters. Failures are *schema.ValidationError.
func (s Session) Validate() error {
	_, err := sessionSchema.Load(map[string]any{
		"external_id_prefix": s.ExternalIDPrefix,
		"source":             s.Source,
		"source_uri":         s.SourceURI,
	})
	return err
}

// Get returns the process-wide current session.
func Get() Session {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Set validates the triple and makes it the process-wide current session.
// An invalid triple leaves the current session unchanged.
func Set(externalIDPrefix, source, sourceURI string) error {
	s, err := New(externalIDPrefix, source, sourceURI)
	if err != nil {
		return err
	}
	swap(s)
	return nil
}

// SetDefault restores the built-in session.
func SetDefault() {
	swap(Default())
}

// Use validates s, makes it current and returns a function that restores
// exactly the session that was current before the call. Nested uses
// unwind correctly when the restore functions are deferred.
//
//	restore, err := s.Use()
//	if err != nil {
//		return err
//	}
//	defer restore()
func (s Session) Use() (restore func(), err error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	previous := swap(s)
	return func() { swap(previous) }, nil
}

func swap(s Session) Session {
	mu.Lock()
	defer mu.Unlock()
	previous := current
	current = s
	slog.Debug("session changed", "external_id_prefix", s.ExternalIDPrefix, "source", s.Source)
	return previous
}

type sessionKey struct{}

// WithSession returns a context carrying s after validating it.
func WithSession(ctx context.Context, s Session) (context.Context, error) {
	if err := s.Validate(); err != nil {
		return ctx, fmt.Errorf("invalid session: %w", err)
	}
	return context.WithValue(ctx, sessionKey{}, s), nil
}

// FromContext returns the session carried by ctx, or the process-wide
// current session when ctx carries none.
func FromContext(ctx context.Context) Session {
	if ctx != nil {
		if s, ok := ctx.Value(sessionKey{}).(Session); ok {
			return s
		}
	}
	return Get()
}
