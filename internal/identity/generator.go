package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Generator produces the random component of transient ids: 32 lowercase
// hex characters.
type Generator interface {
	Generate() string
}

// UUIDGenerator generates random (version 4) UUIDs with the hyphens removed.
//
// Uses github.com/google/uuid package for RFC 4122 compliant UUIDs.
//
// Thread-safety: UUIDGenerator is stateless and safe for concurrent use.
type UUIDGenerator struct{}

// Generate returns a fresh UUIDv4 as 32 hex characters.
//
// Panics if the system random source fails (should never happen in practice).
func (UUIDGenerator) Generate() string {
	return strings.ReplaceAll(uuid.Must(uuid.NewRandom()).String(), "-", "")
}

// FixedGenerator returns predetermined tokens for testing.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedGenerator creates a generator that returns tokens in order.
//
//	gen := NewFixedGenerator("aaaa", "bbbb")
//	gen.Generate() // "aaaa"
//	gen.Generate() // "bbbb"
//	gen.Generate() // panic: all tokens exhausted
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next predetermined token.
//
// Panics if all tokens have been consumed, which catches tests that
// construct more entities than they planned for.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.tokens) {
		panic("FixedGenerator: all tokens exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}

// SequenceGenerator returns 00000000000000000000000000000001, ...0002 and so
// on. Used for golden output where the number of entities is not fixed.
type SequenceGenerator struct {
	mu sync.Mutex
	n  uint64
}

// Generate returns the next counter value as 32 hex characters.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%032x", g.n)
}

type generatorKey struct{}

// WithGenerator returns a context carrying gen.
func WithGenerator(ctx context.Context, gen Generator) context.Context {
	return context.WithValue(ctx, generatorKey{}, gen)
}

// GeneratorFromContext returns the generator carried by ctx, or a
// UUIDGenerator when none is set.
func GeneratorFromContext(ctx context.Context) Generator {
	if ctx != nil {
		if gen, ok := ctx.Value(generatorKey{}).(Generator); ok && gen != nil {
			return gen
		}
	}
	return UUIDGenerator{}
}
