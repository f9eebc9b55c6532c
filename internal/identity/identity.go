// Package identity derives CTIM entity identifiers.
//
// Two shapes exist:
//
//	transient:<prefix>-<type>-<32 hex>        random, one per construction
//	<prefix>-<type>-<sha256 hex>              deterministic, from seed values
//
// The deterministic hash input is the "|"-joined non-empty seed values
// followed by the sorted salt values. The prefix only formats the result.
package identity

import (
	"slices"
	"strings"

	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/ir"
)

// Separator joins seed components before hashing.
const Separator = "|"

// TransientPrefix marks identifiers that are only meaningful within one
// bundle submission.
const TransientPrefix = "transient:"

// TransientID returns "transient:<prefix>-<type>-<token>" with a token from gen.
func TransientID(prefix, entityType string, gen Generator) string {
	return TransientPrefix + prefix + "-" + entityType + "-" + gen.Generate()
}

// DeterministicValue joins the non-empty seed and salt values with Separator.
// Salts are appended in the order given; callers sort them first.
func DeterministicValue(seed []string, salts []string) string {
	parts := make([]string, 0, len(seed)+len(salts))
	for _, v := range slices.Concat(seed, salts) {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, Separator)
}

// ExternalID returns "<prefix>-<type>-<sha256(DeterministicValue(seed, salts))>".
func ExternalID(prefix, entityType string, seed, salts []string) string {
	return prefix + "-" + entityType + "-" + ir.SHA256Hex(DeterministicValue(seed, salts))
}

// ExternalIDs derives one external id per seed tuple. Salts are sorted
// so that their input order never changes the result.
func ExternalIDs(prefix, entityType string, seeds [][]string, salts []string) []string {
	sorted := slices.Clone(salts)
	slices.Sort(sorted)
	ids := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		ids = append(ids, ExternalID(prefix, entityType, seed, sorted))
	}
	return ids
}

// IsTransient reports whether id has the transient shape.
func IsTransient(id string) bool {
	return strings.HasPrefix(id, TransientPrefix)
}
