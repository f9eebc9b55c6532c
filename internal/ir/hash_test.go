package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSHA256Hex(t *testing.T) {
	// sha256("abc") from FIPS 180-2
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		SHA256Hex("abc"))
	assert.Len(t, SHA256Hex(""), 64)
}

func TestDigestIgnoresKeyOrder(t *testing.T) {
	a := RecordOf("type", "bundle", "title", "x")
	b := RecordOf("title", "x", "type", "bundle")

	assert.Equal(t, MustDigest(a), MustDigest(b))
	assert.NotEqual(t, MustDigest(a), MustDigest(RecordOf("type", "bundle")))
	assert.NotEqual(t, SHA256Hex(`{"title":"x","type":"bundle"}`), MustDigest(a),
		"digest is domain separated")
}
