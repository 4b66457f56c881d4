package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextDeterministic(t *testing.T) {
	a := Text("COVID vaccines are safe")
	b := Text("COVID vaccines are safe")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex-encoded sha256
}

func TestTextExactMatchOnly(t *testing.T) {
	// A single character difference yields an unrelated fingerprint; there
	// is no normalization or fuzzy matching.
	assert.NotEqual(t, Text("COVID vaccines are safe"), Text("COVID vaccines are safe "))
	assert.NotEqual(t, Text("claim"), Text("Claim"))
}

func TestBytesMatchesText(t *testing.T) {
	assert.Equal(t, Text("hello"), Bytes([]byte("hello")))
}

func TestBytesEmpty(t *testing.T) {
	assert.Len(t, Bytes(nil), 64)
	assert.Equal(t, Bytes(nil), Bytes([]byte{}))
}
