// Package fingerprint provides content addressing for claims.
//
// Fingerprints are exact: two claims share one iff their raw bytes are
// identical. There is no normalization or fuzzy matching.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Text fingerprints a textual claim on its raw, untranslated form.
func Text(claim string) string {
	return Bytes([]byte(claim))
}

// Bytes fingerprints raw content, such as image bytes.
func Bytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
