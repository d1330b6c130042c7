package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest returns the hex SHA-256 of an encoded artifact. Two compositions
// that produce the same bytes report the same digest.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
