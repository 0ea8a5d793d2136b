package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
)

// SecureCompare performs a constant-time comparison of two byte slices
// to prevent timing attacks.
func SecureCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// SecureZeroBytes securely zeros out a byte slice to prevent sensitive
// data from lingering in memory.
func SecureZeroBytes(slice []byte) {
	for i := range slice {
		slice[i] = 0
	}
}

// CalculateFileHash computes the SHA-256 hash of content as a hex string.
// Sync records carry it so snapshot bindings can tell whether local content
// still matches what was uploaded.
func CalculateFileHash(data []byte) string {
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}
