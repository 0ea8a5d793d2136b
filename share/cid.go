package share

import "strings"

const (
	base32Alphabet = "abcdefghijklmnopqrstuvwxyz234567"
	base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
)

// IsValidCID reports whether a string looks like an IPFS content identifier.
// This is a shape check, not a multiformat decode: sync backends stuff CIDs
// into the etag column, and the shape is enough to tell them apart from
// MD5-style etags.
//
// Accepted shapes:
//   - CIDv1: base32, "baf" prefix, at least 50 characters
//   - CIDv0: base58, "Qm" prefix, exactly 46 characters
func IsValidCID(s string) bool {
	if strings.HasPrefix(s, "baf") && len(s) >= 50 {
		return containsOnly(s, base32Alphabet)
	}
	if strings.HasPrefix(s, "Qm") && len(s) == 46 {
		return containsOnly(s[2:], base58Alphabet)
	}
	return false
}

func containsOnly(s, alphabet string) bool {
	for _, r := range s {
		if !strings.ContainsRune(alphabet, r) {
			return false
		}
	}
	return true
}
