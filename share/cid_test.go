package share

import (
	"strings"
	"testing"
)

func TestIsValidCID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"CIDv1 base32", "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi", true},
		{"CIDv1 synthetic", "bafybeig" + strings.Repeat("x", 44), true},
		{"CIDv1 minimum length", "baf" + strings.Repeat("a", 47), true},
		{"CIDv1 below minimum length", "baf" + strings.Repeat("a", 46), false},
		{"CIDv1 uppercase rejected", "baf" + strings.Repeat("A", 47), false},
		{"CIDv1 invalid base32 digit", "baf" + strings.Repeat("a", 46) + "1", false},
		{"CIDv0 base58", "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG", true},
		{"CIDv0 synthetic", "Qm" + strings.Repeat("a", 44), true},
		{"CIDv0 too short", "Qm" + strings.Repeat("a", 10), false},
		{"CIDv0 too long", "Qm" + strings.Repeat("a", 45), false},
		{"CIDv0 excluded character zero", "Qm" + strings.Repeat("a", 43) + "0", false},
		{"CIDv0 excluded character l", "Qm" + strings.Repeat("a", 43) + "l", false},
		{"MD5-style etag", "d41d8cd98f00b204e9800998ecf8427e", false},
		{"short hex etag", "9e107d9d372bb6826bd81d3542a419d6", false},
		{"quoted etag", `"bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"`, false},
		{"empty", "", false},
		{"bare prefix v1", "baf", false},
		{"bare prefix v0", "Qm", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidCID(tt.input); got != tt.want {
				t.Errorf("IsValidCID(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
