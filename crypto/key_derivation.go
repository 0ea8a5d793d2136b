package crypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveContentDEK derives the data key content at a bucket location is
// sealed under. The key is stable across re-uploads to the same location, so
// a pinned version fetched content-addressed later still decrypts with it.
func DeriveContentDEK(contentKey []byte, bucket, path string) ([]byte, error) {
	if bucket == "" || path == "" {
		return nil, fmt.Errorf("bucket and path cannot be empty")
	}
	info := fmt.Sprintf("fxshare-dek:path:%s:%s", bucket, path)
	return hkdfExpand(contentKey, []byte(info), 32)
}

// DeriveStoreKey derives the at-rest key for local secret columns from the
// account content key.
func DeriveStoreKey(contentKey []byte) ([]byte, error) {
	return hkdfExpand(contentKey, []byte("fxshare-store-encryption"), 32)
}

// hkdfExpand performs HKDF-Expand operation
func hkdfExpand(prk []byte, info []byte, length int) ([]byte, error) {
	if len(prk) == 0 {
		return nil, fmt.Errorf("pseudorandom key cannot be empty")
	}

	if length <= 0 || length > 255*32 {
		return nil, fmt.Errorf("invalid output length: %d", length)
	}

	// Use HKDF-Expand with SHA-256
	reader := hkdf.Expand(sha256.New, prk, info)

	result := make([]byte, length)
	if _, err := io.ReadFull(reader, result); err != nil {
		return nil, fmt.Errorf("HKDF expand failed: %w", err)
	}

	return result, nil
}
