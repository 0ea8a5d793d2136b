package crypto

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	storeKeySize   = 32
	storeNonceSize = 24
)

// StoreCrypto seals small secret values (link secrets, wrapped keys) before
// they are written to the local database.
type StoreCrypto struct {
	key [storeKeySize]byte
}

// NewStoreCrypto creates a crypto instance from a 32-byte at-rest key,
// normally derived from the identity content key via DeriveStoreKey.
func NewStoreCrypto(key []byte) (*StoreCrypto, error) {
	if len(key) != storeKeySize {
		return nil, fmt.Errorf("store key must be %d bytes, got %d", storeKeySize, len(key))
	}
	sc := &StoreCrypto{}
	copy(sc.key[:], key)
	return sc, nil
}

// Seal encrypts a secret column value. Output: nonce + secretbox ciphertext.
func (sc *StoreCrypto) Seal(plaintext []byte) ([]byte, error) {
	var nonce [storeNonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("nonce generation: %w", err)
	}

	return secretbox.Seal(nonce[:], plaintext, &nonce, &sc.key), nil
}

// Open decrypts a sealed column value
func (sc *StoreCrypto) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < storeNonceSize {
		return nil, fmt.Errorf("%w: sealed value too short", ErrDecryptionFailed)
	}

	var nonce [storeNonceSize]byte
	copy(nonce[:], sealed[:storeNonceSize])

	plaintext, ok := secretbox.Open(nil, sealed[storeNonceSize:], &nonce, &sc.key)
	if !ok {
		return nil, fmt.Errorf("%w: invalid key or corrupted value", ErrDecryptionFailed)
	}
	return plaintext, nil
}
