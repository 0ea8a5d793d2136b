package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/nacl/box"
)

// ShareIDPrefix marks an encoded identity public key
const ShareIDPrefix = "FULA-"

// ErrInvalidKeyFormat indicates a peer ID or public key string could not be parsed
var ErrInvalidKeyFormat = errors.New("invalid key format")

// KeyPair is an X25519 keypair used for recipient-bound share envelopes
type KeyPair struct {
	PublicKey  [32]byte
	PrivateKey [32]byte
}

// GenerateKeyPair generates a fresh X25519 keypair
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}
	return &KeyPair{PublicKey: *pub, PrivateKey: *priv}, nil
}

// EncodeShareID renders a public key as a shareable peer ID
func EncodeShareID(pub *[32]byte) string {
	return ShareIDPrefix + base64.StdEncoding.EncodeToString(pub[:])
}

// ParsePublicKey parses a peer ID or bare base64 public key string.
// Accepts the prefixed form produced by EncodeShareID as well as raw base64.
func ParsePublicKey(s string) (*[32]byte, error) {
	s = strings.TrimSpace(s)

	var encoded string
	if strings.HasPrefix(s, ShareIDPrefix) {
		encoded = s[len(ShareIDPrefix):]
		if len(encoded) < 10 {
			return nil, fmt.Errorf("%w: peer ID too short", ErrInvalidKeyFormat)
		}
	} else {
		encoded = s
		if len(encoded) < 20 {
			return nil, fmt.Errorf("%w: public key too short", ErrInvalidKeyFormat)
		}
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// Tolerate unpadded input from hand-copied IDs
		raw, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("%w: not valid base64", ErrInvalidKeyFormat)
		}
	}

	if len(raw) != 32 {
		return nil, fmt.Errorf("%w: public key must be 32 bytes, got %d", ErrInvalidKeyFormat, len(raw))
	}

	var pub [32]byte
	copy(pub[:], raw)
	return &pub, nil
}
