package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/box"
)

// WrapMode identifies how the DEK inside a key envelope is protected
type WrapMode byte

const (
	WrapRecipient WrapMode = 0x01 // sealed to the recipient's X25519 public key
	WrapPassword  WrapMode = 0x02 // Argon2ID-derived key from a share password
	WrapLink      WrapMode = 0x03 // random link secret carried in the URL fragment
)

// EnvelopeVersion is the current key envelope format version
const EnvelopeVersion byte = 0x01

// LinkSecretSize is the length of the random secret for link-protected shares
const LinkSecretSize = 32

// ErrDecryptionFailed indicates a key envelope could not be opened with the
// supplied credential (wrong key, wrong password, or corrupted data).
var ErrDecryptionFailed = errors.New("decryption failed")

// WrapDEKForRecipient seals a DEK to the recipient's public key.
// Envelope: version + mode + anonymous box (ephemeral pubkey + ciphertext)
func WrapDEKForRecipient(dek []byte, recipientPub *[32]byte) ([]byte, error) {
	if len(dek) != 32 {
		return nil, fmt.Errorf("DEK must be 32 bytes")
	}

	sealed, err := box.SealAnonymous(nil, dek, recipientPub, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to seal DEK: %w", err)
	}

	result := []byte{EnvelopeVersion, byte(WrapRecipient)}
	result = append(result, sealed...)
	return result, nil
}

// UnwrapDEKForRecipient opens a recipient envelope with the recipient's keypair
func UnwrapDEKForRecipient(envelope []byte, pub, priv *[32]byte) ([]byte, error) {
	payload, err := envelopePayload(envelope, WrapRecipient)
	if err != nil {
		return nil, err
	}

	dek, ok := box.OpenAnonymous(nil, payload, pub, priv)
	if !ok {
		return nil, fmt.Errorf("%w: envelope not sealed for this key", ErrDecryptionFailed)
	}
	return dek, nil
}

// WrapDEKWithPassword protects a DEK under a share password.
// Envelope: version + mode + salt + AES-GCM ciphertext
func WrapDEKWithPassword(dek []byte, password string) ([]byte, error) {
	if len(dek) != 32 {
		return nil, fmt.Errorf("DEK must be 32 bytes")
	}

	salt, err := GenerateSalt(SaltSize)
	if err != nil {
		return nil, err
	}

	kek := DeriveKeyArgon2ID([]byte(password), salt, ArgonShare)
	encrypted, err := EncryptGCM(dek, kek)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt DEK: %w", err)
	}

	result := []byte{EnvelopeVersion, byte(WrapPassword)}
	result = append(result, salt...)
	result = append(result, encrypted...)
	return result, nil
}

// UnwrapDEKWithPassword opens a password envelope by re-deriving the KEK
func UnwrapDEKWithPassword(envelope []byte, password string) ([]byte, error) {
	payload, err := envelopePayload(envelope, WrapPassword)
	if err != nil {
		return nil, err
	}
	if len(payload) < SaltSize {
		return nil, fmt.Errorf("%w: envelope too short", ErrDecryptionFailed)
	}

	salt := payload[:SaltSize]
	encrypted := payload[SaltSize:]

	kek := DeriveKeyArgon2ID([]byte(password), salt, ArgonShare)
	dek, err := DecryptGCM(encrypted, kek)
	if err != nil {
		return nil, fmt.Errorf("%w: wrong password or corrupted envelope", ErrDecryptionFailed)
	}
	return dek, nil
}

// GenerateLinkSecret generates the random secret for a link-protected share
func GenerateLinkSecret() ([]byte, error) {
	secret := make([]byte, LinkSecretSize)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate link secret: %w", err)
	}
	return secret, nil
}

// WrapDEKWithSecret protects a DEK under a link secret.
// Envelope: version + mode + AES-GCM ciphertext
func WrapDEKWithSecret(dek, secret []byte) ([]byte, error) {
	if len(dek) != 32 {
		return nil, fmt.Errorf("DEK must be 32 bytes")
	}
	if len(secret) != LinkSecretSize {
		return nil, fmt.Errorf("link secret must be %d bytes", LinkSecretSize)
	}

	encrypted, err := EncryptGCM(dek, secret)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt DEK: %w", err)
	}

	result := []byte{EnvelopeVersion, byte(WrapLink)}
	result = append(result, encrypted...)
	return result, nil
}

// UnwrapDEKWithSecret opens a link envelope with the secret from the URL fragment
func UnwrapDEKWithSecret(envelope, secret []byte) ([]byte, error) {
	payload, err := envelopePayload(envelope, WrapLink)
	if err != nil {
		return nil, err
	}
	if len(secret) != LinkSecretSize {
		return nil, fmt.Errorf("%w: link secret must be %d bytes", ErrDecryptionFailed, LinkSecretSize)
	}

	dek, err := DecryptGCM(payload, secret)
	if err != nil {
		return nil, fmt.Errorf("%w: wrong link secret or corrupted envelope", ErrDecryptionFailed)
	}
	return dek, nil
}

// EnvelopeMode returns the wrap mode of a key envelope without opening it
func EnvelopeMode(envelope []byte) (WrapMode, error) {
	if len(envelope) < 2 {
		return 0, fmt.Errorf("%w: envelope too short", ErrDecryptionFailed)
	}
	if envelope[0] != EnvelopeVersion {
		return 0, fmt.Errorf("%w: unsupported envelope version: 0x%02x", ErrDecryptionFailed, envelope[0])
	}

	mode := WrapMode(envelope[1])
	switch mode {
	case WrapRecipient, WrapPassword, WrapLink:
		return mode, nil
	default:
		return 0, fmt.Errorf("%w: unsupported wrap mode: 0x%02x", ErrDecryptionFailed, envelope[1])
	}
}

// envelopePayload validates the envelope header and returns the bytes after it
func envelopePayload(envelope []byte, want WrapMode) ([]byte, error) {
	mode, err := EnvelopeMode(envelope)
	if err != nil {
		return nil, err
	}
	if mode != want {
		return nil, fmt.Errorf("%w: envelope wrap mode 0x%02x does not match credential", ErrDecryptionFailed, byte(mode))
	}
	return envelope[2:], nil
}
