package crypto

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
)

// identityFileVersion is the current sealed key file format version
const identityFileVersion byte = 0x01

// Identity is the device identity: the X25519 keypair shares are addressed to,
// plus the account content key that per-file DEKs are derived from.
type Identity struct {
	KeyPair    *KeyPair
	ContentKey []byte
}

type identityPayload struct {
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
	ContentKey string `json:"content_key"`
}

// NewIdentity generates a fresh identity with a random keypair and content key
func NewIdentity() (*Identity, error) {
	kp, err := GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	contentKey, err := GenerateDEK()
	if err != nil {
		return nil, fmt.Errorf("failed to generate content key: %w", err)
	}

	return &Identity{KeyPair: kp, ContentKey: contentKey}, nil
}

// ShareID returns the peer ID other devices address shares to
func (id *Identity) ShareID() string {
	return EncodeShareID(&id.KeyPair.PublicKey)
}

// SaveIdentity seals an identity under the account secret and writes it to path.
// File layout: version + salt + AES-GCM blob of the JSON payload.
func SaveIdentity(path string, id *Identity, accountSecret string) error {
	payload := identityPayload{
		PublicKey:  base64.StdEncoding.EncodeToString(id.KeyPair.PublicKey[:]),
		PrivateKey: base64.StdEncoding.EncodeToString(id.KeyPair.PrivateKey[:]),
		ContentKey: base64.StdEncoding.EncodeToString(id.ContentKey),
	}

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal identity: %w", err)
	}

	salt, err := GenerateSalt(SaltSize)
	if err != nil {
		return err
	}

	kek := DeriveKeyArgon2ID([]byte(accountSecret), salt, ArgonIdentity)
	sealed, err := EncryptGCM(plaintext, kek)
	if err != nil {
		return fmt.Errorf("failed to seal identity: %w", err)
	}

	data := []byte{identityFileVersion}
	data = append(data, salt...)
	data = append(data, sealed...)

	// Restricted permissions: the file holds the private key
	return os.WriteFile(path, data, 0600)
}

// LoadIdentity reads and unseals the identity key file
func LoadIdentity(path string, accountSecret string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read identity file: %w", err)
	}

	if len(data) < 1+SaltSize {
		return nil, fmt.Errorf("%w: identity file too short", ErrDecryptionFailed)
	}
	if data[0] != identityFileVersion {
		return nil, fmt.Errorf("%w: unsupported identity file version: 0x%02x", ErrDecryptionFailed, data[0])
	}

	salt := data[1 : 1+SaltSize]
	sealed := data[1+SaltSize:]

	kek := DeriveKeyArgon2ID([]byte(accountSecret), salt, ArgonIdentity)
	plaintext, err := DecryptGCM(sealed, kek)
	if err != nil {
		return nil, fmt.Errorf("%w: wrong account secret or corrupted identity file", ErrDecryptionFailed)
	}

	var payload identityPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal identity: %w", err)
	}

	pub, err := base64.StdEncoding.DecodeString(payload.PublicKey)
	if err != nil || len(pub) != 32 {
		return nil, fmt.Errorf("%w: bad public key in identity file", ErrInvalidKeyFormat)
	}
	priv, err := base64.StdEncoding.DecodeString(payload.PrivateKey)
	if err != nil || len(priv) != 32 {
		return nil, fmt.Errorf("%w: bad private key in identity file", ErrInvalidKeyFormat)
	}
	contentKey, err := base64.StdEncoding.DecodeString(payload.ContentKey)
	if err != nil || len(contentKey) != 32 {
		return nil, fmt.Errorf("%w: bad content key in identity file", ErrInvalidKeyFormat)
	}

	id := &Identity{KeyPair: &KeyPair{}, ContentKey: contentKey}
	copy(id.KeyPair.PublicKey[:], pub)
	copy(id.KeyPair.PrivateKey[:], priv)
	return id, nil
}

// LoadOrCreateIdentity loads the identity key file, generating and saving a
// fresh identity on first run.
func LoadOrCreateIdentity(path string, accountSecret string) (*Identity, error) {
	if _, err := os.Stat(path); err == nil {
		return LoadIdentity(path, accountSecret)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat identity file: %w", err)
	}

	id, err := NewIdentity()
	if err != nil {
		return nil, err
	}
	if err := SaveIdentity(path, id, accountSecret); err != nil {
		return nil, err
	}
	return id, nil
}
