package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// ArgonProfile defines Argon2ID parameters for different protection levels
type ArgonProfile struct {
	Time    uint32 // iterations
	Memory  uint32 // KB
	Threads uint8  // parallelism
	KeyLen  uint32 // output length in bytes
}

// Predefined profiles for different use cases
var (
	// ArgonIdentity - for sealing the local identity key file (runs once at startup)
	ArgonIdentity = ArgonProfile{
		Time:    2,
		Memory:  64 * 1024, // 64MB
		Threads: 2,
		KeyLen:  32,
	}

	// ArgonShare - for password-protected share links (offline-attack resistant)
	ArgonShare = ArgonProfile{
		Time:    4,
		Memory:  128 * 1024, // 128MB
		Threads: 4,
		KeyLen:  32,
	}
)

// SaltSize is the salt length used for Argon2ID derivations
const SaltSize = 16

// DeriveKeyArgon2ID derives a key using Argon2ID with the specified profile
func DeriveKeyArgon2ID(password, salt []byte, profile ArgonProfile) []byte {
	return argon2.IDKey(password, salt, profile.Time, profile.Memory, profile.Threads, profile.KeyLen)
}

// GenerateSalt generates a cryptographically secure random salt
func GenerateSalt(length int) ([]byte, error) {
	salt := make([]byte, length)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// ValidateProfile checks if an ArgonProfile has reasonable parameters
func ValidateProfile(profile ArgonProfile) error {
	if profile.Time == 0 {
		return fmt.Errorf("time parameter must be greater than 0")
	}
	if profile.Memory < 1024 { // At least 1MB
		return fmt.Errorf("memory parameter must be at least 1024 KB")
	}
	if profile.Threads == 0 {
		return fmt.Errorf("threads parameter must be greater than 0")
	}
	if profile.KeyLen == 0 {
		return fmt.Errorf("key length must be greater than 0")
	}
	return nil
}

