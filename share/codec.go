package share

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// TokenVersion is the current wire format version for encoded tokens
const TokenVersion byte = 0x01

// ErrMalformedToken indicates an encoded token that cannot be decoded into a
// structurally valid ShareToken.
var ErrMalformedToken = errors.New("malformed share token")

// EncodeToken serializes a token for transport inside a share link.
// Wire format: version byte + JSON payload, base64url without padding.
func EncodeToken(t *ShareToken) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}

	payload, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("failed to marshal token: %w", err)
	}

	raw := make([]byte, 0, len(payload)+1)
	raw = append(raw, TokenVersion)
	raw = append(raw, payload...)

	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeToken parses an encoded token and checks its structural invariants
func DecodeToken(encoded string) (*ShareToken, error) {
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformedToken)
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		// Tolerate padded input from URL-mangling transports
		raw, err = base64.URLEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("%w: not valid base64url", ErrMalformedToken)
		}
	}

	if len(raw) < 2 {
		return nil, fmt.Errorf("%w: token too short", ErrMalformedToken)
	}
	if raw[0] != TokenVersion {
		return nil, fmt.Errorf("%w: unsupported token version 0x%02x", ErrMalformedToken, raw[0])
	}

	var token ShareToken
	if err := json.Unmarshal(raw[1:], &token); err != nil {
		return nil, fmt.Errorf("%w: invalid payload: %v", ErrMalformedToken, err)
	}

	if err := token.Validate(); err != nil {
		return nil, err
	}

	return &token, nil
}
