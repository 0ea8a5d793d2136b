package share

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	types := []ShareType{TypeRecipient, TypePublicLink, TypePasswordProtected}
	modes := []ShareMode{ModeTemporal, ModeSnapshot}

	for _, typ := range types {
		for _, mode := range modes {
			t.Run(string(typ)+"_"+string(mode), func(t *testing.T) {
				original := testToken(typ, mode)
				expiry := time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC)
				original.ExpiresAt = &expiry

				encoded, err := EncodeToken(original)
				if err != nil {
					t.Fatalf("EncodeToken() error = %v", err)
				}

				// Encoded tokens must be URL-safe as-is
				if strings.ContainsAny(encoded, "+/=") {
					t.Errorf("Encoded token contains non-URL-safe characters: %q", encoded)
				}

				decoded, err := DecodeToken(encoded)
				if err != nil {
					t.Fatalf("DecodeToken() error = %v", err)
				}

				if decoded.ID != original.ID {
					t.Errorf("ID = %q, want %q", decoded.ID, original.ID)
				}
				if decoded.Type != original.Type {
					t.Errorf("Type = %q, want %q", decoded.Type, original.Type)
				}
				if decoded.SenderID != original.SenderID {
					t.Errorf("SenderID = %q, want %q", decoded.SenderID, original.SenderID)
				}
				if decoded.RecipientID != original.RecipientID {
					t.Errorf("RecipientID = %q, want %q", decoded.RecipientID, original.RecipientID)
				}
				if decoded.Bucket != original.Bucket || decoded.Path != original.Path {
					t.Errorf("Location = %q/%q, want %q/%q", decoded.Bucket, decoded.Path, original.Bucket, original.Path)
				}
				if !bytes.Equal(decoded.WrappedKey, original.WrappedKey) {
					t.Error("WrappedKey does not survive the round trip")
				}
				if decoded.Permissions != original.Permissions {
					t.Errorf("Permissions = %q, want %q", decoded.Permissions, original.Permissions)
				}
				if decoded.FileName != original.FileName || decoded.Label != original.Label {
					t.Errorf("Metadata = %q/%q, want %q/%q", decoded.FileName, decoded.Label, original.FileName, original.Label)
				}
				if decoded.Mode != original.Mode {
					t.Errorf("Mode = %q, want %q", decoded.Mode, original.Mode)
				}
				if !decoded.CreatedAt.Equal(original.CreatedAt) {
					t.Errorf("CreatedAt = %v, want %v", decoded.CreatedAt, original.CreatedAt)
				}
				if decoded.ExpiresAt == nil || !decoded.ExpiresAt.Equal(*original.ExpiresAt) {
					t.Errorf("ExpiresAt = %v, want %v", decoded.ExpiresAt, original.ExpiresAt)
				}

				if mode == ModeSnapshot {
					if decoded.Snapshot == nil {
						t.Fatal("Snapshot binding lost in round trip")
					}
					if decoded.Snapshot.ContentHash != original.Snapshot.ContentHash {
						t.Errorf("ContentHash = %q, want %q", decoded.Snapshot.ContentHash, original.Snapshot.ContentHash)
					}
					if decoded.Snapshot.Size != original.Snapshot.Size {
						t.Errorf("Snapshot size = %d, want %d", decoded.Snapshot.Size, original.Snapshot.Size)
					}
				} else if decoded.Snapshot != nil {
					t.Error("Temporal token grew a snapshot binding")
				}
			})
		}
	}
}

func TestEncodeRejectsInvalidToken(t *testing.T) {
	token := testToken(TypeRecipient, ModeTemporal)
	token.Mode = ModeSnapshot // no binding attached

	if _, err := EncodeToken(token); !errors.Is(err, ErrMalformedToken) {
		t.Errorf("EncodeToken() error = %v, want ErrMalformedToken", err)
	}
}

func TestDecodeTokenMalformed(t *testing.T) {
	valid := testToken(TypePublicLink, ModeTemporal)
	validEncoded, err := EncodeToken(valid)
	if err != nil {
		t.Fatalf("EncodeToken() error = %v", err)
	}

	// Version byte 0x7f in front of otherwise valid JSON
	badVersion := base64.RawURLEncoding.EncodeToString(append([]byte{0x7f}, []byte(`{"id":"x"}`)...))
	// Correct version but garbage payload
	badJSON := base64.RawURLEncoding.EncodeToString([]byte{TokenVersion, '{', 'o', 'o', 'p', 's'})
	// Correct version, valid JSON, structurally invalid token
	badStructure := base64.RawURLEncoding.EncodeToString(append([]byte{TokenVersion}, []byte(`{"id":""}`)...))

	tests := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"not base64", "!!!not-base64!!!"},
		{"too short", base64.RawURLEncoding.EncodeToString([]byte{TokenVersion})},
		{"wrong version", badVersion},
		{"invalid JSON", badJSON},
		{"invalid structure", badStructure},
		{"truncated", validEncoded[:len(validEncoded)/2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeToken(tt.encoded); !errors.Is(err, ErrMalformedToken) {
				t.Errorf("DecodeToken(%q) error = %v, want ErrMalformedToken", tt.encoded, err)
			}
		})
	}
}

func TestDecodeTokenAcceptsPaddedBase64(t *testing.T) {
	token := testToken(TypeRecipient, ModeSnapshot)
	encoded, err := EncodeToken(token)
	if err != nil {
		t.Fatalf("EncodeToken() error = %v", err)
	}

	// Some transports re-encode with padding; both forms must decode
	raw, _ := base64.RawURLEncoding.DecodeString(encoded)
	padded := base64.URLEncoding.EncodeToString(raw)

	decoded, err := DecodeToken(padded)
	if err != nil {
		t.Fatalf("DecodeToken(padded) error = %v", err)
	}
	if decoded.ID != token.ID {
		t.Errorf("ID = %q, want %q", decoded.ID, token.ID)
	}
}
