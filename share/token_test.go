package share

import (
	"errors"
	"testing"
	"time"
)

func testToken(typ ShareType, mode ShareMode) *ShareToken {
	token := &ShareToken{
		ID:          NewShareID(),
		Type:        typ,
		SenderID:    "FULA-c2VuZGVyLXB1YmxpYy1rZXktZm9yLXRlc3RzISE",
		Bucket:      "photos",
		Path:        "/vacation/beach.jpg",
		FileName:    "beach.jpg",
		Size:        2048,
		ContentType: "image/jpeg",
		Label:       "beach trip",
		WrappedKey:  []byte{0x01, 0x01, 0xde, 0xad, 0xbe, 0xef},
		Permissions: PermReadOnly,
		Mode:        mode,
		CreatedAt:   time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
	}

	if typ == TypeRecipient {
		token.RecipientID = "FULA-cmVjaXBpZW50LXB1YmxpYy1rZXktdGVzdCEh"
	}
	if mode == ModeSnapshot {
		token.Snapshot = &SnapshotBinding{
			ContentHash: "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi",
			Size:        2048,
			ModifiedAt:  time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
			StorageKey:  "photos/vacation/beach.jpg",
		}
	}

	return token
}

func TestTokenValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ShareToken)
		wantErr bool
	}{
		{"valid recipient temporal", func(tok *ShareToken) {}, false},
		{"missing ID", func(tok *ShareToken) { tok.ID = "" }, true},
		{"missing sender", func(tok *ShareToken) { tok.SenderID = "" }, true},
		{"missing bucket", func(tok *ShareToken) { tok.Bucket = "" }, true},
		{"missing path", func(tok *ShareToken) { tok.Path = "" }, true},
		{"folder share without file name", func(tok *ShareToken) { tok.FileName = ""; tok.ContentType = "" }, false},
		{"missing wrapped key", func(tok *ShareToken) { tok.WrappedKey = nil }, true},
		{"unknown share type", func(tok *ShareToken) { tok.Type = "carrier-pigeon" }, true},
		{"recipient without recipient ID", func(tok *ShareToken) { tok.RecipientID = "" }, true},
		{"unknown permissions", func(tok *ShareToken) { tok.Permissions = "admin" }, true},
		{"unknown mode", func(tok *ShareToken) { tok.Mode = "eventual" }, true},
		{"snapshot without binding", func(tok *ShareToken) { tok.Mode = ModeSnapshot }, true},
		{"zero creation time", func(tok *ShareToken) { tok.CreatedAt = time.Time{} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := testToken(TypeRecipient, ModeTemporal)
			tt.mutate(token)

			err := token.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedToken) {
					t.Errorf("Validate() error = %v, want ErrMalformedToken", err)
				}
			} else if err != nil {
				t.Errorf("Validate() error = %v, expected nil", err)
			}
		})
	}
}

func TestTokenValidateBindingInvariant(t *testing.T) {
	// The binding travels with snapshot shares and only snapshot shares
	snap := testToken(TypePublicLink, ModeSnapshot)
	if err := snap.Validate(); err != nil {
		t.Errorf("Snapshot token with binding should validate: %v", err)
	}

	snap.Snapshot = nil
	if err := snap.Validate(); !errors.Is(err, ErrMalformedToken) {
		t.Errorf("Snapshot token without binding: error = %v, want ErrMalformedToken", err)
	}

	temporal := testToken(TypePublicLink, ModeTemporal)
	temporal.Snapshot = &SnapshotBinding{ContentHash: "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG", Size: 1}
	if err := temporal.Validate(); !errors.Is(err, ErrMalformedToken) {
		t.Errorf("Temporal token with binding: error = %v, want ErrMalformedToken", err)
	}
}

func TestTokenIsExpired(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	token := testToken(TypePublicLink, ModeTemporal)
	if token.IsExpired(now) {
		t.Error("Token without expiry should never expire")
	}

	past := now.Add(-time.Hour)
	token.ExpiresAt = &past
	if !token.IsExpired(now) {
		t.Error("Token past its expiry should be expired")
	}

	future := now.Add(time.Hour)
	token.ExpiresAt = &future
	if token.IsExpired(now) {
		t.Error("Token before its expiry should not be expired")
	}

	// Expiry boundary is exclusive: exactly at ExpiresAt the token still works
	token.ExpiresAt = &now
	if token.IsExpired(now) {
		t.Error("Token exactly at its expiry instant should not yet be expired")
	}
}

func TestOutgoingShareIsValid(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	outgoing := &OutgoingShare{Token: *testToken(TypeRecipient, ModeTemporal)}
	if !outgoing.IsValid(now) {
		t.Error("Fresh share should be valid")
	}

	outgoing.Revoked = true
	if outgoing.IsValid(now) {
		t.Error("Revoked share should not be valid")
	}

	outgoing.Revoked = false
	past := now.Add(-time.Minute)
	outgoing.Token.ExpiresAt = &past
	if outgoing.IsValid(now) {
		t.Error("Expired share should not be valid")
	}
	if !outgoing.IsExpired(now) {
		t.Error("IsExpired should report the expiry")
	}
}
