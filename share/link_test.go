package share

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestBuildAndParseLink(t *testing.T) {
	token := testToken(TypePublicLink, ModeSnapshot)
	encoded, err := EncodeToken(token)
	if err != nil {
		t.Fatalf("EncodeToken() error = %v", err)
	}
	secret := bytes.Repeat([]byte{0xab}, 32)

	link := BuildLink("fxfiles", token.ID, encoded, secret)
	if !strings.HasPrefix(link, "fxfiles://share/") {
		t.Errorf("Link = %q, want fxfiles://share/ prefix", link)
	}
	if !strings.Contains(link, "#key=") {
		t.Errorf("Link with secret should carry a key fragment: %q", link)
	}

	parsed, err := ParseLink(link)
	if err != nil {
		t.Fatalf("ParseLink() error = %v", err)
	}
	if parsed == nil {
		t.Fatal("ParseLink() returned nil for a share link")
	}
	if parsed.ShareID != token.ID {
		t.Errorf("ShareID = %q, want %q", parsed.ShareID, token.ID)
	}
	if parsed.EncodedToken != encoded {
		t.Errorf("EncodedToken does not survive the round trip")
	}
	if !bytes.Equal(parsed.LinkSecret, secret) {
		t.Error("LinkSecret does not survive the round trip")
	}

	// The decoded token must match what went in
	decoded, err := DecodeToken(parsed.EncodedToken)
	if err != nil {
		t.Fatalf("DecodeToken() error = %v", err)
	}
	if decoded.ID != token.ID {
		t.Errorf("Decoded token ID = %q, want %q", decoded.ID, token.ID)
	}
}

func TestBuildLinkWithoutSecret(t *testing.T) {
	token := testToken(TypePasswordProtected, ModeTemporal)
	encoded, err := EncodeToken(token)
	if err != nil {
		t.Fatalf("EncodeToken() error = %v", err)
	}

	link := BuildLink("fxfiles", token.ID, encoded, nil)
	if strings.Contains(link, "#") {
		t.Errorf("Link without secret should not carry a fragment: %q", link)
	}

	parsed, err := ParseLink(link)
	if err != nil {
		t.Fatalf("ParseLink() error = %v", err)
	}
	if parsed.LinkSecret != nil {
		t.Error("LinkSecret should be nil when the link has no fragment")
	}
}

func TestBuildWebLink(t *testing.T) {
	token := testToken(TypePublicLink, ModeTemporal)
	encoded, _ := EncodeToken(token)
	secret := bytes.Repeat([]byte{0x11}, 32)

	link := BuildWebLink("https://files.example.com/", token.ID, encoded, secret)
	if !strings.HasPrefix(link, "https://files.example.com/share/") {
		t.Errorf("Web link = %q, want base URL prefix", link)
	}

	parsed, err := ParseLink(link)
	if err != nil {
		t.Fatalf("ParseLink() error = %v", err)
	}
	if parsed == nil {
		t.Fatal("ParseLink() returned nil for a web share link")
	}
	if parsed.ShareID != token.ID {
		t.Errorf("ShareID = %q, want %q", parsed.ShareID, token.ID)
	}
	if !bytes.Equal(parsed.LinkSecret, secret) {
		t.Error("LinkSecret does not survive the web link round trip")
	}
}

func TestParseLinkNotAShareLink(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"unrelated https URL", "https://example.com/photos/beach.jpg"},
		{"unrelated deep link", "fxfiles://settings/storage"},
		{"bare words", "not a url at all"},
		{"empty", ""},
		{"mail link", "mailto:someone@example.com"},
		{"share elsewhere in path", "https://example.com/docs/share-guide"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseLink(tt.url)
			if err != nil {
				t.Errorf("ParseLink(%q) error = %v, want nil", tt.url, err)
			}
			if parsed != nil {
				t.Errorf("ParseLink(%q) = %+v, want nil", tt.url, parsed)
			}
		})
	}
}

func TestParseLinkBroken(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"missing token", "fxfiles://share/abc123"},
		{"missing share ID", "fxfiles://share/?token=xyz"},
		{"nested share ID", "https://example.com/share/a/b?token=xyz"},
		{"unrecognized fragment", "fxfiles://share/abc?token=xyz#section-2"},
		{"garbled key fragment", "fxfiles://share/abc?token=xyz#key=!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLink(tt.url)
			if !errors.Is(err, ErrInvalidShareLink) {
				t.Errorf("ParseLink(%q) error = %v, want ErrInvalidShareLink", tt.url, err)
			}
		})
	}
}
