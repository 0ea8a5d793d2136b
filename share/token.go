package share

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ShareType identifies how a share's DEK is protected
type ShareType string

const (
	TypeRecipient         ShareType = "recipient"         // sealed to a known peer's public key
	TypePublicLink        ShareType = "publicLink"        // link secret carried in the URL fragment
	TypePasswordProtected ShareType = "passwordProtected" // Argon2ID-derived key from a password
)

// Permissions granted to the receiver of a share
type Permissions string

const (
	PermReadOnly  Permissions = "readOnly"
	PermReadWrite Permissions = "readWrite"
	PermFull      Permissions = "full"
)

// ShareMode determines whether a share tracks the live object or a pinned snapshot
type ShareMode string

const (
	ModeTemporal ShareMode = "temporal" // follows the object at bucket/path
	ModeSnapshot ShareMode = "snapshot" // pinned to the content captured at share time
)

// SnapshotBinding pins a snapshot share to the exact content that was shared
type SnapshotBinding struct {
	ContentHash string    `json:"contentHash"`
	Size        int64     `json:"size"`
	ModifiedAt  time.Time `json:"modifiedAt"`
	StorageKey  string    `json:"storageKey,omitempty"`
}

// ShareToken is the immutable description of a single share. Everything the
// receiver needs to locate and decrypt the content travels inside the token;
// the token itself is what gets encoded into a share link. FileName and
// ContentType are set for direct-file shares and empty for folder shares,
// where Path is a prefix covering everything under it.
type ShareToken struct {
	ID          string           `json:"id"`
	Type        ShareType        `json:"shareType"`
	SenderID    string           `json:"senderId"`
	RecipientID string           `json:"recipientId,omitempty"`
	Bucket      string           `json:"bucket"`
	Path        string           `json:"path"`
	FileName    string           `json:"fileName,omitempty"`
	Size        int64            `json:"size"`
	ContentType string           `json:"contentType,omitempty"`
	Label       string           `json:"label,omitempty"`
	WrappedKey  []byte           `json:"wrappedKey"`
	Permissions Permissions      `json:"permissions"`
	Mode        ShareMode        `json:"shareMode"`
	Snapshot    *SnapshotBinding `json:"snapshot,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	ExpiresAt   *time.Time       `json:"expiresAt,omitempty"`
}

// NewShareID creates a new UUID v4 for share identification
func NewShareID() string {
	return uuid.New().String()
}

// Validate checks the structural invariants of a token
func (t *ShareToken) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: missing share ID", ErrMalformedToken)
	}
	if t.SenderID == "" {
		return fmt.Errorf("%w: missing sender ID", ErrMalformedToken)
	}
	if t.Bucket == "" || t.Path == "" {
		return fmt.Errorf("%w: missing object location", ErrMalformedToken)
	}
	if len(t.WrappedKey) == 0 {
		return fmt.Errorf("%w: missing wrapped key", ErrMalformedToken)
	}

	switch t.Type {
	case TypeRecipient:
		if t.RecipientID == "" {
			return fmt.Errorf("%w: recipient share without recipient ID", ErrMalformedToken)
		}
	case TypePublicLink, TypePasswordProtected:
		// No recipient binding
	default:
		return fmt.Errorf("%w: unknown share type %q", ErrMalformedToken, t.Type)
	}

	switch t.Permissions {
	case PermReadOnly, PermReadWrite, PermFull:
	default:
		return fmt.Errorf("%w: unknown permissions %q", ErrMalformedToken, t.Permissions)
	}

	// A snapshot share always carries its binding; a temporal share never does
	switch t.Mode {
	case ModeSnapshot:
		if t.Snapshot == nil {
			return fmt.Errorf("%w: snapshot share without binding", ErrMalformedToken)
		}
	case ModeTemporal:
		if t.Snapshot != nil {
			return fmt.Errorf("%w: temporal share with snapshot binding", ErrMalformedToken)
		}
	default:
		return fmt.Errorf("%w: unknown share mode %q", ErrMalformedToken, t.Mode)
	}

	if t.CreatedAt.IsZero() {
		return fmt.Errorf("%w: missing creation time", ErrMalformedToken)
	}

	return nil
}

// IsExpired reports whether the token has passed its expiry at the given time
func (t *ShareToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}

// OutgoingShare is the sender-side record of a share: the token plus the
// bookkeeping that can change after creation. RecipientName is display-only
// and stays empty for public and password links.
type OutgoingShare struct {
	Token         ShareToken `json:"token"`
	RecipientName string     `json:"recipientName,omitempty"`
	Revoked       bool       `json:"isRevoked"`
}

// IsExpired reports whether the underlying token has expired
func (s *OutgoingShare) IsExpired(now time.Time) bool {
	return s.Token.IsExpired(now)
}

// IsValid reports whether the share is still usable: not revoked, not expired
func (s *OutgoingShare) IsValid(now time.Time) bool {
	return !s.Revoked && !s.IsExpired(now)
}

// AcceptedShare is the receiver-side record of a share taken in from a link or
// token. It never syncs to the cloud mirror; each device accepts on its own.
type AcceptedShare struct {
	Token      ShareToken `json:"token"`
	AcceptedAt time.Time  `json:"acceptedAt"`
	LinkSecret []byte     `json:"linkSecret,omitempty"`
}
