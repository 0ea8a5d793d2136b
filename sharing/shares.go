package sharing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fxfiles/fxshare/crypto"
	"github.com/fxfiles/fxshare/logging"
	"github.com/fxfiles/fxshare/share"
	"github.com/fxfiles/fxshare/store"
	"github.com/fxfiles/fxshare/utils"
)

// ShareRequest describes the content a new share should cover. Path is a
// bucket-relative scope: a file path for direct-file shares, a folder prefix
// otherwise.
type ShareRequest struct {
	Bucket      string
	Path        string
	Permissions share.Permissions
	ExpiryDays  int // 0 means the share never expires
	Label       string
	Mode        share.ShareMode
	Snapshot    *share.SnapshotBinding
	FileName    string
	ContentType string
	Size        int64
}

// GeneratedShareLink is the result of creating a link-style share. LinkSecret
// is set for public links only; it already rides in the Link fragment and is
// surfaced separately for callers that render it on its own.
type GeneratedShareLink struct {
	Share      *share.OutgoingShare
	Link       string
	LinkSecret []byte
}

// buildToken turns a request into a validated token minted by this identity
func (s *Service) buildToken(req *ShareRequest, shareType share.ShareType) (*share.ShareToken, error) {
	if err := utils.ValidatePathScope(req.Path); err != nil {
		return nil, fmt.Errorf("%w: %v", share.ErrMalformedToken, err)
	}

	mode := req.Mode
	if mode == "" {
		mode = share.ModeTemporal
	}
	permissions := req.Permissions
	if permissions == "" {
		permissions = share.PermReadOnly
	}

	now := time.Now().UTC()
	token := &share.ShareToken{
		ID:          share.NewShareID(),
		Type:        shareType,
		SenderID:    s.identity.ShareID(),
		Bucket:      req.Bucket,
		Path:        utils.NormalizePath(req.Path),
		FileName:    req.FileName,
		Size:        req.Size,
		ContentType: req.ContentType,
		Label:       req.Label,
		Permissions: permissions,
		Mode:        mode,
		Snapshot:    req.Snapshot,
		CreatedAt:   now,
	}
	if req.ExpiryDays > 0 {
		expires := now.AddDate(0, 0, req.ExpiryDays)
		token.ExpiresAt = &expires
	}
	return token, nil
}

// deriveDEK derives the data encryption key for the content a token covers.
// Objects are encrypted under their location key at upload, so both modes
// wrap that key: a snapshot binding pins which bytes get fetched, not which
// key they are sealed under, and the pinned ciphertext stays decryptable
// because re-uploads to the same location reuse the key.
func (s *Service) deriveDEK(token *share.ShareToken) ([]byte, error) {
	return crypto.DeriveContentDEK(s.identity.ContentKey, token.Bucket, token.Path)
}

// persistNewShare writes the share locally, records the activity, and pushes
// the outgoing set to the cloud. Only the local write can fail the operation.
func (s *Service) persistNewShare(ctx context.Context, outgoing *share.OutgoingShare, linkSecret []byte) error {
	if err := s.store.SaveOutgoing(ctx, outgoing, linkSecret); err != nil {
		return fmt.Errorf("failed to persist share: %w", err)
	}

	s.recordEvent(ctx, outgoing.Token.ID, store.ActionCreated, string(outgoing.Token.Type))
	s.uploadMirror(ctx)
	return nil
}

// ShareWithUser creates a share bound to a recipient's public key. The key is
// accepted in any Share ID form ParsePublicKey understands; the token carries
// the canonical form.
func (s *Service) ShareWithUser(ctx context.Context, req *ShareRequest, recipientKey, recipientName string) (*share.OutgoingShare, error) {
	pub, err := crypto.ParsePublicKey(recipientKey)
	if err != nil {
		return nil, err
	}

	token, err := s.buildToken(req, share.TypeRecipient)
	if err != nil {
		return nil, err
	}
	token.RecipientID = crypto.EncodeShareID(pub)

	dek, err := s.deriveDEK(token)
	if err != nil {
		return nil, err
	}

	token.WrappedKey, err = crypto.WrapDEKForRecipient(dek, pub)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap key for recipient: %w", err)
	}

	if err := token.Validate(); err != nil {
		return nil, err
	}

	outgoing := &share.OutgoingShare{Token: *token, RecipientName: recipientName}
	if err := s.persistNewShare(ctx, outgoing, nil); err != nil {
		return nil, err
	}

	logging.InfoLogger.Printf("Created recipient share %s for %s", token.ID, token.RecipientID)
	return outgoing, nil
}

// CreatePublicLink creates an anyone-with-the-link share. The DEK is wrapped
// with a fresh random link secret that travels only in the URL fragment; the
// secret is also retained in the local store so the link can be rebuilt.
func (s *Service) CreatePublicLink(ctx context.Context, req *ShareRequest) (*GeneratedShareLink, error) {
	token, err := s.buildToken(req, share.TypePublicLink)
	if err != nil {
		return nil, err
	}

	dek, err := s.deriveDEK(token)
	if err != nil {
		return nil, err
	}

	secret, err := crypto.GenerateLinkSecret()
	if err != nil {
		return nil, err
	}

	token.WrappedKey, err = crypto.WrapDEKWithSecret(dek, secret)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap key with link secret: %w", err)
	}

	if err := token.Validate(); err != nil {
		return nil, err
	}

	outgoing := &share.OutgoingShare{Token: *token}
	if err := s.persistNewShare(ctx, outgoing, secret); err != nil {
		return nil, err
	}

	link, err := s.GenerateShareLink(token, secret)
	if err != nil {
		return nil, err
	}

	logging.InfoLogger.Printf("Created public link share %s for %s%s", token.ID, token.Bucket, token.Path)
	return &GeneratedShareLink{Share: outgoing, Link: link, LinkSecret: secret}, nil
}

// CreatePasswordProtectedLink creates a link share whose DEK is wrapped with
// an Argon2ID key derived from the password. The password itself is never
// stored anywhere; losing it means the link cannot be rebuilt into a usable
// share.
func (s *Service) CreatePasswordProtectedLink(ctx context.Context, req *ShareRequest, password string) (*GeneratedShareLink, error) {
	if len(password) < crypto.SharePasswordMinLength {
		return nil, fmt.Errorf("%w: need at least %d characters", ErrWeakPassword, crypto.SharePasswordMinLength)
	}
	if strength := crypto.EvaluateSharePassword(password); strength.Score < 2 {
		// Advisory only: weak-but-legal passwords are the owner's call
		logging.WarningLogger.Printf("Weak share password accepted (score %d/4)", strength.Score)
	}

	token, err := s.buildToken(req, share.TypePasswordProtected)
	if err != nil {
		return nil, err
	}

	dek, err := s.deriveDEK(token)
	if err != nil {
		return nil, err
	}

	token.WrappedKey, err = crypto.WrapDEKWithPassword(dek, password)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap key with password: %w", err)
	}

	if err := token.Validate(); err != nil {
		return nil, err
	}

	outgoing := &share.OutgoingShare{Token: *token}
	if err := s.persistNewShare(ctx, outgoing, nil); err != nil {
		return nil, err
	}

	link, err := s.GenerateShareLink(token, nil)
	if err != nil {
		return nil, err
	}

	logging.InfoLogger.Printf("Created password-protected share %s for %s%s", token.ID, token.Bucket, token.Path)
	return &GeneratedShareLink{Share: outgoing, Link: link}, nil
}

// AcceptShare persists a received token on this device. Expired tokens are
// rejected; the link secret, when the share came in through a link fragment,
// is captured so later downloads can unwrap the DEK.
func (s *Service) AcceptShare(ctx context.Context, token *share.ShareToken, linkSecret []byte) (*share.AcceptedShare, error) {
	if err := token.Validate(); err != nil {
		return nil, err
	}
	if token.IsExpired(time.Now().UTC()) {
		return nil, fmt.Errorf("%w: share %s", ErrShareExpired, token.ID)
	}

	accepted := &share.AcceptedShare{
		Token:      *token,
		AcceptedAt: time.Now().UTC(),
		LinkSecret: linkSecret,
	}
	if err := s.store.SaveAccepted(ctx, accepted); err != nil {
		return nil, fmt.Errorf("failed to persist accepted share: %w", err)
	}

	s.recordEvent(ctx, token.ID, store.ActionAccepted, "from "+token.SenderID)
	logging.InfoLogger.Printf("Accepted share %s from %s", token.ID, token.SenderID)
	return accepted, nil
}

// AcceptShareFromString accepts a share from a bare encoded token. The link
// secret normally rides in a URL fragment; callers holding the token alone
// pass whatever secret came with it, or nil.
func (s *Service) AcceptShareFromString(ctx context.Context, encoded string, linkSecret []byte) (*share.AcceptedShare, error) {
	token, err := share.DecodeToken(encoded)
	if err != nil {
		return nil, err
	}
	return s.AcceptShare(ctx, token, linkSecret)
}

// AcceptShareFromURL accepts a share from a deep link or web link. URLs that
// are not share links at all are rejected with ErrInvalidShareLink.
func (s *Service) AcceptShareFromURL(ctx context.Context, rawURL string) (*share.AcceptedShare, error) {
	parsed, err := share.ParseLink(rawURL)
	if err != nil {
		return nil, err
	}
	if parsed == nil {
		return nil, fmt.Errorf("%w: not a share link", ErrInvalidShareLink)
	}

	token, err := share.DecodeToken(parsed.EncodedToken)
	if err != nil {
		return nil, err
	}
	if token.ID != parsed.ShareID {
		return nil, fmt.Errorf("%w: link share ID does not match its token", ErrInvalidShareLink)
	}

	return s.AcceptShare(ctx, token, parsed.LinkSecret)
}

// RevokeShare permanently disables an outgoing share. The record stays
// around so the owner keeps the revocation history; reconciliation spreads
// the flag to other devices and never reverts it.
func (s *Service) RevokeShare(ctx context.Context, id string) error {
	if err := s.store.MarkRevoked(ctx, id); err != nil {
		return s.mapNotFound(err, id)
	}

	s.recordEvent(ctx, id, store.ActionRevoked, "")
	s.uploadMirror(ctx)
	logging.InfoLogger.Printf("Revoked share %s", id)
	return nil
}

// DeleteShare removes an outgoing share record entirely
func (s *Service) DeleteShare(ctx context.Context, id string) error {
	if err := s.store.DeleteOutgoing(ctx, id); err != nil {
		return s.mapNotFound(err, id)
	}

	s.recordEvent(ctx, id, store.ActionDeleted, "")
	s.uploadMirror(ctx)
	return nil
}

// RemoveAcceptedShare forgets a share this device previously accepted
func (s *Service) RemoveAcceptedShare(ctx context.Context, id string) error {
	if err := s.store.DeleteAccepted(ctx, id); err != nil {
		return s.mapNotFound(err, id)
	}
	return nil
}

// ListOutgoing lists this device's outgoing shares. By default expired and
// revoked shares are filtered out; includeInvalid brings them back for
// history views.
func (s *Service) ListOutgoing(ctx context.Context, includeInvalid bool) ([]*share.OutgoingShare, error) {
	shares, err := s.store.ListOutgoing(ctx)
	if err != nil {
		return nil, err
	}
	if includeInvalid {
		return shares, nil
	}

	now := time.Now().UTC()
	valid := make([]*share.OutgoingShare, 0, len(shares))
	for _, outgoing := range shares {
		if outgoing.IsValid(now) {
			valid = append(valid, outgoing)
		}
	}
	return valid, nil
}

// ListAccepted lists the shares this device has accepted. Expired ones are
// filtered unless includeExpired is set.
func (s *Service) ListAccepted(ctx context.Context, includeExpired bool) ([]*share.AcceptedShare, error) {
	shares, err := s.store.ListAccepted(ctx)
	if err != nil {
		return nil, err
	}
	if includeExpired {
		return shares, nil
	}

	now := time.Now().UTC()
	live := make([]*share.AcceptedShare, 0, len(shares))
	for _, accepted := range shares {
		if !accepted.Token.IsExpired(now) {
			live = append(live, accepted)
		}
	}
	return live, nil
}

// SharesForPath returns the outgoing shares overlapping a path in either
// direction: parent-folder shares covering it and child shares beneath it
func (s *Service) SharesForPath(ctx context.Context, bucket, path string) ([]*share.OutgoingShare, error) {
	return s.store.SharesForPath(ctx, bucket, utils.NormalizePath(path))
}

// IsPathShared reports whether any outgoing share overlaps the path
func (s *Service) IsPathShared(ctx context.Context, bucket, path string) (bool, error) {
	return s.store.IsPathShared(ctx, bucket, utils.NormalizePath(path))
}

// GetOutgoing retrieves one outgoing share by ID
func (s *Service) GetOutgoing(ctx context.Context, id string) (*share.OutgoingShare, error) {
	outgoing, err := s.store.GetOutgoing(ctx, id)
	if err != nil {
		return nil, s.mapNotFound(err, id)
	}
	return outgoing, nil
}

// GetAccepted retrieves one accepted share by ID
func (s *Service) GetAccepted(ctx context.Context, id string) (*share.AcceptedShare, error) {
	accepted, err := s.store.GetAccepted(ctx, id)
	if err != nil {
		return nil, s.mapNotFound(err, id)
	}
	return accepted, nil
}

// GenerateShareLink renders the deep link for a token. The link secret, when
// given, rides in the fragment.
func (s *Service) GenerateShareLink(token *share.ShareToken, linkSecret []byte) (string, error) {
	encoded, err := share.EncodeToken(token)
	if err != nil {
		return "", err
	}
	return share.BuildLink(s.opts.LinkScheme, token.ID, encoded, linkSecret), nil
}

// GenerateWebLink renders the https form of a share link when a web base URL
// is configured
func (s *Service) GenerateWebLink(token *share.ShareToken, linkSecret []byte) (string, error) {
	if s.opts.WebBaseURL == "" {
		return "", fmt.Errorf("no web base URL configured")
	}
	encoded, err := share.EncodeToken(token)
	if err != nil {
		return "", err
	}
	return share.BuildWebLink(s.opts.WebBaseURL, token.ID, encoded, linkSecret), nil
}

// GenerateShareLinkFromOutgoing rebuilds the link for an existing share. For
// public links the retained secret is re-embedded; password-protected links
// never store a secret, so the bare link is returned and the password stays
// out of band.
func (s *Service) GenerateShareLinkFromOutgoing(ctx context.Context, outgoing *share.OutgoingShare) (string, error) {
	switch outgoing.Token.Type {
	case share.TypePublicLink:
		secret, err := s.store.GetOutgoingSecret(ctx, outgoing.Token.ID)
		if err != nil {
			return "", s.mapNotFound(err, outgoing.Token.ID)
		}
		if len(secret) == 0 {
			return "", fmt.Errorf("%w: share %s was created on another device", ErrLinkSecretUnavailable, outgoing.Token.ID)
		}
		return s.GenerateShareLink(&outgoing.Token, secret)
	default:
		return s.GenerateShareLink(&outgoing.Token, nil)
	}
}

// ShareActivity returns the local activity log for a share
func (s *Service) ShareActivity(ctx context.Context, id string) ([]*store.ShareEvent, error) {
	return s.store.ListEvents(ctx, id)
}

// recordEvent appends to the activity log. Bookkeeping only: a failed write
// never fails the operation that triggered it.
func (s *Service) recordEvent(ctx context.Context, shareID string, action store.ShareAction, detail string) {
	if err := s.store.RecordEvent(ctx, shareID, action, detail); err != nil {
		logging.WarningLogger.Printf("Share event %s for %s not recorded: %v", action, shareID, err)
	}
}

func (s *Service) mapNotFound(err error, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrShareNotFound, id)
	}
	return err
}
