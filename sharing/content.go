package sharing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fxfiles/fxshare/crypto"
	"github.com/fxfiles/fxshare/logging"
	"github.com/fxfiles/fxshare/share"
	"github.com/fxfiles/fxshare/store"
	"github.com/fxfiles/fxshare/storage"
	"github.com/fxfiles/fxshare/utils"
)

// objectKeyForPath maps a bucket-relative path to its object key
func objectKeyForPath(path string) string {
	return strings.TrimPrefix(utils.NormalizePath(path), "/")
}

// DownloadSharedFile fetches and decrypts the content behind an accepted
// share. Snapshot shares fetch the pinned version content-addressed via the
// binding's storage key; temporal shares fetch whatever currently lives at
// the shared location. The DEK is unwrapped per share type: the identity
// private key, the supplied password, or the link secret captured at accept
// time.
func (s *Service) DownloadSharedFile(ctx context.Context, accepted *share.AcceptedShare, password string) ([]byte, error) {
	token := &accepted.Token

	if token.IsExpired(time.Now().UTC()) {
		return nil, fmt.Errorf("%w: share %s", ErrShareExpired, token.ID)
	}

	// When this device is also the owner, honor its own revocation
	if outgoing, err := s.store.GetOutgoing(ctx, token.ID); err == nil && outgoing.Revoked {
		return nil, fmt.Errorf("%w: share %s", ErrShareRevoked, token.ID)
	}

	ciphertext, objectKey, err := s.fetchShareCiphertext(ctx, token)
	if err != nil {
		return nil, err
	}

	dek, err := s.unwrapDEK(token, accepted.LinkSecret, password)
	if err != nil {
		return nil, err
	}
	defer crypto.SecureZeroBytes(dek)

	plaintext, err := crypto.DecryptGCM(ciphertext, dek)
	if err != nil {
		return nil, fmt.Errorf("%w: content of share %s: %v", crypto.ErrDecryptionFailed, token.ID, err)
	}

	s.recordEvent(ctx, token.ID, store.ActionDownloaded, objectKey)
	return plaintext, nil
}

// SharedContent is a decrypted payload plus the token it was served under
type SharedContent struct {
	Data  []byte
	Token share.ShareToken
}

// OpenSharedContent serves one of this device's own shares to an anonymous
// caller, typically a browser following the web form of a share link. The
// DEK never needs the receiver's key material here: password shares gate on
// the supplied password, public-link shares unwrap with the locally retained
// secret. Recipient shares are sealed to a peer and are never served this
// way.
func (s *Service) OpenSharedContent(ctx context.Context, shareID, password string) (*SharedContent, error) {
	outgoing, err := s.store.GetOutgoing(ctx, shareID)
	if err != nil {
		return nil, s.mapNotFound(err, shareID)
	}
	token := &outgoing.Token

	if outgoing.Revoked {
		return nil, fmt.Errorf("%w: share %s", ErrShareRevoked, shareID)
	}
	if token.IsExpired(time.Now().UTC()) {
		return nil, fmt.Errorf("%w: share %s", ErrShareExpired, shareID)
	}

	var dek []byte
	switch token.Type {
	case share.TypePasswordProtected:
		if password == "" {
			return nil, fmt.Errorf("%w: password required for share %s", crypto.ErrDecryptionFailed, shareID)
		}
		dek, err = crypto.UnwrapDEKWithPassword(token.WrappedKey, password)

	case share.TypePublicLink:
		secret, secretErr := s.store.GetOutgoingSecret(ctx, shareID)
		if secretErr != nil {
			return nil, secretErr
		}
		if len(secret) == 0 {
			return nil, fmt.Errorf("%w: share %s was created on another device", ErrLinkSecretUnavailable, shareID)
		}
		dek, err = crypto.UnwrapDEKWithSecret(token.WrappedKey, secret)

	case share.TypeRecipient:
		return nil, fmt.Errorf("%w: share %s", ErrRecipientOnly, shareID)

	default:
		return nil, fmt.Errorf("%w: unknown share type %q", share.ErrMalformedToken, token.Type)
	}
	if err != nil {
		return nil, err
	}
	defer crypto.SecureZeroBytes(dek)

	ciphertext, objectKey, err := s.fetchShareCiphertext(ctx, token)
	if err != nil {
		return nil, err
	}

	plaintext, err := crypto.DecryptGCM(ciphertext, dek)
	if err != nil {
		return nil, fmt.Errorf("%w: content of share %s: %v", crypto.ErrDecryptionFailed, shareID, err)
	}

	s.recordEvent(ctx, shareID, store.ActionDownloaded, "web "+objectKey)
	return &SharedContent{Data: plaintext, Token: outgoing.Token}, nil
}

// fetchShareCiphertext pulls the encrypted object a token points at.
// Snapshot shares fetch content-addressed via the binding's storage key,
// immune to later edits of the live path.
func (s *Service) fetchShareCiphertext(ctx context.Context, token *share.ShareToken) ([]byte, string, error) {
	objectKey := objectKeyForPath(token.Path)
	if token.Mode == share.ModeSnapshot && token.Snapshot.StorageKey != "" {
		objectKey = token.Snapshot.StorageKey
	}

	obj, err := s.objects.GetObject(ctx, token.Bucket, objectKey, storage.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("%w: fetching %s/%s: %w", ErrObjectStore, token.Bucket, objectKey, err)
	}
	defer obj.Close()

	ciphertext, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", fmt.Errorf("%w: reading %s/%s: %w", ErrObjectStore, token.Bucket, objectKey, err)
	}
	return ciphertext, objectKey, nil
}

// unwrapDEK recovers the content key from a token's wrapped key material
func (s *Service) unwrapDEK(token *share.ShareToken, linkSecret []byte, password string) ([]byte, error) {
	switch token.Type {
	case share.TypeRecipient:
		kp := s.identity.KeyPair
		return crypto.UnwrapDEKForRecipient(token.WrappedKey, &kp.PublicKey, &kp.PrivateKey)

	case share.TypePasswordProtected:
		if password == "" {
			return nil, fmt.Errorf("%w: password required to unwrap this share", crypto.ErrDecryptionFailed)
		}
		return crypto.UnwrapDEKWithPassword(token.WrappedKey, password)

	case share.TypePublicLink:
		if len(linkSecret) == 0 {
			return nil, fmt.Errorf("%w: share %s was accepted without its key fragment", ErrLinkSecretUnavailable, token.ID)
		}
		return crypto.UnwrapDEKWithSecret(token.WrappedKey, linkSecret)

	default:
		return nil, fmt.Errorf("%w: unknown share type %q", share.ErrMalformedToken, token.Type)
	}
}

// ResolveSnapshotBinding builds the snapshot binding for a local file, if one
// can be trusted. Resolution order: the local sync state when it is synced
// and carries a CID-shaped etag; otherwise an authoritative metadata fetch
// from the object store, revalidated the same way. When no valid content
// identifier can be obtained the binding is simply omitted and the share
// degrades to temporal semantics. That is policy, not an error; only local
// persistence failures are returned.
func (s *Service) ResolveSnapshotBinding(ctx context.Context, localPath string) (*share.SnapshotBinding, error) {
	state, err := s.store.GetSyncState(ctx, localPath)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if state.Status == store.StatusSynced && share.IsValidCID(state.ETag) {
		return bindingFromSyncState(state), nil
	}

	if state.Bucket == "" || state.RemotePath == "" {
		return nil, nil
	}

	info, err := s.objects.GetObjectMetadata(ctx, state.Bucket, objectKeyForPath(state.RemotePath))
	if err != nil {
		logging.WarningLogger.Printf("Snapshot binding for %s degraded to temporal, metadata fetch failed: %v", localPath, err)
		return nil, nil
	}
	if !share.IsValidCID(info.ETag) {
		logging.DebugLogger.Printf("Snapshot binding for %s degraded to temporal, etag %q is not a content ID", localPath, info.ETag)
		return nil, nil
	}

	binding := &share.SnapshotBinding{
		ContentHash: state.ContentHash,
		Size:        info.Size,
		ModifiedAt:  info.LastModified,
		StorageKey:  info.ETag,
	}
	if binding.ContentHash == "" {
		binding.ContentHash = info.ETag
	}
	if state.LocalSize > 0 {
		binding.Size = state.LocalSize
	}
	return binding, nil
}

func bindingFromSyncState(state *store.SyncState) *share.SnapshotBinding {
	binding := &share.SnapshotBinding{
		ContentHash: state.ContentHash,
		Size:        state.LocalSize,
		StorageKey:  state.ETag,
	}
	if binding.ContentHash == "" {
		binding.ContentHash = state.ETag
	}
	if state.LastSyncedAt != nil {
		binding.ModifiedAt = *state.LastSyncedAt
	}
	return binding
}

// RecordUpload encrypts a local file's content under its location-bound DEK,
// pushes it to the object store, and records the sync state that snapshot
// binding resolution feeds on. The returned state carries the etag the
// backend reported, which doubles as the content ID on CID-aware backends.
func (s *Service) RecordUpload(ctx context.Context, localPath, bucket, remotePath string, data []byte, contentType string) (*store.SyncState, error) {
	normalized := utils.NormalizePath(remotePath)

	dek, err := crypto.DeriveContentDEK(s.identity.ContentKey, bucket, normalized)
	if err != nil {
		return nil, err
	}
	defer crypto.SecureZeroBytes(dek)

	ciphertext, err := crypto.EncryptGCM(data, dek)
	if err != nil {
		return nil, err
	}

	if err := s.store.PutSyncState(ctx, &store.SyncState{
		LocalPath:  localPath,
		Status:     store.StatusSyncing,
		Bucket:     bucket,
		RemotePath: normalized,
		LocalSize:  int64(len(data)),
	}); err != nil {
		return nil, err
	}

	objectKey := objectKeyForPath(normalized)
	info, err := s.objects.PutObject(ctx, bucket, objectKey,
		bytes.NewReader(ciphertext), int64(len(ciphertext)),
		storage.PutObjectOptions{ContentType: contentType})
	if err != nil {
		if stateErr := s.store.PutSyncState(ctx, &store.SyncState{
			LocalPath:  localPath,
			Status:     store.StatusError,
			Bucket:     bucket,
			RemotePath: normalized,
			LocalSize:  int64(len(data)),
		}); stateErr != nil {
			logging.ErrorLogger.Printf("Sync state for %s not updated after failed upload: %v", localPath, stateErr)
		}
		return nil, fmt.Errorf("%w: uploading %s/%s: %w", ErrObjectStore, bucket, normalized, err)
	}

	now := time.Now().UTC()
	state := &store.SyncState{
		LocalPath:    localPath,
		Status:       store.StatusSynced,
		ETag:         info.ETag,
		Bucket:       bucket,
		RemotePath:   normalized,
		LocalSize:    int64(len(data)),
		ContentHash:  crypto.CalculateFileHash(data),
		LastSyncedAt: &now,
	}
	if err := s.store.PutSyncState(ctx, state); err != nil {
		return nil, err
	}

	logging.InfoLogger.Printf("Uploaded %s to %s/%s (%d bytes)", localPath, bucket, objectKey, len(data))
	return state, nil
}

// ListSyncStates exposes the sync-state registry, most recently synced first
func (s *Service) ListSyncStates(ctx context.Context) ([]*store.SyncState, error) {
	return s.store.ListSyncStates(ctx)
}
