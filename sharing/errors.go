package sharing

import (
	"errors"

	"github.com/fxfiles/fxshare/share"
)

// Sentinel errors for the sharing surface. Callers match with errors.Is;
// messages wrapped around these carry the operation context.
var (
	// ErrWeakPassword rejects password-protected links whose password is
	// shorter than the minimum.
	ErrWeakPassword = errors.New("share password too weak")

	// ErrShareExpired means the share's expiry has passed. Expiry is checked
	// on accept and on access, never during decoding.
	ErrShareExpired = errors.New("share expired")

	// ErrShareRevoked means the owner has permanently disabled the share
	ErrShareRevoked = errors.New("share revoked")

	// ErrShareNotFound means no share with the given ID exists locally
	ErrShareNotFound = errors.New("share not found")

	// ErrLinkSecretUnavailable means a public link cannot be rebuilt because
	// the link secret was never stored on this device.
	ErrLinkSecretUnavailable = errors.New("link secret unavailable")

	// ErrRecipientOnly means the share is sealed to a specific peer's key
	// and cannot be served to anonymous callers.
	ErrRecipientOnly = errors.New("share is sealed to a recipient")

	// ErrCloudSyncFailed wraps mirror failures surfaced by explicit sync
	// calls. Share creation never returns it; there the mirror is
	// best-effort and failures are only logged.
	ErrCloudSyncFailed = errors.New("cloud share sync failed")

	// ErrObjectStore wraps failures from the object-store collaborator
	ErrObjectStore = errors.New("object store error")
)

// ErrInvalidShareLink re-exports the link parser's sentinel so callers of
// this package can match it without importing the codec package.
var ErrInvalidShareLink = share.ErrInvalidShareLink
