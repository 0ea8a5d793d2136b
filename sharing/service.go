package sharing

import (
	"context"
	"fmt"
	"sync"

	"github.com/fxfiles/fxshare/crypto"
	"github.com/fxfiles/fxshare/logging"
	"github.com/fxfiles/fxshare/mirror"
	"github.com/fxfiles/fxshare/share"
	"github.com/fxfiles/fxshare/store"
	"github.com/fxfiles/fxshare/storage"
)

// Options carries the non-collaborator knobs of the service
type Options struct {
	// LinkScheme is the deep-link scheme share links are minted under
	LinkScheme string

	// WebBaseURL, when set, is the https base the daemon serves share
	// pages from. Empty means deep links only.
	WebBaseURL string
}

// Service is the public operation surface of the sharing subsystem. All
// collaborators are injected; nothing here reaches for package-level state.
type Service struct {
	store    *store.Store
	mirror   *mirror.Mirror // nil when cloud mirroring is disabled
	objects  storage.ObjectStore
	identity *crypto.Identity
	opts     Options

	initMu      sync.Mutex
	initialized bool
}

// NewService wires the service together. Call Initialize before use.
func NewService(st *store.Store, m *mirror.Mirror, objects storage.ObjectStore, identity *crypto.Identity, opts Options) *Service {
	if opts.LinkScheme == "" {
		opts.LinkScheme = "fxfiles"
	}
	return &Service{
		store:    st,
		mirror:   m,
		objects:  objects,
		identity: identity,
		opts:     opts,
	}
}

// ShareID returns the user-facing identity this service creates shares as
func (s *Service) ShareID() string {
	return s.identity.ShareID()
}

// Initialize performs the one-time startup work: when the local outgoing set
// is empty and a cloud manifest exists, the cloud set is adopted without user
// action, so a fresh device converges on the account's shares. Concurrent
// callers are serialized; only the first one does the work.
func (s *Service) Initialize(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.initialized {
		return nil
	}

	local, err := s.store.ListOutgoing(ctx)
	if err != nil {
		return fmt.Errorf("failed to load outgoing shares: %w", err)
	}

	if len(local) == 0 && s.mirror != nil {
		cloud, err := s.mirror.Download(ctx)
		if err != nil {
			// The cloud is best-effort at startup; a later explicit
			// SyncFromCloud surfaces persistent failures to the user.
			logging.WarningLogger.Printf("Share restore from cloud skipped: %v", err)
		} else if len(cloud) > 0 {
			if err := s.store.ImportOutgoing(ctx, cloud); err != nil {
				return fmt.Errorf("failed to adopt cloud shares: %w", err)
			}
			logging.InfoLogger.Printf("Restored %d outgoing shares from cloud", len(cloud))
		}
	}

	s.initialized = true
	return nil
}

// SyncFromCloud reconciles the local outgoing set with the cloud manifest:
// download, merge, write the merged set locally, and re-upload when the cloud
// copy is stale. Unlike the mirror writes piggybacked on share creation, this
// explicit call surfaces failures to the caller.
func (s *Service) SyncFromCloud(ctx context.Context) ([]*share.OutgoingShare, error) {
	if s.mirror == nil {
		return nil, fmt.Errorf("%w: cloud mirroring is disabled", ErrCloudSyncFailed)
	}

	local, err := s.store.ListOutgoing(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load outgoing shares: %w", err)
	}

	merged, stale, err := s.mirror.Sync(ctx, local)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCloudSyncFailed, err)
	}

	if err := s.store.ImportOutgoing(ctx, merged); err != nil {
		return nil, fmt.Errorf("failed to store merged shares: %w", err)
	}

	if stale {
		if err := s.mirror.Upload(ctx, merged); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCloudSyncFailed, err)
		}
		logging.InfoLogger.Printf("Cloud share manifest refreshed with %d shares", len(merged))
	}

	return merged, nil
}

// uploadMirror pushes the full outgoing set to the cloud. Share creation and
// revocation must never fail on cloud trouble, so errors are logged and
// swallowed here.
func (s *Service) uploadMirror(ctx context.Context) {
	if s.mirror == nil {
		return
	}

	shares, err := s.store.ListOutgoing(ctx)
	if err != nil {
		logging.ErrorLogger.Printf("Mirror upload skipped, cannot read local shares: %v", err)
		return
	}

	if err := s.mirror.Upload(ctx, shares); err != nil {
		logging.WarningLogger.Printf("Mirror upload failed, will retry on next sync: %v", err)
	}
}
