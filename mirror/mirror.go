package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/fxfiles/fxshare/share"
	"github.com/fxfiles/fxshare/storage"
)

const manifestVersion = 1

// manifest is the cloud blob layout. The whole outgoing set travels in one
// document, overwritten wholesale on every upload.
type manifest struct {
	Version   int                    `json:"version"`
	UpdatedAt time.Time              `json:"updatedAt"`
	Shares    []*share.OutgoingShare `json:"shares"`
}

// Mirror replicates the outgoing-share set to a per-account object in cloud
// storage so every device logged into the account converges on the same set.
// The local store stays the source of truth; the blob is a secondary copy.
type Mirror struct {
	store   storage.ObjectStore
	bucket  string
	prefix  string
	account string
}

// New creates a mirror writing to bucket under prefix. The account ID keys
// the blob so accounts sharing a bucket never collide.
func New(store storage.ObjectStore, bucket, prefix, account string) *Mirror {
	return &Mirror{store: store, bucket: bucket, prefix: prefix, account: account}
}

// ObjectKey returns the cloud key the account's share manifest lives under
func (m *Mirror) ObjectKey() string {
	return path.Join(m.prefix, "shares", m.account+".json")
}

// Upload overwrites the cloud manifest with the given outgoing set. The
// outgoing model carries no link secrets, so the blob never does either.
func (m *Mirror) Upload(ctx context.Context, shares []*share.OutgoingShare) error {
	doc := manifest{
		Version:   manifestVersion,
		UpdatedAt: time.Now().UTC(),
		Shares:    shares,
	}
	if doc.Shares == nil {
		doc.Shares = []*share.OutgoingShare{}
	}

	blob, err := json.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to marshal share manifest: %w", err)
	}

	_, err = m.store.PutObject(ctx, m.bucket, m.ObjectKey(),
		bytes.NewReader(blob), int64(len(blob)),
		storage.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to upload share manifest: %w", err)
	}
	return nil
}

// Download fetches and decodes the cloud manifest. An account that has never
// uploaded gets an empty set, not an error.
func (m *Mirror) Download(ctx context.Context) ([]*share.OutgoingShare, error) {
	obj, err := m.store.GetObject(ctx, m.bucket, m.ObjectKey(), storage.GetObjectOptions{})
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return []*share.OutgoingShare{}, nil
		}
		return nil, fmt.Errorf("failed to download share manifest: %w", err)
	}
	defer obj.Close()

	blob, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read share manifest: %w", err)
	}
	if len(blob) == 0 {
		return []*share.OutgoingShare{}, nil
	}

	var doc manifest
	if err := json.Unmarshal(blob, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode share manifest: %w", err)
	}
	if doc.Version > manifestVersion {
		return nil, fmt.Errorf("share manifest version %d is newer than this build supports", doc.Version)
	}
	return doc.Shares, nil
}

// Merge reconciles two outgoing sets: union by share ID, the entry with the
// later CreatedAt wins a collision, and revocation is sticky in both
// directions. Merge never mutates its inputs; the result is a fresh slice.
// It is commutative up to ordering and idempotent.
func Merge(a, b []*share.OutgoingShare) []*share.OutgoingShare {
	merged := make(map[string]*share.OutgoingShare, len(a)+len(b))
	order := make([]string, 0, len(a)+len(b))

	absorb := func(next *share.OutgoingShare) {
		existing, seen := merged[next.Token.ID]
		if !seen {
			clone := *next
			merged[next.Token.ID] = &clone
			order = append(order, next.Token.ID)
			return
		}

		if next.Token.CreatedAt.After(existing.Token.CreatedAt) {
			clone := *next
			clone.Revoked = clone.Revoked || existing.Revoked
			merged[next.Token.ID] = &clone
			return
		}
		if next.Revoked {
			existing.Revoked = true
		}
	}

	for _, s := range a {
		absorb(s)
	}
	for _, s := range b {
		absorb(s)
	}

	result := make([]*share.OutgoingShare, 0, len(order))
	for _, id := range order {
		result = append(result, merged[id])
	}
	return result
}

// Sync downloads the cloud set, merges it with the local one, and reports
// whether the cloud copy is stale. The caller writes the merged set back to
// the local store and re-uploads when stale is true.
func (m *Mirror) Sync(ctx context.Context, local []*share.OutgoingShare) (merged []*share.OutgoingShare, stale bool, err error) {
	cloud, err := m.Download(ctx)
	if err != nil {
		return nil, false, err
	}

	merged = Merge(local, cloud)
	return merged, !sameShareSet(merged, cloud), nil
}

// sameShareSet compares two outgoing sets ignoring order. Tokens are
// immutable once minted, so identity plus the mutable bookkeeping fields
// decide equality.
func sameShareSet(a, b []*share.OutgoingShare) bool {
	if len(a) != len(b) {
		return false
	}

	index := make(map[string]*share.OutgoingShare, len(a))
	for _, s := range a {
		index[s.Token.ID] = s
	}
	for _, s := range b {
		other, ok := index[s.Token.ID]
		if !ok {
			return false
		}
		if other.Revoked != s.Revoked ||
			other.RecipientName != s.RecipientName ||
			!other.Token.CreatedAt.Equal(s.Token.CreatedAt) {
			return false
		}
	}
	return true
}
