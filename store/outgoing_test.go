package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fxfiles/fxshare/share"
)

func TestOutgoing_SaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := time.Now().UTC().Truncate(time.Second)
	expires := created.Add(72 * time.Hour)
	tok := testToken("share-1", "/photos/cat.jpg", created)
	tok.ExpiresAt = &expires

	outgoing := &share.OutgoingShare{Token: tok, RecipientName: "alice"}
	secret := []byte("0123456789abcdef0123456789abcdef")
	require.NoError(t, s.SaveOutgoing(ctx, outgoing, secret))

	got, err := s.GetOutgoing(ctx, "share-1")
	require.NoError(t, err)
	assert.Equal(t, tok.ID, got.Token.ID)
	assert.Equal(t, tok.Path, got.Token.Path)
	assert.Equal(t, tok.WrappedKey, got.Token.WrappedKey)
	assert.Equal(t, "alice", got.RecipientName)
	assert.False(t, got.Revoked)
	require.NotNil(t, got.Token.ExpiresAt)
	assert.True(t, got.Token.ExpiresAt.Equal(expires))

	gotSecret, err := s.GetOutgoingSecret(ctx, "share-1")
	require.NoError(t, err)
	assert.Equal(t, secret, gotSecret)
}

func TestOutgoing_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetOutgoing(context.Background(), "no-such-share")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.GetOutgoingSecret(context.Background(), "no-such-share")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestOutgoing_UpsertKeepsSecretAndRevocation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tok := testToken("share-1", "/docs/report.pdf", time.Now().UTC())
	secret := []byte("the-original-link-secret-32bytes")
	require.NoError(t, s.SaveOutgoing(ctx, &share.OutgoingShare{Token: tok}, secret))
	require.NoError(t, s.MarkRevoked(ctx, "share-1"))

	// A later upsert without a secret and with revoked=false must not undo either
	require.NoError(t, s.SaveOutgoing(ctx, &share.OutgoingShare{Token: tok}, nil))

	got, err := s.GetOutgoing(ctx, "share-1")
	require.NoError(t, err)
	assert.True(t, got.Revoked)

	gotSecret, err := s.GetOutgoingSecret(ctx, "share-1")
	require.NoError(t, err)
	assert.Equal(t, secret, gotSecret)
}

func TestOutgoing_SecretAbsent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tok := testToken("share-1", "/docs/report.pdf", time.Now().UTC())
	tok.Type = share.TypePasswordProtected
	require.NoError(t, s.SaveOutgoing(ctx, &share.OutgoingShare{Token: tok}, nil))

	secret, err := s.GetOutgoingSecret(ctx, "share-1")
	require.NoError(t, err)
	assert.Nil(t, secret)
}

func TestOutgoing_ImportMergesWithoutTouchingSecrets(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	local := testToken("share-1", "/photos/cat.jpg", base)
	secret := []byte("locally-retained-secret-32-bytes")
	require.NoError(t, s.SaveOutgoing(ctx, &share.OutgoingShare{Token: local}, secret))

	// The cloud copy knows about a revocation and a share this device never saw
	remote := []*share.OutgoingShare{
		{Token: local, Revoked: true},
		{Token: testToken("share-2", "/music/track.mp3", base.Add(time.Minute)), RecipientName: "bob"},
	}
	require.NoError(t, s.ImportOutgoing(ctx, remote))

	got, err := s.GetOutgoing(ctx, "share-1")
	require.NoError(t, err)
	assert.True(t, got.Revoked)

	gotSecret, err := s.GetOutgoingSecret(ctx, "share-1")
	require.NoError(t, err)
	assert.Equal(t, secret, gotSecret, "import must not wipe local link secrets")

	imported, err := s.GetOutgoing(ctx, "share-2")
	require.NoError(t, err)
	assert.Equal(t, "bob", imported.RecipientName)

	// Importing the same set again changes nothing
	require.NoError(t, s.ImportOutgoing(ctx, remote))
	all, err := s.ListOutgoing(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestOutgoing_ListOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"share-old", "share-mid", "share-new"} {
		tok := testToken(id, "/f/"+id, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, s.SaveOutgoing(ctx, &share.OutgoingShare{Token: tok}, nil))
	}

	all, err := s.ListOutgoing(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "share-new", all[0].Token.ID)
	assert.Equal(t, "share-old", all[2].Token.ID)
}

func TestOutgoing_SharesForPath(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	folder := testToken("share-folder", "/photos", now)
	file := testToken("share-file", "/photos/trip/cat.jpg", now)
	other := testToken("share-other", "/docs/report.pdf", now)
	otherBucket := testToken("share-bucket", "/photos", now)
	otherBucket.Bucket = "fula-backup"

	for _, tok := range []share.ShareToken{folder, file, other, otherBucket} {
		require.NoError(t, s.SaveOutgoing(ctx, &share.OutgoingShare{Token: tok}, nil))
	}

	// A file inside a shared folder is covered by the folder share
	matches, err := s.SharesForPath(ctx, "fula-main", "/photos/trip/cat.jpg")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// Browsing the folder surfaces shares of items inside it
	matches, err = s.SharesForPath(ctx, "fula-main", "/photos")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// Sibling prefix is not containment
	matches, err = s.SharesForPath(ctx, "fula-main", "/photos2")
	require.NoError(t, err)
	assert.Empty(t, matches)

	shared, err := s.IsPathShared(ctx, "fula-main", "/photos/trip")
	require.NoError(t, err)
	assert.True(t, shared)

	shared, err = s.IsPathShared(ctx, "fula-main", "/music")
	require.NoError(t, err)
	assert.False(t, shared)
}

func TestOutgoing_RevokeAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tok := testToken("share-1", "/photos/cat.jpg", time.Now().UTC())
	require.NoError(t, s.SaveOutgoing(ctx, &share.OutgoingShare{Token: tok}, nil))

	require.NoError(t, s.MarkRevoked(ctx, "share-1"))
	got, err := s.GetOutgoing(ctx, "share-1")
	require.NoError(t, err)
	assert.True(t, got.Revoked)

	assert.True(t, errors.Is(s.MarkRevoked(ctx, "missing"), ErrNotFound))

	require.NoError(t, s.DeleteOutgoing(ctx, "share-1"))
	_, err = s.GetOutgoing(ctx, "share-1")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(s.DeleteOutgoing(ctx, "share-1"), ErrNotFound))
}
