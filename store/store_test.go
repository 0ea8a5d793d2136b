package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fxfiles/fxshare/crypto"
	"github.com/fxfiles/fxshare/share"
)

// newTestStore opens a real sqlite database in a temp directory so tests
// exercise the migrations and the actual SQL.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i + 1)
	}
	sealer, err := crypto.NewStoreCrypto(key)
	require.NoError(t, err)

	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "fxshare.db"), sealer)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testToken(id, path string, created time.Time) share.ShareToken {
	return share.ShareToken{
		ID:          id,
		Type:        share.TypePublicLink,
		SenderID:    "FULA-8MH75vNK2Pz6QxWdYmTnRb",
		Bucket:      "fula-main",
		Path:        path,
		FileName:    filepath.Base(path),
		Size:        2048,
		ContentType: "image/jpeg",
		WrappedKey:  []byte("wrapped-dek-material"),
		Permissions: share.PermReadOnly,
		Mode:        share.ModeTemporal,
		CreatedAt:   created,
	}
}

func TestOpenRunsMigrations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// All four tables must exist and be queryable right after Open
	_, err := s.ListOutgoing(ctx)
	assert.NoError(t, err)
	_, err = s.ListAccepted(ctx)
	assert.NoError(t, err)
	_, err = s.ListSyncStates(ctx)
	assert.NoError(t, err)
	_, err = s.ListEvents(ctx, "any")
	assert.NoError(t, err)
}

func TestShareEvents_RecordAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordEvent(ctx, "share-1", ActionCreated, "public link"))
	require.NoError(t, s.RecordEvent(ctx, "share-1", ActionRevoked, ""))
	require.NoError(t, s.RecordEvent(ctx, "share-2", ActionAccepted, "from deep link"))

	events, err := s.ListEvents(ctx, "share-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionCreated, events[0].Action)
	assert.Equal(t, "public link", events[0].Detail)
	assert.Equal(t, ActionRevoked, events[1].Action)
	assert.False(t, events[0].CreatedAt.IsZero())

	events, err = s.ListEvents(ctx, "share-404")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestShareEvents_Prune(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordEvent(ctx, "share-1", ActionCreated, ""))
	require.NoError(t, s.RecordEvent(ctx, "share-1", ActionDownloaded, ""))

	// A generous retention keeps everything
	removed, err := s.PruneEvents(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)

	// A cutoff in the future drops everything
	removed, err = s.PruneEvents(ctx, -time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	events, err := s.ListEvents(ctx, "share-1")
	require.NoError(t, err)
	assert.Empty(t, events)
}

// The sqlmock tests cover failure propagation without needing to break sqlite.

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	key := make([]byte, 32)
	sealer, err := crypto.NewStoreCrypto(key)
	require.NoError(t, err)

	return NewWithDB(db, sealer), mock
}

func TestStore_QueryErrorsPropagate(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT token, recipient_name, is_revoked FROM outgoing_shares").
		WillReturnError(assert.AnError)
	_, err := s.ListOutgoing(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query outgoing shares")

	mock.ExpectExec("UPDATE outgoing_shares SET is_revoked").
		WillReturnError(assert.AnError)
	err = s.MarkRevoked(ctx, "share-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to revoke share")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CorruptTokenRejected(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"token", "recipient_name", "is_revoked"}).
		AddRow("{not json", "", false)
	mock.ExpectQuery("SELECT token, recipient_name, is_revoked FROM outgoing_shares WHERE id").
		WithArgs("share-1").
		WillReturnRows(rows)

	_, err := s.GetOutgoing(ctx, "share-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal token")

	assert.NoError(t, mock.ExpectationsWereMet())
}
