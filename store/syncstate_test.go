package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncState_PutAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	syncedAt := time.Now().UTC().Truncate(time.Second)
	state := &SyncState{
		LocalPath:    "/home/user/photos/cat.jpg",
		Status:       StatusSynced,
		ETag:         "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi",
		Bucket:       "fula-main",
		RemotePath:   "/photos/cat.jpg",
		LocalSize:    2048,
		ContentHash:  "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi",
		LastSyncedAt: &syncedAt,
	}
	require.NoError(t, s.PutSyncState(ctx, state))

	got, err := s.GetSyncState(ctx, state.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, StatusSynced, got.Status)
	assert.Equal(t, state.ETag, got.ETag)
	assert.Equal(t, state.Bucket, got.Bucket)
	assert.Equal(t, state.RemotePath, got.RemotePath)
	assert.Equal(t, state.LocalSize, got.LocalSize)
	assert.Equal(t, state.ContentHash, got.ContentHash)
	require.NotNil(t, got.LastSyncedAt)
	assert.True(t, got.LastSyncedAt.Equal(syncedAt))
}

func TestSyncState_UpsertTransitions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	state := &SyncState{LocalPath: "/home/user/doc.pdf", Status: StatusSyncing}
	require.NoError(t, s.PutSyncState(ctx, state))

	got, err := s.GetSyncState(ctx, state.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, StatusSyncing, got.Status)
	assert.Nil(t, got.LastSyncedAt)

	syncedAt := time.Now().UTC().Truncate(time.Second)
	state.Status = StatusSynced
	state.ETag = "QmYwAPJzv5CZsnAzt8auVZRn1pfejgND1XmZAd1ppsrKPN"
	state.Bucket = "fula-main"
	state.RemotePath = "/doc.pdf"
	state.LastSyncedAt = &syncedAt
	require.NoError(t, s.PutSyncState(ctx, state))

	got, err = s.GetSyncState(ctx, state.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, StatusSynced, got.Status)
	assert.Equal(t, state.ETag, got.ETag)
	require.NotNil(t, got.LastSyncedAt)
}

func TestSyncState_GetByRemote(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	syncedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.PutSyncState(ctx, &SyncState{
		LocalPath:    "/home/user/photos/cat.jpg",
		Status:       StatusSynced,
		ETag:         "etag-cat",
		Bucket:       "fula-main",
		RemotePath:   "/photos/cat.jpg",
		LastSyncedAt: &syncedAt,
	}))

	got, err := s.GetSyncStateByRemote(ctx, "fula-main", "/photos/cat.jpg")
	require.NoError(t, err)
	assert.Equal(t, "/home/user/photos/cat.jpg", got.LocalPath)
	assert.Equal(t, "etag-cat", got.ETag)

	_, err = s.GetSyncStateByRemote(ctx, "fula-main", "/photos/dog.jpg")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.GetSyncStateByRemote(ctx, "fula-backup", "/photos/cat.jpg")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSyncState_ListAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i, p := range []string{"/a.txt", "/b.txt", "/c.txt"} {
		syncedAt := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.PutSyncState(ctx, &SyncState{
			LocalPath:    p,
			Status:       StatusSynced,
			LastSyncedAt: &syncedAt,
		}))
	}

	states, err := s.ListSyncStates(ctx)
	require.NoError(t, err)
	require.Len(t, states, 3)
	assert.Equal(t, "/c.txt", states[0].LocalPath, "most recently synced first")

	require.NoError(t, s.DeleteSyncState(ctx, "/b.txt"))
	_, err = s.GetSyncState(ctx, "/b.txt")
	assert.True(t, errors.Is(err, ErrNotFound))

	// Deleting an untracked path is a no-op
	assert.NoError(t, s.DeleteSyncState(ctx, "/never-tracked.txt"))
}
