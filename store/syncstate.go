package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SyncStatus tracks where a local file sits in its upload lifecycle
type SyncStatus string

const (
	StatusNotSynced SyncStatus = "notSynced"
	StatusSyncing   SyncStatus = "syncing"
	StatusSynced    SyncStatus = "synced"
	StatusError     SyncStatus = "error"
)

// SyncState records the upload state of one local file. LocalPath is the key;
// Bucket and RemotePath identify where the file lives remotely once synced,
// and ETag carries the content identifier the storage backend reported.
type SyncState struct {
	LocalPath    string
	Status       SyncStatus
	ETag         string
	Bucket       string
	RemotePath   string
	LocalSize    int64
	ContentHash  string
	LastSyncedAt *time.Time
}

// PutSyncState upserts the sync record for a local path
func (s *Store) PutSyncState(ctx context.Context, state *SyncState) error {
	var syncedAt interface{}
	if state.LastSyncedAt != nil {
		syncedAt = *state.LastSyncedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (
			local_path, status, etag, bucket, remote_path, local_size, content_hash, last_synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(local_path) DO UPDATE SET
			status = excluded.status,
			etag = excluded.etag,
			bucket = excluded.bucket,
			remote_path = excluded.remote_path,
			local_size = excluded.local_size,
			content_hash = excluded.content_hash,
			last_synced_at = excluded.last_synced_at`,
		state.LocalPath, string(state.Status), state.ETag, state.Bucket,
		state.RemotePath, state.LocalSize, state.ContentHash, syncedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert sync state: %w", err)
	}
	return nil
}

// GetSyncState retrieves the sync record for a local path
func (s *Store) GetSyncState(ctx context.Context, localPath string) (*SyncState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT local_path, status, etag, bucket, remote_path, local_size, content_hash, last_synced_at
		FROM sync_state WHERE local_path = ?`, localPath)

	state, err := scanSyncState(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: sync state for %s", ErrNotFound, localPath)
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

// GetSyncStateByRemote retrieves the sync record for a remote object. Snapshot
// resolution uses this to map a shared bucket/path back to local knowledge of
// what was uploaded there.
func (s *Store) GetSyncStateByRemote(ctx context.Context, bucket, remotePath string) (*SyncState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT local_path, status, etag, bucket, remote_path, local_size, content_hash, last_synced_at
		FROM sync_state WHERE bucket = ? AND remote_path = ?
		ORDER BY last_synced_at DESC LIMIT 1`, bucket, remotePath)

	state, err := scanSyncState(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: sync state for %s/%s", ErrNotFound, bucket, remotePath)
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

// ListSyncStates lists all sync records, most recently synced first
func (s *Store) ListSyncStates(ctx context.Context) ([]*SyncState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT local_path, status, etag, bucket, remote_path, local_size, content_hash, last_synced_at
		FROM sync_state ORDER BY last_synced_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync states: %w", err)
	}
	defer rows.Close()

	var states []*SyncState
	for rows.Next() {
		state, err := scanSyncState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return states, nil
}

// DeleteSyncState removes the sync record for a local path. Deleting a path
// that was never tracked is not an error.
func (s *Store) DeleteSyncState(ctx context.Context, localPath string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM sync_state WHERE local_path = ?`, localPath)
	if err != nil {
		return fmt.Errorf("failed to delete sync state: %w", err)
	}
	return nil
}

func scanSyncState(row rowScanner) (*SyncState, error) {
	state := &SyncState{}
	var status string
	var syncedAt sql.NullTime
	err := row.Scan(&state.LocalPath, &status, &state.ETag, &state.Bucket,
		&state.RemotePath, &state.LocalSize, &state.ContentHash, &syncedAt)
	if err != nil {
		return nil, err
	}

	state.Status = SyncStatus(status)
	if syncedAt.Valid {
		state.LastSyncedAt = &syncedAt.Time
	}
	return state, nil
}
