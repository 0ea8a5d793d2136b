package store

import (
	"context"
	"fmt"
	"time"
)

// ShareAction identifies what happened to a share
type ShareAction string

const (
	ActionCreated    ShareAction = "created"
	ActionAccepted   ShareAction = "accepted"
	ActionRevoked    ShareAction = "revoked"
	ActionDeleted    ShareAction = "deleted"
	ActionDownloaded ShareAction = "downloaded"
	ActionSynced     ShareAction = "synced"
)

// ShareEvent is one entry in the local share activity log
type ShareEvent struct {
	ID        int64
	ShareID   string
	Action    ShareAction
	Detail    string
	CreatedAt time.Time
}

// RecordEvent appends an entry to the share activity log. The log is local
// bookkeeping only and never leaves the device.
func (s *Store) RecordEvent(ctx context.Context, shareID string, action ShareAction, detail string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO share_events (share_id, action, detail) VALUES (?, ?, ?)`,
		shareID, string(action), detail)
	if err != nil {
		return fmt.Errorf("failed to record share event: %w", err)
	}
	return nil
}

// ListEvents returns the activity log for one share, oldest first
func (s *Store) ListEvents(ctx context.Context, shareID string) ([]*ShareEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, share_id, action, detail, created_at
		FROM share_events WHERE share_id = ? ORDER BY created_at, id`, shareID)
	if err != nil {
		return nil, fmt.Errorf("failed to query share events: %w", err)
	}
	defer rows.Close()

	var events []*ShareEvent
	for rows.Next() {
		event := &ShareEvent{}
		var action string
		if err := rows.Scan(&event.ID, &event.ShareID, &action, &event.Detail, &event.CreatedAt); err != nil {
			return nil, err
		}
		event.Action = ShareAction(action)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// PruneEvents drops activity entries older than the retention window
func (s *Store) PruneEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM share_events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune share events: %w", err)
	}
	return result.RowsAffected()
}
