package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fxfiles/fxshare/share"
)

// SaveAccepted upserts a receiver-side share. The link secret, when present,
// is sealed with the store key before it is written.
func (s *Store) SaveAccepted(ctx context.Context, accepted *share.AcceptedShare) error {
	token, err := json.Marshal(&accepted.Token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	sealed, err := s.sealSecret(accepted.LinkSecret)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO accepted_shares (id, token, sender_id, link_secret, accepted_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			link_secret = COALESCE(excluded.link_secret, accepted_shares.link_secret),
			accepted_at = excluded.accepted_at`,
		accepted.Token.ID, string(token), accepted.Token.SenderID, sealed, accepted.AcceptedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert accepted share: %w", err)
	}
	return nil
}

// GetAccepted retrieves a receiver-side share by ID, with its link secret unsealed
func (s *Store) GetAccepted(ctx context.Context, id string) (*share.AcceptedShare, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT token, link_secret, accepted_at FROM accepted_shares WHERE id = ?`, id)

	accepted, err := s.scanAccepted(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: accepted share %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return accepted, nil
}

// ListAccepted lists all receiver-side shares, newest first
func (s *Store) ListAccepted(ctx context.Context) ([]*share.AcceptedShare, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT token, link_secret, accepted_at FROM accepted_shares ORDER BY accepted_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accepted shares: %w", err)
	}
	defer rows.Close()

	var shares []*share.AcceptedShare
	for rows.Next() {
		accepted, err := s.scanAccepted(rows)
		if err != nil {
			return nil, err
		}
		shares = append(shares, accepted)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return shares, nil
}

// ListAcceptedBySender lists receiver-side shares from one sender, newest first
func (s *Store) ListAcceptedBySender(ctx context.Context, senderID string) ([]*share.AcceptedShare, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT token, link_secret, accepted_at FROM accepted_shares WHERE sender_id = ? ORDER BY accepted_at DESC`,
		senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accepted shares: %w", err)
	}
	defer rows.Close()

	var shares []*share.AcceptedShare
	for rows.Next() {
		accepted, err := s.scanAccepted(rows)
		if err != nil {
			return nil, err
		}
		shares = append(shares, accepted)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return shares, nil
}

// DeleteAccepted removes a receiver-side share record
func (s *Store) DeleteAccepted(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM accepted_shares WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete accepted share: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: accepted share %s", ErrNotFound, id)
	}
	return nil
}

func (s *Store) scanAccepted(row rowScanner) (*share.AcceptedShare, error) {
	var tokenJSON string
	var sealed []byte
	accepted := &share.AcceptedShare{}
	if err := row.Scan(&tokenJSON, &sealed, &accepted.AcceptedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tokenJSON), &accepted.Token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}

	secret, err := s.openSecret(sealed)
	if err != nil {
		return nil, err
	}
	accepted.LinkSecret = secret
	return accepted, nil
}
