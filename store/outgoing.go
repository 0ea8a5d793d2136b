package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fxfiles/fxshare/share"
	"github.com/fxfiles/fxshare/utils"
)

// SaveOutgoing upserts a sender-side share. The revoked flag only ever moves
// towards revoked, and an existing link secret survives upserts that carry none.
func (s *Store) SaveOutgoing(ctx context.Context, outgoing *share.OutgoingShare, linkSecret []byte) error {
	token, err := json.Marshal(&outgoing.Token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	sealed, err := s.sealSecret(linkSecret)
	if err != nil {
		return err
	}

	var expires interface{}
	if outgoing.Token.ExpiresAt != nil {
		expires = *outgoing.Token.ExpiresAt
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO outgoing_shares (
			id, token, bucket, path, share_type, share_mode,
			recipient_id, recipient_name, is_revoked, link_secret, created_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			recipient_name = excluded.recipient_name,
			is_revoked = MAX(outgoing_shares.is_revoked, excluded.is_revoked),
			link_secret = COALESCE(excluded.link_secret, outgoing_shares.link_secret),
			expires_at = excluded.expires_at`,
		outgoing.Token.ID, string(token), outgoing.Token.Bucket, outgoing.Token.Path,
		string(outgoing.Token.Type), string(outgoing.Token.Mode),
		outgoing.Token.RecipientID, outgoing.RecipientName, outgoing.Revoked, sealed,
		outgoing.Token.CreatedAt, expires,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert outgoing share: %w", err)
	}
	return nil
}

// ImportOutgoing upserts a whole outgoing set in one transaction. Used after
// cloud reconciliation; importing the same set twice changes nothing.
func (s *Store) ImportOutgoing(ctx context.Context, shares []*share.OutgoingShare) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	for _, outgoing := range shares {
		token, err := json.Marshal(&outgoing.Token)
		if err != nil {
			return fmt.Errorf("failed to marshal token %s: %w", outgoing.Token.ID, err)
		}

		var expires interface{}
		if outgoing.Token.ExpiresAt != nil {
			expires = *outgoing.Token.ExpiresAt
		}

		// No link_secret column here: the cloud blob never carries secrets,
		// and an import must not wipe the locally retained ones.
		_, err = tx.ExecContext(ctx, `
			INSERT INTO outgoing_shares (
				id, token, bucket, path, share_type, share_mode,
				recipient_id, recipient_name, is_revoked, created_at, expires_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				token = excluded.token,
				recipient_name = excluded.recipient_name,
				is_revoked = MAX(outgoing_shares.is_revoked, excluded.is_revoked),
				expires_at = excluded.expires_at`,
			outgoing.Token.ID, string(token), outgoing.Token.Bucket, outgoing.Token.Path,
			string(outgoing.Token.Type), string(outgoing.Token.Mode),
			outgoing.Token.RecipientID, outgoing.RecipientName, outgoing.Revoked,
			outgoing.Token.CreatedAt, expires,
		)
		if err != nil {
			return fmt.Errorf("failed to import share %s: %w", outgoing.Token.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}

// GetOutgoing retrieves a sender-side share by ID
func (s *Store) GetOutgoing(ctx context.Context, id string) (*share.OutgoingShare, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT token, recipient_name, is_revoked FROM outgoing_shares WHERE id = ?`, id)

	outgoing, err := scanOutgoing(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: outgoing share %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return outgoing, nil
}

// GetOutgoingSecret retrieves and unseals the link secret for a share.
// Shares without a stored secret return nil.
func (s *Store) GetOutgoingSecret(ctx context.Context, id string) ([]byte, error) {
	var sealed []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT link_secret FROM outgoing_shares WHERE id = ?`, id).Scan(&sealed)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: outgoing share %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query link secret: %w", err)
	}

	return s.openSecret(sealed)
}

// ListOutgoing lists all sender-side shares, newest first
func (s *Store) ListOutgoing(ctx context.Context) ([]*share.OutgoingShare, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT token, recipient_name, is_revoked FROM outgoing_shares ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query outgoing shares: %w", err)
	}
	defer rows.Close()

	return collectOutgoing(rows)
}

// ListOutgoingByBucket lists sender-side shares for one bucket, newest first.
// Path matching on top of this is the caller's concern.
func (s *Store) ListOutgoingByBucket(ctx context.Context, bucket string) ([]*share.OutgoingShare, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT token, recipient_name, is_revoked FROM outgoing_shares WHERE bucket = ? ORDER BY created_at DESC`, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to query outgoing shares: %w", err)
	}
	defer rows.Close()

	return collectOutgoing(rows)
}

// SharesForPath returns the outgoing shares whose scope overlaps a path in
// either direction: a share of a parent folder covers the file, and shares of
// items inside a folder surface while browsing that folder.
func (s *Store) SharesForPath(ctx context.Context, bucket, path string) ([]*share.OutgoingShare, error) {
	candidates, err := s.ListOutgoingByBucket(ctx, bucket)
	if err != nil {
		return nil, err
	}

	var matches []*share.OutgoingShare
	for _, outgoing := range candidates {
		if utils.PathsOverlap(outgoing.Token.Path, path) {
			matches = append(matches, outgoing)
		}
	}
	return matches, nil
}

// IsPathShared reports whether any outgoing share overlaps the path
func (s *Store) IsPathShared(ctx context.Context, bucket, path string) (bool, error) {
	matches, err := s.SharesForPath(ctx, bucket, path)
	if err != nil {
		return false, err
	}
	return len(matches) > 0, nil
}

// MarkRevoked flips a share to revoked. Revocation never reverts.
func (s *Store) MarkRevoked(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE outgoing_shares SET is_revoked = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to revoke share: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: outgoing share %s", ErrNotFound, id)
	}
	return nil
}

// DeleteOutgoing removes a sender-side share record
func (s *Store) DeleteOutgoing(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM outgoing_shares WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete outgoing share: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: outgoing share %s", ErrNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOutgoing(row rowScanner) (*share.OutgoingShare, error) {
	var tokenJSON, recipientName string
	var revoked bool
	if err := row.Scan(&tokenJSON, &recipientName, &revoked); err != nil {
		return nil, err
	}

	outgoing := &share.OutgoingShare{RecipientName: recipientName, Revoked: revoked}
	if err := json.Unmarshal([]byte(tokenJSON), &outgoing.Token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return outgoing, nil
}

func collectOutgoing(rows *sql.Rows) ([]*share.OutgoingShare, error) {
	var shares []*share.OutgoingShare
	for rows.Next() {
		outgoing, err := scanOutgoing(rows)
		if err != nil {
			return nil, err
		}
		shares = append(shares, outgoing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return shares, nil
}
