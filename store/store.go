package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/fxfiles/fxshare/crypto"
	"github.com/fxfiles/fxshare/store/migrations"
)

// ErrNotFound indicates the requested record does not exist locally
var ErrNotFound = errors.New("record not found")

// Store is the device-local persistence for share bookkeeping and sync state.
// Link secrets are sealed with the store key before they touch disk.
type Store struct {
	db     *sql.DB
	sealer *crypto.StoreCrypto
}

// Open opens (or creates) the sqlite database at path and applies migrations
func Open(ctx context.Context, path string, sealer *crypto.StoreCrypto) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, sealer: sealer}, nil
}

// NewWithDB wraps an existing database handle. Used by tests that drive the
// store through sqlmock.
func NewWithDB(db *sql.DB, sealer *crypto.StoreCrypto) *Store {
	return &Store{db: db, sealer: sealer}
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is alive
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CountOutgoing reports how many outgoing share records exist, including
// revoked and expired ones
func (s *Store) CountOutgoing(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outgoing_shares`).Scan(&count)
	return count, err
}

// sealSecret encrypts a link secret for storage. Nil stays nil.
func (s *Store) sealSecret(secret []byte) ([]byte, error) {
	if len(secret) == 0 {
		return nil, nil
	}
	if s.sealer == nil {
		return nil, fmt.Errorf("store has no sealer configured")
	}
	return s.sealer.Seal(secret)
}

// openSecret decrypts a stored link secret. Nil stays nil.
func (s *Store) openSecret(sealed []byte) ([]byte, error) {
	if len(sealed) == 0 {
		return nil, nil
	}
	if s.sealer == nil {
		return nil, fmt.Errorf("store has no sealer configured")
	}
	return s.sealer.Open(sealed)
}
