package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"leavemgmt/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

// Credentials is the login view of a user row.
type Credentials struct {
	UserID       string
	Username     string
	Role         string
	PasswordHash string
	MFAEnabled   bool
	MFASecret    string
}

func (s *Store) CredentialsByUsername(ctx context.Context, username string) (Credentials, error) {
	return s.scanCredentials(s.DB.QueryRow(ctx, `
    SELECT id, username, role, password_hash, mfa_enabled, COALESCE(mfa_secret, '')
    FROM users
    WHERE username = $1
  `, username))
}

func (s *Store) CredentialsByID(ctx context.Context, userID string) (Credentials, error) {
	return s.scanCredentials(s.DB.QueryRow(ctx, `
    SELECT id, username, role, password_hash, mfa_enabled, COALESCE(mfa_secret, '')
    FROM users
    WHERE id = $1
  `, userID))
}

func (s *Store) scanCredentials(row pgx.Row) (Credentials, error) {
	var out Credentials
	err := row.Scan(&out.UserID, &out.Username, &out.Role, &out.PasswordHash, &out.MFAEnabled, &out.MFASecret)
	if errors.Is(err, pgx.ErrNoRows) {
		return Credentials{}, ErrNotFound
	}
	return out, err
}

func (s *Store) UpdateMFASecret(ctx context.Context, userID, sealedSecret string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE users SET mfa_secret = $1, mfa_enabled = false, updated_at = now() WHERE id = $2
  `, sealedSecret, userID)
	return err
}

func (s *Store) SetMFAEnabled(ctx context.Context, userID string, enabled bool) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET mfa_enabled = $1, updated_at = now() WHERE id = $2", enabled, userID)
	return err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}
