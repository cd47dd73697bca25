package auth

import "context"

type StoreAPI interface {
	CredentialsByUsername(ctx context.Context, username string) (Credentials, error)
	CredentialsByID(ctx context.Context, userID string) (Credentials, error)
	UpdateMFASecret(ctx context.Context, userID, sealedSecret string) error
	SetMFAEnabled(ctx context.Context, userID string, enabled bool) error
	UpdateLastLogin(ctx context.Context, userID string) error
}

// SecretSealer protects TOTP secrets at rest.
type SecretSealer interface {
	Seal(plain string) (string, error)
	Open(sealed string) (string, error)
}

var _ StoreAPI = (*Store)(nil)
