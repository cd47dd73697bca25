package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMFARequired        = errors.New("mfa code required")
	ErrInvalidMFACode     = errors.New("invalid mfa code")
	ErrMFANotSetup        = errors.New("mfa not set up")
)

type Service struct {
	store    StoreAPI
	sealer   SecretSealer
	secret   string
	tokenTTL time.Duration
	log      *zap.Logger
}

func NewService(store StoreAPI, sealer SecretSealer, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		sealer:   sealer,
		secret:   jwtSecret,
		tokenTTL: tokenTTL,
		log:      logger.Named("auth.service"),
	}
}

type LoginResult struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Login checks the password and, for accounts with MFA enabled, the TOTP
// code. Unknown usernames and wrong passwords are indistinguishable.
func (s *Service) Login(ctx context.Context, username, password, mfaCode string) (LoginResult, error) {
	creds, err := s.store.CredentialsByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if errors.Is(err, ErrNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("load credentials: %w", err)
	}
	if CheckPassword(creds.PasswordHash, password) != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	if creds.MFAEnabled {
		if strings.TrimSpace(mfaCode) == "" {
			return LoginResult{}, ErrMFARequired
		}
		secret, err := s.sealer.Open(creds.MFASecret)
		if err != nil {
			return LoginResult{}, fmt.Errorf("open mfa secret: %w", err)
		}
		if !ValidateTOTP(mfaCode, secret) {
			return LoginResult{}, ErrInvalidMFACode
		}
	}

	token, err := s.IssueToken(creds.UserID, creds.Username, creds.Role)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.store.UpdateLastLogin(ctx, creds.UserID); err != nil {
		s.log.Warn("last login update failed", zap.String("user_id", creds.UserID), zap.Error(err))
	}
	return LoginResult{Token: token, UserID: creds.UserID, Role: creds.Role}, nil
}

func (s *Service) IssueToken(userID, username, role string) (string, error) {
	return GenerateToken(s.secret, Claims{UserID: userID, Username: username, Role: role}, s.tokenTTL)
}

type MFASetup struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
}

// SetupMFA stores a new secret and leaves MFA disabled until EnableMFA
// confirms a code generated from it.
func (s *Service) SetupMFA(ctx context.Context, userID string) (MFASetup, error) {
	creds, err := s.store.CredentialsByID(ctx, userID)
	if err != nil {
		return MFASetup{}, err
	}
	secret, url, err := NewTOTPSecret(creds.Username)
	if err != nil {
		return MFASetup{}, err
	}
	sealed, err := s.sealer.Seal(secret)
	if err != nil {
		return MFASetup{}, err
	}
	if err := s.store.UpdateMFASecret(ctx, userID, sealed); err != nil {
		return MFASetup{}, err
	}
	return MFASetup{Secret: secret, OTPAuthURL: url}, nil
}

func (s *Service) EnableMFA(ctx context.Context, userID, code string) error {
	creds, err := s.store.CredentialsByID(ctx, userID)
	if err != nil {
		return err
	}
	if creds.MFASecret == "" {
		return ErrMFANotSetup
	}
	secret, err := s.sealer.Open(creds.MFASecret)
	if err != nil {
		return fmt.Errorf("open mfa secret: %w", err)
	}
	if !ValidateTOTP(code, secret) {
		return ErrInvalidMFACode
	}
	return s.store.SetMFAEnabled(ctx, userID, true)
}
