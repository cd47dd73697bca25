package auth

import (
	"strings"

	"github.com/pquerna/otp/totp"
)

const totpIssuer = "LeaveManagement"

// NewTOTPSecret returns a fresh base32 secret and its otpauth:// URL.
func NewTOTPSecret(accountName string) (secret, url string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: accountName,
	})
	if err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

func ValidateTOTP(code, secret string) bool {
	code = strings.TrimSpace(code)
	if code == "" || secret == "" {
		return false
	}
	return totp.Validate(code, secret)
}
