package auth

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/halo-extras/backend/internal/infrastructure/config"
)

// ErrInvalidCredentials is returned for any failed login
var ErrInvalidCredentials = errors.New("invalid username or password")

// AdminAuthenticator checks the configured administrator account
type AdminAuthenticator struct {
	username     string
	passwordHash []byte
}

// NewAdminAuthenticator creates an authenticator for cfg
func NewAdminAuthenticator(cfg config.AdminConfig) *AdminAuthenticator {
	return &AdminAuthenticator{
		username:     cfg.Username,
		passwordHash: []byte(cfg.PasswordHash),
	}
}

// Authenticate verifies the credentials in constant time with respect to the username
func (a *AdminAuthenticator) Authenticate(username, password string) error {
	if a.username == "" || len(a.passwordHash) == 0 {
		return ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	// bcrypt runs even when the username mismatches
	pwErr := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password))
	if !userOK || pwErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword returns a bcrypt hash suitable for admin.password_hash
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
