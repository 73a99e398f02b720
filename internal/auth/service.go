package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/ronak-creation/storefront/internal/shared"
)

// Service checks the admin password against a bcrypt hash.
type Service struct {
	hash []byte
}

// NewService constructs a Service from a bcrypt hash.
func NewService(passwordHash string) *Service {
	return &Service{hash: []byte(passwordHash)}
}

// Authenticate validates the admin password.
func (s *Service) Authenticate(ctx context.Context, password string) error {
	if len(s.hash) == 0 || password == "" {
		return shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return shared.ErrInvalidCredentials
		}
		return err
	}
	return nil
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
