package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinBcryptCost is the lowest cost NewBcryptHasher accepts.
const MinBcryptCost = 10

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext string, digest string) (bool, error)
}

type BcryptHasher struct {
	cost int
}

// NewBcryptHasher raises costs below MinBcryptCost to the minimum.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < MinBcryptCost {
		cost = MinBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports a mismatch as (false, nil); a malformed digest is an error.
func (h *BcryptHasher) Verify(plaintext string, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}
