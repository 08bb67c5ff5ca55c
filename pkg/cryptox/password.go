package cryptox

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MinBcryptCost is the lowest work factor accepted for stored passwords.
const MinBcryptCost = 12

var (
	// ErrPasswordMismatch is returned when a password does not match its hash.
	ErrPasswordMismatch = errors.New("cryptox: password does not match")

	// ErrWeakCost is returned by NewPasswordHasher for a cost below MinBcryptCost.
	ErrWeakCost = errors.New("cryptox: bcrypt cost too low")
)

// PasswordHasher hashes and verifies bcrypt passwords at a fixed cost.
type PasswordHasher struct {
	Cost int

	dummyOnce sync.Once
	dummy     []byte
}

// NewPasswordHasher returns a hasher for cost, rejecting anything below
// MinBcryptCost or above bcrypt.MaxCost.
func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost < MinBcryptCost {
		return nil, fmt.Errorf("%w: %d < %d", ErrWeakCost, cost, MinBcryptCost)
	}
	if cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("cryptox: bcrypt cost %d exceeds %d", cost, bcrypt.MaxCost)
	}
	return &PasswordHasher{Cost: cost}, nil
}

// Hash returns the bcrypt encoding of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", fmt.Errorf("cryptox: hash password: %w", err)
	}
	return string(hash), nil
}

// Verify compares password against a stored bcrypt hash. A mismatch returns
// ErrPasswordMismatch; a corrupt hash returns a different error.
func (h *PasswordHasher) Verify(password, encodedHash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return fmt.Errorf("cryptox: verify password: %w", err)
	}
}

// VerifyDummy burns the same time as Verify against a throwaway hash. Call it
// when the account does not exist so lookups and mismatches take equally long.
func (h *PasswordHasher) VerifyDummy(password string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("tuckshop-dummy-password"), h.Cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
}

// NeedsRehash reports whether a stored hash was produced at a lower cost.
func (h *PasswordHasher) NeedsRehash(encodedHash string) bool {
	cost, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil {
		return true
	}
	return cost < h.Cost
}
