package jwtx

import (
	"crypto/subtle"
	"errors"
	"fmt"
)

// MinSecretLength is the shortest HMAC secret accepted, in bytes.
const MinSecretLength = 32

var (
	// ErrWeakSecret is returned when a secret is shorter than MinSecretLength.
	ErrWeakSecret = errors.New("jwtx: secret too short")

	// ErrSharedSecret is returned when the access and refresh secrets match.
	ErrSharedSecret = errors.New("jwtx: access and refresh secrets must differ")
)

// Secrets holds the two HMAC keys. Access and refresh tokens are signed with
// different keys so neither can stand in for the other.
type Secrets struct {
	access  []byte
	refresh []byte
}

// NewSecrets validates and copies the two secrets.
func NewSecrets(access, refresh string) (Secrets, error) {
	if len(access) < MinSecretLength {
		return Secrets{}, fmt.Errorf("%w: access secret has %d bytes, need %d", ErrWeakSecret, len(access), MinSecretLength)
	}
	if len(refresh) < MinSecretLength {
		return Secrets{}, fmt.Errorf("%w: refresh secret has %d bytes, need %d", ErrWeakSecret, len(refresh), MinSecretLength)
	}
	if subtle.ConstantTimeCompare([]byte(access), []byte(refresh)) == 1 {
		return Secrets{}, ErrSharedSecret
	}
	return Secrets{access: []byte(access), refresh: []byte(refresh)}, nil
}

// Access returns the access token key.
func (s Secrets) Access() []byte { return s.access }

// Refresh returns the refresh token key.
func (s Secrets) Refresh() []byte { return s.refresh }

// IsZero reports whether s was never initialised.
func (s Secrets) IsZero() bool { return len(s.access) == 0 && len(s.refresh) == 0 }
