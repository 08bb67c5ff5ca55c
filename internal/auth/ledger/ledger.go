// Package ledger tracks issued refresh tokens. A refresh token is only
// redeemable while its fingerprint is recorded here; rotation swaps the old
// record for the new one atomically so a token can be used at most once.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/tuckshop/internal/auth/domain"
	"github.com/aussiebroadwan/tuckshop/pkg/cryptox"
)

// ErrNotFound means no live record matched: the token was never issued, has
// expired, belongs to someone else or was already rotated or revoked.
var ErrNotFound = errors.New("ledger: refresh token not found")

// Issued describes a freshly minted refresh token to record.
type Issued struct {
	ID        string // jti
	UserID    string
	Token     string // raw value; only its fingerprint is stored
	ExpiresAt time.Time
}

func (i Issued) record(now time.Time) domain.RefreshToken {
	return domain.RefreshToken{
		ID:        i.ID,
		UserID:    i.UserID,
		TokenHash: cryptox.FingerprintToken(i.Token),
		ExpiresAt: i.ExpiresAt.UTC(),
		CreatedAt: now.UTC(),
	}
}

type Ledger interface {
	// Store records a newly issued refresh token.
	Store(ctx context.Context, t Issued) error

	// Redeem returns the live record for token owned by userID.
	Redeem(ctx context.Context, token, userID string) (domain.RefreshToken, error)

	// Rotate deletes the live record for oldToken (owned by next.UserID) and
	// records next in one atomic step. If nothing was deleted it returns
	// ErrNotFound and records nothing.
	Rotate(ctx context.Context, oldToken string, next Issued) error

	// Revoke deletes the record for token, whoever owns it. Revoking an
	// unknown token is not an error.
	Revoke(ctx context.Context, token string) error

	// RevokeAll deletes every record of userID and reports how many.
	RevokeAll(ctx context.Context, userID string) (int64, error)

	// SweepExpired deletes expired records and reports how many.
	SweepExpired(ctx context.Context) (int64, error)

	// ActiveSessions counts the live records of userID.
	ActiveSessions(ctx context.Context, userID string) (int64, error)

	// Ping checks the backing store.
	Ping(ctx context.Context) error
}

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
