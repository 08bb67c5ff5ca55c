package domain

import "time"

// TokenPair is what a successful register, login or refresh produces. The
// access token is a short-lived JWT; the refresh token is a long-lived JWT
// whose fingerprint is tracked in the refresh ledger under RefreshID.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshID        string // jti of RefreshToken
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// RefreshToken models the stored refresh token record. The raw token is never
// persisted.
type RefreshToken struct {
	ID        string // jti
	UserID    string
	TokenHash string // deterministic fingerprint (base64url SHA-256)
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Live reports whether the record is still redeemable at now.
func (t RefreshToken) Live(now time.Time) bool {
	return now.Before(t.ExpiresAt)
}
