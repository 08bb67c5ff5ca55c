package jwtx

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants. Access tokens are meant to live for minutes and
// refresh tokens for days; services may override both.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// AccessClaims are embedded in every access token. They carry enough of the
// user to authorise a request without a database round trip.
type AccessClaims struct {
	jwt.RegisteredClaims

	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`

	// Display names. Whether a verifier trusts these is its own decision.
	FirstName string `json:"given_name,omitempty"`
	LastName  string `json:"family_name,omitempty"`
}

// RefreshClaims are embedded in refresh tokens. The ID (jti) is unique per
// issuance and is the unit of rotation and revocation.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// Stamper is implemented by claim sets the Codec can stamp with iat and exp.
type Stamper interface {
	jwt.Claims
	stamp(iat, exp time.Time)
}

func (c *AccessClaims) stamp(iat, exp time.Time) {
	c.IssuedAt = jwt.NewNumericDate(iat)
	c.ExpiresAt = jwt.NewNumericDate(exp)
}

func (c *RefreshClaims) stamp(iat, exp time.Time) {
	c.IssuedAt = jwt.NewNumericDate(iat)
	c.ExpiresAt = jwt.NewNumericDate(exp)
}

// NewAccessClaims builds access claims for a subject. Time claims are left
// empty; Codec.Sign fills them in.
func NewAccessClaims(
	subject, email, username, role string,
	firstName, lastName string,
	issuer string,
	audience []string,
) *AccessClaims {
	return &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  subject,
			Audience: jwt.ClaimStrings(audience),
		},
		Email:     email,
		Username:  username,
		Role:      role,
		FirstName: firstName,
		LastName:  lastName,
	}
}

// NewRefreshClaims builds refresh claims for a subject with the given token id.
func NewRefreshClaims(subject, tokenID, issuer string, audience []string) *RefreshClaims {
	return &RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  subject,
			Audience: jwt.ClaimStrings(audience),
			ID:       tokenID,
		},
	}
}

// Validate is called by the parser after the registered claims pass.
func (c *AccessClaims) Validate() error {
	if c.Subject == "" {
		return fmt.Errorf("%w: missing subject", ErrInvalidClaim)
	}
	if c.Role == "" {
		return fmt.Errorf("%w: missing role", ErrInvalidClaim)
	}
	return nil
}

// Validate is called by the parser after the registered claims pass.
func (c *RefreshClaims) Validate() error {
	if c.Subject == "" {
		return fmt.Errorf("%w: missing subject", ErrInvalidClaim)
	}
	if c.ID == "" {
		return fmt.Errorf("%w: missing token id", ErrInvalidClaim)
	}
	return nil
}
