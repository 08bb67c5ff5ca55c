package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tuckshop/internal/auth/domain"
	"github.com/aussiebroadwan/tuckshop/pkg/jwtx"
	"github.com/google/uuid"
)

// PairIssuer mints access/refresh token pairs. It never touches storage;
// recording the refresh token is the caller's job.
type PairIssuer struct {
	Codec    jwtx.Codec
	Secrets  jwtx.Secrets
	Issuer   string
	Audience []string

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// NewID returns the jti of each refresh token. Defaults to a random UUID.
	NewID func() string
}

func (p *PairIssuer) accessTTL() time.Duration {
	if p.AccessTTL > 0 {
		return p.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (p *PairIssuer) refreshTTL() time.Duration {
	if p.RefreshTTL > 0 {
		return p.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

func (p *PairIssuer) newID() string {
	if p.NewID != nil {
		return p.NewID()
	}
	return uuid.NewString()
}

// Issue signs a new pair for the identity. Every call yields a fresh refresh
// token id, so two pairs issued within the same second still differ.
func (p *PairIssuer) Issue(id domain.IdentitySnapshot) (domain.TokenPair, error) {
	if p.Secrets.IsZero() {
		return domain.TokenPair{}, errors.New("service: token secrets not configured")
	}

	access := jwtx.NewAccessClaims(
		id.ID, id.Email, id.Username, id.Role.String(),
		id.FirstName, id.LastName,
		p.Issuer, p.Audience,
	)
	accessToken, accessExp, err := p.Codec.Sign(access, p.Secrets.Access(), p.accessTTL())
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("service: sign access token: %w", err)
	}

	jti := p.newID()
	refresh := jwtx.NewRefreshClaims(id.ID, jti, p.Issuer, p.Audience)
	refreshToken, refreshExp, err := p.Codec.Sign(refresh, p.Secrets.Refresh(), p.refreshTTL())
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("service: sign refresh token: %w", err)
	}

	return domain.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshID:        jti,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// VerifyRefresh checks a presented refresh token against the refresh secret.
func (p *PairIssuer) VerifyRefresh(token string) jwtx.Outcome[*jwtx.RefreshClaims] {
	return p.Codec.VerifyRefresh(token, p.Secrets.Refresh(), p.Issuer, p.Audience)
}
