package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Failure classifies why a token was rejected.
type Failure int

const (
	FailureNone Failure = iota
	FailureMalformed
	FailureExpired
	FailureInvalid
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureMalformed:
		return "malformed"
	case FailureExpired:
		return "expired"
	case FailureInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("failure(%d)", int(f))
	}
}

// ErrInvalidClaim is reported when a token verifies but is missing a claim the
// claim set requires (subject, role, token id).
var ErrInvalidClaim = errors.New("jwtx: invalid claim")

// Outcome is the result of verifying a token. Claims is only meaningful when
// Failure is FailureNone. Err carries the underlying library error for logs.
type Outcome[C any] struct {
	Claims  C
	Failure Failure
	Err     error
}

// OK reports whether the token verified.
func (o Outcome[C]) OK() bool { return o.Failure == FailureNone }

// Codec signs and verifies HS256 tokens. The zero value is ready to use and
// reads the wall clock. A Codec holds no mutable state.
type Codec struct {
	// Now overrides the clock, mostly for tests.
	Now func() time.Time
}

func (c Codec) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Sign stamps iat and exp on claims and returns the compact HS256 token along
// with its expiry. Times are truncated to whole seconds so the returned expiry
// matches the exp claim exactly.
func (c Codec) Sign(claims Stamper, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if len(secret) == 0 {
		return "", time.Time{}, errors.New("jwtx: empty signing secret")
	}
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("jwtx: ttl must be positive, got %s", ttl)
	}

	iat := c.now().UTC().Truncate(time.Second)
	exp := iat.Add(ttl)
	claims.stamp(iat, exp)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, exp, nil
}

// VerifyAccess verifies an access token against the access secret.
func (c Codec) VerifyAccess(token string, secret []byte, issuer string, audience []string) Outcome[*AccessClaims] {
	return verify[AccessClaims](c, token, secret, issuer, audience)
}

// VerifyRefresh verifies a refresh token against the refresh secret.
func (c Codec) VerifyRefresh(token string, secret []byte, issuer string, audience []string) Outcome[*RefreshClaims] {
	return verify[RefreshClaims](c, token, secret, issuer, audience)
}

func verify[T any, PT interface {
	*T
	jwt.Claims
}](c Codec, token string, secret []byte, issuer string, audience []string) Outcome[PT] {
	claims := PT(new(T))

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if len(audience) > 0 {
		opts = append(opts, jwt.WithAudience(audience...))
	}

	_, err := jwt.NewParser(opts...).ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		if len(secret) == 0 {
			return nil, errors.New("jwtx: empty verification secret")
		}
		return secret, nil
	})
	if err != nil {
		return Outcome[PT]{Failure: classify(err), Err: err}
	}
	return Outcome[PT]{Claims: claims}
}

// classify maps a parser error to a Failure. Anything that says the token is
// not ours wins over expiry, so an expired token minted for another audience
// is invalid, not expired.
func classify(err error) Failure {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return FailureMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, ErrInvalidClaim):
		return FailureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return FailureExpired
	default:
		return FailureInvalid
	}
}

// UnverifiedSubject decodes token without checking its signature and returns
// the sub claim. The result must only be used for logging and diagnostics.
func UnverifiedSubject(token string) (string, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidClaim)
	}
	return claims.Subject, nil
}
