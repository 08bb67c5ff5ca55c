package httpx

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tuckshop/pkg/authsdk"
	"github.com/aussiebroadwan/tuckshop/pkg/jwtx"
	"github.com/aussiebroadwan/tuckshop/pkg/slogx"
)

// AccessVerifier verifies access tokens. jwtx.Codec implements it.
type AccessVerifier interface {
	VerifyAccess(token string, secret []byte, issuer string, audience []string) jwtx.Outcome[*jwtx.AccessClaims]
}

// Authenticator turns bearer access tokens into request identities.
type Authenticator struct {
	Verifier AccessVerifier
	Secret   []byte
	Issuer   string
	Audience []string

	// EmbedDisplayNames copies given_name/family_name from the token into the
	// Identity. When unset they are left empty and handlers reload the user.
	EmbedDisplayNames bool
}

// BearerToken extracts the token from an "Authorization: Bearer" header. The
// scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticate rejects any request without a valid access token.
func (a *Authenticator) Authenticate() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				reject(w, r, PolicyAuthenticate, authsdk.NewError(authsdk.KindAccessTokenRequired, "access token required"))
				return
			}

			id, failure, err := a.identify(token)
			switch failure {
			case jwtx.FailureNone:
				ctx := WithIdentity(r.Context(), id)
				ctx = slogx.WithUserID(ctx, id.ID)
				next.ServeHTTP(w, r.WithContext(ctx))
			case jwtx.FailureExpired:
				reject(w, r, PolicyAuthenticate, authsdk.NewError(authsdk.KindExpiredToken, "access token expired"))
			default:
				slogx.FromContext(r.Context()).Debug("access token rejected", "failure", failure.String(), "err", err)
				reject(w, r, PolicyAuthenticate, authsdk.NewError(authsdk.KindInvalidToken, "invalid access token"))
			}
		})
	}
}

// OptionalAuth attaches an identity when the request carries a valid access
// token and otherwise passes the request through untouched.
func (a *Authenticator) OptionalAuth() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			id, failure, _ := a.identify(token)
			if failure != jwtx.FailureNone {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithIdentity(r.Context(), id)
			ctx = slogx.WithUserID(ctx, id.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// identify verifies token and projects its claims. A panic anywhere in
// verification is reported as an invalid token.
func (a *Authenticator) identify(token string) (id Identity, failure jwtx.Failure, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			id = Identity{}
			failure = jwtx.FailureInvalid
			err = fmt.Errorf("httpx: panic during token verification: %v", rec)
		}
	}()

	out := a.Verifier.VerifyAccess(token, a.Secret, a.Issuer, a.Audience)
	if !out.OK() {
		return Identity{}, out.Failure, out.Err
	}

	c := out.Claims
	id = Identity{
		ID:       c.Subject,
		Email:    c.Email,
		Username: c.Username,
		Role:     c.Role,
	}
	if a.EmbedDisplayNames {
		id.FirstName = c.FirstName
		id.LastName = c.LastName
	}
	return id, jwtx.FailureNone, nil
}

// UnverifiedSubject returns the sub claim of the request's bearer token
// without checking the signature. Use it for logs only, never for access
// decisions.
func UnverifiedSubject(r *http.Request) string {
	token, ok := BearerToken(r)
	if !ok {
		return ""
	}
	sub, err := jwtx.UnverifiedSubject(token)
	if err != nil {
		return ""
	}
	return sub
}

func reject(w http.ResponseWriter, r *http.Request, policy string, e *authsdk.Error) {
	MiddlewareRejections.WithLabelValues(policy, e.Code()).Inc()
	if e.Kind == authsdk.KindAccessTokenRequired || e.Kind == authsdk.KindExpiredToken || e.Kind == authsdk.KindInvalidToken {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	}
	slogx.FromContext(r.Context()).Info("request rejected",
		"policy", policy,
		"code", e.Code(),
		"unverified_sub", UnverifiedSubject(r),
	)
	e.WriteError(w)
}
