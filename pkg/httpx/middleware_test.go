package httpx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/tuckshop/pkg/authsdk"
	"github.com/aussiebroadwan/tuckshop/pkg/httpx"
	"github.com/aussiebroadwan/tuckshop/pkg/jwtx"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

var (
	testSecret   = []byte("access-secret-access-secret-0123456789")
	testIssuer   = "tuckshop"
	testAudience = []string{"tuckshop-api"}
)

func mintToken(t *testing.T, role string, issuedAt time.Time, ttl time.Duration) string {
	t.Helper()
	claims := jwtx.NewAccessClaims("user-1", "jo@example.com", "jo", role, "Jo", "Bloggs", testIssuer, testAudience)
	token, _, err := jwtx.Codec{Now: func() time.Time { return issuedAt }}.Sign(claims, testSecret, ttl)
	require.NoError(t, err)
	return token
}

func newAuthenticator() *httpx.Authenticator {
	return &httpx.Authenticator{
		Verifier: jwtx.Codec{},
		Secret:   testSecret,
		Issuer:   testIssuer,
		Audience: testAudience,
	}
}

// probe records whether it ran and which identity it saw.
type probe struct {
	called   bool
	identity httpx.Identity
	hasID    bool
}

func (p *probe) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.called = true
		p.identity, p.hasID = httpx.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body authsdk.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Code
}

// panicVerifier simulates a verifier blowing up mid-request.
type panicVerifier struct{}

func (panicVerifier) VerifyAccess(string, []byte, string, []string) jwtx.Outcome[*jwtx.AccessClaims] {
	panic("boom")
}

func TestAuthenticate(t *testing.T) {
	valid := mintToken(t, "CUSTOMER", time.Now(), time.Hour)
	expired := mintToken(t, "CUSTOMER", time.Now().Add(-2*time.Hour), time.Hour)

	tests := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing header", "", http.StatusUnauthorized, authsdk.CodeAccessTokenRequired},
		{"wrong scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, authsdk.CodeAccessTokenRequired},
		{"empty token", "Bearer   ", http.StatusUnauthorized, authsdk.CodeAccessTokenRequired},
		{"scheme only", "Bearer", http.StatusUnauthorized, authsdk.CodeAccessTokenRequired},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, authsdk.CodeExpiredToken},
		{"malformed", "Bearer not.a.jwt", http.StatusUnauthorized, authsdk.CodeInvalidToken},
		{"garbage", "Bearer garbage", http.StatusUnauthorized, authsdk.CodeInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &probe{}
			rec := serve(newAuthenticator().Authenticate()(p.handler()), tt.header)

			require.False(t, p.called, "next must not run")
			require.Equal(t, tt.status, rec.Code)
			require.Equal(t, tt.code, errorCode(t, rec))
		})
	}

	t.Run("valid token", func(t *testing.T) {
		p := &probe{}
		rec := serve(newAuthenticator().Authenticate()(p.handler()), "Bearer "+valid)

		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, p.called)
		require.True(t, p.hasID)
		require.Equal(t, httpx.Identity{ID: "user-1", Email: "jo@example.com", Username: "jo", Role: "CUSTOMER"}, p.identity)
	})

	t.Run("lowercase scheme", func(t *testing.T) {
		p := &probe{}
		serve(newAuthenticator().Authenticate()(p.handler()), "bearer "+valid)
		require.True(t, p.called)
	})

	t.Run("embedded display names", func(t *testing.T) {
		a := newAuthenticator()
		a.EmbedDisplayNames = true

		p := &probe{}
		serve(a.Authenticate()(p.handler()), "Bearer "+valid)
		require.Equal(t, "Jo", p.identity.FirstName)
		require.Equal(t, "Bloggs", p.identity.LastName)
	})

	t.Run("token for another audience", func(t *testing.T) {
		a := newAuthenticator()
		a.Audience = []string{"other-api"}

		p := &probe{}
		rec := serve(a.Authenticate()(p.handler()), "Bearer "+valid)
		require.False(t, p.called)
		require.Equal(t, authsdk.CodeInvalidToken, errorCode(t, rec))
	})

	t.Run("panic fails closed", func(t *testing.T) {
		a := newAuthenticator()
		a.Verifier = panicVerifier{}

		p := &probe{}
		rec := serve(a.Authenticate()(p.handler()), "Bearer "+valid)
		require.False(t, p.called)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, authsdk.CodeInvalidToken, errorCode(t, rec))
	})
}

func TestAuthenticateCountsRejections(t *testing.T) {
	counter := httpx.MiddlewareRejections.WithLabelValues(httpx.PolicyAuthenticate, authsdk.CodeAccessTokenRequired)
	before := testutil.ToFloat64(counter)

	serve(newAuthenticator().Authenticate()((&probe{}).handler()), "")

	require.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestOptionalAuth(t *testing.T) {
	valid := mintToken(t, "STORE_OWNER", time.Now(), time.Hour)
	expired := mintToken(t, "STORE_OWNER", time.Now().Add(-2*time.Hour), time.Hour)

	for name, header := range map[string]string{
		"no header":     "",
		"wrong scheme":  "Token abc",
		"empty token":   "Bearer ",
		"malformed":     "Bearer not.a.jwt",
		"invalid":       "Bearer " + valid + "x",
		"expired":       "Bearer " + expired,
		"wrong secret":  "Bearer " + mintTokenWithSecret(t, []byte("some-other-secret-some-other-secret")),
	} {
		t.Run(name, func(t *testing.T) {
			p := &probe{}
			rec := serve(newAuthenticator().OptionalAuth()(p.handler()), header)
			require.Equal(t, http.StatusOK, rec.Code)
			require.True(t, p.called)
			require.False(t, p.hasID)
		})
	}

	t.Run("panic proceeds anonymously", func(t *testing.T) {
		a := newAuthenticator()
		a.Verifier = panicVerifier{}

		p := &probe{}
		serve(a.OptionalAuth()(p.handler()), "Bearer "+valid)
		require.True(t, p.called)
		require.False(t, p.hasID)
	})

	t.Run("valid token", func(t *testing.T) {
		p := &probe{}
		serve(newAuthenticator().OptionalAuth()(p.handler()), "Bearer "+valid)
		require.True(t, p.called)
		require.True(t, p.hasID)
		require.Equal(t, "STORE_OWNER", p.identity.Role)
	})
}

func mintTokenWithSecret(t *testing.T, secret []byte) string {
	t.Helper()
	claims := jwtx.NewAccessClaims("user-1", "jo@example.com", "jo", "ADMIN", "", "", testIssuer, testAudience)
	token, _, err := jwtx.Codec{}.Sign(claims, secret, time.Hour)
	require.NoError(t, err)
	return token
}

func TestAuthorize(t *testing.T) {
	a := newAuthenticator()
	adminOnly := func(p *probe) http.Handler {
		return httpx.Chain(p.handler(), a.Authenticate(), httpx.Authorize("ADMIN"))
	}

	t.Run("customer is rejected", func(t *testing.T) {
		p := &probe{}
		rec := serve(adminOnly(p), "Bearer "+mintToken(t, "CUSTOMER", time.Now(), time.Hour))

		require.False(t, p.called)
		require.Equal(t, http.StatusForbidden, rec.Code)

		var body authsdk.ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		require.Equal(t, authsdk.CodeInsufficientRole, body.Code)
		require.Contains(t, body.Message, "ADMIN")
		require.Contains(t, body.Message, "CUSTOMER")
	})

	t.Run("admin is admitted", func(t *testing.T) {
		p := &probe{}
		rec := serve(adminOnly(p), "Bearer "+mintToken(t, "ADMIN", time.Now(), time.Hour))
		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, p.called)
	})

	t.Run("any of several roles", func(t *testing.T) {
		p := &probe{}
		h := httpx.Chain(p.handler(), a.Authenticate(), httpx.Authorize("STORE_OWNER", "ADMIN"))
		serve(h, "Bearer "+mintToken(t, "STORE_OWNER", time.Now(), time.Hour))
		require.True(t, p.called)
	})

	t.Run("no identity", func(t *testing.T) {
		p := &probe{}
		rec := serve(httpx.Authorize("ADMIN")(p.handler()), "")
		require.False(t, p.called)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, authsdk.CodeAccessTokenRequired, errorCode(t, rec))
	})
}

func TestRoleHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := req.Context()
	require.False(t, httpx.IsAuthenticated(ctx))
	require.False(t, httpx.HasRole(ctx, "ADMIN"))

	ctx = httpx.WithIdentity(ctx, httpx.Identity{ID: "u1", Role: "STORE_OWNER"})
	require.True(t, httpx.IsAuthenticated(ctx))
	require.True(t, httpx.HasRole(ctx, "STORE_OWNER"))
	require.False(t, httpx.HasRole(ctx, "ADMIN"))
	require.True(t, httpx.HasAnyRole(ctx, "ADMIN", "STORE_OWNER"))
	require.False(t, httpx.HasAnyRole(ctx, "ADMIN", "CUSTOMER"))
	require.False(t, httpx.HasAnyRole(ctx))
}

func TestUnverifiedSubject(t *testing.T) {
	token := mintTokenWithSecret(t, []byte("not-the-server-secret-not-the-server"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Equal(t, "", httpx.UnverifiedSubject(req))

	req.Header.Set("Authorization", "Bearer "+token)
	require.Equal(t, "user-1", httpx.UnverifiedSubject(req))
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("outer"), mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}
