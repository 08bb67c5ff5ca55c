package auth_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/aussiebroadwan/tuckshop/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestInvalidCredentials verifies unknown users and wrong passwords get the
// same answer.
func TestInvalidCredentials(t *testing.T) {
	client := authsdk.NewSDKClient(setupAuthContainer(t))
	ctx := t.Context()

	registerUser(t, client, "heidi")

	_, _, wrongPassword := client.Login(ctx, "heidi", "WrongPassw0rd")
	_, _, unknownUser := client.Login(ctx, "nobody", "WrongPassw0rd")

	assertKind(t, wrongPassword, authsdk.KindInvalidCredentials, "Wrong password should be rejected")
	assertKind(t, unknownUser, authsdk.KindInvalidCredentials, "Unknown user should be rejected")
	require.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

// TestInvalidAccessToken verifies protected routes reject bad bearer tokens.
func TestInvalidAccessToken(t *testing.T) {
	client := authsdk.NewSDKClient(setupAuthContainer(t))
	ctx := t.Context()

	session := client.NewSessionFromTokens("invalid-token-12345", "", time.Now().Add(time.Hour).UnixMilli())
	_, err := session.Me(ctx)
	assertKind(t, err, authsdk.KindInvalidToken, "Invalid token should be rejected")
}

// TestRefreshTokenIsNotAnAccessToken verifies the two secrets are kept apart.
func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	client := authsdk.NewSDKClient(setupAuthContainer(t))
	ctx := t.Context()

	session, _ := registerUser(t, client, "ivan")

	confused := client.NewSessionFromTokens(session.RefreshToken(), "", time.Now().Add(time.Hour).UnixMilli())
	_, err := confused.Me(ctx)
	assertKind(t, err, authsdk.KindInvalidToken, "Refresh token should not authenticate requests")
}

// TestMissingAccessToken verifies protected routes require a bearer token.
func TestMissingAccessToken(t *testing.T) {
	baseURL := setupAuthContainer(t)

	resp, err := http.Get(baseURL + "/v1/auth/me")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
