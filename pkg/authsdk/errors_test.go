package authsdk_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/tuckshop/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestKindMapping(t *testing.T) {
	tests := []struct {
		kind   authsdk.Kind
		status int
		code   string
	}{
		{authsdk.KindValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
		{authsdk.KindAlreadyExists, http.StatusBadRequest, "VALIDATION_ERROR"},
		{authsdk.KindInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{authsdk.KindAccountInactive, http.StatusForbidden, "ACCOUNT_INACTIVE"},
		{authsdk.KindAccessTokenRequired, http.StatusUnauthorized, "ACCESS_TOKEN_REQUIRED"},
		{authsdk.KindExpiredToken, http.StatusUnauthorized, "EXPIRED_TOKEN"},
		{authsdk.KindInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN"},
		{authsdk.KindUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
		{authsdk.KindInsufficientRole, http.StatusForbidden, "INSUFFICIENT_ROLE"},
		{authsdk.KindDatabase, http.StatusInternalServerError, "DATABASE_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			require.Equal(t, tt.status, tt.kind.Status())
			require.Equal(t, tt.code, tt.kind.Code())
		})
	}
}

func TestAsError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		require.Nil(t, authsdk.AsError(nil))
	})

	t.Run("already typed", func(t *testing.T) {
		orig := authsdk.NewError(authsdk.KindUserNotFound, "user not found")
		wrapped := fmt.Errorf("lookup: %w", orig)
		require.Same(t, orig, authsdk.AsError(wrapped))
	})

	t.Run("unknown becomes database", func(t *testing.T) {
		cause := errors.New("disk on fire")
		e := authsdk.AsError(cause)
		require.Equal(t, authsdk.KindDatabase, e.Kind)
		require.ErrorIs(t, e, cause)
		require.NotContains(t, e.Message, "disk on fire")
	})
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	authsdk.NewError(authsdk.KindAlreadyExists, "email is already registered").
		WithField("email", authsdk.FieldAlreadyExists).
		WriteError(rec)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body authsdk.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "VALIDATION_ERROR", body.Code)
	require.Equal(t, "email is already registered", body.Message)
	require.Equal(t, map[string]string{"email": "already_exists"}, body.Fields)
}

func TestWrapKeepsCauseOffTheWire(t *testing.T) {
	rec := httptest.NewRecorder()
	authsdk.Wrap(authsdk.KindDatabase, "an unexpected error occurred", errors.New("pq: secret detail")).WriteError(rec)
	require.NotContains(t, rec.Body.String(), "secret detail")
}

func TestKindFromCode(t *testing.T) {
	require.Equal(t, authsdk.KindAlreadyExists, authsdk.KindFromCode("VALIDATION_ERROR", map[string]string{"username": "already_exists"}))
	require.Equal(t, authsdk.KindValidation, authsdk.KindFromCode("VALIDATION_ERROR", map[string]string{"password": "min"}))
	require.Equal(t, authsdk.KindExpiredToken, authsdk.KindFromCode("EXPIRED_TOKEN", nil))
	require.Equal(t, authsdk.KindDatabase, authsdk.KindFromCode("SOMETHING_NEW", nil))
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("refresh: %w", authsdk.NewError(authsdk.KindInvalidToken, "invalid refresh token"))
	require.True(t, authsdk.IsKind(err, authsdk.KindInvalidToken))
	require.False(t, authsdk.IsKind(err, authsdk.KindExpiredToken))
	require.False(t, authsdk.IsKind(errors.New("plain"), authsdk.KindInvalidToken))
}
