package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Me returns the caller's account, read fresh from the server.
func (s *Session) Me(ctx context.Context) (*User, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/auth/me", nil, nil)
	if err != nil {
		return nil, err
	}

	var out UserResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// UpdateProfile changes the caller's display names, phone or address.
func (s *Session) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*User, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := s.doAuthRequest(ctx, http.MethodPatch, "/v1/auth/me", bytes.NewReader(body),
		map[string]string{"Content-Type": "application/json"})
	if err != nil {
		return nil, err
	}

	var out UserResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// ActiveSessions counts the caller's live refresh tokens.
func (s *Session) ActiveSessions(ctx context.Context) (int64, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/auth/sessions", nil, nil)
	if err != nil {
		return 0, err
	}

	var out SessionsResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return 0, err
	}
	return out.ActiveSessions, nil
}

// RevokeAllSessions logs the caller out everywhere.
func (s *Session) RevokeAllSessions(ctx context.Context) (int64, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, "/v1/auth/sessions", nil, nil)
	if err != nil {
		return 0, err
	}

	var out RevokeResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return 0, err
	}
	return out.Revoked, nil
}

// Logout revokes this session's refresh token.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	token := s.refreshToken
	s.refreshToken = ""
	s.mu.Unlock()

	resp, err := s.client.postJSON(ctx, "/v1/auth/logout", LogoutRequest{RefreshToken: token}, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}
