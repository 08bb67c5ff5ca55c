package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// RevokeUserSessions revokes every session of another user. Requires ADMIN.
func (s *Session) RevokeUserSessions(ctx context.Context, userID string) (int64, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, "/v1/admin/users/"+url.PathEscape(userID)+"/sessions", nil, nil)
	if err != nil {
		return 0, err
	}

	var out RevokeResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return 0, err
	}
	return out.Revoked, nil
}

// SweepExpiredSessions runs the expired-session sweep now. Requires ADMIN.
func (s *Session) SweepExpiredSessions(ctx context.Context) (int64, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/admin/sessions/sweep", nil, nil)
	if err != nil {
		return 0, err
	}

	var out SweepResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return 0, err
	}
	return out.Swept, nil
}

// SetUserActive enables or disables another user's account. Disabling also
// revokes the user's sessions. Requires ADMIN.
func (s *Session) SetUserActive(ctx context.Context, userID string, active bool) (*User, error) {
	body, err := json.Marshal(SetActiveRequest{IsActive: active})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := s.doAuthRequest(ctx, http.MethodPut, "/v1/admin/users/"+url.PathEscape(userID)+"/active",
		bytes.NewReader(body), map[string]string{"Content-Type": "application/json"})
	if err != nil {
		return nil, err
	}

	var out UserResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}
