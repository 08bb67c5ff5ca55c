package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RefreshCookieName is the cookie carrying the refresh token.
const RefreshCookieName = "refresh_token"

// SDKClient is a client for the tuckshop session service. It covers the
// public endpoints and creates authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a client for baseURL.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates an account and returns a session for it.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*Session, *AuthResponse, error) {
	return c.authenticate(ctx, "/v1/auth/register", req, http.StatusCreated)
}

// Login authenticates with an email or username and password.
func (c *SDKClient) Login(ctx context.Context, identifier, password string) (*Session, *AuthResponse, error) {
	return c.authenticate(ctx, "/v1/auth/login", LoginRequest{Identifier: identifier, Password: password}, http.StatusOK)
}

// Refresh exchanges a refresh token for a new access token. The returned
// refresh token is empty unless the server hands out the rotated one.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, string, error) {
	resp, err := c.postJSON(ctx, "/v1/auth/refresh", RefreshRequest{RefreshToken: refreshToken}, nil)
	if err != nil {
		return nil, "", err
	}
	rotated := refreshCookie(resp)

	var out RefreshResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, "", err
	}
	return &out, rotated, nil
}

// NewSessionFromTokens resumes a session from stored tokens. expiresIn is the
// access token expiry in epoch milliseconds.
func (c *SDKClient) NewSessionFromTokens(accessToken, refreshToken string, expiresIn int64) *Session {
	return newSession(c, accessToken, refreshToken, expiresIn)
}

func (c *SDKClient) authenticate(ctx context.Context, path string, body any, want int) (*Session, *AuthResponse, error) {
	resp, err := c.postJSON(ctx, path, body, nil)
	if err != nil {
		return nil, nil, err
	}
	refresh := refreshCookie(resp)

	var out AuthResponse
	if err := decodeJSON(resp, &out, want); err != nil {
		return nil, nil, err
	}
	return newSession(c, out.AccessToken, refresh, out.ExpiresIn), &out, nil
}

func (c *SDKClient) postJSON(ctx context.Context, path string, body any, headers map[string]string) (*http.Response, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	h := map[string]string{"Content-Type": "application/json"}
	for k, v := range headers {
		h[k] = v
	}
	return c.doRequest(ctx, http.MethodPost, path, bytes.NewReader(buf), h)
}

func refreshCookie(resp *http.Response) string {
	for _, ck := range resp.Cookies() {
		if ck.Name == RefreshCookieName && ck.MaxAge >= 0 {
			return ck.Value
		}
	}
	return ""
}
