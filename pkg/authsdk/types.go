package authsdk

import "time"

// ============================================================================
// Errors
// ============================================================================

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	// Code is one of the Code* constants
	Code string `json:"code"`

	// Message is a human-readable description
	Message string `json:"message"`

	// Fields maps offending request fields to a reason
	Fields map[string]string `json:"fields,omitempty"`
}

// ============================================================================
// Session Types
// ============================================================================

// RegisterRequest is the body of POST /v1/auth/register.
type RegisterRequest struct {
	Email     string  `json:"email"`
	Username  string  `json:"username"`
	Password  string  `json:"password"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
}

// LoginRequest is the body of POST /v1/auth/login. Identifier is an email
// address or a username.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// RefreshRequest is the optional body of POST /v1/auth/refresh. The refresh
// cookie takes precedence when both are present.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

// LogoutRequest is the optional body of POST /v1/auth/logout.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

// UpdateProfileRequest is the body of PATCH /v1/auth/me. Nil fields are left
// untouched; an empty phone or address clears it.
type UpdateProfileRequest struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
}

// User is the public projection of an account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuthResponse is returned by register and login. The refresh token travels
// in the refresh_token cookie only.
type AuthResponse struct {
	User        User   `json:"user"`
	AccessToken string `json:"accessToken"`

	// ExpiresIn is the access token expiry as epoch milliseconds
	ExpiresIn int64 `json:"expiresIn"`
}

// RefreshResponse is returned by POST /v1/auth/refresh.
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`

	// ExpiresIn is the access token expiry as epoch milliseconds
	ExpiresIn int64 `json:"expiresIn"`
}

// UserResponse is returned by GET and PATCH /v1/auth/me.
type UserResponse struct {
	User User `json:"user"`
}

// SessionsResponse is returned by GET /v1/auth/sessions.
type SessionsResponse struct {
	ActiveSessions int64 `json:"activeSessions"`
}

// RevokeResponse is returned by the session revocation endpoints.
type RevokeResponse struct {
	Revoked int64 `json:"revoked"`
}

// SetActiveRequest is the body of PUT /v1/admin/users/{id}/active.
type SetActiveRequest struct {
	IsActive bool `json:"isActive"`
}

// SweepResponse is returned by POST /v1/admin/sessions/sweep.
type SweepResponse struct {
	Swept int64 `json:"swept"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz (readyz adds Checks).
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks is the status of each dependency checked by /readyz.
type HealthChecks struct {
	Database string `json:"database"`
	Sessions string `json:"sessions"`
}
