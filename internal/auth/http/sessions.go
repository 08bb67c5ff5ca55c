package http

import (
	"net/http"

	"github.com/aussiebroadwan/tuckshop/internal/auth/domain"
	"github.com/aussiebroadwan/tuckshop/internal/auth/service"
	"github.com/aussiebroadwan/tuckshop/pkg/authsdk"
	"github.com/aussiebroadwan/tuckshop/pkg/httpx"
)

type SessionHandler struct {
	Sessions *service.SessionService
	Cookie   CookieConfig
}

// HandleRegister creates an account.
//
//	@Summary		Register
//	@Description	Creates a CUSTOMER account and signs it in. The refresh token is set in the refresh_token cookie.
//	@Tags			Sessions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest	true	"Account details"
//	@Success		201		{object}	authsdk.AuthResponse	"User, access token and its expiry (epoch ms)"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Validation failed or email/username taken"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limited"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/register [post].
func (h *SessionHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req, false); err != nil {
		badRequest(w, err)
		return
	}

	res, err := h.Sessions.Register(r.Context(), service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address:   req.Address,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.Cookie.set(w, res.RefreshToken, res.RefreshExpiresAt)
	httpx.WriteJSON(w, http.StatusCreated, authResponse(res))
}

// HandleLogin signs in with an email or username.
//
//	@Summary		Login
//	@Description	Signs in with an email address or username. The refresh token is set in the refresh_token cookie.
//	@Tags			Sessions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Identifier and password"
//	@Success		200		{object}	authsdk.AuthResponse	"User, access token and its expiry (epoch ms)"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Validation failed"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid credentials"
//	@Failure		403		{object}	authsdk.ErrorResponse	"Account inactive"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limited"
//	@Router			/v1/auth/login [post].
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req, false); err != nil {
		badRequest(w, err)
		return
	}

	res, err := h.Sessions.Login(r.Context(), service.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.Cookie.set(w, res.RefreshToken, res.RefreshExpiresAt)
	httpx.WriteJSON(w, http.StatusOK, authResponse(res))
}

// HandleRefresh exchanges a refresh token for a new access token.
//
//	@Summary		Refresh
//	@Description	Redeems the refresh token from the refresh_token cookie (or the body) for a new access token. The presented refresh token is rotated and cannot be used again.
//	@Tags			Sessions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RefreshRequest	false	"Refresh token when no cookie is sent"
//	@Success		200		{object}	authsdk.RefreshResponse	"Access token and its expiry (epoch ms)"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Missing, expired, invalid or already used refresh token"
//	@Failure		403		{object}	authsdk.ErrorResponse	"Account inactive"
//	@Failure		404		{object}	authsdk.ErrorResponse	"User not found"
//	@Router			/v1/auth/refresh [post].
func (h *SessionHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	if err := httpx.DecodeJSON(w, r, &req, true); err != nil {
		badRequest(w, err)
		return
	}

	res, err := h.Sessions.Refresh(r.Context(), refreshTokenFrom(r, req.RefreshToken))
	if err != nil {
		if authsdk.IsKind(err, authsdk.KindInvalidToken) || authsdk.IsKind(err, authsdk.KindExpiredToken) {
			h.Cookie.clear(w)
		}
		writeError(w, err)
		return
	}

	if h.Cookie.ReturnRotated {
		h.Cookie.set(w, res.RefreshToken, res.RefreshExpiresAt)
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.RefreshResponse{
		AccessToken: res.AccessToken,
		ExpiresIn:   res.AccessExpiresAt.UnixMilli(),
	})
}

// HandleLogout revokes the presented refresh token.
//
//	@Summary		Logout
//	@Description	Revokes the refresh token from the cookie (or the body) and clears the cookie. Always succeeds.
//	@Tags			Sessions
//	@Accept			json
//	@Param			request	body	authsdk.LogoutRequest	false	"Refresh token when no cookie is sent"
//	@Success		204
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/logout [post].
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LogoutRequest
	if err := httpx.DecodeJSON(w, r, &req, true); err != nil {
		badRequest(w, err)
		return
	}

	if err := h.Sessions.Logout(r.Context(), refreshTokenFrom(r, req.RefreshToken)); err != nil {
		writeError(w, err)
		return
	}

	h.Cookie.clear(w)
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

func authResponse(res service.AuthResult) authsdk.AuthResponse {
	return authsdk.AuthResponse{
		User:        toUser(res.User),
		AccessToken: res.AccessToken,
		ExpiresIn:   res.AccessExpiresAt.UnixMilli(),
	}
}

func toUser(u domain.User) authsdk.User {
	return authsdk.User{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role.String(),
		IsActive:  u.IsActive,
		Phone:     u.Phone,
		Address:   u.Address,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	authsdk.AsError(err).WriteError(w)
}

func badRequest(w http.ResponseWriter, err error) {
	authsdk.NewError(authsdk.KindValidation, err.Error()).WriteError(w)
}
