package http

import (
	"net/http"

	"github.com/aussiebroadwan/tuckshop/internal/auth/service"
	"github.com/aussiebroadwan/tuckshop/pkg/authsdk"
	"github.com/aussiebroadwan/tuckshop/pkg/httpx"
)

// AccountHandler serves the caller's own account. Every route runs behind
// Authenticate.
type AccountHandler struct {
	Sessions *service.SessionService
}

func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := httpx.IdentityFromContext(r.Context())
	if !ok || id.ID == "" {
		authsdk.NewError(authsdk.KindAccessTokenRequired, "access token required").WriteError(w)
		return "", false
	}
	return id.ID, true
}

// HandleGetMe returns the caller's account.
//
//	@Summary		Current user
//	@Description	Returns the authenticated user, reloaded from the store.
//	@Tags			Account
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.UserResponse	"User"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Missing, expired or invalid access token"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Account inactive"
//	@Failure		404	{object}	authsdk.ErrorResponse	"User not found"
//	@Router			/v1/auth/me [get].
func (h *AccountHandler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	user, err := h.Sessions.GetCurrentUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.UserResponse{User: toUser(user)})
}

// HandleUpdateMe applies a partial profile update.
//
//	@Summary		Update profile
//	@Description	Updates first name, last name, phone or address. Omitted fields are left untouched; an empty phone or address clears it. Email and username cannot be changed.
//	@Tags			Account
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.UpdateProfileRequest	true	"Fields to change"
//	@Success		200		{object}	authsdk.UserResponse			"Updated user"
//	@Failure		400		{object}	authsdk.ErrorResponse			"Validation failed"
//	@Failure		401		{object}	authsdk.ErrorResponse			"Missing, expired or invalid access token"
//	@Failure		404		{object}	authsdk.ErrorResponse			"User not found"
//	@Router			/v1/auth/me [patch].
func (h *AccountHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req authsdk.UpdateProfileRequest
	if err := httpx.DecodeJSON(w, r, &req, false); err != nil {
		badRequest(w, err)
		return
	}

	user, err := h.Sessions.UpdateProfile(r.Context(), userID, service.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address:   req.Address,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.UserResponse{User: toUser(user)})
}

// HandleListSessions counts the caller's live sessions.
//
//	@Summary		Active sessions
//	@Description	Returns how many unexpired refresh tokens the caller holds.
//	@Tags			Account
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.SessionsResponse	"Live session count"
//	@Failure		401	{object}	authsdk.ErrorResponse		"Missing, expired or invalid access token"
//	@Router			/v1/auth/sessions [get].
func (h *AccountHandler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	n, err := h.Sessions.ActiveSessions(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.SessionsResponse{ActiveSessions: n})
}

// HandleRevokeSessions signs the caller out everywhere.
//
//	@Summary		Revoke all sessions
//	@Description	Revokes every refresh token of the caller. Access tokens already issued stay valid until they expire.
//	@Tags			Account
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.RevokeResponse	"Number of revoked sessions"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Missing, expired or invalid access token"
//	@Router			/v1/auth/sessions [delete].
func (h *AccountHandler) HandleRevokeSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	n, err := h.Sessions.RevokeAllSessions(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.RevokeResponse{Revoked: n})
}
