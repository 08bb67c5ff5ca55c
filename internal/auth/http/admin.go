package http

import (
	"net/http"

	"github.com/aussiebroadwan/tuckshop/internal/auth/service"
	"github.com/aussiebroadwan/tuckshop/pkg/authsdk"
	"github.com/aussiebroadwan/tuckshop/pkg/httpx"
	"github.com/aussiebroadwan/tuckshop/pkg/slogx"
)

// AdminHandler serves the ADMIN-only session routes.
type AdminHandler struct {
	Sessions *service.SessionService
}

// HandleRevokeUserSessions revokes every session of a user.
//
//	@Summary		Revoke a user's sessions
//	@Description	Revokes every refresh token of the given user. Requires the ADMIN role.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string					true	"User ID"
//	@Success		200	{object}	authsdk.RevokeResponse	"Number of revoked sessions"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Missing, expired or invalid access token"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Insufficient role"
//	@Failure		404	{object}	authsdk.ErrorResponse	"User not found"
//	@Router			/v1/admin/users/{id}/sessions [delete].
func (h *AdminHandler) HandleRevokeUserSessions(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	n, err := h.Sessions.RevokeAllSessions(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	slogx.FromContext(r.Context()).Info("admin revoked user sessions", "target_user_id", userID, "revoked", n)
	httpx.WriteJSON(w, http.StatusOK, authsdk.RevokeResponse{Revoked: n})
}

// HandleSetActive enables or disables an account.
//
//	@Summary		Enable or disable a user
//	@Description	Sets whether the user may sign in. Disabling also revokes the user's sessions. Requires the ADMIN role.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"User ID"
//	@Param			request	body		authsdk.SetActiveRequest	true	"New state"
//	@Success		200		{object}	authsdk.UserResponse		"Updated user"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Invalid body"
//	@Failure		403		{object}	authsdk.ErrorResponse		"Insufficient role"
//	@Failure		404		{object}	authsdk.ErrorResponse		"User not found"
//	@Router			/v1/admin/users/{id}/active [put].
func (h *AdminHandler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SetActiveRequest
	if err := httpx.DecodeJSON(w, r, &req, false); err != nil {
		badRequest(w, err)
		return
	}

	user, err := h.Sessions.SetUserActive(r.Context(), r.PathValue("id"), req.IsActive)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.UserResponse{User: toUser(user)})
}

// HandleSweep removes expired sessions now instead of waiting for the
// housekeeping tick.
//
//	@Summary		Sweep expired sessions
//	@Description	Deletes expired refresh tokens. Requires the ADMIN role.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.SweepResponse	"Number of removed sessions"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Insufficient role"
//	@Router			/v1/admin/sessions/sweep [post].
func (h *AdminHandler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	n, err := h.Sessions.SweepExpiredSessions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.SweepResponse{Swept: n})
}
