package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/tuckshop/internal/auth/domain"
	"github.com/aussiebroadwan/tuckshop/internal/auth/store"
	"github.com/aussiebroadwan/tuckshop/pkg/slogx"
)

// GetCurrentUser reloads the caller's account.
func (s *SessionService) GetCurrentUser(ctx context.Context, userID string) (u domain.User, err error) {
	defer func(start time.Time) { observe("get_current_user", start, err) }(time.Now())
	return s.activeUser(ctx, "get_current_user", userID)
}

// UpdateProfile applies a partial update to the caller's profile and returns
// the stored result. Email and username cannot be changed here.
func (s *SessionService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (u domain.User, err error) {
	defer func(start time.Time) { observe("update_profile", start, err) }(time.Now())

	in.FirstName = trimmed(in.FirstName)
	in.LastName = trimmed(in.LastName)
	in.Phone = trimmed(in.Phone)
	in.Address = trimmed(in.Address)
	if err := validateStruct(in); err != nil {
		return domain.User{}, err
	}

	user, err := s.activeUser(ctx, "update_profile", userID)
	if err != nil {
		return domain.User{}, err
	}

	update := domain.ProfileUpdate{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Address:   in.Address,
	}
	if update.IsEmpty() {
		return user, nil
	}

	updated := update.Apply(user)
	updated.UpdatedAt = s.now()
	if err := s.Store.Users().UpdateProfile(ctx, updated); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, userNotFound()
		}
		return domain.User{}, s.internal(ctx, "update_profile", err)
	}

	slogx.FromContext(ctx).Info("profile updated", slog.String("user_id", userID))
	return updated, nil
}

// SetUserActive enables or disables an account. Disabling also revokes every
// refresh token so the user is signed out once the access token lapses.
func (s *SessionService) SetUserActive(ctx context.Context, userID string, active bool) (u domain.User, err error) {
	defer func(start time.Time) { observe("set_active", start, err) }(time.Now())

	now := s.now()
	users := s.Store.Users()
	if err := users.SetActive(ctx, userID, active, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, userNotFound()
		}
		return domain.User{}, s.internal(ctx, "set_active", err)
	}

	if !active {
		n, err := s.Ledger.RevokeAll(ctx, userID)
		if err != nil {
			return domain.User{}, s.internal(ctx, "set_active", err)
		}
		slogx.FromContext(ctx).Info("account disabled", slog.String("user_id", userID), slog.Int64("revoked", n))
	}

	u, err = users.GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, s.internal(ctx, "set_active", err)
	}
	return u, nil
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}
