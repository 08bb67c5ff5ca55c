package sqlite

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/tuckshop/internal/auth/domain"
	"github.com/aussiebroadwan/tuckshop/internal/auth/store"
	"github.com/aussiebroadwan/tuckshop/internal/auth/store/drivers/sqlite/gen"
)

type usersRepo struct {
	q *gen.Queries
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row, err := r.q.GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row, err := r.q.GetUserByEmail(ctx, email)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row, err := r.q.GetUserByUsername(ctx, username)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

// GetUserByIdentifier tries the email first, then the username.
func (r *usersRepo) GetUserByIdentifier(ctx context.Context, identifier string) (domain.User, error) {
	u, err := r.GetUserByEmail(ctx, strings.ToLower(identifier))
	if err == nil || !errors.Is(err, store.ErrNotFound) {
		return u, err
	}
	return r.GetUserByUsername(ctx, identifier)
}

func (r *usersRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	n, err := r.q.EmailExists(ctx, email)
	return n != 0, err
}

func (r *usersRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	n, err := r.q.UsernameExists(ctx, username)
	return n != 0, err
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	err := r.q.CreateUser(ctx, gen.CreateUserParams{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         u.Role.String(),
		IsActive:     u.IsActive,
		Phone:        mapStringNull(u.Phone),
		Address:      mapStringNull(u.Address),
		CreatedAt:    utc(u.CreatedAt),
		UpdatedAt:    utc(u.UpdatedAt),
	})
	return mapConflict(err)
}

func (r *usersRepo) UpdateProfile(ctx context.Context, u domain.User) error {
	n, err := r.q.UpdateUserProfile(ctx, gen.UpdateUserProfileParams{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     mapStringNull(u.Phone),
		Address:   mapStringNull(u.Address),
		UpdatedAt: utc(u.UpdatedAt),
		ID:        u.ID,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) SetActive(ctx context.Context, userID string, active bool, now time.Time) error {
	n, err := r.q.SetUserActive(ctx, gen.SetUserActiveParams{
		IsActive:  active,
		UpdatedAt: utc(now),
		ID:        userID,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, hash string, now time.Time) error {
	n, err := r.q.UpdateUserPasswordHash(ctx, gen.UpdateUserPasswordHashParams{
		PasswordHash: hash,
		UpdatedAt:    utc(now),
		ID:           userID,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
