package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/tuckshop/internal/auth/domain"
	"github.com/aussiebroadwan/tuckshop/internal/auth/store"
)

type usersRepo struct {
	db dbtx
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (r *usersRepo) GetUserByIdentifier(ctx context.Context, identifier string) (domain.User, error) {
	u, err := r.GetUserByEmail(ctx, strings.ToLower(identifier))
	if err == nil || !errors.Is(err, store.ErrNotFound) {
		return u, err
	}
	return r.GetUserByUsername(ctx, identifier)
}

func (r *usersRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&ok)
	return ok, err
}

func (r *usersRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&ok)
	return ok, err
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		u.ID,
		u.Email,
		u.Username,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.Role.String(),
		u.IsActive,
		mapStringNull(u.Phone),
		mapStringNull(u.Address),
		u.CreatedAt.UTC(),
		u.UpdatedAt.UTC(),
	)
	return mapConflict(err)
}

func (r *usersRepo) UpdateProfile(ctx context.Context, u domain.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET first_name = $1, last_name = $2, phone = $3, address = $4, updated_at = $5
		WHERE id = $6`,
		u.FirstName,
		u.LastName,
		mapStringNull(u.Phone),
		mapStringNull(u.Address),
		u.UpdatedAt.UTC(),
		u.ID,
	)
	return requireOneRow(res, err)
}

func (r *usersRepo) SetActive(ctx context.Context, userID string, active bool, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_active = $1, updated_at = $2 WHERE id = $3`,
		active, now.UTC(), userID)
	return requireOneRow(res, err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, hash string, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		hash, now.UTC(), userID)
	return requireOneRow(res, err)
}
