package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/tuckshop/internal/auth/domain"
	"github.com/aussiebroadwan/tuckshop/internal/auth/store"
	"github.com/aussiebroadwan/tuckshop/pkg/cryptox"
	"github.com/aussiebroadwan/tuckshop/pkg/idx"
	"github.com/aussiebroadwan/tuckshop/pkg/slogx"
)

var ErrBootstrapFailedToCreateAdmin = errors.New("failed to create admin user")

// AdminAccount is the administrator seeded at startup.
type AdminAccount struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,min=3,max=32,username"`
	Password string `json:"password" validate:"required,min=8,max=72,password"`
}

type BootstrapService struct {
	Store  store.Store
	Hasher *cryptox.PasswordHasher
}

// EnsureAdmin creates an ADMIN account unless one with the same email or
// username already exists. It reports whether a user was created.
func (s *BootstrapService) EnsureAdmin(ctx context.Context, acct AdminAccount) (bool, error) {
	l := slogx.FromContext(ctx)

	acct.Email = strings.ToLower(strings.TrimSpace(acct.Email))
	acct.Username = strings.TrimSpace(acct.Username)
	if err := validateStruct(acct); err != nil {
		return false, err
	}

	users := s.Store.Users()
	emailTaken, err := users.EmailExists(ctx, acct.Email)
	if err != nil {
		return false, err
	}
	usernameTaken, err := users.UsernameExists(ctx, acct.Username)
	if err != nil {
		return false, err
	}
	if emailTaken || usernameTaken {
		l.Debug("admin account already present", slog.String("email", acct.Email))
		return false, nil
	}

	hash, err := s.Hasher.Hash(acct.Password)
	if err != nil {
		l.Error("failed to hash admin password", slog.Any("error", err))
		return false, ErrBootstrapFailedToCreateAdmin
	}

	now := time.Now().UTC()
	admin := domain.User{
		ID:           idx.New().String(),
		Email:        acct.Email,
		Username:     acct.Username,
		PasswordHash: hash,
		FirstName:    "Admin",
		LastName:     "User",
		Role:         domain.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.CreateUser(ctx, admin); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return false, nil
		}
		l.Error("failed to create admin user", slog.Any("error", err))
		return false, ErrBootstrapFailedToCreateAdmin
	}

	l.Info("created admin user", slog.String("admin_user_id", admin.ID))
	return true, nil
}
