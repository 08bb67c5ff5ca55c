package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/tuckshop/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// ConflictError reports which unique column an insert collided on. It matches
// ErrAlreadyExists with errors.Is.
type ConflictError struct {
	Field string // "email", "username", "token_hash" or "id"
}

func (e *ConflictError) Error() string {
	return "store: already exists: " + e.Field
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Sub-repositories are exposed as methods so a Tx-scoped
// store can hand out the same repos bound to the transaction, and so nobody
// starts a transaction within a transaction by accident.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail expects an already lower-cased email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByIdentifier matches the identifier against the email
	// (lower-cased) or the username (exact).
	GetUserByIdentifier(ctx context.Context, identifier string) (domain.User, error)

	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)

	// CreateUser inserts a new user (id is provided by app via ULID). A unique
	// violation is returned as *ConflictError.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateProfile writes first/last name, phone and address and bumps
	// updated_at.
	UpdateProfile(ctx context.Context, u domain.User) error

	// SetActive enables or disables an account.
	SetActive(ctx context.Context, userID string, active bool, now time.Time) error

	// UpdatePasswordHash replaces the stored hash, e.g. after a cost upgrade.
	UpdatePasswordHash(ctx context.Context, userID, hash string, now time.Time) error
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetLiveRefreshToken returns the record with this fingerprint owned by
	// userID that has not expired at now.
	GetLiveRefreshToken(ctx context.Context, hash, userID string, now time.Time) (domain.RefreshToken, error)

	// DeleteLiveRefreshToken is the compare-and-delete used by rotation. It
	// reports how many rows were removed (0 or 1).
	DeleteLiveRefreshToken(ctx context.Context, hash, userID string, now time.Time) (int64, error)

	// DeleteRefreshTokenByHash removes one record regardless of owner or expiry.
	DeleteRefreshTokenByHash(ctx context.Context, hash string) (int64, error)

	// DeleteUserRefreshTokens removes every record of a user.
	DeleteUserRefreshTokens(ctx context.Context, userID string) (int64, error)

	// DeleteExpiredRefreshTokens is housekeeping.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)

	// CountLiveRefreshTokens counts a user's unexpired records.
	CountLiveRefreshTokens(ctx context.Context, userID string, now time.Time) (int64, error)
}
