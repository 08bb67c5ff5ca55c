package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/tuckshop/internal/auth/domain"
	"github.com/aussiebroadwan/tuckshop/internal/auth/ledger"
	"github.com/aussiebroadwan/tuckshop/internal/auth/store"
	"github.com/aussiebroadwan/tuckshop/pkg/authsdk"
	"github.com/aussiebroadwan/tuckshop/pkg/cryptox"
	"github.com/aussiebroadwan/tuckshop/pkg/idx"
	"github.com/aussiebroadwan/tuckshop/pkg/jwtx"
	"github.com/aussiebroadwan/tuckshop/pkg/slogx"
	"github.com/getsentry/sentry-go"
)

// SessionService runs registration, login, refresh and the account
// operations around them. Every error it returns is an *authsdk.Error.
type SessionService struct {
	Store  store.Store
	Ledger ledger.Ledger
	Tokens *PairIssuer
	Hasher *cryptox.PasswordHasher

	Now   func() time.Time
	NewID func() string // user ids, ULID by default
}

type RegisterInput struct {
	Email     string  `json:"email" validate:"required,email,max=254"`
	Username  string  `json:"username" validate:"required,min=3,max=32,username"`
	Password  string  `json:"password" validate:"required,min=8,max=72,password"`
	FirstName string  `json:"firstName" validate:"required,max=100"`
	LastName  string  `json:"lastName" validate:"required,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
	Address   *string `json:"address" validate:"omitempty,max=255"`
}

type LoginInput struct {
	// Identifier is an email address or a username.
	Identifier string `json:"identifier" validate:"required,max=254"`
	Password   string `json:"password" validate:"required,max=128"`
}

// UpdateProfileInput is a partial update. Nil fields are left alone; names
// cannot be blanked but phone and address can be cleared with "".
type UpdateProfileInput struct {
	FirstName *string `json:"firstName" validate:"omitnil,min=1,max=100"`
	LastName  *string `json:"lastName" validate:"omitnil,min=1,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
	Address   *string `json:"address" validate:"omitempty,max=255"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User             domain.User
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// RefreshResult is returned by Refresh. RefreshToken is the rotated token;
// the old one is dead once this returns.
type RefreshResult struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *SessionService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return idx.New().String()
}

// Register creates a CUSTOMER account and signs it in.
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (res AuthResult, err error) {
	defer func(start time.Time) { observe("register", start, err) }(time.Now())

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := validateStruct(in); err != nil {
		return AuthResult{}, err
	}
	if len(in.Password) > MaxPasswordLength {
		return AuthResult{}, authsdk.Errorf(authsdk.KindValidation, "password must be at most %d bytes", MaxPasswordLength).
			WithField("password", "max")
	}

	users := s.Store.Users()
	taken, err := users.EmailExists(ctx, in.Email)
	if err != nil {
		return AuthResult{}, s.internal(ctx, "register", err)
	}
	if taken {
		return AuthResult{}, alreadyExists("email")
	}
	taken, err = users.UsernameExists(ctx, in.Username)
	if err != nil {
		return AuthResult{}, s.internal(ctx, "register", err)
	}
	if taken {
		return AuthResult{}, alreadyExists("username")
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return AuthResult{}, s.internal(ctx, "register", err)
	}

	now := s.now()
	user := domain.User{
		ID:           s.newID(),
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         domain.DefaultRole,
		IsActive:     true,
		Phone:        optional(in.Phone),
		Address:      optional(in.Address),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := users.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		var conflict *store.ConflictError
		if errors.As(err, &conflict) {
			return AuthResult{}, alreadyExists(conflict.Field)
		}
		return AuthResult{}, s.internal(ctx, "register", err)
	}

	slogx.FromContext(ctx).Info("user registered", slog.String("user_id", user.ID))
	return s.startSession(ctx, "register", user)
}

// Login signs in by email or username. Unknown accounts and wrong passwords
// produce the same error.
func (s *SessionService) Login(ctx context.Context, in LoginInput) (res AuthResult, err error) {
	defer func(start time.Time) { observe("login", start, err) }(time.Now())
	l := slogx.FromContext(ctx)

	in.Identifier = strings.TrimSpace(in.Identifier)
	if err := validateStruct(in); err != nil {
		return AuthResult{}, err
	}

	user, err := s.Store.Users().GetUserByIdentifier(ctx, in.Identifier)
	if errors.Is(err, store.ErrNotFound) {
		s.Hasher.VerifyDummy(in.Password)
		l.Info("login failed", slog.String("reason", "unknown_identifier"))
		return AuthResult{}, invalidCredentials()
	}
	if err != nil {
		return AuthResult{}, s.internal(ctx, "login", err)
	}

	if !user.IsActive {
		l.Info("login refused", slog.String("user_id", user.ID), slog.String("reason", "inactive"))
		return AuthResult{}, accountInactive()
	}

	if err := s.Hasher.Verify(in.Password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Info("login failed", slog.String("user_id", user.ID), slog.String("reason", "password_mismatch"))
			return AuthResult{}, invalidCredentials()
		}
		return AuthResult{}, s.internal(ctx, "login", err)
	}

	if s.Hasher.NeedsRehash(user.PasswordHash) {
		s.upgradeHash(ctx, user.ID, in.Password)
	}

	return s.startSession(ctx, "login", user)
}

// upgradeHash re-hashes a verified password at the current cost. Failures are
// logged and do not fail the login.
func (s *SessionService) upgradeHash(ctx context.Context, userID, password string) {
	l := slogx.FromContext(ctx)

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		l.Warn("password rehash failed", slog.String("user_id", userID), slog.Any("error", err))
		return
	}
	if err := s.Store.Users().UpdatePasswordHash(ctx, userID, hash, s.now()); err != nil {
		l.Warn("password rehash failed", slog.String("user_id", userID), slog.Any("error", err))
		return
	}
	l.Info("password hash upgraded", slog.String("user_id", userID), slog.Int("cost", s.Hasher.Cost))
}

// startSession issues a pair for user and records its refresh token.
func (s *SessionService) startSession(ctx context.Context, op string, user domain.User) (AuthResult, error) {
	pair, err := s.Tokens.Issue(user.Snapshot())
	if err != nil {
		return AuthResult{}, s.internal(ctx, op, err)
	}

	err = s.Ledger.Store(ctx, ledger.Issued{
		ID:        pair.RefreshID,
		UserID:    user.ID,
		Token:     pair.RefreshToken,
		ExpiresAt: pair.RefreshExpiresAt,
	})
	if err != nil {
		return AuthResult{}, s.internal(ctx, op, err)
	}

	return AuthResult{
		User:             user,
		AccessToken:      pair.AccessToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}, nil
}

// Refresh redeems a refresh token for a new pair. The ledger is the final
// word: a well-signed token that is not recorded there is rejected.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (res RefreshResult, err error) {
	defer func(start time.Time) { observe("refresh", start, err) }(time.Now())
	l := slogx.FromContext(ctx)

	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return RefreshResult{}, authsdk.NewError(authsdk.KindAccessTokenRequired, "refresh token required")
	}

	out := s.Tokens.VerifyRefresh(refreshToken)
	switch out.Failure {
	case jwtx.FailureNone:
	case jwtx.FailureExpired:
		return RefreshResult{}, authsdk.NewError(authsdk.KindExpiredToken, "refresh token expired")
	default:
		l.Debug("refresh token rejected", slog.String("failure", out.Failure.String()), slog.Any("error", out.Err))
		return RefreshResult{}, invalidRefreshToken()
	}
	userID := out.Claims.Subject

	if _, err := s.Ledger.Redeem(ctx, refreshToken, userID); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			l.Info("refresh token not live", slog.String("user_id", userID), slog.String("jti", out.Claims.ID))
			return RefreshResult{}, invalidRefreshToken()
		}
		return RefreshResult{}, s.internal(ctx, "refresh", err)
	}

	user, err := s.activeUser(ctx, "refresh", userID)
	if err != nil {
		return RefreshResult{}, err
	}

	pair, err := s.Tokens.Issue(user.Snapshot())
	if err != nil {
		return RefreshResult{}, s.internal(ctx, "refresh", err)
	}

	err = s.Ledger.Rotate(ctx, refreshToken, ledger.Issued{
		ID:        pair.RefreshID,
		UserID:    user.ID,
		Token:     pair.RefreshToken,
		ExpiresAt: pair.RefreshExpiresAt,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			// Somebody else rotated it between Redeem and here.
			l.Warn("refresh token rotated concurrently", slog.String("user_id", userID), slog.String("jti", out.Claims.ID))
			return RefreshResult{}, invalidRefreshToken()
		}
		return RefreshResult{}, s.internal(ctx, "refresh", err)
	}

	l.Debug("refresh token rotated", slog.String("user_id", user.ID), slog.String("jti", pair.RefreshID))
	return RefreshResult{
		AccessToken:      pair.AccessToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}, nil
}

// Logout revokes one refresh token. Unknown or already revoked tokens are
// ignored.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) (err error) {
	defer func(start time.Time) { observe("logout", start, err) }(time.Now())

	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}
	if err := s.Ledger.Revoke(ctx, refreshToken); err != nil {
		return s.internal(ctx, "logout", err)
	}
	return nil
}

// RevokeAllSessions deletes every refresh record of userID. Access tokens
// already handed out stay valid until they expire.
func (s *SessionService) RevokeAllSessions(ctx context.Context, userID string) (n int64, err error) {
	defer func(start time.Time) { observe("revoke_all", start, err) }(time.Now())

	if _, err := s.Store.Users().GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, userNotFound()
		}
		return 0, s.internal(ctx, "revoke_all", err)
	}

	n, err = s.Ledger.RevokeAll(ctx, userID)
	if err != nil {
		return 0, s.internal(ctx, "revoke_all", err)
	}
	slogx.FromContext(ctx).Info("sessions revoked", slog.String("user_id", userID), slog.Int64("revoked", n))
	return n, nil
}

// SweepExpiredSessions removes refresh records past their expiry.
func (s *SessionService) SweepExpiredSessions(ctx context.Context) (n int64, err error) {
	defer func(start time.Time) { observe("sweep", start, err) }(time.Now())

	n, err = s.Ledger.SweepExpired(ctx)
	if err != nil {
		return 0, s.internal(ctx, "sweep", err)
	}
	SessionsSweptTotal.Add(float64(n))
	return n, nil
}

// ActiveSessions counts the live refresh tokens of userID.
func (s *SessionService) ActiveSessions(ctx context.Context, userID string) (n int64, err error) {
	defer func(start time.Time) { observe("active_sessions", start, err) }(time.Now())

	n, err = s.Ledger.ActiveSessions(ctx, userID)
	if err != nil {
		return 0, s.internal(ctx, "active_sessions", err)
	}
	return n, nil
}

// activeUser reloads userID and refuses missing or disabled accounts.
func (s *SessionService) activeUser(ctx context.Context, op, userID string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, userNotFound()
	}
	if err != nil {
		return domain.User{}, s.internal(ctx, op, err)
	}
	if !user.IsActive {
		return domain.User{}, accountInactive()
	}
	return user, nil
}

// internal converts an unrecognised error into a KindDatabase error and
// reports it. Errors that already carry a kind pass through.
func (s *SessionService) internal(ctx context.Context, op string, err error) error {
	var known *authsdk.Error
	if errors.As(err, &known) {
		return known
	}

	slogx.FromContext(ctx).Error("session operation failed", slog.String("operation", op), slog.Any("error", err))

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("operation", op)
		hub.CaptureException(err)
	})

	return authsdk.AsError(err)
}

func alreadyExists(field string) error {
	return authsdk.Errorf(authsdk.KindAlreadyExists, "%s already registered", field).
		WithField(field, authsdk.FieldAlreadyExists)
}

func invalidCredentials() error {
	return authsdk.NewError(authsdk.KindInvalidCredentials, "invalid identifier or password")
}

func accountInactive() error {
	return authsdk.NewError(authsdk.KindAccountInactive, "account is inactive")
}

func invalidRefreshToken() error {
	return authsdk.NewError(authsdk.KindInvalidToken, "invalid refresh token")
}

func userNotFound() error {
	return authsdk.NewError(authsdk.KindUserNotFound, "user not found")
}

// optional trims p and maps blank values to nil.
func optional(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
