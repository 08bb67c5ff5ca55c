package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/tuckshop/internal/auth/domain"
	"github.com/aussiebroadwan/tuckshop/internal/auth/ledger"
	"github.com/aussiebroadwan/tuckshop/internal/auth/service"
	"github.com/aussiebroadwan/tuckshop/pkg/authsdk"
	"github.com/aussiebroadwan/tuckshop/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestPairIssuer(t *testing.T) {
	f := newFixture(t)
	snap := domain.IdentitySnapshot{
		ID:        "user-1",
		Email:     "jo@example.com",
		Username:  "jo",
		Role:      domain.RoleStoreOwner,
		FirstName: "Jo",
		LastName:  "Bloggs",
	}

	a, err := f.svc.Tokens.Issue(snap)
	require.NoError(t, err)
	b, err := f.svc.Tokens.Issue(snap)
	require.NoError(t, err)

	require.NotEqual(t, a.RefreshID, b.RefreshID)
	require.NotEqual(t, a.RefreshToken, b.RefreshToken)
	require.Equal(t, f.clock.Now().Add(15*time.Minute), a.AccessExpiresAt)
	require.Equal(t, f.clock.Now().Add(7*24*time.Hour), a.RefreshExpiresAt)

	refresh := f.svc.Tokens.VerifyRefresh(a.RefreshToken)
	require.True(t, refresh.OK())
	require.Equal(t, a.RefreshID, refresh.Claims.ID)
	require.Equal(t, "user-1", refresh.Claims.Subject)

	access := verifyAccess(f, a.AccessToken)
	require.True(t, access.OK())
	require.Equal(t, "STORE_OWNER", access.Claims.Role)

	// Each token only verifies under its own secret.
	require.Equal(t, jwtx.FailureInvalid, f.svc.Tokens.VerifyRefresh(a.AccessToken).Failure)
	require.Equal(t, jwtx.FailureInvalid, verifyAccess(f, a.RefreshToken).Failure)

	t.Run("unconfigured secrets", func(t *testing.T) {
		_, err := (&service.PairIssuer{}).Issue(snap)
		require.Error(t, err)
	})
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	boot := &service.BootstrapService{Store: f.store, Hasher: f.svc.Hasher}
	acct := service.AdminAccount{Email: "Admin@Example.com", Username: "admin", Password: "Adm1nPassword"}

	created, err := boot.EnsureAdmin(ctx, acct)
	require.NoError(t, err)
	require.True(t, created)

	created, err = boot.EnsureAdmin(ctx, acct)
	require.NoError(t, err)
	require.False(t, created)

	res, err := f.svc.Login(ctx, service.LoginInput{Identifier: "admin@example.com", Password: "Adm1nPassword"})
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, res.User.Role)

	_, err = boot.EnsureAdmin(ctx, service.AdminAccount{Email: "root@example.com", Username: "root", Password: "weak"})
	requireKind(t, err, authsdk.KindValidation)
}

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) SweepExpiredSessions(context.Context) (int64, error) {
	s.calls.Add(1)
	return 3, s.err
}

func TestHousekeepingService(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("sweeps on start and on every tick", func(t *testing.T) {
		sweeper := &countingSweeper{}
		hk := service.NewHousekeepingService(sweeper, logger, 10*time.Millisecond)
		hk.Start()

		require.Eventually(t, func() bool { return sweeper.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
		hk.Stop()

		after := sweeper.calls.Load()
		time.Sleep(30 * time.Millisecond)
		require.Equal(t, after, sweeper.calls.Load(), "no sweeps after Stop")
	})

	t.Run("keeps running after a failed sweep", func(t *testing.T) {
		sweeper := &countingSweeper{err: errors.New("database is locked")}
		hk := service.NewHousekeepingService(sweeper, logger, 10*time.Millisecond)
		hk.Start()
		defer hk.Stop()

		require.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	})

	t.Run("default interval", func(t *testing.T) {
		hk := service.NewHousekeepingService(&countingSweeper{}, logger, 0)
		require.Equal(t, time.Hour, hk.Interval)
	})
}

// brokenLedger fails every write.
type brokenLedger struct {
	ledger.Ledger
}

func (brokenLedger) Store(context.Context, ledger.Issued) error {
	return errors.New("connection reset by peer")
}

func TestUnexpectedErrorsBecomeDatabaseErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.svc.Ledger = brokenLedger{Ledger: f.ledger}

	_, err := f.svc.Register(ctx, registerInput("jo@example.com", "jo"))
	e := requireKind(t, err, authsdk.KindDatabase)
	require.Equal(t, authsdk.CodeDatabase, e.Code())
	require.NotContains(t, e.Message, "connection reset")
}
