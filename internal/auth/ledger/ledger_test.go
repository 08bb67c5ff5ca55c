package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/tuckshop/internal/auth/ledger"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable clock shared by a ledger under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Now().UTC()} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// harness builds a fresh ledger; addUser makes userID a valid owner.
type harness struct {
	ledger  ledger.Ledger
	clock   *fakeClock
	addUser func(t *testing.T, userID string)
}

func issued(clock *fakeClock, userID, token string, ttl time.Duration) ledger.Issued {
	return ledger.Issued{
		ID:        "jti-" + token,
		UserID:    userID,
		Token:     token,
		ExpiresAt: clock.Now().Add(ttl),
	}
}

// runLedgerSuite exercises behaviour every backend must share.
func runLedgerSuite(t *testing.T, newHarness func(t *testing.T) harness) {
	ctx := context.Background()

	t.Run("store and redeem", func(t *testing.T) {
		h := newHarness(t)
		h.addUser(t, "alice")
		h.addUser(t, "bob")

		require.NoError(t, h.ledger.Store(ctx, issued(h.clock, "alice", "tok-a", time.Hour)))

		rec, err := h.ledger.Redeem(ctx, "tok-a", "alice")
		require.NoError(t, err)
		require.Equal(t, "jti-tok-a", rec.ID)
		require.Equal(t, "alice", rec.UserID)
		require.NotEqual(t, "tok-a", rec.TokenHash, "raw tokens are never stored")

		_, err = h.ledger.Redeem(ctx, "tok-a", "bob")
		require.ErrorIs(t, err, ledger.ErrNotFound)

		_, err = h.ledger.Redeem(ctx, "never-issued", "alice")
		require.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("expired records are not redeemable", func(t *testing.T) {
		h := newHarness(t)
		h.addUser(t, "alice")
		require.NoError(t, h.ledger.Store(ctx, issued(h.clock, "alice", "tok-a", time.Minute)))

		h.clock.Advance(time.Minute)
		_, err := h.ledger.Redeem(ctx, "tok-a", "alice")
		require.ErrorIs(t, err, ledger.ErrNotFound)

		err = h.ledger.Rotate(ctx, "tok-a", issued(h.clock, "alice", "tok-b", time.Hour))
		require.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("rotate replaces the record once", func(t *testing.T) {
		h := newHarness(t)
		h.addUser(t, "alice")
		require.NoError(t, h.ledger.Store(ctx, issued(h.clock, "alice", "tok-a", time.Hour)))

		require.NoError(t, h.ledger.Rotate(ctx, "tok-a", issued(h.clock, "alice", "tok-b", time.Hour)))

		_, err := h.ledger.Redeem(ctx, "tok-a", "alice")
		require.ErrorIs(t, err, ledger.ErrNotFound)
		_, err = h.ledger.Redeem(ctx, "tok-b", "alice")
		require.NoError(t, err)

		// replaying the old token inserts nothing
		err = h.ledger.Rotate(ctx, "tok-a", issued(h.clock, "alice", "tok-c", time.Hour))
		require.ErrorIs(t, err, ledger.ErrNotFound)
		_, err = h.ledger.Redeem(ctx, "tok-c", "alice")
		require.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("rotate checks the owner", func(t *testing.T) {
		h := newHarness(t)
		h.addUser(t, "alice")
		h.addUser(t, "bob")
		require.NoError(t, h.ledger.Store(ctx, issued(h.clock, "alice", "tok-a", time.Hour)))

		err := h.ledger.Rotate(ctx, "tok-a", issued(h.clock, "bob", "tok-b", time.Hour))
		require.ErrorIs(t, err, ledger.ErrNotFound)

		_, err = h.ledger.Redeem(ctx, "tok-a", "alice")
		require.NoError(t, err, "a failed rotation leaves the record alone")
	})

	t.Run("concurrent rotations: exactly one wins", func(t *testing.T) {
		h := newHarness(t)
		h.addUser(t, "alice")
		require.NoError(t, h.ledger.Store(ctx, issued(h.clock, "alice", "tok-a", time.Hour)))

		const attempts = 8
		results := make([]error, attempts)
		var wg sync.WaitGroup
		for i := range attempts {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				next := issued(h.clock, "alice", "tok-next-"+string(rune('a'+i)), time.Hour)
				results[i] = h.ledger.Rotate(ctx, "tok-a", next)
			}(i)
		}
		wg.Wait()

		var wins int
		for _, err := range results {
			if err == nil {
				wins++
				continue
			}
			require.ErrorIs(t, err, ledger.ErrNotFound)
		}
		require.Equal(t, 1, wins)

		n, err := h.ledger.ActiveSessions(ctx, "alice")
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
	})

	t.Run("revoke", func(t *testing.T) {
		h := newHarness(t)
		h.addUser(t, "alice")
		require.NoError(t, h.ledger.Store(ctx, issued(h.clock, "alice", "tok-a", time.Hour)))

		require.NoError(t, h.ledger.Revoke(ctx, "tok-a"))
		require.NoError(t, h.ledger.Revoke(ctx, "tok-a"), "revoking twice is fine")

		_, err := h.ledger.Redeem(ctx, "tok-a", "alice")
		require.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("revoke all, count and sweep", func(t *testing.T) {
		h := newHarness(t)
		h.addUser(t, "alice")
		h.addUser(t, "bob")

		require.NoError(t, h.ledger.Store(ctx, issued(h.clock, "alice", "a1", time.Hour)))
		require.NoError(t, h.ledger.Store(ctx, issued(h.clock, "alice", "a2", time.Hour)))
		require.NoError(t, h.ledger.Store(ctx, issued(h.clock, "alice", "a3", time.Minute)))
		require.NoError(t, h.ledger.Store(ctx, issued(h.clock, "bob", "b1", time.Minute)))

		n, err := h.ledger.ActiveSessions(ctx, "alice")
		require.NoError(t, err)
		require.EqualValues(t, 3, n)

		h.clock.Advance(2 * time.Minute)

		swept, err := h.ledger.SweepExpired(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 2, swept)

		n, err = h.ledger.ActiveSessions(ctx, "alice")
		require.NoError(t, err)
		require.EqualValues(t, 2, n)

		revoked, err := h.ledger.RevokeAll(ctx, "alice")
		require.NoError(t, err)
		require.EqualValues(t, 2, revoked)

		n, err = h.ledger.ActiveSessions(ctx, "alice")
		require.NoError(t, err)
		require.Zero(t, n)

		require.NoError(t, h.ledger.Ping(ctx))
	})
}
