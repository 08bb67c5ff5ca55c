package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tuckshop/internal/auth/domain"
	"github.com/aussiebroadwan/tuckshop/internal/auth/store"
	"github.com/aussiebroadwan/tuckshop/pkg/cryptox"
)

// SQLLedger keeps refresh records in the relational store's refresh_tokens
// table.
type SQLLedger struct {
	DB  store.Store
	Now func() time.Time
}

func NewSQLLedger(s store.Store) *SQLLedger {
	return &SQLLedger{DB: s}
}

func (l *SQLLedger) now() time.Time { return clock(l.Now).now() }

func (l *SQLLedger) Store(ctx context.Context, t Issued) error {
	if err := l.DB.RefreshTokens().CreateRefreshToken(ctx, t.record(l.now())); err != nil {
		return fmt.Errorf("ledger: store: %w", err)
	}
	return nil
}

func (l *SQLLedger) Redeem(ctx context.Context, token, userID string) (domain.RefreshToken, error) {
	rec, err := l.DB.RefreshTokens().GetLiveRefreshToken(ctx, cryptox.FingerprintToken(token), userID, l.now())
	if errors.Is(err, store.ErrNotFound) {
		return domain.RefreshToken{}, ErrNotFound
	}
	if err != nil {
		return domain.RefreshToken{}, fmt.Errorf("ledger: redeem: %w", err)
	}
	return rec, nil
}

// Rotate uses the affected-row count of a conditional DELETE as the
// compare-and-swap, so of two concurrent rotations only one sees a row.
func (l *SQLLedger) Rotate(ctx context.Context, oldToken string, next Issued) error {
	now := l.now()
	hash := cryptox.FingerprintToken(oldToken)

	err := l.DB.WithTx(ctx, func(tx store.Tx) error {
		n, err := tx.RefreshTokens().DeleteLiveRefreshToken(ctx, hash, next.UserID, now)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return tx.RefreshTokens().CreateRefreshToken(ctx, next.record(now))
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("ledger: rotate: %w", err)
	}
	return nil
}

func (l *SQLLedger) Revoke(ctx context.Context, token string) error {
	if _, err := l.DB.RefreshTokens().DeleteRefreshTokenByHash(ctx, cryptox.FingerprintToken(token)); err != nil {
		return fmt.Errorf("ledger: revoke: %w", err)
	}
	return nil
}

func (l *SQLLedger) RevokeAll(ctx context.Context, userID string) (int64, error) {
	n, err := l.DB.RefreshTokens().DeleteUserRefreshTokens(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("ledger: revoke all: %w", err)
	}
	return n, nil
}

func (l *SQLLedger) SweepExpired(ctx context.Context) (int64, error) {
	n, err := l.DB.RefreshTokens().DeleteExpiredRefreshTokens(ctx, l.now())
	if err != nil {
		return 0, fmt.Errorf("ledger: sweep: %w", err)
	}
	return n, nil
}

func (l *SQLLedger) ActiveSessions(ctx context.Context, userID string) (int64, error) {
	n, err := l.DB.RefreshTokens().CountLiveRefreshTokens(ctx, userID, l.now())
	if err != nil {
		return 0, fmt.Errorf("ledger: count: %w", err)
	}
	return n, nil
}

func (l *SQLLedger) Ping(ctx context.Context) error {
	return l.DB.Ping(ctx)
}
