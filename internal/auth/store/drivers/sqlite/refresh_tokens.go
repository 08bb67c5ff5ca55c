package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/tuckshop/internal/auth/domain"
	"github.com/aussiebroadwan/tuckshop/internal/auth/store/drivers/sqlite/gen"
)

type refreshTokensRepo struct {
	q *gen.Queries
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	err := r.q.CreateRefreshToken(ctx, gen.CreateRefreshTokenParams{
		ID:        t.ID,
		UserID:    t.UserID,
		TokenHash: t.TokenHash,
		ExpiresAt: utc(t.ExpiresAt),
		CreatedAt: utc(t.CreatedAt),
	})
	return mapConflict(err)
}

func (r *refreshTokensRepo) GetLiveRefreshToken(
	ctx context.Context,
	hash, userID string,
	now time.Time,
) (domain.RefreshToken, error) {
	row, err := r.q.GetLiveRefreshToken(ctx, gen.GetLiveRefreshTokenParams{
		TokenHash: hash,
		UserID:    userID,
		ExpiresAt: utc(now),
	})
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	return mapRefreshToken(row), nil
}

func (r *refreshTokensRepo) DeleteLiveRefreshToken(
	ctx context.Context,
	hash, userID string,
	now time.Time,
) (int64, error) {
	return r.q.DeleteLiveRefreshToken(ctx, gen.DeleteLiveRefreshTokenParams{
		TokenHash: hash,
		UserID:    userID,
		ExpiresAt: utc(now),
	})
}

func (r *refreshTokensRepo) DeleteRefreshTokenByHash(ctx context.Context, hash string) (int64, error) {
	return r.q.DeleteRefreshTokenByHash(ctx, hash)
}

func (r *refreshTokensRepo) DeleteUserRefreshTokens(ctx context.Context, userID string) (int64, error) {
	return r.q.DeleteUserRefreshTokens(ctx, userID)
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	return r.q.DeleteExpiredRefreshTokens(ctx, utc(now))
}

func (r *refreshTokensRepo) CountLiveRefreshTokens(ctx context.Context, userID string, now time.Time) (int64, error) {
	return r.q.CountLiveRefreshTokens(ctx, gen.CountLiveRefreshTokensParams{
		UserID:    userID,
		ExpiresAt: utc(now),
	})
}
