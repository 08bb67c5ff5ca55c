package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/tuckshop/internal/auth/domain"
	"github.com/aussiebroadwan/tuckshop/pkg/cryptox"
	"github.com/redis/go-redis/v9"
)

// RedisLedger keeps each refresh record in a hash at <prefix>rt:<fingerprint>
// that expires with the token, plus a per-user set of fingerprints at
// <prefix>rt:user:<userID>. Multi-key updates run as Lua scripts so they are
// atomic on the server. The scripts derive key names from set members, so
// the ledger needs a single Redis node (or a primary with replicas), not a
// cluster.
type RedisLedger struct {
	Client *redis.Client
	Prefix string
	Now    func() time.Time
}

func NewRedisLedger(client *redis.Client, prefix string) *RedisLedger {
	return &RedisLedger{Client: client, Prefix: prefix}
}

func (l *RedisLedger) now() time.Time { return clock(l.Now).now() }

func (l *RedisLedger) recordKey(fingerprint string) string {
	return l.Prefix + "rt:" + fingerprint
}

func (l *RedisLedger) userKey(userID string) string {
	return l.Prefix + "rt:user:" + userID
}

var rotateScript = redis.NewScript(`
-- KEYS[1] = old record, KEYS[2] = user set, KEYS[3] = new record
-- ARGV[1] = user id, ARGV[2] = now ms, ARGV[3] = old fingerprint
-- ARGV[4] = new fingerprint, ARGV[5] = new id, ARGV[6] = new expiry ms
-- ARGV[7] = created ms
--
-- Returns 1 if rotated, 0 if the old record was not live.
local owner = redis.call('HGET', KEYS[1], 'user_id')
if owner ~= ARGV[1] then
  return 0
end
local exp = tonumber(redis.call('HGET', KEYS[1], 'expires_at'))
if exp == nil or exp <= tonumber(ARGV[2]) then
  return 0
end

redis.call('DEL', KEYS[1])
redis.call('SREM', KEYS[2], ARGV[3])

redis.call('HSET', KEYS[3], 'id', ARGV[5], 'user_id', ARGV[1], 'expires_at', ARGV[6], 'created_at', ARGV[7])
redis.call('PEXPIREAT', KEYS[3], ARGV[6])
redis.call('SADD', KEYS[2], ARGV[4])
return 1
`)

var revokeScript = redis.NewScript(`
-- KEYS[1] = record
-- ARGV[1] = user set prefix, ARGV[2] = fingerprint
local owner = redis.call('HGET', KEYS[1], 'user_id')
if not owner then
  return 0
end
redis.call('DEL', KEYS[1])
redis.call('SREM', ARGV[1] .. owner, ARGV[2])
return 1
`)

var revokeAllScript = redis.NewScript(`
-- KEYS[1] = user set
-- ARGV[1] = record key prefix
local n = 0
for _, fp in ipairs(redis.call('SMEMBERS', KEYS[1])) do
  n = n + redis.call('DEL', ARGV[1] .. fp)
end
redis.call('DEL', KEYS[1])
return n
`)

// pruneScript drops set members whose record is gone or expired at ARGV[2]
// and returns {live, pruned}.
var pruneScript = redis.NewScript(`
-- KEYS[1] = user set
-- ARGV[1] = record key prefix, ARGV[2] = now ms
local live, pruned = 0, 0
for _, fp in ipairs(redis.call('SMEMBERS', KEYS[1])) do
  local key = ARGV[1] .. fp
  local exp = tonumber(redis.call('HGET', key, 'expires_at'))
  if exp == nil or exp <= tonumber(ARGV[2]) then
    redis.call('DEL', key)
    redis.call('SREM', KEYS[1], fp)
    pruned = pruned + 1
  else
    live = live + 1
  end
end
return {live, pruned}
`)

func (l *RedisLedger) Store(ctx context.Context, t Issued) error {
	rec := t.record(l.now())

	_, err := l.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		key := l.recordKey(rec.TokenHash)
		pipe.HSet(ctx, key,
			"id", rec.ID,
			"user_id", rec.UserID,
			"expires_at", rec.ExpiresAt.UnixMilli(),
			"created_at", rec.CreatedAt.UnixMilli(),
		)
		pipe.PExpireAt(ctx, key, rec.ExpiresAt)
		pipe.SAdd(ctx, l.userKey(rec.UserID), rec.TokenHash)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ledger: store: %w", err)
	}
	return nil
}

func (l *RedisLedger) Redeem(ctx context.Context, token, userID string) (domain.RefreshToken, error) {
	fp := cryptox.FingerprintToken(token)

	fields, err := l.Client.HGetAll(ctx, l.recordKey(fp)).Result()
	if err != nil {
		return domain.RefreshToken{}, fmt.Errorf("ledger: redeem: %w", err)
	}
	if len(fields) == 0 || fields["user_id"] != userID {
		return domain.RefreshToken{}, ErrNotFound
	}

	rec := domain.RefreshToken{
		ID:        fields["id"],
		UserID:    fields["user_id"],
		TokenHash: fp,
		ExpiresAt: parseMillis(fields["expires_at"]),
		CreatedAt: parseMillis(fields["created_at"]),
	}
	if !rec.Live(l.now()) {
		return domain.RefreshToken{}, ErrNotFound
	}
	return rec, nil
}

func (l *RedisLedger) Rotate(ctx context.Context, oldToken string, next Issued) error {
	now := l.now()
	oldFP := cryptox.FingerprintToken(oldToken)
	rec := next.record(now)

	res, err := rotateScript.Run(ctx, l.Client,
		[]string{l.recordKey(oldFP), l.userKey(next.UserID), l.recordKey(rec.TokenHash)},
		next.UserID,
		now.UnixMilli(),
		oldFP,
		rec.TokenHash,
		rec.ID,
		rec.ExpiresAt.UnixMilli(),
		rec.CreatedAt.UnixMilli(),
	).Int64()
	if err != nil {
		return fmt.Errorf("ledger: rotate: %w", err)
	}
	if res == 0 {
		return ErrNotFound
	}
	return nil
}

func (l *RedisLedger) Revoke(ctx context.Context, token string) error {
	fp := cryptox.FingerprintToken(token)
	if err := revokeScript.Run(ctx, l.Client, []string{l.recordKey(fp)}, l.userKey(""), fp).Err(); err != nil {
		return fmt.Errorf("ledger: revoke: %w", err)
	}
	return nil
}

func (l *RedisLedger) RevokeAll(ctx context.Context, userID string) (int64, error) {
	n, err := revokeAllScript.Run(ctx, l.Client, []string{l.userKey(userID)}, l.recordKey("")).Int64()
	if err != nil {
		return 0, fmt.Errorf("ledger: revoke all: %w", err)
	}
	return n, nil
}

// SweepExpired prunes every user set. Redis expires the record hashes on its
// own; the count is of set entries whose record was gone or expired.
func (l *RedisLedger) SweepExpired(ctx context.Context) (int64, error) {
	var swept int64

	iter := l.Client.Scan(ctx, 0, l.userKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		_, pruned, err := l.prune(ctx, iter.Val())
		if err != nil {
			return swept, fmt.Errorf("ledger: sweep: %w", err)
		}
		swept += pruned
	}
	if err := iter.Err(); err != nil {
		return swept, fmt.Errorf("ledger: sweep: %w", err)
	}
	return swept, nil
}

func (l *RedisLedger) ActiveSessions(ctx context.Context, userID string) (int64, error) {
	live, _, err := l.prune(ctx, l.userKey(userID))
	if err != nil {
		return 0, fmt.Errorf("ledger: count: %w", err)
	}
	return live, nil
}

func (l *RedisLedger) prune(ctx context.Context, setKey string) (live, pruned int64, err error) {
	vals, err := pruneScript.Run(ctx, l.Client, []string{setKey}, l.recordKey(""), l.now().UnixMilli()).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(vals) != 2 {
		return 0, 0, fmt.Errorf("unexpected prune reply %v", vals)
	}
	return vals[0], vals[1], nil
}

func (l *RedisLedger) Ping(ctx context.Context) error {
	return l.Client.Ping(ctx).Err()
}

func parseMillis(s string) time.Time {
	ms, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
