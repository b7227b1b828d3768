package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const leaseKeyPrefix = "claim_lease:"

// releaseScript deletes the lease only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LeaseKey is the Redis key of a claim's processing lease.
func LeaseKey(claimID uuid.UUID) string {
	return leaseKeyPrefix + claimID.String()
}

// ReleaseFunc gives a lease back.
type ReleaseFunc func(ctx context.Context) error

// Locker grants at most one in-flight processing attempt per claim.
type Locker interface {
	Acquire(ctx context.Context, claimID uuid.UUID) (ReleaseFunc, error)
}

// RedisLease is a Locker backed by SET NX PX with a random token.
type RedisLease struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedisLease creates a lease manager. ttl bounds how long a crashed worker blocks a claim.
func NewRedisLease(rdb redis.Cmdable, ttl time.Duration) *RedisLease {
	return &RedisLease{rdb: rdb, ttl: ttl}
}

// Acquire takes the claim lease or returns ErrLeaseHeld.
func (l *RedisLease) Acquire(ctx context.Context, claimID uuid.UUID) (ReleaseFunc, error) {
	token := uuid.NewString()
	key := LeaseKey(claimID)

	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire claim lease: %w", err)
	}
	if !ok {
		return nil, ErrLeaseHeld
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("release claim lease: %w", err)
		}
		return nil
	}, nil
}
