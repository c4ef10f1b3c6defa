package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seatline/internal/shared/constants"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// errLockHeld means another request holds the claim lock of the seat
var errLockHeld = errors.New("claim lock held")

// Lua script for taking the lock: SET NX PX returns nil when the key exists
var acquireClaimLock = redis.NewScript(`
-- KEYS[1] = lock key
-- ARGV[1] = owner token
-- ARGV[2] = ttl in milliseconds
if redis.call("SET", KEYS[1], ARGV[1], "NX", "PX", tonumber(ARGV[2])) then
    return 1
end
return 0
`)

// Lua script for releasing the lock only when we still own it
var releaseClaimLock = redis.NewScript(`
-- KEYS[1] = lock key
-- ARGV[1] = owner token
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// ClaimLocker rejects concurrent claims of the same seat before they reach the
// database. The row locks and the unique index stay authoritative.
type ClaimLocker interface {
	Acquire(ctx context.Context, eventID, seatID uuid.UUID) (release func(), err error)
}

type redisClaimLocker struct {
	client redis.Scripter
	ttl    time.Duration
	token  func() string
}

func NewRedisClaimLocker(client redis.Scripter, ttl time.Duration) ClaimLocker {
	return &redisClaimLocker{
		client: client,
		ttl:    ttl,
		token:  uuid.NewString,
	}
}

func (l *redisClaimLocker) Acquire(ctx context.Context, eventID, seatID uuid.UUID) (func(), error) {
	key := constants.ClaimLockKey(eventID.String(), seatID.String())
	token := l.token()

	taken, err := acquireClaimLock.Run(ctx, l.client, []string{key}, token, l.ttl.Milliseconds()).Int()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire claim lock: %w", err)
	}
	if taken == 0 {
		return nil, errLockHeld
	}

	return func() {
		// the caller's context may already be cancelled; release on a fresh one
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = releaseClaimLock.Run(releaseCtx, l.client, []string{key}, token).Err()
	}, nil
}
