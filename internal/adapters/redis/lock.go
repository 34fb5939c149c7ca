package redisad

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"

	"availability_hub/internal/domain"
)

const (
	lockAttempts = 20
	lockMinWait  = 20 * time.Millisecond
	lockMaxWait  = 100 * time.Millisecond
)

// release only deletes the key while it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker is a best-effort distributed mutex keyed by entity id.
type Locker struct {
	c   redis.Cmdable
	ttl time.Duration
}

func NewLocker(c redis.Cmdable, ttl time.Duration) *Locker {
	return &Locker{c: c, ttl: ttl}
}

func (l *Locker) Acquire(ctx context.Context, entityID string) (func(context.Context) error, error) {
	key := "lock:" + entityID
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	for attempt := 0; attempt < lockAttempts; attempt++ {
		ok, err := l.c.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", entityID, err)
		}
		if ok {
			return func(ctx context.Context) error {
				return unlockScript.Run(ctx, l.c, []string{key}, token).Err()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockWait()):
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrLockNotAcquired, entityID)
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func lockWait() time.Duration {
	span := int64(lockMaxWait - lockMinWait)
	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return lockMinWait
	}
	return lockMinWait + time.Duration(n.Int64())
}
