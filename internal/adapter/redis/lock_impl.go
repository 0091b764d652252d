package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const lockPrefix = "analyzer:lock:"

// Both scripts only touch the key while it still carries the caller's token.
var (
	refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
)

// LockRepoImpl provides a concrete implementation for the RunLock interface using Redis.
type LockRepoImpl struct {
	client *redis.Client
}

// NewLockRepo creates a new instance of LockRepoImpl.
func NewLockRepo(client *redis.Client) *LockRepoImpl {
	return &LockRepoImpl{client: client}
}

func (r *LockRepoImpl) generateKey(key string) string {
	return fmt.Sprintf("%s%s", lockPrefix, key)
}

// Acquire sets the lock key to a fresh token only if it is not held yet. The
// TTL frees the lock if the holder dies without releasing it.
func (r *LockRepoImpl) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token, err := newToken()
	if err != nil {
		return "", false, err
	}
	ok, err := r.client.SetNX(ctx, r.generateKey(key), token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// Refresh pushes the expiry out by ttl. It reports false once token no longer owns the key.
func (r *LockRepoImpl) Refresh(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	n, err := refreshScript.Run(ctx, r.client, []string{r.generateKey(key)}, token, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("refresh lock %s: %w", key, err)
	}
	return n == 1, nil
}

// Release removes the lock key if token still owns it.
func (r *LockRepoImpl) Release(ctx context.Context, key, token string) error {
	if err := releaseScript.Run(ctx, r.client, []string{r.generateKey(key)}, token).Err(); err != nil {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	return nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate lock token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
