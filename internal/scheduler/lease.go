// internal/scheduler/lease.go
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Lease is a cluster-wide mutual exclusion token for the sweep. Holding it
// only avoids duplicate scanning work across replicas; per-device crediting
// stays idempotent without it.
type Lease interface {
	// Acquire returns a token and true when the lease was taken.
	Acquire(ctx context.Context) (string, bool, error)
	// Release gives the lease back if token still owns it.
	Release(ctx context.Context, token string) error
}

// releaseScript deletes the key only when it still holds our token, so an
// expired lease taken over by another replica is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLease implements Lease with SET NX PX.
type RedisLease struct {
	client   redis.Cmdable
	key      string
	ttl      time.Duration
	newToken func() string
}

// NewRedisLease creates a RedisLease on key that expires after ttl.
func NewRedisLease(client redis.Cmdable, key string, ttl time.Duration) *RedisLease {
	return &RedisLease{
		client:   client,
		key:      key,
		ttl:      ttl,
		newToken: uuid.NewString,
	}
}

func (l *RedisLease) Acquire(ctx context.Context) (string, bool, error) {
	token := l.newToken()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire lease %s: %w", l.key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (l *RedisLease) Release(ctx context.Context, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
		return fmt.Errorf("release lease %s: %w", l.key, err)
	}
	return nil
}

// NoopLease always grants the lease. Used for single-replica deployments.
type NoopLease struct{}

func (NoopLease) Acquire(context.Context) (string, bool, error) { return "local", true, nil }

func (NoopLease) Release(context.Context, string) error { return nil }
