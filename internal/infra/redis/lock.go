// File: internal/infra/redis/lock.go
package redis

import (
	"context"
	"fmt"
	"time"

	"photo-market/internal/domain"
	"photo-market/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var _ repository.SessionLocker = (*SessionLocker)(nil)

// SessionLocker serializes one user's updates across bot replicas.
type SessionLocker struct {
	cli   *redis.Client
	ttl   time.Duration
	tries int
	wait  time.Duration
}

func NewSessionLocker(c *Client, ttl time.Duration) *SessionLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SessionLocker{cli: c.cli, ttl: ttl, tries: 40, wait: 50 * time.Millisecond}
}

func LockKey(tgID int64) string { return fmt.Sprintf("reg_lock:%d", tgID) }

func (l *SessionLocker) Lock(ctx context.Context, tgID int64) (func(), error) {
	key := LockKey(tgID)
	token := uuid.NewString()
	for i := 0; i < l.tries; i++ {
		ok, err := l.cli.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				// A fresh context so a cancelled update still releases its lock.
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_, _ = luaUnlock.Run(ctx, l.cli, []string{key}, token).Result()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.wait):
		}
	}
	return nil, domain.ErrSessionBusy
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)
