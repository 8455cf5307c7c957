package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"photo-market/internal/domain/model"
	"photo-market/internal/domain/ports/repository"
	"photo-market/internal/infra/metrics"
	red "photo-market/internal/infra/redis"
)

var _ repository.UserRepository = (*userRepoCacheDecorator)(nil)

// userRepoCacheDecorator caches user rows in Redis under user:id:<id> and
// user:tgid:<tgID>. Lookups inside a transaction always go to the database.
type userRepoCacheDecorator struct {
	inner repository.UserRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewUserRepoCacheDecorator(inner repository.UserRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.UserRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &userRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: logger}
}

func userIDKey(id string) string   { return fmt.Sprintf("user:id:%s", id) }
func userTGKey(tgID int64) string { return fmt.Sprintf("user:tgid:%d", tgID) }

func (d *userRepoCacheDecorator) invalidate(ctx context.Context, u *model.User) {
	if err := d.cache.Del(ctx, userIDKey(u.ID), userTGKey(u.TelegramID)); err != nil {
		d.log.Warn().Err(err).Str("user_id", u.ID).Msg("user cache invalidation failed")
	}
}

// For write operations, we must invalidate all possible keys for that user.
func (d *userRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	d.invalidate(ctx, u)
	return d.inner.Save(ctx, tx, u)
}

func (d *userRepoCacheDecorator) Delete(ctx context.Context, tx repository.Tx, id string) error {
	if u, err := d.inner.FindByID(ctx, tx, id); err == nil {
		d.invalidate(ctx, u)
	}
	return d.inner.Delete(ctx, tx, id)
}

func (d *userRepoCacheDecorator) lookup(ctx context.Context, key string) *model.User {
	val, err := d.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, red.ErrNil) {
			d.log.Warn().Err(err).Str("key", key).Msg("user cache read failed")
		}
		return nil
	}
	var user model.User
	if json.Unmarshal([]byte(val), &user) != nil {
		return nil
	}
	return &user
}

func (d *userRepoCacheDecorator) store(ctx context.Context, u *model.User) {
	bytes, err := json.Marshal(u)
	if err != nil {
		return
	}
	// Warm both keys so FindByID and FindByTelegramID share one fill.
	_ = d.cache.Set(ctx, userTGKey(u.TelegramID), bytes, d.ttl)
	_ = d.cache.Set(ctx, userIDKey(u.ID), bytes, d.ttl)
}

func (d *userRepoCacheDecorator) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	if tx != nil {
		return d.inner.FindByTelegramID(ctx, tx, tgID)
	}
	if u := d.lookup(ctx, userTGKey(tgID)); u != nil {
		metrics.IncCacheRequest("user", "hit")
		return u, nil
	}
	metrics.IncCacheRequest("user", "miss")
	user, err := d.inner.FindByTelegramID(ctx, tx, tgID)
	if err != nil {
		return nil, err
	}
	d.store(ctx, user)
	return user, nil
}

func (d *userRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if tx != nil {
		return d.inner.FindByID(ctx, tx, id)
	}
	if u := d.lookup(ctx, userIDKey(id)); u != nil {
		metrics.IncCacheRequest("user", "hit")
		return u, nil
	}
	metrics.IncCacheRequest("user", "miss")
	user, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	d.store(ctx, user)
	return user, nil
}

// Pass-through methods that don't need caching
func (d *userRepoCacheDecorator) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	return d.inner.CountUsers(ctx, tx)
}

func (d *userRepoCacheDecorator) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	metrics.IncCacheRequest("user_list", "bypass")
	return d.inner.List(ctx, tx, offset, limit)
}

// ResetFreeAds touches many rows, so cached entries would go stale; they expire with the ttl.
func (d *userRepoCacheDecorator) ResetFreeAds(ctx context.Context, tx repository.Tx, count int) (int, error) {
	return d.inner.ResetFreeAds(ctx, tx, count)
}
