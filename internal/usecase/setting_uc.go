package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"photo-market/internal/domain"
	"photo-market/internal/domain/model"
	"photo-market/internal/domain/ports/repository"
	"photo-market/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ SettingUseCase = (*settingUC)(nil)

// SettingUseCase manages admin-editable key/value settings.
type SettingUseCase interface {
	List(ctx context.Context) ([]*model.Setting, error)
	Get(ctx context.Context, key string) (*model.Setting, error)
	Set(ctx context.Context, key, value, description string) (*model.Setting, error)
	Delete(ctx context.Context, key string) error

	WelcomeMessage(ctx context.Context) string
	AdGuidelines(ctx context.Context) string
	// Price returns the Toman price of a payment type, falling back to the built-in default.
	Price(ctx context.Context, t model.PaymentType) int64
}

type settingUC struct {
	settings repository.SettingRepository
	log      *zerolog.Logger
}

func NewSettingUseCase(settings repository.SettingRepository, logger *zerolog.Logger) *settingUC {
	return &settingUC{settings: settings, log: logger}
}

func (u *settingUC) List(ctx context.Context) ([]*model.Setting, error) {
	defer logging.TraceDuration(u.log, "SettingUC.List")()
	return u.settings.List(ctx, repository.NoTX)
}

func (u *settingUC) Get(ctx context.Context, key string) (*model.Setting, error) {
	defer logging.TraceDuration(u.log, "SettingUC.Get")()
	return u.settings.Get(ctx, repository.NoTX, strings.TrimSpace(key))
}

func (u *settingUC) Set(ctx context.Context, key, value, description string) (*model.Setting, error) {
	defer logging.TraceDuration(u.log, "SettingUC.Set")()
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	s := &model.Setting{Key: key, Value: value, Description: description, CreatedAt: now, UpdatedAt: now}
	if err := u.settings.Upsert(ctx, repository.NoTX, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (u *settingUC) Delete(ctx context.Context, key string) error {
	defer logging.TraceDuration(u.log, "SettingUC.Delete")()
	return u.settings.Delete(ctx, repository.NoTX, strings.TrimSpace(key))
}

func (u *settingUC) WelcomeMessage(ctx context.Context) string {
	return u.text(ctx, model.SettingWelcomeMessage, model.DefaultWelcomeMessage)
}

func (u *settingUC) AdGuidelines(ctx context.Context) string {
	return u.text(ctx, model.SettingAdGuidelines, model.DefaultAdGuidelines)
}

func (u *settingUC) Price(ctx context.Context, t model.PaymentType) int64 {
	key, def := model.PriceSettingFor(t)
	if key == "" {
		return 0
	}
	raw := u.text(ctx, key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || v <= 0 {
		u.log.Warn().Str("key", key).Str("value", raw).Msg("malformed price setting; using default")
		return def
	}
	return v
}

func (u *settingUC) text(ctx context.Context, key, def string) string {
	s, err := u.settings.Get(ctx, repository.NoTX, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			u.log.Warn().Err(err).Str("key", key).Msg("setting lookup failed")
		}
		return def
	}
	if s == nil || strings.TrimSpace(s.Value) == "" {
		return def
	}
	return s.Value
}
