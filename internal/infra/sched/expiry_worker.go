package sched

import (
	"context"
	"errors"
	"time"

	"photo-market/internal/domain"
	"photo-market/internal/domain/model"
	"photo-market/internal/infra/metrics"

	"github.com/rs/zerolog"
)

type adExpirer interface {
	ExpireDue(ctx context.Context, now time.Time) (int, error)
	ClearPromotions(ctx context.Context, now time.Time) (int, error)
}

type quotaResetter interface {
	ResetMonthlyFreeAds(ctx context.Context) (int, error)
}

type settingStore interface {
	Get(ctx context.Context, key string) (*model.Setting, error)
	Set(ctx context.Context, key, value, description string) (*model.Setting, error)
}

const monthLayout = "2006-01"

// ExpiryWorker expires ads, drops lapsed promotions and resets free-ad
// quotas once per calendar month.
type ExpiryWorker struct {
	interval time.Duration
	ads      adExpirer
	users    quotaResetter
	settings settingStore
	now      func() time.Time
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, ads adExpirer, users quotaResetter, settings settingStore, logger *zerolog.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	exprLog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval: interval,
		ads:      ads,
		users:    users,
		settings: settings,
		now:      time.Now,
		log:      &exprLog,
	}
}

// Run ticks until ctx is cancelled; the first pass runs immediately.
func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick performs one pass. Each step runs even when an earlier one failed.
func (w *ExpiryWorker) Tick(ctx context.Context) {
	now := w.now()

	if n, err := w.ads.ExpireDue(ctx, now); err != nil {
		metrics.IncJob("expire_ads", "failed")
		w.log.Error().Err(err).Msg("expire ads failed")
	} else {
		metrics.IncJob("expire_ads", "completed")
		if n > 0 {
			metrics.AddAdsExpired(n)
			w.log.Info().Int("count", n).Msg("ads expired")
		}
	}

	if n, err := w.ads.ClearPromotions(ctx, now); err != nil {
		metrics.IncJob("clear_promotions", "failed")
		w.log.Error().Err(err).Msg("clear promotions failed")
	} else {
		metrics.IncJob("clear_promotions", "completed")
		if n > 0 {
			w.log.Info().Int("count", n).Msg("lapsed promotions cleared")
		}
	}

	if err := w.resetQuotaOnNewMonth(ctx, now); err != nil {
		metrics.IncJob("reset_free_ads", "failed")
		w.log.Error().Err(err).Msg("monthly quota reset failed")
	}
}

// resetQuotaOnNewMonth keeps the last reset month in settings so restarts
// never reset twice. A missing marker is recorded without resetting.
func (w *ExpiryWorker) resetQuotaOnNewMonth(ctx context.Context, now time.Time) error {
	month := now.Format(monthLayout)
	s, err := w.settings.Get(ctx, model.SettingQuotaResetMonth)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		_, err = w.settings.Set(ctx, model.SettingQuotaResetMonth, month, "last monthly free-ad reset")
		return err
	case err != nil:
		return err
	case s.Value == month:
		return nil
	}

	n, err := w.users.ResetMonthlyFreeAds(ctx)
	if err != nil {
		return err
	}
	if _, err := w.settings.Set(ctx, model.SettingQuotaResetMonth, month, s.Description); err != nil {
		return err
	}
	metrics.IncJob("reset_free_ads", "completed")
	metrics.IncFreeQuotaReset()
	w.log.Info().Int("users", n).Str("month", month).Msg("monthly free-ad quotas reset")
	return nil
}
