package sched

import (
	"context"
	"time"

	"photo-market/internal/infra/metrics"

	"github.com/rs/zerolog"
)

type staleReconciler interface {
	ReconcileStale(ctx context.Context, age time.Duration) (int, error)
}

// PaymentReconciler settles pending payments whose gateway callback never
// arrived, e.g. the buyer closed the browser after paying.
type PaymentReconciler struct {
	uc         staleReconciler
	interval   time.Duration
	staleAfter time.Duration
	log        *zerolog.Logger
}

func NewPaymentReconciler(uc staleReconciler, interval, staleAfter time.Duration, logger *zerolog.Logger) *PaymentReconciler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 30 * time.Minute
	}
	l := logger.With().Str("component", "PaymentReconciler").Logger()
	return &PaymentReconciler{uc: uc, interval: interval, staleAfter: staleAfter, log: &l}
}

func (w *PaymentReconciler) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Dur("stale_after", w.staleAfter).Msg("Starting payment reconciler")
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping payment reconciler")
			return ctx.Err()
		case <-t.C:
			w.Tick(ctx)
		}
	}
}

func (w *PaymentReconciler) Tick(ctx context.Context) {
	n, err := w.uc.ReconcileStale(ctx, w.staleAfter)
	if err != nil {
		metrics.IncJob("reconcile_payments", "failed")
		w.log.Error().Err(err).Msg("reconcile pending payments failed")
		return
	}
	metrics.IncJob("reconcile_payments", "completed")
	if n > 0 {
		w.log.Info().Int("count", n).Msg("stale payments settled")
	}
}
