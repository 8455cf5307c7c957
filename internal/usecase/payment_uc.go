// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"photo-market/internal/domain"
	"photo-market/internal/domain/model"
	"photo-market/internal/domain/ports/adapter"
	"photo-market/internal/domain/ports/repository"
	"photo-market/internal/infra/logging"
	"photo-market/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// PaymentUseCase sells promotional placements: featured, boost, extra ads and premium.
type PaymentUseCase interface {
	// Initiate creates a pending payment and returns the provider redirect URL.
	// adID is required (and must be owned by userID) for featured and boost.
	Initiate(ctx context.Context, userID string, t model.PaymentType, adID string) (*model.Payment, string, error)
	// Confirm verifies a payment at the provider and applies its effect.
	Confirm(ctx context.Context, authority string) (*model.Payment, error)
	// Fail marks a pending payment as failed, e.g. when the user aborted at the gateway.
	Fail(ctx context.Context, authority string) (*model.Payment, error)
	Get(ctx context.Context, id string) (*model.Payment, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Payment, error)
	Stats(ctx context.Context) (model.PaymentStats, error)
	// ReconcileStale re-verifies pending payments older than age whose callback never arrived.
	// It returns how many were settled either way.
	ReconcileStale(ctx context.Context, age time.Duration) (int, error)
	// Enabled reports whether a gateway is configured.
	Enabled() bool
}

type paymentUC struct {
	payments    repository.PaymentRepository
	ads         AdUseCase
	users       UserUseCase
	settings    SettingUseCase
	gateway     adapter.PaymentGateway
	tm          repository.TransactionManager
	callbackURL string
	log         *zerolog.Logger
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	ads AdUseCase,
	users UserUseCase,
	settings SettingUseCase,
	gateway adapter.PaymentGateway,
	tm repository.TransactionManager,
	callbackURL string,
	logger *zerolog.Logger,
) *paymentUC {
	return &paymentUC{
		payments:    payments,
		ads:         ads,
		users:       users,
		settings:    settings,
		gateway:     gateway,
		tm:          tm,
		callbackURL: callbackURL,
		log:         logger,
	}
}

func (u *paymentUC) Enabled() bool { return u.gateway != nil }

func (u *paymentUC) Initiate(ctx context.Context, userID string, t model.PaymentType, adID string) (*model.Payment, string, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.Initiate")()
	if u.gateway == nil {
		return nil, "", domain.ErrGatewayUnavailable
	}
	if !t.Valid() {
		return nil, "", domain.ErrInvalidArgument
	}
	if t.NeedsAd() {
		ad, err := u.ads.Get(ctx, adID)
		if err != nil {
			return nil, "", err
		}
		if ad.UserID != userID {
			return nil, "", domain.ErrForbidden
		}
	} else {
		adID = ""
	}

	p, err := model.NewPayment(userID, t, adID, u.settings.Price(ctx, t), u.gateway.Name())
	if err != nil {
		return nil, "", err
	}
	meta := map[string]interface{}{"payment_id": p.ID, "type": string(t)}
	authority, payURL, err := u.gateway.RequestPayment(ctx, p.AmountIRR(), p.Description, u.callbackURL, meta)
	if err != nil {
		metrics.IncPayment(string(t), "request_error")
		return nil, "", fmt.Errorf("request payment: %w", err)
	}
	p.Authority = authority
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		return nil, "", err
	}
	metrics.IncPayment(string(t), string(p.Status))
	u.log.Info().Str("payment_id", p.ID).Str("type", string(t)).Int64("amount", p.Amount).Msg("payment initiated")
	return p, payURL, nil
}

func (u *paymentUC) Confirm(ctx context.Context, authority string) (*model.Payment, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.Confirm")()
	if u.gateway == nil {
		return nil, domain.ErrGatewayUnavailable
	}

	var (
		p         *model.Payment
		verifyErr error
	)
	err := u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		p, err = u.payments.FindByAuthority(ctx, tx, authority)
		if err != nil {
			return err
		}
		if p.Status != model.PaymentStatusPending {
			return domain.ErrPaymentNotPending
		}
		refID, err := u.gateway.VerifyPayment(ctx, authority, p.AmountIRR())
		now := time.Now()
		if err != nil {
			verifyErr = err
			p.MarkFailed(now)
		} else {
			p.MarkCompleted(refID, now)
		}
		return u.payments.Save(ctx, tx, p)
	})
	if err != nil {
		return p, err
	}
	if verifyErr != nil {
		metrics.IncPayment(string(p.Type), string(p.Status))
		u.log.Warn().Err(verifyErr).Str("payment_id", p.ID).Msg("payment verification failed")
		return p, fmt.Errorf("%w: %v", domain.ErrPaymentVerify, verifyErr)
	}

	metrics.IncPayment(string(p.Type), string(p.Status))
	metrics.AddPaymentRevenue(string(p.Type), p.Amount)
	if err := u.apply(ctx, p); err != nil {
		// The money is taken; surface loudly so an operator can re-apply.
		u.log.Error().Err(err).Str("payment_id", p.ID).Str("type", string(p.Type)).Msg("failed to apply payment effect")
		return p, err
	}
	u.log.Info().Str("payment_id", p.ID).Str("ref_id", p.RefID).Msg("payment completed")
	return p, nil
}

func (u *paymentUC) apply(ctx context.Context, p *model.Payment) error {
	adID := ""
	if p.AdID != nil {
		adID = *p.AdID
	}
	var err error
	switch p.Type {
	case model.PaymentTypeAdFeatured:
		_, err = u.ads.MakeFeatured(ctx, adID, model.FeaturedDays)
	case model.PaymentTypeAdBoost:
		_, err = u.ads.Boost(ctx, adID, model.BoostDays)
	case model.PaymentTypePremium:
		_, err = u.users.SetPremium(ctx, p.UserID, true)
	case model.PaymentTypeExtraAd:
		_, err = u.users.AddFreeAds(ctx, p.UserID, 1)
	default:
		err = domain.ErrInvalidArgument
	}
	return err
}

func (u *paymentUC) Fail(ctx context.Context, authority string) (*model.Payment, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.Fail")()
	p, err := u.payments.FindByAuthority(ctx, repository.NoTX, authority)
	if err != nil {
		return nil, err
	}
	if p.Status != model.PaymentStatusPending {
		return p, domain.ErrPaymentNotPending
	}
	p.MarkFailed(time.Now())
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	metrics.IncPayment(string(p.Type), string(p.Status))
	return p, nil
}

func (u *paymentUC) Get(ctx context.Context, id string) (*model.Payment, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.Get")()
	return u.payments.FindByID(ctx, repository.NoTX, id)
}

func (u *paymentUC) ListByUser(ctx context.Context, userID string) ([]*model.Payment, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.ListByUser")()
	return u.payments.ListByUser(ctx, repository.NoTX, userID)
}

func (u *paymentUC) Stats(ctx context.Context) (model.PaymentStats, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.Stats")()
	return u.payments.Stats(ctx, repository.NoTX)
}

func (u *paymentUC) ReconcileStale(ctx context.Context, age time.Duration) (int, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.ReconcileStale")()
	if u.gateway == nil {
		return 0, nil
	}
	pending, err := u.payments.ListPendingOlderThan(ctx, repository.NoTX, time.Now().Add(-age), 200)
	if err != nil {
		return 0, err
	}
	settled := 0
	for _, p := range pending {
		if ctx.Err() != nil {
			return settled, ctx.Err()
		}
		_, err := u.Confirm(ctx, p.Authority)
		switch {
		case err == nil, IsVerifyFailure(err):
			settled++
		case errors.Is(err, domain.ErrPaymentNotPending):
			// settled concurrently by the callback
		default:
			u.log.Warn().Err(err).Str("payment_id", p.ID).Msg("reconcile: confirm failed")
		}
	}
	return settled, nil
}

// IsVerifyFailure reports whether err came from a rejected gateway verification.
func IsVerifyFailure(err error) bool { return errors.Is(err, domain.ErrPaymentVerify) }
