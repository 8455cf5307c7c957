package usecase

import (
	"context"

	"photo-market/internal/domain/model"
	"photo-market/internal/domain/ports/repository"
	"photo-market/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// Overview is the admin dashboard summary.
type Overview struct {
	Users    int                `json:"users"`
	Ads      int                `json:"ads"`
	Pending  int                `json:"pending_ads"`
	Payments model.PaymentStats `json:"payments"`
}

type StatsUseCase interface {
	Overview(ctx context.Context) (Overview, error)
}

type statsUC struct {
	users    repository.UserRepository
	ads      repository.AdRepository
	payments repository.PaymentRepository

	log *zerolog.Logger
}

func NewStatsUseCase(users repository.UserRepository, ads repository.AdRepository, payments repository.PaymentRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{users: users, ads: ads, payments: payments, log: logger}
}

func (s *statsUC) Overview(ctx context.Context) (Overview, error) {
	defer logging.TraceDuration(s.log, "StatsUC.Overview")()
	var out Overview
	var err error
	if out.Users, err = s.users.CountUsers(ctx, repository.NoTX); err != nil {
		return Overview{}, err
	}
	if _, out.Ads, err = s.ads.List(ctx, repository.NoTX, model.AdFilter{Page: 1, Limit: 1}); err != nil {
		return Overview{}, err
	}
	if _, out.Pending, err = s.ads.List(ctx, repository.NoTX, model.AdFilter{Status: model.AdStatusPending, Page: 1, Limit: 1}); err != nil {
		return Overview{}, err
	}
	if out.Payments, err = s.payments.Stats(ctx, repository.NoTX); err != nil {
		return Overview{}, err
	}
	return out, nil
}
