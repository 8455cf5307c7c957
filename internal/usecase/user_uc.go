package usecase

import (
	"context"
	"errors"

	"photo-market/internal/domain"
	"photo-market/internal/domain/model"
	"photo-market/internal/domain/ports/repository"
	"photo-market/internal/infra/logging"
	"photo-market/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase exposes user-related operations used by bot and admin flows.
type UserUseCase interface {
	// FindByTelegramID returns nil, nil for an unknown account.
	FindByTelegramID(ctx context.Context, tgID int64) (*model.User, error)
	// CreateOrUpdate registers a user from a shared contact or refreshes an existing one.
	CreateOrUpdate(ctx context.Context, tgID int64, p model.UserProfile) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, offset, limit int) ([]*model.User, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, id string, p model.UserProfile) (*model.User, error)
	Delete(ctx context.Context, id string) error
	Block(ctx context.Context, id string) (*model.User, error)
	Unblock(ctx context.Context, id string) (*model.User, error)
	SetPremium(ctx context.Context, id string, premium bool) (*model.User, error)
	AddFreeAds(ctx context.Context, id string, n int) (*model.User, error)
	DecrementFreeAds(ctx context.Context, id string) (*model.User, error)
	// ResetMonthlyFreeAds gives every non-premium user their monthly allowance back.
	ResetMonthlyFreeAds(ctx context.Context) (int, error)
}

type userUC struct {
	users repository.UserRepository
	tm    repository.TransactionManager
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, tm repository.TransactionManager, logger *zerolog.Logger) *userUC {
	return &userUC{
		users: users,
		tm:    tm,
		log:   logger,
	}
}

func (u *userUC) FindByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.FindByTelegramID")()
	usr, err := u.users.FindByTelegramID(ctx, repository.NoTX, tgID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return usr, err
}

func (u *userUC) CreateOrUpdate(ctx context.Context, tgID int64, p model.UserProfile) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.CreateOrUpdate")()

	var user *model.User
	created := false
	// Find and save under one serializable tx so two contact shares can't both insert.
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		usr, err := u.users.FindByTelegramID(ctx, tx, tgID)
		switch {
		case err == nil:
			usr.Apply(p)
			if err := u.users.Save(ctx, tx, usr); err != nil {
				u.log.Error().Err(err).Int64("tg_id", tgID).Str("phone", logging.MaskPhone(p.PhoneNumber)).Msg("failed to update user")
				return err
			}
			user = usr
			return nil
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		nu, err := model.NewUser("", tgID, p)
		if err != nil {
			return err
		}
		if err := u.users.Save(ctx, tx, nu); err != nil {
			return err
		}
		user, created = nu, true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if created {
		metrics.IncUsersRegistered()
		u.log.Info().Str("user_id", user.ID).Int64("tg_id", tgID).Str("phone", logging.MaskPhone(user.PhoneNumber)).Msg("user registered")
	}
	return user, nil
}

func (u *userUC) Get(ctx context.Context, id string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Get")()
	return u.users.FindByID(ctx, repository.NoTX, id)
}

func (u *userUC) List(ctx context.Context, offset, limit int) ([]*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.List")()
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return u.users.List(ctx, repository.NoTX, offset, limit)
}

func (u *userUC) Count(ctx context.Context) (int, error) {
	defer logging.TraceDuration(u.log, "UserUC.Count")()
	return u.users.CountUsers(ctx, repository.NoTX)
}

func (u *userUC) Update(ctx context.Context, id string, p model.UserProfile) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Update")()
	return u.mutate(ctx, id, func(usr *model.User) error {
		usr.Apply(p)
		return nil
	})
}

func (u *userUC) Delete(ctx context.Context, id string) error {
	defer logging.TraceDuration(u.log, "UserUC.Delete")()
	return u.users.Delete(ctx, repository.NoTX, id)
}

func (u *userUC) Block(ctx context.Context, id string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Block")()
	return u.mutate(ctx, id, func(usr *model.User) error {
		usr.IsBlocked = true
		return nil
	})
}

func (u *userUC) Unblock(ctx context.Context, id string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Unblock")()
	return u.mutate(ctx, id, func(usr *model.User) error {
		usr.IsBlocked = false
		return nil
	})
}

func (u *userUC) SetPremium(ctx context.Context, id string, premium bool) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.SetPremium")()
	return u.mutate(ctx, id, func(usr *model.User) error {
		usr.IsPremium = premium
		return nil
	})
}

func (u *userUC) AddFreeAds(ctx context.Context, id string, n int) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.AddFreeAds")()
	if n <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return u.mutate(ctx, id, func(usr *model.User) error {
		usr.FreeAdsCount += n
		return nil
	})
}

func (u *userUC) DecrementFreeAds(ctx context.Context, id string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.DecrementFreeAds")()
	return u.mutate(ctx, id, func(usr *model.User) error {
		usr.ConsumeFreeAd()
		return nil
	})
}

func (u *userUC) ResetMonthlyFreeAds(ctx context.Context) (int, error) {
	defer logging.TraceDuration(u.log, "UserUC.ResetMonthlyFreeAds")()
	n, err := u.users.ResetFreeAds(ctx, repository.NoTX, model.DefaultFreeAds)
	if err != nil {
		return 0, err
	}
	metrics.IncFreeQuotaReset()
	u.log.Info().Int("users", n).Msg("monthly free ads reset")
	return n, nil
}

// mutate loads, changes and saves a user inside one transaction.
func (u *userUC) mutate(ctx context.Context, id string, fn func(*model.User) error) (*model.User, error) {
	var out *model.User
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		usr, err := u.users.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(usr); err != nil {
			return err
		}
		usr.Touch()
		if err := u.users.Save(ctx, tx, usr); err != nil {
			return err
		}
		out = usr
		return nil
	})
	return out, err
}
