package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"photo-market/internal/domain"
	"photo-market/internal/domain/model"
	"photo-market/internal/domain/ports/adapter"
	"photo-market/internal/domain/ports/repository"
	"photo-market/internal/infra/logging"
	"photo-market/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ AdUseCase = (*adUC)(nil)

// BackgroundRunner accepts fire-and-forget work (see worker.Pool).
type BackgroundRunner interface {
	Submit(task func(ctx context.Context) error) error
}

// AdUseCase is the ad-creation collaborator behind both the bot and the REST API.
type AdUseCase interface {
	// Create stores a new ad for ownerID. Images without a URL are uploaded first.
	Create(ctx context.Context, ownerID string, p model.AdPayload, images []model.ImageBlob) (*model.Ad, error)
	Get(ctx context.Context, id string) (*model.Ad, error)
	List(ctx context.Context, f model.AdFilter) ([]*model.Ad, int, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Ad, error)
	// Update applies an owner edit; an empty ownerID skips the ownership check.
	Update(ctx context.Context, id, ownerID string, patch model.AdPatch) (*model.Ad, error)
	UpdateStatus(ctx context.Context, id string, status model.AdStatus) (*model.Ad, error)
	// Remove deletes the ad and its stored photos; an empty ownerID skips the ownership check.
	Remove(ctx context.Context, id, ownerID string) error
	MakeFeatured(ctx context.Context, id string, days int) (*model.Ad, error)
	Boost(ctx context.Context, id string, days int) (*model.Ad, error)
	ExpireDue(ctx context.Context, now time.Time) (int, error)
	ClearPromotions(ctx context.Context, now time.Time) (int, error)
}

// AdUCOptions carries the optional collaborators of the ad use case.
type AdUCOptions struct {
	// InitialStatus is the status of freshly created ads: pending (default) or approved.
	InitialStatus model.AdStatus
	Publisher     adapter.ChannelPublisher
	Runner        BackgroundRunner
}

type adUC struct {
	ads       repository.AdRepository
	users     repository.UserRepository
	tm        repository.TransactionManager
	storage   adapter.ObjectStorage
	validator ContentValidator
	publisher adapter.ChannelPublisher
	runner    BackgroundRunner
	initial   model.AdStatus
	now       func() time.Time
	log       *zerolog.Logger
}

func NewAdUseCase(
	ads repository.AdRepository,
	users repository.UserRepository,
	tm repository.TransactionManager,
	storage adapter.ObjectStorage,
	validator ContentValidator,
	opts AdUCOptions,
	logger *zerolog.Logger,
) *adUC {
	initial := opts.InitialStatus
	if initial != model.AdStatusApproved {
		initial = model.AdStatusPending
	}
	return &adUC{
		ads:       ads,
		users:     users,
		tm:        tm,
		storage:   storage,
		validator: validator,
		publisher: opts.Publisher,
		runner:    opts.Runner,
		initial:   initial,
		now:       time.Now,
		log:       logger,
	}
}

func (u *adUC) Create(ctx context.Context, ownerID string, p model.AdPayload, images []model.ImageBlob) (*model.Ad, error) {
	defer logging.TraceDuration(u.log, "AdUC.Create")()

	owner, err := u.users.FindByID(ctx, repository.NoTX, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load owner: %w", err)
	}
	if err := owner.CanPostAd(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !u.validator.ValidateAdContent(p.Title, p.Description, p.Category) {
		return nil, domain.ErrContentRejected
	}
	if len(images) > model.MaxAdImages {
		return nil, domain.ErrTooManyImages
	}

	now := u.now()
	ad, err := model.NewAd(owner.ID, p, u.initial, now)
	if err != nil {
		return nil, err
	}

	uploaded, err := u.uploadMissing(ctx, images)
	if err != nil {
		u.discard(ctx, uploaded)
		return nil, err
	}
	ad.Images = make([]model.AdImage, 0, len(images))
	for i, img := range images {
		url := img.URL
		if url == "" {
			url = uploaded[i]
		}
		ad.Images = append(ad.Images, model.AdImage{
			ID:        uuid.NewString(),
			AdID:      ad.ID,
			URL:       url,
			Filename:  img.Filename,
			Order:     i,
			Size:      img.Size,
			MimeType:  img.MimeType,
			CreatedAt: now,
		})
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// Re-read the owner inside the tx so the quota decrement can't race another create.
		usr, err := u.users.FindByID(ctx, tx, owner.ID)
		if err != nil {
			return err
		}
		if err := usr.CanPostAd(); err != nil {
			return err
		}
		if err := u.ads.Save(ctx, tx, ad); err != nil {
			return fmt.Errorf("save ad: %w", err)
		}
		if err := u.ads.SaveImages(ctx, tx, ad.ID, ad.Images); err != nil {
			return fmt.Errorf("save ad images: %w", err)
		}
		usr.ConsumeFreeAd()
		return u.users.Save(ctx, tx, usr)
	})
	if err != nil {
		u.discard(ctx, uploaded)
		return nil, err
	}

	source := p.Source
	if source == "" {
		source = model.AdSourceAPI
	}
	metrics.IncAdCreated(source, string(ad.Status))
	u.log.Info().Str("ad_id", ad.ID).Str("user_id", owner.ID).Str("status", string(ad.Status)).
		Int("images", len(ad.Images)).Msg("ad created")

	if ad.Status == model.AdStatusApproved {
		u.publish(ad)
	}
	return ad, nil
}

// uploadMissing uploads blobs that have no URL yet. The result is indexed like images;
// entries for blobs that already had a URL stay empty.
func (u *adUC) uploadMissing(ctx context.Context, images []model.ImageBlob) (map[int]string, error) {
	out := map[int]string{}
	for i := range images {
		if images[i].URL != "" {
			continue
		}
		if u.storage == nil {
			return out, fmt.Errorf("upload image %d: no object storage configured", i+1)
		}
		start := time.Now()
		url, err := u.storage.Upload(ctx, &images[i])
		metrics.ObserveStorageUpload(time.Since(start), err == nil)
		if err != nil {
			return out, fmt.Errorf("upload image %d: %w", i+1, err)
		}
		out[i] = url
	}
	return out, nil
}

func (u *adUC) discard(ctx context.Context, uploaded map[int]string) {
	if len(uploaded) == 0 || u.storage == nil {
		return
	}
	urls := make([]string, 0, len(uploaded))
	for _, url := range uploaded {
		urls = append(urls, url)
	}
	if err := u.storage.DeleteMany(ctx, urls); err != nil {
		u.log.Warn().Err(err).Int("count", len(urls)).Msg("failed to remove orphaned uploads")
	}
}

// publish posts the ad to the channel in the background. Failures are logged and counted only.
func (u *adUC) publish(ad *model.Ad) {
	if u.publisher == nil || u.runner == nil {
		return
	}
	cp := *ad
	cp.Images = append([]model.AdImage(nil), ad.Images...)
	err := u.runner.Submit(func(ctx context.Context) error {
		msgID, err := u.publisher.PublishAd(ctx, &cp)
		if err != nil {
			metrics.IncAdPublished("error")
			return fmt.Errorf("publish ad %s: %w", cp.ID, err)
		}
		metrics.IncAdPublished("ok")
		if err := u.ads.SetTelegramMessageID(ctx, repository.NoTX, cp.ID, msgID); err != nil {
			return fmt.Errorf("store channel message id: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.IncAdPublished("dropped")
		u.log.Warn().Err(err).Str("ad_id", ad.ID).Msg("channel publish not scheduled")
	}
}

func (u *adUC) Get(ctx context.Context, id string) (*model.Ad, error) {
	defer logging.TraceDuration(u.log, "AdUC.Get")()
	return u.ads.FindByID(ctx, repository.NoTX, id)
}

func (u *adUC) List(ctx context.Context, f model.AdFilter) ([]*model.Ad, int, error) {
	defer logging.TraceDuration(u.log, "AdUC.List")()
	f.Normalize()
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, domain.ErrInvalidStatus
	}
	return u.ads.List(ctx, repository.NoTX, f)
}

func (u *adUC) ListByUser(ctx context.Context, userID string) ([]*model.Ad, error) {
	defer logging.TraceDuration(u.log, "AdUC.ListByUser")()
	return u.ads.ListByUser(ctx, repository.NoTX, userID)
}

func (u *adUC) Update(ctx context.Context, id, ownerID string, patch model.AdPatch) (*model.Ad, error) {
	defer logging.TraceDuration(u.log, "AdUC.Update")()
	return u.mutate(ctx, id, func(ad *model.Ad) error {
		if ownerID != "" && ad.UserID != ownerID {
			return domain.ErrForbidden
		}
		if err := patch.Apply(ad, u.now()); err != nil {
			return err
		}
		if patch.Title != nil || patch.Description != nil {
			if !u.validator.ValidateAdContent(ad.Title, ad.Description, ad.Category) {
				return domain.ErrContentRejected
			}
		}
		return nil
	})
}

func (u *adUC) UpdateStatus(ctx context.Context, id string, status model.AdStatus) (*model.Ad, error) {
	defer logging.TraceDuration(u.log, "AdUC.UpdateStatus")()
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	var prev model.AdStatus
	ad, err := u.mutate(ctx, id, func(ad *model.Ad) error {
		prev = ad.Status
		ad.Status = status
		ad.UpdatedAt = u.now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if status == model.AdStatusApproved && prev != model.AdStatusApproved && ad.TelegramMessageID == nil {
		u.publish(ad)
	}
	return ad, nil
}

func (u *adUC) Remove(ctx context.Context, id, ownerID string) error {
	defer logging.TraceDuration(u.log, "AdUC.Remove")()
	ad, err := u.ads.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return err
	}
	if ownerID != "" && ad.UserID != ownerID {
		return domain.ErrForbidden
	}
	if err := u.ads.Delete(ctx, repository.NoTX, id); err != nil {
		return err
	}
	if u.storage != nil && len(ad.Images) > 0 {
		urls := make([]string, 0, len(ad.Images))
		for _, img := range ad.Images {
			if strings.TrimSpace(img.URL) != "" {
				urls = append(urls, img.URL)
			}
		}
		if err := u.storage.DeleteMany(ctx, urls); err != nil {
			u.log.Warn().Err(err).Str("ad_id", id).Msg("failed to remove ad images from storage")
		}
	}
	return nil
}

func (u *adUC) MakeFeatured(ctx context.Context, id string, days int) (*model.Ad, error) {
	defer logging.TraceDuration(u.log, "AdUC.MakeFeatured")()
	if days <= 0 {
		days = model.FeaturedDays
	}
	return u.mutate(ctx, id, func(ad *model.Ad) error {
		ad.Feature(u.now(), days)
		return nil
	})
}

func (u *adUC) Boost(ctx context.Context, id string, days int) (*model.Ad, error) {
	defer logging.TraceDuration(u.log, "AdUC.Boost")()
	if days <= 0 {
		days = model.BoostDays
	}
	return u.mutate(ctx, id, func(ad *model.Ad) error {
		ad.Boost(u.now(), days)
		return nil
	})
}

func (u *adUC) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	defer logging.TraceDuration(u.log, "AdUC.ExpireDue")()
	n, err := u.ads.ExpireDue(ctx, repository.NoTX, now)
	if err != nil {
		return 0, err
	}
	metrics.AddAdsExpired(n)
	return n, nil
}

func (u *adUC) ClearPromotions(ctx context.Context, now time.Time) (int, error) {
	defer logging.TraceDuration(u.log, "AdUC.ClearPromotions")()
	return u.ads.ClearPromotions(ctx, repository.NoTX, now)
}

func (u *adUC) mutate(ctx context.Context, id string, fn func(*model.Ad) error) (*model.Ad, error) {
	var out *model.Ad
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		ad, err := u.ads.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(ad); err != nil {
			return err
		}
		if err := u.ads.Save(ctx, tx, ad); err != nil {
			return err
		}
		out = ad
		return nil
	})
	return out, err
}
