package repository

import (
	"context"
	"time"

	"photo-market/internal/domain/model"
)

// -----------------------------
// Ads
// -----------------------------

type AdRepository interface {
	Save(ctx context.Context, tx Tx, ad *model.Ad) error
	// SaveImages replaces the image rows of an ad.
	SaveImages(ctx context.Context, tx Tx, adID string, images []model.AdImage) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Ad, error)
	List(ctx context.Context, tx Tx, f model.AdFilter) ([]*model.Ad, int, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Ad, error)
	Delete(ctx context.Context, tx Tx, id string) error
	SetTelegramMessageID(ctx context.Context, tx Tx, id string, messageID int) error
	// ExpireDue moves live ads past their expiration date to expired.
	ExpireDue(ctx context.Context, tx Tx, now time.Time) (int, error)
	// ClearPromotions drops featured/boost flags whose deadlines passed.
	ClearPromotions(ctx context.Context, tx Tx, now time.Time) (int, error)
}
