package repository

import (
	"context"

	"photo-market/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByTelegramID(ctx context.Context, tx Tx, tgID int64) (*model.User, error)
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	List(ctx context.Context, tx Tx, offset, limit int) ([]*model.User, error)
	Delete(ctx context.Context, tx Tx, id string) error
	CountUsers(ctx context.Context, tx Tx) (int, error)
	// ResetFreeAds sets every non-premium user's free quota to count and returns affected rows.
	ResetFreeAds(ctx context.Context, tx Tx, count int) (int, error)
}
