package repository

import (
	"context"

	"photo-market/internal/domain/model"
)

// -----------------------------
// Settings
// -----------------------------

type SettingRepository interface {
	Get(ctx context.Context, tx Tx, key string) (*model.Setting, error)
	List(ctx context.Context, tx Tx) ([]*model.Setting, error)
	Upsert(ctx context.Context, tx Tx, s *model.Setting) error
	Delete(ctx context.Context, tx Tx, key string) error
}
