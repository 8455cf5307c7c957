package repository

import (
	"context"
	"time"

	"photo-market/internal/domain/model"
)

// -----------------------------
// Payments
// -----------------------------

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindByAuthority(ctx context.Context, tx Tx, authority string) (*model.Payment, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Payment, error)
	Stats(ctx context.Context, tx Tx) (model.PaymentStats, error)
	// ListPendingOlderThan returns pending payments that reached the gateway before cutoff.
	ListPendingOlderThan(ctx context.Context, tx Tx, cutoff time.Time, limit int) ([]*model.Payment, error)
}
