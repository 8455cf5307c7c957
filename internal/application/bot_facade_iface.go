package application

import (
	"context"

	"photo-market/internal/domain/model"
)

// ---- small interfaces to decouple the facade from concrete usecase structs ----
// These describe the minimal surface that the facade needs. Using interfaces
// enables tests to pass in light-weight mocks.
type UserUseCaseIface interface {
	// FindByTelegramID returns nil, nil for an unknown account.
	FindByTelegramID(ctx context.Context, tgID int64) (*model.User, error)
	CreateOrUpdate(ctx context.Context, tgID int64, p model.UserProfile) (*model.User, error)
}

// AdUseCaseIface is the ad-creation collaborator.
type AdUseCaseIface interface {
	Create(ctx context.Context, ownerID string, p model.AdPayload, images []model.ImageBlob) (*model.Ad, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Ad, error)
}

type PaymentUseCaseIface interface {
	Enabled() bool
	Initiate(ctx context.Context, userID string, t model.PaymentType, adID string) (*model.Payment, string, error)
}

type SettingUseCaseIface interface {
	WelcomeMessage(ctx context.Context) string
	AdGuidelines(ctx context.Context) string
	Price(ctx context.Context, t model.PaymentType) int64
}

type ContentValidatorIface interface {
	ValidateAdContent(title, description, category string) bool
}
