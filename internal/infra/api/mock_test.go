//go:build !integration

package api_test

import (
	"context"
	"time"

	"photo-market/internal/domain"
	"photo-market/internal/domain/model"
	"photo-market/internal/usecase"

	"github.com/golang-jwt/jwt/v5"
)

// Each mock embeds its interface; calling an unstubbed method panics, which
// the Recover middleware turns into a 500.

type mockAuth struct {
	usecase.AuthUseCase
	AuthenticateTelegramFunc func(ctx context.Context, tgID int64, p model.UserProfile) (*model.User, string, error)
}

// Verify accepts "token-<userID>".
func (m *mockAuth) Verify(token string) (*usecase.UserClaims, error) {
	if len(token) <= len("token-") || token[:len("token-")] != "token-" {
		return nil, domain.ErrUnauthorized
	}
	return &usecase.UserClaims{
		TelegramID: 42,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   token[len("token-"):],
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, nil
}

func (m *mockAuth) AuthenticateTelegram(ctx context.Context, tgID int64, p model.UserProfile) (*model.User, string, error) {
	return m.AuthenticateTelegramFunc(ctx, tgID, p)
}

type mockUsers struct {
	usecase.UserUseCase
	users map[string]*model.User

	ListFunc  func(ctx context.Context, offset, limit int) ([]*model.User, error)
	BlockFunc func(ctx context.Context, id string) (*model.User, error)
}

func newMockUsers(us ...*model.User) *mockUsers {
	m := &mockUsers{users: map[string]*model.User{}}
	for _, u := range us {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUsers) Get(ctx context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockUsers) List(ctx context.Context, offset, limit int) ([]*model.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, offset, limit)
	}
	out := make([]*model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockUsers) Count(ctx context.Context) (int, error) { return len(m.users), nil }

func (m *mockUsers) Block(ctx context.Context, id string) (*model.User, error) {
	if m.BlockFunc != nil {
		return m.BlockFunc(ctx, id)
	}
	u, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	u.IsBlocked = true
	return u, nil
}

type mockAds struct {
	usecase.AdUseCase

	CreateFunc       func(ctx context.Context, ownerID string, p model.AdPayload, images []model.ImageBlob) (*model.Ad, error)
	GetFunc          func(ctx context.Context, id string) (*model.Ad, error)
	ListFunc         func(ctx context.Context, f model.AdFilter) ([]*model.Ad, int, error)
	UpdateFunc       func(ctx context.Context, id, ownerID string, patch model.AdPatch) (*model.Ad, error)
	UpdateStatusFunc func(ctx context.Context, id string, status model.AdStatus) (*model.Ad, error)
	RemoveFunc       func(ctx context.Context, id, ownerID string) error
}

func (m *mockAds) Create(ctx context.Context, ownerID string, p model.AdPayload, images []model.ImageBlob) (*model.Ad, error) {
	return m.CreateFunc(ctx, ownerID, p, images)
}

func (m *mockAds) Get(ctx context.Context, id string) (*model.Ad, error) {
	return m.GetFunc(ctx, id)
}

func (m *mockAds) List(ctx context.Context, f model.AdFilter) ([]*model.Ad, int, error) {
	return m.ListFunc(ctx, f)
}

func (m *mockAds) Update(ctx context.Context, id, ownerID string, patch model.AdPatch) (*model.Ad, error) {
	return m.UpdateFunc(ctx, id, ownerID, patch)
}

func (m *mockAds) UpdateStatus(ctx context.Context, id string, status model.AdStatus) (*model.Ad, error) {
	return m.UpdateStatusFunc(ctx, id, status)
}

func (m *mockAds) Remove(ctx context.Context, id, ownerID string) error {
	return m.RemoveFunc(ctx, id, ownerID)
}

type mockPayments struct {
	usecase.PaymentUseCase
	Disabled bool

	InitiateFunc func(ctx context.Context, userID string, t model.PaymentType, adID string) (*model.Payment, string, error)
	ConfirmFunc  func(ctx context.Context, authority string) (*model.Payment, error)
	FailFunc     func(ctx context.Context, authority string) (*model.Payment, error)
}

func (m *mockPayments) Enabled() bool { return !m.Disabled }

func (m *mockPayments) Initiate(ctx context.Context, userID string, t model.PaymentType, adID string) (*model.Payment, string, error) {
	return m.InitiateFunc(ctx, userID, t, adID)
}

func (m *mockPayments) Confirm(ctx context.Context, authority string) (*model.Payment, error) {
	return m.ConfirmFunc(ctx, authority)
}

func (m *mockPayments) Fail(ctx context.Context, authority string) (*model.Payment, error) {
	return m.FailFunc(ctx, authority)
}

type mockSettings struct {
	usecase.SettingUseCase
	SetFunc func(ctx context.Context, key, value, desc string) (*model.Setting, error)
}

func (m *mockSettings) Set(ctx context.Context, key, value, desc string) (*model.Setting, error) {
	return m.SetFunc(ctx, key, value, desc)
}
