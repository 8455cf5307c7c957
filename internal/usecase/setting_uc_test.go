//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"photo-market/internal/domain"
	"photo-market/internal/domain/model"
	"photo-market/internal/domain/ports/repository"
	"photo-market/internal/usecase"
)

func TestSettingUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("typed getters fall back to defaults", func(t *testing.T) {
		uc := usecase.NewSettingUseCase(NewMockSettingRepo(), newTestLogger())
		if got := uc.WelcomeMessage(ctx); got != model.DefaultWelcomeMessage {
			t.Errorf("unexpected welcome %q", got)
		}
		if got := uc.Price(ctx, model.PaymentTypeAdBoost); got != model.DefaultBoostAdPrice {
			t.Errorf("unexpected boost price %d", got)
		}
	})

	t.Run("stored values win; malformed prices use defaults", func(t *testing.T) {
		repo := NewMockSettingRepo()
		uc := usecase.NewSettingUseCase(repo, newTestLogger())
		if _, err := uc.Set(ctx, model.SettingAdGuidelines, "فقط تجهیزات عکاسی", ""); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		_, _ = uc.Set(ctx, model.SettingPremiumPrice, "abc", "")
		_, _ = uc.Set(ctx, model.SettingFeaturedAdPrice, "90000", "")

		if got := uc.AdGuidelines(ctx); got != "فقط تجهیزات عکاسی" {
			t.Errorf("unexpected guidelines %q", got)
		}
		if got := uc.Price(ctx, model.PaymentTypePremium); got != model.DefaultPremiumPrice {
			t.Errorf("expected default premium price, got %d", got)
		}
		if got := uc.Price(ctx, model.PaymentTypeAdFeatured); got != 90000 {
			t.Errorf("expected stored featured price, got %d", got)
		}
	})

	t.Run("repository errors degrade to defaults", func(t *testing.T) {
		repo := NewMockSettingRepo()
		repo.GetFunc = func(ctx context.Context, tx repository.Tx, key string) (*model.Setting, error) {
			return nil, errBoom
		}
		uc := usecase.NewSettingUseCase(repo, newTestLogger())
		if got := uc.WelcomeMessage(ctx); got != model.DefaultWelcomeMessage {
			t.Errorf("unexpected welcome %q", got)
		}
	})

	t.Run("CRUD", func(t *testing.T) {
		uc := usecase.NewSettingUseCase(NewMockSettingRepo(), newTestLogger())
		if _, err := uc.Set(ctx, "  ", "v", ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		_, _ = uc.Set(ctx, "k", "v", "d")
		list, _ := uc.List(ctx)
		if len(list) != 1 {
			t.Fatalf("expected one setting, got %d", len(list))
		}
		if err := uc.Delete(ctx, "k"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := uc.Get(ctx, "k"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
