//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"

	"photo-market/internal/domain"
	"photo-market/internal/domain/model"
)

func TestSettingRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	repo := NewSettingRepo(testPool)
	ctx := context.Background()

	t.Run("defaults are seeded by migrations", func(t *testing.T) {
		s, err := repo.Get(ctx, nil, model.SettingExtraAdPrice)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if s.Value != "30000" {
			t.Errorf("unexpected default %q", s.Value)
		}
	})

	t.Run("upsert keeps the description when none is given", func(t *testing.T) {
		key := "test_setting"
		t.Cleanup(func() { _ = repo.Delete(ctx, nil, key) })

		if err := repo.Upsert(ctx, nil, &model.Setting{Key: key, Value: "1", Description: "first"}); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
		s := &model.Setting{Key: key, Value: "2"}
		if err := repo.Upsert(ctx, nil, s); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
		got, err := repo.Get(ctx, nil, key)
		if err != nil {
			t.Fatal(err)
		}
		if got.Value != "2" || got.Description != "first" {
			t.Errorf("unexpected setting %+v", got)
		}
		if s.UpdatedAt.IsZero() {
			t.Error("Upsert should fill timestamps")
		}

		all, err := repo.List(ctx, nil)
		if err != nil || len(all) < 7 {
			t.Errorf("List returned %d settings, %v", len(all), err)
		}

		if err := repo.Delete(ctx, nil, key); err != nil {
			t.Fatal(err)
		}
		if _, err := repo.Get(ctx, nil, key); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
