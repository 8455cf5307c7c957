//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"photo-market/internal/domain"
	"photo-market/internal/domain/model"
	"photo-market/internal/usecase"
)

// paymentUCTestDeps holds all the mock dependencies for the payment use case tests.
type paymentUCTestDeps struct {
	payments *MockPaymentRepo
	settings *MockSettingRepo
	gateway  *MockPaymentGateway
	ad       *adUCTestDeps
	adUC     usecase.AdUseCase
	userUC   usecase.UserUseCase
}

func newPaymentUCDeps() *paymentUCTestDeps {
	d := &paymentUCTestDeps{
		payments: NewMockPaymentRepo(),
		settings: NewMockSettingRepo(),
		gateway:  &MockPaymentGateway{},
		ad:       newAdUCDeps(),
	}
	d.adUC = d.ad.uc(model.AdStatusPending)
	d.userUC = usecase.NewUserUseCase(d.ad.users, d.ad.tm, newTestLogger())
	return d
}

func (d *paymentUCTestDeps) uc() usecase.PaymentUseCase {
	settings := usecase.NewSettingUseCase(d.settings, newTestLogger())
	return usecase.NewPaymentUseCase(d.payments, d.adUC, d.userUC, settings, d.gateway, d.ad.tm, "https://example.com/cb", newTestLogger())
}

func TestPaymentUseCase_Initiate(t *testing.T) {
	ctx := context.Background()

	t.Run("should initiate featured payment with the configured price", func(t *testing.T) {
		d := newPaymentUCDeps()
		seedUser(d.ad.users, "u-1", 1)
		_ = d.ad.ads.Save(ctx, nil, &model.Ad{ID: "ad-1", UserID: "u-1"})
		_ = d.settings.Upsert(ctx, nil, &model.Setting{Key: model.SettingFeaturedAdPrice, Value: "70000"})

		var charged int64
		d.gateway.RequestPaymentFunc = func(ctx context.Context, amount int64, description, callbackURL string, meta map[string]interface{}) (string, string, error) {
			charged = amount
			return "A-1", "https://pay.example/A-1", nil
		}

		p, payURL, err := d.uc().Initiate(ctx, "u-1", model.PaymentTypeAdFeatured, "ad-1")
		if err != nil {
			t.Fatalf("Initiate failed: %v", err)
		}
		if payURL == "" || p.Authority != "A-1" {
			t.Errorf("unexpected result: %+v %q", p, payURL)
		}
		if p.Amount != 70000 || charged != 700000 {
			t.Errorf("expected 70000 Toman charged as 700000 Rial, got %d / %d", p.Amount, charged)
		}
		if p.Status != model.PaymentStatusPending {
			t.Errorf("expected pending, got %s", p.Status)
		}
	})

	t.Run("should fall back to default price", func(t *testing.T) {
		d := newPaymentUCDeps()
		seedUser(d.ad.users, "u-1", 1)
		p, _, err := d.uc().Initiate(ctx, "u-1", model.PaymentTypeExtraAd, "")
		if err != nil {
			t.Fatalf("Initiate failed: %v", err)
		}
		if p.Amount != model.DefaultExtraAdPrice || p.AdID != nil {
			t.Errorf("unexpected payment: %+v", p)
		}
	})

	t.Run("should refuse promoting someone else's ad", func(t *testing.T) {
		d := newPaymentUCDeps()
		_ = d.ad.ads.Save(ctx, nil, &model.Ad{ID: "ad-1", UserID: "u-2"})
		if _, _, err := d.uc().Initiate(ctx, "u-1", model.PaymentTypeAdBoost, "ad-1"); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("should fail without gateway", func(t *testing.T) {
		d := newPaymentUCDeps()
		uc := usecase.NewPaymentUseCase(d.payments, d.adUC, d.userUC, usecase.NewSettingUseCase(d.settings, newTestLogger()), nil, d.ad.tm, "", newTestLogger())
		if _, _, err := uc.Initiate(ctx, "u-1", model.PaymentTypePremium, ""); !errors.Is(err, domain.ErrGatewayUnavailable) {
			t.Errorf("expected ErrGatewayUnavailable, got %v", err)
		}
		if uc.Enabled() {
			t.Error("expected payments disabled")
		}
	})
}

func TestPaymentUseCase_Confirm(t *testing.T) {
	ctx := context.Background()

	effects := []struct {
		name  string
		typ   model.PaymentType
		check func(t *testing.T, d *paymentUCTestDeps)
	}{
		{"featured", model.PaymentTypeAdFeatured, func(t *testing.T, d *paymentUCTestDeps) {
			ad, _ := d.ad.ads.FindByID(ctx, nil, "ad-1")
			if !ad.IsFeatured {
				t.Error("expected ad to be featured")
			}
		}},
		{"boost", model.PaymentTypeAdBoost, func(t *testing.T, d *paymentUCTestDeps) {
			ad, _ := d.ad.ads.FindByID(ctx, nil, "ad-1")
			if !ad.IsBoosted {
				t.Error("expected ad to be boosted")
			}
		}},
		{"premium", model.PaymentTypePremium, func(t *testing.T, d *paymentUCTestDeps) {
			u, _ := d.ad.users.FindByID(ctx, nil, "u-1")
			if !u.IsPremium {
				t.Error("expected premium user")
			}
		}},
		{"extra ad", model.PaymentTypeExtraAd, func(t *testing.T, d *paymentUCTestDeps) {
			u, _ := d.ad.users.FindByID(ctx, nil, "u-1")
			if u.FreeAdsCount != 2 {
				t.Errorf("expected 2 free ads, got %d", u.FreeAdsCount)
			}
		}},
	}
	for _, tt := range effects {
		t.Run("should apply effect: "+tt.name, func(t *testing.T) {
			d := newPaymentUCDeps()
			seedUser(d.ad.users, "u-1", 1)
			_ = d.ad.ads.Save(ctx, nil, &model.Ad{ID: "ad-1", UserID: "u-1"})
			uc := d.uc()
			p, _, err := uc.Initiate(ctx, "u-1", tt.typ, "ad-1")
			if err != nil {
				t.Fatalf("Initiate failed: %v", err)
			}

			got, err := uc.Confirm(ctx, p.Authority)
			if err != nil {
				t.Fatalf("Confirm failed: %v", err)
			}
			if got.Status != model.PaymentStatusCompleted || got.RefID == "" || got.PaidAt == nil {
				t.Errorf("unexpected payment: %+v", got)
			}
			tt.check(t, d)

			if _, err := uc.Confirm(ctx, p.Authority); !errors.Is(err, domain.ErrPaymentNotPending) {
				t.Errorf("second confirm should fail with ErrPaymentNotPending, got %v", err)
			}
		})
	}

	t.Run("should mark failed when verification fails", func(t *testing.T) {
		d := newPaymentUCDeps()
		seedUser(d.ad.users, "u-1", 1)
		d.gateway.VerifyPaymentFunc = func(ctx context.Context, authority string, expectedAmount int64) (string, error) {
			return "", errBoom
		}
		uc := d.uc()
		p, _, _ := uc.Initiate(ctx, "u-1", model.PaymentTypePremium, "")

		got, err := uc.Confirm(ctx, p.Authority)
		if !usecase.IsVerifyFailure(err) {
			t.Fatalf("expected verify failure, got %v", err)
		}
		if got.Status != model.PaymentStatusFailed {
			t.Errorf("expected failed, got %s", got.Status)
		}
		u, _ := d.ad.users.FindByID(ctx, nil, "u-1")
		if u.IsPremium {
			t.Error("effect must not be applied")
		}
	})

	t.Run("unknown authority", func(t *testing.T) {
		d := newPaymentUCDeps()
		if _, err := d.uc().Confirm(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestPaymentUseCase_FailAndStats(t *testing.T) {
	ctx := context.Background()
	d := newPaymentUCDeps()
	seedUser(d.ad.users, "u-1", 1)
	uc := d.uc()

	p1, _, _ := uc.Initiate(ctx, "u-1", model.PaymentTypeExtraAd, "")
	p2, _, _ := uc.Initiate(ctx, "u-1", model.PaymentTypeExtraAd, "")
	if _, err := uc.Confirm(ctx, p1.Authority); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if _, err := uc.Fail(ctx, p2.Authority); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}

	s, err := uc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if s.Total != 2 || s.Completed != 1 || s.Failed != 1 || s.Revenue != model.DefaultExtraAdPrice {
		t.Errorf("unexpected stats: %+v", s)
	}
	list, _ := uc.ListByUser(ctx, "u-1")
	if len(list) != 2 {
		t.Errorf("expected 2 payments, got %d", len(list))
	}
}

func TestPaymentUseCase_ReconcileStale(t *testing.T) {
	ctx := context.Background()
	d := newPaymentUCDeps()
	seedUser(d.ad.users, "u-1", 1)
	uc := d.uc()

	stale, _, _ := uc.Initiate(ctx, "u-1", model.PaymentTypeExtraAd, "")
	rejected, _, _ := uc.Initiate(ctx, "u-1", model.PaymentTypeExtraAd, "")
	fresh, _, _ := uc.Initiate(ctx, "u-1", model.PaymentTypeExtraAd, "")
	for _, p := range []*model.Payment{stale, rejected} {
		d.payments.data[p.ID].CreatedAt = time.Now().Add(-time.Hour)
	}
	d.gateway.VerifyPaymentFunc = func(ctx context.Context, authority string, expectedAmount int64) (string, error) {
		if authority == rejected.Authority {
			return "", errors.New("code -51")
		}
		return "REF-1", nil
	}

	n, err := uc.ReconcileStale(ctx, 30*time.Minute)
	if err != nil {
		t.Fatalf("ReconcileStale failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 settled payments, got %d", n)
	}
	want := map[string]model.PaymentStatus{
		stale.ID:    model.PaymentStatusCompleted,
		rejected.ID: model.PaymentStatusFailed,
		fresh.ID:    model.PaymentStatusPending,
	}
	for id, st := range want {
		if got, _ := uc.Get(ctx, id); got.Status != st {
			t.Errorf("payment %s: expected %s, got %s", id, st, got.Status)
		}
	}
	if u, _ := d.ad.users.FindByID(ctx, nil, "u-1"); u.FreeAdsCount != 2 {
		t.Errorf("expected the stale payment to grant one ad, got %d free ads", u.FreeAdsCount)
	}

	t.Run("no gateway is a no-op", func(t *testing.T) {
		settings := usecase.NewSettingUseCase(d.settings, newTestLogger())
		off := usecase.NewPaymentUseCase(d.payments, d.adUC, d.userUC, settings, nil, d.ad.tm, "", newTestLogger())
		if n, err := off.ReconcileStale(ctx, 0); n != 0 || err != nil {
			t.Errorf("expected 0, nil; got %d, %v", n, err)
		}
	})
}
